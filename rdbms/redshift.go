package rdbms

import (
	"fmt"
	"strings"

	"github.com/relloyd/pgshift/helper"
)

const redactedText = "xxxxx"

// CopyCredentials holds what Redshift needs to read a staged object.
// Set IamRole to use role based access, otherwise the access key pair is embedded in the COPY statement.
type CopyCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	IamRole         string
	Region          string
}

// Clause renders the authorisation part of a COPY statement.
// Secrets are replaced when redact is true so the statement can be logged.
func (c CopyCredentials) Clause(redact bool) string {
	if c.IamRole != "" { // if we're using a role...
		return fmt.Sprintf("IAM_ROLE '%v'", helper.EscapeSingleQuotesInString(c.IamRole))
	}
	secret := c.SecretAccessKey
	token := c.SessionToken
	if redact {
		secret = redactedText
		if token != "" {
			token = redactedText
		}
	}
	s := fmt.Sprintf("aws_access_key_id=%v;aws_secret_access_key=%v", c.AccessKeyID, secret)
	if token != "" {
		s += ";token=" + token
	}
	return fmt.Sprintf("CREDENTIALS '%v'", helper.EscapeSingleQuotesInString(s))
}

// GetCreateTableIfNotExistsSql returns DDL that creates the table with its physical layout hints.
// The statement does nothing if the table already exists, so changed key config is never reapplied.
func GetCreateTableIfNotExistsSql(t SchemaTable, columnsForCreate string, distKeyClause string, sortKeysClause string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %v (%v)%v%v", t, columnsForCreate, distKeyClause, sortKeysClause)
}

// GetCreateTableSql returns DDL for a fresh table without key clauses.
func GetCreateTableSql(t SchemaTable, columnsForCreate string) string {
	return fmt.Sprintf("CREATE TABLE %v (%v)", t, columnsForCreate)
}

func GetDropTableIfExistsSql(t SchemaTable) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %v", t)
}

// GetRenameTableSql renames t within its schema.
func GetRenameTableSql(t SchemaTable, newTableName string) string {
	return fmt.Sprintf("ALTER TABLE %v RENAME TO %v", t, Ident(newTableName))
}

// GetCopyFromS3Sql returns the bulk load statement for a gzipped, delimited file.
// Fields bind to columns by position and over-long values are truncated instead of failing the load.
func GetCopyFromS3Sql(t SchemaTable, s3Url string, creds CopyCredentials, delimiter string, redact bool) string {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("COPY %v FROM '%v' %v", t, helper.EscapeSingleQuotesInString(s3Url), creds.Clause(redact)))
	if creds.Region != "" {
		b.WriteString(fmt.Sprintf(" REGION AS '%v'", helper.EscapeSingleQuotesInString(creds.Region)))
	}
	b.WriteString(fmt.Sprintf(" CSV GZIP TRUNCATECOLUMNS DELIMITER AS '%v'", helper.EscapeSingleQuotesInString(delimiter)))
	return b.String()
}
