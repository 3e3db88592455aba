package rdbms

import (
	"fmt"

	"github.com/relloyd/pgshift/helper"
)

// reservedWords are PostgreSQL and Redshift reserved words that must be quoted as identifiers.
var reservedWords = map[string]bool{
	"aes128": true, "aes256": true, "all": true, "allowoverwrite": true, "analyse": true, "analyze": true,
	"and": true, "any": true, "array": true, "as": true, "asc": true, "authorization": true, "backup": true,
	"between": true, "binary": true, "blanksasnull": true, "both": true, "bytedict": true, "bzip2": true,
	"case": true, "cast": true, "check": true, "collate": true, "column": true, "constraint": true,
	"create": true, "credentials": true, "cross": true, "current_date": true, "current_role": true,
	"current_time": true, "current_timestamp": true, "current_user": true, "default": true,
	"deferrable": true, "deflate": true, "defrag": true, "delta": true, "delta32k": true, "desc": true,
	"disable": true, "distinct": true, "do": true, "else": true, "emptyasnull": true, "enable": true,
	"encode": true, "encrypt": true, "encryption": true, "end": true, "except": true, "explicit": true,
	"false": true, "fetch": true, "for": true, "foreign": true, "freeze": true, "from": true, "full": true,
	"grant": true, "group": true, "gzip": true, "having": true, "identity": true, "ignore": true,
	"ilike": true, "in": true, "initially": true, "inner": true, "intersect": true, "into": true,
	"is": true, "isnull": true, "join": true, "lateral": true, "leading": true, "left": true, "like": true,
	"limit": true, "localtime": true, "localtimestamp": true, "lzo": true, "minus": true, "natural": true,
	"new": true, "not": true, "notnull": true, "null": true, "nulls": true, "off": true, "offline": true,
	"offset": true, "oid": true, "old": true, "on": true, "only": true, "open": true, "or": true,
	"order": true, "outer": true, "overlaps": true, "parallel": true, "partition": true, "percent": true,
	"permissions": true, "placing": true, "primary": true, "raw": true, "references": true,
	"respect": true, "restore": true, "returning": true, "right": true, "select": true,
	"session_user": true, "similar": true, "snapshot": true, "some": true, "symmetric": true,
	"sysdate": true, "system": true, "table": true, "tag": true, "then": true, "timestamp": true,
	"to": true, "top": true, "trailing": true, "true": true, "truncatecolumns": true, "union": true,
	"unique": true, "user": true, "using": true, "variadic": true, "verbose": true, "when": true,
	"where": true, "window": true, "with": true,
}

// needsQuoting reports whether an identifier needs quoting beyond reserved-word checks
// e.g. it contains hyphens, spaces or upper case characters.
func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	for i, r := range name {
		if r >= 'a' && r <= 'z' || r == '_' {
			continue
		}
		if i > 0 && (r >= '0' && r <= '9' || r == '$') {
			continue
		}
		return true
	}
	return false
}

// Ident returns a safe identifier, quoting reserved words and names
// that contain characters invalid in unquoted identifiers.
func Ident(name string) string {
	if reservedWords[name] || needsQuoting(name) {
		return QuoteIdent(name)
	}
	return name
}

// QuoteIdent always double-quotes name, escaping embedded quotes.
func QuoteIdent(name string) string {
	return `"` + helper.EscapeQuotesInString(name) + `"`
}

// SchemaTable identifies a table, with an optional schema, using unquoted names.
type SchemaTable struct {
	Schema string
	Table  string `errorTxt:"table name" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	return SchemaTable{Schema: schema, Table: table}
}

func (st SchemaTable) GetTable() string {
	return st.Table
}

func (st SchemaTable) GetSchema() string {
	return st.Schema
}

// WithSuffix returns a new SchemaTable in the same schema whose table name has suffix appended.
func (st SchemaTable) WithSuffix(suffix string) SchemaTable {
	return SchemaTable{Schema: st.Schema, Table: st.Table + suffix}
}

// String returns [schema.]table with each part quoted only where required.
func (st SchemaTable) String() string {
	if st.Schema == "" {
		return Ident(st.Table)
	}
	return fmt.Sprintf("%v.%v", Ident(st.Schema), Ident(st.Table))
}
