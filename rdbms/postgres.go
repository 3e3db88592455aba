package rdbms

import (
	"fmt"

	"github.com/relloyd/pgshift/helper"
)

// SqlSetSessionReadOnly makes every transaction on the session read only.
const SqlSetSessionReadOnly = "SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY"

// SqlCatalogTables lists tables and views in schema $1.
const SqlCatalogTables = `SELECT table_name::text, table_type::text
FROM information_schema.tables
WHERE table_schema = $1
AND table_type IN ('BASE TABLE', 'VIEW')
ORDER BY table_name`

// SqlCatalogColumns lists the columns of table $2 in schema $1 in ordinal order.
// The information_schema domain types are cast so they scan without registering the domains.
const SqlCatalogColumns = `SELECT column_name::text, data_type::text, udt_name::text,
character_maximum_length::int, numeric_precision::int, numeric_scale::int, datetime_precision::int
FROM information_schema.columns
WHERE table_schema = $1
AND table_name = $2
ORDER BY ordinal_position`

// GetCopyToStdoutSql returns a COPY statement that streams the projection over t as delimited CSV.
// NULLs are written as unquoted empty fields and values containing the delimiter, quotes or newlines are quoted.
func GetCopyToStdoutSql(t SchemaTable, columnsForCopy string, delimiter string) string {
	return fmt.Sprintf("COPY (SELECT %v FROM %v) TO STDOUT WITH CSV DELIMITER '%v'",
		columnsForCopy, t, helper.EscapeSingleQuotesInString(delimiter))
}
