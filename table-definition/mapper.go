package tabledefinition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/rdbms"
)

// ErrUnsupportedDataType is returned when a source column type has no Redshift mapping.
var ErrUnsupportedDataType = errors.New("unsupported data type")

// Redshift limits.
const (
	redshiftMaxVarcharLen     = 65535
	redshiftMaxCharLen        = 4096
	redshiftMaxPrecision      = 38
	redshiftMaxScale          = 37
	unconstrainedNumericScale = 10
)

// ColumnType describes a source column as reported by information_schema.columns.
// Nil pointers mean the catalog returned NULL for that attribute.
type ColumnType struct {
	DataType               string
	UdtName                string
	CharacterMaximumLength *int32
	NumericPrecision       *int32
	NumericScale           *int32
	DatetimePrecision      *int32
}

func (t ColumnType) String() string {
	if t.UdtName != "" && !strings.EqualFold(t.UdtName, t.DataType) {
		return fmt.Sprintf("%v (%v)", t.DataType, t.UdtName)
	}
	return t.DataType
}

// Mapper converts a source column into its Redshift type and the projection used to extract it.
type Mapper interface {
	Map(columnName string, t ColumnType) (targetType string, copyExpression string, err error)
}

// sanitiserFuncT converts the length, precision and scale of t into a type modifier ready for use in CREATE TABLE DDL.
type sanitiserFuncT func(t ColumnType) string

// projectionFuncT returns the SELECT list expression that extracts a column so it loads into targetType.
type projectionFuncT func(columnName string, targetType string, t ColumnType) string

type dataTypeLink struct {
	SourceDataType string
	TargetDataType string
	SanitiserFunc  sanitiserFuncT
	ProjectionFunc projectionFuncT
}

// dataTypeMap implements Mapper.
type dataTypeMap struct {
	links map[string]dataTypeLink
}

func newDataTypeMapper(types []dataTypeLink) dataTypeMap {
	dtm := dataTypeMap{links: make(map[string]dataTypeLink, len(types))}
	for _, row := range types { // for each data type link...
		dtm.links[row.SourceDataType] = row
	}
	return dtm
}

// NewPostgresToRedshiftDataTypeMapper returns an instance of dataTypeMap{}
// which implements interface Mapper.
func NewPostgresToRedshiftDataTypeMapper() Mapper {
	return newDataTypeMapper(PostgresToRedshiftDataTypeMapping)
}

// Map will convert the data type to lower case and use it to find the target type and projection.
// An error wrapping ErrUnsupportedDataType is returned for unknown types.
func (o dataTypeMap) Map(columnName string, t ColumnType) (targetType string, copyExpression string, err error) {
	link, ok := o.links[strings.ToLower(strings.TrimSpace(t.DataType))]
	if !ok {
		return "", "", errors.Wrapf(ErrUnsupportedDataType, "column %q has source type %q", columnName, t)
	}
	targetType = link.TargetDataType + link.SanitiserFunc(t)
	copyExpression = link.ProjectionFunc(columnName, targetType, t)
	return targetType, copyExpression, nil
}

// PostgresToRedshiftDataTypeMapping contains a mapping of PostgreSQL information_schema data types to Redshift.
// Types without a Redshift equivalent are cast to text at extraction time and loaded as VARCHAR.
var PostgresToRedshiftDataTypeMapping = []dataTypeLink{
	{SourceDataType: "smallint", TargetDataType: "SMALLINT", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "integer", TargetDataType: "INTEGER", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "bigint", TargetDataType: "BIGINT", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "numeric", TargetDataType: "NUMERIC", SanitiserFunc: sanitisePrecisionScale, ProjectionFunc: projectIdentity},
	{SourceDataType: "decimal", TargetDataType: "NUMERIC", SanitiserFunc: sanitisePrecisionScale, ProjectionFunc: projectIdentity},
	{SourceDataType: "real", TargetDataType: "REAL", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "double precision", TargetDataType: "DOUBLE PRECISION", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "money", TargetDataType: "DECIMAL", SanitiserFunc: sanitiseFixed("(19,2)"), ProjectionFunc: projectCast},
	{SourceDataType: "boolean", TargetDataType: "BOOLEAN", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "character varying", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseVarcharLen, ProjectionFunc: projectIdentity},
	{SourceDataType: "character", TargetDataType: "CHAR", SanitiserFunc: sanitiseCharLen, ProjectionFunc: projectIdentity},
	{SourceDataType: "bpchar", TargetDataType: "CHAR", SanitiserFunc: sanitiseCharLen, ProjectionFunc: projectIdentity},
	{SourceDataType: "text", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "json", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "jsonb", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "xml", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "bytea", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "oid", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "interval", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "tsvector", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "tsquery", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "bit", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "bit varying", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "array", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "user-defined", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectUserDefined},
	{SourceDataType: "point", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "line", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "lseg", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "box", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "path", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "polygon", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "circle", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "uuid", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(36)"), ProjectionFunc: projectCast},
	{SourceDataType: "inet", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(43)"), ProjectionFunc: projectCast},
	{SourceDataType: "cidr", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(43)"), ProjectionFunc: projectCast},
	{SourceDataType: "macaddr", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(17)"), ProjectionFunc: projectCast},
	{SourceDataType: "macaddr8", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(23)"), ProjectionFunc: projectCast},
	{SourceDataType: "name", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(63)"), ProjectionFunc: projectCast},
	{SourceDataType: "int4range", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "int8range", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "numrange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "tsrange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "tstzrange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "daterange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "int4multirange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "int8multirange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "nummultirange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "tsmultirange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "tstzmultirange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "datemultirange", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "jsonpath", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "txid_snapshot", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "pg_snapshot", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "tid", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regclass", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regcollation", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regconfig", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regdictionary", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regnamespace", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regoper", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regoperator", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regproc", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regprocedure", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regrole", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "regtype", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseMaxVarchar, ProjectionFunc: projectCast},
	{SourceDataType: "pg_lsn", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(17)"), ProjectionFunc: projectCast},
	{SourceDataType: `"char"`, TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(1)"), ProjectionFunc: projectCast},
	{SourceDataType: "xid", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(10)"), ProjectionFunc: projectCast},
	{SourceDataType: "xid8", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(20)"), ProjectionFunc: projectCast},
	{SourceDataType: "cid", TargetDataType: "VARCHAR", SanitiserFunc: sanitiseFixed("(10)"), ProjectionFunc: projectCast},
	{SourceDataType: "date", TargetDataType: "DATE", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "timestamp without time zone", TargetDataType: "TIMESTAMP", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "timestamp with time zone", TargetDataType: "TIMESTAMPTZ", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "time without time zone", TargetDataType: "TIME", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
	{SourceDataType: "time with time zone", TargetDataType: "TIMETZ", SanitiserFunc: sanitiseBlank, ProjectionFunc: projectIdentity},
}

// geometryUdtNames are PostGIS types that are extracted as well-known text.
var geometryUdtNames = map[string]struct{}{
	"geometry":  {},
	"geography": {},
}

// SANITISER FUNCTIONS.

func sanitiseBlank(t ColumnType) string {
	return ""
}

func sanitiseFixed(modifier string) sanitiserFuncT {
	return func(t ColumnType) string {
		return modifier
	}
}

func sanitiseMaxVarchar(t ColumnType) string {
	return "(" + strconv.Itoa(redshiftMaxVarcharLen) + ")"
}

// sanitiseVarcharLen keeps the source length where Redshift allows it, widening unbounded columns.
func sanitiseVarcharLen(t ColumnType) string {
	return "(" + strconv.Itoa(clampLen(t.CharacterMaximumLength, redshiftMaxVarcharLen, redshiftMaxVarcharLen)) + ")"
}

// sanitiseCharLen keeps the source length, where a missing length is PostgreSQL's default of 1.
func sanitiseCharLen(t ColumnType) string {
	return "(" + strconv.Itoa(clampLen(t.CharacterMaximumLength, 1, redshiftMaxCharLen)) + ")"
}

// sanitisePrecisionScale clamps precision and scale to Redshift limits.
// Unconstrained numerics get the widest precision with a fixed scale.
func sanitisePrecisionScale(t ColumnType) string {
	if t.NumericPrecision == nil || *t.NumericPrecision <= 0 { // if the numeric is unconstrained...
		return fmt.Sprintf("(%v,%v)", redshiftMaxPrecision, unconstrainedNumericScale)
	}
	precision := int(*t.NumericPrecision)
	if precision > redshiftMaxPrecision {
		precision = redshiftMaxPrecision
	}
	scale := 0
	if t.NumericScale != nil && *t.NumericScale > 0 {
		scale = int(*t.NumericScale)
	}
	if scale > redshiftMaxScale {
		scale = redshiftMaxScale
	}
	if scale > precision {
		scale = precision
	}
	return fmt.Sprintf("(%v,%v)", precision, scale)
}

// clampLen returns *l bounded by max, or defaultLen if l is missing or invalid.
func clampLen(l *int32, defaultLen int, max int) int {
	if l == nil || *l <= 0 {
		return defaultLen
	}
	if int(*l) > max {
		return max
	}
	return int(*l)
}

// PROJECTION FUNCTIONS.

func projectIdentity(columnName string, targetType string, t ColumnType) string {
	return rdbms.QuoteIdent(columnName)
}

func projectCast(columnName string, targetType string, t ColumnType) string {
	c := rdbms.QuoteIdent(columnName)
	return fmt.Sprintf("CAST(%v AS %v) AS %v", c, targetType, c)
}

func projectUserDefined(columnName string, targetType string, t ColumnType) string {
	if _, ok := geometryUdtNames[strings.ToLower(t.UdtName)]; ok { // if this is a PostGIS column...
		c := rdbms.QuoteIdent(columnName)
		return fmt.Sprintf("ST_AsText(%v) AS %v", c, c)
	}
	return projectCast(columnName, targetType, t)
}
