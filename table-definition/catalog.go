package tabledefinition

import (
	"context"
	"regexp"
	"sort"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/constants"
	"github.com/relloyd/pgshift/logger"
	"github.com/relloyd/pgshift/rdbms"
	"github.com/relloyd/pgshift/rdbms/shared"
	"github.com/samber/lo"
)

// ErrTargetNameCollision is returned for source objects that would replicate to the same target table.
var ErrTargetNameCollision = errors.New("target table name collision")

var systemTableRegex = regexp.MustCompile(constants.SystemTableRegex)

// CatalogEntry is a source table and its columns in ordinal order.
type CatalogEntry struct {
	Ref     TableRef
	Columns []Column
}

// RejectedTable is a source table that was listed but can't be replicated.
type RejectedTable struct {
	Ref TableRef
	Err error
}

// Catalog reads replicable tables from the source information_schema.
type Catalog struct {
	log       logger.Logger
	db        shared.Querier
	schema    string
	allowList []string
}

// NewCatalog returns a Catalog for schema.
// When allowList is not empty only the named tables are returned.
func NewCatalog(log logger.Logger, db shared.Querier, schema string, allowList []string) *Catalog {
	if schema == "" {
		schema = constants.DefaultSchema
	}
	return &Catalog{log: log, db: db, schema: schema, allowList: allowList}
}

// ListTables returns the base tables and views in the schema, excluding system tables
// and anything not in the allow-list. Requested names that don't exist are logged and skipped.
func (c *Catalog) ListTables(ctx context.Context) ([]TableRef, error) {
	rows, err := c.db.Query(ctx, rdbms.SqlCatalogTables, c.schema)
	if err != nil {
		return nil, errors.Wrapf(err, "error listing tables in schema %q", c.schema)
	}
	defer rows.Close()
	tables := make([]TableRef, 0)
	for rows.Next() { // for each table or view...
		ref := TableRef{Schema: c.schema}
		if err = rows.Scan(&ref.Name, &ref.Kind); err != nil {
			return nil, errors.Wrap(err, "error reading table list")
		}
		if systemTableRegex.MatchString(ref.Name) { // if this is an internal table...
			continue
		}
		if len(c.allowList) > 0 && !lo.Contains(c.allowList, ref.Name) { // if the table was not requested...
			continue
		}
		tables = append(tables, ref)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading table list")
	}
	if len(c.allowList) > 0 { // if the operator asked for specific tables...
		found := lo.Map(tables, func(r TableRef, _ int) string { return r.Name })
		for _, missing := range lo.Without(c.allowList, found...) {
			c.log.Warn("Requested table ", missing, " was not found in schema ", c.schema)
		}
	}
	return tables, nil
}

// ListColumns returns the columns of ref in ordinal order.
// TargetType and CopyExpression are not populated; see NewTable.
func (c *Catalog) ListColumns(ctx context.Context, ref TableRef) ([]Column, error) {
	rows, err := c.db.Query(ctx, rdbms.SqlCatalogColumns, ref.Schema, ref.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "error listing columns for %v", ref)
	}
	defer rows.Close()
	columns := make([]Column, 0)
	for rows.Next() { // for each column...
		col := Column{}
		err = rows.Scan(
			&col.Name,
			&col.Type.DataType,
			&col.Type.UdtName,
			&col.Type.CharacterMaximumLength,
			&col.Type.NumericPrecision,
			&col.Type.NumericScale,
			&col.Type.DatetimePrecision)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading columns for %v", ref)
		}
		columns = append(columns, col)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading columns for %v", ref)
	}
	return columns, nil
}

// ReadTables lists the tables and reads their columns.
// Tables whose target names collide with another table are rejected instead of being read.
// Any error returned is fatal to the whole run.
func (c *Catalog) ReadTables(ctx context.Context) (entries []CatalogEntry, rejected []RejectedTable, err error) {
	tables, err := c.ListTables(ctx)
	if err != nil {
		return nil, nil, err
	}
	byTarget := lo.GroupBy(tables, func(r TableRef) string { return r.TargetName() })
	for _, ref := range tables { // for each table in catalog order...
		if clashes := byTarget[ref.TargetName()]; len(clashes) > 1 { // if another object maps to the same target...
			names := lo.Map(clashes, func(r TableRef, _ int) string { return r.Name })
			sort.Strings(names)
			rejected = append(rejected, RejectedTable{
				Ref: ref,
				Err: errors.Wrapf(ErrTargetNameCollision, "%v are all replicated to table %q", names, ref.TargetName()),
			})
			c.log.Error("Skipping ", ref, ": target table name ", ref.TargetName(), " is shared by ", names)
			continue
		}
		cols, err := c.ListColumns(ctx, ref)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, CatalogEntry{Ref: ref, Columns: cols})
	}
	return entries, rejected, nil
}
