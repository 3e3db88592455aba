package tabledefinition

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/constants"
	"github.com/relloyd/pgshift/rdbms"
	"github.com/samber/lo"
)

// Column is a source column with the Redshift type and extraction projection derived from its source type.
type Column struct {
	Name           string
	Type           ColumnType
	TargetType     string
	CopyExpression string
}

// TableRef identifies a source table or view before its columns are known.
type TableRef struct {
	Schema string
	Name   string
	Kind   string // BASE TABLE or VIEW
}

// TargetName is the name used in the warehouse: the source name without one trailing "_view".
func (r TableRef) TargetName() string {
	return strings.TrimSuffix(r.Name, constants.ViewSuffix)
}

// IsView returns true if the catalog reported the object as a view.
func (r TableRef) IsView() bool {
	return r.Kind == constants.TableTypeView
}

// SourceSchemaTable returns the identifier used to select from the source.
func (r TableRef) SourceSchemaTable() rdbms.SchemaTable {
	return rdbms.NewSchemaTable(r.Schema, r.Name)
}

func (r TableRef) String() string {
	return r.SourceSchemaTable().String()
}

// KeyConfig holds the optional Redshift physical layout hints per table.
// Keys are looked up by target table name first and then by source name.
type KeyConfig struct {
	DistKeys map[string]string   `json:"distKeys" yaml:"distKeys"`
	SortKeys map[string][]string `json:"sortKeys" yaml:"sortKeys"`
}

func (k KeyConfig) distKeyFor(r TableRef) string {
	if v, ok := k.DistKeys[r.TargetName()]; ok {
		return v
	}
	return k.DistKeys[r.Name]
}

func (k KeyConfig) sortKeysFor(r TableRef) []string {
	if v, ok := k.SortKeys[r.TargetName()]; ok {
		return v
	}
	return k.SortKeys[r.Name]
}

// Table is an immutable model of a source table and the DDL fragments needed to replicate it.
type Table struct {
	TableRef
	Columns  []Column
	DistKey  string
	SortKeys []string
}

// NewTable maps each of the catalog columns and attaches the configured keys for ref.
// Column order is preserved. An error wrapping ErrUnsupportedDataType is returned if any column can't be mapped.
func NewTable(ref TableRef, columns []Column, keys KeyConfig, mapper Mapper) (*Table, error) {
	mapped := make([]Column, 0, len(columns))
	for _, c := range columns { // for each column in ordinal order...
		targetType, copyExpression, err := mapper.Map(c.Name, c.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "table %v", ref)
		}
		mapped = append(mapped, Column{Name: c.Name, Type: c.Type, TargetType: targetType, CopyExpression: copyExpression})
	}
	return &Table{
		TableRef: ref,
		Columns:  mapped,
		DistKey:  keys.distKeyFor(ref),
		SortKeys: append([]string(nil), keys.sortKeysFor(ref)...),
	}, nil
}

// HasColumn returns true if name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return lo.ContainsBy(t.Columns, func(c Column) bool { return c.Name == name })
}

// TargetSchemaTable returns the warehouse identifier for the table in schema.
func (t *Table) TargetSchemaTable(schema string) rdbms.SchemaTable {
	return rdbms.NewSchemaTable(schema, t.TargetName())
}

// ColumnsForCreate returns the column definitions for CREATE TABLE in ordinal order.
func (t *Table) ColumnsForCreate() string {
	return strings.Join(lo.Map(t.Columns, func(c Column, _ int) string {
		return fmt.Sprintf("%v %v", rdbms.QuoteIdent(c.Name), c.TargetType)
	}), ", ")
}

// ColumnsForCopy returns the extraction projections in the same order as ColumnsForCreate.
func (t *Table) ColumnsForCopy() string {
	return strings.Join(lo.Map(t.Columns, func(c Column, _ int) string {
		return c.CopyExpression
	}), ", ")
}

// DistKeyClause returns the distribution clause, or empty string unless the dist key is one of the columns.
func (t *Table) DistKeyClause() string {
	if t.DistKey == "" || !t.HasColumn(t.DistKey) {
		return ""
	}
	return fmt.Sprintf(" DISTSTYLE KEY DISTKEY (%v)", rdbms.Ident(t.DistKey))
}

// SortKeysClause returns the sort key clause over the configured keys that exist, in configured order.
func (t *Table) SortKeysClause() string {
	keys := lo.Filter(t.SortKeys, func(k string, _ int) bool { return t.HasColumn(k) })
	if len(keys) == 0 {
		return ""
	}
	return fmt.Sprintf(" SORTKEY (%v)", strings.Join(lo.Map(keys, func(k string, _ int) string {
		return rdbms.Ident(k)
	}), ", "))
}

// ExportFileName is the name of the staged object for the table.
func (t *Table) ExportFileName() string {
	return t.TargetName() + constants.ExportFileExtension
}
