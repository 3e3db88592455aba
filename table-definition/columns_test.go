package tabledefinition

import (
	"errors"
	"reflect"
	"testing"

	"github.com/relloyd/pgshift/constants"
)

var filmsColumns = []Column{
	{Name: "id", Type: ColumnType{DataType: "integer"}},
	{Name: "description", Type: ColumnType{DataType: "character varying", CharacterMaximumLength: int32Ptr(255)}},
	{Name: "notes", Type: ColumnType{DataType: "text"}},
}

func newFilmsTable(t *testing.T, name string, keys KeyConfig) *Table {
	kind := constants.TableTypeBase
	if name != "films" {
		kind = constants.TableTypeView
	}
	tbl, err := NewTable(TableRef{Schema: "public", Name: name, Kind: kind}, filmsColumns, keys, NewPostgresToRedshiftDataTypeMapper())
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestTargetNameStripsOneViewSuffix(t *testing.T) {
	cases := map[string]string{
		"films":           "films",
		"films_view":      "films",
		"films_view_view": "films_view",
		"view":            "view",
		"preview":         "preview",
	}
	for in, want := range cases {
		if got := (TableRef{Name: in}).TargetName(); got != want {
			t.Fatalf("expected target name of %q to be %q; got %q", in, want, got)
		}
	}
}

func TestIsView(t *testing.T) {
	if !(TableRef{Name: "films_view", Kind: constants.TableTypeView}).IsView() {
		t.Fatal("expected VIEW to be a view")
	}
	if (TableRef{Name: "films", Kind: constants.TableTypeBase}).IsView() {
		t.Fatal("expected BASE TABLE not to be a view")
	}
}

func TestColumnsForCreateAndCopyAreInLockstep(t *testing.T) {
	tbl := newFilmsTable(t, "films", KeyConfig{})
	wantCreate := `"id" INTEGER, "description" VARCHAR(255), "notes" VARCHAR(65535)`
	if got := tbl.ColumnsForCreate(); got != wantCreate {
		t.Fatalf("expected create columns %q; got %q", wantCreate, got)
	}
	wantCopy := `"id", "description", CAST("notes" AS VARCHAR(65535)) AS "notes"`
	if got := tbl.ColumnsForCopy(); got != wantCopy {
		t.Fatalf("expected copy columns %q; got %q", wantCopy, got)
	}
}

func TestEmptyTableHasEmptyColumnLists(t *testing.T) {
	tbl, err := NewTable(TableRef{Schema: "public", Name: "empty"}, nil, KeyConfig{}, NewPostgresToRedshiftDataTypeMapper())
	if err != nil {
		t.Fatal(err)
	}
	if tbl.ColumnsForCreate() != "" || tbl.ColumnsForCopy() != "" {
		t.Fatalf("expected empty column lists; got %q and %q", tbl.ColumnsForCreate(), tbl.ColumnsForCopy())
	}
}

func TestDistKeyClause(t *testing.T) {
	tbl := newFilmsTable(t, "films", KeyConfig{DistKeys: map[string]string{"films": "description"}})
	if got := tbl.DistKeyClause(); got != " DISTSTYLE KEY DISTKEY (description)" {
		t.Fatalf("unexpected dist key clause %q", got)
	}
	// Keys configured against the target name apply to the view.
	view := newFilmsTable(t, "films_view", KeyConfig{DistKeys: map[string]string{"films": "description"}})
	if got := view.DistKeyClause(); got != " DISTSTYLE KEY DISTKEY (description)" {
		t.Fatalf("unexpected dist key clause for view %q", got)
	}
	missing := newFilmsTable(t, "films", KeyConfig{DistKeys: map[string]string{"films": "other"}})
	if got := missing.DistKeyClause(); got != "" {
		t.Fatalf("expected no dist key clause for a missing column; got %q", got)
	}
	none := newFilmsTable(t, "films", KeyConfig{})
	if got := none.DistKeyClause(); got != "" {
		t.Fatalf("expected no dist key clause; got %q", got)
	}
}

func TestSortKeysClause(t *testing.T) {
	tbl := newFilmsTable(t, "films", KeyConfig{SortKeys: map[string][]string{"films": {"description", "other"}}})
	if got := tbl.SortKeysClause(); got != " SORTKEY (description)" {
		t.Fatalf("unexpected sort key clause %q", got)
	}
	multi := newFilmsTable(t, "films", KeyConfig{SortKeys: map[string][]string{"films": {"notes", "id"}}})
	if got := multi.SortKeysClause(); got != " SORTKEY (notes, id)" {
		t.Fatalf("unexpected sort key clause %q", got)
	}
	none := newFilmsTable(t, "films", KeyConfig{SortKeys: map[string][]string{"films": {"other"}}})
	if got := none.SortKeysClause(); got != "" {
		t.Fatalf("expected no sort key clause; got %q", got)
	}
}

func TestNewTableCopiesSortKeys(t *testing.T) {
	keys := KeyConfig{SortKeys: map[string][]string{"films": {"id"}}}
	tbl := newFilmsTable(t, "films", keys)
	keys.SortKeys["films"][0] = "notes"
	if !reflect.DeepEqual(tbl.SortKeys, []string{"id"}) {
		t.Fatalf("expected table sort keys to be independent of config; got %v", tbl.SortKeys)
	}
}

func TestNewTableReportsUnmappableColumns(t *testing.T) {
	cols := append([]Column{}, filmsColumns...)
	cols = append(cols, Column{Name: "during", Type: ColumnType{DataType: "tstzrange"}})
	_, err := NewTable(TableRef{Schema: "public", Name: "films"}, cols, KeyConfig{}, NewPostgresToRedshiftDataTypeMapper())
	if !errors.Is(err, ErrUnsupportedDataType) {
		t.Fatalf("expected ErrUnsupportedDataType; got %v", err)
	}
}

func TestTargetSchemaTableAndFileName(t *testing.T) {
	tbl := newFilmsTable(t, "films_view", KeyConfig{})
	if got := tbl.TargetSchemaTable("analytics").String(); got != "analytics.films" {
		t.Fatalf("unexpected target table %q", got)
	}
	if got := tbl.ExportFileName(); got != "films.psv.gz" {
		t.Fatalf("unexpected file name %q", got)
	}
}
