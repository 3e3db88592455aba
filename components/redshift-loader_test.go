package components

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/relloyd/pgshift/constants"
	"github.com/relloyd/pgshift/logger"
	"github.com/relloyd/pgshift/rdbms"
	"github.com/relloyd/pgshift/rdbms/shared"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

var testLog = logger.NewLogger("pgshift-test", "error", false)

func newTestTable(t *testing.T, name string, keys tabledefinition.KeyConfig) *tabledefinition.Table {
	l := int32(255)
	cols := []tabledefinition.Column{
		{Name: "id", Type: tabledefinition.ColumnType{DataType: "integer"}},
		{Name: "description", Type: tabledefinition.ColumnType{DataType: "character varying", CharacterMaximumLength: &l}},
	}
	tbl, err := tabledefinition.NewTable(
		tabledefinition.TableRef{Schema: "public", Name: name, Kind: constants.TableTypeBase},
		cols, keys, tabledefinition.NewPostgresToRedshiftDataTypeMapper())
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func newTestLoader(t *testing.T, db shared.Connector) *RedshiftLoader {
	l, err := NewRedshiftLoader(&RedshiftLoaderConfig{
		Log:          testLog,
		Db:           db,
		TargetSchema: "analytics",
		Credentials:  rdbms.CopyCredentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestRedshiftLoaderEnsureTable(t *testing.T) {
	db := shared.NewMockConnection()
	tbl := newTestTable(t, "films", tabledefinition.KeyConfig{
		DistKeys: map[string]string{"films": "id"},
		SortKeys: map[string][]string{"films": {"description", "other"}},
	})
	if err := newTestLoader(t, db).EnsureTable(context.Background(), tbl); err != nil {
		t.Fatal(err)
	}
	expected := []string{
		`CREATE TABLE IF NOT EXISTS analytics.films ("id" INTEGER, "description" VARCHAR(255)) DISTSTYLE KEY DISTKEY (id) SORTKEY (description)`,
	}
	if got := db.GetStatements(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v; got %v", expected, got)
	}
}

func TestRedshiftLoaderLoadStatementSequence(t *testing.T) {
	db := shared.NewMockConnection()
	tbl := newTestTable(t, "films", tabledefinition.KeyConfig{DistKeys: map[string]string{"films": "id"}})
	err := newTestLoader(t, db).Load(context.Background(), tbl, "s3://bucket/export/films.psv.gz")
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{
		"DROP TABLE IF EXISTS analytics.films_updating",
		"BEGIN",
		"ALTER TABLE analytics.films RENAME TO films_updating",
		`CREATE TABLE analytics.films ("id" INTEGER, "description" VARCHAR(255))`,
		"COPY analytics.films FROM 's3://bucket/export/films.psv.gz' CREDENTIALS 'aws_access_key_id=AKID;aws_secret_access_key=SECRET' CSV GZIP TRUNCATECOLUMNS DELIMITER AS '|'",
		"COMMIT",
	}
	if got := db.GetStatements(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected:\n%v\ngot:\n%v", strings.Join(expected, "\n"), strings.Join(got, "\n"))
	}
}

func TestRedshiftLoaderRollsBackWhenCopyFails(t *testing.T) {
	db := shared.NewMockConnection()
	db.FailOn["COPY "] = errors.New("S3ServiceException: access denied")
	tbl := newTestTable(t, "films", tabledefinition.KeyConfig{})
	err := newTestLoader(t, db).Load(context.Background(), tbl, "s3://bucket/export/films.psv.gz")
	if err == nil {
		t.Fatal("expected load error")
	}
	if strings.Contains(err.Error(), "SECRET") {
		t.Fatalf("expected credentials to be redacted from the error; got %v", err)
	}
	stmts := db.GetStatements()
	if stmts[len(stmts)-1] != "ROLLBACK" {
		t.Fatalf("expected the transaction to be rolled back; got %v", stmts)
	}
	for _, s := range stmts {
		if s == "COMMIT" {
			t.Fatal("expected no commit")
		}
	}
}

func TestRedshiftLoaderRollsBackOnCancel(t *testing.T) {
	db := shared.NewMockConnection()
	db.FailOn["CREATE TABLE analytics"] = context.Canceled
	tbl := newTestTable(t, "films", tabledefinition.KeyConfig{})
	err := newTestLoader(t, db).Load(context.Background(), tbl, "s3://bucket/export/films.psv.gz")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}
	stmts := db.GetStatements()
	if stmts[len(stmts)-1] != "ROLLBACK" {
		t.Fatalf("expected the transaction to be rolled back; got %v", stmts)
	}
}

func TestRedshiftLoaderStopsBeforeBeginWhenDropFails(t *testing.T) {
	db := shared.NewMockConnection()
	db.FailOn["DROP TABLE"] = errors.New("permission denied")
	tbl := newTestTable(t, "films", tabledefinition.KeyConfig{})
	if err := newTestLoader(t, db).Load(context.Background(), tbl, "s3://b/k"); err == nil {
		t.Fatal("expected error")
	}
	if got := db.GetStatements(); len(got) != 1 {
		t.Fatalf("expected only the drop statement; got %v", got)
	}
}

func TestNewRedshiftLoaderRequiresConnection(t *testing.T) {
	if _, err := NewRedshiftLoader(&RedshiftLoaderConfig{Log: testLog}); err == nil {
		t.Fatal("expected error")
	}
}
