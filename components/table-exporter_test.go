package components

import (
	"context"
	"errors"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/relloyd/pgshift/rdbms/shared"
	"github.com/relloyd/pgshift/stats"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

func TestTableExporterStreamsCompressedCopyOutput(t *testing.T) {
	payload := "1|\"a|b\"\n2|\n"
	src := &shared.MockSource{CopyResults: map[string]string{"public.films": payload}}
	sm := stats.NewManager(testLog, stats.SetStatsDumpFrequency(0))
	e, err := NewTableExporter(&TableExporterConfig{Log: testLog, Source: src, StatsManager: sm})
	if err != nil {
		t.Fatal(err)
	}
	stream, err := e.Export(context.Background(), newTestTable(t, "films", tabledefinition.KeyConfig{}))
	if err != nil {
		t.Fatal(err)
	}
	zr, err := gzip.NewReader(stream)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != payload {
		t.Fatalf("expected %q; got %q", payload, string(b))
	}
	res, err := stream.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows != 2 {
		t.Fatalf("expected 2 rows; got %v", res.Rows)
	}
	expectedQuery := `COPY (SELECT "id", "description" FROM public.films) TO STDOUT WITH CSV DELIMITER '|'`
	if len(src.CopyQueries) != 1 || src.CopyQueries[0] != expectedQuery {
		t.Fatalf("expected query %q; got %v", expectedQuery, src.CopyQueries)
	}
	s := sm.GetStats()
	if len(s) != 1 || s[0].TotalBytes != int64(len(payload)) || s[0].TotalRows != 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestTableExporterPropagatesSourceErrors(t *testing.T) {
	srcErr := errors.New("canceling statement due to conflict with recovery")
	src := &shared.MockSource{CopyResults: map[string]string{"films": "1|a\n2|b\n"}, CopyErr: srcErr}
	e, err := NewTableExporter(&TableExporterConfig{Log: testLog, Source: src})
	if err != nil {
		t.Fatal(err)
	}
	stream, err := e.Export(context.Background(), newTestTable(t, "films", tabledefinition.KeyConfig{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ioutil.ReadAll(stream); !errors.Is(err, srcErr) {
		t.Fatalf("expected reader to fail with the source error; got %v", err)
	}
	if _, err := stream.Wait(); !errors.Is(err, srcErr) || !strings.Contains(err.Error(), "public.films") {
		t.Fatalf("expected wrapped source error; got %v", err)
	}
}
