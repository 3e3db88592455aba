package components

import (
	"context"

	"github.com/relloyd/pgshift/file"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

// Exporter streams a table out of the source as compressed delimited text.
type Exporter interface {
	Export(ctx context.Context, t *tabledefinition.Table) (*file.GzipStream, error)
}

// Stager makes the stream the only object at the staging address of a table and returns that address.
type Stager interface {
	Stage(ctx context.Context, t *tabledefinition.Table, stream *file.GzipStream) (address string, err error)
}

// Loader creates and atomically replaces tables in the warehouse.
type Loader interface {
	EnsureTable(ctx context.Context, t *tabledefinition.Table) error
	Load(ctx context.Context, t *tabledefinition.Table, address string) error
}
