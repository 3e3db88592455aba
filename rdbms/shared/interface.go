package shared

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
)

// Connector abstracts access to a target database connection.
type Connector interface {
	Execer
	Begin(ctx context.Context) (Transacter, error)
	Close(ctx context.Context) error
	GetType() string
}

// Transacter is a single in-flight transaction.
type Transacter interface {
	Execer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Execer runs SQL that returns no rows.
type Execer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Querier runs SQL that returns rows.
// Callers must Close() the rows.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
}

// CopyToer streams the output of a COPY ... TO STDOUT statement into w.
type CopyToer interface {
	CopyTo(ctx context.Context, w io.Writer, query string) (Result, error)
}

// Source is a read-only source database that can answer catalog queries and stream table data.
type Source interface {
	Querier
	CopyToer
	Close()
}

// Result abstracts pgconn.CommandTag so mocks don't need a real connection.
type Result interface {
	RowsAffected() int64
	String() string
}
