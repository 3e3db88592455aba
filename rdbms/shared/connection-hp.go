package shared

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// HpConnection wraps a single pgx connection so it satisfies Connector.
// It is used for the target warehouse where one transaction at a time is allowed.
type HpConnection struct {
	Conn   *pgx.Conn
	DbType string
}

// Connector:

func (c *HpConnection) Begin(ctx context.Context) (Transacter, error) {
	if c.Conn == nil {
		return nil, errors.New("HpConnection was not configured correctly: missing connection")
	}
	tx, err := c.Conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &HpTx{tx: tx}, nil
}

func (c *HpConnection) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return c.Conn.Exec(ctx, query, args...)
}

func (c *HpConnection) Close(ctx context.Context) error {
	if c.Conn == nil {
		return nil
	}
	return c.Conn.Close(ctx)
}

func (c *HpConnection) GetType() string {
	return c.DbType
}

// Transacter:

type HpTx struct {
	tx pgx.Tx
}

func (t *HpTx) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.tx.Exec(ctx, query, args...)
}

func (t *HpTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op returning pgx.ErrTxClosed if the transaction was already committed.
func (t *HpTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// HpPool wraps a pgx pool so it satisfies Source.
// Each call acquires its own connection and releases it before returning.
type HpPool struct {
	Pool *pgxpool.Pool
}

func (p *HpPool) Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error) {
	return p.Pool.Query(ctx, query, args...)
}

func (p *HpPool) CopyTo(ctx context.Context, w io.Writer, query string) (Result, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error acquiring source connection")
	}
	defer conn.Release()
	tag, err := conn.Conn().PgConn().CopyTo(ctx, w, query)
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (p *HpPool) Close() {
	p.Pool.Close()
}
