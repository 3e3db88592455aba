package rdbms

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/logger"
	"github.com/relloyd/pgshift/rdbms/shared"
)

// NewSourceConfig builds the pool config for the source database.
// Every session is made read only as soon as it connects.
func NewSourceConfig(d *shared.DsnConnectionDetails, maxConns int32) (*pgxpool.Config, error) {
	connString, err := d.ConnString()
	if err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing source DSN %v", d)
	}
	if maxConns < 1 {
		maxConns = 1
	}
	cfg.MaxConns = maxConns
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, SqlSetSessionReadOnly)
		return err
	}
	return cfg, nil
}

// NewSourceConnection opens a read-only pool of up to maxConns connections to the source.
// The caller must Close() it.
func NewSourceConnection(ctx context.Context, log logger.Logger, d *shared.DsnConnectionDetails, maxConns int32) (shared.Source, error) {
	log.Info("Opening source database connection: ", d)
	cfg, err := NewSourceConfig(d, maxConns)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "error creating source connection pool")
	}
	if err = pool.Ping(ctx); err != nil { // if we can't reach the source...
		pool.Close()
		return nil, errors.Wrapf(err, "error connecting to source %v", d)
	}
	log.Info("Successful connection to: ", d)
	return &shared.HpPool{Pool: pool}, nil
}

// NewTargetConfig builds the connection config for the target warehouse.
// Redshift has limited support for the extended protocol so the simple protocol is used.
func NewTargetConfig(d *shared.DsnConnectionDetails) (*pgx.ConnConfig, error) {
	connString, err := d.ConnString()
	if err != nil {
		return nil, err
	}
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing target DSN %v", d)
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	return cfg, nil
}

// NewTargetConnection opens the single target connection.
// The caller must Close() it.
func NewTargetConnection(ctx context.Context, log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	log.Info("Opening target database connection: ", d)
	cfg, err := NewTargetConfig(d)
	if err != nil {
		return nil, err
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "error connecting to target %v", d)
	}
	log.Info("Successful connection to: ", d)
	return &shared.HpConnection{Conn: conn, DbType: d.GetType()}, nil
}
