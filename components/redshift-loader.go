package components

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	c "github.com/relloyd/pgshift/constants"
	"github.com/relloyd/pgshift/logger"
	"github.com/relloyd/pgshift/rdbms"
	"github.com/relloyd/pgshift/rdbms/shared"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

// rollbackTimeout bounds the deferred rollback, which runs even after the caller's context is cancelled.
const rollbackTimeout = 30 * time.Second

type RedshiftLoaderConfig struct {
	Log          logger.Logger
	Name         string
	Db           shared.Connector // connection to the target warehouse.
	TargetSchema string
	Credentials  rdbms.CopyCredentials // used by COPY to read staged objects.
	Delimiter    string
}

// RedshiftLoader replaces warehouse tables with staged exports.
// A single connection is shared so every statement is serialised on it.
type RedshiftLoader struct {
	cfg RedshiftLoaderConfig
	mu  sync.Mutex
}

func NewRedshiftLoader(cfg *RedshiftLoaderConfig) (*RedshiftLoader, error) {
	if cfg.Db == nil {
		return nil, errors.New("redshift loader requires a target connection")
	}
	l := &RedshiftLoader{cfg: *cfg}
	if l.cfg.Name == "" {
		l.cfg.Name = "RedshiftLoader"
	}
	if l.cfg.TargetSchema == "" {
		l.cfg.TargetSchema = c.DefaultSchema
	}
	if l.cfg.Delimiter == "" {
		l.cfg.Delimiter = Defaults.Delimiter
	}
	return l, nil
}

// EnsureTable creates the target table with its dist and sort keys if it does not exist yet.
func (l *RedshiftLoader) EnsureTable(ctx context.Context, t *tabledefinition.Table) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	target := t.TargetSchemaTable(l.cfg.TargetSchema)
	query := rdbms.GetCreateTableIfNotExistsSql(target, t.ColumnsForCreate(), t.DistKeyClause(), t.SortKeysClause())
	return l.exec(ctx, l.cfg.Log.WithField("table", t.Name), l.cfg.Db, query, query)
}

// Load swaps the live table for a fresh copy of the staged object at address.
// The old table is renamed to the shadow name and a new one is created and filled, all in one transaction,
// so a failure at any point leaves the live table as it was.
// The shadow table is left behind after a successful load and is dropped at the start of the next one.
func (l *RedshiftLoader) Load(ctx context.Context, t *tabledefinition.Table, address string) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.cfg.Log.WithField("table", t.Name)
	target := t.TargetSchemaTable(l.cfg.TargetSchema)
	shadow := target.WithSuffix(c.ShadowTableSuffix)
	query := rdbms.GetDropTableIfExistsSql(shadow)
	if err = l.exec(ctx, log, l.cfg.Db, query, query); err != nil {
		return err
	}
	tx, err := l.cfg.Db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "error starting transaction")
	}
	rollbackRequired := true
	defer l.rollback(log, tx, &rollbackRequired)
	log.Debug(l.cfg.Name, " transaction started")
	query = rdbms.GetRenameTableSql(target, shadow.GetTable())
	if err = l.exec(ctx, log, tx, query, query); err != nil {
		return err
	}
	query = rdbms.GetCreateTableSql(target, t.ColumnsForCreate())
	if err = l.exec(ctx, log, tx, query, query); err != nil {
		return err
	}
	query = rdbms.GetCopyFromS3Sql(target, address, l.cfg.Credentials, l.cfg.Delimiter, false)
	redacted := rdbms.GetCopyFromS3Sql(target, address, l.cfg.Credentials, l.cfg.Delimiter, true)
	if err = l.exec(ctx, log, tx, query, redacted); err != nil {
		return err
	}
	// If we don't get here the deferred func will rollback.
	if err = tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "error committing transaction")
	}
	rollbackRequired = false
	log.Info(l.cfg.Name, " replaced table ", target)
	return nil
}

// exec runs query and logs loggable in its place so credentials are never written to the log.
func (l *RedshiftLoader) exec(ctx context.Context, log logger.Logger, db shared.Execer, query string, loggable string) error {
	log.Debug(l.cfg.Name, " executing: ", loggable)
	res, err := db.Exec(ctx, query)
	if err != nil {
		return errors.Wrapf(err, "error executing %q", loggable)
	}
	log.Debug(l.cfg.Name, " ", res.String(), " rows affected: ", res.RowsAffected())
	return nil
}

// rollback uses its own context so an interrupted load still gets rolled back.
func (l *RedshiftLoader) rollback(log logger.Logger, tx shared.Transacter, rollbackRequired *bool) {
	log.Debug(l.cfg.Name, " deferred rollback: required = ", *rollbackRequired)
	if !*rollbackRequired {
		return
	}
	*rollbackRequired = false
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()
	if err := tx.Rollback(ctx); err != nil {
		log.Error(l.cfg.Name, " received error while executing rollback: ", err)
		return
	}
	log.Info(l.cfg.Name, " rollback complete")
}
