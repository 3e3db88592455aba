package components

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/file"
	"github.com/relloyd/pgshift/logger"
	"github.com/relloyd/pgshift/rdbms"
	"github.com/relloyd/pgshift/rdbms/shared"
	"github.com/relloyd/pgshift/stats"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

type TableExporterConfig struct {
	Log              logger.Logger
	Name             string
	Source           shared.CopyToer // read-only source that streams COPY TO STDOUT output.
	Delimiter        string
	CompressionLevel int            // gzip level; zero selects the default.
	StatsManager     *stats.Manager // optional; gets a TransferWatcher per exported table.
}

type TableExporter struct {
	cfg TableExporterConfig
}

func NewTableExporter(cfg *TableExporterConfig) (*TableExporter, error) {
	if cfg.Source == nil {
		return nil, errors.New("table exporter requires a source connection")
	}
	e := &TableExporter{cfg: *cfg}
	if e.cfg.Name == "" {
		e.cfg.Name = "TableExporter"
	}
	if e.cfg.Delimiter == "" {
		e.cfg.Delimiter = Defaults.Delimiter
	}
	if e.cfg.CompressionLevel == 0 {
		e.cfg.CompressionLevel = Defaults.CompressionLevel
	}
	return e, nil
}

// Export starts streaming t out of the source and returns the compressed stream.
// The caller must consume the stream, or Abort it, and then Wait for the export outcome.
func (e *TableExporter) Export(ctx context.Context, t *tabledefinition.Table) (*file.GzipStream, error) {
	query := rdbms.GetCopyToStdoutSql(t.SourceSchemaTable(), t.ColumnsForCopy(), e.cfg.Delimiter)
	log := e.cfg.Log.WithField("table", t.Name)
	log.Debug(e.cfg.Name, " executing: ", query)
	var watcher *stats.TransferWatcher
	extra := make([]io.Writer, 0, 1)
	if e.cfg.StatsManager != nil {
		watcher = e.cfg.StatsManager.AddTransferWatcher(t.Name)
		extra = append(extra, watcher)
	}
	return file.NewGzipStream(log, e.cfg.CompressionLevel, func(w io.Writer) (int64, error) {
		if watcher != nil {
			watcher.StartWatching()
			defer watcher.StopWatching()
		}
		res, err := e.cfg.Source.CopyTo(ctx, w, query)
		if err != nil {
			return 0, errors.Wrapf(err, "error exporting %v", t)
		}
		rows := res.RowsAffected()
		if watcher != nil {
			watcher.SetRows(rows)
		}
		log.Info(e.cfg.Name, " exported ", rows, " rows from ", t)
		return rows, nil
	}, extra...)
}
