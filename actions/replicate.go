package actions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/aws/s3"
	"github.com/relloyd/pgshift/components"
	c "github.com/relloyd/pgshift/constants"
	"github.com/relloyd/pgshift/file"
	"github.com/relloyd/pgshift/helper"
	"github.com/relloyd/pgshift/logger"
	"github.com/relloyd/pgshift/rdbms"
	"github.com/relloyd/pgshift/rdbms/shared"
	"github.com/relloyd/pgshift/stats"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
	"github.com/rs/xid"
	"golang.org/x/sync/semaphore"
)

// closeTimeout bounds closing the target connection after the run context has been cancelled.
const closeTimeout = 10 * time.Second

type ReplicateConfig struct {
	// Connections
	SourceDsn    string `errorTxt:"source DSN" mandatory:"yes"`
	TargetDsn    string `errorTxt:"target DSN" mandatory:"yes"`
	SourceSchema string
	TargetSchema string
	// Staging
	S3          s3.Config
	IamRole     string // used by COPY instead of the S3 access keys when set.
	CopyRegion  string // region of the bucket if it differs from the warehouse.
	AclOverride string
	// Tables
	Tables []string // optional allow-list of source table names.
	Keys   tabledefinition.KeyConfig
	// Generic
	Workers                   int
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// CopyCredentials returns what the warehouse needs to read the staged objects.
func (cfg *ReplicateConfig) CopyCredentials() rdbms.CopyCredentials {
	return rdbms.CopyCredentials{
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		SessionToken:    cfg.S3.SessionToken,
		IamRole:         cfg.IamRole,
		Region:          cfg.CopyRegion,
	}
}

func (cfg *ReplicateConfig) workers() int {
	if cfg.Workers < 1 {
		return c.DefaultWorkers
	}
	return cfg.Workers
}

// RunReplicate opens the connections described by cfg and replicates every selected table.
// The returned error is non-nil if the run failed or any table failed; the Report is nil only if the
// run failed before any table was known.
func RunReplicate(ctx context.Context, cfg *ReplicateConfig) (*Report, error) {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return nil, err
	}
	runID := xid.New().String()
	log := logger.NewLogger(c.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic).WithField("run", runID)
	srcDetails, err := shared.NewDsnConnectionDetails("source", cfg.SourceDsn)
	if err != nil {
		return nil, errors.Wrap(err, "invalid source DSN")
	}
	tgtDetails, err := shared.NewDsnConnectionDetails("target", cfg.TargetDsn)
	if err != nil {
		return nil, errors.Wrap(err, "invalid target DSN")
	}
	src, err := rdbms.NewSourceConnection(ctx, log, srcDetails, int32(cfg.workers()))
	if err != nil {
		return nil, newTableError(CatalogError, "", err)
	}
	defer src.Close()
	tgt, err := rdbms.NewTargetConnection(ctx, log, tgtDetails)
	if err != nil {
		return nil, newTableError(LoadError, "", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := tgt.Close(closeCtx); err != nil {
			log.Warn("error closing target connection: ", err)
		}
	}()
	store, err := s3.NewClient(cfg.S3)
	if err != nil {
		return nil, newTableError(StagingError, "", err)
	}
	r, err := NewReplicator(log, runID, cfg, src, tgt, store)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// Replicator drives every table through ensure, export, stage and load.
type Replicator struct {
	log      logger.Logger
	runID    string
	cfg      *ReplicateConfig
	catalog  *tabledefinition.Catalog
	mapper   tabledefinition.Mapper
	exporter components.Exporter
	stager   components.Stager
	loader   components.Loader
	stats    *stats.Manager
}

// NewReplicator wires the components to already open connections.
// The caller owns the connections and must close them.
func NewReplicator(log logger.Logger, runID string, cfg *ReplicateConfig, src shared.Source, tgt shared.Connector, store s3.Client) (*Replicator, error) {
	sm := stats.NewManager(log, stats.SetStatsDumpFrequency(time.Duration(cfg.StatsDumpFrequencySeconds)*time.Second))
	exporter, err := components.NewTableExporter(&components.TableExporterConfig{
		Log:          log,
		Source:       src,
		StatsManager: sm,
	})
	if err != nil {
		return nil, err
	}
	stager, err := components.NewS3Stager(&components.S3StagerConfig{
		Log:    log,
		Client: store,
		ACL:    cfg.AclOverride,
	})
	if err != nil {
		return nil, err
	}
	loader, err := components.NewRedshiftLoader(&components.RedshiftLoaderConfig{
		Log:          log,
		Db:           tgt,
		TargetSchema: cfg.TargetSchema,
		Credentials:  cfg.CopyCredentials(),
	})
	if err != nil {
		return nil, err
	}
	return &Replicator{
		log:      log,
		runID:    runID,
		cfg:      cfg,
		catalog:  tabledefinition.NewCatalog(log, src, cfg.SourceSchema, cfg.Tables),
		mapper:   tabledefinition.NewPostgresToRedshiftDataTypeMapper(),
		exporter: exporter,
		stager:   stager,
		loader:   loader,
		stats:    sm,
	}, nil
}

// Run replicates the tables found in the catalog.
// A catalog failure ends the run; every other failure is confined to its table.
func (r *Replicator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	entries, rejected, err := r.catalog.ReadTables(ctx)
	if err != nil {
		return nil, newTableError(CatalogError, "", err)
	}
	names := make([]string, 0, len(entries)+len(rejected))
	for _, e := range entries {
		names = append(names, e.Ref.Name)
	}
	for _, rt := range rejected {
		names = append(names, rt.Ref.Name)
	}
	sort.Strings(names) // the catalog lists tables by name.
	report := NewReport(r.runID, names)
	for _, rt := range rejected {
		report.Set(r.failed(TableOutcome{Table: rt.Ref.Name, TargetTable: rt.Ref.TargetName()}, newTableError(CatalogError, rt.Ref.Name, rt.Err), start))
	}
	tables := make([]*tabledefinition.Table, 0, len(entries))
	for _, e := range entries { // for each table that survived the catalog read...
		t, err := tabledefinition.NewTable(e.Ref, e.Columns, r.cfg.Keys, r.mapper)
		if err != nil {
			report.Set(r.failed(TableOutcome{Table: e.Ref.Name, TargetTable: e.Ref.TargetName()}, newTableError(TypeMappingError, e.Ref.Name, err), start))
			continue
		}
		tables = append(tables, t)
	}
	r.log.Info("Replicating ", len(tables), " tables using ", r.cfg.workers(), " workers")
	r.stats.StartDumping()
	defer r.stats.StopDumping()
	sem := semaphore.NewWeighted(int64(r.cfg.workers()))
	wg := sync.WaitGroup{}
	for _, t := range tables { // for each table in catalog order...
		if err := sem.Acquire(ctx, 1); err != nil { // if we were cancelled...
			report.Set(TableOutcome{Table: t.Name, TargetTable: t.TargetName(), Status: StatusCancelled, Err: err})
			continue
		}
		wg.Add(1)
		go func(t *tabledefinition.Table) {
			defer wg.Done()
			report.Set(r.replicateTable(ctx, t, sem))
		}(t)
	}
	wg.Wait()
	r.log.Info("Replication complete in ", time.Since(start).Round(time.Millisecond))
	for _, o := range report.Outcomes() {
		if o.Status == StatusSucceeded {
			r.log.Info(o.String())
		} else {
			r.log.Error(o.String())
		}
	}
	return report, report.Err()
}

// replicateTable runs one table. It must be called holding one unit of sem, which is released once
// the export has been staged so the next table can start exporting while this one loads.
func (r *Replicator) replicateTable(ctx context.Context, t *tabledefinition.Table, sem *semaphore.Weighted) TableOutcome {
	start := time.Now()
	released := false
	release := func() {
		if !released {
			released = true
			sem.Release(1)
		}
	}
	defer release()
	log := r.log.WithField("table", t.Name)
	o := TableOutcome{Table: t.Name, TargetTable: t.TargetName()}
	if err := ctx.Err(); err != nil {
		o.Status = StatusCancelled
		o.Err = err
		return o
	}
	log.Info("Replicating ", t, " to ", t.TargetSchemaTable(r.loaderSchema()))
	if err := r.loader.EnsureTable(ctx, t); err != nil {
		return r.failed(o, newTableError(LoadError, t.Name, err), start)
	}
	stream, err := r.exporter.Export(ctx, t)
	if err != nil {
		return r.failed(o, newTableError(ExportError, t.Name, err), start)
	}
	address, stageErr := r.stager.Stage(ctx, t, stream)
	res, exportErr := stream.Wait()
	o.Rows, o.BytesIn, o.BytesOut, o.Address = res.Rows, res.BytesIn, res.BytesOut, address
	if exportErr != nil && !errors.Is(exportErr, file.ErrStreamAborted) { // if the source failed first...
		return r.failed(o, newTableError(ExportError, t.Name, exportErr), start)
	}
	if stageErr != nil {
		return r.failed(o, newTableError(StagingError, t.Name, stageErr), start)
	}
	release()
	if err := r.loader.Load(ctx, t, address); err != nil {
		return r.failed(o, newTableError(LoadError, t.Name, err), start)
	}
	o.Status = StatusSucceeded
	o.Elapsed = time.Since(start)
	return o
}

func (r *Replicator) failed(o TableOutcome, err *TableError, start time.Time) TableOutcome {
	o.Status = StatusFailed
	o.Kind = err.Kind
	o.Err = err
	o.Elapsed = time.Since(start)
	return o
}

func (r *Replicator) loaderSchema() string {
	if r.cfg.TargetSchema == "" {
		return c.DefaultSchema
	}
	return r.cfg.TargetSchema
}
