package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/actions"
	"github.com/relloyd/pgshift/aws/s3"
	"github.com/relloyd/pgshift/config"
	"github.com/relloyd/pgshift/constants"
	"github.com/relloyd/pgshift/helper"
	"github.com/spf13/cobra"
)

// replicateFlags holds the raw flag values before they are turned into an actions.ReplicateConfig.
type replicateFlags struct {
	SourceDsn      string
	TargetDsn      string
	SourceSchema   string
	TargetSchema   string
	TablesCsv      string
	Bucket         string
	Prefix         string
	Region         string
	AccessKeyID    string
	Secret         string
	SessionToken   string
	Endpoint       string
	Acl            string
	IamRole        string
	CopyRegion     string
	DistKeys       string
	SortKeys       string
	KeysFile       string
	Workers        int
	LogLevel       string
	StatsFrequency int
}

var replicateFlagValues = replicateFlags{}

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Replace every table in the target schema with a fresh copy of the source",
	Long: `Replicate all tables and views in a PostgreSQL schema to Redshift:

- Tables and views named pg_* are skipped
- A trailing _view is removed from view names, so view films_view is loaded into table films
- Each table is exported as pipe delimited, gzipped CSV and staged in S3 at export/<table>.psv.gz
- The live target table is swapped for a freshly loaded copy inside one transaction
- Tables that fail are listed at the end and the exit code is non-zero
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx, cancel := signalContext()
		defer cancel()
		return runReplicateTo(ctx, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(replicateCmd)
	replicateCmd.Flags().SortFlags = false
	f := &replicateFlagValues
	switches.addFlag(replicateCmd, &f.SourceDsn, "source-dsn", "", true, "")
	switches.addFlag(replicateCmd, &f.TargetDsn, "target-dsn", "", true, "")
	switches.addFlag(replicateCmd, &f.Bucket, "s3-bucket", "", true, "")
	switches.addFlag(replicateCmd, &f.SourceSchema, "source-schema", constants.DefaultSchema, false, "")
	switches.addFlag(replicateCmd, &f.TargetSchema, "target-schema", constants.DefaultSchema, false, "")
	switches.addFlag(replicateCmd, &f.TablesCsv, "tables", "", false, "")
	// S3 staging.
	switches.addFlag(replicateCmd, &f.Prefix, "s3-prefix", "", false, "")
	switches.addFlag(replicateCmd, &f.Region, "s3-region", "us-east-1", false, "")
	switches.addFlag(replicateCmd, &f.AccessKeyID, "s3-key", "", false, "")
	switches.addFlag(replicateCmd, &f.Secret, "s3-secret", "", false, "")
	switches.addFlag(replicateCmd, &f.SessionToken, "s3-session-token", "", false, "")
	switches.addFlag(replicateCmd, &f.Endpoint, "s3-endpoint", "", false, "")
	switches.addFlag(replicateCmd, &f.Acl, "s3-acl", s3.ACLAuthenticatedRead, false, "")
	// Redshift.
	switches.addFlag(replicateCmd, &f.IamRole, "iam-role", "", false, "")
	switches.addFlag(replicateCmd, &f.CopyRegion, "copy-region", "", false, "")
	switches.addFlag(replicateCmd, &f.DistKeys, "dist-keys", "", false, "")
	switches.addFlag(replicateCmd, &f.SortKeys, "sort-keys", "", false, "")
	switches.addFlag(replicateCmd, &f.KeysFile, "keys-file", "", false, "")
	// Generic.
	switches.addFlag(replicateCmd, &f.Workers, "workers", strconv.Itoa(constants.DefaultWorkers), false, "")
	switches.addFlag(replicateCmd, &f.LogLevel, "log-level", "info", false, "")
	switches.addFlag(replicateCmd, &f.StatsFrequency, "stats", "30", false, "")
}

// replicateConfig validates the flag values and builds the run configuration.
func (f *replicateFlags) replicateConfig() (*actions.ReplicateConfig, error) {
	region := f.Region
	if region == "" {
		region = "us-east-1"
	}
	bucket, err := s3.ParseDSN(f.Bucket, region)
	if err != nil {
		return nil, errors.Wrap(err, "invalid s3-bucket")
	}
	if f.Prefix != "" {
		bucket.Prefix = f.Prefix
	}
	keys, err := config.KeyConfigFromTokens(f.DistKeys, f.SortKeys)
	if err != nil {
		return nil, err
	}
	if f.KeysFile != "" {
		fromFile, err := config.LoadKeyConfig(f.KeysFile)
		if err != nil {
			return nil, err
		}
		keys = config.MergeKeyConfig(fromFile, keys)
	}
	if f.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1; got %v", f.Workers)
	}
	if f.StatsFrequency < 0 {
		return nil, fmt.Errorf("stats must not be negative; got %v", f.StatsFrequency)
	}
	return &actions.ReplicateConfig{
		SourceDsn:    f.SourceDsn,
		TargetDsn:    f.TargetDsn,
		SourceSchema: f.SourceSchema,
		TargetSchema: f.TargetSchema,
		S3: s3.Config{
			Bucket:          bucket.Name,
			Region:          bucket.Region,
			Prefix:          bucket.Prefix,
			AccessKeyID:     f.AccessKeyID,
			SecretAccessKey: f.Secret,
			SessionToken:    f.SessionToken,
			Endpoint:        f.Endpoint,
		},
		IamRole:                   f.IamRole,
		CopyRegion:                f.CopyRegion,
		AclOverride:               f.Acl,
		Tables:                    helper.CsvToStringSliceTrimSpaces(f.TablesCsv),
		Keys:                      keys,
		Workers:                   f.Workers,
		LogLevel:                  f.LogLevel,
		StackDumpOnPanic:          stackDumpOnPanic,
		StatsDumpFrequencySeconds: f.StatsFrequency,
	}, nil
}

func runReplicate(ctx context.Context) error {
	return runReplicateTo(ctx, os.Stdout)
}

// runReplicateTo runs the replication and prints the per-table summary to out.
func runReplicateTo(ctx context.Context, out io.Writer) error {
	cfg, err := replicateFlagValues.replicateConfig()
	if err != nil {
		return err
	}
	report, err := actions.RunReplicate(ctx, cfg)
	if report != nil {
		_, _ = fmt.Fprintln(out, report.Summary())
	}
	return err
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
