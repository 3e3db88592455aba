package constants

// Pipeline

const (
	StatsCaptureFrequencySeconds = 5
	EnvVarPrefix                 = "PGSHIFT" // prefixed for environment variables in twelveFactorMode
	ServiceName                  = "pgshift"
	DefaultSchema                = "public"
	DefaultWorkers               = 1
	ExportDelimiter              = "|"
	ExportKeyPrefix              = "export"
	ExportFileExtension          = ".psv.gz"
	ShadowTableSuffix            = "_updating"
	ViewSuffix                   = "_view"
	SystemTableRegex             = "^pg_"
	TableTypeBase                = "BASE TABLE"
	TableTypeView                = "VIEW"
	ConnectionTypePostgres       = "postgres"
	ConnectionTypeRedshift       = "redshift"
)

// Legacy environment variables understood as fallbacks for the PGSHIFT_ equivalents.

const (
	LegacyEnvVarSourceUri    = "POSTGRES_TO_REDSHIFT_SOURCE_URI"
	LegacyEnvVarTargetUri    = "POSTGRES_TO_REDSHIFT_TARGET_URI"
	LegacyEnvVarTargetSchema = "POSTGRES_TO_REDSHIFT_TARGET_SCHEMA"
	LegacyEnvVarS3KeyId      = "S3_DATABASE_EXPORT_ID"
	LegacyEnvVarS3Secret     = "S3_DATABASE_EXPORT_KEY"
	LegacyEnvVarS3Bucket     = "S3_DATABASE_EXPORT_BUCKET"
)
