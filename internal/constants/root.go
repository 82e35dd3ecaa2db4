package constants

import "time"

const (
	AppName            = "habitlit"
	DefaultKeyringUser = "storage-connection"
	Version            = "v0.1.0"

	// StateKey is the persistence key holding the whole habit document.
	StateKey = "habit-data"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// ConnectionEnvVar overrides the keyring for PostgreSQL/Redis connection strings.
	ConnectionEnvVar = "HABITLIT_DB_CONNECTION"

	// Backup constants
	MaxBackups             = 14
	BackupDirName          = "backups"
	BackupFilePrefix       = "habit-backup-"
	HabitsExportFilePrefix = "habit-config-"
	BackupFileSuffix       = ".json"

	// Instance lockfiles written by long-running watchers
	InstanceDirName      = "instances"
	InstanceLockfileExt  = ".lock"
	DefaultPollInterval  = 500 * time.Millisecond
	NotificationChannel  = "habitlit_documents"
	DefaultStateFileName = "habitlit.json"
	DefaultDBFileName    = "habitlit.db"

	// HeatmapDays is the size of the journey grid.
	HeatmapDays = 28

	// Storage backends
	BackendJSON     = "json"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)
