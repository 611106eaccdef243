package constants

import "time"

// Battle report plausibility bounds, in in-game seconds. Reports at or
// outside these bounds never started properly or never ended.
const (
	MinGameDuration = 200
	MaxGameDuration = 7000
)

const (
	ArchiveTimeout  = 10 * time.Second
	DatabaseTimeout = 5 * time.Second
	SnapshotTimeout = 30 * time.Second
	ExportTimeout   = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	MatchListLimit = 500
)
