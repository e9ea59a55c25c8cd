package constants

import "time"

// Timeouts
const (
	DefaultTimeout        = 5 * time.Second
	DefaultRequestTimeout = 15 * time.Second
	ExportUploadTimeout   = 30 * time.Second
)

// Scheduling rules shared by every create/reschedule path.
const (
	// MinScheduleOffset is how far ahead of now a timed event must start.
	MinScheduleOffset = 4 * time.Minute

	// MaxGeneratedOccurrences caps a single materialization regardless of bound.
	MaxGeneratedOccurrences = 365

	// DefaultSeriesScanLimit bounds heuristic scans per collection and is the
	// page size of the other resolver scans.
	DefaultSeriesScanLimit = 2000

	// DefaultEventDuration is the length given to timed events on export.
	DefaultEventDuration = time.Hour

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Database
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 10
	DatabaseConnMaxLifetime = 30 // minutes
)

// Context keys
const (
	ContextTokenData = "token_data"
	ContextRequestID = "request_id"
)

// Token scopes
const (
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"
)

// Redis keys
const (
	RedisKeySupportedFields = "uniplanner:schema:fields:%s"
	SupportedFieldsTTL      = 10 * time.Minute
)

// Task types
const (
	TaskBackfillLegacyMeta = "event:backfill_meta"
	QueueDefault           = "default"
	QueueMaintenance       = "maintenance"
)

// Pagination
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)
