// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Ingest      IngestConfig
	Detection   DetectionConfig
	Matching    MatchingConfig
	Session     SessionConfig
	Rate        RateLimitConfig
	Security    SecurityConfig
	Logging     LoggingConfig
	Maintenance MaintenanceConfig
	Catalog     CatalogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// IngestConfig holds spreadsheet ingestion settings.
type IngestConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" envAlt:"MAX_FILE_SIZE" default:"52428800"`

	// MaxRows is the maximum number of grid rows accepted from one file (default: 100000)
	MaxRows int `env:"INGEST_MAX_ROWS" default:"100000"`

	// MaxColumns is the maximum grid width accepted from one file (default: 512)
	MaxColumns int `env:"INGEST_MAX_COLUMNS" default:"512"`
}

// DetectionConfig holds table detection tuning.
//
// The detector scans the first MaxHeaderSearchRows rows of a grid for a
// header row: high non-empty density, mostly text, immediately followed by
// at least MinDataRows rows whose cells parse as typed values.
type DetectionConfig struct {
	// MaxHeaderSearchRows caps how deep the header scan goes (default: 20)
	MaxHeaderSearchRows int `env:"DETECT_MAX_HEADER_SEARCH_ROWS" default:"20"`

	// MinDataRows is the minimum number of data rows below the header (default: 2)
	MinDataRows int `env:"DETECT_MIN_DATA_ROWS" default:"2"`

	// MinHeaderDensity is the minimum non-empty cell fraction for a header row (default: 0.6)
	MinHeaderDensity float64 `env:"DETECT_MIN_HEADER_DENSITY" default:"0.6"`

	// MinHeaderTextRatio is the minimum fraction of text cells in a header row (default: 0.6)
	MinHeaderTextRatio float64 `env:"DETECT_MIN_HEADER_TEXT_RATIO" default:"0.6"`

	// MinDataDensity is the non-empty fraction below which a row ends the data range (default: 0.4)
	MinDataDensity float64 `env:"DETECT_MIN_DATA_DENSITY" default:"0.4"`

	// MinDataTypedRatio is the minimum mean fraction of typed (numeric, date,
	// boolean) cells across the leading data rows (default: 0.35)
	MinDataTypedRatio float64 `env:"DETECT_MIN_DATA_TYPED_RATIO" default:"0.35"`

	// MaxSampleValues is how many sample cell values to keep per column (default: 5)
	MaxSampleValues int `env:"DETECT_MAX_SAMPLE_VALUES" default:"5"`
}

// MatchingConfig holds header matching tuning.
type MatchingConfig struct {
	// FuzzyFloor is the minimum similarity score for a fuzzy proposal (default: 0.5)
	FuzzyFloor float64 `env:"MATCH_FUZZY_FLOOR" default:"0.5"`

	// AliasConfidence is the confidence assigned to alias-table matches,
	// clamped to [0.80, 0.99] (default: 0.90)
	AliasConfidence float64 `env:"MATCH_ALIAS_CONFIDENCE" default:"0.90"`
}

// SessionConfig holds reconciliation session settings.
type SessionConfig struct {
	// MaxConcurrent is the maximum number of sessions in the detect/match
	// phase at once (default: 4)
	MaxConcurrent int `env:"SESSION_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long session creation waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"SESSION_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// SessionLimit is requests per minute for session-creation endpoints (default: 10)
	SessionLimit int `env:"RATE_LIMIT_SESSIONS" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enables API key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MaintenanceConfig holds session retention settings.
type MaintenanceConfig struct {
	// Enabled controls whether the maintenance scheduler runs (default: true)
	Enabled bool `env:"MAINTENANCE_ENABLED" default:"true"`

	// AbandonedRetention is how long abandoned sessions are kept (default: 720h)
	AbandonedRetention time.Duration `env:"MAINTENANCE_ABANDONED_RETENTION" default:"720h"`

	// ArchiveAfter is how long finalized sessions keep their grid payload
	// before it is stripped (default: 168h)
	ArchiveAfter time.Duration `env:"MAINTENANCE_ARCHIVE_AFTER" default:"168h"`

	// CheckInterval is how often the maintenance job runs (default: 24h)
	CheckInterval time.Duration `env:"MAINTENANCE_CHECK_INTERVAL" default:"24h"`
}

// CatalogConfig holds schema catalog settings.
type CatalogConfig struct {
	// Dir is an optional directory of YAML schema definitions loaded at
	// startup, in addition to the compiled-in schemas
	Dir string `env:"SCHEMA_CATALOG_DIR"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
