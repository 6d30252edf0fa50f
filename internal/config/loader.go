package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load builds a Config from environment variables, applying the struct
// tag defaults for anything unset, then validates the result. The error
// from a failed validation lists every problem, not just the first.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct walks the config struct recursively and fills each tagged
// field from its env var, its envAlt fallback, or its default tag.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField parses value into the field according to the field's Go type.
// Int64 fields holding a time.Duration accept "30s" / "5m" syntax.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Comma-separated, blanks dropped: "key1, key2" -> 2 entries.
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks every section and collects all failures into one
// error, so a bad deployment surfaces its full list of problems in a
// single startup attempt.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Ingest validation
	if c.Ingest.MaxFileSize <= 0 {
		errs = append(errs, "INGEST_MAX_FILE_SIZE must be positive")
	}
	if c.Ingest.MaxRows <= 0 {
		errs = append(errs, "INGEST_MAX_ROWS must be positive")
	}
	if c.Ingest.MaxColumns <= 0 {
		errs = append(errs, "INGEST_MAX_COLUMNS must be positive")
	}

	// Detection validation
	if c.Detection.MaxHeaderSearchRows <= 0 {
		errs = append(errs, "DETECT_MAX_HEADER_SEARCH_ROWS must be positive")
	}
	if c.Detection.MinDataRows < 1 {
		errs = append(errs, "DETECT_MIN_DATA_ROWS must be at least 1")
	}
	for _, ratio := range []struct {
		name  string
		value float64
	}{
		{"DETECT_MIN_HEADER_DENSITY", c.Detection.MinHeaderDensity},
		{"DETECT_MIN_HEADER_TEXT_RATIO", c.Detection.MinHeaderTextRatio},
		{"DETECT_MIN_DATA_DENSITY", c.Detection.MinDataDensity},
		{"DETECT_MIN_DATA_TYPED_RATIO", c.Detection.MinDataTypedRatio},
	} {
		if ratio.value < 0 || ratio.value > 1 {
			errs = append(errs, fmt.Sprintf("%s (%g) must be in [0, 1]", ratio.name, ratio.value))
		}
	}
	if c.Detection.MaxSampleValues < 0 {
		errs = append(errs, "DETECT_MAX_SAMPLE_VALUES must be non-negative")
	}

	// Matching validation
	if c.Matching.FuzzyFloor < 0 || c.Matching.FuzzyFloor > 1 {
		errs = append(errs, fmt.Sprintf("MATCH_FUZZY_FLOOR (%g) must be in [0, 1]", c.Matching.FuzzyFloor))
	}
	if c.Matching.AliasConfidence < 0.80 || c.Matching.AliasConfidence > 0.99 {
		errs = append(errs, fmt.Sprintf("MATCH_ALIAS_CONFIDENCE (%g) must be in [0.80, 0.99]", c.Matching.AliasConfidence))
	}

	// Session validation
	if c.Session.MaxConcurrent <= 0 {
		errs = append(errs, "SESSION_MAX_CONCURRENT must be positive")
	}
	if c.Session.MaxWaitTime <= 0 {
		errs = append(errs, "SESSION_MAX_WAIT_TIME must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Maintenance validation
	if c.Maintenance.Enabled {
		if c.Maintenance.AbandonedRetention <= 0 {
			errs = append(errs, "MAINTENANCE_ABANDONED_RETENTION must be positive")
		}
		if c.Maintenance.ArchiveAfter <= 0 {
			errs = append(errs, "MAINTENANCE_ARCHIVE_AFTER must be positive")
		}
		if c.Maintenance.CheckInterval <= 0 {
			errs = append(errs, "MAINTENANCE_CHECK_INTERVAL must be positive")
		}
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String renders the config for startup logs with the database URL and
// API keys masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Ingest: {MaxFileSize: %d, MaxRows: %d}, ",
		c.Ingest.MaxFileSize, c.Ingest.MaxRows))
	b.WriteString(fmt.Sprintf("Detection: {MinDataRows: %d, MaxHeaderSearchRows: %d}, ",
		c.Detection.MinDataRows, c.Detection.MaxHeaderSearchRows))
	b.WriteString(fmt.Sprintf("Matching: {FuzzyFloor: %g, AliasConfidence: %g}, ",
		c.Matching.FuzzyFloor, c.Matching.AliasConfidence))
	b.WriteString(fmt.Sprintf("Session: {MaxConcurrent: %d}, ", c.Session.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: [%d configured]}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
