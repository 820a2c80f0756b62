// Package config loads runtime configuration from .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Source selects the backend transactions and customers are read from.
type Source string

const (
	SourceMemory     Source = "memory"
	SourcePostgres   Source = "postgres"
	SourceClickhouse Source = "clickhouse"
	SourceSQLite     Source = "sqlite"
	SourceMySQL      Source = "mysql"
)

// Config holds the application configuration.
type Config struct {
	Source        Source
	PostgresDSN   string
	ClickhouseDSN string
	SQLitePath    string
	MySQLDSN      string

	HTTPAddr        string
	ShutdownTimeout time.Duration
	OutputDir       string

	// MaxPopulation caps the number of scored customers per run. 0 disables the cap.
	MaxPopulation int
	RunMigrations bool

	// FixtureCustomers sizes the generated demo dataset of the memory source.
	FixtureCustomers int
	FixtureSeed      uint64

	LogLevel  string
	LogFormat string
}

// Default values
const (
	defaultHTTPAddr         = ":8080"
	defaultShutdownTimeout  = 15 * time.Second
	defaultOutputDir        = "output"
	defaultSQLitePath       = "data/rfm.db"
	defaultFixtureCustomers = 500
	defaultFixtureSeed      = 42
)

// Load reads configuration from .env files and environment variables.
// The first .env found wins; variables already set in the environment take precedence.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		Source:           Source(strings.ToLower(getEnvString("RFM_SOURCE", string(SourceMemory)))),
		PostgresDSN:      getEnvString("POSTGRES_DSN", ""),
		ClickhouseDSN:    getEnvString("CLICKHOUSE_DSN", ""),
		SQLitePath:       getEnvString("SQLITE_PATH", defaultSQLitePath),
		MySQLDSN:         getEnvString("MYSQL_DSN", ""),
		HTTPAddr:         getEnvString("HTTP_ADDR", defaultHTTPAddr),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		OutputDir:        getEnvString("OUTPUT_DIR", defaultOutputDir),
		MaxPopulation:    getEnvInt("MAX_POPULATION", 0),
		RunMigrations:    getEnvBool("RUN_MIGRATIONS", false),
		FixtureCustomers: getEnvInt("FIXTURE_CUSTOMERS", defaultFixtureCustomers),
		FixtureSeed:      uint64(getEnvInt("FIXTURE_SEED", defaultFixtureSeed)),
		LogLevel:         getEnvString("LOG_LEVEL", "info"),
		LogFormat:        getEnvString("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected source has the settings it needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source {
	case SourceMemory:
	case SourcePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for RFM_SOURCE=postgres"))
		}
	case SourceClickhouse:
		if c.ClickhouseDSN == "" {
			errs = append(errs, errors.New("CLICKHOUSE_DSN is required for RFM_SOURCE=clickhouse"))
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for RFM_SOURCE=sqlite"))
		}
	case SourceMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is required for RFM_SOURCE=mysql"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RFM_SOURCE %q (memory, postgres, clickhouse, sqlite, mysql)", c.Source))
	}

	if c.MaxPopulation < 0 {
		errs = append(errs, fmt.Errorf("MAX_POPULATION must be >= 0, got %d", c.MaxPopulation))
	}
	if c.FixtureCustomers < 0 {
		errs = append(errs, fmt.Errorf("FIXTURE_CUSTOMERS must be >= 0, got %d", c.FixtureCustomers))
	}

	return errors.Join(errs...)
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rfm-lab", ".env"))
	}

	// Parent directories (useful when running from cmd/<name>)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms", or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
