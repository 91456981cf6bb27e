package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"oltmap/internal/errors"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Import   ImportConfig
	Storage  string `envconfig:"STORAGE" default:"postgres"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
	Env      string `envconfig:"APP_ENV" default:"dev"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL"`
	// Driver selects the database/sql driver: "postgres" (lib/pq) or "pgx".
	Driver          string        `envconfig:"DB_DRIVER" default:"postgres"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Addr               string        `envconfig:"API_ADDR" default:":4000"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	ReadHeaderTimeout  time.Duration `envconfig:"API_READ_HEADER_TIMEOUT" default:"5s"`
	WriteTimeout       time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout    time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

// ImportConfig holds spreadsheet ingestion limits
type ImportConfig struct {
	MaxFileMB    int  `envconfig:"IMPORT_MAX_FILE_MB" default:"20"`
	MaxRows      int  `envconfig:"IMPORT_MAX_ROWS" default:"5000"`
	BatchSize    int  `envconfig:"IMPORT_BATCH_SIZE" default:"500"`
	TxRetries    int  `envconfig:"IMPORT_TX_RETRIES" default:"3"`
	StrictColors bool `envconfig:"IMPORT_STRICT_COLORS" default:"false"`
}

// MaxFileBytes returns the upload size limit in bytes
func (c ImportConfig) MaxFileBytes() int64 {
	return int64(c.MaxFileMB) * 1024 * 1024
}

// Load reads configuration from an optional .env file and the environment, then validates it
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to process environment variables")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks the configuration values are semantically correct
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.Storage == "" {
		c.Storage = StoragePostgres
	}
	switch c.Storage {
	case StoragePostgres:
		if c.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required")
		}
	case StorageMemory:
	default:
		return errors.ConfigInvalid("STORAGE must be postgres or memory")
	}

	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return errors.ConfigInvalid("DB_DRIVER must be postgres or pgx")
	}

	if c.Import.MaxRows <= 0 {
		return errors.ConfigInvalid("IMPORT_MAX_ROWS must be positive")
	}
	if c.Import.BatchSize <= 0 {
		return errors.ConfigInvalid("IMPORT_BATCH_SIZE must be positive")
	}
	if c.Import.MaxFileMB <= 0 {
		return errors.ConfigInvalid("IMPORT_MAX_FILE_MB must be positive")
	}
	if c.Import.TxRetries < 0 {
		return errors.ConfigInvalid("IMPORT_TX_RETRIES cannot be negative")
	}
	return nil
}
