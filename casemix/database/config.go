package database

import (
	"errors"

	"github.com/CMSgov/casemix-app/casemix/utils"
	"github.com/CMSgov/casemix-app/conf"
)

// Config holds the Postgres connection settings.
type Config struct {
	DatabaseURL  string
	MaxOpenConns int
	MaxIdleConns int
	// BatchSize is the number of summaries written per INSERT statement.
	BatchSize int
	// ConnectRetries is the number of extra pings attempted before giving up.
	ConnectRetries uint64
}

// LoadConfig reads Config from the environment and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:  conf.GetEnv("DATABASE_URL"),
		MaxOpenConns: utils.GetEnvInt("CASEMIX_DB_MAX_OPEN_CONNS", 4),
		MaxIdleConns: utils.GetEnvInt("CASEMIX_DB_MAX_IDLE_CONNS", 2),
		BatchSize:    utils.GetEnvInt("CASEMIX_DB_BATCH_SIZE", 500),
	}
	if retries := utils.GetEnvInt("CASEMIX_DB_CONNECT_RETRIES", 3); retries > 0 {
		cfg.ConnectRetries = uint64(retries)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("invalid config, DatabaseURL must be set")
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.New("invalid config, BatchSize must be positive")
	}
	return cfg, nil
}
