package db

import (
	"database/sql"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
)

// NewPostgresDB opens a database/sql handle backed by the pgx driver
func NewPostgresDB(cfg Config) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(cfg.postgresURL())
	if err != nil {
		return nil, err
	}
	if cfg.EnableLog {
		connConfig.Logger = dbLoggerImpl{}
		connConfig.LogLevel = pgx.LogLevelDebug
	}

	db := stdlib.OpenDB(*connConfig)
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	return db, nil
}
