package db

import (
	"database/sql"
	"fmt"

	"github.com/russross/meddler"
)

// Open opens the database selected by cfg.Driver
func Open(cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return NewSQLiteDB(cfg.Path)
	case DriverPostgres:
		return NewPostgresDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported db driver %s", cfg.Driver)
	}
}

// Dialect returns the meddler dialect matching the driver. Queries written with $N
// placeholders run unchanged on both backends.
func Dialect(driver string) *meddler.Database {
	if driver == DriverPostgres {
		return meddler.PostgreSQL
	}
	return meddler.SQLite
}
