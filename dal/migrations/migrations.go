package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/db/types"
	"github.com/jqphu/zksync-era/log"
)

//go:embed dal0001_sqlite.sql
var mig001SQLite string

//go:embed dal0001_postgres.sql
var mig001Postgres string

// Migrations returns the schema migrations for the given driver
func Migrations(driver string) []types.Migration {
	mig001 := mig001SQLite
	if driver == db.DriverPostgres {
		mig001 = mig001Postgres
	}
	return []types.Migration{
		{
			ID:  "dal0001",
			SQL: mig001,
		},
	}
}

func RunMigrations(logger *log.Logger, database *sql.DB, driver string) error {
	return db.RunMigrationsDB(logger, database, driver, Migrations(driver))
}

// CheckMigrations fails if the schema is behind the embedded migrations
func CheckMigrations(logger *log.Logger, database *sql.DB, driver string) error {
	return db.CheckMigrations(logger, database, driver, Migrations(driver))
}
