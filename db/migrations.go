package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jqphu/zksync-era/db/types"
	"github.com/jqphu/zksync-era/log"
	migrate "github.com/rubenv/sql-migrate"
)

const upDownSeparator = "-- +migrate Up"

// RunMigrations opens the database described by cfg and applies the migrations
func RunMigrations(cfg Config, migrations []types.Migration) error {
	db, err := Open(cfg)
	if err != nil {
		return fmt.Errorf("error opening DB: %w", err)
	}
	defer db.Close()

	return RunMigrationsDB(log.GetDefaultLogger(), db, cfg.Driver, migrations)
}

// RunMigrationsDB applies the migrations on an already opened database
func RunMigrationsDB(logger *log.Logger, db *sql.DB, driver string, migrations []types.Migration) error {
	return runMigrations(logger, db, driver, migrations, migrate.Up)
}

// RunMigrationsDownDB reverts the migrations on an already opened database
func RunMigrationsDownDB(logger *log.Logger, db *sql.DB, driver string, migrations []types.Migration) error {
	return runMigrations(logger, db, driver, migrations, migrate.Down)
}

func runMigrations(
	logger *log.Logger, db *sql.DB, driver string,
	migrations []types.Migration, direction migrate.MigrationDirection,
) error {
	source, err := memorySource(migrations)
	if err != nil {
		return err
	}

	nMigrations, err := migrate.Exec(db, migrateDialect(driver), source, direction)
	if err != nil {
		return fmt.Errorf("error executing migration: %w", err)
	}

	logger.Infof("successfully ran %d migrations", nMigrations)
	return nil
}

// CheckMigrations fails if the database doesn't have every migration applied
func CheckMigrations(logger *log.Logger, db *sql.DB, driver string, migrations []types.Migration) error {
	records, err := migrate.GetMigrationRecords(db, migrateDialect(driver))
	if err != nil {
		logger.Errorf("error getting migration records: %v", err)
		return err
	}

	applied := make(map[string]struct{}, len(records))
	for _, r := range records {
		applied[r.Id] = struct{}{}
	}
	for _, m := range migrations {
		if _, ok := applied[m.ID]; !ok {
			return fmt.Errorf("the component needs to run %d migrations before starting, migration %s is missing",
				len(migrations), m.ID)
		}
	}
	logger.Infof("found %d migrations as expected", len(migrations))
	return nil
}

func memorySource(migrations []types.Migration) (*migrate.MemoryMigrationSource, error) {
	migs := make([]*migrate.Migration, 0, len(migrations))
	for _, m := range migrations {
		splitted := strings.Split(m.SQL, upDownSeparator)
		if len(splitted) != 2 { //nolint:mnd
			return nil, fmt.Errorf("migration %s must contain exactly one %q annotation", m.ID, upDownSeparator)
		}
		migs = append(migs, &migrate.Migration{
			Id:   m.ID,
			Up:   []string{splitted[1]},
			Down: []string{splitted[0]},
		})
	}
	return &migrate.MemoryMigrationSource{Migrations: migs}, nil
}

func migrateDialect(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}
