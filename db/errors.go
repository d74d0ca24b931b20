package db

import (
	"errors"

	"github.com/jackc/pgconn"
	sqlite "github.com/mattn/go-sqlite3"
	"github.com/russross/meddler"
)

const pgUniqueViolation = "23505"

func SQLiteErr(err error) (*sqlite.Error, bool) {
	sqliteErr := &sqlite.Error{}
	if ok := errors.As(err, sqliteErr); ok {
		return sqliteErr, true
	}
	if driverErr, ok := meddler.DriverErr(err); ok {
		return sqliteErr, errors.As(driverErr, sqliteErr)
	}
	return sqliteErr, false
}

// IsUniqueViolation reports whether err is a unique or primary key constraint failure on
// either backend
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqliteErr, ok := SQLiteErr(err); ok {
		return sqliteErr.ExtendedCode == sqlite.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
