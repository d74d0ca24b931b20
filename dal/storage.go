package dal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jqphu/zksync-era/dal/migrations"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/log"
	"github.com/russross/meddler"
)

const errWhileRollbackFormat = "error while rolling back tx: %v"

var (
	// ErrAlreadyExists is returned when inserting a miniblock or batch number twice
	ErrAlreadyExists = errors.New("already exists")
	// ErrAlreadyConfirmed is returned when confirming an L1 transaction that already has a
	// confirmed attempt
	ErrAlreadyConfirmed = errors.New("eth tx already confirmed")
	// ErrUnfinishedL1Batch is returned when storing a batch that is still open. Open batches
	// live only in memory, the stored ones are exactly the sealed ones.
	ErrUnfinishedL1Batch = errors.New("l1 batch is not finished")
)

// Storage reads and writes miniblocks, L1 batches and the L1 transactions that settle them.
// Every read is a single statement, so a batch is never observed half updated.
type Storage struct {
	logger  *log.Logger
	db      *sql.DB
	dialect *meddler.Database
}

// NewStorage runs the schema migrations and returns the storage
func NewStorage(logger *log.Logger, database *sql.DB, driver string) (*Storage, error) {
	if err := migrations.RunMigrations(logger, database, driver); err != nil {
		return nil, err
	}
	return &Storage{
		logger:  logger,
		db:      database,
		dialect: db.Dialect(driver),
	}, nil
}

// BeginTx opens a transaction that can be passed to the storage methods
func (s *Storage) BeginTx(ctx context.Context, options *sql.TxOptions) (db.Txer, error) {
	return db.NewTxWithOptions(ctx, s.db, options)
}

func (s *Storage) getExecQuerier(dbTx db.Txer) db.Querier {
	if dbTx == nil {
		return s.db
	}

	return dbTx
}

// inTx runs fn inside dbTx, or inside a transaction of its own when dbTx is nil
func (s *Storage) inTx(ctx context.Context, dbTx db.Txer, fn func(tx db.Txer) error) (err error) {
	if dbTx != nil {
		return fn(dbTx)
	}
	tx, err := db.NewTx(ctx, s.db)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				s.logger.Errorf(errWhileRollbackFormat, errRllbck)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
