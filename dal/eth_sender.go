package dal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/types"
)

// EthTxType is the kind of L1 operation an eth tx performs on a range of batches
type EthTxType string

const (
	EthTxCommit  EthTxType = "commit"
	EthTxProve   EthTxType = "prove"
	EthTxExecute EthTxType = "execute"
)

var ethTxColumns = map[EthTxType]string{
	EthTxCommit:  "eth_commit_tx_id",
	EthTxProve:   "eth_prove_tx_id",
	EthTxExecute: "eth_execute_tx_id",
}

// EthTxAttempt is one submission of an eth tx. An eth tx resubmitted with a different fee
// has several attempts, at most one of them gets confirmed.
type EthTxAttempt struct {
	EthTxID   int64       `meddler:"eth_tx_id"`
	HistoryID int64       `meddler:"history_id"`
	TxHash    common.Hash `meddler:"tx_hash,hash"`
	TxType    EthTxType   `meddler:"tx_type"`
}

// InsertEthTx records a new eth tx together with its first attempt
func (s *Storage) InsertEthTx(
	ctx context.Context, txType EthTxType, txHash common.Hash, dbTx db.Txer,
) (*EthTxAttempt, error) {
	const insertEthTxSQL = `
		INSERT INTO eth_txs (tx_type, created_at) VALUES ($1, $2) RETURNING id
	`
	if _, ok := ethTxColumns[txType]; !ok {
		return nil, fmt.Errorf("unknown eth tx type %s", txType)
	}

	var attempt *EthTxAttempt
	err := s.inTx(ctx, dbTx, func(tx db.Txer) error {
		var ethTxID int64
		if err := tx.QueryRowContext(ctx, insertEthTxSQL, string(txType), time.Now().UTC()).Scan(&ethTxID); err != nil {
			return fmt.Errorf("error inserting eth tx: %w", err)
		}
		historyID, err := s.insertEthTxAttempt(ctx, ethTxID, txHash, tx)
		if err != nil {
			return err
		}
		attempt = &EthTxAttempt{EthTxID: ethTxID, HistoryID: historyID, TxHash: txHash, TxType: txType}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debugf("inserted %s eth tx %d with hash %s", txType, attempt.EthTxID, txHash.Hex())
	return attempt, nil
}

// AddEthTxAttempt records a resubmission of an existing eth tx
func (s *Storage) AddEthTxAttempt(
	ctx context.Context, ethTxID int64, txHash common.Hash, dbTx db.Txer,
) (int64, error) {
	return s.insertEthTxAttempt(ctx, ethTxID, txHash, s.getExecQuerier(dbTx))
}

func (s *Storage) insertEthTxAttempt(ctx context.Context, ethTxID int64, txHash common.Hash, q db.Querier) (int64, error) {
	const insertEthTxAttemptSQL = `
		INSERT INTO eth_txs_history (eth_tx_id, tx_hash, created_at) VALUES ($1, $2, $3) RETURNING id
	`
	var historyID int64
	err := q.QueryRowContext(ctx, insertEthTxAttemptSQL, ethTxID, txHash.Hex(), time.Now().UTC()).Scan(&historyID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: eth tx attempt %s", ErrAlreadyExists, txHash.Hex())
		}
		return 0, fmt.Errorf("error inserting attempt of eth tx %d: %w", ethTxID, err)
	}
	return historyID, nil
}

// SetL1BatchesEthTx links the batches in [from, to] to the eth tx performing txType on them
func (s *Storage) SetL1BatchesEthTx(
	ctx context.Context, txType EthTxType, from, to types.L1BatchNumber, ethTxID int64, dbTx db.Txer,
) error {
	column, ok := ethTxColumns[txType]
	if !ok {
		return fmt.Errorf("unknown eth tx type %s", txType)
	}
	query := fmt.Sprintf("UPDATE l1_batches SET %s = $1 WHERE number BETWEEN $2 AND $3", column)
	res, err := s.getExecQuerier(dbTx).ExecContext(ctx, query, ethTxID, int64(from), int64(to))
	if err != nil {
		return fmt.Errorf("error setting %s tx of l1 batches %d-%d: %w", txType, from, to, err)
	}
	return expectAffected(res, fmt.Sprintf("l1 batches %d-%d", from, to))
}

// SetL1BatchExecuteTx links a batch to its execute eth tx. A batch references a single
// execute tx; linking it again replaces the previous one.
func (s *Storage) SetL1BatchExecuteTx(
	ctx context.Context, number types.L1BatchNumber, ethTxID int64, dbTx db.Txer,
) error {
	return s.SetL1BatchesEthTx(ctx, EthTxExecute, number, number, ethTxID, dbTx)
}

// ConfirmEthTx marks an attempt as included on L1. The first confirmed attempt of an eth tx
// wins; confirming another attempt of the same eth tx fails with ErrAlreadyConfirmed.
func (s *Storage) ConfirmEthTx(
	ctx context.Context, historyID int64, confirmedAt time.Time, dbTx db.Txer,
) error {
	const (
		confirmEthTxSQL = `
			UPDATE eth_txs SET confirmed_eth_tx_history_id = $1
			WHERE id = (SELECT eth_tx_id FROM eth_txs_history WHERE id = $1)
				AND confirmed_eth_tx_history_id IS NULL
		`
		confirmAttemptSQL = `
			UPDATE eth_txs_history SET confirmed_at = $1 WHERE id = $2
		`
	)
	return s.inTx(ctx, dbTx, func(tx db.Txer) error {
		res, err := tx.ExecContext(ctx, confirmEthTxSQL, historyID)
		if err != nil {
			return fmt.Errorf("error confirming eth tx attempt %d: %w", historyID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.confirmFailure(ctx, historyID, tx)
		}
		if _, err := tx.ExecContext(ctx, confirmAttemptSQL, confirmedAt.UTC(), historyID); err != nil {
			return fmt.Errorf("error confirming eth tx attempt %d: %w", historyID, err)
		}
		s.logger.Infof("confirmed eth tx attempt %d at %s", historyID, confirmedAt.UTC())
		return nil
	})
}

// confirmFailure explains why no eth tx was updated
func (s *Storage) confirmFailure(ctx context.Context, historyID int64, q db.Querier) error {
	const getAttemptSQL = `
		SELECT eth_txs.confirmed_eth_tx_history_id FROM eth_txs_history
		JOIN eth_txs ON eth_txs.id = eth_txs_history.eth_tx_id
		WHERE eth_txs_history.id = $1
	`
	var confirmed *int64
	if err := q.QueryRowContext(ctx, getAttemptSQL, historyID).Scan(&confirmed); err != nil {
		return fmt.Errorf("eth tx attempt %d: %w", historyID, db.ReturnErrNotFound(err))
	}
	if confirmed != nil && *confirmed == historyID {
		return nil
	}
	return fmt.Errorf("%w: attempt %d", ErrAlreadyConfirmed, historyID)
}

// GetUnconfirmedEthTxs returns every attempt of the eth txs of the given types that have no
// confirmed attempt yet
func (s *Storage) GetUnconfirmedEthTxs(
	ctx context.Context, txTypes []EthTxType, dbTx db.Txer,
) ([]EthTxAttempt, error) {
	query := `
		SELECT
			eth_txs.id AS eth_tx_id,
			eth_txs_history.id AS history_id,
			eth_txs_history.tx_hash AS tx_hash,
			eth_txs.tx_type AS tx_type
		FROM eth_txs
		JOIN eth_txs_history ON eth_txs_history.eth_tx_id = eth_txs.id
		WHERE eth_txs.confirmed_eth_tx_history_id IS NULL`
	args := make([]interface{}, len(txTypes))
	if len(txTypes) > 0 {
		placeholders := make([]string, len(txTypes))
		for i := range txTypes {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = string(txTypes[i])
		}
		query += " AND eth_txs.tx_type IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY eth_txs_history.id ASC"

	var attempts []*EthTxAttempt
	if err := s.dialect.QueryAll(s.getExecQuerier(dbTx), &attempts, query, args...); err != nil {
		return nil, err
	}
	res, ok := db.SlicePtrsToSlice(attempts).([]EthTxAttempt)
	if !ok {
		return nil, errors.New("unexpected attempts slice type")
	}
	return res, nil
}

// GetUnconfirmedExecuteTxs returns the attempts of execute eth txs waiting for confirmation
func (s *Storage) GetUnconfirmedExecuteTxs(ctx context.Context, dbTx db.Txer) ([]EthTxAttempt, error) {
	return s.GetUnconfirmedEthTxs(ctx, []EthTxType{EthTxExecute}, dbTx)
}
