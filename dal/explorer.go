package dal

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/types"
)

const (
	// DefaultPageLimit is used when a page query has no limit
	DefaultPageLimit = 50
	// MaxPageLimit caps the number of items of a page
	MaxPageLimit = 100
)

const l1TxJoinsSQL = `
	LEFT JOIN eth_txs_history AS commit_tx
		ON (l1_batches.eth_commit_tx_id = commit_tx.eth_tx_id AND commit_tx.confirmed_at IS NOT NULL)
	LEFT JOIN eth_txs_history AS prove_tx
		ON (l1_batches.eth_prove_tx_id = prove_tx.eth_tx_id AND prove_tx.confirmed_at IS NOT NULL)
	LEFT JOIN eth_txs_history AS execute_tx
		ON (l1_batches.eth_execute_tx_id = execute_tx.eth_tx_id AND execute_tx.confirmed_at IS NOT NULL)
`

// PaginationDirection is the order in which a page is walked
type PaginationDirection string

const (
	// PaginationOlder lists items with numbers lower or equal than From, newest first
	PaginationOlder PaginationDirection = "older"
	// PaginationNewer lists items with numbers greater or equal than From, oldest first
	PaginationNewer PaginationDirection = "newer"
)

// PaginationQuery selects a page of blocks or batches. A nil From starts at the newest item
// when walking older, and at the oldest when walking newer.
type PaginationQuery struct {
	From      *uint32
	Limit     uint32
	Direction PaginationDirection
}

func (p PaginationQuery) build(table string) (string, []interface{}, error) {
	limit := p.Limit
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	var (
		where string
		order string
		args  []interface{}
	)
	switch p.Direction {
	case PaginationOlder, "":
		order = "DESC"
		if p.From != nil {
			where = "WHERE number <= $1"
		}
	case PaginationNewer:
		order = "ASC"
		if p.From != nil {
			where = "WHERE number >= $1"
		}
	default:
		return "", nil, fmt.Errorf("unknown pagination direction %s", p.Direction)
	}
	if p.From != nil {
		args = append(args, int64(*p.From))
	}
	args = append(args, int64(limit))

	query := strings.Join([]string{
		"SELECT number, l1_tx_count, l2_tx_count, hash, timestamp FROM", table,
		where,
		"ORDER BY number", order,
		fmt.Sprintf("LIMIT $%d", len(args)),
	}, " ")
	return query, args, nil
}

// GetBlockDetails returns db.ErrNotFound if the miniblock doesn't exist. currentOperator is
// reported for miniblocks of the open batch.
func (s *Storage) GetBlockDetails(
	ctx context.Context, number types.MiniblockNumber, currentOperator common.Address, dbTx db.Txer,
) (*types.BlockDetails, error) {
	const getBlockDetailsSQL = `
		SELECT
			miniblocks.number AS number,
			COALESCE(miniblocks.l1_batch_number, (SELECT MAX(number) + 1 FROM l1_batches), 0) AS l1_batch_number,
			miniblocks.timestamp AS timestamp,
			miniblocks.l1_tx_count AS l1_tx_count,
			miniblocks.l2_tx_count AS l2_tx_count,
			miniblocks.hash AS root_hash,
			commit_tx.tx_hash AS commit_tx_hash,
			commit_tx.confirmed_at AS committed_at,
			prove_tx.tx_hash AS prove_tx_hash,
			prove_tx.confirmed_at AS proven_at,
			execute_tx.tx_hash AS execute_tx_hash,
			execute_tx.confirmed_at AS executed_at,
			miniblocks.l1_gas_price AS l1_gas_price,
			miniblocks.l2_fair_gas_price AS l2_fair_gas_price,
			miniblocks.bootloader_code_hash AS bootloader_code_hash,
			miniblocks.default_aa_code_hash AS default_aa_code_hash,
			l1_batches.fee_account_address AS fee_account_address
		FROM miniblocks
		LEFT JOIN l1_batches ON miniblocks.l1_batch_number = l1_batches.number
	` + l1TxJoinsSQL + `
		WHERE miniblocks.number = $1
	`
	var row StorageBlockDetails
	if err := s.dialect.QueryRow(s.getExecQuerier(dbTx), &row, getBlockDetailsSQL, int64(number)); err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	details, err := row.ToBlockDetails(currentOperator)
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// GetL1BatchDetails returns db.ErrNotFound if the batch doesn't exist
func (s *Storage) GetL1BatchDetails(
	ctx context.Context, number types.L1BatchNumber, dbTx db.Txer,
) (*types.L1BatchDetails, error) {
	const getL1BatchDetailsSQL = `
		SELECT
			l1_batches.number AS number,
			l1_batches.timestamp AS timestamp,
			l1_batches.l1_tx_count AS l1_tx_count,
			l1_batches.l2_tx_count AS l2_tx_count,
			l1_batches.hash AS root_hash,
			commit_tx.tx_hash AS commit_tx_hash,
			commit_tx.confirmed_at AS committed_at,
			prove_tx.tx_hash AS prove_tx_hash,
			prove_tx.confirmed_at AS proven_at,
			execute_tx.tx_hash AS execute_tx_hash,
			execute_tx.confirmed_at AS executed_at,
			l1_batches.l1_gas_price AS l1_gas_price,
			l1_batches.l2_fair_gas_price AS l2_fair_gas_price,
			l1_batches.bootloader_code_hash AS bootloader_code_hash,
			l1_batches.default_aa_code_hash AS default_aa_code_hash
		FROM l1_batches
	` + l1TxJoinsSQL + `
		WHERE l1_batches.number = $1
	`
	var row StorageL1BatchDetails
	if err := s.dialect.QueryRow(s.getExecQuerier(dbTx), &row, getL1BatchDetailsSQL, int64(number)); err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	details, err := row.ToL1BatchDetails()
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// GetLastVerifiedMiniblockNumber is the highest miniblock of a batch whose execution is
// confirmed on L1, 0 if there is none
func (s *Storage) GetLastVerifiedMiniblockNumber(ctx context.Context, dbTx db.Txer) (types.MiniblockNumber, error) {
	return s.ResolveMiniblockNumber(ctx, types.BlockIDFromNumber(types.FinalizedBlock), dbTx)
}

// GetLastVerifiedL1BatchNumber is the highest batch whose execution is confirmed on L1, 0 if
// there is none
func (s *Storage) GetLastVerifiedL1BatchNumber(ctx context.Context, dbTx db.Txer) (types.L1BatchNumber, error) {
	const getLastVerifiedL1BatchSQL = `
		SELECT COALESCE(MAX(number), 0) FROM l1_batches
		JOIN eth_txs ON l1_batches.eth_execute_tx_id = eth_txs.id
		WHERE eth_txs.confirmed_eth_tx_history_id IS NOT NULL
	`
	var number int64
	if err := s.getExecQuerier(dbTx).QueryRowContext(ctx, getLastVerifiedL1BatchSQL).Scan(&number); err != nil {
		return 0, err
	}
	return types.L1BatchNumberFromInt64(number)
}

// GetBlocksPage lists miniblocks with their status relative to the last verified one
func (s *Storage) GetBlocksPage(
	ctx context.Context, query PaginationQuery, dbTx db.Txer,
) ([]types.BlockPageItem, error) {
	sqlQuery, args, err := query.build("miniblocks")
	if err != nil {
		return nil, err
	}
	lastVerified, err := s.GetLastVerifiedMiniblockNumber(ctx, dbTx)
	if err != nil {
		return nil, err
	}

	var rows []*StorageBlockPageItem
	if err := s.dialect.QueryAll(s.getExecQuerier(dbTx), &rows, sqlQuery, args...); err != nil {
		return nil, err
	}
	items := make([]types.BlockPageItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.ToBlockPageItem(lastVerified)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GetL1BatchesPage lists batches with their status relative to the last verified one
func (s *Storage) GetL1BatchesPage(
	ctx context.Context, query PaginationQuery, dbTx db.Txer,
) ([]types.L1BatchPageItem, error) {
	sqlQuery, args, err := query.build("l1_batches")
	if err != nil {
		return nil, err
	}
	lastVerified, err := s.GetLastVerifiedL1BatchNumber(ctx, dbTx)
	if err != nil {
		return nil, err
	}

	var rows []*StorageL1BatchPageItem
	if err := s.dialect.QueryAll(s.getExecQuerier(dbTx), &rows, sqlQuery, args...); err != nil {
		return nil, err
	}
	items := make([]types.L1BatchPageItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.ToL1BatchPageItem(lastVerified)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
