package dal

import (
	"context"
	"database/sql"

	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/types"
)

// ResolveMiniblockNumber turns a block identifier into a miniblock number. Exact numbers and
// hashes must match a stored miniblock; "pending" resolves to the miniblock about to be
// produced. Returns db.ErrNotFound when nothing matches.
func (s *Storage) ResolveMiniblockNumber(
	ctx context.Context, id types.BlockID, dbTx db.Txer,
) (types.MiniblockNumber, error) {
	if err := id.Validate(); err != nil {
		return 0, err
	}
	var query string
	switch {
	case id.Hash != nil || id.Number.IsExact():
		query = "SELECT number FROM miniblocks WHERE " + BlockWhereSQL(id, 1)
	case id.Number.Kind == types.BlockNumberEarliest:
		return 0, nil
	default:
		query = "SELECT " + BlockNumberToSQL(id.Number) + " AS number"
	}
	args := BindBlockWhereSQLParams(id, nil)

	var number sql.NullInt64
	if err := s.getExecQuerier(dbTx).QueryRowContext(ctx, query, args...).Scan(&number); err != nil {
		return 0, db.ReturnErrNotFound(err)
	}
	if !number.Valid {
		return 0, db.ErrNotFound
	}
	return types.MiniblockNumberFromInt64(number.Int64)
}

// ResolveL1BatchForMiniblock returns the batch the miniblock is attached to, together with
// the batch currently open. Returns db.ErrNotFound if the miniblock doesn't exist.
func (s *Storage) ResolveL1BatchForMiniblock(
	ctx context.Context, number types.MiniblockNumber, dbTx db.Txer,
) (*types.ResolvedL1BatchForMiniblock, error) {
	const resolveL1BatchForMiniblockSQL = `
		SELECT
			EXISTS (SELECT 1 FROM miniblocks WHERE number = $1),
			(SELECT l1_batch_number FROM miniblocks WHERE number = $1),
			COALESCE((SELECT MAX(number) + 1 FROM l1_batches), 0)
	`
	var (
		exists       bool
		miniblockL1  sql.NullInt64
		pendingBatch int64
	)
	err := s.getExecQuerier(dbTx).QueryRowContext(ctx, resolveL1BatchForMiniblockSQL, int64(number)).
		Scan(&exists, &miniblockL1, &pendingBatch)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, db.ErrNotFound
	}

	pending, err := types.L1BatchNumberFromInt64(pendingBatch)
	if err != nil {
		return nil, err
	}
	res := &types.ResolvedL1BatchForMiniblock{PendingL1Batch: pending}
	if miniblockL1.Valid {
		explicit, err := types.L1BatchNumberFromInt64(miniblockL1.Int64)
		if err != nil {
			return nil, err
		}
		res.MiniblockL1Batch = &explicit
	}
	return res, nil
}
