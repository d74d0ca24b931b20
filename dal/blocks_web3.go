package dal

import (
	"fmt"
	"strconv"

	"github.com/jqphu/zksync-era/types"
)

const (
	pendingMiniblockSQL = "(SELECT (MAX(number) + 1) as number FROM miniblocks)"
	latestMiniblockSQL  = "(SELECT MAX(number) as number FROM miniblocks)"
	// the highest miniblock of the highest batch whose execute transaction is confirmed on L1
	finalizedMiniblockSQL = `
		(SELECT COALESCE(
			(
				SELECT MAX(number) FROM miniblocks
				WHERE l1_batch_number = (
					SELECT MAX(number) FROM l1_batches
					JOIN eth_txs ON
						l1_batches.eth_execute_tx_id = eth_txs.id
					WHERE
						eth_txs.confirmed_eth_tx_history_id IS NOT NULL
				)
			),
			0
		) as number)
	`
)

// BlockNumberToSQL returns the SQL expression of a block number reference. Symbolic tags are
// sub-queries evaluated against the current state every time the query runs.
func BlockNumberToSQL(number types.BlockNumber) string {
	switch number.Kind {
	case types.BlockNumberEarliest:
		return "0"
	case types.BlockNumberPending:
		return pendingMiniblockSQL
	case types.BlockNumberLatest, types.BlockNumberCommitted:
		return latestMiniblockSQL
	case types.BlockNumberFinalized:
		return finalizedMiniblockSQL
	default:
		return strconv.FormatUint(number.Number, 10)
	}
}

// BlockWhereSQL returns the predicate selecting the miniblock identified by id. Hashes and
// exact numbers use the positional parameter argIndex, symbolic tags are inlined.
func BlockWhereSQL(id types.BlockID, argIndex int) string {
	if id.Hash != nil {
		return fmt.Sprintf("miniblocks.hash = $%d", argIndex)
	}
	if id.Number.IsExact() {
		return fmt.Sprintf("miniblocks.number = $%d", argIndex)
	}
	return fmt.Sprintf("miniblocks.number = %s", BlockNumberToSQL(id.Number))
}

// BindBlockWhereSQLParams appends the parameter BlockWhereSQL expects, if any. The id must
// have passed BlockID.Validate.
func BindBlockWhereSQLParams(id types.BlockID, args []interface{}) []interface{} {
	if id.Hash != nil {
		return append(args, id.Hash.Hex())
	}
	if id.Number.IsExact() {
		return append(args, int64(id.Number.Number))
	}
	return args
}
