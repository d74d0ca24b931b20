package dal

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/types"
	"github.com/stretchr/testify/require"
)

func TestBlockNumberToSQL(t *testing.T) {
	require.Equal(t, "0", BlockNumberToSQL(types.EarliestBlock))
	require.Equal(t, "(SELECT (MAX(number) + 1) as number FROM miniblocks)", BlockNumberToSQL(types.PendingBlock))
	require.Equal(t, "(SELECT MAX(number) as number FROM miniblocks)", BlockNumberToSQL(types.LatestBlock))
	require.Equal(t, BlockNumberToSQL(types.LatestBlock), BlockNumberToSQL(types.CommittedBlock))
	require.Equal(t, "123", BlockNumberToSQL(types.ExactBlock(123)))

	finalized := strings.Join(strings.Fields(BlockNumberToSQL(types.FinalizedBlock)), " ")
	require.Equal(t, "(SELECT COALESCE( ( SELECT MAX(number) FROM miniblocks WHERE l1_batch_number = ( "+
		"SELECT MAX(number) FROM l1_batches JOIN eth_txs ON l1_batches.eth_execute_tx_id = eth_txs.id "+
		"WHERE eth_txs.confirmed_eth_tx_history_id IS NOT NULL ) ), 0 ) as number)", finalized)
}

func TestBlockWhereSQL(t *testing.T) {
	hash := common.HexToHash("0xabc")
	tests := []struct {
		name         string
		id           types.BlockID
		expectedSQL  string
		expectedArgs []interface{}
	}{
		{
			name:         "hash",
			id:           types.BlockIDFromHash(hash),
			expectedSQL:  "miniblocks.hash = $2",
			expectedArgs: []interface{}{"first", hash.Hex()},
		},
		{
			name:         "exact number",
			id:           types.BlockIDFromNumber(types.ExactBlock(7)),
			expectedSQL:  "miniblocks.number = $2",
			expectedArgs: []interface{}{"first", int64(7)},
		},
		{
			name:         "latest",
			id:           types.BlockIDFromNumber(types.LatestBlock),
			expectedSQL:  "miniblocks.number = (SELECT MAX(number) as number FROM miniblocks)",
			expectedArgs: []interface{}{"first"},
		},
		{
			name:         "earliest",
			id:           types.BlockIDFromNumber(types.EarliestBlock),
			expectedSQL:  "miniblocks.number = 0",
			expectedArgs: []interface{}{"first"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expectedSQL, BlockWhereSQL(tt.id, 2))
			require.Equal(t, tt.expectedArgs, BindBlockWhereSQLParams(tt.id, []interface{}{"first"}))
		})
	}
}
