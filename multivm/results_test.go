package multivm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/types"
	"github.com/stretchr/testify/require"
)

func fullResult() Result {
	event := VmEvent{Address: common.HexToAddress("0x01"), Topics: []common.Hash{{1}}, Data: []byte{1}}
	logs := VmExecutionLogs{
		Events:          []VmEvent{event},
		StorageLogs:     []StorageLog{{Key: common.Hash{2}, IsWrite: true}},
		L2ToL1Logs:      []types.L2ToL1Log{{Key: common.Hash{3}}},
		TotalLogQueries: 2,
	}
	return Result{
		Block: VmBlockResult{
			FullResult: VmExecutionResult{
				Events:               logs.Events,
				StorageLogs:          logs.StorageLogs,
				L2ToL1Logs:           logs.L2ToL1Logs,
				ReturnData:           []byte{4},
				GasUsed:              21000,
				ContractsUsed:        3,
				TotalLogQueries:      2,
				CyclesUsed:           100,
				ComputationalGasUsed: 500,
			},
			BlockTipResult: &VmPartialExecutionResult{Logs: logs, CyclesUsed: 10},
		},
		Txs: []VmTxExecutionResult{
			{
				Status:      TxSuccess,
				Result:      VmPartialExecutionResult{Logs: logs, CyclesUsed: 90, ComputationalGasUsed: 400},
				GasRefunded: 7,
			},
			{
				Status:                  TxFailure,
				Result:                  VmPartialExecutionResult{RevertReason: OutOfGasRevert(), ComputationalGasUsed: 100},
				OperatorSuggestedRefund: 3,
			},
		},
	}
}

func TestJobTypeValidate(t *testing.T) {
	for _, job := range []BootloaderJobType{BlockExecution, OneTxExecution, EstimateFee} {
		require.NoError(t, job.Validate())
	}
	unknown := BootloaderJobType(3)
	require.ErrorIs(t, unknown.Validate(), ErrUnknownJobType)
	require.False(t, unknown.Discardable())
	require.Equal(t, Result{}, filterForJob(unknown, fullResult()))
}

func TestFilterForJob(t *testing.T) {
	t.Run("block execution keeps everything", func(t *testing.T) {
		require.Equal(t, fullResult(), filterForJob(BlockExecution, fullResult()))
	})

	t.Run("one tx has no block tip", func(t *testing.T) {
		res := filterForJob(OneTxExecution, fullResult())
		require.Nil(t, res.Block.BlockTipResult)
		require.Nil(t, res.Block.FullResult.L2ToL1Logs)
		require.Len(t, res.Block.FullResult.Events, 1)
		require.Equal(t, fullResult().Txs, res.Txs)
	})

	t.Run("fee estimation keeps gas figures", func(t *testing.T) {
		res := filterForJob(EstimateFee, fullResult())
		require.Nil(t, res.Block.BlockTipResult)
		require.Equal(t, VmExecutionResult{GasUsed: 21000, ComputationalGasUsed: 500}, res.Block.FullResult)
		require.Len(t, res.Txs, 2)
		require.Equal(t, VmTxExecutionResult{
			Status:      TxSuccess,
			Result:      VmPartialExecutionResult{ComputationalGasUsed: 400},
			GasRefunded: 7,
		}, res.Txs[0])
		require.Equal(t, TxFailure, res.Txs[1].Status)
		require.Equal(t, RevertOutOfGas, res.Txs[1].Result.RevertReason.Kind)
		require.Equal(t, uint32(3), res.Txs[1].OperatorSuggestedRefund)
	})
}

func TestBootloaderJobType(t *testing.T) {
	tests := []struct {
		job         BootloaderJobType
		mode        TxExecutionMode
		discardable bool
	}{
		{BlockExecution, VerifyExecute, false},
		{OneTxExecution, EthCall, false},
		{EstimateFee, EstimateFeeMode, true},
	}
	for _, tt := range tests {
		t.Run(tt.job.String(), func(t *testing.T) {
			require.Equal(t, tt.mode, tt.job.ExecutionMode())
			require.Equal(t, tt.discardable, tt.job.Discardable())
		})
	}
}
