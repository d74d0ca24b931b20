package m5

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/multivm"
	"github.com/stretchr/testify/require"
)

func testOutcome() BlockOutcome {
	return BlockOutcome{
		Full: ExecutionResult{
			Events:      []Event{{TxNumber: 1, Address: common.HexToAddress("0x01"), Topics: []common.Hash{{1}}}},
			StorageLogs: []StorageLogQuery{{Key: common.Hash{1}}, {Key: common.Hash{2}, RW: true, IsInitial: true}},
			GasUsed:     30_000,
		},
		Txs: []TxOutcome{
			{GasRefunded: 500, StorageLogs: []StorageLogQuery{{Key: common.Hash{2}, RW: true}}},
			{Revert: &Revert{Kind: RevertValidation, Msg: "bad signature"}, GasRefunded: 100},
		},
	}
}

func TestNormalizeRefunds(t *testing.T) {
	tests := []struct {
		version          multivm.VmVersion
		expectedRefunded uint32
	}{
		{multivm.VmM5WithoutRefunds, 0},
		{multivm.VmM5WithRefunds, 500},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			n, err := NewNormalizer(tt.version)
			require.NoError(t, err)

			res, err := n.NormalizeResult(testOutcome())
			require.NoError(t, err)
			require.Len(t, res.Txs, 2)
			require.Equal(t, tt.expectedRefunded, res.Txs[0].GasRefunded)
			require.Equal(t, multivm.TxSuccess, res.Txs[0].Status)
			require.Equal(t, multivm.TxFailure, res.Txs[1].Status)
			require.Equal(t, multivm.RevertValidationFailed, res.Txs[1].Result.RevertReason.Kind)
			require.Equal(t, "bad signature", res.Txs[1].Result.RevertReason.Message)
		})
	}

	_, err := NewNormalizer(multivm.VmM6Initial)
	require.ErrorIs(t, err, multivm.ErrUnsupportedVersion)
}

func TestNormalizeResult(t *testing.T) {
	n, err := NewNormalizer(multivm.VmM5WithRefunds)
	require.NoError(t, err)

	res, err := n.NormalizeResult(testOutcome())
	require.NoError(t, err)
	full := res.Block.FullResult
	require.Equal(t, uint32(30_000), full.GasUsed)
	require.Equal(t, 2, full.TotalLogQueries)
	require.Len(t, full.Events, 1)
	require.Equal(t, uint32(1), full.Events[0].LocationTx)
	require.False(t, full.StorageLogs[0].IsWrite)
	require.True(t, full.StorageLogs[1].IsWrite)
	require.True(t, full.StorageLogs[1].IsInitialWrite)
	require.Nil(t, res.Block.BlockTipResult)
}

func TestNormalizeRevert(t *testing.T) {
	n, err := NewNormalizer(multivm.VmM5WithoutRefunds)
	require.NoError(t, err)

	revert, halt := n.NormalizeRevert(testOutcome())
	require.Nil(t, revert)
	require.Nil(t, halt)

	outcome := testOutcome()
	outcome.Full.Revert = &Revert{Kind: RevertBootloaderFailure, Msg: "bootloader panicked"}
	revert, halt = n.NormalizeRevert(outcome)
	require.Nil(t, revert)
	require.Equal(t, &multivm.HaltError{Reason: "bootloader panicked"}, halt)

	outcome.Full.Revert = &Revert{Kind: RevertOutOfGas}
	revert, halt = n.NormalizeRevert(outcome)
	require.Nil(t, halt)
	require.Equal(t, multivm.RevertOutOfGas, revert.Kind)

	outcome.Full.Revert = &Revert{Kind: RevertCall, Data: []byte{0xde, 0xad, 0xbe, 0xef, 0x01}}
	revert, halt = n.NormalizeRevert(outcome)
	require.Nil(t, halt)
	require.Equal(t, multivm.RevertExplicit, revert.Kind)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x01}, revert.Data)

	res, err := n.NormalizeResult(outcome)
	require.NoError(t, err)
	require.NotNil(t, res.Block.FullResult.RevertReason)
	require.Equal(t, multivm.VmRevertUnknown, res.Block.FullResult.RevertReason.Revert.Kind)
}
