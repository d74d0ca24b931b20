package dal

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/log"
	"github.com/jqphu/zksync-era/types"
	"github.com/stretchr/testify/require"
)

var (
	testSystemContracts = types.BaseSystemContractsHashes{
		Bootloader: common.HexToHash("0x0b"),
		DefaultAA:  common.HexToHash("0x0a"),
	}
	testFeeAccount = common.HexToAddress("0xfee")
	testOperator   = common.HexToAddress("0xc0ffee")
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	database, err := db.NewSQLiteDB(path.Join(t.TempDir(), "dal.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	s, err := NewStorage(log.WithFields("module", "dal"), database, db.DriverSQLite)
	require.NoError(t, err)
	return s
}

func testMiniblock(number types.MiniblockNumber) types.MiniblockHeader {
	return types.MiniblockHeader{
		Number:                    number,
		Timestamp:                 1000 + uint64(number),
		Hash:                      types.MiniblockHash(number),
		L1TxCount:                 1,
		L2TxCount:                 2,
		BaseFeePerGas:             100,
		L1GasPrice:                200,
		L2FairGasPrice:            250,
		BaseSystemContractsHashes: testSystemContracts,
	}
}

func testL1Batch(number types.L1BatchNumber) types.L1BatchHeader {
	h := types.NewL1BatchHeader(number, 2000+uint64(number), testFeeAccount, testSystemContracts)
	h.L1TxCount = 1
	h.L2TxCount = 3
	h.PriorityOpsOnchainData = []types.PriorityOpOnchainData{
		{Layer2TipFee: *uint256.NewInt(5), OnchainDataHash: common.HexToHash("0x01")},
	}
	h.L2ToL1Logs = []types.L2ToL1Log{{
		IsService:       true,
		TxNumberInBlock: 1,
		Sender:          common.HexToAddress("0x8008"),
		Key:             common.HexToHash("0x02"),
		Value:           common.HexToHash("0x03"),
	}}
	h.L2ToL1Messages = [][]byte{{1, 2, 3}}
	h.Bloom[0] = 0x80
	h.InitialBootloaderContents = []types.BootloaderHeapEntry{{Offset: 1, Value: *uint256.NewInt(77)}}
	h.UsedContractHashes = []uint256.Int{*uint256.NewInt(9)}
	h.BaseFeePerGas = 100
	h.L1GasPrice = 200
	h.L2FairGasPrice = 250
	return h.WithFinished()
}

func testMetadata() types.L1BatchMetadata {
	return types.L1BatchMetadata{
		RootHash:                 common.HexToHash("0x11"),
		RollupLastLeafIndex:      12,
		MerkleRootHash:           common.HexToHash("0x13"),
		InitialWritesCompressed:  []byte{},
		RepeatedWritesCompressed: []byte{1, 4},
		L2L1MessagesCompressed:   []byte{1, 5},
		L2L1MerkleRoot:           common.HexToHash("0x16"),
		AuxDataHash:              common.HexToHash("0x17"),
		MetaParametersHash:       common.HexToHash("0x18"),
		PassThroughDataHash:      common.HexToHash("0x19"),
		Commitment:               common.HexToHash("0x20"),
		BlockMetaParams: types.L1BatchMetaParameters{
			ZkPorterIsAvailable: false,
			BootloaderCodeHash:  testSystemContracts.Bootloader,
			DefaultAACodeHash:   testSystemContracts.DefaultAA,
		},
	}
}

// populate stores miniblocks 0..5, batch 0 = {0}, batch 1 = {1, 2}, batch 2 = {3, 4} and
// leaves miniblock 5 in the open batch 3
func populate(t *testing.T, s *Storage) {
	t.Helper()
	ctx := context.Background()

	layout := [][]types.MiniblockNumber{{0}, {1, 2}, {3, 4}}
	for batch, miniblocks := range layout {
		for _, mb := range miniblocks {
			require.NoError(t, s.InsertMiniblock(ctx, testMiniblock(mb), nil))
		}
		require.NoError(t, s.SealL1Batch(ctx, testL1Batch(types.L1BatchNumber(batch)), nil))
	}
	require.NoError(t, s.InsertMiniblock(ctx, testMiniblock(5), nil))
}

func executeBatch(t *testing.T, s *Storage, batch types.L1BatchNumber, txHash common.Hash) *EthTxAttempt {
	t.Helper()
	ctx := context.Background()

	attempt, err := s.InsertEthTx(ctx, EthTxExecute, txHash, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetL1BatchExecuteTx(ctx, batch, attempt.EthTxID, nil))
	return attempt
}

func TestMiniblockHeader(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.GetSealedMiniblockNumber(ctx, nil)
	require.ErrorIs(t, err, db.ErrNotFound)

	expected := testMiniblock(7)
	require.NoError(t, s.InsertMiniblock(ctx, expected, nil))
	err = s.InsertMiniblock(ctx, expected, nil)
	require.ErrorIs(t, err, ErrAlreadyExists)

	header, err := s.GetMiniblockHeader(ctx, 7, nil)
	require.NoError(t, err)
	require.Equal(t, expected, *header)

	header, err = s.GetMiniblockHeaderByID(ctx, types.BlockIDFromHash(expected.Hash), nil)
	require.NoError(t, err)
	require.Equal(t, expected, *header)

	header, err = s.GetMiniblockHeaderByID(ctx, types.BlockIDFromNumber(types.LatestBlock), nil)
	require.NoError(t, err)
	require.Equal(t, expected, *header)

	_, err = s.GetMiniblockHeader(ctx, 8, nil)
	require.ErrorIs(t, err, db.ErrNotFound)

	sealed, err := s.GetSealedMiniblockNumber(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, types.MiniblockNumber(7), sealed)
}

func TestL1BatchHeaderAndMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	expected := testL1Batch(1)
	require.NoError(t, s.InsertL1Batch(ctx, expected, nil))
	require.ErrorIs(t, s.InsertL1Batch(ctx, expected, nil), ErrAlreadyExists)

	header, err := s.GetL1BatchHeader(ctx, 1, nil)
	require.NoError(t, err)
	require.Equal(t, expected, *header)

	_, err = s.GetL1BatchMetadata(ctx, 1, nil)
	require.ErrorIs(t, err, ErrIncomplete)

	// tree data alone is not enough
	require.NoError(t, s.SaveL1BatchTreeData(ctx, 1, common.HexToHash("0x11"), 12, nil))
	_, err = s.GetL1BatchMetadata(ctx, 1, nil)
	require.ErrorIs(t, err, ErrIncomplete)
	require.Contains(t, err.Error(), "merkle_root_hash")

	metadata := testMetadata()
	require.NoError(t, s.SaveL1BatchMetadata(ctx, 1, metadata, nil))
	stored, err := s.GetL1BatchMetadata(ctx, 1, nil)
	require.NoError(t, err)
	require.Equal(t, metadata, *stored)

	withMetadata, err := s.GetL1BatchWithMetadata(ctx, 1, nil)
	require.NoError(t, err)
	require.Equal(t, expected, withMetadata.Header)
	require.Equal(t, metadata, withMetadata.Metadata)

	require.ErrorIs(t, s.SaveL1BatchMetadata(ctx, 2, metadata, nil), db.ErrNotFound)
	require.ErrorIs(t, s.SaveL1BatchTreeData(ctx, 2, common.Hash{}, 0, nil), db.ErrNotFound)
	_, err = s.GetL1BatchHeader(ctx, 2, nil)
	require.ErrorIs(t, err, db.ErrNotFound)

	sealed, err := s.GetSealedL1BatchNumber(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, types.L1BatchNumber(1), sealed)
}

func TestSealUnfinishedL1Batch(t *testing.T) {
	s := newTestStorage(t)
	h := types.NewL1BatchHeader(1, 1, testFeeAccount, testSystemContracts)
	require.ErrorIs(t, s.SealL1Batch(context.Background(), h, nil), ErrUnfinishedL1Batch)
}

func TestInsertUnfinishedL1BatchKeepsItPending(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for batch := types.L1BatchNumber(0); batch < 7; batch++ {
		require.NoError(t, s.SealL1Batch(ctx, testL1Batch(batch), nil))
	}
	open := types.NewL1BatchHeader(7, 3000, testFeeAccount, testSystemContracts)
	require.ErrorIs(t, s.InsertL1Batch(ctx, open, nil), ErrUnfinishedL1Batch)
	require.NoError(t, s.InsertMiniblock(ctx, testMiniblock(100), nil))

	resolved, err := s.ResolveL1BatchForMiniblock(ctx, 100, nil)
	require.NoError(t, err)
	require.Nil(t, resolved.MiniblockL1Batch)
	require.Equal(t, types.L1BatchNumber(7), resolved.PendingL1Batch)
	require.Equal(t, types.L1BatchNumber(7), resolved.ExpectedL1Batch())

	// the open batch can still be sealed once finished
	require.NoError(t, s.SealL1Batch(ctx, open.WithFinished(), nil))
	resolved, err = s.ResolveL1BatchForMiniblock(ctx, 100, nil)
	require.NoError(t, err)
	require.NotNil(t, resolved.MiniblockL1Batch)
	require.Equal(t, types.L1BatchNumber(7), *resolved.MiniblockL1Batch)
}

func TestSealL1BatchRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.SealL1Batch(ctx, testL1Batch(0), nil))
	require.NoError(t, s.InsertMiniblock(ctx, testMiniblock(1), nil))
	// sealing the same batch again fails and leaves the miniblock unattached
	require.ErrorIs(t, s.SealL1Batch(ctx, testL1Batch(0), nil), ErrAlreadyExists)

	resolved, err := s.ResolveL1BatchForMiniblock(ctx, 1, nil)
	require.NoError(t, err)
	require.Nil(t, resolved.MiniblockL1Batch)
	require.Equal(t, types.L1BatchNumber(1), resolved.PendingL1Batch)
}

func TestResolveMiniblockNumber(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	populate(t, s)

	resolve := func(id types.BlockID) types.MiniblockNumber {
		t.Helper()
		n, err := s.ResolveMiniblockNumber(ctx, id, nil)
		require.NoError(t, err)
		return n
	}
	byNumber := func(n types.BlockNumber) types.BlockID { return types.BlockIDFromNumber(n) }

	require.Equal(t, types.MiniblockNumber(0), resolve(byNumber(types.EarliestBlock)))
	require.Equal(t, types.MiniblockNumber(5), resolve(byNumber(types.LatestBlock)))
	require.Equal(t, types.MiniblockNumber(5), resolve(byNumber(types.CommittedBlock)))
	require.Equal(t, types.MiniblockNumber(6), resolve(byNumber(types.PendingBlock)))
	require.Equal(t, types.MiniblockNumber(3), resolve(byNumber(types.ExactBlock(3))))
	require.Equal(t, types.MiniblockNumber(4), resolve(types.BlockIDFromHash(types.MiniblockHash(4))))

	// nothing executed on L1 yet
	require.Equal(t, types.MiniblockNumber(0), resolve(byNumber(types.FinalizedBlock)))

	_, err := s.ResolveMiniblockNumber(ctx, byNumber(types.ExactBlock(6)), nil)
	require.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.ResolveMiniblockNumber(ctx, types.BlockIDFromHash(common.HexToHash("0xdead")), nil)
	require.ErrorIs(t, err, db.ErrNotFound)

	// numbers past the miniblock range would wrap once bound as int64
	tooBig := byNumber(types.ExactBlock(1 << 63))
	_, err = s.ResolveMiniblockNumber(ctx, tooBig, nil)
	require.ErrorIs(t, err, types.ErrBlockNumberOutOfRange)
	_, err = s.GetMiniblockHeaderByID(ctx, tooBig, nil)
	require.ErrorIs(t, err, types.ErrBlockNumberOutOfRange)
}

func TestResolveOnEmptyStorage(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	n, err := s.ResolveMiniblockNumber(ctx, types.BlockIDFromNumber(types.EarliestBlock), nil)
	require.NoError(t, err)
	require.Equal(t, types.MiniblockNumber(0), n)

	n, err = s.ResolveMiniblockNumber(ctx, types.BlockIDFromNumber(types.FinalizedBlock), nil)
	require.NoError(t, err)
	require.Equal(t, types.MiniblockNumber(0), n)

	_, err = s.ResolveMiniblockNumber(ctx, types.BlockIDFromNumber(types.LatestBlock), nil)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestFinalizedFollowsConfirmedExecution(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	populate(t, s)

	first := executeBatch(t, s, 1, common.HexToHash("0xe1"))
	second := executeBatch(t, s, 2, common.HexToHash("0xe2"))

	finalized := func() types.MiniblockNumber {
		t.Helper()
		n, err := s.ResolveMiniblockNumber(ctx, types.BlockIDFromNumber(types.FinalizedBlock), nil)
		require.NoError(t, err)
		latest, err := s.ResolveMiniblockNumber(ctx, types.BlockIDFromNumber(types.LatestBlock), nil)
		require.NoError(t, err)
		require.LessOrEqual(t, n, latest)
		return n
	}

	// linked but unconfirmed execute txs don't finalize anything
	require.Equal(t, types.MiniblockNumber(0), finalized())

	require.NoError(t, s.ConfirmEthTx(ctx, first.HistoryID, time.Now(), nil))
	require.Equal(t, types.MiniblockNumber(2), finalized())

	lastBatch, err := s.GetLastVerifiedL1BatchNumber(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, types.L1BatchNumber(1), lastBatch)

	require.NoError(t, s.ConfirmEthTx(ctx, second.HistoryID, time.Now(), nil))
	require.Equal(t, types.MiniblockNumber(4), finalized())
}

func TestResolveL1BatchForMiniblock(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for batch := types.L1BatchNumber(0); batch < 7; batch++ {
		require.NoError(t, s.InsertL1Batch(ctx, testL1Batch(batch), nil))
	}
	require.NoError(t, s.InsertMiniblock(ctx, testMiniblock(100), nil))

	resolved, err := s.ResolveL1BatchForMiniblock(ctx, 100, nil)
	require.NoError(t, err)
	require.Nil(t, resolved.MiniblockL1Batch)
	require.Equal(t, types.L1BatchNumber(7), resolved.PendingL1Batch)
	require.Equal(t, types.L1BatchNumber(7), resolved.ExpectedL1Batch())

	// once batch 7 is sealed the miniblock is explicitly attached to it
	require.NoError(t, s.SealL1Batch(ctx, testL1Batch(7), nil))
	resolved, err = s.ResolveL1BatchForMiniblock(ctx, 100, nil)
	require.NoError(t, err)
	require.NotNil(t, resolved.MiniblockL1Batch)
	require.Equal(t, types.L1BatchNumber(7), *resolved.MiniblockL1Batch)
	require.Equal(t, types.L1BatchNumber(8), resolved.PendingL1Batch)
	require.Equal(t, types.L1BatchNumber(7), resolved.ExpectedL1Batch())

	// sealing later batches doesn't move it
	require.NoError(t, s.SealL1Batch(ctx, testL1Batch(8), nil))
	resolved, err = s.ResolveL1BatchForMiniblock(ctx, 100, nil)
	require.NoError(t, err)
	require.Equal(t, types.L1BatchNumber(7), resolved.ExpectedL1Batch())

	_, err = s.ResolveL1BatchForMiniblock(ctx, 101, nil)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestBlockDetails(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	populate(t, s)
	attempt := executeBatch(t, s, 1, common.HexToHash("0xe1"))
	require.NoError(t, s.ConfirmEthTx(ctx, attempt.HistoryID, time.Now(), nil))

	details, err := s.GetBlockDetails(ctx, 0, testOperator, nil)
	require.NoError(t, err)
	require.Equal(t, types.BlockStatusVerified, details.Status)
	require.Nil(t, details.ExecuteTxHash)

	details, err = s.GetBlockDetails(ctx, 2, testOperator, nil)
	require.NoError(t, err)
	require.Equal(t, types.L1BatchNumber(1), details.L1BatchNumber)
	require.Equal(t, types.BlockStatusVerified, details.Status)
	require.NotNil(t, details.ExecuteTxHash)
	require.Equal(t, common.HexToHash("0xe1"), *details.ExecuteTxHash)
	require.NotNil(t, details.ExecutedAt)
	require.Nil(t, details.CommitTxHash)
	require.Equal(t, testFeeAccount, details.OperatorAddress)
	require.NotNil(t, details.RootHash)
	require.Equal(t, types.MiniblockHash(2), *details.RootHash)
	require.Equal(t, testSystemContracts, details.BaseSystemContractsHashes)

	details, err = s.GetBlockDetails(ctx, 5, testOperator, nil)
	require.NoError(t, err)
	require.Equal(t, types.L1BatchNumber(3), details.L1BatchNumber)
	require.Equal(t, types.BlockStatusSealed, details.Status)
	require.Equal(t, testOperator, details.OperatorAddress)

	_, err = s.GetBlockDetails(ctx, 6, testOperator, nil)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestL1BatchDetails(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	populate(t, s)
	attempt := executeBatch(t, s, 1, common.HexToHash("0xe1"))
	require.NoError(t, s.ConfirmEthTx(ctx, attempt.HistoryID, time.Now(), nil))
	require.NoError(t, s.SaveL1BatchMetadata(ctx, 1, testMetadata(), nil))

	details, err := s.GetL1BatchDetails(ctx, 1, nil)
	require.NoError(t, err)
	require.Equal(t, types.BlockStatusVerified, details.Status)
	require.NotNil(t, details.RootHash)
	require.Equal(t, testMetadata().RootHash, *details.RootHash)
	require.Equal(t, 1, details.L1TxCount)
	require.Equal(t, 3, details.L2TxCount)

	details, err = s.GetL1BatchDetails(ctx, 2, nil)
	require.NoError(t, err)
	require.Equal(t, types.BlockStatusSealed, details.Status)
	require.Nil(t, details.RootHash)
	require.Nil(t, details.ExecuteTxHash)

	_, err = s.GetL1BatchDetails(ctx, 3, nil)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestPages(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	populate(t, s)
	attempt := executeBatch(t, s, 1, common.HexToHash("0xe1"))
	require.NoError(t, s.ConfirmEthTx(ctx, attempt.HistoryID, time.Now(), nil))

	blocks, err := s.GetBlocksPage(ctx, PaginationQuery{Limit: 10}, nil)
	require.NoError(t, err)
	require.Len(t, blocks, 6)
	for i, block := range blocks {
		number := types.MiniblockNumber(5 - i)
		require.Equal(t, number, block.Number)
		if number > 2 {
			require.Equal(t, types.BlockStatusSealed, block.Status)
		} else {
			require.Equal(t, types.BlockStatusVerified, block.Status)
		}
		require.NotNil(t, block.Hash)
		require.Equal(t, types.MiniblockHash(number), *block.Hash)
	}

	from := uint32(4)
	blocks, err = s.GetBlocksPage(ctx, PaginationQuery{From: &from, Limit: 2, Direction: PaginationNewer}, nil)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, types.MiniblockNumber(4), blocks[0].Number)
	require.Equal(t, types.MiniblockNumber(5), blocks[1].Number)

	blocks, err = s.GetBlocksPage(ctx, PaginationQuery{From: &from, Limit: 2}, nil)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, types.MiniblockNumber(4), blocks[0].Number)
	require.Equal(t, types.MiniblockNumber(3), blocks[1].Number)

	batches, err := s.GetL1BatchesPage(ctx, PaginationQuery{}, nil)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	require.Equal(t, types.L1BatchNumber(2), batches[0].Number)
	require.Equal(t, types.BlockStatusSealed, batches[0].Status)
	require.Equal(t, types.BlockStatusVerified, batches[1].Status)
	require.Equal(t, types.BlockStatusVerified, batches[2].Status)
	require.Nil(t, batches[0].RootHash)

	_, err = s.GetBlocksPage(ctx, PaginationQuery{Direction: "sideways"}, nil)
	require.Error(t, err)
}

func TestConfirmEthTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	populate(t, s)

	first := executeBatch(t, s, 2, common.HexToHash("0xe1"))
	secondID, err := s.AddEthTxAttempt(ctx, first.EthTxID, common.HexToHash("0xe2"), nil)
	require.NoError(t, err)

	_, err = s.AddEthTxAttempt(ctx, first.EthTxID, common.HexToHash("0xe2"), nil)
	require.ErrorIs(t, err, ErrAlreadyExists)

	pending, err := s.GetUnconfirmedExecuteTxs(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []EthTxAttempt{
		{EthTxID: first.EthTxID, HistoryID: first.HistoryID, TxHash: common.HexToHash("0xe1"), TxType: EthTxExecute},
		{EthTxID: first.EthTxID, HistoryID: secondID, TxHash: common.HexToHash("0xe2"), TxType: EthTxExecute},
	}, pending)

	commits, err := s.GetUnconfirmedEthTxs(ctx, []EthTxType{EthTxCommit, EthTxProve}, nil)
	require.NoError(t, err)
	require.Empty(t, commits)

	require.NoError(t, s.ConfirmEthTx(ctx, secondID, time.Now(), nil))
	// confirming the same attempt twice is harmless
	require.NoError(t, s.ConfirmEthTx(ctx, secondID, time.Now(), nil))
	require.ErrorIs(t, s.ConfirmEthTx(ctx, first.HistoryID, time.Now(), nil), ErrAlreadyConfirmed)
	require.ErrorIs(t, s.ConfirmEthTx(ctx, 1000, time.Now(), nil), db.ErrNotFound)

	pending, err = s.GetUnconfirmedExecuteTxs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, pending)

	details, err := s.GetL1BatchDetails(ctx, 2, nil)
	require.NoError(t, err)
	require.Equal(t, types.BlockStatusVerified, details.Status)
	require.Equal(t, common.HexToHash("0xe2"), *details.ExecuteTxHash)

	_, err = s.InsertEthTx(ctx, EthTxType("unknown"), common.HexToHash("0xe3"), nil)
	require.Error(t, err)
}

func TestSetL1BatchesEthTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	populate(t, s)

	attempt, err := s.InsertEthTx(ctx, EthTxCommit, common.HexToHash("0xc1"), nil)
	require.NoError(t, err)
	require.NoError(t, s.SetL1BatchesEthTx(ctx, EthTxCommit, 0, 2, attempt.EthTxID, nil))
	require.NoError(t, s.ConfirmEthTx(ctx, attempt.HistoryID, time.Now(), nil))

	for batch := types.L1BatchNumber(0); batch <= 2; batch++ {
		details, err := s.GetL1BatchDetails(ctx, batch, nil)
		require.NoError(t, err)
		require.NotNil(t, details.CommitTxHash)
		require.Equal(t, common.HexToHash("0xc1"), *details.CommitTxHash)
		require.NotNil(t, details.CommittedAt)
	}

	require.ErrorIs(t, s.SetL1BatchesEthTx(ctx, EthTxCommit, 10, 12, attempt.EthTxID, nil), db.ErrNotFound)
}

func TestStorageWithExternalTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	tx, err := s.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertMiniblock(ctx, testMiniblock(0), tx))
	require.NoError(t, s.SealL1Batch(ctx, testL1Batch(0), tx))
	require.NoError(t, tx.Rollback())

	_, err = s.GetMiniblockHeader(ctx, 0, nil)
	require.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.GetL1BatchHeader(ctx, 0, nil)
	require.ErrorIs(t, err, db.ErrNotFound)
}
