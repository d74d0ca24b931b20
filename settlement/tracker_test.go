package settlement

import (
	"context"
	"errors"
	"math/big"
	"path"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/jqphu/zksync-era/config/types"
	"github.com/jqphu/zksync-era/dal"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/log"
	"github.com/jqphu/zksync-era/settlement/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	firstAttempt  = common.HexToHash("0xe1")
	secondAttempt = common.HexToHash("0xe2")
)

func newTestTracker(t *testing.T, confirmations uint64) (*ConfirmationTracker, *mocks.L1Client, *dal.Storage) {
	t.Helper()

	database, err := db.NewSQLiteDB(path.Join(t.TempDir(), "settlement.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	storage, err := dal.NewStorage(log.WithFields("module", "dal"), database, db.DriverSQLite)
	require.NoError(t, err)

	client := mocks.NewL1Client(t)
	cfg := Config{CheckInterval: types.NewDuration(time.Second), ConfirmationsRequired: confirmations}
	return New(log.WithFields("module", "settlement"), cfg, client, storage), client, storage
}

func receipt(status uint64, block int64) *ethtypes.Receipt {
	return &ethtypes.Receipt{Status: status, BlockNumber: big.NewInt(block)}
}

func unconfirmed(t *testing.T, storage *dal.Storage) []dal.EthTxAttempt {
	t.Helper()

	attempts, err := storage.GetUnconfirmedExecuteTxs(context.Background(), nil)
	require.NoError(t, err)
	return attempts
}

func TestCheckOnceNothingToDo(t *testing.T) {
	tracker, _, _ := newTestTracker(t, 1)

	confirmed, err := tracker.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, confirmed)
}

func TestCheckOnce(t *testing.T) {
	tests := []struct {
		name              string
		confirmations     uint64
		head              uint64
		receipt           *ethtypes.Receipt
		receiptErr        error
		expectedConfirmed int
	}{
		{
			name:          "not mined",
			confirmations: 1,
			head:          20,
			receiptErr:    ethereum.NotFound,
		},
		{
			name:          "failed on L1",
			confirmations: 1,
			head:          20,
			receipt:       receipt(ethtypes.ReceiptStatusFailed, 10),
		},
		{
			name:          "not deep enough",
			confirmations: 3,
			head:          11,
			receipt:       receipt(ethtypes.ReceiptStatusSuccessful, 10),
		},
		{
			name:          "head behind the receipt",
			confirmations: 1,
			head:          9,
			receipt:       receipt(ethtypes.ReceiptStatusSuccessful, 10),
		},
		{
			name:              "exactly deep enough",
			confirmations:     3,
			head:              12,
			receipt:           receipt(ethtypes.ReceiptStatusSuccessful, 10),
			expectedConfirmed: 1,
		},
		{
			name:              "zero confirmations needs the receipt only",
			confirmations:     0,
			head:              10,
			receipt:           receipt(ethtypes.ReceiptStatusSuccessful, 10),
			expectedConfirmed: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tracker, client, storage := newTestTracker(t, tt.confirmations)
			_, err := storage.InsertEthTx(ctx, dal.EthTxExecute, firstAttempt, nil)
			require.NoError(t, err)

			client.EXPECT().BlockNumber(mock.Anything).Return(tt.head, nil)
			client.EXPECT().TransactionReceipt(mock.Anything, firstAttempt).Return(tt.receipt, tt.receiptErr)
			if tt.expectedConfirmed > 0 {
				client.EXPECT().HeaderByNumber(mock.Anything, tt.receipt.BlockNumber).
					Return(&ethtypes.Header{Time: 1_700_000_000}, nil)
			}

			confirmed, err := tracker.CheckOnce(ctx)
			require.NoError(t, err)
			require.Equal(t, tt.expectedConfirmed, confirmed)
			if tt.expectedConfirmed > 0 {
				require.Empty(t, unconfirmed(t, storage))
			} else {
				require.Len(t, unconfirmed(t, storage), 1)
			}
		})
	}
}

func TestCheckOnceResubmittedTx(t *testing.T) {
	ctx := context.Background()
	tracker, client, storage := newTestTracker(t, 1)
	attempt, err := storage.InsertEthTx(ctx, dal.EthTxExecute, firstAttempt, nil)
	require.NoError(t, err)
	_, err = storage.AddEthTxAttempt(ctx, attempt.EthTxID, secondAttempt, nil)
	require.NoError(t, err)
	require.Len(t, unconfirmed(t, storage), 2)

	client.EXPECT().BlockNumber(mock.Anything).Return(uint64(30), nil)
	client.EXPECT().TransactionReceipt(mock.Anything, firstAttempt).Return(nil, ethereum.NotFound)
	client.EXPECT().TransactionReceipt(mock.Anything, secondAttempt).
		Return(receipt(ethtypes.ReceiptStatusSuccessful, 25), nil)
	client.EXPECT().HeaderByNumber(mock.Anything, mock.Anything).Return(&ethtypes.Header{Time: 1_700_000_000}, nil)

	confirmed, err := tracker.CheckOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, confirmed)
	require.Empty(t, unconfirmed(t, storage))
}

func TestCheckOnceL1Errors(t *testing.T) {
	ctx := context.Background()
	l1Err := errors.New("connection refused")

	tracker, client, storage := newTestTracker(t, 1)
	_, err := storage.InsertEthTx(ctx, dal.EthTxExecute, firstAttempt, nil)
	require.NoError(t, err)

	client.EXPECT().BlockNumber(mock.Anything).Return(uint64(0), l1Err).Once()
	_, err = tracker.CheckOnce(ctx)
	require.ErrorIs(t, err, l1Err)

	client.EXPECT().BlockNumber(mock.Anything).Return(uint64(10), nil).Once()
	client.EXPECT().TransactionReceipt(mock.Anything, firstAttempt).Return(nil, l1Err).Once()
	_, err = tracker.CheckOnce(ctx)
	require.ErrorIs(t, err, l1Err)
	require.Len(t, unconfirmed(t, storage), 1)
}

func TestStartStopsOnCancel(t *testing.T) {
	tracker, _, _ := newTestTracker(t, 1)
	tracker.checkInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tracker.Start(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tracker didn't stop")
	}
}

func TestNewDefaults(t *testing.T) {
	tracker := New(log.WithFields("module", "settlement"), Config{}, nil, nil)
	require.Equal(t, uint64(1), tracker.confirmations)
	require.Equal(t, defaultCheckInterval, tracker.checkInterval)
}
