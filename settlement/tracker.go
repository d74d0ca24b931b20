package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/jqphu/zksync-era/dal"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName            = "github.com/jqphu/zksync-era/settlement"
	defaultCheckInterval = 10 * time.Second
)

// L1Client is the part of an L1 node client the tracker needs. *ethclient.Client
// satisfies it.
type L1Client interface {
	ethereum.BlockNumberReader
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
}

// EthTxStorage reads the execute txs waiting for confirmation and records confirmations
type EthTxStorage interface {
	GetUnconfirmedExecuteTxs(ctx context.Context, dbTx db.Txer) ([]dal.EthTxAttempt, error)
	ConfirmEthTx(ctx context.Context, historyID int64, confirmedAt time.Time, dbTx db.Txer) error
}

// ConfirmationTracker watches L1 for the execute txs of sealed batches. Confirming one
// is what makes its batches, and their miniblocks, finalized.
type ConfirmationTracker struct {
	logger        *log.Logger
	l1Client      L1Client
	storage       EthTxStorage
	checkInterval time.Duration
	confirmations uint64
	confirmed     metric.Int64Counter
}

// New returns a tracker. ConfirmationsRequired of 0 is treated as 1, a receipt is always
// required.
func New(logger *log.Logger, cfg Config, l1Client L1Client, storage EthTxStorage) *ConfirmationTracker {
	confirmations := cfg.ConfirmationsRequired
	if confirmations == 0 {
		confirmations = 1
	}
	checkInterval := cfg.CheckInterval.Duration
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}
	meter := otel.Meter(meterName)
	confirmed, err := meter.Int64Counter("settlement_confirmed_eth_txs")
	if err != nil {
		logger.Warnf("failed to create settlement_confirmed_eth_txs counter: %s", err)
	}
	return &ConfirmationTracker{
		logger:        logger,
		l1Client:      l1Client,
		storage:       storage,
		checkInterval: checkInterval,
		confirmations: confirmations,
		confirmed:     confirmed,
	}
}

// Start checks the unconfirmed execute txs every CheckInterval until ctx is done
func (t *ConfirmationTracker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := t.CheckOnce(ctx); err != nil {
				t.logger.Errorf("error checking execute tx confirmations: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// CheckOnce looks up the receipt of every unconfirmed execute attempt and records the ones
// deep enough on L1. It returns the number of attempts confirmed.
func (t *ConfirmationTracker) CheckOnce(ctx context.Context) (int, error) {
	attempts, err := t.storage.GetUnconfirmedExecuteTxs(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error getting unconfirmed execute txs: %w", err)
	}
	if len(attempts) == 0 {
		return 0, nil
	}
	head, err := t.l1Client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("error getting L1 block number: %w", err)
	}

	confirmed := 0
	for _, attempt := range attempts {
		ok, err := t.checkAttempt(ctx, attempt, head)
		if err != nil {
			return confirmed, err
		}
		if ok {
			confirmed++
		}
	}
	return confirmed, nil
}

func (t *ConfirmationTracker) checkAttempt(ctx context.Context, attempt dal.EthTxAttempt, head uint64) (bool, error) {
	receipt, err := t.l1Client.TransactionReceipt(ctx, attempt.TxHash)
	if errors.Is(err, ethereum.NotFound) {
		t.logger.Debugf("execute tx %s of eth tx %d not mined yet", attempt.TxHash.Hex(), attempt.EthTxID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error getting receipt of %s: %w", attempt.TxHash.Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		t.logger.Warnf("execute tx %s of eth tx %d failed on L1 in block %d",
			attempt.TxHash.Hex(), attempt.EthTxID, receipt.BlockNumber)
		return false, nil
	}
	included := receipt.BlockNumber.Uint64()
	if head < included || head-included+1 < t.confirmations {
		t.logger.Debugf("execute tx %s included in block %d, head %d, waiting for %d confirmations",
			attempt.TxHash.Hex(), included, head, t.confirmations)
		return false, nil
	}

	header, err := t.l1Client.HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil {
		return false, fmt.Errorf("error getting L1 header %d: %w", included, err)
	}
	confirmedAt := time.Unix(int64(header.Time), 0).UTC()

	err = t.storage.ConfirmEthTx(ctx, attempt.HistoryID, confirmedAt, nil)
	if errors.Is(err, dal.ErrAlreadyConfirmed) {
		t.logger.Warnf("eth tx %d already has another confirmed attempt, ignoring %s",
			attempt.EthTxID, attempt.TxHash.Hex())
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if t.confirmed != nil {
		t.confirmed.Add(ctx, 1)
	}
	t.logger.Infof("execute tx %s of eth tx %d confirmed in L1 block %d", attempt.TxHash.Hex(), attempt.EthTxID, included)
	return true, nil
}
