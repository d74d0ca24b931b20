package m5

import (
	"fmt"

	"github.com/jqphu/zksync-era/multivm"
)

// Normalizer converts m5 outcomes. Refunds are dropped for M5WithoutRefunds, which
// reported them without applying them.
type Normalizer struct {
	withRefunds bool
}

// NewNormalizer fails for versions other than the m5 ones
func NewNormalizer(version multivm.VmVersion) (*Normalizer, error) {
	switch version {
	case multivm.VmM5WithoutRefunds:
		return &Normalizer{}, nil
	case multivm.VmM5WithRefunds:
		return &Normalizer{withRefunds: true}, nil
	default:
		return nil, fmt.Errorf("%w: %s is not an m5 version", multivm.ErrUnsupportedVersion, version)
	}
}

// NewAdapter returns the adapter running engine as version
func NewAdapter(version multivm.VmVersion, engine multivm.Engine[BlockOutcome]) (multivm.Adapter, error) {
	n, err := NewNormalizer(version)
	if err != nil {
		return nil, err
	}
	return multivm.NewAdapter[BlockOutcome](version, engine, n), nil
}

func (n *Normalizer) NormalizeRevert(raw BlockOutcome) (*multivm.TxRevertReason, *multivm.HaltError) {
	if raw.Full.Revert == nil {
		return nil, nil
	}
	if raw.Full.Revert.Kind == RevertBootloaderFailure {
		return nil, &multivm.HaltError{Reason: raw.Full.Revert.Msg}
	}
	return normalizeRevert(raw.Full.Revert), nil
}

func (n *Normalizer) NormalizeResult(raw BlockOutcome) (multivm.Result, error) {
	full, err := normalizeExecutionResult(raw.Full)
	if err != nil {
		return multivm.Result{}, err
	}
	res := multivm.Result{Block: multivm.VmBlockResult{FullResult: full}}
	if raw.BlockTip != nil {
		res.Block.BlockTipResult = &multivm.VmPartialExecutionResult{
			Logs: multivm.VmExecutionLogs{
				Events:          normalizeEvents(raw.BlockTip.Events),
				StorageLogs:     normalizeStorageLogs(raw.BlockTip.StorageLogs),
				L2ToL1Logs:      raw.BlockTip.L2ToL1Logs,
				TotalLogQueries: len(raw.BlockTip.StorageLogs),
			},
			RevertReason:  normalizeRevert(raw.BlockTip.Revert),
			ContractsUsed: raw.BlockTip.ContractsUsed,
			CyclesUsed:    raw.BlockTip.CyclesUsed,
		}
	}

	res.Txs = make([]multivm.VmTxExecutionResult, len(raw.Txs))
	for i, tx := range raw.Txs {
		status := multivm.TxSuccess
		if tx.Revert != nil {
			status = multivm.TxFailure
		}
		refunded := uint32(0)
		if n.withRefunds {
			refunded = tx.GasRefunded
		}
		res.Txs[i] = multivm.VmTxExecutionResult{
			Status: status,
			Result: multivm.VmPartialExecutionResult{
				Logs: multivm.VmExecutionLogs{
					Events:          normalizeEvents(tx.Events),
					StorageLogs:     normalizeStorageLogs(tx.StorageLogs),
					L2ToL1Logs:      tx.L2ToL1Logs,
					TotalLogQueries: len(tx.StorageLogs),
				},
				RevertReason: normalizeRevert(tx.Revert),
				CyclesUsed:   tx.CyclesUsed,
			},
			GasRefunded: refunded,
		}
	}
	return res, nil
}

func normalizeExecutionResult(r ExecutionResult) (multivm.VmExecutionResult, error) {
	res := multivm.VmExecutionResult{
		Events:             normalizeEvents(r.Events),
		StorageLogs:        normalizeStorageLogs(r.StorageLogs),
		UsedContractHashes: r.UsedContractHashes,
		L2ToL1Logs:         r.L2ToL1Logs,
		ReturnData:         r.ReturnData,
		GasUsed:            r.GasUsed,
		ContractsUsed:      r.ContractsUsed,
		TotalLogQueries:    len(r.StorageLogs),
		CyclesUsed:         r.CyclesUsed,
	}
	if r.Revert != nil && r.Revert.Kind == RevertCall && len(r.Revert.Data) > 0 {
		parsed, err := multivm.NewVmRevertReasonParsingResult(r.Revert.Data)
		if err != nil {
			return multivm.VmExecutionResult{}, err
		}
		res.RevertReason = parsed
	}
	return res, nil
}

func normalizeRevert(r *Revert) *multivm.TxRevertReason {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case RevertOutOfGas:
		return multivm.OutOfGasRevert()
	case RevertCall:
		return multivm.ExplicitRevert(r.Data)
	case RevertValidation:
		return multivm.ValidationFailedRevert(r.Msg)
	default:
		return multivm.UnknownRevert([]byte(r.Msg))
	}
}

func normalizeEvents(events []Event) []multivm.VmEvent {
	if events == nil {
		return nil
	}
	res := make([]multivm.VmEvent, len(events))
	for i, e := range events {
		res[i] = multivm.VmEvent{
			LocationTx: e.TxNumber,
			Address:    e.Address,
			Topics:     e.Topics,
			Data:       e.Data,
		}
	}
	return res
}

func normalizeStorageLogs(logs []StorageLogQuery) []multivm.StorageLog {
	if logs == nil {
		return nil
	}
	res := make([]multivm.StorageLog, len(logs))
	for i, l := range logs {
		res[i] = multivm.StorageLog{
			Address:        l.Address,
			Key:            l.Key,
			ReadValue:      l.ReadValue,
			WrittenValue:   l.WrittenValue,
			IsWrite:        l.RW,
			IsInitialWrite: l.IsInitial,
		}
	}
	return res
}
