package vm1_3_2

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/multivm"
	"github.com/jqphu/zksync-era/types"
)

// Normalizer converts 1.3.2 outcomes
type Normalizer struct{}

// NewAdapter returns the adapter running engine as Vm1_3_2
func NewAdapter(engine multivm.Engine[BlockOutcome]) multivm.Adapter {
	return multivm.NewAdapter[BlockOutcome](multivm.Vm1_3_2, engine, Normalizer{})
}

func (Normalizer) NormalizeRevert(raw BlockOutcome) (*multivm.TxRevertReason, *multivm.HaltError) {
	r := raw.Full.Revert
	if r == nil {
		return nil, nil
	}
	if halt := haltReason(r); halt != nil {
		return nil, halt
	}
	return normalizeRevert(r), nil
}

func (Normalizer) NormalizeResult(raw BlockOutcome) (multivm.Result, error) {
	full, err := normalizeExecutionResult(raw.Full)
	if err != nil {
		return multivm.Result{}, err
	}
	res := multivm.Result{Block: multivm.VmBlockResult{FullResult: full}}
	if raw.BlockTip != nil {
		tip, err := partialResult(*raw.BlockTip)
		if err != nil {
			return multivm.Result{}, fmt.Errorf("block tip: %w", err)
		}
		res.Block.BlockTipResult = &tip
	}

	res.Txs = make([]multivm.VmTxExecutionResult, len(raw.Txs))
	for i, tx := range raw.Txs {
		partial, err := partialResult(tx.Result)
		if err != nil {
			return multivm.Result{}, fmt.Errorf("tx %d: %w", i, err)
		}
		status := multivm.TxSuccess
		if partial.RevertReason != nil {
			status = multivm.TxFailure
		}
		res.Txs[i] = multivm.VmTxExecutionResult{
			Status:                  status,
			Result:                  partial,
			GasRefunded:             tx.GasRefunded,
			OperatorSuggestedRefund: tx.OperatorSuggestedRefund,
		}
	}
	return res, nil
}

func haltReason(r *Revert) *multivm.HaltError {
	switch r.Kind {
	case BootloaderOutOfGas:
		return &multivm.HaltError{Reason: "bootloader out of gas"}
	case UnexpectedVMBehavior:
		return &multivm.HaltError{Reason: "unexpected vm behavior: " + r.Msg}
	default:
		return nil
	}
}

func normalizeRevert(r *Revert) *multivm.TxRevertReason {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case EthCall, TxReverted:
		return multivm.ExplicitRevert(r.Output)
	case NotEnoughGasProvided:
		return multivm.OutOfGasRevert()
	case ValidationFailed, PaymasterValidationFailed, PrePaymasterPreparationFailed:
		return multivm.ValidationFailedRevert(r.Msg)
	case FromIsNotAnAccount:
		return multivm.ValidationFailedRevert("sender is not an account")
	case InnerTxError:
		return multivm.ValidationFailedRevert("bootloader-based tx failed")
	case TooBigGasLimit:
		return multivm.ValidationFailedRevert("transaction gas limit is too big")
	case FailedToChargeFee:
		return multivm.ValidationFailedRevert("failed to charge fee: " + r.Msg)
	case PayForTxFailed:
		return multivm.ValidationFailedRevert("failed to pay for the transaction: " + r.Msg)
	default:
		// MissingInvocationLimitReached, Unknown and anything newer
		if len(r.Output) > 0 {
			return multivm.UnknownRevert(r.Output)
		}
		return multivm.UnknownRevert([]byte(r.Msg))
	}
}

func normalizeExecutionResult(r ExecutionResult) (multivm.VmExecutionResult, error) {
	events, err := normalizeEvents(r.Events)
	if err != nil {
		return multivm.VmExecutionResult{}, err
	}
	res := multivm.VmExecutionResult{
		Events:               events,
		StorageLogs:          normalizeStorageLogs(r.StorageLogQueries),
		UsedContractHashes:   r.UsedContractHashes,
		L2ToL1Logs:           r.L2ToL1Logs,
		ReturnData:           r.ReturnData,
		GasUsed:              r.GasUsed,
		ContractsUsed:        r.ContractsUsed,
		TotalLogQueries:      r.TotalLogQueries,
		CyclesUsed:           r.CyclesUsed,
		ComputationalGasUsed: r.ComputationalGasUsed,
	}
	if r.Revert != nil && len(r.Revert.Output) > 0 {
		parsed, err := multivm.NewVmRevertReasonParsingResult(r.Revert.Output)
		if err != nil {
			return multivm.VmExecutionResult{}, err
		}
		res.RevertReason = parsed
	}
	return res, nil
}

func partialResult(r ExecutionResult) (multivm.VmPartialExecutionResult, error) {
	events, err := normalizeEvents(r.Events)
	if err != nil {
		return multivm.VmPartialExecutionResult{}, err
	}
	return multivm.VmPartialExecutionResult{
		Logs: multivm.VmExecutionLogs{
			Events:          events,
			StorageLogs:     normalizeStorageLogs(r.StorageLogQueries),
			L2ToL1Logs:      r.L2ToL1Logs,
			TotalLogQueries: r.TotalLogQueries,
		},
		RevertReason:         normalizeRevert(r.Revert),
		ContractsUsed:        r.ContractsUsed,
		CyclesUsed:           r.CyclesUsed,
		ComputationalGasUsed: r.ComputationalGasUsed,
	}, nil
}

func normalizeEvents(events []EventMessage) ([]multivm.VmEvent, error) {
	if events == nil {
		return nil, nil
	}
	res := make([]multivm.VmEvent, len(events))
	for i, e := range events {
		topics := make([]common.Hash, len(e.Indexed))
		for j, topic := range e.Indexed {
			if len(topic) != common.HashLength {
				return nil, fmt.Errorf("%w: topic %d of event %d has %d bytes",
					types.ErrMalformedRecord, j, i, len(topic))
			}
			topics[j] = common.BytesToHash(topic)
		}
		res[i] = multivm.VmEvent{
			LocationTx: uint32(e.TxNumberInBlock),
			Address:    e.Address,
			Topics:     topics,
			Data:       e.Value,
		}
	}
	return res, nil
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
			IsWrite:        l.Kind != StorageRead,
			IsInitialWrite: l.Kind == StorageInitialWrite,
		}
	}
	return res
}
