package m6

import (
	"fmt"

	"github.com/jqphu/zksync-era/multivm"
	"github.com/jqphu/zksync-era/types"
)

// Normalizer converts m6 outcomes
type Normalizer struct {
	version multivm.VmVersion
}

// NewNormalizer fails for versions other than the m6 ones
func NewNormalizer(version multivm.VmVersion) (*Normalizer, error) {
	if version != multivm.VmM6Initial && version != multivm.VmM6BugWithCompressionFixed {
		return nil, fmt.Errorf("%w: %s is not an m6 version", multivm.ErrUnsupportedVersion, version)
	}
	return &Normalizer{version: version}, nil
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
	if raw.Halt != nil {
		return nil, &multivm.HaltError{Reason: raw.Halt.Reason}
	}
	if !raw.Full.Reverted {
		return nil, nil
	}
	return multivm.ExplicitRevert(raw.Full.RevertOutput), nil
}

func (n *Normalizer) NormalizeResult(raw BlockOutcome) (multivm.Result, error) {
	full, err := normalizeExecutionResult(raw.Full)
	if err != nil {
		return multivm.Result{}, err
	}
	res := multivm.Result{Block: multivm.VmBlockResult{FullResult: full}}
	if tip := raw.BlockTip; tip != nil {
		var revert *multivm.TxRevertReason
		if tip.Reverted {
			revert = multivm.ExplicitRevert(tip.RevertOutput)
		}
		res.Block.BlockTipResult = &multivm.VmPartialExecutionResult{
			Logs:                 executionLogs(tip.Events, tip.LogQueries, tip.L2ToL1Logs),
			RevertReason:         revert,
			ContractsUsed:        tip.ContractsUsed,
			CyclesUsed:           tip.CyclesUsed,
			ComputationalGasUsed: tip.ComputationalGasUsed,
		}
	}

	res.Txs = make([]multivm.VmTxExecutionResult, len(raw.Txs))
	for i, tx := range raw.Txs {
		revert := txRevert(tx)
		status := multivm.TxSuccess
		if revert != nil {
			status = multivm.TxFailure
		}
		res.Txs[i] = multivm.VmTxExecutionResult{
			Status: status,
			Result: multivm.VmPartialExecutionResult{
				Logs:                 executionLogs(tx.Events, tx.LogQueries, tx.L2ToL1Logs),
				RevertReason:         revert,
				CyclesUsed:           tx.CyclesUsed,
				ComputationalGasUsed: tx.ComputationalGasUsed,
			},
			GasRefunded:             tx.GasRefunded,
			OperatorSuggestedRefund: tx.OperatorSuggestedRefund,
		}
	}
	return res, nil
}

func txRevert(tx TxResult) *multivm.TxRevertReason {
	switch {
	case tx.OutOfGas:
		return multivm.OutOfGasRevert()
	case tx.ValidationError != "":
		return multivm.ValidationFailedRevert(tx.ValidationError)
	case tx.Reverted:
		return multivm.ExplicitRevert(tx.RevertOutput)
	default:
		return nil
	}
}

func normalizeExecutionResult(r ExecutionResult) (multivm.VmExecutionResult, error) {
	logs := executionLogs(r.Events, r.LogQueries, r.L2ToL1Logs)
	res := multivm.VmExecutionResult{
		Events:               logs.Events,
		StorageLogs:          logs.StorageLogs,
		UsedContractHashes:   r.UsedContractHashes,
		L2ToL1Logs:           r.L2ToL1Logs,
		ReturnData:           r.ReturnData,
		GasUsed:              r.GasUsed,
		ContractsUsed:        r.ContractsUsed,
		TotalLogQueries:      logs.TotalLogQueries,
		CyclesUsed:           r.CyclesUsed,
		ComputationalGasUsed: r.ComputationalGasUsed,
	}
	if r.Reverted && len(r.RevertOutput) > 0 {
		parsed, err := multivm.NewVmRevertReasonParsingResult(r.RevertOutput)
		if err != nil {
			return multivm.VmExecutionResult{}, err
		}
		res.RevertReason = parsed
	}
	return res, nil
}

// executionLogs drops rolled back queries, they still count towards TotalLogQueries
func executionLogs(events []Event, queries []LogQuery, l2ToL1 []types.L2ToL1Log) multivm.VmExecutionLogs {
	res := multivm.VmExecutionLogs{
		L2ToL1Logs:      l2ToL1,
		TotalLogQueries: len(queries),
	}
	if events != nil {
		res.Events = make([]multivm.VmEvent, len(events))
		for i, e := range events {
			res.Events[i] = multivm.VmEvent{
				LocationTx: uint32(e.TxNumberInBlock),
				Address:    e.Address,
				Topics:     e.Topics,
				Data:       e.Data,
			}
		}
	}
	for _, q := range queries {
		if q.Rollback {
			continue
		}
		res.StorageLogs = append(res.StorageLogs, multivm.StorageLog{
			Address:        q.Address,
			Key:            q.Key,
			ReadValue:      q.ReadValue,
			WrittenValue:   q.WrittenValue,
			IsWrite:        q.RWFlag,
			IsInitialWrite: q.IsInitial,
		})
	}
	return res
}
