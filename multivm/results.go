package multivm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jqphu/zksync-era/types"
)

// VmEvent is an event emitted during execution
type VmEvent struct {
	LocationBlock uint32
	LocationTx    uint32
	Address       common.Address
	Topics        []common.Hash
	Data          []byte
}

// StorageLog is a storage access; writes form the state diff of the execution
type StorageLog struct {
	Address        common.Address
	Key            common.Hash
	ReadValue      common.Hash
	WrittenValue   common.Hash
	IsWrite        bool
	IsInitialWrite bool
}

// VmExecutionLogs groups the logs produced by a piece of execution
type VmExecutionLogs struct {
	Events          []VmEvent
	StorageLogs     []StorageLog
	L2ToL1Logs      []types.L2ToL1Log
	TotalLogQueries int
}

// VmExecutionResult is the version independent result of running the bootloader
type VmExecutionResult struct {
	Events               []VmEvent
	StorageLogs          []StorageLog
	UsedContractHashes   []uint256.Int
	L2ToL1Logs           []types.L2ToL1Log
	ReturnData           []byte
	GasUsed              uint32
	ContractsUsed        int
	RevertReason         *VmRevertReasonParsingResult
	TotalLogQueries      int
	CyclesUsed           uint32
	ComputationalGasUsed uint32
}

// VmPartialExecutionResult is the result of a slice of execution, a transaction or the
// block tip
type VmPartialExecutionResult struct {
	Logs                 VmExecutionLogs
	RevertReason         *TxRevertReason
	ContractsUsed        int
	CyclesUsed           uint32
	ComputationalGasUsed uint32
}

// TxExecutionStatus is the outcome of one transaction. A failure is a normal outcome.
type TxExecutionStatus uint8

const (
	TxSuccess TxExecutionStatus = iota
	TxFailure
)

func (s TxExecutionStatus) String() string {
	if s == TxSuccess {
		return "success"
	}
	return "failure"
}

// VmTxExecutionResult is the result of one transaction of the block
type VmTxExecutionResult struct {
	Status                  TxExecutionStatus
	Result                  VmPartialExecutionResult
	GasRefunded             uint32
	OperatorSuggestedRefund uint32
}

// VmBlockResult is the result of a whole block. BlockTipResult is only set for
// BlockExecution jobs.
type VmBlockResult struct {
	FullResult     VmExecutionResult
	BlockTipResult *VmPartialExecutionResult
}

// Result is what a normalizer produces from a raw VM outcome that neither halted nor
// reverted at the top level
type Result struct {
	Block VmBlockResult
	Txs   []VmTxExecutionResult
}

// filterForJob drops the fields a job type doesn't produce
func filterForJob(job BootloaderJobType, res Result) Result {
	switch job {
	case BlockExecution:
		return res
	case OneTxExecution:
		res.Block.BlockTipResult = nil
		res.Block.FullResult.L2ToL1Logs = nil
		return res
	case EstimateFee:
		// fee estimation only reports gas figures
		full := res.Block.FullResult
		txs := make([]VmTxExecutionResult, len(res.Txs))
		for i, tx := range res.Txs {
			txs[i] = VmTxExecutionResult{
				Status:                  tx.Status,
				GasRefunded:             tx.GasRefunded,
				OperatorSuggestedRefund: tx.OperatorSuggestedRefund,
				Result: VmPartialExecutionResult{
					RevertReason:         tx.Result.RevertReason,
					ComputationalGasUsed: tx.Result.ComputationalGasUsed,
				},
			}
		}
		return Result{
			Block: VmBlockResult{FullResult: VmExecutionResult{
				GasUsed:              full.GasUsed,
				ComputationalGasUsed: full.ComputationalGasUsed,
				RevertReason:         full.RevertReason,
			}},
			Txs: txs,
		}
	}
	return Result{}
}
