// Package m6 adapts the m6 VM generation. M6BugWithCompressionFixed only differs from
// M6Initial inside the VM, the outcome shapes are shared.
package m6

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jqphu/zksync-era/types"
)

// Event is an event as reported by the m6 VM
type Event struct {
	TxNumberInBlock uint16
	Address         common.Address
	Topics          []common.Hash
	Data            []byte
}

// LogQuery is a storage access. Queries with Rollback set were undone by a revert and
// aren't part of the state diff.
type LogQuery struct {
	TxNumberInBlock uint16
	Address         common.Address
	Key             common.Hash
	ReadValue       common.Hash
	WrittenValue    common.Hash
	RWFlag          bool
	Rollback        bool
	IsService       bool
	IsInitial       bool
}

// ExecutionResult is the outcome of running the bootloader on the m6 VM. RevertOutput is
// the raw payload returned by a reverting call.
type ExecutionResult struct {
	Events               []Event
	LogQueries           []LogQuery
	L2ToL1Logs           []types.L2ToL1Log
	UsedContractHashes   []uint256.Int
	ReturnData           []byte
	GasUsed              uint32
	ComputationalGasUsed uint32
	ContractsUsed        int
	CyclesUsed           uint32
	Reverted             bool
	RevertOutput         []byte
}

// TxResult is the outcome of one transaction
type TxResult struct {
	Events                  []Event
	LogQueries              []LogQuery
	L2ToL1Logs              []types.L2ToL1Log
	OutOfGas                bool
	Reverted                bool
	RevertOutput            []byte
	ValidationError         string
	GasRefunded             uint32
	OperatorSuggestedRefund uint32
	CyclesUsed              uint32
	ComputationalGasUsed    uint32
}

// Halt is an internal fault of the m6 VM
type Halt struct {
	Reason string
}

// BlockOutcome is the raw outcome of a block on the m6 VM
type BlockOutcome struct {
	Full     ExecutionResult
	BlockTip *ExecutionResult
	Txs      []TxResult
	Halt     *Halt
}
