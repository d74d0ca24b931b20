// Package vm1_3_2 adapts the VM 1.3.2 generation
package vm1_3_2

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jqphu/zksync-era/types"
)

// EventMessage is an event as emitted by the 1.3.2 VM, topics are raw 32 byte words
type EventMessage struct {
	TxNumberInBlock uint16
	Address         common.Address
	Indexed         [][]byte
	Value           []byte
}

// StorageLogKind tells how a storage slot was accessed
type StorageLogKind uint8

const (
	StorageRead StorageLogKind = iota
	StorageInitialWrite
	StorageRepeatedWrite
)

// StorageLogQuery is a storage access of the 1.3.2 VM
type StorageLogQuery struct {
	Address      common.Address
	Key          common.Hash
	ReadValue    common.Hash
	WrittenValue common.Hash
	Kind         StorageLogKind
}

// RevertKind is the reason a 1.3.2 transaction or bootloader run stopped
type RevertKind uint8

const (
	EthCall RevertKind = iota
	TxReverted
	ValidationFailed
	PaymasterValidationFailed
	PrePaymasterPreparationFailed
	FromIsNotAnAccount
	InnerTxError
	NotEnoughGasProvided
	TooBigGasLimit
	MissingInvocationLimitReached
	FailedToChargeFee
	PayForTxFailed
	Unknown
	// BootloaderOutOfGas and UnexpectedVMBehavior are internal faults
	BootloaderOutOfGas
	UnexpectedVMBehavior
)

// Revert is a 1.3.2 revert, Output is the raw returned payload and Msg the reason given
// by the bootloader
type Revert struct {
	Kind   RevertKind
	Output []byte
	Msg    string
}

// ExecutionResult is the outcome of running the bootloader on the 1.3.2 VM
type ExecutionResult struct {
	Events               []EventMessage
	StorageLogQueries    []StorageLogQuery
	L2ToL1Logs           []types.L2ToL1Log
	UsedContractHashes   []uint256.Int
	ReturnData           []byte
	GasUsed              uint32
	ComputationalGasUsed uint32
	ContractsUsed        int
	CyclesUsed           uint32
	TotalLogQueries      int
	Revert               *Revert
}

// TxResult is the outcome of one transaction
type TxResult struct {
	Result                  ExecutionResult
	GasRefunded             uint32
	OperatorSuggestedRefund uint32
}

// BlockOutcome is the raw outcome of a block on the 1.3.2 VM
type BlockOutcome struct {
	Full     ExecutionResult
	BlockTip *ExecutionResult
	Txs      []TxResult
}
