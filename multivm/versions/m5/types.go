// Package m5 adapts the m5 VM generation, with and without gas refunds
package m5

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jqphu/zksync-era/types"
)

// Event is an event as reported by the m5 VM
type Event struct {
	TxNumber uint32
	Address  common.Address
	Topics   []common.Hash
	Data     []byte
}

// StorageLogQuery is a storage access of the m5 VM
type StorageLogQuery struct {
	Address      common.Address
	Key          common.Hash
	ReadValue    common.Hash
	WrittenValue common.Hash
	RW           bool
	IsInitial    bool
}

// RevertKind is the kind of an m5 revert
type RevertKind uint8

const (
	RevertOutOfGas RevertKind = iota
	RevertCall
	RevertValidation
	RevertBootloaderFailure
)

// Revert is an m5 revert, Data is the returned payload of RevertCall and Msg explains
// RevertValidation and RevertBootloaderFailure
type Revert struct {
	Kind RevertKind
	Data []byte
	Msg  string
}

// ExecutionResult is the outcome of running the bootloader on the m5 VM
type ExecutionResult struct {
	Events             []Event
	StorageLogs        []StorageLogQuery
	L2ToL1Logs         []types.L2ToL1Log
	UsedContractHashes []uint256.Int
	ReturnData         []byte
	GasUsed            uint32
	ContractsUsed      int
	CyclesUsed         uint32
	Revert             *Revert
}

// TxOutcome is the outcome of one transaction. GasRefunded is only reported by
// M5WithRefunds.
type TxOutcome struct {
	Revert      *Revert
	Events      []Event
	StorageLogs []StorageLogQuery
	L2ToL1Logs  []types.L2ToL1Log
	GasRefunded uint32
	CyclesUsed  uint32
}

// BlockOutcome is the raw outcome of a block on the m5 VM
type BlockOutcome struct {
	Full     ExecutionResult
	BlockTip *ExecutionResult
	Txs      []TxOutcome
}
