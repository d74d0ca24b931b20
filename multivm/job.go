package multivm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// BootloaderJobType selects what the bootloader runs and which result fields are filled
type BootloaderJobType uint8

const (
	// BlockExecution runs every transaction of a block and closes it
	BlockExecution BootloaderJobType = iota
	// OneTxExecution runs a single transaction without closing the block
	OneTxExecution
	// EstimateFee runs a transaction to measure its gas, the result is never persisted
	EstimateFee
)

// ErrUnknownJobType is returned for job types outside the declared set
var ErrUnknownJobType = errors.New("unknown bootloader job type")

// Validate fails for job types outside the declared set
func (j BootloaderJobType) Validate() error {
	switch j {
	case BlockExecution, OneTxExecution, EstimateFee:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJobType, j)
	}
}

func (j BootloaderJobType) String() string {
	switch j {
	case BlockExecution:
		return "block_execution"
	case OneTxExecution:
		return "one_tx_execution"
	case EstimateFee:
		return "estimate_fee"
	default:
		return fmt.Sprintf("BootloaderJobType(%d)", uint8(j))
	}
}

// Discardable reports whether the job output must stay out of persisted state
func (j BootloaderJobType) Discardable() bool {
	return j == EstimateFee
}

// TxExecutionMode is the bootloader mode a job runs its transactions in
type TxExecutionMode uint8

const (
	VerifyExecute TxExecutionMode = iota
	EstimateFeeMode
	EthCall
)

func (m TxExecutionMode) String() string {
	switch m {
	case VerifyExecute:
		return "verify_execute"
	case EstimateFeeMode:
		return "estimate_fee"
	case EthCall:
		return "eth_call"
	default:
		return fmt.Sprintf("TxExecutionMode(%d)", uint8(m))
	}
}

// ExecutionMode returns the mode the transactions of a job run in
func (j BootloaderJobType) ExecutionMode() TxExecutionMode {
	switch j {
	case EstimateFee:
		return EstimateFeeMode
	case OneTxExecution:
		return EthCall
	default:
		return VerifyExecute
	}
}

// Transaction is a transaction handed to the VM. Engines only need its encoded form.
type Transaction struct {
	Hash      common.Hash
	Initiator common.Address
	IsL1      bool
	GasLimit  uint64
	Encoded   []byte
}
