package multivm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrEmptyRevertReason is returned when parsing a revert payload with no bytes
var ErrEmptyRevertReason = errors.New("empty revert reason")

const selectorLength = 4

var (
	errorSelector = crypto.Keccak256([]byte("Error(string)"))[:selectorLength]
	panicSelector = crypto.Keccak256([]byte("Panic(uint256)"))[:selectorLength]
)

// VmRevertReasonKind classifies a raw revert payload
type VmRevertReasonKind uint8

const (
	// VmRevertGeneral is a Solidity Error(string) or Panic(uint256)
	VmRevertGeneral VmRevertReasonKind = iota
	// VmRevertInnerTxError means the bootloader rejected the transaction itself
	VmRevertInnerTxError
	// VmRevertVmError is an error raised by the VM, not by the contract
	VmRevertVmError
	// VmRevertUnknown is a payload with an unrecognized selector
	VmRevertUnknown
)

// VmRevertReason is a decoded revert payload
type VmRevertReason struct {
	Kind             VmRevertReasonKind
	Msg              string
	FunctionSelector []byte
	Data             []byte
}

func (r VmRevertReason) String() string {
	switch r.Kind {
	case VmRevertGeneral:
		return r.Msg
	case VmRevertInnerTxError:
		return "Bootloader-based tx failed"
	case VmRevertVmError:
		return "VM Error"
	default:
		return fmt.Sprintf("Error function_selector = %s, data = %s",
			hexutil.Encode(r.FunctionSelector), hexutil.Encode(r.Data))
	}
}

// ParseVmRevertReason decodes the revert payload returned by a contract
func ParseVmRevertReason(data []byte) (VmRevertReason, error) {
	if len(data) == 0 {
		return VmRevertReason{}, ErrEmptyRevertReason
	}
	if len(data) < selectorLength {
		return VmRevertReason{Kind: VmRevertUnknown, Data: bytes.Clone(data)}, nil
	}
	selector := data[:selectorLength]
	if bytes.Equal(selector, errorSelector) || bytes.Equal(selector, panicSelector) {
		msg, err := abi.UnpackRevert(data)
		if err == nil {
			return VmRevertReason{Kind: VmRevertGeneral, Msg: msg, Data: bytes.Clone(data)}, nil
		}
	}
	return VmRevertReason{
		Kind:             VmRevertUnknown,
		FunctionSelector: bytes.Clone(selector),
		Data:             bytes.Clone(data[selectorLength:]),
	}, nil
}

// VmRevertReasonParsingResult keeps the original payload next to the decoded reason
type VmRevertReasonParsingResult struct {
	Revert       VmRevertReason
	OriginalData []byte
}

// NewVmRevertReasonParsingResult parses data, an empty payload is an error
func NewVmRevertReasonParsingResult(data []byte) (*VmRevertReasonParsingResult, error) {
	revert, err := ParseVmRevertReason(data)
	if err != nil {
		return nil, err
	}
	return &VmRevertReasonParsingResult{Revert: revert, OriginalData: bytes.Clone(data)}, nil
}

// TxRevertReasonKind is the version independent classification of a failed transaction
type TxRevertReasonKind uint8

const (
	RevertOutOfGas TxRevertReasonKind = iota
	RevertExplicit
	RevertValidationFailed
	RevertUnknownVersionSpecific
)

// TxRevertReason is why a transaction failed. Data and Message are set for explicit
// reverts, Message for validation failures and Raw for version specific reasons.
type TxRevertReason struct {
	Kind    TxRevertReasonKind
	Data    []byte
	Message string
	Raw     []byte
}

// OutOfGasRevert is the reason of a transaction that ran out of gas
func OutOfGasRevert() *TxRevertReason {
	return &TxRevertReason{Kind: RevertOutOfGas}
}

// ExplicitRevert is the reason of a transaction reverted by the contract
func ExplicitRevert(data []byte) *TxRevertReason {
	r := &TxRevertReason{Kind: RevertExplicit, Data: bytes.Clone(data)}
	if parsed, err := ParseVmRevertReason(data); err == nil {
		r.Message = parsed.String()
	}
	return r
}

// ValidationFailedRevert is the reason of a transaction rejected during validation
func ValidationFailedRevert(msg string) *TxRevertReason {
	return &TxRevertReason{Kind: RevertValidationFailed, Message: msg}
}

// UnknownRevert keeps a reason only the producing VM version understands
func UnknownRevert(raw []byte) *TxRevertReason {
	return &TxRevertReason{Kind: RevertUnknownVersionSpecific, Raw: bytes.Clone(raw)}
}

// TxRevertReasonFromParsing converts a parsed revert payload
func TxRevertReasonFromParsing(r VmRevertReasonParsingResult) *TxRevertReason {
	switch r.Revert.Kind {
	case VmRevertGeneral:
		return &TxRevertReason{Kind: RevertExplicit, Data: bytes.Clone(r.OriginalData), Message: r.Revert.Msg}
	case VmRevertInnerTxError:
		return ValidationFailedRevert(r.Revert.String())
	default:
		return UnknownRevert(r.OriginalData)
	}
}

func (r TxRevertReason) String() string {
	switch r.Kind {
	case RevertOutOfGas:
		return "out of gas"
	case RevertExplicit:
		if r.Message != "" {
			return r.Message
		}
		return "reverted: " + hexutil.Encode(r.Data)
	case RevertValidationFailed:
		return "validation failed: " + r.Message
	default:
		return "unknown revert reason: " + hexutil.Encode(r.Raw)
	}
}
