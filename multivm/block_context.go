package multivm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInvalidContext is returned when fee parameters can't produce a block context
var ErrInvalidContext = errors.New("invalid block context")

// BlockContext is the raw execution context of a block
type BlockContext struct {
	BlockNumber     uint32
	BlockTimestamp  uint64
	OperatorAddress common.Address
	L1GasPrice      uint64
	FairL2GasPrice  uint64
	ProtocolVersion ProtocolVersionID
}

// BlockContextModeKind tells whether a block is new or an already started one is re-executed
type BlockContextModeKind uint8

const (
	// NewBlock starts a block on top of PrevBlockHash
	NewBlock BlockContextModeKind = iota
	// OverrideCurrent replaces the context of the block being executed
	OverrideCurrent
)

// BlockContextMode carries the context a block execution is started with
type BlockContextMode struct {
	Kind          BlockContextModeKind
	Context       BlockContext
	PrevBlockHash common.Hash
}

// NewBlockMode starts a new block after prevBlockHash
func NewBlockMode(ctx BlockContext, prevBlockHash common.Hash) BlockContextMode {
	return BlockContextMode{Kind: NewBlock, Context: ctx, PrevBlockHash: prevBlockHash}
}

// OverrideCurrentMode re-executes the current block with ctx
func OverrideCurrentMode(ctx BlockContext) BlockContextMode {
	return BlockContextMode{Kind: OverrideCurrent, Context: ctx}
}

// DerivedBlockContext is the block context with the fee values computed from it
type DerivedBlockContext struct {
	Context       BlockContext
	BaseFee       uint64
	GasPerPubdata uint64
}

// DeriveBlockContext computes the base fee and the gas charged per pubdata byte:
//
//	ethPerPubdata = L1GasPerPubdataByte * L1GasPrice
//	baseFee       = max(FairL2GasPrice, ceil(ethPerPubdata / MaxGasPerPubdataByte))
//	gasPerPubdata = ceil(ethPerPubdata / baseFee)
func DeriveBlockContext(ctx BlockContext, c VersionConstants) (DerivedBlockContext, error) {
	if c.MaxGasPerPubdataByte == 0 {
		return DerivedBlockContext{}, fmt.Errorf("%w: max gas per pubdata byte is 0", ErrInvalidContext)
	}
	ethPerPubdata := new(uint256.Int).Mul(uint256.NewInt(c.L1GasPerPubdataByte), uint256.NewInt(ctx.L1GasPrice))

	baseFee := ceilDiv(ethPerPubdata, uint256.NewInt(c.MaxGasPerPubdataByte))
	if fair := uint256.NewInt(ctx.FairL2GasPrice); fair.Gt(baseFee) {
		baseFee = fair
	}
	gasPerPubdata := uint256.NewInt(0)
	if !baseFee.IsZero() {
		gasPerPubdata = ceilDiv(ethPerPubdata, baseFee)
	}

	if !baseFee.IsUint64() || !gasPerPubdata.IsUint64() {
		return DerivedBlockContext{}, fmt.Errorf("%w: fees overflow for l1 gas price %d", ErrInvalidContext, ctx.L1GasPrice)
	}
	return DerivedBlockContext{
		Context:       ctx,
		BaseFee:       baseFee.Uint64(),
		GasPerPubdata: gasPerPubdata.Uint64(),
	}, nil
}

func ceilDiv(a, b *uint256.Int) *uint256.Int {
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(a, b, r)
	if !r.IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}
