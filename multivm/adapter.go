package multivm

import (
	"context"
	"fmt"
)

// Engine is a VM implementation of one version. R is the raw outcome shape of that
// version.
type Engine[R any] interface {
	Execute(ctx context.Context, derived DerivedBlockContext, job BootloaderJobType, txs []Transaction) (R, error)
}

// Normalizer turns the raw outcome of a VM version into the shared result types
type Normalizer[R any] interface {
	// NormalizeRevert returns the top level revert or halt of the execution, both nil when
	// it went through
	NormalizeRevert(raw R) (*TxRevertReason, *HaltError)
	NormalizeResult(raw R) (Result, error)
}

// OutcomeKind is how an adapted execution ended
type OutcomeKind uint8

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeReverted
	OutcomeHalted
)

// Outcome is the normalized output of an adapter. Result is empty for halts.
type Outcome struct {
	Kind   OutcomeKind
	Result Result
	Revert *TxRevertReason
	Halt   *HaltError
}

// Adapter runs blocks on one VM version and returns normalized outcomes
type Adapter interface {
	Version() VmVersion
	Execute(ctx context.Context, derived DerivedBlockContext, job BootloaderJobType, txs []Transaction) (Outcome, error)
}

type adapter[R any] struct {
	version    VmVersion
	engine     Engine[R]
	normalizer Normalizer[R]
}

// NewAdapter binds an engine to the normalizer of its version
func NewAdapter[R any](version VmVersion, engine Engine[R], normalizer Normalizer[R]) Adapter {
	return &adapter[R]{
		version:    version,
		engine:     engine,
		normalizer: normalizer,
	}
}

func (a *adapter[R]) Version() VmVersion {
	return a.version
}

func (a *adapter[R]) Execute(
	ctx context.Context, derived DerivedBlockContext, job BootloaderJobType, txs []Transaction,
) (Outcome, error) {
	raw, err := a.engine.Execute(ctx, derived, job, txs)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s engine: %w", a.version, err)
	}
	revert, halt := a.normalizer.NormalizeRevert(raw)
	if halt != nil {
		return Outcome{Kind: OutcomeHalted, Halt: halt}, nil
	}
	result, err := a.normalizer.NormalizeResult(raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("normalizing %s result: %w", a.version, err)
	}
	if revert != nil {
		return Outcome{Kind: OutcomeReverted, Result: result, Revert: revert}, nil
	}
	return Outcome{Kind: OutcomeCompleted, Result: result}, nil
}
