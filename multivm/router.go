package multivm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jqphu/zksync-era/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/jqphu/zksync-era/multivm"

// ExecutionOutput is the result of Router.Execute. Discardable outputs come from fee
// estimation and must not reach persisted state.
type ExecutionOutput struct {
	Version     VmVersion
	Job         BootloaderJobType
	State       ExecutionState
	Derived     DerivedBlockContext
	Result      Result
	Revert      *TxRevertReason
	Discardable bool
}

// Router dispatches block executions to the adapter of the VM version the block's
// protocol version maps to. There is no fallback to another version.
type Router struct {
	mu       sync.RWMutex
	adapters map[VmVersion]Adapter

	logger     *log.Logger
	executions metric.Int64Counter
}

// NewRouter returns a router with no adapters
func NewRouter(logger *log.Logger) *Router {
	meter := otel.Meter(meterName)
	executions, err := meter.Int64Counter("multivm_block_executions")
	if err != nil {
		logger.Warnf("failed to create multivm_block_executions counter: %s", err)
	}
	return &Router{
		adapters:   make(map[VmVersion]Adapter),
		logger:     logger,
		executions: executions,
	}
}

// Register sets the adapter of its version, replacing a previous one
func (r *Router) Register(a Adapter) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[a.Version()] = a
	r.logger.Infof("registered vm adapter for %s", a.Version())
	return r
}

// Get returns ErrUnsupportedVersion when no adapter is registered for v
func (r *Router) Get(v VmVersion) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[v]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %s", ErrUnsupportedVersion, v)
	}
	return a, nil
}

// Versions returns the registered versions, oldest first
func (r *Router) Versions() []VmVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]VmVersion, 0, len(r.adapters))
	for v := range r.adapters {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Execute runs txs in the block described by mode. A halt is returned as an error wrapping
// ErrHalted and a *HaltError; a top level revert is a normal output in the Reverted state.
func (r *Router) Execute(
	ctx context.Context, job BootloaderJobType, mode BlockContextMode, txs []Transaction,
) (*ExecutionOutput, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	version, err := VmVersionForProtocol(mode.Context.ProtocolVersion)
	if err != nil {
		r.record(ctx, fmt.Sprintf("protocol_%d", mode.Context.ProtocolVersion), "unsupported")
		return nil, err
	}
	adapter, err := r.Get(version)
	if err != nil {
		r.record(ctx, version.String(), "unsupported")
		return nil, err
	}
	constants, err := ConstantsFor(version)
	if err != nil {
		return nil, err
	}

	execution := NewBlockExecution(version, job, constants)
	derived, err := execution.Start(mode)
	if err != nil {
		return nil, err
	}

	outcome, err := adapter.Execute(ctx, derived, job, txs)
	if err != nil {
		r.record(ctx, version.String(), "error")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// cancelled executions leave nothing behind
		return nil, err
	}

	output := &ExecutionOutput{
		Version:     version,
		Job:         job,
		Derived:     derived,
		Discardable: job.Discardable(),
	}
	switch outcome.Kind {
	case OutcomeHalted:
		r.record(ctx, version.String(), Halted.String())
		reason := "unknown"
		if outcome.Halt != nil {
			reason = outcome.Halt.Reason
		}
		haltErr := execution.Halt(reason)
		r.logger.Errorf("block %d halted on %s: %s", derived.Context.BlockNumber, version, reason)
		return nil, haltErr
	case OutcomeReverted:
		if err := execution.Revert(); err != nil {
			return nil, err
		}
		output.Revert = outcome.Revert
		r.logger.Debugf("%s of block %d reverted on %s: %s", job, derived.Context.BlockNumber, version, outcome.Revert)
	default:
		if err := execution.Complete(); err != nil {
			return nil, err
		}
	}
	output.State = execution.State()
	output.Result = filterForJob(job, outcome.Result)
	r.record(ctx, version.String(), output.State.String())
	return output, nil
}

func (r *Router) record(ctx context.Context, version, outcome string) {
	if r.executions == nil {
		return
	}
	r.executions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("version", version),
		attribute.String("outcome", outcome),
	))
}
