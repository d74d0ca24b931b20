package multivm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a block execution is moved along an edge that
	// doesn't exist
	ErrInvalidTransition = errors.New("invalid execution state transition")
	// ErrHalted is returned when the VM faulted internally. The block must not be sealed.
	ErrHalted = errors.New("vm halted")
)

// HaltError carries the reason of a halt. It's always returned wrapped with ErrHalted.
type HaltError struct {
	Reason string
}

func (e *HaltError) Error() string {
	return "halt: " + e.Reason
}

// ExecutionState is the state of one block execution
type ExecutionState uint8

const (
	NotStarted ExecutionState = iota
	Executing
	Completed
	Reverted
	Halted
)

func (s ExecutionState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Executing:
		return "executing"
	case Completed:
		return "completed"
	case Reverted:
		return "reverted"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("ExecutionState(%d)", uint8(s))
	}
}

// IsFinal reports whether no transition leaves s
func (s ExecutionState) IsFinal() bool {
	return s == Completed || s == Reverted || s == Halted
}

var transitions = map[ExecutionState][]ExecutionState{
	NotStarted: {Executing},
	Executing:  {Completed, Reverted, Halted},
}

// BlockExecutionTracker tracks one block through the VM. It is owned by a single caller and
// isn't safe for concurrent use.
type BlockExecutionTracker struct {
	version   VmVersion
	job       BootloaderJobType
	constants VersionConstants
	state     ExecutionState
	mode      BlockContextMode
	derived   *DerivedBlockContext
}

// NewBlockExecution returns an execution in the NotStarted state
func NewBlockExecution(version VmVersion, job BootloaderJobType, constants VersionConstants) *BlockExecutionTracker {
	return &BlockExecutionTracker{
		version:   version,
		job:       job,
		constants: constants,
		state:     NotStarted,
	}
}

func (e *BlockExecutionTracker) Version() VmVersion {
	return e.version
}

func (e *BlockExecutionTracker) Job() BootloaderJobType {
	return e.job
}

func (e *BlockExecutionTracker) State() ExecutionState {
	return e.state
}

func (e *BlockExecutionTracker) transition(to ExecutionState) error {
	for _, allowed := range transitions[e.state] {
		if allowed == to {
			e.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.state, to)
}

// Start supplies the block context and moves the execution to Executing. The derived
// context is computed here and reused until the execution ends.
func (e *BlockExecutionTracker) Start(mode BlockContextMode) (DerivedBlockContext, error) {
	if e.state != NotStarted {
		return DerivedBlockContext{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.state, Executing)
	}
	derived, err := DeriveBlockContext(mode.Context, e.constants)
	if err != nil {
		return DerivedBlockContext{}, err
	}
	if err := e.transition(Executing); err != nil {
		return DerivedBlockContext{}, err
	}
	e.mode = mode
	e.derived = &derived
	return derived, nil
}

// DerivedContext returns the context computed by Start
func (e *BlockExecutionTracker) DerivedContext() (DerivedBlockContext, error) {
	if e.derived == nil {
		return DerivedBlockContext{}, fmt.Errorf("%w: block execution not started", ErrInvalidTransition)
	}
	return *e.derived, nil
}

// Mode returns the mode the execution was started with
func (e *BlockExecutionTracker) Mode() BlockContextMode {
	return e.mode
}

func (e *BlockExecutionTracker) Complete() error {
	return e.transition(Completed)
}

func (e *BlockExecutionTracker) Revert() error {
	return e.transition(Reverted)
}

// Halt moves the execution to Halted and returns the error to surface to the producer
func (e *BlockExecutionTracker) Halt(reason string) error {
	if err := e.transition(Halted); err != nil {
		return err
	}
	return fmt.Errorf("%w: block %d on %s: %w", ErrHalted, e.blockNumber(), e.version, &HaltError{Reason: reason})
}

func (e *BlockExecutionTracker) blockNumber() uint32 {
	if e.derived == nil {
		return 0
	}
	return e.derived.Context.BlockNumber
}
