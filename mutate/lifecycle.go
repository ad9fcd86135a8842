package mutate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a single mutation call.
type State int32

const (
	// StateIdle is the state before the call has been submitted.
	StateIdle State = iota

	// StatePending is the state right after invocation, before mode dispatch.
	StatePending

	// StateCountdown is the cancellable undo window of an undoable mutation.
	StateCountdown

	// StateCommitting is the state while the network call is in flight.
	StateCommitting

	// StateSucceeded is the terminal state after a successful response.
	StateSucceeded

	// StateFailed is the terminal state after a server or transport failure.
	StateFailed

	// StateCancelled is the terminal state of an undoable mutation cancelled
	// during its countdown. The network call was never issued.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateCountdown:
		return "countdown"
	case StateCommitting:
		return "committing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state machine has settled.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

type countdownOutcome int

const (
	countdownElapsed countdownOutcome = iota
	countdownCancelled
	countdownContextEnded
)

// Mutation is the handle returned for one in-flight mutation call.
// It exposes the lifecycle state, the eventual result and error, the
// cooperative cancellation entry point, and the overtime elapsed-time
// signal.
type Mutation struct {
	state    atomic.Int32
	overtime *overtimeTicker

	cancelOnce sync.Once
	cancelCh   chan struct{}

	done chan struct{}

	mu      sync.Mutex
	records []Record
	err     error
}

func newMutation(overtimeInterval time.Duration, onInterval func(elapsed time.Duration)) *Mutation {
	return &Mutation{
		overtime: newOvertimeTicker(overtimeInterval, onInterval),
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (m *Mutation) State() State {
	return State(m.state.Load())
}

// Cancel aborts an undoable mutation during its countdown window and
// reports whether the cancellation took effect. Cancellation is
// cooperative: outside the Countdown state it is a no-op, and once
// committing has begun it has no effect on the in-flight request.
func (m *Mutation) Cancel() bool {
	if m.State() != StateCountdown {
		return false
	}

	m.cancelOnce.Do(func() {
		close(m.cancelCh)
	})

	return true
}

// Done returns a channel that is closed once the mutation settles.
func (m *Mutation) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the mutation settles or ctx ends, returning the
// resulting records and error.
func (m *Mutation) Wait(ctx context.Context) ([]Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return m.Result()
	}
}

// Result returns the records and error of a settled mutation. Before the
// terminal transition both are zero.
func (m *Mutation) Result() ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.records, m.err
}

// Overtime returns the cumulative elapsed time of the outstanding request.
// The signal is undefined (second return false) before the call starts and
// once the mutation settles.
func (m *Mutation) Overtime() (time.Duration, bool) {
	return m.overtime.elapsedTime()
}

// begin marks the mutation Pending and starts the overtime ticker.
func (m *Mutation) begin() {
	m.setState(StatePending)
	m.overtime.start()
}

// settle records the outcome, tears the overtime ticker down, and closes
// the done channel. Must be called exactly once.
func (m *Mutation) settle(state State, records []Record, err error) {
	m.mu.Lock()
	m.records = records
	m.err = err
	m.mu.Unlock()

	m.overtime.stop()
	m.setState(state)
	close(m.done)
}

// awaitCountdown blocks in the Countdown state until the undo window
// elapses, the mutation is cancelled, or ctx ends.
func (m *Mutation) awaitCountdown(ctx context.Context, timeout time.Duration) countdownOutcome {
	m.setState(StateCountdown)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return countdownElapsed
	case <-m.cancelCh:
		return countdownCancelled
	case <-ctx.Done():
		return countdownContextEnded
	}
}

func (m *Mutation) setState(s State) {
	m.state.Store(int32(s))
}
