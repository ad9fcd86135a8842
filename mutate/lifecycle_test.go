package mutate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_State_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "idle"},
		{StatePending, "pending"},
		{StateCountdown, "countdown"},
		{StateCommitting, "committing"},
		{StateSucceeded, "succeeded"},
		{StateFailed, "failed"},
		{StateCancelled, "cancelled"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}

func Test_State_Terminal(t *testing.T) {
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateCountdown.Terminal())
	assert.False(t, StateCommitting.Terminal())
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func Test_Mutation_CancelOutsideCountdownHasNoEffect(t *testing.T) {
	m := newMutation(time.Second, nil)

	assert.False(t, m.Cancel(), "cancel before the countdown must be a no-op")

	m.begin()
	assert.False(t, m.Cancel(), "cancel while pending must be a no-op")

	m.settle(StateSucceeded, nil, nil)
	assert.False(t, m.Cancel(), "cancel after settling must be a no-op")
}

func Test_Mutation_CountdownElapsesWithoutCancel(t *testing.T) {
	m := newMutation(time.Second, nil)
	m.begin()

	outcome := m.awaitCountdown(context.Background(), 5*time.Millisecond)

	assert.Equal(t, countdownElapsed, outcome)
}

func Test_Mutation_CountdownCancelled(t *testing.T) {
	m := newMutation(time.Second, nil)
	m.begin()

	go func() {
		for !m.Cancel() {
			time.Sleep(time.Millisecond)
		}
	}()

	outcome := m.awaitCountdown(context.Background(), time.Second)

	assert.Equal(t, countdownCancelled, outcome)
}

func Test_Mutation_CountdownEndsWithContext(t *testing.T) {
	m := newMutation(time.Second, nil)
	m.begin()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := m.awaitCountdown(ctx, time.Second)

	assert.Equal(t, countdownContextEnded, outcome)
}

func Test_Mutation_WaitReturnsResultAfterSettle(t *testing.T) {
	m := newMutation(time.Second, nil)
	m.begin()

	expected := []Record{{"id": "1"}}
	go m.settle(StateSucceeded, expected, nil)

	records, err := m.Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, expected, records)
	assert.Equal(t, StateSucceeded, m.State())

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel must be closed after settling")
	}
}

func Test_Mutation_WaitHonorsContext(t *testing.T) {
	m := newMutation(time.Second, nil)
	m.begin()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Wait(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Mutation_OvertimeUndefinedAfterSettle(t *testing.T) {
	m := newMutation(5*time.Millisecond, nil)

	_, defined := m.Overtime()
	assert.False(t, defined, "overtime must be undefined before the call starts")

	m.begin()

	assert.Eventually(t, func() bool {
		elapsed, ok := m.Overtime()
		return ok && elapsed > 0
	}, time.Second, time.Millisecond)

	m.settle(StateFailed, nil, assert.AnError)

	_, defined = m.Overtime()
	assert.False(t, defined, "overtime must reset to undefined on a terminal transition")
}
