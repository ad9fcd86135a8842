package mutate

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_OvertimeTicker_UndefinedBeforeStart(t *testing.T) {
	ticker := newOvertimeTicker(10*time.Millisecond, nil)

	elapsed, defined := ticker.elapsedTime()

	assert.False(t, defined)
	assert.Zero(t, elapsed)
}

func Test_OvertimeTicker_IncreasesInIntervalIncrements(t *testing.T) {
	interval := 5 * time.Millisecond
	ticker := newOvertimeTicker(interval, nil)
	ticker.start()
	defer ticker.stop()

	assert.Eventually(t, func() bool {
		elapsed, defined := ticker.elapsedTime()
		return defined && elapsed >= 2*interval
	}, time.Second, time.Millisecond)

	elapsed, _ := ticker.elapsedTime()
	assert.Zero(t, elapsed%interval, "elapsed time must grow in interval increments")
}

func Test_OvertimeTicker_UndefinedAfterStop(t *testing.T) {
	ticker := newOvertimeTicker(5*time.Millisecond, nil)
	ticker.start()

	assert.Eventually(t, func() bool {
		elapsed, _ := ticker.elapsedTime()
		return elapsed > 0
	}, time.Second, time.Millisecond)

	ticker.stop()

	_, defined := ticker.elapsedTime()
	assert.False(t, defined)

	// stop is idempotent
	ticker.stop()
}

func Test_OvertimeTicker_InvokesIntervalCallback(t *testing.T) {
	var callbacks atomic.Int32
	var lastElapsed atomic.Int64

	ticker := newOvertimeTicker(5*time.Millisecond, func(elapsed time.Duration) {
		callbacks.Add(1)
		lastElapsed.Store(int64(elapsed))
	})
	ticker.start()
	defer ticker.stop()

	assert.Eventually(t, func() bool {
		return callbacks.Load() >= 2
	}, time.Second, time.Millisecond)

	assert.GreaterOrEqual(t, time.Duration(lastElapsed.Load()), 10*time.Millisecond)
}

func Test_OvertimeTicker_GuardsAgainstNonPositiveInterval(t *testing.T) {
	ticker := newOvertimeTicker(0, nil)

	assert.Equal(t, DefaultOvertimeInterval, ticker.interval)
}
