package mutate

import (
	"sync"
	"sync/atomic"
	"time"
)

// overtimeTicker reports how long a request has been outstanding, used to
// surface "this is taking a while" states. It is owned exclusively by the
// single in-flight mutation that created it and is torn down on any
// terminal transition so no timer leaks.
type overtimeTicker struct {
	interval   time.Duration
	onInterval func(elapsed time.Duration)

	elapsed atomic.Int64
	running atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newOvertimeTicker(interval time.Duration, onInterval func(elapsed time.Duration)) *overtimeTicker {
	if interval <= 0 {
		interval = DefaultOvertimeInterval
	}

	return &overtimeTicker{
		interval:   interval,
		onInterval: onInterval,
		stopCh:     make(chan struct{}),
	}
}

// start begins the repeating interval. The elapsed signal is defined (zero)
// from this point until stop.
func (o *overtimeTicker) start() {
	o.running.Store(true)
	go o.loop()
}

func (o *overtimeTicker) loop() {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			elapsed := time.Duration(o.elapsed.Add(int64(o.interval)))
			if o.onInterval != nil {
				o.onInterval(elapsed)
			}

		case <-o.stopCh:
			return
		}
	}
}

// stop tears the ticker down. The elapsed signal becomes undefined again.
// Safe to call more than once.
func (o *overtimeTicker) stop() {
	o.stopOnce.Do(func() {
		o.running.Store(false)
		close(o.stopCh)
	})
}

// elapsedTime returns the cumulative elapsed time in interval increments
// and whether the signal is currently defined.
func (o *overtimeTicker) elapsedTime() (time.Duration, bool) {
	if !o.running.Load() {
		return 0, false
	}

	return time.Duration(o.elapsed.Load()), true
}
