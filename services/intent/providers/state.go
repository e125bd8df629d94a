package providers

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ewmaAlpha weights the newest latency sample.
const ewmaAlpha = 0.3

// latencyTracker keeps an exponentially weighted moving average of call
// latency, updated lock-free after each successful Generate.
type latencyTracker struct {
	nanos atomic.Int64
}

func (t *latencyTracker) observe(d time.Duration) {
	for {
		old := t.nanos.Load()
		var next int64
		if old == 0 {
			next = int64(d)
		} else {
			next = int64(ewmaAlpha*float64(d) + (1-ewmaAlpha)*float64(old))
		}
		if t.nanos.CompareAndSwap(old, next) {
			return
		}
	}
}

func (t *latencyTracker) value() time.Duration {
	return time.Duration(t.nanos.Load())
}

// providerState carries the shared per-provider runtime state: the
// latency average and the permanent-failure latch. Embed it in each
// backend implementation.
type providerState struct {
	latency latencyTracker

	disabled    atomic.Bool
	disableOnce sync.Once
}

// Latency implements the Provider interface.
func (s *providerState) Latency() time.Duration {
	return s.latency.value()
}

// observeLatency records a successful call duration.
func (s *providerState) observeLatency(d time.Duration) {
	s.latency.observe(d)
}

// disableForever latches the provider out of selection for the rest of
// the process lifetime. Logged once; repeat calls are silent.
func (s *providerState) disableForever(name string, err error) {
	s.disableOnce.Do(func() {
		slog.Error("provider disabled for process lifetime",
			slog.String("provider", name),
			slog.String("error", err.Error()),
		)
	})
	s.disabled.Store(true)
}

// isDisabled reports whether the permanent-failure latch is set.
func (s *providerState) isDisabled() bool {
	return s.disabled.Load()
}
