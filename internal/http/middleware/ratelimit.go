package middleware

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// sweepThreshold bounds how many expired windows linger before a sweep.
const sweepThreshold = 10000

type clientInfo struct {
	start time.Time
	count int64
}

// windowCounter is the in-process fixed-window counter used when Redis is
// not configured. Counts are per process, so limits multiply with replicas.
type windowCounter struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	windows map[string]*clientInfo
}

func newWindowCounter(clock clockwork.Clock) *windowCounter {
	return &windowCounter{
		clock:   clock,
		windows: make(map[string]*clientInfo),
	}
}

// incr counts one hit for key and returns the count within the current window.
func (w *windowCounter) incr(key string, window time.Duration) int64 {
	now := w.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.windows) > sweepThreshold {
		for k, ci := range w.windows {
			if now.Sub(ci.start) > window {
				delete(w.windows, k)
			}
		}
	}

	ci, ok := w.windows[key]
	if !ok || now.Sub(ci.start) >= window {
		w.windows[key] = &clientInfo{start: now, count: 1}
		return 1
	}
	ci.count++
	return ci.count
}
