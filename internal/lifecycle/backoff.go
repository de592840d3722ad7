package lifecycle

import (
	"math/rand"
	"time"
)

// backoffDelay computes the wait before retrying a transient upload failure:
// exponential growth from the configured floor, capped at the configured
// ceiling, with up to 25% random jitter to avoid thundering retries.
func (o *Orchestrator) backoffDelay(attempt int) time.Duration {
	initial := time.Duration(o.cfg.Upload.BackoffInitialMS) * time.Millisecond
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	ceiling := time.Duration(o.cfg.Upload.BackoffMaxMS) * time.Millisecond
	if ceiling < initial {
		ceiling = 30 * time.Second
	}

	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= ceiling {
			delay = ceiling
			break
		}
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}
