package bridge

import (
	"time"

	"github.com/benbjohnson/clock"
)

// timer is a polled interval timer. Nothing fires on its own; the dispatcher
// checks it once per cycle.
type timer struct {
	clock    clock.Clock
	interval time.Duration
	start    time.Time
	armed    bool
}

func (t *timer) set(clk clock.Clock, interval time.Duration) {
	t.clock = clk
	t.interval = interval
	t.start = clk.Now()
	t.armed = true
}

func (t *timer) expired() bool {
	return t.armed && t.clock.Since(t.start) >= t.interval
}

// reset moves the start forward by exactly one interval so late polls do not accumulate drift.
func (t *timer) reset() {
	t.start = t.start.Add(t.interval)
}
