package bridge

import (
	"time"

	"github.com/Arceliar/phony"
)

// Runner drives a Bridge from its own actor, calling Tick every interval.
// Anything else that touches the bridge while it runs must go through Do.
type Runner struct {
	phony.Inbox
	bridge   *Bridge
	interval time.Duration
	timer    *time.Timer
	seq      uint64 // bumped on every Start/Stop so stale timers do nothing
	running  bool
}

func NewRunner(b *Bridge, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Runner{bridge: b, interval: interval}
}

func (r *Runner) Start() {
	r.Act(nil, func() {
		if r.running {
			return
		}
		r.running = true
		r.seq++
		r._tick(r.seq)
	})
}

func (r *Runner) _tick(seq uint64) {
	if !r.running || seq != r.seq {
		return
	}
	r.bridge.Tick()
	r.timer = time.AfterFunc(r.interval, func() {
		r.Act(nil, func() { r._tick(seq) })
	})
}

// Stop blocks until no further Tick will run.
func (r *Runner) Stop() {
	phony.Block(r, func() {
		r.running = false
		r.seq++
		if r.timer != nil {
			r.timer.Stop()
			r.timer = nil
		}
	})
}

// Do runs f on the runner's actor and waits for it to finish.
func (r *Runner) Do(f func(b *Bridge)) {
	phony.Block(r, func() {
		f(r.bridge)
	})
}
