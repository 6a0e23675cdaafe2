// Package debounce delays an action until its input has been quiet for a while.
package debounce

import (
	"sync"
	"time"
)

// Gate runs at most one pending callback. Scheduling a new callback cancels
// the pending one and restarts the quiet interval, so only the last write wins.
type Gate struct {
	mu    sync.Mutex
	clock Clock
	timer Timer
	gen   uint64
}

// New creates a Gate driven by clock. A nil clock means RealClock.
func New(clock Clock) *Gate {
	if clock == nil {
		clock = RealClock
	}
	return &Gate{clock: clock}
}

// Schedule arranges for fn to run once delay has passed without another call
// to Schedule or Cancel.
func (g *Gate) Schedule(fn func(), delay time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.gen++
	gen := g.gen
	g.timer = g.clock.AfterFunc(delay, func() {
		g.mu.Lock()
		if gen != g.gen {
			// Superseded between firing and acquiring the lock.
			g.mu.Unlock()
			return
		}
		g.timer = nil
		g.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback, if any.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
	g.gen++
}

// Pending reports whether a callback is waiting for its interval to elapse.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer != nil
}

func (g *Gate) stopLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
