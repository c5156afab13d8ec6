package simulator

import (
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/roomradar/internal/core/viewport"
)

// Clock is a virtual clock implementing viewport.Scheduler. Timers only
// fire from AdvanceTo, on the caller's goroutine, in deadline order.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*timer
}

type timer struct {
	clock *Clock
	at    time.Duration
	seq   uint64
	f     func()
	done  bool
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Now is the time elapsed since the start of the simulation.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, f func()) viewport.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &timer{clock: c, at: c.now + d, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// AdvanceTo moves the clock forward to at, firing every timer due on the
// way. Moving backwards is a no-op.
func (c *Clock) AdvanceTo(at time.Duration) {
	for {
		c.mu.Lock()
		next := c.nextDue(at)
		if next == nil {
			if at > c.now {
				c.now = at
			}
			c.mu.Unlock()
			return
		}
		next.done = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// nextDue must be called with mu held.
func (c *Clock) nextDue(limit time.Duration) *timer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.Slice(c.timers, func(i, j int) bool {
		if c.timers[i].at != c.timers[j].at {
			return c.timers[i].at < c.timers[j].at
		}
		return c.timers[i].seq < c.timers[j].seq
	})
	if len(c.timers) == 0 || c.timers[0].at > limit {
		return nil
	}
	return c.timers[0]
}
