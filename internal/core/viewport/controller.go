// Package viewport turns a stream of map viewport changes into debounced,
// origin-aware search radius queries.
package viewport

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

const (
	// DefaultDebounce is the quiet period after the last viewport change
	// before a radius is computed.
	DefaultDebounce = 800 * time.Millisecond
	// DefaultThreshold is the minimum relative change, against the last
	// emitted radius, for a new radius to be emitted.
	DefaultThreshold = 0.10
)

// State of a Controller.
type State int

const (
	StateIdle State = iota
	StatePendingEmit
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingEmit:
		return "pending_emit"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// OriginProvider returns the current search origin, or nil when there is
// none. It is called when a pending computation fires, never earlier.
type OriginProvider func() *domain.Coordinate

// EmitFunc receives accepted radius queries.
type EmitFunc func(domain.RadiusQuery)

// Observer is notified of every decision the controller takes.
type Observer interface {
	RadiusEmitted(q domain.RadiusQuery, initial bool)
	RadiusDiscarded(candidate, previous float64)
}

// Option configures a Controller.
type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

func WithThreshold(ratio float64) Option {
	return func(c *Controller) {
		if ratio >= 0 {
			c.threshold = ratio
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// Controller debounces viewport changes and emits a radius query once the
// map has been still for the debounce period and the reconciled radius
// changed significantly.
//
// Ready and the emit callback are serialized, so emissions arrive in order.
// The emit callback must not call Close or Ready on the same controller.
type Controller struct {
	mu       sync.Mutex
	state    State
	ready    bool
	pending  domain.ViewportState
	previous *domain.RadiusQuery
	timer    Timer
	gen      uint64

	emitMu sync.Mutex
	closed atomic.Bool

	origin    OriginProvider
	emit      EmitFunc
	sched     Scheduler
	debounce  time.Duration
	threshold float64
	log       *slog.Logger
	observer  Observer
}

// New creates a controller in the Idle state. origin may be nil.
func New(origin OriginProvider, emit EmitFunc, opts ...Option) *Controller {
	if origin == nil {
		origin = func() *domain.Coordinate { return nil }
	}
	if emit == nil {
		emit = func(domain.RadiusQuery) {}
	}

	c := &Controller{
		origin:    origin,
		emit:      emit,
		sched:     SystemScheduler,
		debounce:  DefaultDebounce,
		threshold: DefaultThreshold,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ready handles the map-ready event. It emits the clamped viewport radius
// immediately, without origin reconciliation or significance filtering.
// Only the first call has an effect.
func (c *Controller) Ready(vp domain.ViewportState) bool {
	// Repeats return without waiting for an emission in flight.
	if !c.acceptsReady() {
		return false
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.state == StateClosed || c.ready {
		c.mu.Unlock()
		return false
	}
	c.ready = true
	q := InitialQuery(vp)
	c.previous = &q
	c.mu.Unlock()

	c.deliver(q, true)
	return true
}

func (c *Controller) acceptsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateClosed && !c.ready
}

// ViewportMoved records a viewport change and restarts the debounce timer.
// It reports false once the controller is closed.
func (c *Controller) ViewportMoved(vp domain.ViewportState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return false
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.pending = vp
	c.state = StatePendingEmit
	c.timer = c.sched.AfterFunc(c.debounce, func() { c.fire(gen) })
	return true
}

// Close cancels any pending computation. Once Close returns the emit
// callback is not running and will not run again. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.closed.Store(true)
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	// Wait out an emission that was already in flight.
	c.emitMu.Lock()
	c.emitMu.Unlock() //nolint:staticcheck
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Previous returns the last emitted query, if any.
func (c *Controller) Previous() (domain.RadiusQuery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.previous == nil {
		return domain.RadiusQuery{}, false
	}
	return *c.previous, true
}

func (c *Controller) fire(gen uint64) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.state != StatePendingEmit || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.timer = nil
	vp := c.pending
	c.mu.Unlock()

	q := Candidate(c.origin(), vp)

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	if !Significant(c.previous, q.RadiusMeters, c.threshold) {
		prev := c.previous.RadiusMeters
		c.mu.Unlock()
		c.log.Debug("radius change below threshold",
			"candidate", q.RadiusMeters,
			"previous", prev,
		)
		if c.observer != nil {
			c.observer.RadiusDiscarded(q.RadiusMeters, prev)
		}
		return
	}
	c.previous = &q
	c.mu.Unlock()

	c.deliver(q, false)
}

// deliver must be called with emitMu held.
func (c *Controller) deliver(q domain.RadiusQuery, initial bool) {
	if c.closed.Load() {
		return
	}
	c.log.Debug("radius emitted",
		"center", q.Center.String(),
		"zoom", q.Zoom,
		"radius", q.RadiusMeters,
		"initial", initial,
	)
	if c.observer != nil {
		c.observer.RadiusEmitted(q, initial)
	}
	c.emit(q)
}
