// Package simulator replays recorded viewport traces through the radius
// controller on a virtual clock.
package simulator

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/viewport"
)

// Event types in a trace.
const (
	EventReady  = "ready"
	EventMove   = "move"
	EventOrigin = "origin"
	EventClose  = "close"
)

// Event is one line of a trace.
type Event struct {
	AtMS   int64              `json:"at_ms"`
	Type   string             `json:"type"`
	Center *domain.Coordinate `json:"center,omitempty"`
	NE     *domain.Coordinate `json:"ne,omitempty"`
	Zoom   float64            `json:"zoom"`
}

func (e Event) viewport() domain.ViewportState {
	return domain.ViewportState{Center: *e.Center, Zoom: e.Zoom, NorthEast: e.NE}
}

// ParseTrace reads a JSON-lines trace. Blank lines and lines starting
// with # are skipped. Timestamps must not go backwards.
func ParseTrace(r io.Reader) ([]Event, error) {
	var (
		events []Event
		last   int64
		line   int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := validate(e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if e.AtMS < last {
			return nil, fmt.Errorf("line %d: at_ms %d goes back from %d", line, e.AtMS, last)
		}
		last = e.AtMS
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return events, nil
}

func validate(e Event) error {
	switch e.Type {
	case EventReady, EventMove:
		if e.Center == nil {
			return fmt.Errorf("%s needs a center", e.Type)
		}
	case EventOrigin, EventClose:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Center != nil && !e.Center.Valid() {
		return fmt.Errorf("center %s out of range", e.Center)
	}
	if e.NE != nil && !e.NE.Valid() {
		return fmt.Errorf("ne %s out of range", e.NE)
	}
	return nil
}

// Emission is a radius the controller emitted during a replay.
type Emission struct {
	AtMS    int64              `json:"at_ms"`
	Initial bool               `json:"initial"`
	Query   domain.RadiusQuery `json:"query"`
}

// Result summarizes a replay.
type Result struct {
	Emissions []Emission `json:"emissions"`
	Discarded int        `json:"discarded"`
}

// Options tune a replay. Zero Debounce or Threshold selects the
// controller default.
type Options struct {
	Debounce  time.Duration
	Threshold float64
	Logger    *slog.Logger
}

// Replay runs events through a fresh controller. Unless the trace closes
// the controller, a pending computation is flushed after the last event.
func Replay(events []Event, opts Options) Result {
	var (
		clock  = &Clock{}
		rec    = &recorder{clock: clock}
		origin originHolder
	)

	copts := []viewport.Option{
		viewport.WithScheduler(clock),
		viewport.WithObserver(rec),
	}
	if opts.Debounce > 0 {
		copts = append(copts, viewport.WithDebounce(opts.Debounce))
	}
	if opts.Threshold > 0 {
		copts = append(copts, viewport.WithThreshold(opts.Threshold))
	}
	if opts.Logger != nil {
		copts = append(copts, viewport.WithLogger(opts.Logger))
	}
	ctrl := viewport.New(origin.get, rec.emit, copts...)
	defer ctrl.Close()

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = viewport.DefaultDebounce
	}

	for _, e := range events {
		clock.AdvanceTo(time.Duration(e.AtMS) * time.Millisecond)
		switch e.Type {
		case EventReady:
			ctrl.Ready(e.viewport())
		case EventMove:
			ctrl.ViewportMoved(e.viewport())
		case EventOrigin:
			origin.set(e.Center)
		case EventClose:
			ctrl.Close()
		}
	}
	clock.AdvanceTo(clock.Now() + debounce)

	return rec.result()
}

type originHolder struct {
	mu sync.Mutex
	at *domain.Coordinate
}

func (o *originHolder) get() *domain.Coordinate {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.at == nil {
		return nil
	}
	return o.at.Ptr()
}

func (o *originHolder) set(at *domain.Coordinate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.at = at
}

// recorder collects emissions. The controller calls RadiusEmitted right
// before the emit callback, under its emission lock.
type recorder struct {
	clock   *Clock
	mu      sync.Mutex
	initial bool
	res     Result
}

func (r *recorder) RadiusEmitted(_ domain.RadiusQuery, initial bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initial = initial
}

func (r *recorder) RadiusDiscarded(_, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Discarded++
}

func (r *recorder) emit(q domain.RadiusQuery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Emissions = append(r.res.Emissions, Emission{
		AtMS:    r.clock.Now().Milliseconds(),
		Initial: r.initial,
		Query:   q,
	})
}

func (r *recorder) result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.res
	out.Emissions = append([]Emission(nil), r.res.Emissions...)
	return out
}
