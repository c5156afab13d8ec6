package http

import (
	"context"
	"time"

	"github.com/samirrijal/roomradar/internal/core/ports"
	"github.com/samirrijal/roomradar/internal/core/usecases"
	"github.com/samirrijal/roomradar/internal/core/viewport"
)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ViewportSettings configures the radius controller of each map session.
type ViewportSettings struct {
	// Zero values select viewport.DefaultDebounce and DefaultThreshold.
	Debounce  time.Duration
	Threshold float64
	// Scheduler defaults to viewport.SystemScheduler.
	Scheduler viewport.Scheduler
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Rooms      *usecases.RoomService
	Geocoding  *usecases.GeocodeService
	Directions *usecases.DirectionsService
	Comparison *usecases.ComparisonService
	Viewings   *usecases.ViewingService
	Publisher  ports.EventPublisher
	Viewport   ViewportSettings

	// Optional readiness checks.
	Cache  Pinger
	Broker Pinger

	CORSOrigins string
	Version     string
}
