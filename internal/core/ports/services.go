package ports

import (
	"context"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

// Geocoder resolves addresses to coordinates and back.
type Geocoder interface {
	// Forward returns domain.ErrNotFound when the query matches nothing.
	Forward(ctx context.Context, query string) (*domain.Coordinate, error)
	// Reverse returns domain.ErrNotFound when no place name is known.
	Reverse(ctx context.Context, at domain.Coordinate) (string, error)
}

// DirectionsProvider computes routes between two points.
type DirectionsProvider interface {
	Route(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error)
}

// RoomAnalyzer compares rooms with a language model.
type RoomAnalyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRadiusQuery(ctx context.Context, sessionID string, q domain.RadiusQuery) error
	PublishViewingRequested(ctx context.Context, event *domain.ViewingRequested) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeViewingRequests(ctx context.Context, handler func(ctx context.Context, event *domain.ViewingRequested) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService sends text messages.
type NotificationService interface {
	SendSMS(ctx context.Context, to, body string) error
}

// WorkflowStarter hands a booked viewing to the durable notification workflow.
type WorkflowStarter interface {
	StartViewingWorkflow(ctx context.Context, event *domain.ViewingRequested) (runID string, err error)
}
