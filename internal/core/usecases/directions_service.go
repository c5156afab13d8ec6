package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/ports"
)

// DirectionsService computes routes to a room.
type DirectionsService struct {
	provider ports.DirectionsProvider
}

// NewDirectionsService creates a new DirectionsService.
func NewDirectionsService(provider ports.DirectionsProvider) *DirectionsService {
	return &DirectionsService{provider: provider}
}

// Route returns directions from one point to another.
func (s *DirectionsService) Route(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidInput)
	}
	if mode == "" {
		mode = domain.TravelDriving
	}
	if _, err := domain.ParseTravelMode(string(mode)); err != nil {
		return nil, err
	}

	d, err := s.provider.Route(ctx, mode, from, to)
	if err != nil {
		return nil, err
	}
	if len(d.Routes) == 0 {
		return nil, fmt.Errorf("%w: no route between %s and %s", domain.ErrNotFound, from, to)
	}
	d.Mode = mode
	return d, nil
}

// ResolveOrigin picks the starting point for directions: a custom origin
// picked on the map wins over the GPS location.
func ResolveOrigin(custom, userLocation *domain.Coordinate) (domain.Coordinate, error) {
	switch {
	case custom != nil:
		return *custom, nil
	case userLocation != nil:
		return *userLocation, nil
	default:
		return domain.Coordinate{}, fmt.Errorf("%w: no starting point, enable GPS or pick one on the map", domain.ErrInvalidInput)
	}
}
