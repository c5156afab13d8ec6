package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/ports"
)

const geocodeTTL = 24 * 3600

// GeocodeService resolves addresses for the search bar and GPS fixes.
type GeocodeService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
}

// NewGeocodeService creates a new GeocodeService.
func NewGeocodeService(geocoder ports.Geocoder, cache ports.CacheService) *GeocodeService {
	return &GeocodeService{geocoder: geocoder, cache: cache}
}

// Forward returns the coordinate of the best match for address.
func (s *GeocodeService) Forward(ctx context.Context, address string) (*domain.Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address must not be empty", domain.ErrInvalidInput)
	}

	cacheKey := "geo:fwd:" + strings.ToLower(address)
	return readThrough(ctx, s.cache, cacheKey, geocodeTTL, func() (*domain.Coordinate, error) {
		return s.geocoder.Forward(ctx, address)
	})
}

// Reverse returns a human readable place for at. When the geocoder has no
// answer or fails, it falls back to the formatted coordinate.
func (s *GeocodeService) Reverse(ctx context.Context, at domain.Coordinate) (string, error) {
	if !at.Valid() {
		return "", fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidInput)
	}

	cacheKey := fmt.Sprintf("geo:rev:%.5f:%.5f", at.Lon, at.Lat)
	name, err := readThrough(ctx, s.cache, cacheKey, geocodeTTL, func() (string, error) {
		return s.geocoder.Reverse(ctx, at)
	})
	if err != nil || name == "" {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("reverse geocode failed", "at", at.String(), "error", err)
		}
		return FormatLatLon(at), nil
	}
	return name, nil
}

// FormatLatLon renders a coordinate as "lat, lon" with six decimals.
func FormatLatLon(c domain.Coordinate) string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lon)
}
