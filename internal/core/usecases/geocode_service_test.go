package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/usecases"
)

func TestGeocodeService_Forward(t *testing.T) {
	geo := &mockGeocoder{
		forwardFn: func(ctx context.Context, q string) (*domain.Coordinate, error) {
			if q != "Chợ Bến Thành" {
				t.Errorf("expected trimmed query, got %q", q)
			}
			return domain.Coord(106.698, 10.772).Ptr(), nil
		},
	}
	svc := usecases.NewGeocodeService(geo, newMapCache())

	for i := 0; i < 2; i++ {
		c, err := svc.Forward(context.Background(), "  Chợ Bến Thành ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Lat != 10.772 {
			t.Errorf("unexpected coordinate %v", c)
		}
	}
	if geo.calls != 1 {
		t.Errorf("expected 1 geocoder call, got %d", geo.calls)
	}
}

func TestGeocodeService_Forward_Empty(t *testing.T) {
	svc := usecases.NewGeocodeService(&mockGeocoder{}, nil)
	if _, err := svc.Forward(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGeocodeService_Forward_NotFound(t *testing.T) {
	svc := usecases.NewGeocodeService(&mockGeocoder{}, nil)
	if _, err := svc.Forward(context.Background(), "nowhere"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGeocodeService_Reverse(t *testing.T) {
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, at domain.Coordinate) (string, error) {
			return "Quận 1, Hồ Chí Minh", nil
		},
	}
	svc := usecases.NewGeocodeService(geo, nil)

	name, err := svc.Reverse(context.Background(), domain.Coord(106.7, 10.77))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Quận 1, Hồ Chí Minh" {
		t.Errorf("unexpected name %q", name)
	}
}

func TestGeocodeService_Reverse_FallsBackToCoordinates(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, at domain.Coordinate) (string, error)
	}{
		{"not found", func(ctx context.Context, at domain.Coordinate) (string, error) { return "", domain.ErrNotFound }},
		{"upstream error", func(ctx context.Context, at domain.Coordinate) (string, error) { return "", domain.ErrUpstream }},
		{"empty name", func(ctx context.Context, at domain.Coordinate) (string, error) { return "", nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := usecases.NewGeocodeService(&mockGeocoder{reverseFn: tt.fn}, nil)
			name, err := svc.Reverse(context.Background(), domain.Coord(106.7, 10.77))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != "10.770000, 106.700000" {
				t.Errorf("unexpected fallback %q", name)
			}
		})
	}
}

func TestGeocodeService_Reverse_Invalid(t *testing.T) {
	svc := usecases.NewGeocodeService(&mockGeocoder{}, nil)
	if _, err := svc.Reverse(context.Background(), domain.Coord(0, 95)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
