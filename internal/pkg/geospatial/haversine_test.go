package geospatial_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/geospatial"
)

var (
	benThanh = domain.Coord(106.6980, 10.7725)
	hoanKiem = domain.Coord(105.8522, 21.0288)
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	points := []domain.Coordinate{
		benThanh,
		hoanKiem,
		domain.Coord(0, 0),
		domain.Coord(-180, -90),
		domain.Coord(179.9, 89.9),
	}
	for _, p := range points {
		assert.Equal(t, 0.0, geospatial.Haversine(p, p), "point %s", p)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	pairs := [][2]domain.Coordinate{
		{benThanh, hoanKiem},
		{domain.Coord(-73.9857, 40.7484), domain.Coord(2.2945, 48.8584)},
		{domain.Coord(0, 0), domain.Coord(0.001, 0.001)},
	}
	for _, p := range pairs {
		assert.InDelta(t, geospatial.Haversine(p[0], p[1]), geospatial.Haversine(p[1], p[0]), 1)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Saigon to Hanoi is roughly 1,140 km as the crow flies.
	d := geospatial.Haversine(benThanh, hoanKiem)
	assert.InDelta(t, 1_140_000, d, 15_000)
	assert.Equal(t, math.Round(d), d, "distance is rounded to whole meters")
}

func TestViewportRadius_NoBounds(t *testing.T) {
	assert.Equal(t, 0.0, geospatial.ViewportRadius(benThanh, nil))
}

func TestViewportRadius_Corner(t *testing.T) {
	ne := geospatial.Destination(benThanh, 45, 1000)
	assert.InDelta(t, 1000, geospatial.ViewportRadius(benThanh, &ne), 1)
}

func TestClampRadius(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{0, domain.MinRadiusMeters},
		{-10, domain.MinRadiusMeters},
		{1000, domain.MinRadiusMeters},
		{5000, 5000},
		{22000, 22000},
		{50000, 50000},
		{1e9, domain.MaxRadiusMeters},
		{math.Inf(1), domain.MaxRadiusMeters},
		{math.Inf(-1), domain.MinRadiusMeters},
		{math.NaN(), domain.MinRadiusMeters},
	}
	for _, tt := range tests {
		got := geospatial.ClampRadius(tt.raw)
		assert.Equal(t, tt.want, got, "raw %v", tt.raw)
		assert.GreaterOrEqual(t, got, domain.MinRadiusMeters)
		assert.LessOrEqual(t, got, domain.MaxRadiusMeters)
	}
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	box := geospatial.BoundingBox(benThanh, 5000)
	assert.Greater(t, box.North, benThanh.Lat)
	assert.Less(t, box.South, benThanh.Lat)
	assert.Greater(t, box.East, benThanh.Lon)
	assert.Less(t, box.West, benThanh.Lon)

	north := domain.Coord(benThanh.Lon, box.North)
	assert.InDelta(t, 5000, geospatial.Haversine(benThanh, north), 25)
}

func TestDestination_RoundTrip(t *testing.T) {
	for _, bearing := range []float64{0, 90, 180, 270, 33} {
		p := geospatial.Destination(hoanKiem, bearing, 20000)
		assert.InDelta(t, 20000, geospatial.Haversine(hoanKiem, p), 1, "bearing %v", bearing)
	}
}
