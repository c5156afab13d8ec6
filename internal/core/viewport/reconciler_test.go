package viewport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/viewport"
	"github.com/samirrijal/roomradar/internal/pkg/geospatial"
)

func TestReconcile(t *testing.T) {
	origin := district1
	away := geospatial.Destination(district1, 270, 20000)

	tests := []struct {
		name   string
		origin *domain.Coordinate
		vp     domain.ViewportState
		want   float64
	}{
		{"no origin no bounds", nil, domain.ViewportState{Center: district1}, domain.MinRadiusMeters},
		{"no origin", nil, view(district1, 12000), 12000},
		{"origin at center", &origin, view(district1, 1000), domain.MinRadiusMeters},
		{"origin 20km away", &origin, view(away, 2000), 22000},
		{"beyond max", &origin, view(away, 40000), domain.MaxRadiusMeters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, viewport.Reconcile(tt.origin, tt.vp), 2)
		})
	}
}

func TestSignificant(t *testing.T) {
	prev := &domain.RadiusQuery{RadiusMeters: 10000}

	assert.True(t, viewport.Significant(nil, 5000, 0.1))
	assert.False(t, viewport.Significant(prev, 10000, 0.1))
	assert.False(t, viewport.Significant(prev, 10999, 0.1))
	assert.True(t, viewport.Significant(prev, 11000, 0.1))
	assert.True(t, viewport.Significant(prev, 9000, 0.1))
	assert.False(t, viewport.Significant(prev, 9001, 0.1))
}
