package mapbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/upstream"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, token, upstream.WithRateLimit(1000, 10), upstream.WithRetries(0, time.Millisecond))
}

func TestForward(t *testing.T) {
	c := newTestClient(t, "pk.test", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v5/mapbox.places/Chợ Bến Thành.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "pk.test", q.Get("access_token"))
		assert.Equal(t, "vi", q.Get("language"))
		assert.Equal(t, "VN", q.Get("country"))
		assert.Equal(t, "1", q.Get("limit"))
		_, _ = w.Write([]byte(`{"features":[{"place_name":"Chợ Bến Thành, Quận 1","center":[106.698,10.7725]}]}`))
	})

	at, err := c.Forward(context.Background(), "Chợ Bến Thành")
	require.NoError(t, err)
	assert.Equal(t, domain.Coord(106.698, 10.7725), *at)
}

func TestForward_NoMatch(t *testing.T) {
	c := newTestClient(t, "pk.test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	_, err := c.Forward(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestForward_NoToken(t *testing.T) {
	c := New("", "")
	_, err := c.Forward(context.Background(), "Quận 1")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestReverse(t *testing.T) {
	c := newTestClient(t, "pk.test", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v5/mapbox.places/106.7,10.77.json", r.URL.Path)
		assert.Equal(t, "address,place,locality,neighborhood", r.URL.Query().Get("types"))
		_, _ = w.Write([]byte(`{"features":[{"place_name":"Lê Lợi, Quận 1, Hồ Chí Minh","center":[106.7,10.77]}]}`))
	})

	name, err := c.Reverse(context.Background(), domain.Coord(106.7, 10.77))
	require.NoError(t, err)
	assert.Equal(t, "Lê Lợi, Quận 1, Hồ Chí Minh", name)
}

func TestReverse_Empty(t *testing.T) {
	c := newTestClient(t, "pk.test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	_, err := c.Reverse(context.Background(), domain.Coord(106.7, 10.77))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

const directionsBody = `{
  "code": "Ok",
  "routes": [{
    "distance": 2450.5,
    "duration": 540.2,
    "geometry": {"type": "LineString", "coordinates": [[106.7,10.77],[106.69,10.78]]},
    "legs": [{
      "summary": "Lê Lợi",
      "distance": 2450.5,
      "duration": 540.2,
      "steps": [{"maneuver": {"instruction": "Đi về hướng bắc", "type": "depart"}, "distance": 120, "duration": 30}]
    }]
  }],
  "waypoints": [{"name": "Lê Lợi", "location": [106.7,10.77]}, {"name": "", "location": [106.69,10.78]}]
}`

func TestRoute(t *testing.T) {
	c := newTestClient(t, "pk.test", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/v5/mapbox/walking/106.7,10.77;106.69,10.78", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "geojson", q.Get("geometries"))
		assert.Equal(t, "full", q.Get("overview"))
		assert.Equal(t, "true", q.Get("steps"))
		assert.Equal(t, "vi", q.Get("language"))
		_, _ = w.Write([]byte(directionsBody))
	})

	d, err := c.Route(context.Background(), domain.TravelWalking, domain.Coord(106.7, 10.77), domain.Coord(106.69, 10.78))
	require.NoError(t, err)
	assert.Equal(t, domain.TravelWalking, d.Mode)
	require.Len(t, d.Routes, 1)
	assert.Equal(t, 2450.5, d.Routes[0].Distance)
	assert.Len(t, d.Routes[0].Geometry.Coordinates, 2)
	assert.Equal(t, "Đi về hướng bắc", d.Routes[0].Legs[0].Steps[0].Maneuver.Instruction)
	assert.Equal(t, domain.Coord(106.69, 10.78), d.Waypoints[1].Location)
}

func TestRoute_NoRoute(t *testing.T) {
	c := newTestClient(t, "pk.test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	})

	_, err := c.Route(context.Background(), domain.TravelDriving, domain.Coord(106.7, 10.77), domain.Coord(0, 0))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoute_RateLimited(t *testing.T) {
	c := newTestClient(t, "pk.test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Route(context.Background(), domain.TravelDriving, domain.Coord(106.7, 10.77), domain.Coord(106.69, 10.78))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
