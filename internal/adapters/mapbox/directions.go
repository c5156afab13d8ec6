package mapbox

import (
	"context"
	"fmt"
	"net/url"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

type directionsResponse struct {
	Code      string                   `json:"code"`
	Message   string                   `json:"message"`
	Routes    []domain.DirectionsRoute `json:"routes"`
	Waypoints []domain.Waypoint        `json:"waypoints"`
}

// Route returns directions with full GeoJSON geometry and turn-by-turn
// steps in Vietnamese.
func (c *Client) Route(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error) {
	if c.token == "" {
		return nil, fmt.Errorf("mapbox: %w", domain.ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("geometries", "geojson")
	params.Set("overview", "full")
	params.Set("steps", "true")
	params.Set("language", language)

	u := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s,%s;%s,%s?%s",
		c.baseURL, mode,
		formatDeg(from.Lon), formatDeg(from.Lat),
		formatDeg(to.Lon), formatDeg(to.Lat),
		params.Encode())

	var resp directionsResponse
	if err := c.http.GetJSON(ctx, "directions", u, &resp); err != nil {
		return nil, fmt.Errorf("directions: %w", err)
	}

	switch resp.Code {
	case "Ok", "":
	case "NoRoute", "NoSegment":
		return nil, fmt.Errorf("directions: %w: %s", domain.ErrNotFound, resp.Code)
	case "InvalidInput":
		return nil, fmt.Errorf("directions: %w: %s", domain.ErrInvalidInput, resp.Message)
	default:
		return nil, fmt.Errorf("directions: %w: %s %s", domain.ErrUpstream, resp.Code, resp.Message)
	}
	if len(resp.Routes) == 0 {
		return nil, fmt.Errorf("directions: %w: no route", domain.ErrNotFound)
	}

	return &domain.Directions{Mode: mode, Routes: resp.Routes, Waypoints: resp.Waypoints}, nil
}
