// Package mapbox implements geocoding and directions on the Mapbox web
// services.
package mapbox

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/upstream"
)

const (
	DefaultBaseURL = "https://api.mapbox.com"

	service = "mapbox"

	language      = "vi"
	country       = "VN"
	reverseTypes  = "address,place,locality,neighborhood"
	forwardResult = "1"
)

// Client implements ports.Geocoder and ports.DirectionsProvider.
type Client struct {
	baseURL string
	token   string
	http    *upstream.Client
}

// New creates a Mapbox client.
func New(baseURL, token string, opts ...upstream.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    upstream.New(service, opts...),
	}
}

type geocodeResponse struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
		Relevance float64   `json:"relevance"`
	} `json:"features"`
}

func (c *Client) placesURL(query string, params url.Values) string {
	params.Set("access_token", c.token)
	params.Set("language", language)
	return fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, url.PathEscape(query), params.Encode())
}

// Forward geocodes an address within Vietnam and returns the best match.
func (c *Client) Forward(ctx context.Context, query string) (*domain.Coordinate, error) {
	if c.token == "" {
		return nil, fmt.Errorf("mapbox: %w", domain.ErrNotConfigured)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty geocoding query", domain.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("country", country)
	params.Set("limit", forwardResult)

	var resp geocodeResponse
	if err := c.http.GetJSON(ctx, "forward", c.placesURL(query, params), &resp); err != nil {
		return nil, fmt.Errorf("forward geocode: %w", err)
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Center) != 2 {
		return nil, fmt.Errorf("forward geocode %q: %w", query, domain.ErrNotFound)
	}
	center := resp.Features[0].Center
	return &domain.Coordinate{Lon: center[0], Lat: center[1]}, nil
}

// Reverse returns the place name at a coordinate.
func (c *Client) Reverse(ctx context.Context, at domain.Coordinate) (string, error) {
	if c.token == "" {
		return "", fmt.Errorf("mapbox: %w", domain.ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("types", reverseTypes)
	query := fmt.Sprintf("%s,%s", formatDeg(at.Lon), formatDeg(at.Lat))

	var resp geocodeResponse
	if err := c.http.GetJSON(ctx, "reverse", c.placesURL(query, params), &resp); err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(resp.Features) == 0 || resp.Features[0].PlaceName == "" {
		return "", fmt.Errorf("reverse geocode %s: %w", at, domain.ErrNotFound)
	}
	return resp.Features[0].PlaceName, nil
}

func formatDeg(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}
