// Package roomsapi talks to the rooms REST API that owns listings, stock
// images and viewing appointments.
package roomsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/upstream"
)

const service = "rooms_api"

// Client implements ports.RoomRepository and ports.ViewingRepository.
type Client struct {
	baseURL string
	http    *upstream.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...upstream.Option) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    upstream.New(service, opts...),
	}
}

// Search lists rooms. addressRadius is raised to at least the minimum
// search radius and an empty room type is left out.
func (c *Client) Search(ctx context.Context, p domain.RoomSearchParams) ([]domain.Room, error) {
	var fc domain.RoomCollection
	if err := c.http.GetJSON(ctx, "search", c.baseURL+"/api/v1/rooms?"+searchQuery(p).Encode(), &fc); err != nil {
		return nil, fmt.Errorf("search rooms: %w", err)
	}
	if fc.Features == nil {
		return []domain.Room{}, nil
	}
	return fc.Features, nil
}

func searchQuery(p domain.RoomSearchParams) url.Values {
	q := url.Values{}
	if p.Address != "" {
		q.Set("address", p.Address)
	}

	radius := domain.MinRadiusMeters
	if p.AddressRadius > radius {
		radius = p.AddressRadius
	}
	q.Set("addressRadius", formatFloat(radius))

	if b := p.Bounds; b != nil {
		q.Set("north", formatFloat(b.North))
		q.Set("south", formatFloat(b.South))
		q.Set("east", formatFloat(b.East))
		q.Set("west", formatFloat(b.West))
	}
	if p.Near != nil {
		q.Set("lat", formatFloat(p.Near.Lat))
		q.Set("lng", formatFloat(p.Near.Lon))
		if p.Radius > 0 {
			q.Set("radius", formatFloat(p.Radius))
		}
	}
	setOptional(q, "minPrice", p.MinPrice)
	setOptional(q, "maxPrice", p.MaxPrice)
	setOptional(q, "minArea", p.MinArea)
	setOptional(q, "maxArea", p.MaxArea)
	if p.RoomType != "" {
		q.Set("roomType", string(p.RoomType))
	}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	return q
}

func setOptional(q url.Values, key string, v *float64) {
	if v != nil {
		q.Set(key, formatFloat(*v))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// GetByID returns one room.
func (c *Client) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	var room domain.Room
	if err := c.http.GetJSON(ctx, "get", fmt.Sprintf("%s/api/v1/rooms/%d", c.baseURL, id), &room); err != nil {
		return nil, fmt.Errorf("get room %d: %w", id, err)
	}
	if room.Properties.ID == 0 {
		return nil, fmt.Errorf("get room %d: %w", id, domain.ErrNotFound)
	}
	return &room, nil
}

// RandomImage returns a random stock image for roomType.
func (c *Client) RandomImage(ctx context.Context, roomType domain.RoomType) (*domain.RoomImage, error) {
	u := c.baseURL + "/api/v1/room-images/random?" + url.Values{"type": {string(roomType)}}.Encode()

	var img domain.RoomImage
	if err := c.http.GetJSON(ctx, "random_image", u, &img); err != nil {
		return nil, fmt.Errorf("random image: %w", err)
	}
	if img.URL == "" {
		return nil, fmt.Errorf("random image: %w", domain.ErrNotFound)
	}
	return &img, nil
}

// Ping checks that the API answers a minimal search.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.http.Do(ctx, "ping", "GET", c.baseURL+"/api/v1/room-images/random?type=room", nil, nil)
}

// List returns all viewing appointments. The API answers with either a
// bare array or an object wrapping it in "data".
func (c *Client) List(ctx context.Context) ([]domain.RoomViewing, error) {
	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, "list_viewings", c.baseURL+"/api/v1/room-viewings", &raw); err != nil {
		return nil, fmt.Errorf("list viewings: %w", err)
	}
	return decodeViewings(raw)
}

func decodeViewings(raw json.RawMessage) ([]domain.RoomViewing, error) {
	viewings := []domain.RoomViewing{}
	if len(raw) == 0 || string(raw) == "null" {
		return viewings, nil
	}
	if err := json.Unmarshal(raw, &viewings); err == nil {
		return viewings, nil
	}
	var wrapped struct {
		Data []domain.RoomViewing `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode viewings: %w: %v", domain.ErrUpstream, err)
	}
	if wrapped.Data != nil {
		viewings = wrapped.Data
	}
	return viewings, nil
}

// Create books a viewing.
func (c *Client) Create(ctx context.Context, req domain.ViewingRequest) (*domain.RoomViewing, error) {
	var v domain.RoomViewing
	if err := c.http.PostJSON(ctx, "create_viewing", c.baseURL+"/api/v1/room-viewings", req, &v); err != nil {
		return nil, fmt.Errorf("create viewing: %w", err)
	}
	if v.RoomID == 0 {
		v.RoomID = req.RoomID
		v.FullName = req.FullName
		v.Phone = req.Phone
		v.Email = req.Email
		v.PreferredTime = req.PreferredTime
		v.Note = req.Note
	}
	return &v, nil
}
