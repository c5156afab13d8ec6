package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

// --- Mock RoomRepository ---

type mockRoomRepo struct {
	searchFn      func(ctx context.Context, p domain.RoomSearchParams) ([]domain.Room, error)
	getByIDFn     func(ctx context.Context, id int64) (*domain.Room, error)
	randomImageFn func(ctx context.Context, t domain.RoomType) (*domain.RoomImage, error)
}

func (m *mockRoomRepo) Search(ctx context.Context, p domain.RoomSearchParams) ([]domain.Room, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, p)
	}
	return nil, nil
}

func (m *mockRoomRepo) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRoomRepo) RandomImage(ctx context.Context, t domain.RoomType) (*domain.RoomImage, error) {
	if m.randomImageFn != nil {
		return m.randomImageFn(ctx, t)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRoomRepo) Ping(ctx context.Context) error { return nil }

// --- Mock ViewingRepository ---

type mockViewingRepo struct {
	listFn   func(ctx context.Context) ([]domain.RoomViewing, error)
	createFn func(ctx context.Context, req domain.ViewingRequest) (*domain.RoomViewing, error)
}

func (m *mockViewingRepo) List(ctx context.Context) ([]domain.RoomViewing, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockViewingRepo) Create(ctx context.Context, req domain.ViewingRequest) (*domain.RoomViewing, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &domain.RoomViewing{ID: 1, RoomID: req.RoomID, FullName: req.FullName, Phone: req.Phone}, nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	forwardFn func(ctx context.Context, q string) (*domain.Coordinate, error)
	reverseFn func(ctx context.Context, at domain.Coordinate) (string, error)
	calls     int
}

func (m *mockGeocoder) Forward(ctx context.Context, q string) (*domain.Coordinate, error) {
	m.calls++
	if m.forwardFn != nil {
		return m.forwardFn(ctx, q)
	}
	return nil, domain.ErrNotFound
}

func (m *mockGeocoder) Reverse(ctx context.Context, at domain.Coordinate) (string, error) {
	m.calls++
	if m.reverseFn != nil {
		return m.reverseFn(ctx, at)
	}
	return "", domain.ErrNotFound
}

// --- Mock DirectionsProvider ---

type mockDirections struct {
	routeFn func(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error)
}

func (m *mockDirections) Route(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error) {
	return m.routeFn(ctx, mode, from, to)
}

// --- Mock RoomAnalyzer ---

type mockAnalyzer struct {
	got domain.AnalysisRequest
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
	m.got = req
	return &domain.AnalysisResponse{
		Success: true,
		Analysis: domain.Analysis{
			BestChoice: domain.BestChoice{RoomID: req.Rooms[0].ID, Reason: "cheapest"},
		},
	}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	viewings []*domain.ViewingRequested
	radii    []domain.RadiusQuery
	err      error
}

func (m *mockPublisher) PublishRadiusQuery(ctx context.Context, sessionID string, q domain.RadiusQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.radii = append(m.radii, q)
	return m.err
}

func (m *mockPublisher) PublishViewingRequested(ctx context.Context, event *domain.ViewingRequested) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewings = append(m.viewings, event)
	return m.err
}

// --- In-memory CacheService ---

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func room(id int64, title string, t domain.RoomType, lon, lat float64) domain.Room {
	return domain.Room{
		Type:     "Feature",
		Geometry: domain.PointGeometry{Type: "Point", Coordinates: domain.Coord(lon, lat)},
		Properties: domain.RoomProperties{
			ID:       id,
			Title:    title,
			Price:    3_500_000,
			RoomType: t,
			Status:   domain.RoomStatusAvailable,
		},
	}
}

func f64(v float64) *float64 { return &v }
