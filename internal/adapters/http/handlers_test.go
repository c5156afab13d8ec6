package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/roomradar/internal/adapters/http"
	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/usecases"
)

// ---- Mocks ----

type mockRoomRepo struct {
	searchFn      func(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error)
	getByIDFn     func(ctx context.Context, id int64) (*domain.Room, error)
	randomImageFn func(ctx context.Context, roomType domain.RoomType) (*domain.RoomImage, error)
	pingFn        func(ctx context.Context) error
}

func (m *mockRoomRepo) Search(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, params)
	}
	return nil, nil
}
func (m *mockRoomRepo) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("%w: room %d", domain.ErrNotFound, id)
}
func (m *mockRoomRepo) RandomImage(ctx context.Context, roomType domain.RoomType) (*domain.RoomImage, error) {
	if m.randomImageFn != nil {
		return m.randomImageFn(ctx, roomType)
	}
	return &domain.RoomImage{URL: "https://img.example/" + string(roomType) + ".jpg"}, nil
}
func (m *mockRoomRepo) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

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
	return &domain.RoomViewing{
		ID:            1,
		RoomID:        req.RoomID,
		FullName:      req.FullName,
		Phone:         req.Phone,
		PreferredTime: req.PreferredTime,
		Status:        "pending",
	}, nil
}

type mockGeocoder struct {
	forwardFn func(ctx context.Context, query string) (*domain.Coordinate, error)
	reverseFn func(ctx context.Context, at domain.Coordinate) (string, error)
}

func (m *mockGeocoder) Forward(ctx context.Context, query string) (*domain.Coordinate, error) {
	if m.forwardFn != nil {
		return m.forwardFn(ctx, query)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrNotFound, query)
}
func (m *mockGeocoder) Reverse(ctx context.Context, at domain.Coordinate) (string, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, at)
	}
	return "", domain.ErrNotFound
}

type mockDirections struct {
	routeFn func(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error)
}

func (m *mockDirections) Route(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, mode, from, to)
	}
	return &domain.Directions{
		Routes: []domain.DirectionsRoute{{Distance: 1500, Duration: 420}},
	}, nil
}

type mockAnalyzer struct {
	analyzeFn func(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, req)
	}
	best := req.Rooms[0].ID
	return &domain.AnalysisResponse{
		Success:  true,
		Analysis: domain.Analysis{BestChoice: domain.BestChoice{RoomID: best, Reason: "Giá tốt"}},
	}, nil
}

type mockPublisher struct {
	mu       sync.Mutex
	radius   []domain.RadiusQuery
	viewings []*domain.ViewingRequested
}

func (m *mockPublisher) PublishRadiusQuery(ctx context.Context, sessionID string, q domain.RadiusQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.radius = append(m.radius, q)
	return nil
}
func (m *mockPublisher) PublishViewingRequested(ctx context.Context, event *domain.ViewingRequested) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewings = append(m.viewings, event)
	return nil
}

func (m *mockPublisher) radiusCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.radius)
}

// ---- Test helpers ----

func testRoom(id int64, roomType domain.RoomType, price float64) domain.Room {
	addr := "12 Lê Lợi, Quận 1"
	phone := "0901234567"
	return domain.Room{
		Type: "Feature",
		Geometry: domain.PointGeometry{
			Type:        "Point",
			Coordinates: domain.Coord(106.70+float64(id)/1000, 10.77),
		},
		Properties: domain.RoomProperties{
			ID:       id,
			Title:    fmt.Sprintf("Phòng %d", id),
			Price:    price,
			Address:  &addr,
			RoomType: roomType,
			Status:   domain.RoomStatusAvailable,
			Phone:    &phone,
		},
	}
}

func roomsByID(rooms ...domain.Room) *mockRoomRepo {
	byID := make(map[int64]domain.Room, len(rooms))
	for _, r := range rooms {
		byID[r.Properties.ID] = r
	}
	return &mockRoomRepo{
		searchFn: func(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error) {
			return rooms, nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*domain.Room, error) {
			r, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("%w: room %d", domain.ErrNotFound, id)
			}
			return &r, nil
		},
	}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

type depsOptions struct {
	rooms      *mockRoomRepo
	viewings   *mockViewingRepo
	geocoder   *mockGeocoder
	directions *mockDirections
	analyzer   *mockAnalyzer
	publisher  *mockPublisher
}

func makeDeps(opts ...func(*depsOptions)) *handler.Dependencies {
	o := &depsOptions{
		rooms:      &mockRoomRepo{},
		viewings:   &mockViewingRepo{},
		geocoder:   &mockGeocoder{},
		directions: &mockDirections{},
	}
	for _, fn := range opts {
		fn(o)
	}

	rooms := usecases.NewRoomService(o.rooms, nil)
	d := &handler.Dependencies{
		Rooms:      rooms,
		Geocoding:  usecases.NewGeocodeService(o.geocoder, nil),
		Directions: usecases.NewDirectionsService(o.directions),
		Version:    "test",
	}
	if o.analyzer != nil {
		d.Comparison = usecases.NewComparisonService(o.analyzer, rooms)
	} else {
		d.Comparison = usecases.NewComparisonService(nil, rooms)
	}
	if o.publisher != nil {
		d.Publisher = o.publisher
		d.Viewings = usecases.NewViewingService(o.viewings, o.rooms, o.publisher)
	} else {
		d.Viewings = usecases.NewViewingService(o.viewings, o.rooms, nil)
	}
	return d
}

func doGet(t *testing.T, app *fiber.App, target string) *httpResponse {
	t.Helper()
	return do(t, app, httptest.NewRequest("GET", target, nil))
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) *httpResponse {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

type httpResponse struct {
	status int
	header func(string) string
	body   []byte
}

func do(t *testing.T, app *fiber.App, req *http.Request) *httpResponse {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return &httpResponse{status: resp.StatusCode, header: resp.Header.Get, body: b}
}

func (r *httpResponse) decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.body, v); err != nil {
		t.Fatalf("decode %s: %v", r.body, err)
	}
}

func expectError(t *testing.T, r *httpResponse, status int, code string) {
	t.Helper()
	if r.status != status {
		t.Fatalf("expected %d, got %d: %s", status, r.status, r.body)
	}
	var apiErr handler.APIError
	r.decode(t, &apiErr)
	if apiErr.Code != code {
		t.Errorf("expected %s error, got %s", code, apiErr.Code)
	}
}

// ---- Room handler tests ----

func TestListRooms_Success(t *testing.T) {
	var got domain.RoomSearchParams
	repo := &mockRoomRepo{
		searchFn: func(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error) {
			got = params
			return []domain.Room{
				testRoom(1, domain.RoomTypeRoom, 2500000),
				testRoom(2, domain.RoomTypeStudio, 4000000),
				testRoom(3, domain.RoomTypeApartment, 7000000),
			}, nil
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.rooms = repo }))

	r := doGet(t, app, "/v1/rooms?address=Qu%E1%BA%ADn+1&addressRadius=3000&minPrice=1000000&roomType=studio&limit=2")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}

	var result struct {
		Data       []domain.Room      `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	r.decode(t, &result)
	if result.Pagination.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 rooms in page, got %d", len(result.Data))
	}
	if got.Address != "Quận 1" || got.AddressRadius != 3000 {
		t.Errorf("unexpected address filter: %q %v", got.Address, got.AddressRadius)
	}
	if got.MinPrice == nil || *got.MinPrice != 1000000 {
		t.Errorf("expected minPrice 1000000, got %v", got.MinPrice)
	}
	if got.RoomType != domain.RoomTypeStudio {
		t.Errorf("expected studio, got %s", got.RoomType)
	}

	link := r.header("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, "offset=2") {
		t.Errorf("expected next link at offset 2, got %q", link)
	}
	if !strings.Contains(link, "roomType=studio") {
		t.Errorf("expected links to keep filters, got %q", link)
	}
}

func TestListRooms_Bounds(t *testing.T) {
	var got domain.RoomSearchParams
	repo := &mockRoomRepo{
		searchFn: func(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error) {
			got = params
			return nil, nil
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.rooms = repo }))

	r := doGet(t, app, "/v1/rooms?north=10.8&south=10.7&east=106.75&west=106.65")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	if got.Bounds == nil || got.Bounds.North != 10.8 || got.Bounds.West != 106.65 {
		t.Errorf("unexpected bounds: %+v", got.Bounds)
	}

	var result struct {
		Data []domain.Room `json:"data"`
	}
	r.decode(t, &result)
	if result.Data == nil {
		t.Error("expected an empty list, not null")
	}
}

func TestListRooms_BadParams(t *testing.T) {
	app := setupApp(makeDeps())

	for _, target := range []string{
		"/v1/rooms?minPrice=cheap",
		"/v1/rooms?north=10.8&south=10.7",
		"/v1/rooms?lat=10.77",
		"/v1/rooms?lat=91&lng=106.7",
		"/v1/rooms?minPrice=5000000&maxPrice=1000000",
		"/v1/rooms?roomType=villa",
	} {
		t.Run(target, func(t *testing.T) {
			expectError(t, doGet(t, app, target), 400, "bad_request")
		})
	}
}

func TestListRooms_UpstreamError(t *testing.T) {
	repo := &mockRoomRepo{
		searchFn: func(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error) {
			return nil, fmt.Errorf("%w: rooms api returned 500", domain.ErrUpstream)
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.rooms = repo }))

	expectError(t, doGet(t, app, "/v1/rooms"), 502, "upstream_error")
}

func TestNearbyRooms_Deprecated(t *testing.T) {
	var got domain.RoomSearchParams
	repo := &mockRoomRepo{
		searchFn: func(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error) {
			got = params
			return []domain.Room{testRoom(1, domain.RoomTypeRoom, 2000000)}, nil
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.rooms = repo }))

	r := doGet(t, app, "/v1/rooms/nearby?lat=10.77&lng=106.7&radius=2000")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	if r.header("Deprecation") != "true" {
		t.Errorf("expected Deprecation header, got %q", r.header("Deprecation"))
	}
	if r.header("Sunset") == "" {
		t.Error("expected Sunset header")
	}
	if !strings.Contains(r.header("Link"), `</v1/rooms>; rel="successor-version"`) {
		t.Errorf("expected successor link, got %q", r.header("Link"))
	}
	if got.Near == nil || got.Near.Lat != 10.77 || got.Near.Lon != 106.7 || got.Radius != 2000 {
		t.Errorf("unexpected point filter: %+v radius %v", got.Near, got.Radius)
	}
}

func TestNearbyRooms_MissingPoint(t *testing.T) {
	app := setupApp(makeDeps())
	expectError(t, doGet(t, app, "/v1/rooms/nearby?lat=10.77"), 400, "bad_request")
}

func TestGetRoom_Success(t *testing.T) {
	app := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = roomsByID(testRoom(7, domain.RoomTypeStudio, 3500000))
	}))

	r := doGet(t, app, "/v1/rooms/7")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var room domain.Room
	r.decode(t, &room)
	if room.Properties.Title != "Phòng 7" {
		t.Errorf("expected Phòng 7, got %s", room.Properties.Title)
	}
	if r.header("Cache-Control") != "public, max-age=600" {
		t.Errorf("unexpected Cache-Control %q", r.header("Cache-Control"))
	}
}

func TestGetRoom_WithImage(t *testing.T) {
	app := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = roomsByID(testRoom(7, domain.RoomTypeStudio, 3500000))
	}))

	r := doGet(t, app, "/v1/rooms/7?include=image&type=studio")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var detail domain.RoomDetail
	r.decode(t, &detail)
	if detail.Room == nil || detail.Room.Properties.ID != 7 {
		t.Fatalf("expected room 7, got %+v", detail.Room)
	}
	if detail.Image == nil || detail.Image.URL != "https://img.example/studio.jpg" {
		t.Errorf("unexpected image %+v", detail.Image)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	app := setupApp(makeDeps())
	expectError(t, doGet(t, app, "/v1/rooms/404"), 404, "not_found")
}

func TestGetRoom_BadID(t *testing.T) {
	app := setupApp(makeDeps())
	expectError(t, doGet(t, app, "/v1/rooms/abc"), 400, "bad_request")
	expectError(t, doGet(t, app, "/v1/rooms/-3"), 400, "bad_request")
}

func TestGetRoom_ETag(t *testing.T) {
	app := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = roomsByID(testRoom(7, domain.RoomTypeStudio, 3500000))
	}))

	first := doGet(t, app, "/v1/rooms/7")
	etag := first.header("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("expected weak ETag, got %q", etag)
	}

	req := httptest.NewRequest("GET", "/v1/rooms/7", nil)
	req.Header.Set("If-None-Match", etag)
	second := do(t, app, req)
	if second.status != 304 {
		t.Fatalf("expected 304, got %d", second.status)
	}
	if len(second.body) != 0 {
		t.Errorf("expected empty body, got %d bytes", len(second.body))
	}
}

func TestRoomImage(t *testing.T) {
	app := setupApp(makeDeps())

	r := doGet(t, app, "/v1/rooms/3/image?type=apartment")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var img domain.RoomImage
	r.decode(t, &img)
	if img.RoomType != domain.RoomTypeApartment {
		t.Errorf("expected apartment, got %s", img.RoomType)
	}

	expectError(t, doGet(t, app, "/v1/rooms/3/image"), 400, "bad_request")
	expectError(t, doGet(t, app, "/v1/rooms/3/image?type=villa"), 400, "bad_request")
}

// ---- Viewport radius ----

func TestViewportRadius(t *testing.T) {
	app := setupApp(makeDeps())

	tests := []struct {
		name   string
		query  string
		radius float64
	}{
		{"no bounds clamps to minimum", "lat=10.77&lng=106.7&zoom=14", domain.MinRadiusMeters},
		{"far origin clamps to maximum", "lat=10.77&lng=106.7&origin_lat=11.5&origin_lng=106.7", domain.MaxRadiusMeters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := doGet(t, app, "/v1/viewport/radius?"+tt.query)
			if r.status != 200 {
				t.Fatalf("expected 200, got %d: %s", r.status, r.body)
			}
			var res handler.ViewportRadiusResponse
			r.decode(t, &res)
			if res.RadiusMeters != tt.radius {
				t.Errorf("expected radius %v, got %v", tt.radius, res.RadiusMeters)
			}
			if res.Center.Lat != 10.77 || res.Center.Lon != 106.7 {
				t.Errorf("unexpected center %v", res.Center)
			}
		})
	}
}

func TestViewportRadius_Bounds(t *testing.T) {
	app := setupApp(makeDeps())

	// About 11 km from center to the north-east corner.
	r := doGet(t, app, "/v1/viewport/radius?lat=10.77&lng=106.7&ne_lat=10.84&ne_lng=106.77&zoom=12")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var res handler.ViewportRadiusResponse
	r.decode(t, &res)
	if res.RadiusMeters < 10000 || res.RadiusMeters > 12000 {
		t.Errorf("expected about 11 km, got %v", res.RadiusMeters)
	}
	if res.Zoom != 12 {
		t.Errorf("expected zoom 12, got %v", res.Zoom)
	}
	if r.header("Cache-Control") != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", r.header("Cache-Control"))
	}
}

func TestViewportRadius_BadParams(t *testing.T) {
	app := setupApp(makeDeps())
	expectError(t, doGet(t, app, "/v1/viewport/radius"), 400, "bad_request")
	expectError(t, doGet(t, app, "/v1/viewport/radius?lat=10.77&lng=106.7&ne_lat=10.8"), 400, "bad_request")
	expectError(t, doGet(t, app, "/v1/viewport/radius?lat=10.77&lng=181"), 400, "bad_request")
}

// ---- Geocoding and directions ----

func TestGeocode(t *testing.T) {
	geo := &mockGeocoder{
		forwardFn: func(ctx context.Context, query string) (*domain.Coordinate, error) {
			if query != "Chợ Bến Thành" {
				return nil, domain.ErrNotFound
			}
			return domain.Coord(106.698, 10.772).Ptr(), nil
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.geocoder = geo }))

	r := doGet(t, app, "/v1/geocode?q=Ch%E1%BB%A3+B%E1%BA%BFn+Th%C3%A0nh")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var res struct {
		Location domain.Coordinate `json:"location"`
	}
	r.decode(t, &res)
	if res.Location.Lat != 10.772 || res.Location.Lon != 106.698 {
		t.Errorf("unexpected location %v", res.Location)
	}
	if r.header("Cache-Control") != "public, max-age=86400" {
		t.Errorf("unexpected Cache-Control %q", r.header("Cache-Control"))
	}

	expectError(t, doGet(t, app, "/v1/geocode?q=nowhere"), 404, "not_found")
	expectError(t, doGet(t, app, "/v1/geocode"), 400, "bad_request")
	expectError(t, doGet(t, app, "/v1/geocode?q="+strings.Repeat("a", 201)), 400, "bad_request")
}

func TestReverseGeocode_Fallback(t *testing.T) {
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, at domain.Coordinate) (string, error) {
			return "", fmt.Errorf("%w: mapbox down", domain.ErrUpstream)
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.geocoder = geo }))

	r := doGet(t, app, "/v1/geocode/reverse?lat=10.77&lng=106.7")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var res struct {
		Name string `json:"name"`
	}
	r.decode(t, &res)
	if res.Name != "10.770000, 106.700000" {
		t.Errorf("expected coordinate fallback, got %q", res.Name)
	}
}

func TestDirections(t *testing.T) {
	var gotMode domain.TravelMode
	dirs := &mockDirections{
		routeFn: func(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error) {
			gotMode = mode
			return &domain.Directions{Routes: []domain.DirectionsRoute{{Distance: 1500, Duration: 1260}}}, nil
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.directions = dirs }))

	r := doGet(t, app, "/v1/directions?from=106.7,10.77&to=106.69,10.78&mode=walking")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	if gotMode != domain.TravelWalking {
		t.Errorf("expected walking, got %s", gotMode)
	}
	var res struct {
		Mode         string `json:"mode"`
		ModeLabel    string `json:"mode_label"`
		DistanceText string `json:"distance_text"`
	}
	r.decode(t, &res)
	if res.Mode != "walking" || res.ModeLabel != "Đi bộ" {
		t.Errorf("unexpected mode %q label %q", res.Mode, res.ModeLabel)
	}
	if res.DistanceText != domain.FormatDistance(1500) {
		t.Errorf("unexpected distance text %q", res.DistanceText)
	}
}

func TestDirections_BadParams(t *testing.T) {
	app := setupApp(makeDeps())
	expectError(t, doGet(t, app, "/v1/directions?from=106.7&to=106.69,10.78"), 400, "bad_request")
	expectError(t, doGet(t, app, "/v1/directions?from=106.7,10.77&to=106.69,10.78&mode=teleport"), 400, "bad_request")
}

func TestDirections_NoRoute(t *testing.T) {
	dirs := &mockDirections{
		routeFn: func(ctx context.Context, mode domain.TravelMode, from, to domain.Coordinate) (*domain.Directions, error) {
			return &domain.Directions{}, nil
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.directions = dirs }))
	expectError(t, doGet(t, app, "/v1/directions?from=106.7,10.77&to=106.69,10.78"), 404, "not_found")
}

// ---- Comparison ----

func TestCompare_ByID(t *testing.T) {
	var got domain.AnalysisRequest
	an := &mockAnalyzer{
		analyzeFn: func(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
			got = req
			return &domain.AnalysisResponse{Success: true, Analysis: domain.Analysis{
				BestChoice: domain.BestChoice{RoomID: 2, Reason: "Rẻ nhất"},
			}}, nil
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = roomsByID(testRoom(1, domain.RoomTypeRoom, 3000000), testRoom(2, domain.RoomTypeRoom, 2500000))
		o.analyzer = an
	}))

	r := doJSON(t, app, "POST", "/v1/compare", map[string]any{
		"room_ids":    []int64{1, 2},
		"preferences": map[string]any{"budget": 3000000, "priorityFactors": []string{"price"}},
	})
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var res domain.AnalysisResponse
	r.decode(t, &res)
	if !res.Success || res.Analysis.BestChoice.RoomID != 2 {
		t.Errorf("unexpected analysis %+v", res)
	}
	if len(got.Rooms) != 2 || got.Preferences == nil || *got.Preferences.Budget != 3000000 {
		t.Errorf("unexpected analysis request %+v", got)
	}
}

func TestCompare_Errors(t *testing.T) {
	withAnalyzer := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = roomsByID(testRoom(1, domain.RoomTypeRoom, 3000000))
		o.analyzer = &mockAnalyzer{}
	}))

	expectError(t, doJSON(t, withAnalyzer, "POST", "/v1/compare", map[string]any{}), 400, "bad_request")
	expectError(t, doJSON(t, withAnalyzer, "POST", "/v1/compare", map[string]any{"room_ids": []int64{1}}), 400, "bad_request")
	expectError(t, doJSON(t, withAnalyzer, "POST", "/v1/compare", map[string]any{"room_ids": []int64{1, 99}}), 404, "not_found")

	rateLimited := setupApp(makeDeps(func(o *depsOptions) {
		o.analyzer = &mockAnalyzer{
			analyzeFn: func(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
				return nil, fmt.Errorf("%w: quota exceeded", domain.ErrRateLimited)
			},
		}
	}))
	rooms := []domain.Room{testRoom(1, domain.RoomTypeRoom, 1), testRoom(2, domain.RoomTypeRoom, 2)}
	expectError(t, doJSON(t, rateLimited, "POST", "/v1/compare", map[string]any{"rooms": rooms}), 429, "rate_limited")

	noAnalyzer := setupApp(makeDeps())
	expectError(t, doJSON(t, noAnalyzer, "POST", "/v1/compare", map[string]any{"rooms": rooms}), 503, "unavailable")
}

// ---- Viewings ----

func TestCreateViewing(t *testing.T) {
	pub := &mockPublisher{}
	app := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = roomsByID(testRoom(5, domain.RoomTypeRoom, 3000000))
		o.publisher = pub
	}))

	r := doJSON(t, app, "POST", "/v1/viewings", domain.ViewingRequest{
		RoomID:        5,
		FullName:      "Nguyễn Văn An",
		Phone:         "0912345678",
		PreferredTime: time.Now().Add(48 * time.Hour),
	})
	if r.status != 201 {
		t.Fatalf("expected 201, got %d: %s", r.status, r.body)
	}
	var v domain.RoomViewing
	r.decode(t, &v)
	if v.RoomID != 5 || v.FullName != "Nguyễn Văn An" {
		t.Errorf("unexpected viewing %+v", v)
	}
	if len(pub.viewings) != 1 || pub.viewings[0].RoomTitle != "Phòng 5" {
		t.Errorf("expected one viewing event for Phòng 5, got %+v", pub.viewings)
	}
}

func TestCreateViewing_Invalid(t *testing.T) {
	app := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = roomsByID(testRoom(5, domain.RoomTypeRoom, 3000000))
	}))

	past := doJSON(t, app, "POST", "/v1/viewings", domain.ViewingRequest{
		RoomID:        5,
		FullName:      "Nguyễn Văn An",
		Phone:         "0912345678",
		PreferredTime: time.Now().Add(-time.Hour),
	})
	expectError(t, past, 400, "bad_request")

	noName := doJSON(t, app, "POST", "/v1/viewings", domain.ViewingRequest{
		RoomID:        5,
		Phone:         "0912345678",
		PreferredTime: time.Now().Add(time.Hour),
	})
	expectError(t, noName, 400, "bad_request")

	unknownRoom := doJSON(t, app, "POST", "/v1/viewings", domain.ViewingRequest{
		RoomID:        77,
		FullName:      "Nguyễn Văn An",
		Phone:         "0912345678",
		PreferredTime: time.Now().Add(time.Hour),
	})
	expectError(t, unknownRoom, 404, "not_found")
}

func TestListViewings(t *testing.T) {
	repo := &mockViewingRepo{
		listFn: func(ctx context.Context) ([]domain.RoomViewing, error) {
			return []domain.RoomViewing{{ID: 1, RoomID: 5}, {ID: 2, RoomID: 6}}, nil
		},
	}
	app := setupApp(makeDeps(func(o *depsOptions) { o.viewings = repo }))

	r := doGet(t, app, "/v1/viewings")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var result struct {
		Data       []domain.RoomViewing `json:"data"`
		Pagination handler.Pagination   `json:"pagination"`
	}
	r.decode(t, &result)
	if result.Pagination.Total != 2 || len(result.Data) != 2 {
		t.Errorf("expected 2 viewings, got %+v", result.Pagination)
	}
	if r.header("Cache-Control") != "no-store" {
		t.Errorf("expected no-store, got %q", r.header("Cache-Control"))
	}
	if r.header("ETag") != "" {
		t.Errorf("expected no ETag on no-store responses, got %q", r.header("ETag"))
	}
}

// ---- GraphQL ----

func TestGraphQL_ViewportRadius(t *testing.T) {
	app := setupApp(makeDeps())

	r := doJSON(t, app, "POST", "/graphql", map[string]any{
		"query": `{ viewportRadius(lat: 10.77, lon: 106.7, zoom: 13) { radius zoom center { lat lon } } }`,
	})
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var res struct {
		Data struct {
			ViewportRadius struct {
				Radius float64 `json:"radius"`
				Zoom   float64 `json:"zoom"`
				Center struct {
					Lat float64 `json:"lat"`
				} `json:"center"`
			} `json:"viewportRadius"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	r.decode(t, &res)
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Data.ViewportRadius.Radius != domain.MinRadiusMeters {
		t.Errorf("expected %v, got %v", domain.MinRadiusMeters, res.Data.ViewportRadius.Radius)
	}
	if res.Data.ViewportRadius.Center.Lat != 10.77 {
		t.Errorf("unexpected center %+v", res.Data.ViewportRadius.Center)
	}
}

func TestGraphQL_Rooms(t *testing.T) {
	app := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = roomsByID(testRoom(1, domain.RoomTypeRoom, 2500000), testRoom(2, domain.RoomTypeStudio, 4000000))
	}))

	r := doJSON(t, app, "POST", "/graphql", map[string]any{
		"query": `{ rooms(address: "Quận 1") { id title roomType phone location { lat } } }`,
	})
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var res struct {
		Data struct {
			Rooms []struct {
				ID    int    `json:"id"`
				Title string `json:"title"`
				Phone string `json:"phone"`
			} `json:"rooms"`
		} `json:"data"`
	}
	r.decode(t, &res)
	if len(res.Data.Rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(res.Data.Rooms))
	}
	if res.Data.Rooms[0].Phone != "0901234567" {
		t.Errorf("unexpected phone %q", res.Data.Rooms[0].Phone)
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	app := setupApp(makeDeps())
	expectError(t, doJSON(t, app, "POST", "/graphql", map[string]any{"query": ""}), 400, "bad_request")
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	r := doGet(t, app, "/v1/health")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d", r.status)
	}
	var res map[string]string
	r.decode(t, &res)
	if res["status"] != "healthy" || res["version"] != "test" {
		t.Errorf("unexpected health %v", res)
	}
}

func TestReady(t *testing.T) {
	app := setupApp(makeDeps())
	r := doGet(t, app, "/v1/ready")
	if r.status != 200 {
		t.Fatalf("expected 200, got %d: %s", r.status, r.body)
	}
	var res struct {
		Checks map[string]string `json:"checks"`
	}
	r.decode(t, &res)
	if res.Checks["rooms_api"] != "ok" || res.Checks["cache"] != "not configured" {
		t.Errorf("unexpected checks %v", res.Checks)
	}

	down := setupApp(makeDeps(func(o *depsOptions) {
		o.rooms = &mockRoomRepo{pingFn: func(ctx context.Context) error {
			return fmt.Errorf("%w: connection refused", domain.ErrUpstream)
		}}
	}))
	if r := doGet(t, down, "/v1/ready"); r.status != 503 {
		t.Fatalf("expected 503, got %d", r.status)
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(makeDeps())
	r := doGet(t, app, "/v1/health")
	if r.header("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing nosniff header")
	}
	if r.header("X-Request-ID") == "" {
		t.Errorf("missing request id")
	}
}
