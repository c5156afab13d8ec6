package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/viewport"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// optionalFloat parses an optional numeric query parameter.
func optionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

// coordinateParam parses "lng,lat".
func coordinateParam(c *fiber.Ctx, key string) (domain.Coordinate, error) {
	parts := strings.Split(c.Query(key), ",")
	if len(parts) != 2 {
		return domain.Coordinate{}, fmt.Errorf("%s must be lng,lat", key)
	}
	lon, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return domain.Coordinate{}, fmt.Errorf("%s must be lng,lat", key)
	}
	at := domain.Coord(lon, lat)
	if !at.Valid() {
		return domain.Coordinate{}, fmt.Errorf("%s is out of range", key)
	}
	return at, nil
}

// pointParams reads a coordinate given as two query parameters. Both must
// be present or both absent.
func pointParams(c *fiber.Ctx, latKey, lngKey string) (*domain.Coordinate, error) {
	lat, err := optionalFloat(c, latKey)
	if err != nil {
		return nil, err
	}
	lng, err := optionalFloat(c, lngKey)
	if err != nil {
		return nil, err
	}
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, fmt.Errorf("%s and %s must be given together", latKey, lngKey)
	}
	at := domain.Coord(*lng, *lat)
	if !at.Valid() {
		return nil, fmt.Errorf("%s,%s is out of range", latKey, lngKey)
	}
	return &at, nil
}

// searchParams reads room filters from the query string.
func searchParams(c *fiber.Ctx) (domain.RoomSearchParams, error) {
	p := domain.RoomSearchParams{
		Address:  strings.TrimSpace(c.Query("address")),
		RoomType: domain.RoomType(c.Query("roomType")),
		Status:   domain.RoomStatus(c.Query("status")),
	}

	floats := []struct {
		key string
		dst **float64
	}{
		{"minPrice", &p.MinPrice},
		{"maxPrice", &p.MaxPrice},
		{"minArea", &p.MinArea},
		{"maxArea", &p.MaxArea},
	}
	for _, f := range floats {
		v, err := optionalFloat(c, f.key)
		if err != nil {
			return p, err
		}
		*f.dst = v
	}

	if v, err := optionalFloat(c, "addressRadius"); err != nil {
		return p, err
	} else if v != nil {
		p.AddressRadius = *v
	}

	near, err := pointParams(c, "lat", "lng")
	if err != nil {
		return p, err
	}
	p.Near = near
	if v, err := optionalFloat(c, "radius"); err != nil {
		return p, err
	} else if v != nil {
		p.Radius = *v
	}

	bounds := make([]*float64, 4)
	for i, key := range []string{"north", "south", "east", "west"} {
		v, err := optionalFloat(c, key)
		if err != nil {
			return p, err
		}
		bounds[i] = v
	}
	switch {
	case bounds[0] != nil && bounds[1] != nil && bounds[2] != nil && bounds[3] != nil:
		p.Bounds = &domain.Bounds{North: *bounds[0], South: *bounds[1], East: *bounds[2], West: *bounds[3]}
	case bounds[0] != nil || bounds[1] != nil || bounds[2] != nil || bounds[3] != nil:
		return p, fmt.Errorf("north, south, east and west must be given together")
	}

	return p, nil
}

func pageParams(c *fiber.Ctx) (offset, limit int) {
	offset = c.QueryInt("offset", 0)
	limit = c.QueryInt("limit", defaultPageLimit)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return offset, limit
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ListRoomsHandler searches rooms and pages through the results.
func ListRoomsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params, err := searchParams(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		rooms, err := deps.Rooms.Search(c.UserContext(), params)
		if err != nil {
			return errFrom(c, err)
		}

		offset, limit := pageParams(c)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(rooms)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: paginate(rooms, offset, limit), Pagination: pg})
	}
}

// NearbyRoomsHandler is the legacy point search. It requires lat and lng.
func NearbyRoomsHandler(deps *Dependencies) fiber.Handler {
	list := ListRoomsHandler(deps)
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return errBadRequest(c, "lat and lng are required")
		}
		return list(c)
	}
}

func roomID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("room id must be a positive integer")
	}
	return id, nil
}

// GetRoomHandler returns one room. ?include=image adds an illustration.
func GetRoomHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := roomID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		withImage := c.Query("include") == "image"
		detail, err := deps.Rooms.Detail(c.UserContext(), id, withImage, domain.RoomType(c.Query("type")))
		if err != nil {
			return errFrom(c, err)
		}
		if !withImage {
			return c.JSON(detail.Room)
		}
		return c.JSON(detail)
	}
}

// RoomImageHandler returns the stock picture for a room.
func RoomImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := roomID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		roomType := domain.RoomType(c.Query("type"))
		if !roomType.Valid() {
			return errBadRequest(c, "type must be one of room, studio, apartment")
		}

		img, err := deps.Rooms.RandomImage(c.UserContext(), roomType, id)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(img)
	}
}

// ViewportRadiusResponse is the answer of the stateless reconciler.
type ViewportRadiusResponse struct {
	domain.RadiusQuery
	Origin *domain.Coordinate `json:"origin,omitempty"`
}

// ViewportRadiusHandler computes the search radius for a viewport without
// any session: the radius covering the visible map plus the distance from
// the optional search origin.
func ViewportRadiusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := pointParams(c, "lat", "lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if center == nil {
			return errBadRequest(c, "lat and lng are required")
		}
		ne, err := pointParams(c, "ne_lat", "ne_lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		origin, err := pointParams(c, "origin_lat", "origin_lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		vp := domain.ViewportState{
			Center:    *center,
			Zoom:      c.QueryFloat("zoom", 0),
			NorthEast: ne,
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(ViewportRadiusResponse{
			RadiusQuery: viewport.Candidate(origin, vp),
			Origin:      origin,
		})
	}
}

// GeocodeHandler resolves an address to a coordinate.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		at, err := deps.Geocoding.Forward(c.UserContext(), q)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"query": q, "location": at})
	}
}

// ReverseGeocodeHandler names the place at a coordinate.
func ReverseGeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		at, err := pointParams(c, "lat", "lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if at == nil {
			return errBadRequest(c, "lat and lng are required")
		}

		name, err := deps.Geocoding.Reverse(c.UserContext(), *at)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"location": at, "name": name})
	}
}

// DirectionsHandler routes between two points.
func DirectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := coordinateParam(c, "from")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := coordinateParam(c, "to")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		mode, err := domain.ParseTravelMode(c.Query("mode"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		d, err := deps.Directions.Route(c.UserContext(), mode, from, to)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(directionsView(d))
	}
}

// DirectionsView adds display strings to a directions answer.
type DirectionsView struct {
	*domain.Directions
	ModeLabel    string `json:"mode_label"`
	DistanceText string `json:"distance_text,omitempty"`
	DurationText string `json:"duration_text,omitempty"`
}

func directionsView(d *domain.Directions) DirectionsView {
	v := DirectionsView{Directions: d, ModeLabel: d.Mode.Label()}
	if len(d.Routes) > 0 {
		v.DistanceText = domain.FormatDistance(d.Routes[0].Distance)
		v.DurationText = domain.FormatDuration(d.Routes[0].Duration)
	}
	return v
}

// CompareRequest asks for an AI comparison of 2 to 3 rooms, either inline
// or by ID.
type CompareRequest struct {
	RoomIDs     []int64                 `json:"room_ids"`
	Rooms       []domain.Room           `json:"rooms"`
	Preferences *domain.UserPreferences `json:"preferences"`
}

// CompareHandler ranks rooms with the AI assistant.
func CompareHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CompareRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		var (
			res *domain.AnalysisResponse
			err error
		)
		switch {
		case len(req.Rooms) > 0:
			res, err = deps.Comparison.Compare(c.UserContext(), req.Rooms, req.Preferences)
		case len(req.RoomIDs) > 0:
			res, err = deps.Comparison.CompareByID(c.UserContext(), req.RoomIDs, req.Preferences)
		default:
			return errBadRequest(c, "rooms or room_ids is required")
		}
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(res)
	}
}

// ListViewingsHandler returns booked viewings.
func ListViewingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewings, err := deps.Viewings.List(c.UserContext())
		if err != nil {
			return errFrom(c, err)
		}

		offset, limit := pageParams(c)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(viewings)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: paginate(viewings, offset, limit), Pagination: pg})
	}
}

// CreateViewingHandler books a viewing.
func CreateViewingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ViewingRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		v, err := deps.Viewings.Book(c.UserContext(), req)
		if err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}
