package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

// AddressResolver is the geocoding a map session needs.
type AddressResolver interface {
	Forward(ctx context.Context, address string) (*domain.Coordinate, error)
	Reverse(ctx context.Context, at domain.Coordinate) (string, error)
}

// Filter field names accepted by SetFilter.
const (
	FilterAddress       = "address"
	FilterAddressRadius = "addressRadius"
	FilterMinPrice      = "minPrice"
	FilterMaxPrice      = "maxPrice"
	FilterMinArea       = "minArea"
	FilterMaxArea       = "maxArea"
	FilterRoomType      = "roomType"
)

// DirectionsState is the directions panel of a session.
type DirectionsState struct {
	Room          *domain.Room       `json:"room,omitempty"`
	CustomOrigin  *domain.Coordinate `json:"custom_origin,omitempty"`
	PickingOrigin bool               `json:"picking_origin"`
	Mode          domain.TravelMode  `json:"mode"`
}

// SessionSnapshot is a copy of the session state for clients.
type SessionSnapshot struct {
	ID            string               `json:"id"`
	Draft         domain.FilterValues  `json:"draft"`
	Applied       *domain.FilterValues `json:"applied"`
	Center        *domain.Coordinate   `json:"center"`
	UserLocation  *domain.Coordinate   `json:"user_location"`
	Origin        *domain.Coordinate   `json:"origin"`
	CurrentRadius float64              `json:"current_radius"`
	Selected      *domain.Room         `json:"selected,omitempty"`
	Comparison    []domain.Room        `json:"comparison"`
	Directions    DirectionsState      `json:"directions"`
}

// SearchSession is the state of one client's search map: filters, map
// center, GPS location, the search origin and the radius last reported by
// the viewport controller.
//
// The search origin only changes through explicit actions (GPS fix, address
// search, applying filters, reset). Map movement never touches it.
type SearchSession struct {
	mu sync.Mutex

	id       string
	resolver AddressResolver

	draft         domain.FilterValues
	applied       *domain.FilterValues
	center        *domain.Coordinate
	userLocation  *domain.Coordinate
	origin        *domain.Coordinate
	currentRadius float64
	selected      *domain.Room
	comparison    []domain.Room
	directions    DirectionsState
}

// NewSearchSession creates a session with the initial filters and no
// applied search.
func NewSearchSession(id string, resolver AddressResolver) *SearchSession {
	return &SearchSession{
		id:            id,
		resolver:      resolver,
		draft:         domain.InitialFilters(),
		currentRadius: domain.DefaultRadiusMeters,
		directions:    DirectionsState{Mode: domain.TravelDriving},
	}
}

func (s *SearchSession) ID() string { return s.id }

// Origin returns the current search origin. It is the viewport
// controller's origin provider.
func (s *SearchSession) Origin() *domain.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCoord(s.origin)
}

// UseGPS handles a GPS fix: the map centers on it, it becomes the search
// origin and the user marker, and the reverse geocoded address is applied
// as a fresh search.
func (s *SearchSession) UseGPS(ctx context.Context, at domain.Coordinate) error {
	if !at.Valid() {
		return fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidInput)
	}

	address, err := s.resolver.Reverse(ctx, at)
	if err != nil {
		address = FormatLatLon(at)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.center = at.Ptr()
	s.origin = at.Ptr()
	s.userLocation = at.Ptr()

	f := domain.InitialFilters()
	f.Address = address
	s.draft = f
	s.applied = &f
	return nil
}

// SearchAddress geocodes address and starts a fresh search around it.
func (s *SearchSession) SearchAddress(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	at, err := s.resolver.Forward(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("%w: address %q not found", domain.ErrNotFound, address)
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.center = copyCoord(at)
	s.origin = copyCoord(at)

	f := domain.InitialFilters()
	f.Address = address
	s.draft = f
	s.applied = &f
	return nil
}

// SetFilter edits one field of the draft filters. Numeric fields accept an
// empty value to clear them.
func (s *SearchSession) SetFilter(field, value string) error {
	value = strings.TrimSpace(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch field {
	case FilterAddress:
		s.draft.Address = value
	case FilterAddressRadius:
		v, err := parseOptionalFloat(field, value)
		if err != nil {
			return err
		}
		if v == nil {
			s.draft.AddressRadius = domain.DefaultRadiusMeters
		} else {
			s.draft.AddressRadius = *v
		}
	case FilterMinPrice, FilterMaxPrice, FilterMinArea, FilterMaxArea:
		v, err := parseOptionalFloat(field, value)
		if err != nil {
			return err
		}
		switch field {
		case FilterMinPrice:
			s.draft.MinPrice = v
		case FilterMaxPrice:
			s.draft.MaxPrice = v
		case FilterMinArea:
			s.draft.MinArea = v
		default:
			s.draft.MaxArea = v
		}
	case FilterRoomType:
		rt := domain.RoomType(value)
		if rt != "" && !rt.Valid() {
			return fmt.Errorf("%w: unknown room type %q", domain.ErrInvalidInput, value)
		}
		s.draft.RoomType = rt
	default:
		return fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidInput, field)
	}
	return nil
}

func parseOptionalFloat(field, value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, field)
	}
	return &v, nil
}

// ApplyFilters makes the draft the applied search. When the address
// geocodes, the map and the search origin move there; otherwise they stay.
func (s *SearchSession) ApplyFilters(ctx context.Context) error {
	s.mu.Lock()
	f := s.draft
	s.applied = &f
	address := f.Address
	s.mu.Unlock()

	if address == "" {
		return nil
	}

	at, err := s.resolver.Forward(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = copyCoord(at)
	s.origin = copyCoord(at)
	return nil
}

// ResetFilters restores the initial filters and clears the selection, the
// map center, the search origin and the user location.
func (s *SearchSession) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := domain.InitialFilters()
	s.draft = f
	s.applied = &f
	s.selected = nil
	s.center = nil
	s.origin = nil
	s.userLocation = nil
}

// SelectRoom highlights room without moving the map.
func (s *SearchSession) SelectRoom(room domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &room
}

// FlyToRoom selects room and centers the map on it.
func (s *SearchSession) FlyToRoom(room domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &room
	s.center = room.Location().Ptr()
}

// OnRadiusQuery records a radius emitted by the viewport controller.
func (s *SearchSession) OnRadiusQuery(q domain.RadiusQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRadius = q.RadiusMeters
}

// QueryParams builds the rooms API query from the applied filters and the
// current map radius. It reports false until a search has been applied.
func (s *SearchSession) QueryParams() (domain.RoomSearchParams, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied == nil {
		return domain.RoomSearchParams{}, false
	}
	a := s.applied

	radius := s.currentRadius
	if radius == 0 {
		radius = a.AddressRadius
	}
	if radius == 0 {
		radius = domain.DefaultRadiusMeters
	}

	return domain.RoomSearchParams{
		Address:       a.Address,
		AddressRadius: radius,
		MinPrice:      nonZero(a.MinPrice),
		MaxPrice:      nonZero(a.MaxPrice),
		MinArea:       nonZero(a.MinArea),
		MaxArea:       nonZero(a.MaxArea),
		RoomType:      a.RoomType,
	}, true
}

func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	c := *v
	return &c
}

// AddToComparison adds room to the comparison list. It reports false when
// the list is full or already has the room.
func (s *SearchSession) AddToComparison(room domain.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.comparison) >= domain.MaxCompareRooms {
		return false
	}
	for _, r := range s.comparison {
		if r.Properties.ID == room.Properties.ID {
			return false
		}
	}
	s.comparison = append(s.comparison, room)
	return true
}

func (s *SearchSession) RemoveFromComparison(roomID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.comparison[:0]
	for _, r := range s.comparison {
		if r.Properties.ID != roomID {
			kept = append(kept, r)
		}
	}
	s.comparison = kept
}

func (s *SearchSession) ClearComparison() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparison = nil
}

// Comparison returns a copy of the comparison list.
func (s *SearchSession) Comparison() []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Room(nil), s.comparison...)
}

// ShowDirections opens the directions panel for room.
func (s *SearchSession) ShowDirections(room domain.Room, mode domain.TravelMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directions.Room = &room
	if mode != "" {
		s.directions.Mode = mode
	}
}

// CloseDirections closes the panel and forgets any picked origin.
func (s *SearchSession) CloseDirections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directions = DirectionsState{Mode: s.directions.Mode}
}

// RequestPickOrigin arms picking the directions origin on the map.
func (s *SearchSession) RequestPickOrigin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directions.PickingOrigin = true
}

// OriginPicked sets a custom directions origin.
func (s *SearchSession) OriginPicked(at domain.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directions.CustomOrigin = at.Ptr()
	s.directions.PickingOrigin = false
}

// DirectionsRequest returns the mode and endpoints for the open
// directions panel.
func (s *SearchSession) DirectionsRequest() (mode domain.TravelMode, from, to domain.Coordinate, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.directions.Room == nil {
		return "", from, to, fmt.Errorf("%w: no room selected for directions", domain.ErrInvalidInput)
	}
	from, err = ResolveOrigin(s.directions.CustomOrigin, s.userLocation)
	if err != nil {
		return "", from, to, err
	}
	return s.directions.Mode, from, s.directions.Room.Location(), nil
}

// Snapshot returns a copy of the whole session state.
func (s *SearchSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		ID:            s.id,
		Draft:         s.draft,
		Center:        copyCoord(s.center),
		UserLocation:  copyCoord(s.userLocation),
		Origin:        copyCoord(s.origin),
		CurrentRadius: s.currentRadius,
		Selected:      s.selected,
		Comparison:    append([]domain.Room{}, s.comparison...),
		Directions:    s.directions,
	}
	if s.applied != nil {
		a := *s.applied
		snap.Applied = &a
	}
	return snap
}

func copyCoord(c *domain.Coordinate) *domain.Coordinate {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}
