package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/usecases"
	"github.com/samirrijal/roomradar/internal/core/viewport"
	"github.com/samirrijal/roomradar/internal/pkg/metrics"
)

const actionTimeout = 15 * time.Second

// Client message types on /ws/map.
const (
	msgReady          = "ready"
	msgMove           = "move"
	msgGPS            = "gps"
	msgSearch         = "search"
	msgFilter         = "filter"
	msgApply          = "apply"
	msgReset          = "reset"
	msgSelect         = "select"
	msgFlyTo          = "fly_to"
	msgCompareAdd     = "compare_add"
	msgCompareRemove  = "compare_remove"
	msgCompareClear   = "compare_clear"
	msgCompare        = "compare"
	msgDirections     = "directions"
	msgDirectionsDone = "directions_close"
	msgPickOrigin     = "pick_origin"
	msgOriginPicked   = "origin_picked"
)

// Server message types on /ws/map.
const (
	outRadius     = "radius"
	outRooms      = "rooms"
	outState      = "state"
	outDirections = "directions"
	outAnalysis   = "analysis"
	outError      = "error"
)

// ClientMessage is a message from the map page.
type ClientMessage struct {
	Type        string                  `json:"type"`
	Viewport    *domain.ViewportState   `json:"viewport,omitempty"`
	At          *domain.Coordinate      `json:"at,omitempty"`
	Address     string                  `json:"address,omitempty"`
	Field       string                  `json:"field,omitempty"`
	Value       string                  `json:"value,omitempty"`
	Room        *domain.Room            `json:"room,omitempty"`
	RoomID      int64                   `json:"room_id,omitempty"`
	Mode        string                  `json:"mode,omitempty"`
	Preferences *domain.UserPreferences `json:"preferences,omitempty"`
}

// ServerMessage is pushed to the map page.
type ServerMessage struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Initial bool   `json:"initial,omitempty"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MapSession couples one client's search state with its viewport
// controller. Accepted radius emissions update the session, are pushed to
// the client, announced on the broker and refresh the room list.
type MapSession struct {
	deps    *Dependencies
	session *usecases.SearchSession
	ctrl    *viewport.Controller
	send    func(ServerMessage) error
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// written by RadiusEmitted right before onRadius, both under the
	// controller's emission lock
	initial bool
}

// NewMapSession starts a session. send must be safe for concurrent use.
func NewMapSession(ctx context.Context, deps *Dependencies, send func(ServerMessage) error) *MapSession {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	m := &MapSession{
		deps:    deps,
		session: usecases.NewSearchSession(id, deps.Geocoding),
		send:    send,
		log:     slog.Default().With("session", id),
		ctx:     ctx,
		cancel:  cancel,
	}

	opts := []viewport.Option{
		viewport.WithLogger(m.log),
		viewport.WithObserver(m),
	}
	if deps.Viewport.Scheduler != nil {
		opts = append(opts, viewport.WithScheduler(deps.Viewport.Scheduler))
	}
	if deps.Viewport.Debounce > 0 {
		opts = append(opts, viewport.WithDebounce(deps.Viewport.Debounce))
	}
	if deps.Viewport.Threshold > 0 {
		opts = append(opts, viewport.WithThreshold(deps.Viewport.Threshold))
	}
	m.ctrl = viewport.New(m.session.Origin, m.onRadius, opts...)
	return m
}

func (m *MapSession) ID() string { return m.session.ID() }

// Close stops the controller. No radius is emitted afterwards.
func (m *MapSession) Close() {
	m.cancel()
	m.ctrl.Close()
}

// RadiusEmitted implements viewport.Observer.
func (m *MapSession) RadiusEmitted(q domain.RadiusQuery, initial bool) {
	m.initial = initial
	metrics.ViewportObserver{}.RadiusEmitted(q, initial)
}

// RadiusDiscarded implements viewport.Observer.
func (m *MapSession) RadiusDiscarded(candidate, previous float64) {
	metrics.ViewportObserver{}.RadiusDiscarded(candidate, previous)
}

// onRadius runs for every emission, serialized by the controller.
func (m *MapSession) onRadius(q domain.RadiusQuery) {
	initial := m.initial

	m.session.OnRadiusQuery(q)
	m.push(ServerMessage{Type: outRadius, Data: q, Initial: initial})

	if m.deps.Publisher != nil {
		ctx, cancel := context.WithTimeout(m.ctx, 2*time.Second)
		if err := m.deps.Publisher.PublishRadiusQuery(ctx, m.ID(), q); err != nil {
			m.log.Warn("publish radius query", "error", err)
		}
		cancel()
	}

	m.refreshRooms()
}

func (m *MapSession) refreshRooms() {
	params, ok := m.session.QueryParams()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
	defer cancel()

	rooms, err := m.deps.Rooms.Search(ctx, params)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.pushError(err)
		}
		return
	}
	m.push(ServerMessage{Type: outRooms, Data: rooms})
}

func (m *MapSession) push(msg ServerMessage) {
	if err := m.send(msg); err != nil {
		m.log.Debug("send to client failed", "type", msg.Type, "error", err)
	}
}

func (m *MapSession) pushError(err error) {
	m.push(ServerMessage{Type: outError, Status: statusOf(err), Error: err.Error()})
}

func (m *MapSession) pushState() {
	m.push(ServerMessage{Type: outState, Data: m.session.Snapshot()})
}

// Handle processes one raw client message.
func (m *MapSession) Handle(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.pushError(fmt.Errorf("%w: invalid JSON", domain.ErrInvalidInput))
		return
	}
	if err := m.dispatch(msg); err != nil {
		m.pushError(err)
	}
}

func (m *MapSession) dispatch(msg ClientMessage) error {
	ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
	defer cancel()

	switch msg.Type {
	case msgReady, msgMove:
		if msg.Viewport == nil {
			return fmt.Errorf("%w: %s needs a viewport", domain.ErrInvalidInput, msg.Type)
		}
		if msg.Type == msgReady {
			m.ctrl.Ready(*msg.Viewport)
			return nil
		}
		m.ctrl.ViewportMoved(*msg.Viewport)
		return nil

	case msgGPS:
		if msg.At == nil {
			return fmt.Errorf("%w: gps needs a position", domain.ErrInvalidInput)
		}
		if err := m.session.UseGPS(ctx, *msg.At); err != nil {
			return err
		}
		m.afterSearchChange()

	case msgSearch:
		if err := m.session.SearchAddress(ctx, msg.Address); err != nil {
			return err
		}
		m.afterSearchChange()

	case msgFilter:
		if err := m.session.SetFilter(msg.Field, msg.Value); err != nil {
			return err
		}
		m.pushState()

	case msgApply:
		if err := m.session.ApplyFilters(ctx); err != nil {
			return err
		}
		m.afterSearchChange()

	case msgReset:
		m.session.ResetFilters()
		m.afterSearchChange()

	case msgSelect, msgFlyTo, msgCompareAdd, msgDirections:
		room, err := m.room(ctx, msg)
		if err != nil {
			return err
		}
		switch msg.Type {
		case msgSelect:
			m.session.SelectRoom(*room)
		case msgFlyTo:
			m.session.FlyToRoom(*room)
		case msgCompareAdd:
			if !m.session.AddToComparison(*room) {
				return fmt.Errorf("%w: room %d cannot be added to the comparison", domain.ErrInvalidInput, room.Properties.ID)
			}
		case msgDirections:
			mode, err := domain.ParseTravelMode(msg.Mode)
			if err != nil {
				return err
			}
			m.session.ShowDirections(*room, mode)
			if err := m.routeDirections(ctx); err != nil {
				m.pushState()
				return err
			}
		}
		m.pushState()

	case msgCompareRemove:
		m.session.RemoveFromComparison(msg.RoomID)
		m.pushState()

	case msgCompareClear:
		m.session.ClearComparison()
		m.pushState()

	case msgCompare:
		if m.deps.Comparison == nil {
			return fmt.Errorf("%w: AI assistant", domain.ErrNotConfigured)
		}
		res, err := m.deps.Comparison.Compare(ctx, m.session.Comparison(), msg.Preferences)
		if err != nil {
			return err
		}
		m.push(ServerMessage{Type: outAnalysis, Data: res})

	case msgDirectionsDone:
		m.session.CloseDirections()
		m.pushState()

	case msgPickOrigin:
		m.session.RequestPickOrigin()
		m.pushState()

	case msgOriginPicked:
		if msg.At == nil {
			return fmt.Errorf("%w: origin_picked needs a position", domain.ErrInvalidInput)
		}
		m.session.OriginPicked(*msg.At)
		if err := m.routeDirections(ctx); err != nil {
			m.pushState()
			return err
		}
		m.pushState()

	default:
		return fmt.Errorf("%w: unknown message type %q", domain.ErrInvalidInput, msg.Type)
	}
	return nil
}

// afterSearchChange publishes the new state and the rooms around the new
// search origin.
func (m *MapSession) afterSearchChange() {
	m.pushState()
	m.refreshRooms()
}

func (m *MapSession) room(ctx context.Context, msg ClientMessage) (*domain.Room, error) {
	if msg.Room != nil {
		return msg.Room, nil
	}
	if msg.RoomID <= 0 {
		return nil, fmt.Errorf("%w: %s needs a room or room_id", domain.ErrInvalidInput, msg.Type)
	}
	return m.deps.Rooms.GetByID(ctx, msg.RoomID)
}

func (m *MapSession) routeDirections(ctx context.Context) error {
	if m.deps.Directions == nil {
		return fmt.Errorf("%w: directions", domain.ErrNotConfigured)
	}
	mode, from, to, err := m.session.DirectionsRequest()
	if err != nil {
		return err
	}
	d, err := m.deps.Directions.Route(ctx, mode, from, to)
	if err != nil {
		return err
	}
	m.push(ServerMessage{Type: outDirections, Data: directionsView(d)})
	return nil
}

// MapSessionHandler serves /ws/map: one MapSession per connection, torn
// down on disconnect.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		var mu sync.Mutex
		send := func(msg ServerMessage) error {
			data, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		ms := NewMapSession(context.Background(), deps, send)
		metrics.MapSessionsActive.Inc()
		ms.log.Info("map session opened", "remote", c.RemoteAddr().String())
		defer func() {
			ms.Close()
			metrics.MapSessionsActive.Dec()
			ms.log.Info("map session closed")
		}()

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		ms.pushState()
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			ms.Handle(raw)
		}
	}
}
