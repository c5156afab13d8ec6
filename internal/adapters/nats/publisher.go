package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

const (
	SubjectRadiusPrefix     = "rooms.search.radius."
	SubjectViewingRequested = "rooms.viewing.requested"

	viewingConsumer = "viewing-booker"
)

// Streams are created or updated on connect.
var Streams = []nats.StreamConfig{
	{
		Name:      "ROOM_SEARCH",
		Subjects:  []string{"rooms.search.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    10 * time.Minute,
		Storage:   nats.MemoryStorage,
	},
	{
		Name:      "ROOM_VIEWINGS",
		Subjects:  []string{"rooms.viewing.>"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// RadiusEvent is the payload of rooms.search.radius.<session>.
type RadiusEvent struct {
	SessionID    string            `json:"session_id"`
	Center       domain.Coordinate `json:"center"`
	RadiusMeters float64           `json:"radius_meters"`
	EmittedAt    time.Time         `json:"emitted_at"`
}

// RadiusSubject is the subject a session's emissions are published on.
func RadiusSubject(sessionID string) string {
	return SubjectRadiusPrefix + sessionID
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	now  func() time.Time
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js, now: time.Now}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	for _, cfg := range Streams {
		cfg := cfg
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

func (p *Publisher) PublishRadiusQuery(ctx context.Context, sessionID string, q domain.RadiusQuery) error {
	data, err := json.Marshal(RadiusEvent{
		SessionID:    sessionID,
		Center:       q.Center,
		RadiusMeters: q.RadiusMeters,
		EmittedAt:    p.now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(RadiusSubject(sessionID), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishViewingRequested(ctx context.Context, event *domain.ViewingRequested) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectViewingRequested, data,
		nats.Context(ctx),
		nats.MsgId(viewingMsgID(event)),
	)
	return err
}

// viewingMsgID lets JetStream drop duplicate publishes of one booking.
func viewingMsgID(event *domain.ViewingRequested) string {
	return fmt.Sprintf("viewing-%d-%d", event.Viewing.RoomID, event.Viewing.ID)
}

// Ping reports whether the connection is usable.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return p.conn.FlushWithContext(ctx)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection with reconnects enabled.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("roomradar"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
