package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// ViewingHandler processes one booked viewing.
type ViewingHandler func(ctx context.Context, event *domain.ViewingRequested) error

// ackAction is what to do with a delivered message.
type ackAction int

const (
	ack ackAction = iota
	nak
	term
)

// handleViewing decodes a message and runs handler. Undecodable messages
// are terminated so they are not redelivered.
func handleViewing(ctx context.Context, data []byte, handler ViewingHandler) ackAction {
	var event domain.ViewingRequested
	if err := json.Unmarshal(data, &event); err != nil {
		slog.WarnContext(ctx, "dropping malformed viewing event", "error", err)
		return term
	}
	if event.Viewing.RoomID <= 0 {
		slog.WarnContext(ctx, "dropping viewing event without room", "viewing_id", event.Viewing.ID)
		return term
	}
	if err := handler(ctx, &event); err != nil {
		slog.ErrorContext(ctx, "viewing handler failed", "room_id", event.Viewing.RoomID, "error", err)
		return nak
	}
	return ack
}

func (s *Subscriber) SubscribeViewingRequests(ctx context.Context, handler func(ctx context.Context, event *domain.ViewingRequested) error) error {
	sub, err := s.js.Subscribe(SubjectViewingRequested, func(msg *nats.Msg) {
		switch handleViewing(ctx, msg.Data, handler) {
		case ack:
			_ = msg.Ack()
		case nak:
			_ = msg.Nak()
		case term:
			_ = msg.Term()
		}
	},
		nats.Durable(viewingConsumer),
		nats.ManualAck(),
		nats.MaxDeliver(5),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
