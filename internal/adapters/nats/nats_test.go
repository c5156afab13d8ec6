package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

func TestRadiusSubject(t *testing.T) {
	assert.Equal(t, "rooms.search.radius.abc-123", RadiusSubject("abc-123"))
}

func TestStreamsCoverSubjects(t *testing.T) {
	subjects := map[string]bool{}
	for _, s := range Streams {
		for _, subj := range s.Subjects {
			subjects[subj] = true
		}
	}
	assert.True(t, subjects["rooms.search.>"])
	assert.True(t, subjects["rooms.viewing.>"])
}

func TestRadiusEventJSON(t *testing.T) {
	ev := RadiusEvent{
		SessionID:    "s1",
		Center:       domain.Coord(106.7, 10.77),
		RadiusMeters: 12000,
		EmittedAt:    time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"s1","center":[106.7,10.77],"radius_meters":12000,"emitted_at":"2026-10-19T00:00:00Z"}`, string(data))
}

func viewingEvent(roomID int64) []byte {
	data, _ := json.Marshal(domain.ViewingRequested{
		Viewing:   domain.RoomViewing{ID: 9, RoomID: roomID, FullName: "Nguyễn Văn A", Phone: "0901234567"},
		RoomTitle: "Phòng trọ Quận 1",
	})
	return data
}

func TestHandleViewing(t *testing.T) {
	var got *domain.ViewingRequested
	action := handleViewing(context.Background(), viewingEvent(42), func(_ context.Context, ev *domain.ViewingRequested) error {
		got = ev
		return nil
	})
	assert.Equal(t, ack, action)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.Viewing.RoomID)
	assert.Equal(t, "Phòng trọ Quận 1", got.RoomTitle)
}

func TestHandleViewing_HandlerErrorRedelivers(t *testing.T) {
	action := handleViewing(context.Background(), viewingEvent(42), func(context.Context, *domain.ViewingRequested) error {
		return errors.New("temporal unavailable")
	})
	assert.Equal(t, nak, action)
}

func TestHandleViewing_Malformed(t *testing.T) {
	called := false
	h := func(context.Context, *domain.ViewingRequested) error { called = true; return nil }

	assert.Equal(t, term, handleViewing(context.Background(), []byte("{not json"), h))
	assert.Equal(t, term, handleViewing(context.Background(), viewingEvent(0), h))
	assert.False(t, called)
}

func TestViewingMsgID(t *testing.T) {
	ev := &domain.ViewingRequested{Viewing: domain.RoomViewing{ID: 7, RoomID: 3}}
	assert.Equal(t, "viewing-3-7", viewingMsgID(ev))
}
