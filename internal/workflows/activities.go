package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/ports"
	"github.com/samirrijal/roomradar/internal/pkg/metrics"
)

// Times in messages are shown in Vietnam local time.
var vietnam = time.FixedZone("ICT", 7*60*60)

const timeLayout = "15:04 02/01/2006"

// RoomContact is what the notifications need to know about a room.
type RoomContact struct {
	Title         string `json:"title"`
	Address       string `json:"address"`
	LandlordPhone string `json:"landlord_phone"`
}

// ViewingActivities holds the activity implementations for the viewing workflow.
type ViewingActivities struct {
	Rooms    ports.RoomRepository
	Notifier ports.NotificationService
}

// LoadRoom fetches the room being visited. Unknown rooms are not retried.
func (a *ViewingActivities) LoadRoom(ctx context.Context, roomID int64) (RoomContact, error) {
	room, err := a.Rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return RoomContact{}, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("room %d not found", roomID), "RoomNotFound", err)
		}
		return RoomContact{}, fmt.Errorf("load room %d: %w", roomID, err)
	}

	p := room.Properties
	contact := RoomContact{Title: p.Title}
	if p.Address != nil {
		contact.Address = *p.Address
	}
	if p.Phone != nil {
		contact.LandlordPhone = strings.TrimSpace(*p.Phone)
	}
	return contact, nil
}

// NotifyLandlord texts the landlord about the requested visit.
func (a *ViewingActivities) NotifyLandlord(ctx context.Context, event domain.ViewingRequested, contact RoomContact) error {
	return a.send(ctx, "landlord", contact.LandlordPhone, LandlordMessage(event, contact))
}

// NotifyRequester confirms the request to the person who booked it.
func (a *ViewingActivities) NotifyRequester(ctx context.Context, event domain.ViewingRequested, contact RoomContact) error {
	return a.send(ctx, "requester", event.Viewing.Phone, RequesterMessage(event, contact))
}

func (a *ViewingActivities) send(ctx context.Context, recipient, to, body string) error {
	if a.Notifier == nil {
		slog.InfoContext(ctx, "SMS (no notifier)", "recipient", recipient, "body", body)
		metrics.SMSSent.WithLabelValues(recipient, "skipped").Inc()
		return nil
	}

	err := a.Notifier.SendSMS(ctx, to, body)
	switch {
	case err == nil:
		metrics.SMSSent.WithLabelValues(recipient, "sent").Inc()
		return nil
	case errors.Is(err, domain.ErrInvalidInput):
		metrics.SMSSent.WithLabelValues(recipient, "rejected").Inc()
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("sms to %s rejected", recipient), "InvalidRecipient", err)
	default:
		metrics.SMSSent.WithLabelValues(recipient, "failed").Inc()
		return fmt.Errorf("sms to %s: %w", recipient, err)
	}
}

// LandlordMessage is the SMS sent to the landlord.
func LandlordMessage(event domain.ViewingRequested, contact RoomContact) string {
	v := event.Viewing
	var b strings.Builder
	fmt.Fprintf(&b, "RoomRadar: %s (%s) muốn xem phòng \"%s\" lúc %s.",
		v.FullName, v.Phone, contact.Title, v.PreferredTime.In(vietnam).Format(timeLayout))
	if note := strings.TrimSpace(v.Note); note != "" {
		fmt.Fprintf(&b, " Ghi chú: %s", note)
	}
	return b.String()
}

// RequesterMessage is the confirmation SMS sent to the requester.
func RequesterMessage(event domain.ViewingRequested, contact RoomContact) string {
	msg := fmt.Sprintf("RoomRadar: Yêu cầu xem phòng \"%s\" lúc %s đã được gửi tới chủ nhà.",
		contact.Title, event.Viewing.PreferredTime.In(vietnam).Format(timeLayout))
	if contact.Address != "" {
		msg += " Địa chỉ: " + contact.Address
	}
	return msg
}
