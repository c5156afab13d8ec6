package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/ports"
)

// ViewingService books room viewings.
type ViewingService struct {
	viewings  ports.ViewingRepository
	rooms     ports.RoomRepository
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewViewingService creates a new ViewingService. publisher may be nil.
func NewViewingService(viewings ports.ViewingRepository, rooms ports.RoomRepository, publisher ports.EventPublisher) *ViewingService {
	return &ViewingService{
		viewings:  viewings,
		rooms:     rooms,
		publisher: publisher,
		now:       time.Now,
	}
}

// List returns all booked viewings.
func (s *ViewingService) List(ctx context.Context) ([]domain.RoomViewing, error) {
	v, err := s.viewings.List(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = []domain.RoomViewing{}
	}
	return v, nil
}

// Book validates and stores a viewing request, then announces it so the
// landlord and the requester get notified.
func (s *ViewingService) Book(ctx context.Context, req domain.ViewingRequest) (*domain.RoomViewing, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !req.PreferredTime.After(s.now()) {
		return nil, fmt.Errorf("%w: preferred time must be in the future", domain.ErrInvalidInput)
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", req.RoomID, err)
	}
	if room.Properties.Status == domain.RoomStatusRented {
		return nil, fmt.Errorf("%w: room %d is already rented", domain.ErrInvalidInput, req.RoomID)
	}

	viewing, err := s.viewings.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create viewing: %w", err)
	}

	if s.publisher != nil {
		event := &domain.ViewingRequested{
			Viewing:     *viewing,
			RoomTitle:   room.Properties.Title,
			RequestedAt: s.now().UTC(),
		}
		// The viewing is stored; a lost event only skips the SMS.
		if err := s.publisher.PublishViewingRequested(ctx, event); err != nil {
			slog.Error("publish viewing requested", "viewing_id", viewing.ID, "error", err)
		}
	}

	return viewing, nil
}
