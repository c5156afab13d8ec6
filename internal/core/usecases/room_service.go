package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/ports"
)

// Cache lifetimes in seconds.
const (
	searchTTL = 300
	detailTTL = 600
	imageTTL  = 1800
)

// RoomService handles room search and detail lookups.
type RoomService struct {
	rooms ports.RoomRepository
	cache ports.CacheService
}

// NewRoomService creates a new RoomService.
func NewRoomService(rooms ports.RoomRepository, cache ports.CacheService) *RoomService {
	return &RoomService{rooms: rooms, cache: cache}
}

// Search returns rooms matching params.
func (s *RoomService) Search(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error) {
	if err := validateSearch(params); err != nil {
		return nil, err
	}

	cacheKey := "rooms:search:" + digest(params)
	return readThrough(ctx, s.cache, cacheKey, searchTTL, func() ([]domain.Room, error) {
		rooms, err := s.rooms.Search(ctx, params)
		if err != nil {
			return nil, err
		}
		if rooms == nil {
			rooms = []domain.Room{}
		}
		return rooms, nil
	})
}

func validateSearch(p domain.RoomSearchParams) error {
	if p.RoomType != "" && !p.RoomType.Valid() {
		return fmt.Errorf("%w: unknown room type %q", domain.ErrInvalidInput, p.RoomType)
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return fmt.Errorf("%w: minPrice exceeds maxPrice", domain.ErrInvalidInput)
	}
	if p.MinArea != nil && p.MaxArea != nil && *p.MinArea > *p.MaxArea {
		return fmt.Errorf("%w: minArea exceeds maxArea", domain.ErrInvalidInput)
	}
	if p.Near != nil && !p.Near.Valid() {
		return fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidInput)
	}
	if p.Radius < 0 || p.AddressRadius < 0 {
		return fmt.Errorf("%w: radius must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// GetByID returns a single room.
func (s *RoomService) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: room id must be positive", domain.ErrInvalidInput)
	}
	return readThrough(ctx, s.cache, fmt.Sprintf("rooms:id:%d", id), detailTTL, func() (*domain.Room, error) {
		return s.rooms.GetByID(ctx, id)
	})
}

// RandomImage returns an illustration for a room type. Passing the room ID
// keeps the same picture for a room while the cache entry lives.
func (s *RoomService) RandomImage(ctx context.Context, roomType domain.RoomType, roomID int64) (*domain.RoomImage, error) {
	if !roomType.Valid() {
		return nil, fmt.Errorf("%w: unknown room type %q", domain.ErrInvalidInput, roomType)
	}
	cacheKey := fmt.Sprintf("rooms:image:%s:%d", roomType, roomID)
	return readThrough(ctx, s.cache, cacheKey, imageTTL, func() (*domain.RoomImage, error) {
		img, err := s.rooms.RandomImage(ctx, roomType)
		if err != nil {
			return nil, err
		}
		img.RoomType = roomType
		return img, nil
	})
}

// Detail returns a room with an optional image. When the room type is known
// up front both are fetched concurrently. Image failures are not fatal.
func (s *RoomService) Detail(ctx context.Context, id int64, withImage bool, typeHint domain.RoomType) (*domain.RoomDetail, error) {
	if !withImage {
		room, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &domain.RoomDetail{Room: room}, nil
	}

	var detail domain.RoomDetail

	if typeHint.Valid() {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			room, err := s.GetByID(gctx, id)
			detail.Room = room
			return err
		})
		g.Go(func() error {
			img, err := s.RandomImage(gctx, typeHint, id)
			if err != nil {
				slog.Warn("room image unavailable", "room_id", id, "error", err)
				return nil
			}
			detail.Image = img
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &detail, nil
	}

	room, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Room = room
	if img, err := s.RandomImage(ctx, room.Properties.RoomType, id); err == nil {
		detail.Image = img
	} else {
		slog.Warn("room image unavailable", "room_id", id, "error", err)
	}
	return &detail, nil
}

// Ping checks that the rooms API answers.
func (s *RoomService) Ping(ctx context.Context) error {
	return s.rooms.Ping(ctx)
}
