package ports

import (
	"context"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

// RoomRepository reads rental listings from the rooms API.
type RoomRepository interface {
	Search(ctx context.Context, params domain.RoomSearchParams) ([]domain.Room, error)
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	RandomImage(ctx context.Context, roomType domain.RoomType) (*domain.RoomImage, error)
	Ping(ctx context.Context) error
}

// ViewingRepository stores viewing appointments in the rooms API.
type ViewingRepository interface {
	List(ctx context.Context) ([]domain.RoomViewing, error)
	Create(ctx context.Context, req domain.ViewingRequest) (*domain.RoomViewing, error)
}
