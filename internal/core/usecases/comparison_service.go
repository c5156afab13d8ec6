package usecases

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/ports"
)

// ComparisonService asks the AI assistant to rank a shortlist of rooms.
type ComparisonService struct {
	analyzer ports.RoomAnalyzer
	rooms    *RoomService
}

// NewComparisonService creates a new ComparisonService. analyzer may be nil
// when no model is configured.
func NewComparisonService(analyzer ports.RoomAnalyzer, rooms *RoomService) *ComparisonService {
	return &ComparisonService{analyzer: analyzer, rooms: rooms}
}

// Compare ranks the given rooms.
func (s *ComparisonService) Compare(ctx context.Context, rooms []domain.Room, prefs *domain.UserPreferences) (*domain.AnalysisResponse, error) {
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: AI assistant", domain.ErrNotConfigured)
	}
	if n := len(rooms); n < domain.MinCompareRooms || n > domain.MaxCompareRooms {
		return nil, fmt.Errorf("%w: compare between %d and %d rooms, got %d",
			domain.ErrInvalidInput, domain.MinCompareRooms, domain.MaxCompareRooms, n)
	}

	seen := make(map[int64]bool, len(rooms))
	req := domain.AnalysisRequest{Preferences: prefs}
	for _, r := range rooms {
		if seen[r.Properties.ID] {
			return nil, fmt.Errorf("%w: room %d listed twice", domain.ErrInvalidInput, r.Properties.ID)
		}
		seen[r.Properties.ID] = true
		req.Rooms = append(req.Rooms, domain.NewRoomForAnalysis(r))
	}
	if prefs != nil {
		if err := validateStruct(prefs); err != nil {
			return nil, err
		}
	}

	return s.analyzer.Analyze(ctx, req)
}

// CompareByID loads the rooms by ID, then ranks them.
func (s *ComparisonService) CompareByID(ctx context.Context, ids []int64, prefs *domain.UserPreferences) (*domain.AnalysisResponse, error) {
	if n := len(ids); n < domain.MinCompareRooms || n > domain.MaxCompareRooms {
		return nil, fmt.Errorf("%w: compare between %d and %d rooms, got %d",
			domain.ErrInvalidInput, domain.MinCompareRooms, domain.MaxCompareRooms, n)
	}

	rooms := make([]domain.Room, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			r, err := s.rooms.GetByID(gctx, id)
			if err != nil {
				return fmt.Errorf("room %d: %w", id, err)
			}
			rooms[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.Compare(ctx, rooms, prefs)
}
