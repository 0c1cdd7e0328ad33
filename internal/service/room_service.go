package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/coderoom/sync-service/internal/domain"
	"github.com/coderoom/sync-service/internal/metrics"
	"github.com/coderoom/sync-service/internal/store"
)

// RoomService is the bootstrap surface for rooms: creation with a starter
// buffer, lookup for joiners, listing for the lobby. Live review state flows
// over the relay, not through here.
type RoomService struct {
	rooms store.RoomStore
}

func NewRoomService(rooms store.RoomStore) *RoomService {
	return &RoomService{rooms: rooms}
}

// CreateRoom seeds a room with the language's starter snippet and the
// founding participant.
func (s *RoomService) CreateRoom(ctx context.Context, name, language, founderID, founderName string) (*domain.Room, error) {
	code, err := domain.StarterSnippet(language)
	if err != nil {
		return nil, err
	}

	room := domain.NewRoom(name, language, code, founderID, founderName)
	if err := s.rooms.Put(ctx, room); err != nil {
		return nil, fmt.Errorf("rooms.Put: %w", err)
	}
	metrics.RoomsCreated.Inc()
	return room, nil
}

// GetRoom returns a room by its shareable id.
func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.rooms.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// SaveRoom stores a client's current room snapshot.
func (s *RoomService) SaveRoom(ctx context.Context, room *domain.Room) error {
	return s.rooms.Put(ctx, room)
}

// ListRooms returns rooms with cursor pagination.
func (s *RoomService) ListRooms(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	return s.rooms.List(ctx, limit, cursor)
}

// DeleteRoom removes a stored room. Housekeeping only; the protocol itself
// never deletes rooms.
func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	return s.rooms.Delete(ctx, id)
}
