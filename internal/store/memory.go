package store

import (
	"context"
	"sort"
	"sync"

	"github.com/coderoom/sync-service/internal/domain"
)

// MemoryStore keeps rooms in process memory. Client-side sessions and tests
// use it; the relay server uses it when no postgres DSN is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]domain.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]domain.Room)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	out := r
	return &out, nil
}

func (s *MemoryStore) Put(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = *room
	return nil
}

// List returns rooms newest-first. The memory impl ignores cursors; it
// exists for parity with the postgres store in small deployments.
func (s *MemoryStore) List(_ context.Context, limit int, _ string) ([]domain.Room, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, "", nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *MemoryStore) Close() {}
