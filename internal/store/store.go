// Package store persists Room snapshots. The sync core treats storage as a
// plain get/put collaborator: it never depends on the storage format and
// never blocks the dispatch path on it.
package store

import (
	"context"

	"github.com/coderoom/sync-service/internal/domain"
)

// RoomStore holds full Room copies keyed by room id. Rooms are never
// authoritatively deleted by the protocol; Delete exists for housekeeping.
type RoomStore interface {
	Get(ctx context.Context, id string) (*domain.Room, error)
	Put(ctx context.Context, room *domain.Room) error
	List(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error)
	Delete(ctx context.Context, id string) error
	Close()
}
