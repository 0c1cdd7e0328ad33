package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coderoom/sync-service/internal/domain"
)

// PostgresStore persists rooms in a single table. Scalar review fields are
// columns; the roster, comments and activity log ride along as jsonb since
// the protocol always replaces them wholesale per room.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Room, error) {
	query := `
		SELECT id, name, code, language, status, participants, comments, activity_log, created_at
		FROM rooms WHERE id=$1`

	var r domain.Room
	var parts, comments, actLog []byte
	err := s.pool.QueryRow(ctx, query, id).
		Scan(&r.ID, &r.Name, &r.Code, &r.Language, &r.Status, &parts, &comments, &actLog, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	if err := unmarshalRoomLists(&r, parts, comments, actLog); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) Put(ctx context.Context, room *domain.Room) error {
	parts, err := json.Marshal(room.Participants)
	if err != nil {
		return err
	}
	comments, err := json.Marshal(room.Comments)
	if err != nil {
		return err
	}
	actLog, err := json.Marshal(room.ActivityLog)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rooms (id, name, code, language, status, participants, comments, activity_log, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name,
			code=EXCLUDED.code,
			language=EXCLUDED.language,
			status=EXCLUDED.status,
			participants=EXCLUDED.participants,
			comments=EXCLUDED.comments,
			activity_log=EXCLUDED.activity_log`

	_, err = s.pool.Exec(ctx, query,
		room.ID, room.Name, room.Code, room.Language, room.Status,
		parts, comments, actLog, room.CreatedAt)
	return err
}

func (s *PostgresStore) List(ctx context.Context, limit int, cursorStr string) ([]domain.Room, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	cur, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT id, name, code, language, status, participants, comments, activity_log, created_at
		FROM rooms
		WHERE ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := s.pool.Query(ctx, query, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var r domain.Room
		var parts, comments, actLog []byte
		if err := rows.Scan(&r.ID, &r.Name, &r.Code, &r.Language, &r.Status, &parts, &comments, &actLog, &r.CreatedAt); err != nil {
			return nil, "", err
		}
		if err := unmarshalRoomLists(&r, parts, comments, actLog); err != nil {
			return nil, "", err
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var nextCursor string
	if len(rooms) == limit {
		last := rooms[len(rooms)-1]
		nextCursor, _ = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rooms, nextCursor, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	return err
}

func unmarshalRoomLists(r *domain.Room, parts, comments, actLog []byte) error {
	if len(parts) > 0 {
		if err := json.Unmarshal(parts, &r.Participants); err != nil {
			return fmt.Errorf("room %s participants: %w", r.ID, err)
		}
	}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &r.Comments); err != nil {
			return fmt.Errorf("room %s comments: %w", r.ID, err)
		}
	}
	if len(actLog) > 0 {
		if err := json.Unmarshal(actLog, &r.ActivityLog); err != nil {
			return fmt.Errorf("room %s activity log: %w", r.ID, err)
		}
	}
	return nil
}
