package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/repository"
)

// RoomRepository implements room.Repository for SQLite
type RoomRepository struct {
	db *DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create registers a room
func (r *RoomRepository) Create(ctx context.Context, rm *room.Room) error {
	query := `
		INSERT INTO rooms (id, kind, empty_timeout_secs, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rm.ID,
		rm.Kind,
		int64(rm.EmptyTimeout/time.Second),
		rm.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// Get retrieves a room by ID
func (r *RoomRepository) Get(ctx context.Context, id string) (*room.Room, error) {
	query := `SELECT id, kind, empty_timeout_secs, created_at FROM rooms WHERE id = ?`

	var rm room.Room
	var emptyTimeoutSecs int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rm.ID,
		&rm.Kind,
		&emptyTimeoutSecs,
		&rm.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	rm.EmptyTimeout = time.Duration(emptyTimeoutSecs) * time.Second
	return &rm, nil
}

// Delete removes a room's local bookkeeping
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Exists reports whether a room is registered
func (r *RoomRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check room existence: %w", err)
	}
	return count > 0, nil
}
