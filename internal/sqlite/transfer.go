package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/warmline/internal/domain/transfer"
	"github.com/rpggio/warmline/internal/repository"
)

// TransferRepository implements transfer.Repository for SQLite
type TransferRepository struct {
	db *DB
}

// NewTransferRepository creates a new TransferRepository
func NewTransferRepository(db *DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create creates a new transfer
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	query := `
		INSERT INTO transfers (
			id, call_id, agent_a, agent_b, briefing_room_id, summary,
			state, failed_from, requested_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.CallID,
		t.AgentA,
		t.AgentB,
		nullableString(t.BriefingRoomID),
		t.Summary,
		t.State,
		nullableString(string(t.FailedFrom)),
		t.RequestedAt,
		t.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

// Get retrieves a transfer by ID
func (r *TransferRepository) Get(ctx context.Context, id string) (*transfer.Transfer, error) {
	query := `
		SELECT id, call_id, agent_a, agent_b, briefing_room_id, summary,
			state, failed_from, requested_at, completed_at
		FROM transfers
		WHERE id = ?
	`

	var t transfer.Transfer
	var briefingRoomID, failedFrom sql.NullString
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.CallID,
		&t.AgentA,
		&t.AgentB,
		&briefingRoomID,
		&t.Summary,
		&t.State,
		&failedFrom,
		&t.RequestedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	if briefingRoomID.Valid {
		t.BriefingRoomID = briefingRoomID.String
	}
	if failedFrom.Valid {
		t.FailedFrom = transfer.State(failedFrom.String)
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

// Update persists mutable transfer fields
func (r *TransferRepository) Update(ctx context.Context, t *transfer.Transfer) error {
	query := `
		UPDATE transfers
		SET briefing_room_id = ?, summary = ?, state = ?, failed_from = ?,
			completed_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		nullableString(t.BriefingRoomID),
		t.Summary,
		t.State,
		nullableString(string(t.FailedFrom)),
		t.CompletedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
