package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/repository"
)

// CallRepository implements call.Repository for SQLite
type CallRepository struct {
	db *DB
}

// NewCallRepository creates a new CallRepository
func NewCallRepository(db *DB) *CallRepository {
	return &CallRepository{db: db}
}

// Create creates a new call
func (r *CallRepository) Create(ctx context.Context, c *call.Call) error {
	query := `
		INSERT INTO calls (
			id, caller_identity, room_id, status, active_transfer_id,
			created_at, closed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.CallerIdentity,
		c.RoomID,
		c.Status,
		c.ActiveTransferID,
		c.CreatedAt,
		c.ClosedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create call: %w", err)
	}
	return nil
}

// Get retrieves a call with its joined agents
func (r *CallRepository) Get(ctx context.Context, id string) (*call.Call, error) {
	query := `
		SELECT id, caller_identity, room_id, status, active_transfer_id,
			created_at, closed_at
		FROM calls
		WHERE id = ?
	`

	var c call.Call
	var activeTransferID sql.NullString
	var closedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.CallerIdentity,
		&c.RoomID,
		&c.Status,
		&activeTransferID,
		&c.CreatedAt,
		&closedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	if activeTransferID.Valid {
		c.ActiveTransferID = &activeTransferID.String
	}
	if closedAt.Valid {
		c.ClosedAt = &closedAt.Time
	}

	agents, err := r.listAgents(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Agents = agents
	return &c, nil
}

// Update persists mutable call fields
func (r *CallRepository) Update(ctx context.Context, c *call.Call) error {
	query := `
		UPDATE calls
		SET status = ?, active_transfer_id = ?, closed_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		c.Status,
		c.ActiveTransferID,
		c.ClosedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update call: %w", err)
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

// AddAgent records an agent joining the call
func (r *CallRepository) AddAgent(ctx context.Context, callID string, p call.Participant) error {
	query := `
		INSERT INTO call_agents (call_id, identity, role, joined_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, callID, p.Identity, p.Role, p.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add agent: %w", err)
	}
	return nil
}

// RemoveAgent records an agent leaving the call
func (r *CallRepository) RemoveAgent(ctx context.Context, callID, identity string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM call_agents WHERE call_id = ? AND identity = ?`,
		callID, identity)
	if err != nil {
		return fmt.Errorf("failed to remove agent: %w", err)
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

func (r *CallRepository) listAgents(ctx context.Context, callID string) ([]call.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT identity, role, joined_at FROM call_agents WHERE call_id = ? ORDER BY joined_at, identity`,
		callID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []call.Participant
	for rows.Next() {
		var p call.Participant
		var role string
		if err := rows.Scan(&p.Identity, &role, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		p.Role = grant.Role(role)
		agents = append(agents, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agents: %w", err)
	}
	return agents, nil
}
