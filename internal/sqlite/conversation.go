package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/repository"
)

// ConversationRepository implements conversation.Repository for SQLite
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Append stores an entry with the next per-call sequence number. The caller
// serializes appends for a call, so MAX(seq)+1 is race-free here.
func (r *ConversationRepository) Append(ctx context.Context, e *conversation.Entry) (int64, error) {
	query := `
		INSERT INTO conversation_entries (call_id, seq, speaker, text, created_at)
		VALUES (
			?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM conversation_entries WHERE call_id = ?),
			?, ?, ?
		)
		RETURNING seq
	`
	var seq int64
	err := r.db.QueryRowContext(ctx, query,
		e.CallID,
		e.CallID,
		e.Speaker,
		e.Text,
		e.CreatedAt,
	).Scan(&seq)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, repository.ErrForeignKeyViolation
		}
		return 0, fmt.Errorf("failed to append entry: %w", err)
	}
	e.Seq = seq
	return seq, nil
}

// List returns a call's entries ordered by sequence number
func (r *ConversationRepository) List(ctx context.Context, callID string) ([]conversation.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT call_id, seq, speaker, text, created_at
		 FROM conversation_entries
		 WHERE call_id = ?
		 ORDER BY seq`,
		callID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []conversation.Entry
	for rows.Next() {
		var e conversation.Entry
		if err := rows.Scan(&e.CallID, &e.Seq, &e.Speaker, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}
