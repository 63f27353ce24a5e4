package conversation

import (
	"context"

	"github.com/rpggio/warmline/internal/domain/call"
)

// Repository provides append-only persistence for conversation entries.
type Repository interface {
	// Append stores the entry and returns its per-call sequence number.
	Append(ctx context.Context, e *Entry) (int64, error)
	// List returns all entries for a call ordered by sequence number.
	List(ctx context.Context, callID string) ([]Entry, error)
}

// CallRepository provides call lookup for append validation.
type CallRepository interface {
	Get(ctx context.Context, id string) (*call.Call, error)
}
