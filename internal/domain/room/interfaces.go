package room

import (
	"context"
	"time"
)

// MediaTransport materializes rooms in the external media service. The
// registry never inspects media content; clients join with issued grants.
type MediaTransport interface {
	CreateRoom(ctx context.Context, id string, emptyTimeout time.Duration) error
	DestroyRoom(ctx context.Context, id string) error
	RemoveParticipant(ctx context.Context, roomID, identity string) error
}

// Repository provides room persistence.
type Repository interface {
	Create(ctx context.Context, r *Room) error
	Get(ctx context.Context, id string) (*Room, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}
