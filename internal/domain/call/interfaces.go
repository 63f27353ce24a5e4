package call

import (
	"context"
	"time"

	"github.com/rpggio/warmline/internal/domain/room"
)

// Repository provides call persistence.
type Repository interface {
	Create(ctx context.Context, c *Call) error
	Get(ctx context.Context, id string) (*Call, error)
	Update(ctx context.Context, c *Call) error
	AddAgent(ctx context.Context, callID string, p Participant) error
	RemoveAgent(ctx context.Context, callID, identity string) error
}

// RoomRegistry provides room lifecycle for the original call room.
type RoomRegistry interface {
	Create(ctx context.Context, kind room.Kind) (*room.Room, error)
	Destroy(ctx context.Context, roomID string) error
}

// TransferCoordinator cancels a call's active transfer on close.
type TransferCoordinator interface {
	CancelActive(ctx context.Context, callID string) error
}

// Clock is injectable time for deterministic tests.
type Clock func() time.Time
