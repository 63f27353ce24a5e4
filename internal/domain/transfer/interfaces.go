package transfer

import (
	"context"
	"time"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/room"
)

// Repository provides transfer persistence.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	Get(ctx context.Context, id string) (*Transfer, error)
	Update(ctx context.Context, t *Transfer) error
}

// CallStore provides the call mutations the machine performs.
type CallStore interface {
	Get(ctx context.Context, id string) (*call.Call, error)
	Update(ctx context.Context, c *call.Call) error
	AddAgent(ctx context.Context, callID string, p call.Participant) error
	RemoveAgent(ctx context.Context, callID, identity string) error
}

// RoomRegistry provides briefing room lifecycle.
type RoomRegistry interface {
	Create(ctx context.Context, kind room.Kind) (*room.Room, error)
	Destroy(ctx context.Context, roomID string) error
}

// GrantIssuer mints room access grants during the handoff sequence.
type GrantIssuer interface {
	Issue(identity, roomID string, role grant.Role, perms grant.Permissions, ttl time.Duration) (*grant.Grant, error)
}

// ConversationReader provides the snapshot fed to the summarizer.
type ConversationReader interface {
	Read(ctx context.Context, callID string) ([]conversation.Entry, error)
}

// Summarizer produces the handoff briefing text.
type Summarizer interface {
	Summarize(ctx context.Context, entries []conversation.Entry) (string, error)
}

// MediaControl instructs the media transport about participant membership.
type MediaControl interface {
	RemoveParticipant(ctx context.Context, roomID, identity string) error
}
