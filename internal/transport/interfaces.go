package transport

import (
	"context"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/transfer"
)

// CallService defines the call lifecycle operations the API exposes.
type CallService interface {
	InitiateCall(ctx context.Context, callerIdentity string) (*call.InitiateResult, error)
	ConnectAgent(ctx context.Context, callID, agentIdentity string) (*grant.Grant, error)
	Get(ctx context.Context, callID string) (*call.Call, error)
	CloseCall(ctx context.Context, callID string) error
}

// TransferService defines the warm transfer operations the API exposes.
type TransferService interface {
	RequestTransfer(ctx context.Context, callID, agentB string) (*transfer.RequestResult, error)
	CompleteTransfer(ctx context.Context, transferID string) (*transfer.CompleteResult, error)
	CancelTransfer(ctx context.Context, transferID string) error
	Get(ctx context.Context, transferID string) (*transfer.Transfer, error)
}

// ConversationService defines conversation log access for call participants.
type ConversationService interface {
	Append(ctx context.Context, callID, speaker, text string) (int64, error)
	Read(ctx context.Context, callID string) ([]conversation.Entry, error)
}
