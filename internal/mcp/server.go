// Package mcp exposes the warm transfer orchestrator as MCP tools so an
// agent-assist LLM can drive the call lifecycle.
package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/transfer"
)

const serverInstructions = `Warmline orchestrates warm transfers of live support calls.
Use initiate_call to open a call, connect_agent to join the first agent,
append_utterance to record the conversation, request_transfer to brief a
second agent, and complete_transfer once the briefing is done. Cancellation
is only possible before the briefing starts or while awaiting the second
agent.`

// CallService defines call operations needed by MCP.
type CallService interface {
	InitiateCall(ctx context.Context, callerIdentity string) (*call.InitiateResult, error)
	ConnectAgent(ctx context.Context, callID, agentIdentity string) (*grant.Grant, error)
	Get(ctx context.Context, callID string) (*call.Call, error)
	CloseCall(ctx context.Context, callID string) error
}

// TransferService defines transfer operations needed by MCP.
type TransferService interface {
	RequestTransfer(ctx context.Context, callID, agentB string) (*transfer.RequestResult, error)
	CompleteTransfer(ctx context.Context, transferID string) (*transfer.CompleteResult, error)
	CancelTransfer(ctx context.Context, transferID string) error
	Get(ctx context.Context, transferID string) (*transfer.Transfer, error)
}

// ConversationService defines conversation log operations needed by MCP.
type ConversationService interface {
	Append(ctx context.Context, callID, speaker, text string) (int64, error)
	Read(ctx context.Context, callID string) ([]conversation.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Calls         CallService
	Transfers     TransferService
	Conversations ConversationService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "warmline",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
