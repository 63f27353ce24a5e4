package mcp

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/transfer"
)

// GrantResult is the wire shape of an issued room credential.
type GrantResult struct {
	Token     string `json:"token" jsonschema:"signed room access token"`
	Identity  string `json:"identity" jsonschema:"participant identity the token is bound to"`
	RoomID    string `json:"room_id" jsonschema:"room the token grants access to"`
	Role      string `json:"role" jsonschema:"participant role (caller, agent_primary, agent_transfer)"`
	ExpiresAt string `json:"expires_at" jsonschema:"RFC3339 expiry of the token"`
}

func grantResult(g *grant.Grant) GrantResult {
	if g == nil {
		return GrantResult{}
	}
	return GrantResult{
		Token:     g.Token,
		Identity:  g.Identity,
		RoomID:    g.RoomID,
		Role:      string(g.Role),
		ExpiresAt: g.ExpiresAt.Format(time.RFC3339),
	}
}

// TransferResult is the wire shape of a transfer.
type TransferResult struct {
	TransferID     string `json:"transfer_id" jsonschema:"transfer identifier"`
	CallID         string `json:"call_id" jsonschema:"call the transfer belongs to"`
	AgentA         string `json:"agent_a" jsonschema:"agent handing off the call"`
	AgentB         string `json:"agent_b" jsonschema:"agent receiving the call"`
	BriefingRoomID string `json:"briefing_room_id,omitempty" jsonschema:"briefing room identifier, empty before the briefing room exists"`
	Summary        string `json:"summary,omitempty" jsonschema:"conversation summary shared with agent B"`
	State          string `json:"state" jsonschema:"current transfer state"`
}

func transferResult(t *transfer.Transfer) TransferResult {
	return TransferResult{
		TransferID:     t.ID,
		CallID:         t.CallID,
		AgentA:         t.AgentA,
		AgentB:         t.AgentB,
		BriefingRoomID: t.BriefingRoomID,
		Summary:        t.Summary,
		State:          string(t.State),
	}
}

// InitiateCallInput is the input for the initiate_call tool.
type InitiateCallInput struct {
	CallerIdentity string `json:"caller_identity" jsonschema:"identity of the caller joining the call"`
}

// InitiateCallResult is the output of the initiate_call tool.
type InitiateCallResult struct {
	CallID      string      `json:"call_id" jsonschema:"call identifier"`
	RoomID      string      `json:"room_id" jsonschema:"original room identifier"`
	CallerGrant GrantResult `json:"caller_grant" jsonschema:"caller's room credential"`
}

func initiateCallTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "initiate_call",
		Description: "Create a new call: provisions the original room and issues the caller's room credential",
	}
}

func initiateCallHandler(calls CallService) sdkmcp.ToolHandlerFor[InitiateCallInput, InitiateCallResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input InitiateCallInput) (*sdkmcp.CallToolResult, InitiateCallResult, error) {
		res, err := calls.InitiateCall(ctx, input.CallerIdentity)
		if err != nil {
			return nil, InitiateCallResult{}, err
		}
		return nil, InitiateCallResult{
			CallID:      res.Call.ID,
			RoomID:      res.Call.RoomID,
			CallerGrant: grantResult(res.CallerGrant),
		}, nil
	}
}

// ConnectAgentInput is the input for the connect_agent tool.
type ConnectAgentInput struct {
	CallID        string `json:"call_id" jsonschema:"call identifier"`
	AgentIdentity string `json:"agent_identity" jsonschema:"identity of the agent joining the call"`
}

// ConnectAgentResult is the output of the connect_agent tool.
type ConnectAgentResult struct {
	Grant GrantResult `json:"grant" jsonschema:"agent's room credential for the original room"`
}

func connectAgentTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "connect_agent",
		Description: "Join an agent to an existing call's original room and issue the agent's room credential",
	}
}

func connectAgentHandler(calls CallService) sdkmcp.ToolHandlerFor[ConnectAgentInput, ConnectAgentResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input ConnectAgentInput) (*sdkmcp.CallToolResult, ConnectAgentResult, error) {
		g, err := calls.ConnectAgent(ctx, input.CallID, input.AgentIdentity)
		if err != nil {
			return nil, ConnectAgentResult{}, err
		}
		return nil, ConnectAgentResult{Grant: grantResult(g)}, nil
	}
}

// GetCallInput is the input for the get_call tool.
type GetCallInput struct {
	CallID string `json:"call_id" jsonschema:"call identifier"`
}

// GetCallResult is the output of the get_call tool.
type GetCallResult struct {
	CallID           string   `json:"call_id" jsonschema:"call identifier"`
	CallerIdentity   string   `json:"caller_identity" jsonschema:"identity of the caller"`
	RoomID           string   `json:"room_id" jsonschema:"original room identifier"`
	Status           string   `json:"status" jsonschema:"call status (active, transferring, closed)"`
	Agents           []string `json:"agents" jsonschema:"identities of agents currently on the call"`
	ActiveTransferID string   `json:"active_transfer_id,omitempty" jsonschema:"identifier of the in-flight transfer, if any"`
}

func getCallTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "get_call",
		Description: "Return the current state of a call: status, agents and any in-flight transfer",
	}
}

func getCallHandler(calls CallService) sdkmcp.ToolHandlerFor[GetCallInput, GetCallResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input GetCallInput) (*sdkmcp.CallToolResult, GetCallResult, error) {
		c, err := calls.Get(ctx, input.CallID)
		if err != nil {
			return nil, GetCallResult{}, err
		}
		agents := make([]string, 0, len(c.Agents))
		for _, a := range c.Agents {
			agents = append(agents, a.Identity)
		}
		result := GetCallResult{
			CallID:         c.ID,
			CallerIdentity: c.CallerIdentity,
			RoomID:         c.RoomID,
			Status:         string(c.Status),
			Agents:         agents,
		}
		if c.ActiveTransferID != nil {
			result.ActiveTransferID = *c.ActiveTransferID
		}
		return nil, result, nil
	}
}

// CloseCallInput is the input for the close_call tool.
type CloseCallInput struct {
	CallID string `json:"call_id" jsonschema:"call identifier"`
}

// CloseCallResult is the output of the close_call tool.
type CloseCallResult struct {
	CallID string `json:"call_id" jsonschema:"call identifier"`
	Status string `json:"status" jsonschema:"call status after closing"`
}

func closeCallTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "close_call",
		Description: "End a call: cancels any in-flight transfer and tears down the original room",
	}
}

func closeCallHandler(calls CallService) sdkmcp.ToolHandlerFor[CloseCallInput, CloseCallResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input CloseCallInput) (*sdkmcp.CallToolResult, CloseCallResult, error) {
		if err := calls.CloseCall(ctx, input.CallID); err != nil {
			return nil, CloseCallResult{}, err
		}
		return nil, CloseCallResult{CallID: input.CallID, Status: "closed"}, nil
	}
}

// AppendUtteranceInput is the input for the append_utterance tool.
type AppendUtteranceInput struct {
	CallID  string `json:"call_id" jsonschema:"call identifier"`
	Speaker string `json:"speaker" jsonschema:"identity of the speaker"`
	Text    string `json:"text" jsonschema:"utterance text"`
}

// AppendUtteranceResult is the output of the append_utterance tool.
type AppendUtteranceResult struct {
	Seq int64 `json:"seq" jsonschema:"sequence number assigned to the utterance"`
}

func appendUtteranceTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "append_utterance",
		Description: "Record an utterance in the call's conversation log",
	}
}

func appendUtteranceHandler(conversations ConversationService) sdkmcp.ToolHandlerFor[AppendUtteranceInput, AppendUtteranceResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input AppendUtteranceInput) (*sdkmcp.CallToolResult, AppendUtteranceResult, error) {
		seq, err := conversations.Append(ctx, input.CallID, input.Speaker, input.Text)
		if err != nil {
			return nil, AppendUtteranceResult{}, err
		}
		return nil, AppendUtteranceResult{Seq: seq}, nil
	}
}

// GetConversationInput is the input for the get_conversation tool.
type GetConversationInput struct {
	CallID string `json:"call_id" jsonschema:"call identifier"`
}

// ConversationEntryResult is one utterance in the conversation log.
type ConversationEntryResult struct {
	Seq     int64  `json:"seq" jsonschema:"sequence number of the utterance"`
	Speaker string `json:"speaker" jsonschema:"identity of the speaker"`
	Text    string `json:"text" jsonschema:"utterance text"`
}

// GetConversationResult is the output of the get_conversation tool.
type GetConversationResult struct {
	Entries []ConversationEntryResult `json:"entries" jsonschema:"utterances in order of occurrence"`
}

func getConversationTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "get_conversation",
		Description: "Read the call's conversation log in order",
	}
}

func getConversationHandler(conversations ConversationService) sdkmcp.ToolHandlerFor[GetConversationInput, GetConversationResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input GetConversationInput) (*sdkmcp.CallToolResult, GetConversationResult, error) {
		entries, err := conversations.Read(ctx, input.CallID)
		if err != nil {
			return nil, GetConversationResult{}, err
		}
		return nil, GetConversationResult{Entries: conversationEntries(entries)}, nil
	}
}

func conversationEntries(entries []conversation.Entry) []ConversationEntryResult {
	results := make([]ConversationEntryResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, ConversationEntryResult{Seq: e.Seq, Speaker: e.Speaker, Text: e.Text})
	}
	return results
}

// RequestTransferInput is the input for the request_transfer tool.
type RequestTransferInput struct {
	CallID string `json:"call_id" jsonschema:"call identifier"`
	AgentB string `json:"agent_b" jsonschema:"identity of the agent receiving the transfer"`
}

// RequestTransferResult is the output of the request_transfer tool.
type RequestTransferResult struct {
	Transfer            TransferResult `json:"transfer" jsonschema:"transfer state after the briefing is prepared"`
	AgentABriefingGrant GrantResult    `json:"agent_a_briefing_grant" jsonschema:"agent A's credential for the briefing room"`
	AgentBBriefingGrant GrantResult    `json:"agent_b_briefing_grant" jsonschema:"agent B's credential for the briefing room"`
}

func requestTransferTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "request_transfer",
		Description: "Start a warm transfer: creates the briefing room, summarizes the conversation and invites agent B",
	}
}

func requestTransferHandler(transfers TransferService) sdkmcp.ToolHandlerFor[RequestTransferInput, RequestTransferResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input RequestTransferInput) (*sdkmcp.CallToolResult, RequestTransferResult, error) {
		res, err := transfers.RequestTransfer(ctx, input.CallID, input.AgentB)
		if err != nil {
			return nil, RequestTransferResult{}, err
		}
		return nil, RequestTransferResult{
			Transfer:            transferResult(res.Transfer),
			AgentABriefingGrant: grantResult(res.AgentABriefingGrant),
			AgentBBriefingGrant: grantResult(res.AgentBBriefingGrant),
		}, nil
	}
}

// GetTransferInput is the input for the get_transfer tool.
type GetTransferInput struct {
	TransferID string `json:"transfer_id" jsonschema:"transfer identifier"`
}

func getTransferTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "get_transfer",
		Description: "Return the current state of a transfer",
	}
}

func getTransferHandler(transfers TransferService) sdkmcp.ToolHandlerFor[GetTransferInput, TransferResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input GetTransferInput) (*sdkmcp.CallToolResult, TransferResult, error) {
		t, err := transfers.Get(ctx, input.TransferID)
		if err != nil {
			return nil, TransferResult{}, err
		}
		return nil, transferResult(t), nil
	}
}

// CompleteTransferInput is the input for the complete_transfer tool.
type CompleteTransferInput struct {
	TransferID string `json:"transfer_id" jsonschema:"transfer identifier"`
}

// CompleteTransferResult is the output of the complete_transfer tool.
type CompleteTransferResult struct {
	Transfer    TransferResult `json:"transfer" jsonschema:"transfer state after the handoff"`
	AgentBGrant GrantResult    `json:"agent_b_grant" jsonschema:"agent B's credential for the original room"`
}

func completeTransferTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "complete_transfer",
		Description: "Finish a warm transfer: moves agent B into the original room and removes agent A",
	}
}

func completeTransferHandler(transfers TransferService) sdkmcp.ToolHandlerFor[CompleteTransferInput, CompleteTransferResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input CompleteTransferInput) (*sdkmcp.CallToolResult, CompleteTransferResult, error) {
		res, err := transfers.CompleteTransfer(ctx, input.TransferID)
		if err != nil {
			return nil, CompleteTransferResult{}, err
		}
		return nil, CompleteTransferResult{
			Transfer:    transferResult(res.Transfer),
			AgentBGrant: grantResult(res.AgentBGrant),
		}, nil
	}
}

// CancelTransferInput is the input for the cancel_transfer tool.
type CancelTransferInput struct {
	TransferID string `json:"transfer_id" jsonschema:"transfer identifier"`
}

// CancelTransferResult is the output of the cancel_transfer tool.
type CancelTransferResult struct {
	TransferID string `json:"transfer_id" jsonschema:"transfer identifier"`
	State      string `json:"state" jsonschema:"transfer state after cancellation"`
}

func cancelTransferTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "cancel_transfer",
		Description: "Abandon a pending warm transfer and return the call to its original agent",
	}
}

func cancelTransferHandler(transfers TransferService) sdkmcp.ToolHandlerFor[CancelTransferInput, CancelTransferResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input CancelTransferInput) (*sdkmcp.CallToolResult, CancelTransferResult, error) {
		if err := transfers.CancelTransfer(ctx, input.TransferID); err != nil {
			return nil, CancelTransferResult{}, err
		}
		return nil, CancelTransferResult{TransferID: input.TransferID, State: string(transfer.StateCancelled)}, nil
	}
}

func registerTools(server *sdkmcp.Server, services Services) {
	sdkmcp.AddTool(server, initiateCallTool(), initiateCallHandler(services.Calls))
	sdkmcp.AddTool(server, connectAgentTool(), connectAgentHandler(services.Calls))
	sdkmcp.AddTool(server, getCallTool(), getCallHandler(services.Calls))
	sdkmcp.AddTool(server, closeCallTool(), closeCallHandler(services.Calls))
	sdkmcp.AddTool(server, appendUtteranceTool(), appendUtteranceHandler(services.Conversations))
	sdkmcp.AddTool(server, getConversationTool(), getConversationHandler(services.Conversations))
	sdkmcp.AddTool(server, requestTransferTool(), requestTransferHandler(services.Transfers))
	sdkmcp.AddTool(server, getTransferTool(), getTransferHandler(services.Transfers))
	sdkmcp.AddTool(server, completeTransferTool(), completeTransferHandler(services.Transfers))
	sdkmcp.AddTool(server, cancelTransferTool(), cancelTransferHandler(services.Transfers))
}
