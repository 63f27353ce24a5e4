package transfer

import "time"

// State is a stage in the warm transfer sequence. The machine is strictly
// forward-moving; cancellation is only designed in from Requested and
// AwaitingAgentB, and terminal states accept no further transitions.
type State string

const (
	StateRequested      State = "requested"
	StateBriefing       State = "briefing"
	StateSummaryReady   State = "summary_ready"
	StateAwaitingAgentB State = "awaiting_agent_b"
	StateHandingOff     State = "handing_off"
	StateCompleted      State = "completed"
	StateCancelled      State = "cancelled"
	StateFailed         State = "failed"
)

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Cancellable reports whether CancelTransfer may abort from this state.
func (s State) Cancellable() bool {
	return s == StateRequested || s == StateAwaitingAgentB
}

// Transfer is one warm transfer attempt bound to exactly one call. It owns
// the briefing room for its lifetime; the briefing room is always distinct
// from the call's original room.
type Transfer struct {
	ID             string     `json:"id"`
	CallID         string     `json:"call_id"`
	AgentA         string     `json:"agent_a"`
	AgentB         string     `json:"agent_b"`
	BriefingRoomID string     `json:"briefing_room_id,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	State          State      `json:"state"`
	FailedFrom     State      `json:"failed_from,omitempty"`
	RequestedAt    time.Time  `json:"requested_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
