package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/repository"
)

// Machine drives a transfer through its stages. All mutating operations on a
// given transfer are linearized by the call's lock; the lock is released
// while the summarization service runs and the result is committed under an
// optimistic re-validation.
type Machine struct {
	transfers      Repository
	calls          CallStore
	rooms          RoomRegistry
	grants         GrantIssuer
	log            ConversationReader
	summarizer     Summarizer
	media          MediaControl
	locks          *call.LockTable
	summaryTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// MachineConfig bounds the machine's external calls.
type MachineConfig struct {
	SummaryTimeout time.Duration
}

// NewMachine creates a transfer state machine.
func NewMachine(
	transfers Repository,
	calls CallStore,
	rooms RoomRegistry,
	grants GrantIssuer,
	log ConversationReader,
	summarizer Summarizer,
	media MediaControl,
	locks *call.LockTable,
	cfg MachineConfig,
	logger *slog.Logger,
) *Machine {
	if cfg.SummaryTimeout <= 0 {
		cfg.SummaryTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		transfers:      transfers,
		calls:          calls,
		rooms:          rooms,
		grants:         grants,
		log:            log,
		summarizer:     summarizer,
		media:          media,
		locks:          locks,
		summaryTimeout: cfg.SummaryTimeout,
		now:            time.Now,
		logger:         logger,
	}
}

// WithClock overrides the machine's clock for tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// RequestResult holds the transfer and the briefing room grants for both
// agents.
type RequestResult struct {
	Transfer            *Transfer    `json:"transfer"`
	AgentABriefingGrant *grant.Grant `json:"agent_a_briefing_grant"`
	AgentBBriefingGrant *grant.Grant `json:"agent_b_briefing_grant"`
}

// CompleteResult holds the completed transfer and Agent B's grant for the
// original room.
type CompleteResult struct {
	Transfer     *Transfer    `json:"transfer"`
	AgentBGrant  *grant.Grant `json:"agent_b_grant"`
	OriginalRoom string       `json:"original_room"`
}

// RequestTransfer starts a warm transfer for an active call and drives it to
// AwaitingAgentB: briefing room created, Agent A briefed with the
// conversation summary, Agent B granted access to the briefing room.
func (m *Machine) RequestTransfer(ctx context.Context, callID, agentB string) (*RequestResult, error) {
	if callID == "" || agentB == "" {
		return nil, fmt.Errorf("%w: call id and agent identity are required", ErrInvalidInput)
	}

	unlock := m.locks.Lock(callID)
	locked := true
	defer func() {
		if locked {
			unlock()
		}
	}()

	c, err := m.calls.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("loading call: %w", err)
	}
	if c.Status != call.StatusActive || c.ActiveTransferID != nil {
		return nil, fmt.Errorf("%w: call %s is %s", ErrInvalidState, callID, c.Status)
	}
	agentA, ok := c.PrimaryAgent()
	if !ok {
		return nil, ErrNoAgentAvailable
	}
	if agentA.Identity == agentB {
		return nil, fmt.Errorf("%w: agent %s already holds the call", ErrInvalidInput, agentB)
	}

	t := &Transfer{
		ID:          uuid.NewString(),
		CallID:      callID,
		AgentA:      agentA.Identity,
		AgentB:      agentB,
		State:       StateRequested,
		RequestedAt: m.now().UTC(),
	}
	if err := m.transfers.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating transfer: %w", err)
	}
	c.Status = call.StatusTransferring
	c.ActiveTransferID = &t.ID
	if err := m.calls.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("marking call transferring: %w", err)
	}
	m.logger.Info("transfer requested", "transfer_id", t.ID, "call_id", callID,
		"agent_a", t.AgentA, "agent_b", t.AgentB)

	// Requested -> Briefing: briefing room plus Agent A's grant.
	briefingRoom, err := m.rooms.Create(ctx, room.KindBriefing)
	if err != nil {
		m.fail(ctx, t, StateRequested)
		return nil, fmt.Errorf("creating briefing room: %w", err)
	}
	t.BriefingRoomID = briefingRoom.ID

	grantA, err := m.grants.Issue(t.AgentA, briefingRoom.ID, grant.RoleAgentPrimary, grant.AgentPermissions(), 0)
	if err != nil {
		m.fail(ctx, t, StateRequested)
		return nil, fmt.Errorf("issuing agent A briefing grant: %w", err)
	}

	t.State = StateBriefing
	if err := m.transfers.Update(ctx, t); err != nil {
		m.fail(ctx, t, StateRequested)
		return nil, fmt.Errorf("entering briefing: %w", err)
	}

	entries, err := m.log.Read(ctx, callID)
	if err != nil {
		m.fail(ctx, t, StateBriefing)
		return nil, fmt.Errorf("reading conversation log: %w", err)
	}

	// Release the call lock for the duration of the summarization call; it
	// can be slow and nothing here needs the lock until the commit.
	locked = false
	unlock()

	sumCtx, cancel := context.WithTimeout(ctx, m.summaryTimeout)
	summaryText, sumErr := m.summarizer.Summarize(sumCtx, entries)
	cancel()

	unlock = m.locks.Lock(callID)
	locked = true

	// Re-validate: the transfer may have been cancelled while the lock was
	// released. If so the summary is discarded and the cancellation honored.
	t, err = m.transfers.Get(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading transfer: %w", err)
	}
	if t.State != StateBriefing {
		m.logger.Info("transfer cancelled during summarization", "transfer_id", t.ID)
		return nil, ErrCancelled
	}
	if sumErr != nil {
		m.fail(ctx, t, StateBriefing)
		return nil, fmt.Errorf("%w: %v", ErrSummarization, sumErr)
	}

	// Briefing -> SummaryReady.
	t.Summary = summaryText
	t.State = StateSummaryReady
	if err := m.transfers.Update(ctx, t); err != nil {
		m.fail(ctx, t, StateBriefing)
		return nil, fmt.Errorf("storing summary: %w", err)
	}

	// SummaryReady -> AwaitingAgentB: Agent B joins the briefing.
	grantB, err := m.grants.Issue(t.AgentB, t.BriefingRoomID, grant.RoleAgentTransfer, grant.AgentPermissions(), 0)
	if err != nil {
		m.fail(ctx, t, StateSummaryReady)
		return nil, fmt.Errorf("issuing agent B briefing grant: %w", err)
	}
	t.State = StateAwaitingAgentB
	if err := m.transfers.Update(ctx, t); err != nil {
		m.fail(ctx, t, StateSummaryReady)
		return nil, fmt.Errorf("entering awaiting agent B: %w", err)
	}

	m.logger.Info("transfer awaiting agent B", "transfer_id", t.ID, "briefing_room", t.BriefingRoomID)
	return &RequestResult{
		Transfer:            t,
		AgentABriefingGrant: grantA,
		AgentBBriefingGrant: grantB,
	}, nil
}

// CompleteTransfer finishes the handoff after the briefing-complete signal:
// Agent B gets a grant for the original room, Agent A is removed from it, the
// briefing room is destroyed and the call's agent set is updated.
func (m *Machine) CompleteTransfer(ctx context.Context, transferID string) (*CompleteResult, error) {
	t, err := m.lookup(ctx, transferID)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(t.CallID)
	defer unlock()

	t, err = m.lookup(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t.State != StateAwaitingAgentB {
		return nil, fmt.Errorf("%w: transfer %s is %s", ErrInvalidState, t.ID, t.State)
	}

	c, err := m.calls.Get(ctx, t.CallID)
	if err != nil {
		return nil, fmt.Errorf("loading call: %w", err)
	}

	// AwaitingAgentB -> HandingOff. Past this point cancellation is
	// disallowed: Agent A may already be mid-removal.
	t.State = StateHandingOff
	if err := m.transfers.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("entering handoff: %w", err)
	}

	grantB, err := m.grants.Issue(t.AgentB, c.RoomID, grant.RoleAgentPrimary, grant.AgentPermissions(), 0)
	if err != nil {
		m.fail(ctx, t, StateAwaitingAgentB)
		return nil, fmt.Errorf("issuing agent B original-room grant: %w", err)
	}

	// Agent A's grant simply expires; membership removal is explicit.
	if err := m.media.RemoveParticipant(ctx, c.RoomID, t.AgentA); err != nil {
		m.fail(ctx, t, StateHandingOff)
		return nil, fmt.Errorf("removing agent A from original room: %w", err)
	}

	// HandingOff -> Completed.
	completedAt := m.now().UTC()
	t.State = StateCompleted
	t.CompletedAt = &completedAt
	if err := m.transfers.Update(ctx, t); err != nil {
		m.fail(ctx, t, StateHandingOff)
		return nil, fmt.Errorf("completing transfer: %w", err)
	}

	m.destroyBriefingRoom(ctx, t)

	if err := m.calls.RemoveAgent(ctx, c.ID, t.AgentA); err != nil {
		m.logger.Warn("removing agent A from call failed", "call_id", c.ID, "error", err)
	}
	if _, joined := c.Agent(t.AgentB); !joined {
		p := call.Participant{Identity: t.AgentB, Role: grant.RoleAgentPrimary, JoinedAt: completedAt}
		if err := m.calls.AddAgent(ctx, c.ID, p); err != nil {
			m.logger.Warn("adding agent B to call failed", "call_id", c.ID, "error", err)
		}
	}
	c.Status = call.StatusActive
	c.ActiveTransferID = nil
	if err := m.calls.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("detaching transfer from call: %w", err)
	}

	m.logger.Info("transfer completed", "transfer_id", t.ID, "call_id", c.ID, "agent_b", t.AgentB)
	return &CompleteResult{Transfer: t, AgentBGrant: grantB, OriginalRoom: c.RoomID}, nil
}

// CancelTransfer aborts a transfer from one of the two designed abort points.
// Outside Requested and AwaitingAgentB it fails with ErrInvalidState and
// leaves state unchanged.
func (m *Machine) CancelTransfer(ctx context.Context, transferID string) error {
	t, err := m.lookup(ctx, transferID)
	if err != nil {
		return err
	}

	unlock := m.locks.Lock(t.CallID)
	defer unlock()

	t, err = m.lookup(ctx, transferID)
	if err != nil {
		return err
	}
	if !t.State.Cancellable() {
		return fmt.Errorf("%w: transfer %s is %s", ErrInvalidState, t.ID, t.State)
	}
	return m.cancel(ctx, t)
}

// CancelActive force-cancels the call's active transfer, if any. It backs the
// call-close path, where cancellation must win over an in-flight transfer
// regardless of stage; an in-flight summarization observes the terminal state
// when it commits.
func (m *Machine) CancelActive(ctx context.Context, callID string) error {
	unlock := m.locks.Lock(callID)
	defer unlock()

	c, err := m.calls.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCallNotFound
		}
		return fmt.Errorf("loading call: %w", err)
	}
	if c.ActiveTransferID == nil {
		return nil
	}
	t, err := m.transfers.Get(ctx, *c.ActiveTransferID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading transfer: %w", err)
	}
	if t.State.Terminal() {
		return m.detach(ctx, t)
	}
	return m.cancel(ctx, t)
}

// Get returns a transfer by id.
func (m *Machine) Get(ctx context.Context, transferID string) (*Transfer, error) {
	return m.lookup(ctx, transferID)
}

func (m *Machine) lookup(ctx context.Context, transferID string) (*Transfer, error) {
	if transferID == "" {
		return nil, fmt.Errorf("%w: transfer id is required", ErrInvalidInput)
	}
	t, err := m.transfers.Get(ctx, transferID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading transfer: %w", err)
	}
	return t, nil
}

// cancel moves a transfer to Cancelled, tears the briefing room down and
// detaches the transfer from its call. Caller holds the call lock.
func (m *Machine) cancel(ctx context.Context, t *Transfer) error {
	m.destroyBriefingRoom(ctx, t)
	t.State = StateCancelled
	if err := m.transfers.Update(ctx, t); err != nil {
		return fmt.Errorf("cancelling transfer: %w", err)
	}
	if err := m.detach(ctx, t); err != nil {
		return err
	}
	m.logger.Info("transfer cancelled", "transfer_id", t.ID, "call_id", t.CallID)
	return nil
}

// fail drives a transfer to Failed after an unrecoverable exit-action error,
// recording the last successfully completed state for diagnostics. The
// briefing room is destroyed best-effort on every terminal transition so
// transport resources never leak. Caller holds the call lock.
func (m *Machine) fail(ctx context.Context, t *Transfer, lastGood State) {
	m.destroyBriefingRoom(ctx, t)
	t.State = StateFailed
	t.FailedFrom = lastGood
	if err := m.transfers.Update(ctx, t); err != nil {
		m.logger.Error("recording transfer failure", "transfer_id", t.ID, "error", err)
	}
	if err := m.detach(ctx, t); err != nil {
		m.logger.Error("detaching failed transfer", "transfer_id", t.ID, "error", err)
	}
	m.logger.Warn("transfer failed", "transfer_id", t.ID, "call_id", t.CallID, "failed_from", lastGood)
}

// detach clears the call's active transfer reference and reverts a
// transferring call to active. A closed call stays closed.
func (m *Machine) detach(ctx context.Context, t *Transfer) error {
	c, err := m.calls.Get(ctx, t.CallID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading call: %w", err)
	}
	if c.ActiveTransferID == nil || *c.ActiveTransferID != t.ID {
		return nil
	}
	c.ActiveTransferID = nil
	if c.Status == call.StatusTransferring {
		c.Status = call.StatusActive
	}
	if err := m.calls.Update(ctx, c); err != nil {
		return fmt.Errorf("detaching transfer: %w", err)
	}
	return nil
}

func (m *Machine) destroyBriefingRoom(ctx context.Context, t *Transfer) {
	if t.BriefingRoomID == "" {
		return
	}
	if err := m.rooms.Destroy(ctx, t.BriefingRoomID); err != nil {
		m.logger.Warn("briefing room destroy failed", "transfer_id", t.ID,
			"room_id", t.BriefingRoomID, "error", err)
	}
}
