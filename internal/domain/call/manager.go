package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/repository"
)

// GrantIssuer mints room access grants for call participants.
type GrantIssuer interface {
	Issue(identity, roomID string, role grant.Role, perms grant.Permissions, ttl time.Duration) (*grant.Grant, error)
}

// Manager is the aggregate root for call sessions. It owns the call's
// original room and enforces the one-active-transfer invariant together with
// the per-call lock table.
type Manager struct {
	calls     Repository
	rooms     RoomRegistry
	grants    GrantIssuer
	transfers TransferCoordinator
	locks     *LockTable
	now       Clock
	logger    *slog.Logger
}

// NewManager creates a call session manager.
func NewManager(
	calls Repository,
	rooms RoomRegistry,
	grants GrantIssuer,
	transfers TransferCoordinator,
	locks *LockTable,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		calls:     calls,
		rooms:     rooms,
		grants:    grants,
		transfers: transfers,
		locks:     locks,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock overrides the manager's clock for tests.
func (m *Manager) WithClock(now Clock) *Manager {
	m.now = now
	return m
}

// InitiateResult holds the created call and the caller's grant.
type InitiateResult struct {
	Call        *Call        `json:"call"`
	CallerGrant *grant.Grant `json:"caller_grant"`
}

// InitiateCall creates the original room, registers the call and issues the
// caller's grant.
func (m *Manager) InitiateCall(ctx context.Context, callerIdentity string) (*InitiateResult, error) {
	if callerIdentity == "" {
		return nil, fmt.Errorf("%w: caller identity is required", ErrInvalidInput)
	}

	rm, err := m.rooms.Create(ctx, room.KindOriginal)
	if err != nil {
		return nil, fmt.Errorf("creating original room: %w", err)
	}

	c := &Call{
		ID:             uuid.NewString(),
		CallerIdentity: callerIdentity,
		RoomID:         rm.ID,
		Status:         StatusActive,
		CreatedAt:      m.now().UTC(),
	}

	unlock := m.locks.Lock(c.ID)
	defer unlock()

	if err := m.calls.Create(ctx, c); err != nil {
		if derr := m.rooms.Destroy(ctx, rm.ID); derr != nil {
			m.logger.Warn("room cleanup failed after call registration error",
				"room_id", rm.ID, "error", derr)
		}
		return nil, fmt.Errorf("creating call: %w", err)
	}

	callerGrant, err := m.grants.Issue(callerIdentity, rm.ID, grant.RoleCaller, grant.CallerPermissions(), 0)
	if err != nil {
		return nil, fmt.Errorf("issuing caller grant: %w", err)
	}

	m.logger.Info("call initiated", "call_id", c.ID, "room_id", rm.ID, "caller", callerIdentity)
	return &InitiateResult{Call: c, CallerGrant: callerGrant}, nil
}

// ConnectAgent joins an agent to the call's original room and returns the
// agent's grant. Reconnecting an already-joined agent re-issues a grant.
func (m *Manager) ConnectAgent(ctx context.Context, callID, agentIdentity string) (*grant.Grant, error) {
	if agentIdentity == "" {
		return nil, fmt.Errorf("%w: agent identity is required", ErrInvalidInput)
	}

	unlock := m.locks.Lock(callID)
	defer unlock()

	c, err := m.calls.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("loading call: %w", err)
	}
	if c.Status == StatusClosed {
		return nil, ErrCallClosed
	}

	agentGrant, err := m.grants.Issue(agentIdentity, c.RoomID, grant.RoleAgentPrimary, grant.AgentPermissions(), 0)
	if err != nil {
		return nil, fmt.Errorf("issuing agent grant: %w", err)
	}

	if _, joined := c.Agent(agentIdentity); !joined {
		p := Participant{
			Identity: agentIdentity,
			Role:     grant.RoleAgentPrimary,
			JoinedAt: m.now().UTC(),
		}
		if err := m.calls.AddAgent(ctx, callID, p); err != nil {
			return nil, fmt.Errorf("registering agent: %w", err)
		}
	}

	m.logger.Info("agent connected", "call_id", callID, "agent", agentIdentity)
	return agentGrant, nil
}

// Get returns the call session.
func (m *Manager) Get(ctx context.Context, callID string) (*Call, error) {
	c, err := m.calls.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("loading call: %w", err)
	}
	return c, nil
}

// CloseCall terminates the call: any active transfer is cancelled through the
// transfer coordinator, the original room is destroyed and the call is marked
// closed. Closing an already-closed call is a no-op.
func (m *Manager) CloseCall(ctx context.Context, callID string) error {
	unlock := m.locks.Lock(callID)
	c, err := m.calls.Get(ctx, callID)
	if err != nil {
		unlock()
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCallNotFound
		}
		return fmt.Errorf("loading call: %w", err)
	}
	if c.Status == StatusClosed {
		unlock()
		return nil
	}

	closedAt := m.now().UTC()
	c.Status = StatusClosed
	c.ClosedAt = &closedAt
	if err := m.calls.Update(ctx, c); err != nil {
		unlock()
		return fmt.Errorf("closing call: %w", err)
	}
	unlock()

	// The coordinator takes the call lock itself; a transfer observed here is
	// force-cancelled, and an in-flight summarization notices the terminal
	// state when it commits.
	if m.transfers != nil {
		if err := m.transfers.CancelActive(ctx, callID); err != nil {
			m.logger.Warn("transfer cancellation on close failed", "call_id", callID, "error", err)
		}
	}

	if err := m.rooms.Destroy(ctx, c.RoomID); err != nil {
		m.logger.Warn("original room destroy failed", "call_id", callID, "room_id", c.RoomID, "error", err)
	}

	m.logger.Info("call closed", "call_id", callID)
	return nil
}
