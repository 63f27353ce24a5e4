package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/rpggio/warmline/internal/repository"
)

// Registry tracks logical rooms and drives the media transport.
type Registry struct {
	repo          Repository
	transport     MediaTransport
	emptyTimeout  time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

// RegistryConfig configures room defaults.
type RegistryConfig struct {
	EmptyTimeout  time.Duration
	RetryInterval time.Duration
}

// NewRegistry creates a room registry.
func NewRegistry(repo Repository, transport MediaTransport, cfg RegistryConfig, logger *slog.Logger) *Registry {
	if cfg.EmptyTimeout <= 0 {
		cfg.EmptyTimeout = 10 * time.Minute
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		repo:          repo,
		transport:     transport,
		emptyTimeout:  cfg.EmptyTimeout,
		retryInterval: cfg.RetryInterval,
		logger:        logger,
	}
}

// Create materializes a fresh room of the given kind. The identifier is a
// random 128-bit UUID; collisions are treated as negligible. The transport
// call is retried once with backoff, then surfaced as ErrTransport with no
// room registered.
func (r *Registry) Create(ctx context.Context, kind Kind) (*Room, error) {
	if kind != KindOriginal && kind != KindBriefing {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	rm := &Room{
		ID:           uuid.NewString(),
		Kind:         kind,
		EmptyTimeout: r.emptyTimeout,
		CreatedAt:    time.Now().UTC(),
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.retryInterval
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, r.transport.CreateRoom(ctx, rm.ID, rm.EmptyTimeout)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(2))
	if err != nil {
		return nil, fmt.Errorf("%w: creating room %s: %v", ErrTransport, rm.ID, err)
	}

	if err := r.repo.Create(ctx, rm); err != nil {
		// Keep the transport consistent with local bookkeeping.
		if derr := r.transport.DestroyRoom(ctx, rm.ID); derr != nil {
			r.logger.Warn("orphaned transport room after registration failure",
				"room_id", rm.ID, "error", derr)
		}
		return nil, fmt.Errorf("registering room: %w", err)
	}

	r.logger.Info("room created", "room_id", rm.ID, "kind", kind)
	return rm, nil
}

// Destroy tears a room down. It is idempotent: destroying a missing or
// already-destroyed room is a no-op. Transport failure is non-fatal; a stray
// remote room is preferable to a stuck state machine, so local bookkeeping is
// cleared regardless.
func (r *Registry) Destroy(ctx context.Context, roomID string) error {
	if roomID == "" {
		return nil
	}

	_, err := r.repo.Get(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading room: %w", err)
	}

	if err := r.transport.DestroyRoom(ctx, roomID); err != nil {
		r.logger.Warn("transport room destroy failed", "room_id", roomID, "error", err)
	}

	if err := r.repo.Delete(ctx, roomID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting room: %w", err)
	}

	r.logger.Info("room destroyed", "room_id", roomID)
	return nil
}

// Exists reports whether the registry tracks a room.
func (r *Registry) Exists(ctx context.Context, roomID string) (bool, error) {
	return r.repo.Exists(ctx, roomID)
}
