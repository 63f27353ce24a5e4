package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/repository"
)

// Log is the append-only ordered record of utterances per call. Appends for
// the same call are serialized by the call's lock; entries are ordered by
// arrival at the log, not by wall-clock time of the utterance.
type Log struct {
	entries Repository
	calls   CallRepository
	locks   *call.LockTable
	now     func() time.Time
	logger  *slog.Logger
}

// NewLog creates a conversation log service.
func NewLog(entries Repository, calls CallRepository, locks *call.LockTable, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		entries: entries,
		calls:   calls,
		locks:   locks,
		now:     time.Now,
		logger:  logger,
	}
}

// Append records one utterance and returns its sequence number.
func (l *Log) Append(ctx context.Context, callID, speaker, text string) (int64, error) {
	if callID == "" || speaker == "" || text == "" {
		return 0, fmt.Errorf("%w: call id, speaker and text are required", ErrInvalidInput)
	}

	unlock := l.locks.Lock(callID)
	defer unlock()

	c, err := l.calls.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrCallNotFound
		}
		return 0, fmt.Errorf("loading call: %w", err)
	}
	if c.Status == call.StatusClosed {
		return 0, ErrCallClosed
	}

	seq, err := l.entries.Append(ctx, &Entry{
		CallID:    callID,
		Speaker:   speaker,
		Text:      text,
		CreatedAt: l.now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("appending entry: %w", err)
	}
	return seq, nil
}

// Read returns a stable snapshot of the call's conversation ordered by
// sequence number. Entries appended after the snapshot are not included.
func (l *Log) Read(ctx context.Context, callID string) ([]Entry, error) {
	if callID == "" {
		return nil, fmt.Errorf("%w: call id is required", ErrInvalidInput)
	}
	if _, err := l.calls.Get(ctx, callID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("loading call: %w", err)
	}
	entries, err := l.entries.List(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}
