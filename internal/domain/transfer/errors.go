package transfer

import "errors"

var (
	// ErrNotFound indicates the transfer doesn't exist.
	ErrNotFound = errors.New("transfer not found")
	// ErrCallNotFound indicates the transfer's call doesn't exist.
	ErrCallNotFound = errors.New("call not found")
	// ErrInvalidState indicates the operation is not allowed in the
	// transfer's or call's current state.
	ErrInvalidState = errors.New("invalid state for transfer operation")
	// ErrNoAgentAvailable indicates the call has no joined agent to hand off
	// from.
	ErrNoAgentAvailable = errors.New("no agent available for transfer")
	// ErrSummarization indicates the summarization step failed; briefing
	// without a summary defeats the purpose of a warm transfer, so this is a
	// hard failure.
	ErrSummarization = errors.New("summarization failed")
	// ErrCancelled indicates the transfer was cancelled while a step was in
	// flight.
	ErrCancelled = errors.New("transfer cancelled")
	// ErrInvalidInput indicates invalid transfer input.
	ErrInvalidInput = errors.New("invalid transfer input")
)
