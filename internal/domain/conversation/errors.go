package conversation

import "errors"

var (
	// ErrCallNotFound indicates the call doesn't exist.
	ErrCallNotFound = errors.New("call not found")
	// ErrCallClosed indicates the call no longer accepts utterances.
	ErrCallClosed = errors.New("call is closed")
	// ErrInvalidInput indicates invalid conversation input.
	ErrInvalidInput = errors.New("invalid conversation input")
)
