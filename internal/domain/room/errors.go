package room

import "errors"

var (
	// ErrTransport indicates the media transport rejected a room operation.
	ErrTransport = errors.New("media transport error")
	// ErrInvalidInput indicates invalid room input.
	ErrInvalidInput = errors.New("invalid room input")
)
