package call

import "errors"

var (
	// ErrCallNotFound indicates the call doesn't exist.
	ErrCallNotFound = errors.New("call not found")
	// ErrCallClosed indicates the operation targets a closed call.
	ErrCallClosed = errors.New("call is closed")
	// ErrInvalidInput indicates invalid call input.
	ErrInvalidInput = errors.New("invalid call input")
)
