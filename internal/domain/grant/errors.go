package grant

import "errors"

var (
	// ErrNotConfigured indicates signing key material is missing.
	ErrNotConfigured = errors.New("grant signing credentials not configured")
	// ErrInvalidInput indicates invalid grant issuance input.
	ErrInvalidInput = errors.New("invalid grant input")
)
