package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/domain/transfer"
	"github.com/rpggio/warmline/internal/summary"
)

// statusForError maps domain sentinels onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, call.ErrCallNotFound),
		errors.Is(err, conversation.ErrCallNotFound),
		errors.Is(err, transfer.ErrCallNotFound),
		errors.Is(err, transfer.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, call.ErrCallClosed),
		errors.Is(err, conversation.ErrCallClosed),
		errors.Is(err, transfer.ErrInvalidState),
		errors.Is(err, transfer.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, transfer.ErrNoAgentAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, call.ErrInvalidInput),
		errors.Is(err, conversation.ErrInvalidInput),
		errors.Is(err, transfer.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, room.ErrTransport),
		errors.Is(err, transfer.ErrSummarization),
		errors.Is(err, summary.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
