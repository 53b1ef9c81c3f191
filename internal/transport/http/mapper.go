package http

import (
	"context"
	"errors"
	"io"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/session"
)

// closeStatus maps the reason a session ended to the close frame we send.
func closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing"
	case errors.Is(err, core.ErrBadHandshake), errors.Is(err, core.ErrNameTaken), errors.Is(err, core.ErrRoomNotFound):
		return websocket.StatusNormalClosure, core.Code(err)
	case errors.Is(err, core.ErrStreamClosed):
		return websocket.StatusGoingAway, "room closed"
	case errors.Is(err, session.ErrUnexpectedFrame):
		return websocket.StatusUnsupportedData, "text frames only"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return websocket.StatusGoingAway, "server shutting down"
	}

	switch websocket.CloseStatus(err) {
	case -1:
		return websocket.StatusInternalError, "internal error"
	case websocket.StatusMessageTooBig:
		return websocket.StatusMessageTooBig, "message too big"
	default:
		// The peer already closed; our frame is a formality.
		return websocket.StatusNormalClosure, "closing"
	}
}
