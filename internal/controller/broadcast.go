package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/domain"
	"github.com/roomcast/server/internal/identity"
	"github.com/roomcast/server/internal/service/room"
	"github.com/roomcast/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) error {
	if conn == nil {
		return nil
	}

	if err := conn.WriteJSON(output); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}

	return nil
}

// broadcast fans an output out to every connection, skipping the ones whose
// write fails. A dead socket is cleaned up by its own read loop.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
		}
	}
}

// writeWSError maps handler errors to the wire. Authorization failures get a
// dedicated unicast; stale targets are dropped silently since the sender acted
// on state that no longer exists.
func (c controller) writeWSError(ctx context.Context, conn *websocket.Conn, err error) {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		if werr := c.writeToConn(ctx, conn, &Output{
			Type: "PERMISSION_DENIED",
			Payload: map[string]any{
				"message": "permission denied",
			},
		}); werr != nil {
			c.logger.DebugContext(ctx, "failed to write error", "error", werr)
		}
	case errors.Is(err, domain.ErrParticipantNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, room.ErrRoomNotFound):
		c.logger.DebugContext(ctx, "dropped message for missing target", "error", err)
	case errors.Is(err, wsrouter.ErrUnknownMessageType):
		c.logger.InfoContext(ctx, "unknown message type", "error", err)
		c.writeGenericError(ctx, conn, "unknown message type")
	case errors.Is(err, identity.ErrInvalidToken):
		c.logger.InfoContext(ctx, "invalid identity token", "error", err)
		c.writeGenericError(ctx, conn, "invalid identity token")
	default:
		c.logger.InfoContext(ctx, "failed to handle message", "error", err)
		c.writeGenericError(ctx, conn, err.Error())
	}
}

func (c controller) writeGenericError(ctx context.Context, conn *websocket.Conn, message string) {
	if err := c.writeToConn(ctx, conn, &Output{
		Type: "ERROR",
		Payload: map[string]any{
			"message": message,
		},
	}); err != nil {
		c.logger.DebugContext(ctx, "failed to write error", "error", err)
	}
}
