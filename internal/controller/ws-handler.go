package controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/service/room"
)

// connectRoom upgrades the request to a websocket and registers the
// connection as a room participant, creating the room when it is the first
// join. The connect token from the handshake step is optional; without it the
// connection joins as a guest.
func (c controller) connectRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		c.logger.DebugContext(r.Context(), "empty room id")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	connectToken := r.URL.Query().Get("connect-token")

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	joinRoomResp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		Conn:         conn,
		RoomId:       roomId,
		ConnectToken: connectToken,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to join room", "error", err)
		c.writeGenericError(r.Context(), conn, err.Error())
		conn.Close()
		return
	}
	defer c.disconnect(context.WithoutCancel(r.Context()), conn)

	if err := c.writeToConn(r.Context(), conn, &Output{
		Type: "ROOM_STATE",
		Payload: map[string]any{
			"participant": joinRoomResp.Joined,
			"room":        joinRoomResp.State,
		},
	}); err != nil {
		c.logger.InfoContext(r.Context(), "failed to write room state", "error", err)
		return
	}

	c.broadcast(r.Context(), joinRoomResp.OtherConns, &Output{
		Type: "PARTICIPANT_JOINED",
		Payload: map[string]any{
			"joined_participant": joinRoomResp.Joined,
			"participants":       joinRoomResp.Participants,
		},
	})

	if joinRoomResp.InitialSync != nil {
		c.scheduleInitialSync(context.WithoutCancel(r.Context()), conn, *joinRoomResp.InitialSync)
	}

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, connIdCtxKey, joinRoomResp.ConnId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(r.Context(), "conn closed", "error", err)
	}
}

// scheduleInitialSync delivers a one-shot tight correction after a short
// delay, giving the joiner's player time to load the current item.
func (c controller) scheduleInitialSync(ctx context.Context, conn *websocket.Conn, sync room.SyncInstruction) {
	time.AfterFunc(c.roomService.InitialSyncDelay(), func() {
		if err := c.writeToConn(ctx, conn, &Output{
			Type:    "INITIAL_SYNC",
			Payload: sync,
		}); err != nil {
			c.logger.DebugContext(ctx, "failed to write initial sync", "error", err)
		}
	})
}

func (c controller) disconnect(ctx context.Context, conn *websocket.Conn) {
	disconnectResp, err := c.roomService.Disconnect(ctx, &room.DisconnectParams{Conn: conn})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to disconnect", "error", err)
		return
	}

	if disconnectResp.ConnId == "" || disconnectResp.RoomDeleted {
		return
	}

	c.broadcast(ctx, disconnectResp.Conns, &Output{
		Type: "PARTICIPANT_LEFT",
		Payload: map[string]any{
			"disconnected_participant_id": disconnectResp.ConnId,
			"participants":                disconnectResp.Participants,
		},
	})

	if disconnectResp.NewOwner != nil {
		c.broadcast(ctx, disconnectResp.Conns, &Output{
			Type: "PERMISSIONS_UPDATED",
			Payload: map[string]any{
				"updated_participant": disconnectResp.NewOwner,
				"participants":        disconnectResp.Participants,
			},
		})
	}
}

type EmptyInput struct{}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return nil
}

type AuthenticateInput struct {
	IdentityToken string `json:"identity_token"`
}

func (c controller) handleAuthenticate(ctx context.Context, conn *websocket.Conn, input AuthenticateInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	authenticateResp, err := c.roomService.Authenticate(ctx, &room.AuthenticateParams{
		SenderId: connId,
		RoomId:   roomId,
		Token:    input.IdentityToken,
	})
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	c.broadcast(ctx, authenticateResp.Conns, &Output{
		Type: "PERMISSIONS_UPDATED",
		Payload: map[string]any{
			"updated_participant": authenticateResp.Authenticated,
			"participants":        authenticateResp.Participants,
		},
	})

	return nil
}

type GrantPermissionInput struct {
	ParticipantId string `json:"participant_id"`
}

func (c controller) handleGrantPermission(ctx context.Context, _ *websocket.Conn, input GrantPermissionInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	grantResp, err := c.roomService.GrantPermission(ctx, &room.GrantPermissionParams{
		SenderId: connId,
		RoomId:   roomId,
		TargetId: input.ParticipantId,
	})
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}

	c.broadcast(ctx, grantResp.Conns, &Output{
		Type: "PERMISSIONS_UPDATED",
		Payload: map[string]any{
			"updated_participant": grantResp.Target,
			"participants":        grantResp.Participants,
		},
	})

	return nil
}

type RevokePermissionInput struct {
	ParticipantId string `json:"participant_id"`
}

func (c controller) handleRevokePermission(ctx context.Context, _ *websocket.Conn, input RevokePermissionInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	revokeResp, err := c.roomService.RevokePermission(ctx, &room.RevokePermissionParams{
		SenderId: connId,
		RoomId:   roomId,
		TargetId: input.ParticipantId,
	})
	if err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}

	c.broadcast(ctx, revokeResp.Conns, &Output{
		Type: "PERMISSIONS_UPDATED",
		Payload: map[string]any{
			"updated_participant": revokeResp.Target,
			"participants":        revokeResp.Participants,
		},
	})

	return nil
}

type KickParticipantInput struct {
	ParticipantId string `json:"participant_id"`
}

func (c controller) handleKickParticipant(ctx context.Context, _ *websocket.Conn, input KickParticipantInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	kickResp, err := c.roomService.Kick(ctx, &room.KickParams{
		SenderId: connId,
		RoomId:   roomId,
		TargetId: input.ParticipantId,
	})
	if err != nil {
		return fmt.Errorf("failed to kick participant: %w", err)
	}

	if kickResp.KickedConn != nil {
		if err := c.writeToConn(ctx, kickResp.KickedConn, &Output{
			Type: "KICKED",
		}); err != nil {
			c.logger.DebugContext(ctx, "failed to write kicked", "error", err)
		}

		// close with specific code
		kickResp.KickedConn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(4001, "kicked"), time.Now().Add(time.Second*5))
	}

	c.broadcast(ctx, kickResp.Conns, &Output{
		Type: "PARTICIPANT_LEFT",
		Payload: map[string]any{
			"disconnected_participant_id": kickResp.Kicked.Id,
			"participants":                kickResp.Participants,
		},
	})

	return nil
}

type EnqueueItemInput struct {
	SourceUrl string `json:"source_url"`
}

func (c controller) handleEnqueueItem(ctx context.Context, _ *websocket.Conn, input EnqueueItemInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	// authorize first so permission-less senders cannot trigger outbound
	// fetches through the search provider
	if err := c.roomService.CheckQueuePermission(ctx, roomId, connId); err != nil {
		return fmt.Errorf("failed to enqueue item: %w", err)
	}

	items, err := c.searchProvider.Search(ctx, input.SourceUrl)
	if err != nil {
		return fmt.Errorf("failed to resolve media item: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("no media found for %q", input.SourceUrl)
	}

	enqueueResp, err := c.roomService.Enqueue(ctx, &room.EnqueueParams{
		SenderId: connId,
		RoomId:   roomId,
		Item:     items[0],
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue item: %w", err)
	}

	if enqueueResp.Started != nil {
		c.broadcast(ctx, enqueueResp.Conns, &Output{
			Type: "NOW_PLAYING",
			Payload: map[string]any{
				"current": enqueueResp.Started,
				"queue":   enqueueResp.Queue,
				"player":  enqueueResp.Player,
			},
		})

		return nil
	}

	c.broadcast(ctx, enqueueResp.Conns, &Output{
		Type: "QUEUE_UPDATED",
		Payload: map[string]any{
			"added_entry": enqueueResp.Entry,
			"queue":       enqueueResp.Queue,
		},
	})

	return nil
}

type DequeueItemInput struct {
	EntryId int `json:"entry_id"`
}

func (c controller) handleDequeueItem(ctx context.Context, _ *websocket.Conn, input DequeueItemInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	dequeueResp, err := c.roomService.Dequeue(ctx, &room.DequeueParams{
		SenderId: connId,
		RoomId:   roomId,
		EntryId:  input.EntryId,
	})
	if err != nil {
		return fmt.Errorf("failed to dequeue item: %w", err)
	}

	c.broadcast(ctx, dequeueResp.Conns, &Output{
		Type: "QUEUE_UPDATED",
		Payload: map[string]any{
			"removed_entry_id": input.EntryId,
			"queue":            dequeueResp.Queue,
		},
	})

	return nil
}

type ReorderQueueInput struct {
	EntryIds []int `json:"entry_ids"`
}

func (c controller) handleReorderQueue(ctx context.Context, _ *websocket.Conn, input ReorderQueueInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	reorderResp, err := c.roomService.Reorder(ctx, &room.ReorderParams{
		SenderId: connId,
		RoomId:   roomId,
		Order:    input.EntryIds,
	})
	if err != nil {
		return fmt.Errorf("failed to reorder queue: %w", err)
	}

	c.broadcast(ctx, reorderResp.Conns, &Output{
		Type: "QUEUE_UPDATED",
		Payload: map[string]any{
			"queue": reorderResp.Queue,
		},
	})

	return nil
}

func (c controller) handlePlay(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return c.setPlaying(ctx, true, "PLAY")
}

func (c controller) handlePause(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return c.setPlaying(ctx, false, "PAUSE")
}

func (c controller) setPlaying(ctx context.Context, isPlaying bool, outputType string) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	setPlayingResp, err := c.roomService.SetPlaying(ctx, &room.SetPlayingParams{
		SenderId:  connId,
		RoomId:    roomId,
		IsPlaying: isPlaying,
	})
	if err != nil {
		return fmt.Errorf("failed to set playing: %w", err)
	}

	c.broadcast(ctx, setPlayingResp.OtherConns, &Output{
		Type: outputType,
		Payload: map[string]any{
			"player": setPlayingResp.Player,
		},
	})

	return nil
}

type SeekInput struct {
	PlayheadSeconds float64 `json:"playhead_seconds"`
}

func (c controller) handleSeek(ctx context.Context, _ *websocket.Conn, input SeekInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	seekResp, err := c.roomService.Seek(ctx, &room.SeekParams{
		SenderId: connId,
		RoomId:   roomId,
		Seconds:  input.PlayheadSeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	c.broadcast(ctx, seekResp.OtherConns, &Output{
		Type: "SEEK",
		Payload: map[string]any{
			"player": seekResp.Player,
		},
	})

	return nil
}

func (c controller) handleSkip(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	advanceResp, err := c.roomService.Skip(ctx, &room.SkipParams{
		SenderId: connId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to skip: %w", err)
	}

	return c.broadcastAdvance(ctx, &advanceResp)
}

func (c controller) handleItemEnded(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	advanceResp, err := c.roomService.ItemEnded(ctx, &room.ItemEndedParams{
		SenderId: connId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to advance on item end: %w", err)
	}

	return c.broadcastAdvance(ctx, &advanceResp)
}

func (c controller) broadcastAdvance(ctx context.Context, advanceResp *room.AdvanceResponse) error {
	if advanceResp.Current == nil {
		c.broadcast(ctx, advanceResp.Conns, &Output{
			Type: "QUEUE_EXHAUSTED",
		})

		return nil
	}

	c.broadcast(ctx, advanceResp.Conns, &Output{
		Type: "NOW_PLAYING",
		Payload: map[string]any{
			"current": advanceResp.Current,
			"queue":   advanceResp.Queue,
		},
	})

	return nil
}

type ReportTimeInput struct {
	PlayheadSeconds float64 `json:"playhead_seconds"`
}

func (c controller) handleReportTime(ctx context.Context, _ *websocket.Conn, input ReportTimeInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	connId := c.getConnIdFromCtx(ctx)

	if err := c.roomService.ReportTime(ctx, &room.ReportTimeParams{
		SenderId: connId,
		RoomId:   roomId,
		Seconds:  input.PlayheadSeconds,
	}); err != nil {
		return fmt.Errorf("failed to report time: %w", err)
	}

	return nil
}
