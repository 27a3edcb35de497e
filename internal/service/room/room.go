package room

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/domain"
	"github.com/roomcast/server/internal/repository/connection"
	"github.com/roomcast/server/internal/repository/session"
)

type CreateJoinSessionParams struct {
	RoomId        string
	DisplayName   string
	IdentityToken string
}

// CreateJoinSession validates the join handshake and stores it under a
// single-use connect token that the websocket upgrade consumes. A bad
// identity token degrades to guest instead of failing the handshake.
func (s service) CreateJoinSession(ctx context.Context, params *CreateJoinSessionParams) (string, error) {
	sess := session.JoinSession{
		RoomId:      params.RoomId,
		DisplayName: params.DisplayName,
	}

	if params.IdentityToken != "" {
		ident, err := s.verifier.VerifyToken(params.IdentityToken)
		if err != nil {
			s.logger.InfoContext(ctx, "identity verification failed, joining as guest", "error", err)
		} else {
			sess.IdentityId = &ident.Id
			if sess.DisplayName == "" {
				sess.DisplayName = ident.DisplayName
			}
		}
	}

	connectToken := uuid.NewString()
	if err := s.sessionRepo.SetJoinSession(ctx, connectToken, &sess); err != nil {
		return "", err
	}

	return connectToken, nil
}

type JoinRoomParams struct {
	Conn         *websocket.Conn
	RoomId       string
	ConnectToken string
}

type JoinRoomResponse struct {
	ConnId       string
	Joined       Participant
	State        RoomState
	Participants []Participant
	OtherConns   []*websocket.Conn

	// InitialSync is set when the joiner lands in an already-playing room
	// with company; the dispatcher delivers it after a short delay so the
	// client's player has time to initialize.
	InitialSync *SyncInstruction
}

// JoinRoom registers the connection as a participant, creating the room on
// first join. Without a valid connect token the connection joins as a guest.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	var (
		displayName string
		identityId  *string
	)

	if params.ConnectToken != "" {
		sess, err := s.sessionRepo.PopJoinSession(ctx, params.ConnectToken)
		switch {
		case err == nil && sess.RoomId == params.RoomId:
			displayName = sess.DisplayName
			identityId = sess.IdentityId
		case err == nil:
			s.logger.InfoContext(ctx, "connect token issued for another room, joining as guest",
				"session_room_id", sess.RoomId, "room_id", params.RoomId)
		default:
			s.logger.InfoContext(ctx, "failed to pop join session, joining as guest", "error", err)
		}
	}

	connId := uuid.NewString()

	var (
		room   *domain.Room
		joined domain.Participant
	)
	for {
		room = s.registry.GetOrCreate(params.RoomId)

		var err error
		joined, err = room.Join(connId, displayName, identityId)
		if errors.Is(err, domain.ErrRoomClosed) {
			// lost the race against a last-leave teardown; the next
			// lookup hands out a fresh room
			continue
		}
		if err != nil {
			return JoinRoomResponse{}, err
		}

		break
	}

	if err := s.connRepo.Add(params.Conn, connId, params.RoomId); err != nil {
		room.Leave(connId)
		s.registry.RemoveIfEmpty(params.RoomId)
		return JoinRoomResponse{}, err
	}

	resp := JoinRoomResponse{
		ConnId:       connId,
		Joined:       participantFromDomain(joined),
		State:        roomStateFromDomain(room.State()),
		Participants: participantsFromDomain(room.Participants()),
		OtherConns:   s.connsExcept(ctx, room, connId),
	}

	if playhead, ok := room.SyncSnapshot(); ok {
		resp.InitialSync = &SyncInstruction{
			PlayheadSeconds:  playhead,
			ToleranceSeconds: s.initialSyncTolerance,
		}
	}

	return resp, nil
}

type DisconnectParams struct {
	Conn *websocket.Conn
}

type DisconnectResponse struct {
	ConnId       string
	RoomId       string
	Left         Participant
	NewOwner     *Participant
	Participants []Participant
	Conns        []*websocket.Conn
	RoomDeleted  bool
}

// Disconnect removes the connection's participant from its room and tears
// the room down when the last participant leaves. Disconnecting an unknown
// connection is a no-op.
func (s service) Disconnect(ctx context.Context, params *DisconnectParams) (DisconnectResponse, error) {
	connId, roomId, err := s.connRepo.RemoveByConn(params.Conn)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return DisconnectResponse{}, nil
		}

		return DisconnectResponse{}, err
	}

	room, ok := s.registry.Get(roomId)
	if !ok {
		return DisconnectResponse{ConnId: connId, RoomId: roomId}, nil
	}

	result, removed := room.Leave(connId)
	if !removed {
		return DisconnectResponse{ConnId: connId, RoomId: roomId}, nil
	}

	resp := DisconnectResponse{
		ConnId: connId,
		RoomId: roomId,
		Left:   participantFromDomain(result.Left),
	}

	if result.Empty {
		resp.RoomDeleted = s.registry.RemoveIfEmpty(roomId)
		return resp, nil
	}

	if result.NewOwner != nil {
		owner := participantFromDomain(*result.NewOwner)
		resp.NewOwner = &owner
	}

	resp.Participants = participantsFromDomain(room.Participants())
	resp.Conns = s.connsOf(ctx, room)

	return resp, nil
}

// GetRoomState returns a full linearizable snapshot for the given room.
func (s service) GetRoomState(ctx context.Context, roomId string) (RoomState, error) {
	room, err := s.getRoom(roomId)
	if err != nil {
		return RoomState{}, err
	}

	return roomStateFromDomain(room.State()), nil
}
