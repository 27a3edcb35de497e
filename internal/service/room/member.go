package room

import (
	"context"

	"github.com/gorilla/websocket"
)

type AuthenticateParams struct {
	SenderId string
	RoomId   string
	Token    string
}

type AuthenticateResponse struct {
	Authenticated Participant
	Participants  []Participant
	Conns         []*websocket.Conn
}

// Authenticate verifies an identity token for an already-joined participant
// and attaches the identity. Verification failure is reported only to the
// requester; the participant stays connected as a guest.
func (s service) Authenticate(ctx context.Context, params *AuthenticateParams) (AuthenticateResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return AuthenticateResponse{}, err
	}

	ident, err := s.verifier.VerifyToken(params.Token)
	if err != nil {
		s.logger.InfoContext(ctx, "identity verification failed", "error", err)
		return AuthenticateResponse{}, err
	}

	authenticated, err := room.AttachIdentity(params.SenderId, ident.Id, ident.DisplayName)
	if err != nil {
		return AuthenticateResponse{}, err
	}

	return AuthenticateResponse{
		Authenticated: participantFromDomain(authenticated),
		Participants:  participantsFromDomain(room.Participants()),
		Conns:         s.connsOf(ctx, room),
	}, nil
}

type GrantPermissionParams struct {
	SenderId string
	RoomId   string
	TargetId string
}

type PermissionResponse struct {
	Target       Participant
	Participants []Participant
	Conns        []*websocket.Conn
}

func (s service) GrantPermission(ctx context.Context, params *GrantPermissionParams) (PermissionResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return PermissionResponse{}, err
	}

	target, err := room.GrantQueuePermission(params.SenderId, params.TargetId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to grant permission", "error", err)
		return PermissionResponse{}, err
	}

	return PermissionResponse{
		Target:       participantFromDomain(target),
		Participants: participantsFromDomain(room.Participants()),
		Conns:        s.connsOf(ctx, room),
	}, nil
}

type RevokePermissionParams struct {
	SenderId string
	RoomId   string
	TargetId string
}

func (s service) RevokePermission(ctx context.Context, params *RevokePermissionParams) (PermissionResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return PermissionResponse{}, err
	}

	target, err := room.RevokeQueuePermission(params.SenderId, params.TargetId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to revoke permission", "error", err)
		return PermissionResponse{}, err
	}

	return PermissionResponse{
		Target:       participantFromDomain(target),
		Participants: participantsFromDomain(room.Participants()),
		Conns:        s.connsOf(ctx, room),
	}, nil
}

type KickParams struct {
	SenderId string
	RoomId   string
	TargetId string
}

type KickResponse struct {
	Kicked       Participant
	KickedConn   *websocket.Conn
	Participants []Participant
	Conns        []*websocket.Conn
}

// Kick removes the target participant. The dispatcher must notify the kicked
// connection separately so its transport can close with a dedicated code.
func (s service) Kick(ctx context.Context, params *KickParams) (KickResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return KickResponse{}, err
	}

	kicked, err := room.Kick(params.SenderId, params.TargetId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to kick participant", "error", err)
		return KickResponse{}, err
	}

	kickedConn, err := s.connRepo.GetConn(params.TargetId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get kicked conn", "error", err)
	} else if err := s.connRepo.RemoveByConnId(params.TargetId); err != nil {
		s.logger.InfoContext(ctx, "failed to remove kicked conn", "error", err)
	}

	return KickResponse{
		Kicked:       participantFromDomain(kicked),
		KickedConn:   kickedConn,
		Participants: participantsFromDomain(room.Participants()),
		Conns:        s.connsOf(ctx, room),
	}, nil
}
