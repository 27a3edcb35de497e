package room

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/domain"
)

type SetPlayingParams struct {
	SenderId  string
	RoomId    string
	IsPlaying bool
}

type SetPlayingResponse struct {
	Player PlayerState

	// OtherConns excludes the sender: it already applied the flip locally
	// and echoing it back risks double-application.
	OtherConns []*websocket.Conn
}

// SetPlaying freezes or resumes the room playhead. Playback control is part
// of queue permission.
func (s service) SetPlaying(ctx context.Context, params *SetPlayingParams) (SetPlayingResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return SetPlayingResponse{}, err
	}

	if !room.HasQueuePermission(params.SenderId) {
		return SetPlayingResponse{}, domain.ErrPermissionDenied
	}

	if !room.SetPlaying(params.IsPlaying) {
		// idle room: nothing changed, nobody needs to hear about it
		return SetPlayingResponse{}, nil
	}

	return SetPlayingResponse{
		Player: PlayerState{
			IsPlaying:       room.IsPlaying(),
			PlayheadSeconds: room.CurrentPlayhead(),
		},
		OtherConns: s.connsExcept(ctx, room, params.SenderId),
	}, nil
}

type SeekParams struct {
	SenderId string
	RoomId   string
	Seconds  float64
}

type SeekResponse struct {
	Player     PlayerState
	OtherConns []*websocket.Conn
}

func (s service) Seek(ctx context.Context, params *SeekParams) (SeekResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return SeekResponse{}, err
	}

	if !room.HasQueuePermission(params.SenderId) {
		return SeekResponse{}, domain.ErrPermissionDenied
	}

	if !room.Seek(params.Seconds) {
		return SeekResponse{}, nil
	}

	return SeekResponse{
		Player: PlayerState{
			IsPlaying:       room.IsPlaying(),
			PlayheadSeconds: room.CurrentPlayhead(),
		},
		OtherConns: s.connsExcept(ctx, room, params.SenderId),
	}, nil
}

type SkipParams struct {
	SenderId string
	RoomId   string
}

type AdvanceResponse struct {
	// Current is nil when the queue ran out and the room went idle.
	Current *domain.QueueEntry
	Queue   []domain.QueueEntry
	Conns   []*websocket.Conn
}

// Skip advances to the next queue entry on behalf of a sender with queue
// permission.
func (s service) Skip(ctx context.Context, params *SkipParams) (AdvanceResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return AdvanceResponse{}, err
	}

	if !room.HasQueuePermission(params.SenderId) {
		return AdvanceResponse{}, domain.ErrPermissionDenied
	}

	return AdvanceResponse{
		Current: room.Advance(),
		Queue:   room.Queue(),
		Conns:   s.connsOf(ctx, room),
	}, nil
}

type ItemEndedParams struct {
	SenderId string
	RoomId   string
}

// ItemEnded advances on a client-reported end of item. Any participant may
// report it; end detection lives in the client, not in server-side duration
// tracking.
func (s service) ItemEnded(ctx context.Context, params *ItemEndedParams) (AdvanceResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return AdvanceResponse{}, err
	}

	return AdvanceResponse{
		Current: room.Advance(),
		Queue:   room.Queue(),
		Conns:   s.connsOf(ctx, room),
	}, nil
}

type ReportTimeParams struct {
	SenderId string
	RoomId   string
	Seconds  float64
}

// ReportTime feeds a client's observed position back into the server's
// authoritative estimate. No broadcast results; the next sync tick carries
// the corrected value.
func (s service) ReportTime(ctx context.Context, params *ReportTimeParams) error {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	room.ReportClientTime(params.Seconds)
	return nil
}
