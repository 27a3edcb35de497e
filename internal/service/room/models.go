package room

import (
	"time"

	"github.com/roomcast/server/internal/domain"
)

type Participant struct {
	Id                 string    `json:"id"`
	DisplayName        string    `json:"display_name"`
	IsOwner            bool      `json:"is_owner"`
	HasQueuePermission bool      `json:"has_queue_permission"`
	JoinedAt           time.Time `json:"joined_at"`
}

func participantFromDomain(p domain.Participant) Participant {
	return Participant{
		Id:                 p.Id,
		DisplayName:        p.DisplayName,
		IsOwner:            p.IsOwner(),
		HasQueuePermission: p.HasQueuePermission(),
		JoinedAt:           p.JoinedAt,
	}
}

func participantsFromDomain(list []domain.Participant) []Participant {
	participants := make([]Participant, 0, len(list))
	for _, p := range list {
		participants = append(participants, participantFromDomain(p))
	}

	return participants
}

type PlayerState struct {
	IsPlaying       bool    `json:"is_playing"`
	PlayheadSeconds float64 `json:"playhead_seconds"`
}

type RoomState struct {
	RoomId       string              `json:"room_id"`
	Participants []Participant       `json:"participants"`
	Queue        []domain.QueueEntry `json:"queue"`
	Current      *domain.QueueEntry  `json:"current"`
	Player       PlayerState         `json:"player"`
}

func roomStateFromDomain(state domain.State) RoomState {
	return RoomState{
		RoomId:       state.RoomId,
		Participants: participantsFromDomain(state.Participants),
		Queue:        state.Queue,
		Current:      state.Current,
		Player: PlayerState{
			IsPlaying:       state.IsPlaying,
			PlayheadSeconds: state.PlayheadSeconds,
		},
	}
}
