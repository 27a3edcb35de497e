package domain

import "time"

// Participant is one connected identity inside a room.
type Participant struct {
	Id          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	IdentityId  *string   `json:"identity_id"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

func (p Participant) IsOwner() bool {
	return p.Role.IsOwner()
}

func (p Participant) HasQueuePermission() bool {
	return p.Role.CanEditQueue()
}

// participant is the stored form. seq breaks JoinedAt ties so ownership
// transfer stays deterministic even when two joins share a timestamp.
type participant struct {
	Participant
	seq uint64
}
