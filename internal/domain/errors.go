package domain

import "errors"

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEntryNotFound       = errors.New("queue entry not found")
	ErrNotPermutation      = errors.New("order is not a permutation of the queue")
	ErrMembersLimitReached = errors.New("members limit reached")
	ErrQueueLimitReached   = errors.New("queue limit reached")
	ErrAlreadyInRoom       = errors.New("connection already joined the room")
	ErrRoomClosed          = errors.New("room is closed")
)
