package session

import "errors"

var ErrNotFound = errors.New("session not found")

// JoinSession carries the validated profile from the REST handshake to the
// websocket upgrade that consumes it.
type JoinSession struct {
	RoomId      string  `json:"room_id"`
	DisplayName string  `json:"display_name"`
	IdentityId  *string `json:"identity_id"`
}
