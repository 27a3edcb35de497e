package room

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/domain"
)

type EnqueueParams struct {
	SenderId string
	RoomId   string
	Item     domain.MediaItem
}

type EnqueueResponse struct {
	Entry QueueEntry
	Queue []domain.QueueEntry
	Conns []*websocket.Conn

	// Started is set when the room had nothing playing and the enqueue
	// auto-started playback on the new entry.
	Started *domain.QueueEntry
	Player  PlayerState
}

type QueueEntry = domain.QueueEntry

// CheckQueuePermission reports whether the sender may edit the queue, without
// mutating anything. The dispatcher authorizes with it before resolving media
// through the external search provider.
func (s service) CheckQueuePermission(ctx context.Context, roomId, senderId string) error {
	room, err := s.getRoom(roomId)
	if err != nil {
		return err
	}

	if !room.HasQueuePermission(senderId) {
		return domain.ErrPermissionDenied
	}

	return nil
}

// Enqueue appends an item for a sender with queue permission. Enqueueing
// into an idle room atomically starts playback on the added entry.
func (s service) Enqueue(ctx context.Context, params *EnqueueParams) (EnqueueResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return EnqueueResponse{}, err
	}

	result, err := room.Enqueue(params.SenderId, params.Item)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to enqueue item", "error", err)
		return EnqueueResponse{}, err
	}

	return EnqueueResponse{
		Entry:   result.Entry,
		Queue:   room.Queue(),
		Conns:   s.connsOf(ctx, room),
		Started: result.Started,
		Player: PlayerState{
			IsPlaying:       room.IsPlaying(),
			PlayheadSeconds: room.CurrentPlayhead(),
		},
	}, nil
}

type DequeueParams struct {
	SenderId string
	RoomId   string
	EntryId  int
}

type DequeueResponse struct {
	Removed QueueEntry
	Queue   []domain.QueueEntry
	Conns   []*websocket.Conn
}

func (s service) Dequeue(ctx context.Context, params *DequeueParams) (DequeueResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return DequeueResponse{}, err
	}

	removed, err := room.Dequeue(params.SenderId, params.EntryId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to dequeue item", "error", err)
		return DequeueResponse{}, err
	}

	return DequeueResponse{
		Removed: removed,
		Queue:   room.Queue(),
		Conns:   s.connsOf(ctx, room),
	}, nil
}

type ReorderParams struct {
	SenderId string
	RoomId   string
	Order    []int
}

type ReorderResponse struct {
	Queue []domain.QueueEntry
	Conns []*websocket.Conn
}

// Reorder applies a client-proposed ordering. The domain rejects anything
// that is not a permutation of the live queue, which shields against
// lost-update races between concurrent editors.
func (s service) Reorder(ctx context.Context, params *ReorderParams) (ReorderResponse, error) {
	room, err := s.getRoom(params.RoomId)
	if err != nil {
		return ReorderResponse{}, err
	}

	queue, err := room.Reorder(params.SenderId, params.Order)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to reorder queue", "error", err)
		return ReorderResponse{}, err
	}

	return ReorderResponse{
		Queue: queue,
		Conns: s.connsOf(ctx, room),
	}, nil
}
