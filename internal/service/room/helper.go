package room

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/domain"
)

// connsOf resolves the sockets of every participant in the room. A missing
// connection is a benign race with a disconnect in flight and is skipped.
func (s service) connsOf(ctx context.Context, room *domain.Room) []*websocket.Conn {
	participants := room.Participants()

	conns := make([]*websocket.Conn, 0, len(participants))
	for _, p := range participants {
		conn, err := s.connRepo.GetConn(p.Id)
		if err != nil {
			s.logger.DebugContext(ctx, "failed to get conn", "conn_id", p.Id, "error", err)
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}

func (s service) connsExcept(ctx context.Context, room *domain.Room, exceptId string) []*websocket.Conn {
	participants := room.Participants()

	conns := make([]*websocket.Conn, 0, len(participants))
	for _, p := range participants {
		if p.Id == exceptId {
			continue
		}

		conn, err := s.connRepo.GetConn(p.Id)
		if err != nil {
			s.logger.DebugContext(ctx, "failed to get conn", "conn_id", p.Id, "error", err)
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}
