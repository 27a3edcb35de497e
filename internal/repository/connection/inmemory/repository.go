package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/repository/connection"
)

// binding is the dispatcher's only per-connection state: which participant
// id a socket speaks for, and which room it currently sits in.
type binding struct {
	connId string
	roomId string
}

type repo struct {
	byConn map[*websocket.Conn]binding
	byId   map[string]*websocket.Conn
	mu     sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		byConn: make(map[*websocket.Conn]binding),
		byId:   make(map[string]*websocket.Conn),
	}
}

func (r *repo) Add(conn *websocket.Conn, connId, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[conn]; ok {
		return connection.ErrAlreadyExists
	}
	if _, ok := r.byId[connId]; ok {
		return connection.ErrAlreadyExists
	}

	r.byConn[conn] = binding{connId: connId, roomId: roomId}
	r.byId[connId] = conn

	return nil
}

func (r *repo) GetByConn(conn *websocket.Conn) (string, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byConn[conn]
	if !ok {
		return "", "", connection.ErrNotFound
	}

	return b.connId, b.roomId, nil
}

func (r *repo) GetConn(connId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byId[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byConn[conn]
	if !ok {
		return "", "", connection.ErrNotFound
	}

	delete(r.byConn, conn)
	delete(r.byId, b.connId)

	return b.connId, b.roomId, nil
}

func (r *repo) RemoveByConnId(connId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byId[connId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.byConn, conn)
	delete(r.byId, connId)

	return nil
}
