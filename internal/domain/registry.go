package domain

import (
	"sync"

	"golang.org/x/exp/maps"
)

// Registry is the process-wide collection of live rooms. Rooms are created
// on first join and removed once their participant set drains; the registry
// is passed explicitly to whoever needs it instead of living as a global.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	membersLimit int
	queueLimit   int
}

func NewRegistry(membersLimit, queueLimit int) *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		membersLimit: membersLimit,
		queueLimit:   queueLimit,
	}
}

// GetOrCreate returns the room with the given id, creating it when absent.
// A room caught mid-teardown counts as absent and is replaced.
func (g *Registry) GetOrCreate(roomId string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[roomId]
	if !ok || room.Closed() {
		room = NewRoom(roomId, g.membersLimit, g.queueLimit)
		g.rooms[roomId] = room
	}

	return room
}

func (g *Registry) Get(roomId string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	room, ok := g.rooms[roomId]
	return room, ok
}

// RemoveIfEmpty closes and drops the room when its participant set is empty,
// so the sync scheduler never evaluates a destroyed room. Closing happens
// under the registry lock: a join racing the teardown either lands before the
// close or gets ErrRoomClosed and retries against a fresh room.
func (g *Registry) RemoveIfEmpty(roomId string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[roomId]
	if !ok || !room.CloseIfEmpty() {
		return false
	}

	delete(g.rooms, roomId)
	return true
}

// Rooms returns a snapshot of the live rooms for iteration outside the
// registry lock.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return maps.Values(g.rooms)
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.rooms)
}
