package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate(t *testing.T) {
	registry := NewRegistry(9, 25)

	room := registry.GetOrCreate("room-1")
	require.NotNil(t, room)
	assert.Equal(t, 1, registry.Len())

	// same id yields the same room
	again := registry.GetOrCreate("room-1")
	assert.Same(t, room, again)
	assert.Equal(t, 1, registry.Len())

	// different ids are independent
	other := registry.GetOrCreate("room-2")
	assert.NotSame(t, room, other)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry(9, 25)

	_, ok := registry.Get("missing")
	assert.False(t, ok)

	created := registry.GetOrCreate("room-1")
	got, ok := registry.Get("room-1")
	require.True(t, ok)
	assert.Same(t, created, got)
}

func TestRegistryRemoveIfEmpty(t *testing.T) {
	registry := NewRegistry(9, 25)
	room := registry.GetOrCreate("room-1")

	room.Join("conn-1", "alice", nil)

	// occupied rooms survive
	assert.False(t, registry.RemoveIfEmpty("room-1"))
	assert.Equal(t, 1, registry.Len())

	room.Leave("conn-1")
	assert.True(t, registry.RemoveIfEmpty("room-1"))
	assert.Equal(t, 0, registry.Len())

	// removing a missing room is a no-op
	assert.False(t, registry.RemoveIfEmpty("room-1"))
}

func TestRegistryRemoveIfEmptyClosesRoom(t *testing.T) {
	registry := NewRegistry(9, 25)

	room := registry.GetOrCreate("room-1")
	_, err := room.Join("conn-1", "alice", nil)
	require.NoError(t, err)
	_, removed := room.Leave("conn-1")
	require.True(t, removed)

	require.True(t, registry.RemoveIfEmpty("room-1"))

	// a stale reference cannot resurrect the room outside the registry
	_, err = room.Join("conn-2", "bob", nil)
	assert.ErrorIs(t, err, ErrRoomClosed)

	// the registry hands out a fresh room for the same id
	fresh := registry.GetOrCreate("room-1")
	assert.NotSame(t, room, fresh)
	_, err = fresh.Join("conn-2", "bob", nil)
	require.NoError(t, err)
}

func TestRegistryRooms(t *testing.T) {
	registry := NewRegistry(9, 25)
	registry.GetOrCreate("room-1")
	registry.GetOrCreate("room-2")

	rooms := registry.Rooms()
	assert.Len(t, rooms, 2)
}
