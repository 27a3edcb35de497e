package app

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/server/internal/domain"
	"github.com/roomcast/server/internal/identity"
	"github.com/roomcast/server/internal/repository/connection/inmemory"
	sessionRedis "github.com/roomcast/server/internal/repository/session/redis"
	"github.com/roomcast/server/internal/service/room"
)

func TestAppConfigValidate(t *testing.T) {
	valid := AppConfig{
		MembersLimit:         9,
		QueueLimit:           25,
		SyncIntervalSeconds:  10,
		SyncTolerance:        4,
		InitialSyncTolerance: 2,
	}
	require.NoError(t, valid.Validate())

	noMembers := valid
	noMembers.MembersLimit = 0
	assert.Error(t, noMembers.Validate(), "members limit must be required")

	noQueue := valid
	noQueue.QueueLimit = 0
	assert.Error(t, noQueue.Validate(), "queue limit must be required")

	noInterval := valid
	noInterval.SyncIntervalSeconds = 0
	assert.Error(t, noInterval.Validate(), "sync interval must be required")

	noTolerance := valid
	noTolerance.SyncTolerance = 0
	assert.Error(t, noTolerance.Validate(), "sync tolerance must be required")

	noInitialTolerance := valid
	noInitialTolerance.InitialSyncTolerance = 0
	assert.Error(t, noInitialTolerance.Validate(), "initial sync tolerance must be required")
}

func TestRoomLifecycle(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	sessionRepo := sessionRedis.NewRepo(rc, 5*time.Minute)
	connectionRepo := inmemory.NewRepo()
	registry := domain.NewRegistry(9, 25)
	verifier := identity.NewVerifier("test-secret")

	service := room.NewService(registry, connectionRepo, sessionRepo, verifier, &room.Config{
		MembersLimit:         9,
		QueueLimit:           25,
		SyncInterval:         10 * time.Second,
		SyncTolerance:        4,
		InitialSyncTolerance: 2,
		InitialSyncDelay:     time.Second,
	}, slog.Default())

	ctx := context.Background()

	// create room
	roomId := service.NewRoomId()
	require.NotEmpty(t, roomId, "room id is empty")

	connectToken, err := service.CreateJoinSession(ctx, &room.CreateJoinSessionParams{
		RoomId:      roomId,
		DisplayName: "user1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, connectToken, "connect token is empty")

	conn1 := &websocket.Conn{}
	joinResp1, err := service.JoinRoom(ctx, &room.JoinRoomParams{
		Conn:         conn1,
		RoomId:       roomId,
		ConnectToken: connectToken,
	})
	require.NoError(t, err)
	assert.Equal(t, "user1", joinResp1.Joined.DisplayName, "display name is not equal")
	assert.True(t, joinResp1.Joined.IsOwner, "first joiner must be owner")
	t.Log("room created")

	// member join room
	conn2 := &websocket.Conn{}
	joinResp2, err := service.JoinRoom(ctx, &room.JoinRoomParams{
		Conn:   conn2,
		RoomId: roomId,
	})
	require.NoError(t, err)
	assert.False(t, joinResp2.Joined.IsOwner, "second joiner must not be owner")
	assert.Equal(t, 2, len(joinResp2.Participants), "participants must contain 2 entries")
	t.Log("member joined")

	// owner enqueues into the idle room
	enqueueResp, err := service.Enqueue(ctx, &room.EnqueueParams{
		SenderId: joinResp1.ConnId,
		RoomId:   roomId,
		Item:     domain.MediaItem{ExternalId: "v1", Title: "first"},
	})
	require.NoError(t, err)
	assert.NotNil(t, enqueueResp.Started, "enqueue into an idle room must start playback")
	assert.Equal(t, 2, len(enqueueResp.Conns), "conns must contain 2 conns")
	t.Log("item enqueued")

	// member disconnect
	disconnectResp, err := service.Disconnect(ctx, &room.DisconnectParams{Conn: conn2})
	require.NoError(t, err)
	assert.False(t, disconnectResp.RoomDeleted, "room must not be deleted")
	assert.Equal(t, 1, len(disconnectResp.Participants), "participants must contain 1 entry")
	t.Log("member disconnected")

	// owner disconnect tears the room down
	disconnectResp, err = service.Disconnect(ctx, &room.DisconnectParams{Conn: conn1})
	require.NoError(t, err)
	assert.True(t, disconnectResp.RoomDeleted, "room must be deleted")
	assert.Equal(t, 0, registry.Len(), "registry must be empty")
}
