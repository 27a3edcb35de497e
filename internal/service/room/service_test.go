package room

import (
	"context"
	"log/slog"
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
)

func newTestService(t *testing.T) (*service, *identity.Verifier) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	sessionRepo := sessionRedis.NewRepo(rc, 5*time.Minute)
	connRepo := inmemory.NewRepo()
	registry := domain.NewRegistry(9, 25)
	verifier := identity.NewVerifier("test-secret")

	svc := NewService(registry, connRepo, sessionRepo, verifier, &Config{
		MembersLimit:         9,
		QueueLimit:           25,
		SyncInterval:         10 * time.Second,
		SyncTolerance:        4,
		InitialSyncTolerance: 2,
		InitialSyncDelay:     time.Second,
	}, slog.Default())

	return svc, verifier
}

func TestJoinEnqueueDisconnect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	roomId := svc.NewRoomId()
	assert.NotEmpty(t, roomId)

	// join handshake
	connectToken, err := svc.CreateJoinSession(ctx, &CreateJoinSessionParams{
		RoomId:      roomId,
		DisplayName: "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, connectToken)

	conn1 := &websocket.Conn{}
	joinResp1, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:         conn1,
		RoomId:       roomId,
		ConnectToken: connectToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, joinResp1.ConnId)
	assert.Equal(t, "alice", joinResp1.Joined.DisplayName)
	assert.True(t, joinResp1.Joined.IsOwner, "first joiner must be owner")
	assert.Empty(t, joinResp1.OtherConns)
	assert.Nil(t, joinResp1.InitialSync, "idle room needs no initial sync")

	// owner starts playback by enqueueing into the idle room
	enqueueResp, err := svc.Enqueue(ctx, &EnqueueParams{
		SenderId: joinResp1.ConnId,
		RoomId:   roomId,
		Item:     domain.MediaItem{ExternalId: "v1", Title: "first"},
	})
	require.NoError(t, err)
	require.NotNil(t, enqueueResp.Started)
	assert.True(t, enqueueResp.Player.IsPlaying)
	assert.Len(t, enqueueResp.Conns, 1)

	// guest joins without a connect token
	conn2 := &websocket.Conn{}
	joinResp2, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:   conn2,
		RoomId: roomId,
	})
	require.NoError(t, err)
	assert.False(t, joinResp2.Joined.IsOwner)
	assert.False(t, joinResp2.Joined.HasQueuePermission)
	assert.Len(t, joinResp2.OtherConns, 1)
	assert.Len(t, joinResp2.Participants, 2)
	require.NotNil(t, joinResp2.InitialSync, "joiner of a playing room gets an initial sync")
	assert.InDelta(t, 2.0, joinResp2.InitialSync.ToleranceSeconds, 1e-9)

	// guest has no queue permission
	_, err = svc.Enqueue(ctx, &EnqueueParams{
		SenderId: joinResp2.ConnId,
		RoomId:   roomId,
		Item:     domain.MediaItem{ExternalId: "v2"},
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.SetPlaying(ctx, &SetPlayingParams{
		SenderId:  joinResp2.ConnId,
		RoomId:    roomId,
		IsPlaying: false,
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	// owner grants it
	grantResp, err := svc.GrantPermission(ctx, &GrantPermissionParams{
		SenderId: joinResp1.ConnId,
		RoomId:   roomId,
		TargetId: joinResp2.ConnId,
	})
	require.NoError(t, err)
	assert.True(t, grantResp.Target.HasQueuePermission)
	assert.Len(t, grantResp.Conns, 2)

	enqueueResp2, err := svc.Enqueue(ctx, &EnqueueParams{
		SenderId: joinResp2.ConnId,
		RoomId:   roomId,
		Item:     domain.MediaItem{ExternalId: "v2"},
	})
	require.NoError(t, err)
	assert.Nil(t, enqueueResp2.Started, "playing room keeps the new entry queued")
	assert.Len(t, enqueueResp2.Queue, 1)

	// owner leaves: ownership transfers to the guest
	disconnectResp, err := svc.Disconnect(ctx, &DisconnectParams{Conn: conn1})
	require.NoError(t, err)
	assert.Equal(t, joinResp1.ConnId, disconnectResp.ConnId)
	require.NotNil(t, disconnectResp.NewOwner)
	assert.Equal(t, joinResp2.ConnId, disconnectResp.NewOwner.Id)
	assert.False(t, disconnectResp.RoomDeleted)

	// last participant leaves: room is destroyed
	disconnectResp, err = svc.Disconnect(ctx, &DisconnectParams{Conn: conn2})
	require.NoError(t, err)
	assert.True(t, disconnectResp.RoomDeleted)

	_, err = svc.GetRoomState(ctx, roomId)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinWithIdentityToken(t *testing.T) {
	svc, verifier := newTestService(t)
	ctx := context.Background()

	token, err := verifier.IssueToken(identity.Identity{
		Id:          "user-42",
		DisplayName: "Verified Alice",
	})
	require.NoError(t, err)

	roomId := svc.NewRoomId()
	connectToken, err := svc.CreateJoinSession(ctx, &CreateJoinSessionParams{
		RoomId:        roomId,
		IdentityToken: token,
	})
	require.NoError(t, err)

	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:         &websocket.Conn{},
		RoomId:       roomId,
		ConnectToken: connectToken,
	})
	require.NoError(t, err)
	assert.Equal(t, "Verified Alice", joinResp.Joined.DisplayName)
}

func TestJoinWithInvalidIdentityTokenDegradesToGuest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	roomId := svc.NewRoomId()
	connectToken, err := svc.CreateJoinSession(ctx, &CreateJoinSessionParams{
		RoomId:        roomId,
		IdentityToken: "garbage",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, connectToken, "bad identity token must not fail the handshake")
}

func TestConnectTokenIsSingleUse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	roomId := svc.NewRoomId()
	connectToken, err := svc.CreateJoinSession(ctx, &CreateJoinSessionParams{
		RoomId:      roomId,
		DisplayName: "alice",
	})
	require.NoError(t, err)

	joinResp1, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:         &websocket.Conn{},
		RoomId:       roomId,
		ConnectToken: connectToken,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", joinResp1.Joined.DisplayName)

	// second use of the same token joins as guest
	joinResp2, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:         &websocket.Conn{},
		RoomId:       roomId,
		ConnectToken: connectToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "alice", joinResp2.Joined.DisplayName)
}

func TestConnectTokenBoundToRoom(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	connectToken, err := svc.CreateJoinSession(ctx, &CreateJoinSessionParams{
		RoomId:      "room-a",
		DisplayName: "alice",
	})
	require.NoError(t, err)

	// token for room-a is useless in room-b
	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:         &websocket.Conn{},
		RoomId:       "room-b",
		ConnectToken: connectToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "alice", joinResp.Joined.DisplayName)
}

func TestKickRemovesConnection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	roomId := svc.NewRoomId()

	conn1 := &websocket.Conn{}
	joinResp1, err := svc.JoinRoom(ctx, &JoinRoomParams{Conn: conn1, RoomId: roomId})
	require.NoError(t, err)

	conn2 := &websocket.Conn{}
	joinResp2, err := svc.JoinRoom(ctx, &JoinRoomParams{Conn: conn2, RoomId: roomId})
	require.NoError(t, err)

	kickResp, err := svc.Kick(ctx, &KickParams{
		SenderId: joinResp1.ConnId,
		RoomId:   roomId,
		TargetId: joinResp2.ConnId,
	})
	require.NoError(t, err)
	assert.Equal(t, joinResp2.ConnId, kickResp.Kicked.Id)
	assert.Same(t, conn2, kickResp.KickedConn)
	assert.Len(t, kickResp.Participants, 1)

	// the kicked connection no longer resolves, so its disconnect is benign
	disconnectResp, err := svc.Disconnect(ctx, &DisconnectParams{Conn: conn2})
	require.NoError(t, err)
	assert.Empty(t, disconnectResp.ConnId)
}

func TestSkipAndItemEnded(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	roomId := svc.NewRoomId()
	conn1 := &websocket.Conn{}
	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{Conn: conn1, RoomId: roomId})
	require.NoError(t, err)

	conn2 := &websocket.Conn{}
	joinResp2, err := svc.JoinRoom(ctx, &JoinRoomParams{Conn: conn2, RoomId: roomId})
	require.NoError(t, err)

	_, err = svc.Enqueue(ctx, &EnqueueParams{
		SenderId: joinResp.ConnId, RoomId: roomId,
		Item: domain.MediaItem{ExternalId: "v1"},
	})
	require.NoError(t, err)
	second, err := svc.Enqueue(ctx, &EnqueueParams{
		SenderId: joinResp.ConnId, RoomId: roomId,
		Item: domain.MediaItem{ExternalId: "v2"},
	})
	require.NoError(t, err)

	// guests cannot skip
	_, err = svc.Skip(ctx, &SkipParams{SenderId: joinResp2.ConnId, RoomId: roomId})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	skipResp, err := svc.Skip(ctx, &SkipParams{SenderId: joinResp.ConnId, RoomId: roomId})
	require.NoError(t, err)
	require.NotNil(t, skipResp.Current)
	assert.Equal(t, second.Entry.EntryId, skipResp.Current.EntryId)

	// any participant may report the item ended
	endResp, err := svc.ItemEnded(ctx, &ItemEndedParams{SenderId: joinResp2.ConnId, RoomId: roomId})
	require.NoError(t, err)
	assert.Nil(t, endResp.Current, "queue exhausted")
	assert.Len(t, endResp.Conns, 2)
}

func TestJoinLandsInFreshRoomAfterTeardown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	registry := domain.NewRegistry(9, 25)

	svc := NewService(registry, inmemory.NewRepo(), sessionRedis.NewRepo(rc, 5*time.Minute),
		identity.NewVerifier("test-secret"), &Config{
			MembersLimit:         9,
			QueueLimit:           25,
			SyncInterval:         10 * time.Second,
			SyncTolerance:        4,
			InitialSyncTolerance: 2,
			InitialSyncDelay:     time.Second,
		}, slog.Default())

	ctx := context.Background()
	roomId := svc.NewRoomId()

	conn := &websocket.Conn{}
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{Conn: conn, RoomId: roomId})
	require.NoError(t, err)

	stale, ok := registry.Get(roomId)
	require.True(t, ok)

	disconnectResp, err := svc.Disconnect(ctx, &DisconnectParams{Conn: conn})
	require.NoError(t, err)
	require.True(t, disconnectResp.RoomDeleted)

	// the drained room is closed: a join holding a stale reference cannot
	// land in a room the registry no longer knows about
	_, err = stale.Join("conn-x", "", nil)
	assert.ErrorIs(t, err, domain.ErrRoomClosed)

	// joining through the service lands in a fresh registry-backed room
	rejoinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{Conn: &websocket.Conn{}, RoomId: roomId})
	require.NoError(t, err)
	assert.True(t, rejoinResp.Joined.IsOwner)

	fresh, ok := registry.Get(roomId)
	require.True(t, ok)
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, 1, fresh.ParticipantCount())
}

func TestPlayerFlipOnIdleRoomReachesNobody(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	roomId := svc.NewRoomId()
	owner, err := svc.JoinRoom(ctx, &JoinRoomParams{Conn: &websocket.Conn{}, RoomId: roomId})
	require.NoError(t, err)
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{Conn: &websocket.Conn{}, RoomId: roomId})
	require.NoError(t, err)

	// nothing is playing: the flip is a no-op and must not fan out
	playResp, err := svc.SetPlaying(ctx, &SetPlayingParams{SenderId: owner.ConnId, RoomId: roomId, IsPlaying: true})
	require.NoError(t, err)
	assert.Empty(t, playResp.OtherConns)

	seekResp, err := svc.Seek(ctx, &SeekParams{SenderId: owner.ConnId, RoomId: roomId, Seconds: 30})
	require.NoError(t, err)
	assert.Empty(t, seekResp.OtherConns)
}
