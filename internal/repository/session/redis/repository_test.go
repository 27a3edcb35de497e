package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/server/internal/repository/session"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	return NewRepo(rc, 5*time.Minute), s
}

func TestJoinSessionRoundTrip(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	identityId := "user-42"
	sess := session.JoinSession{
		RoomId:      "room-1",
		DisplayName: "alice",
		IdentityId:  &identityId,
	}

	err := r.SetJoinSession(ctx, "token-1", &sess)
	require.NoError(t, err)

	got, err := r.PopJoinSession(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}

func TestPopJoinSessionIsSingleUse(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	err := r.SetJoinSession(ctx, "token-1", &session.JoinSession{RoomId: "room-1"})
	require.NoError(t, err)

	_, err = r.PopJoinSession(ctx, "token-1")
	require.NoError(t, err)

	_, err = r.PopJoinSession(ctx, "token-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestPopJoinSessionUnknownToken(t *testing.T) {
	r, _ := newTestRepo(t)

	_, err := r.PopJoinSession(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = r.PopJoinSession(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestJoinSessionExpires(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	err := r.SetJoinSession(ctx, "token-1", &session.JoinSession{RoomId: "room-1"})
	require.NoError(t, err)

	s.FastForward(6 * time.Minute)

	_, err = r.PopJoinSession(ctx, "token-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
