package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roomcast/server/internal/repository/session"
)

const connectTokenPrefix = "connect-token"

type repo struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewRepo stores join sessions under short-TTL connect tokens. The token is
// single-use: reading it deletes it.
func NewRepo(rc *redis.Client, ttl time.Duration) *repo {
	return &repo{
		rc:  rc,
		ttl: ttl,
	}
}

func (r repo) connectTokenKey(token string) string {
	return connectTokenPrefix + ":" + token
}

func (r repo) SetJoinSession(ctx context.Context, token string, sess *session.JoinSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal join session: %w", err)
	}

	return r.rc.Set(ctx, r.connectTokenKey(token), payload, r.ttl).Err()
}

func (r repo) PopJoinSession(ctx context.Context, token string) (session.JoinSession, error) {
	if token == "" {
		return session.JoinSession{}, session.ErrNotFound
	}

	payload, err := r.rc.GetDel(ctx, r.connectTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.JoinSession{}, session.ErrNotFound
		}

		return session.JoinSession{}, err
	}

	var sess session.JoinSession
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return session.JoinSession{}, fmt.Errorf("failed to unmarshal join session: %w", err)
	}

	return sess, nil
}
