package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/domain"
	"github.com/roomcast/server/internal/identity"
	"github.com/roomcast/server/internal/repository/session"
	"github.com/roomcast/server/pkg/randstr"
)

var ErrRoomNotFound = errors.New("room not found")

type iConnRepo interface {
	Add(conn *websocket.Conn, connId, roomId string) error
	GetByConn(conn *websocket.Conn) (string, string, error)
	GetConn(connId string) (*websocket.Conn, error)
	RemoveByConn(conn *websocket.Conn) (string, string, error)
	RemoveByConnId(connId string) error
}

type iSessionRepo interface {
	SetJoinSession(ctx context.Context, token string, sess *session.JoinSession) error
	PopJoinSession(ctx context.Context, token string) (session.JoinSession, error)
}

type iIdentityVerifier interface {
	VerifyToken(token string) (identity.Identity, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	MembersLimit int
	QueueLimit   int

	// SyncInterval is the drift-correction period; SyncTolerance the loose
	// band sent with periodic corrections. InitialSyncTolerance is the
	// tighter band for the one-shot sync a joiner receives after
	// InitialSyncDelay.
	SyncInterval         time.Duration
	SyncTolerance        float64
	InitialSyncTolerance float64
	InitialSyncDelay     time.Duration
}

type service struct {
	registry    *domain.Registry
	connRepo    iConnRepo
	sessionRepo iSessionRepo
	verifier    iIdentityVerifier
	generator   iGenerator
	logger      *slog.Logger

	syncInterval         time.Duration
	syncTolerance        float64
	initialSyncTolerance float64
	initialSyncDelay     time.Duration
}

func NewService(registry *domain.Registry, connRepo iConnRepo, sessionRepo iSessionRepo, verifier iIdentityVerifier, cfg *Config, logger *slog.Logger) *service {
	s := service{
		registry:             registry,
		connRepo:             connRepo,
		sessionRepo:          sessionRepo,
		verifier:             verifier,
		logger:               logger,
		syncInterval:         cfg.SyncInterval,
		syncTolerance:        cfg.SyncTolerance,
		initialSyncTolerance: cfg.InitialSyncTolerance,
		initialSyncDelay:     cfg.InitialSyncDelay,
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}

func (s service) SyncInterval() time.Duration {
	return s.syncInterval
}

func (s service) InitialSyncDelay() time.Duration {
	return s.initialSyncDelay
}

// NewRoomId mints a room id for the create endpoint. Rooms come to life only
// when the first participant joins.
func (s service) NewRoomId() string {
	return s.generator.GenerateRandomString(8)
}

func (s service) getRoom(roomId string) (*domain.Room, error) {
	room, ok := s.registry.Get(roomId)
	if !ok {
		return nil, ErrRoomNotFound
	}

	return room, nil
}
