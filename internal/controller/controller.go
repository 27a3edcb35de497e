package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/server/internal/domain"
	"github.com/roomcast/server/internal/service/room"
	"github.com/roomcast/server/pkg/validator"
	"github.com/roomcast/server/pkg/wsrouter"
)

type iRoomService interface {
	NewRoomId() string
	CreateJoinSession(context.Context, *room.CreateJoinSessionParams) (string, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	Disconnect(context.Context, *room.DisconnectParams) (room.DisconnectResponse, error)
	GetRoomState(ctx context.Context, roomId string) (room.RoomState, error)

	Authenticate(context.Context, *room.AuthenticateParams) (room.AuthenticateResponse, error)
	GrantPermission(context.Context, *room.GrantPermissionParams) (room.PermissionResponse, error)
	RevokePermission(context.Context, *room.RevokePermissionParams) (room.PermissionResponse, error)
	Kick(context.Context, *room.KickParams) (room.KickResponse, error)

	CheckQueuePermission(ctx context.Context, roomId, senderId string) error
	Enqueue(context.Context, *room.EnqueueParams) (room.EnqueueResponse, error)
	Dequeue(context.Context, *room.DequeueParams) (room.DequeueResponse, error)
	Reorder(context.Context, *room.ReorderParams) (room.ReorderResponse, error)

	SetPlaying(context.Context, *room.SetPlayingParams) (room.SetPlayingResponse, error)
	Seek(context.Context, *room.SeekParams) (room.SeekResponse, error)
	Skip(context.Context, *room.SkipParams) (room.AdvanceResponse, error)
	ItemEnded(context.Context, *room.ItemEndedParams) (room.AdvanceResponse, error)
	ReportTime(context.Context, *room.ReportTimeParams) error

	SyncCandidates(ctx context.Context) []room.SyncCandidate
	SyncInterval() time.Duration
	InitialSyncDelay() time.Duration
}

type iSearchProvider interface {
	Search(ctx context.Context, query string) ([]domain.MediaItem, error)
}

type controller struct {
	roomService    iRoomService
	searchProvider iSearchProvider
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	wsmux          *wsrouter.WSRouter
	logger         *slog.Logger
}

func NewController(roomService iRoomService, searchProvider iSearchProvider, logger *slog.Logger) *controller {
	c := controller{
		roomService:    roomService,
		searchProvider: searchProvider,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return &c
}
