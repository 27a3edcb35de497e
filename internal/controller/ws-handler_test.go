package controller

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/server/internal/domain"
	"github.com/roomcast/server/internal/service/room"
)

type stubRoomService struct {
	iRoomService
	permissionErr error
	enqueued      []domain.MediaItem
}

func (s *stubRoomService) CheckQueuePermission(ctx context.Context, roomId, senderId string) error {
	return s.permissionErr
}

func (s *stubRoomService) Enqueue(ctx context.Context, params *room.EnqueueParams) (room.EnqueueResponse, error) {
	s.enqueued = append(s.enqueued, params.Item)
	return room.EnqueueResponse{}, nil
}

type countingSearchProvider struct {
	calls int
}

func (p *countingSearchProvider) Search(ctx context.Context, query string) ([]domain.MediaItem, error) {
	p.calls++
	return []domain.MediaItem{{ExternalId: "v1"}}, nil
}

func handlerCtx() context.Context {
	ctx := context.WithValue(context.Background(), roomIdCtxKey, "room-1")
	return context.WithValue(ctx, connIdCtxKey, "conn-1")
}

func TestEnqueueDeniedBeforeSearch(t *testing.T) {
	provider := &countingSearchProvider{}
	c := NewController(&stubRoomService{permissionErr: domain.ErrPermissionDenied}, provider, slog.Default())

	err := c.handleEnqueueItem(handlerCtx(), nil, EnqueueItemInput{SourceUrl: "v1"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Equal(t, 0, provider.calls, "denied senders must not reach the search provider")
}

func TestEnqueueResolvesForAuthorizedSender(t *testing.T) {
	provider := &countingSearchProvider{}
	svc := &stubRoomService{}
	c := NewController(svc, provider, slog.Default())

	err := c.handleEnqueueItem(handlerCtx(), nil, EnqueueItemInput{SourceUrl: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	require.Len(t, svc.enqueued, 1)
	assert.Equal(t, "v1", svc.enqueued[0].ExternalId)
}
