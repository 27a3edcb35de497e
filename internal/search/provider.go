package search

import (
	"context"

	"github.com/roomcast/server/internal/domain"
)

// Provider resolves a free-form query to playable media items. The room
// engine treats results as opaque; providers own all source-specific logic.
type Provider interface {
	Search(ctx context.Context, query string) ([]domain.MediaItem, error)
}
