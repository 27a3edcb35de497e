package controller

import (
	"context"
	"time"
)

// RunSyncScheduler periodically pushes drift corrections to every active
// room until the context is canceled. Rooms decide their own eligibility;
// the scheduler only fans the instructions out.
func (c controller) RunSyncScheduler(ctx context.Context) {
	ticker := time.NewTicker(c.roomService.SyncInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, candidate := range c.roomService.SyncCandidates(ctx) {
				c.broadcast(ctx, candidate.Conns, &Output{
					Type:    "SYNC_CORRECTION",
					Payload: candidate.Sync,
				})
			}
		}
	}
}
