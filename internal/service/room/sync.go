package room

import (
	"context"
	"math"

	"github.com/gorilla/websocket"
)

type SyncInstruction struct {
	PlayheadSeconds  float64 `json:"playhead_seconds"`
	ToleranceSeconds float64 `json:"tolerance_seconds"`
}

type SyncCandidate struct {
	RoomId string
	Conns  []*websocket.Conn
	Sync   SyncInstruction
}

// SyncCandidates snapshots every room eligible for a drift correction:
// playing, with a current entry, and at least two participants. Idle and
// solo rooms are skipped so the scheduler stays silent for them.
func (s service) SyncCandidates(ctx context.Context) []SyncCandidate {
	rooms := s.registry.Rooms()

	candidates := make([]SyncCandidate, 0, len(rooms))
	for _, room := range rooms {
		playhead, ok := room.SyncSnapshot()
		if !ok {
			continue
		}

		candidates = append(candidates, SyncCandidate{
			RoomId: room.Id(),
			Conns:  s.connsOf(ctx, room),
			Sync: SyncInstruction{
				PlayheadSeconds:  playhead,
				ToleranceSeconds: s.syncTolerance,
			},
		})
	}

	return candidates
}

// NeedsCorrection reports whether a client position deviates from the server
// estimate by strictly more than the tolerance. Drift exactly at the
// tolerance is left alone.
func NeedsCorrection(clientSeconds, serverSeconds, toleranceSeconds float64) bool {
	return math.Abs(clientSeconds-serverSeconds) > toleranceSeconds
}
