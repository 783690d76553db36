// Package economy turns base-treasury changes between reconciliation cycles
// into discrete coin-loss events for feedback.
package economy

import (
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
)

// CoinLossEvent reports that a player's base treasury dropped between two
// observed snapshots.
type CoinLossEvent struct {
	Player uint8 `json:"player"`
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Amount int64 `json:"amount"`
}

// Observe diffs two base snapshots and emits one event per player whose
// treasury shrank. A slot missing from either side produces nothing: absence
// of a prior sample is not a loss, and a vacated base has nothing to report.
// Gains are silent. Pure function, no internal state.
func Observe(prev, curr map[uint8]grid.Base) []CoinLossEvent {
	var events []CoinLossEvent
	for p := uint8(1); p <= grid.MaxPlayers; p++ {
		before, okPrev := prev[p]
		after, okCurr := curr[p]
		if !okPrev || !okCurr {
			continue
		}
		if after.Coins < before.Coins {
			events = append(events, CoinLossEvent{
				Player: p,
				X:      after.X,
				Y:      after.Y,
				Amount: before.Coins - after.Coins,
			})
		}
	}
	return events
}
