// Package life advances the territory automaton. The rule must match the
// authoritative service bit for bit: prediction is only useful if a locally
// stepped grid is indistinguishable from the one the server would send.
package life

import (
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
)

// Step advances the grid by exactly one generation and returns the result as
// a new grid. The input is never mutated.
//
// Standard Conway counts decide liveness (survive on 2 or 3, born on 3) over
// the 8 toroidally wrapped neighbors. Ownership is territory: a surviving or
// dying cell keeps its owner, only a birth can change it. The newborn takes
// the owner with the strict majority among its three parents; on a tie the
// lowest owner id wins. The scan below is explicitly ascending so the
// tie-break never depends on iteration order.
func Step(g *grid.Grid) *grid.Grid {
	next := grid.New()

	for y := 0; y < grid.Size; y++ {
		for x := 0; x < grid.Size; x++ {
			neighbors := 0
			var ownerCounts [grid.MaxPlayers + 1]int

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx := (x + dx + grid.Size) % grid.Size
					ny := (y + dy + grid.Size) % grid.Size
					n := g.Cells[grid.Index(nx, ny)]
					if n.Alive {
						neighbors++
						ownerCounts[n.Owner]++
					}
				}
			}

			idx := grid.Index(x, y)
			cur := g.Cells[idx]

			if cur.Alive {
				// Survival never moves territory, not even on death.
				next.Cells[idx] = grid.Cell{
					Owner: cur.Owner,
					Alive: neighbors == 2 || neighbors == 3,
				}
				continue
			}

			if neighbors == 3 {
				next.Cells[idx] = grid.Cell{Owner: birthOwner(ownerCounts), Alive: true}
				continue
			}

			// Dead and not born: territory persists through empty generations.
			next.Cells[idx] = grid.Cell{Owner: cur.Owner}
		}
	}

	return next
}

// birthOwner picks the parent owner with the strict maximum count, ties going
// to the lowest id. Neutral parents (slot 0) can win too, so a birth among
// unclaimed cells stays unclaimed.
func birthOwner(counts [grid.MaxPlayers + 1]int) uint8 {
	best := uint8(0)
	bestCount := counts[0]
	for p := 1; p <= grid.MaxPlayers; p++ {
		if counts[p] > bestCount {
			best = uint8(p)
			bestCount = counts[p]
		}
	}
	return best
}
