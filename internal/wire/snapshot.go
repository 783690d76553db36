// Package wire holds the authoritative service's snapshot representation and
// the lossless conversion to and from the dense working grid.
package wire

import (
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
)

const (
	// AliveWords is the packed liveness bitmap length: one bit per cell.
	AliveWords = grid.CellCount / 64
	// ChunkWords is the payload length of one territory chunk: one 64-bit
	// word per local row of the 64x64 chunk.
	ChunkWords = grid.ChunkSize
)

// Territory is one player slot's chunked territory. ChunkMask marks which of
// the 64 chunks hold any territory; Chunks carries only the present chunks,
// in mask-bit order (the payload list is implicitly compacted).
type Territory struct {
	ChunkMask uint64                `json:"chunk_mask"`
	Chunks    [][ChunkWords]uint64 `json:"chunks"`
}

// BaseInfo is the wire shape of a player base.
type BaseInfo struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Coins int64 `json:"coins"`
}

// Slot describes one player slot; nil entries in StateSnapshot.Slots are
// vacant slots.
type Slot struct {
	Principal string    `json:"principal"`
	Base      *BaseInfo `json:"base,omitempty"`
}

// StateSnapshot is the full authoritative state at one generation.
// Territories[i] belongs to player slot i+1.
type StateSnapshot struct {
	Generation       uint64      `json:"generation"`
	AliveBitmap      []uint64    `json:"alive_bitmap"`
	Territories      []Territory `json:"territories"`
	Slots            []*Slot     `json:"slots"`
	NextWipeQuadrant uint32      `json:"next_wipe_quadrant"`
	SecondsUntilWipe uint64      `json:"seconds_until_wipe"`
}

// Decode expands the snapshot into a dense grid. The snapshot is not
// mutated. Indices that fall outside the grid are skipped rather than
// rejected so a minor server/client version skew degrades instead of
// crashing the session.
func Decode(s *StateSnapshot) *grid.Grid {
	g := grid.New()

	for w, word := range s.AliveBitmap {
		if word == 0 {
			continue
		}
		for b := 0; b < 64; b++ {
			if word&(1<<uint(b)) == 0 {
				continue
			}
			idx := w*64 + b
			if idx >= grid.CellCount {
				continue
			}
			g.Cells[idx].Alive = true
		}
	}

	for i := range s.Territories {
		owner := uint8(i + 1)
		if int(owner) > grid.MaxPlayers {
			break
		}
		decodeTerritory(g, owner, &s.Territories[i])
	}

	return g
}

// decodeTerritory stamps one slot's chunks onto the grid. Present chunks are
// consumed sequentially in ascending mask-bit order.
func decodeTerritory(g *grid.Grid, owner uint8, t *Territory) {
	next := 0
	for c := 0; c < grid.ChunkCount; c++ {
		if t.ChunkMask&(1<<uint(c)) == 0 {
			continue
		}
		if next >= len(t.Chunks) {
			return // short payload, tolerate and stop
		}
		chunk := &t.Chunks[next]
		next++

		chunkRow := c / grid.ChunksPer
		chunkCol := c % grid.ChunksPer
		for row := 0; row < ChunkWords; row++ {
			word := chunk[row]
			if word == 0 {
				continue
			}
			y := chunkRow*grid.ChunkSize + row
			for col := 0; col < 64; col++ {
				if word&(1<<uint(col)) == 0 {
					continue
				}
				x := chunkCol*grid.ChunkSize + col
				g.Cells[grid.Index(x, y)].Owner = owner
			}
		}
	}
}

// Encode packs a dense grid back into snapshot form. Used by the round-trip
// tests and the replay archive; generation and slot metadata are left for
// the caller to fill in.
func Encode(g *grid.Grid) *StateSnapshot {
	s := &StateSnapshot{
		AliveBitmap: make([]uint64, AliveWords),
		Territories: make([]Territory, grid.MaxPlayers),
	}

	for i := range g.Cells {
		if g.Cells[i].Alive {
			s.AliveBitmap[i/64] |= 1 << uint(i%64)
		}
	}

	for p := 1; p <= grid.MaxPlayers; p++ {
		s.Territories[p-1] = encodeTerritory(g, uint8(p))
	}

	return s
}

func encodeTerritory(g *grid.Grid, owner uint8) Territory {
	var t Territory
	for c := 0; c < grid.ChunkCount; c++ {
		chunkRow := c / grid.ChunksPer
		chunkCol := c % grid.ChunksPer

		var chunk [ChunkWords]uint64
		present := false
		for row := 0; row < grid.ChunkSize; row++ {
			y := chunkRow*grid.ChunkSize + row
			for col := 0; col < grid.ChunkSize; col++ {
				x := chunkCol*grid.ChunkSize + col
				if g.Cells[grid.Index(x, y)].Owner == owner {
					chunk[row] |= 1 << uint(col)
					present = true
				}
			}
		}

		if present {
			t.ChunkMask |= 1 << uint(c)
			t.Chunks = append(t.Chunks, chunk)
		}
	}
	return t
}

// Bases extracts the occupied bases from the snapshot's slot list, indexed
// by owner id for the economy detector.
func (s *StateSnapshot) Bases() map[uint8]grid.Base {
	bases := make(map[uint8]grid.Base)
	for i, slot := range s.Slots {
		owner := uint8(i + 1)
		if slot == nil || slot.Base == nil || int(owner) > grid.MaxPlayers {
			continue
		}
		bases[owner] = grid.Base{
			Owner: owner,
			X:     slot.Base.X,
			Y:     slot.Base.Y,
			Coins: slot.Base.Coins,
		}
	}
	return bases
}
