package wire

import (
	"testing"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
)

func TestDecodeAliveBitmap(t *testing.T) {
	s := &StateSnapshot{AliveBitmap: make([]uint64, AliveWords)}
	// Cell index 70 = word 1, bit 6.
	s.AliveBitmap[1] = 1 << 6

	g := Decode(s)
	if !g.Cells[70].Alive {
		t.Fatal("cell 70 should be alive")
	}
	if g.Cells[70].Owner != 0 {
		t.Fatal("liveness decode must not touch ownership")
	}
}

func TestDecodeTerritoryChunkMapping(t *testing.T) {
	// Chunk 10 sits at super-grid (row 1, col 2): global origin (128, 64).
	var chunk [ChunkWords]uint64
	chunk[5] |= 1 << 7 // local row 5, col 7 -> global (135, 69)

	s := &StateSnapshot{
		Territories: make([]Territory, grid.MaxPlayers),
	}
	s.Territories[2] = Territory{ // slot 3
		ChunkMask: 1 << 10,
		Chunks:    [][ChunkWords]uint64{chunk},
	}

	g := Decode(s)
	c := g.At(135, 69)
	if c.Owner != 3 {
		t.Fatalf("owner at (135,69) = %d, want 3", c.Owner)
	}
	if c.Alive {
		t.Fatal("territory decode must not mark cells alive")
	}
}

func TestDecodeCompactedChunkOrder(t *testing.T) {
	// Two present chunks (bits 0 and 63); payloads arrive in mask-bit order
	// with no gaps in between.
	var first, second [ChunkWords]uint64
	first[0] = 1         // chunk 0 -> global (0, 0)
	second[63] = 1 << 63 // chunk 63 -> global (511, 511)

	s := &StateSnapshot{Territories: make([]Territory, grid.MaxPlayers)}
	s.Territories[0] = Territory{
		ChunkMask: (1 << 0) | (1 << 63),
		Chunks:    [][ChunkWords]uint64{first, second},
	}

	g := Decode(s)
	if g.At(0, 0).Owner != 1 {
		t.Fatal("chunk 0 cell not decoded")
	}
	if g.At(grid.Size-1, grid.Size-1).Owner != 1 {
		t.Fatal("chunk 63 cell not decoded")
	}
}

func TestDecodeToleratesSkew(t *testing.T) {
	// Extra liveness words beyond the grid and a short chunk payload must
	// both be ignored, not crash.
	s := &StateSnapshot{
		AliveBitmap: make([]uint64, AliveWords+3),
		Territories: make([]Territory, grid.MaxPlayers),
	}
	s.AliveBitmap[AliveWords] = ^uint64(0)
	s.Territories[0] = Territory{
		ChunkMask: (1 << 1) | (1 << 2), // two chunks claimed, none supplied
	}

	g := Decode(s)
	for i := range g.Cells {
		if g.Cells[i].Alive || g.Cells[i].Owner != 0 {
			t.Fatalf("skewed snapshot leaked into cell %d", i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	g := grid.New()
	g.Set(0, 0, grid.Cell{Owner: 1, Alive: true})
	g.Set(511, 0, grid.Cell{Owner: 2, Alive: false})
	g.Set(135, 69, grid.Cell{Owner: 3, Alive: true})
	g.Set(64, 128, grid.Cell{Owner: 16, Alive: false})
	g.Set(300, 300, grid.Cell{Alive: true}) // alive but neutral

	back := Decode(Encode(g))
	for i := range g.Cells {
		if g.Cells[i] != back.Cells[i] {
			t.Fatalf("round trip mismatch at cell %d: %+v vs %+v",
				i, g.Cells[i], back.Cells[i])
		}
	}
}

func TestEncodeCompactsChunks(t *testing.T) {
	g := grid.New()
	g.Set(0, 0, grid.Cell{Owner: 1})
	g.Set(500, 500, grid.Cell{Owner: 1})

	s := Encode(g)
	terr := s.Territories[0]
	if len(terr.Chunks) != 2 {
		t.Fatalf("expected 2 present chunks, got %d", len(terr.Chunks))
	}
	// Only the two touched chunks may be marked present.
	mask := terr.ChunkMask
	count := 0
	for c := 0; c < grid.ChunkCount; c++ {
		if mask&(1<<uint(c)) != 0 {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("mask marks %d chunks, want 2", count)
	}
}

func TestBases(t *testing.T) {
	s := &StateSnapshot{
		Slots: []*Slot{
			nil,
			{Principal: "p2", Base: &BaseInfo{X: 10, Y: 20, Coins: 50}},
			{Principal: "p3"}, // joined, no base yet
		},
	}
	bases := s.Bases()
	if len(bases) != 1 {
		t.Fatalf("expected 1 base, got %d", len(bases))
	}
	b, ok := bases[2]
	if !ok || b.X != 10 || b.Y != 20 || b.Coins != 50 || b.Owner != 2 {
		t.Fatalf("base = %+v", b)
	}
}
