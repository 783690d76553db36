package grid

// Color guide for viewers: owner 0 renders neutral, owners 1..MaxPlayers get
// per-slot palette entries. The alive flag is carried separately from owner.

const (
	Size       = 512             // side length, grid is Size x Size
	CellCount  = Size * Size     // total cells, row-major
	MaxPlayers = 16              // player slots 1..MaxPlayers, 0 is neutral
	ChunkSize  = 64              // territory chunk side length
	ChunksPer  = Size / ChunkSize // 8x8 super-grid of chunks
	ChunkCount = ChunksPer * ChunksPer
	BaseSize   = 8 // 8x8 footprint: 1-cell wall ring around a 6x6 interior
)

// Cell is one grid square. Owner is territory and outlives Alive: a cell
// keeps its owner when it dies, territory only changes hands on birth.
type Cell struct {
	Owner uint8
	Alive bool
}

// Grid is the dense working state, fixed size, never reallocated.
type Grid struct {
	Cells []Cell // CellCount entries, index y*Size + x
}

func New() *Grid {
	return &Grid{Cells: make([]Cell, CellCount)}
}

// Index returns the linear slice index for coordinates (x, y).
func Index(x, y int) int {
	return y*Size + x
}

// Wrap applies toroidal wrapping to a single coordinate.
func Wrap(v int) int {
	return (v%Size + Size) % Size
}

func (g *Grid) At(x, y int) Cell {
	return g.Cells[Index(Wrap(x), Wrap(y))]
}

func (g *Grid) Set(x, y int, c Cell) {
	g.Cells[Index(Wrap(x), Wrap(y))] = c
}

// Clone returns an independent copy, used when handing state to readers.
func (g *Grid) Clone() *Grid {
	out := New()
	copy(out.Cells, g.Cells)
	return out
}

// Clear resets every cell to neutral and dead.
func (g *Grid) Clear() {
	for i := range g.Cells {
		g.Cells[i] = Cell{}
	}
}

// CountAlive returns live-cell totals per owner slot, index 0 is neutral.
func (g *Grid) CountAlive() [MaxPlayers + 1]int {
	var counts [MaxPlayers + 1]int
	for i := range g.Cells {
		if g.Cells[i].Alive {
			counts[g.Cells[i].Owner]++
		}
	}
	return counts
}

// Base is a player fortress anchored at (X, Y): an 8x8 footprint whose outer
// ring is an indestructible wall and whose 6x6 interior is spawn territory.
type Base struct {
	Owner uint8
	X     int
	Y     int
	Coins int64
}

// contains reports footprint membership and the local offsets, toroidally.
func (b Base) contains(x, y int) (dx, dy int, ok bool) {
	dx = Wrap(x - b.X)
	dy = Wrap(y - b.Y)
	return dx, dy, dx < BaseSize && dy < BaseSize
}

// OnWall reports whether (x, y) lands on the base's wall ring.
func (b Base) OnWall(x, y int) bool {
	dx, dy, ok := b.contains(x, y)
	if !ok {
		return false
	}
	return dx == 0 || dx == BaseSize-1 || dy == 0 || dy == BaseSize-1
}

// InInterior reports whether (x, y) lands inside the 6x6 spawn area.
func (b Base) InInterior(x, y int) bool {
	dx, dy, ok := b.contains(x, y)
	if !ok {
		return false
	}
	return dx > 0 && dx < BaseSize-1 && dy > 0 && dy < BaseSize-1
}
