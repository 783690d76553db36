package grid

import (
	"testing"
)

func TestWrap(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 0},
		{Size - 1, Size - 1},
		{Size, 0},
		{-1, Size - 1},
		{-Size, 0},
		{2*Size + 5, 5},
	}
	for _, c := range cases {
		if got := Wrap(c.in); got != c.want {
			t.Errorf("Wrap(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAtSetWrapAround(t *testing.T) {
	g := New()
	g.Set(-1, -1, Cell{Owner: 3, Alive: true})
	got := g.At(Size-1, Size-1)
	if got.Owner != 3 || !got.Alive {
		t.Fatalf("wrapped set not visible at (%d,%d): %+v", Size-1, Size-1, got)
	}
}

func TestCloneIndependence(t *testing.T) {
	g := New()
	g.Set(10, 10, Cell{Owner: 1, Alive: true})
	c := g.Clone()
	c.Set(10, 10, Cell{Owner: 2, Alive: false})
	if g.At(10, 10).Owner != 1 || !g.At(10, 10).Alive {
		t.Fatal("mutating clone leaked into original")
	}
}

func TestBaseWallAndInterior(t *testing.T) {
	b := Base{Owner: 1, X: 100, Y: 200}

	// Corners and edges of the 8x8 footprint are wall.
	walls := [][2]int{{100, 200}, {107, 207}, {100, 203}, {103, 200}, {107, 203}}
	for _, w := range walls {
		if !b.OnWall(w[0], w[1]) {
			t.Errorf("(%d,%d) should be wall", w[0], w[1])
		}
		if b.InInterior(w[0], w[1]) {
			t.Errorf("(%d,%d) should not be interior", w[0], w[1])
		}
	}

	// The 6x6 interior.
	if !b.InInterior(101, 201) || !b.InInterior(106, 206) || !b.InInterior(103, 204) {
		t.Error("interior cells misclassified")
	}

	// Outside the footprint entirely.
	if b.OnWall(99, 200) || b.OnWall(108, 203) || b.InInterior(110, 210) {
		t.Error("cells outside footprint misclassified")
	}
}

func TestBaseWrapsAcrossEdge(t *testing.T) {
	// Base anchored near the seam: footprint spans the toroidal boundary.
	b := Base{Owner: 2, X: Size - 4, Y: Size - 4}

	if !b.OnWall(Size-4, Size-4) {
		t.Error("anchor corner should be wall")
	}
	if !b.OnWall(3, 3) {
		t.Error("far corner across the seam should be wall")
	}
	if !b.InInterior(0, 0) {
		t.Error("(0,0) should be interior for a seam-straddling base")
	}
	if b.OnWall(4, 4) {
		t.Error("(4,4) is outside the footprint")
	}
}

func TestCountAlive(t *testing.T) {
	g := New()
	g.Set(0, 0, Cell{Owner: 1, Alive: true})
	g.Set(1, 0, Cell{Owner: 1, Alive: true})
	g.Set(2, 0, Cell{Owner: 5, Alive: true})
	g.Set(3, 0, Cell{Owner: 5, Alive: false}) // territory only, not alive

	counts := g.CountAlive()
	if counts[1] != 2 || counts[5] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}
