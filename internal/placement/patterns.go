package placement

import (
	"fmt"
	"sort"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
)

// Patterns are small cell-offset stamps. The service only ever sees expanded
// (x, y) lists, so rotation and toroidal wrap both happen client side.

type Pattern struct {
	Name  string
	Cells [][2]int // (dx, dy) offsets from the anchor
}

var patterns = map[string]Pattern{
	"cell": {
		Name:  "cell",
		Cells: [][2]int{{0, 0}},
	},
	"block": {
		Name:  "block",
		Cells: [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	},
	"blinker": {
		Name:  "blinker",
		Cells: [][2]int{{-1, 0}, {0, 0}, {1, 0}},
	},
	"glider": {
		Name:  "glider",
		Cells: [][2]int{{0, -1}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}},
	},
	"rpentomino": {
		Name:  "rpentomino",
		Cells: [][2]int{{0, -1}, {1, -1}, {-1, 0}, {0, 0}, {0, 1}},
	},
	"lwss": {
		Name: "lwss",
		Cells: [][2]int{
			{-1, -1}, {2, -1},
			{3, 0},
			{-1, 1}, {3, 1},
			{0, 2}, {1, 2}, {2, 2}, {3, 2},
		},
	},
}

// PatternNames lists the available stamps, sorted for stable UI menus.
func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand resolves a pattern to absolute grid cells: anchor at (x, y),
// rotated by quarter turns clockwise, wrapped toroidally.
func Expand(name string, x, y, rotation int) ([][2]int, error) {
	p, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q", name)
	}

	rotation = ((rotation % 4) + 4) % 4
	cells := make([][2]int, len(p.Cells))
	for i, c := range p.Cells {
		dx, dy := c[0], c[1]
		for r := 0; r < rotation; r++ {
			dx, dy = -dy, dx
		}
		cells[i] = [2]int{grid.Wrap(x + dx), grid.Wrap(y + dy)}
	}
	return cells, nil
}
