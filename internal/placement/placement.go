// Package placement validates and stages cell placements before they are
// submitted to the authoritative service. Validation here is optimistic: the
// service re-checks everything, and a race it rejects is corrected by the
// next accepted snapshot.
package placement

import (
	"github.com/google/uuid"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
)

// Verdict classifies one candidate cell.
type Verdict uint8

const (
	Legal Verdict = iota
	IllegalAlive
	IllegalWall
	IllegalNeutral
	IllegalEnemy
)

func (v Verdict) String() string {
	switch v {
	case Legal:
		return "legal"
	case IllegalAlive:
		return "alive"
	case IllegalWall:
		return "wall"
	case IllegalNeutral:
		return "neutral"
	case IllegalEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// Pending is one staged, unconfirmed placement. Several may coexist before a
// single batched submission.
type Pending struct {
	ID        string
	Pattern   string
	Cells     [][2]int
	CentroidX int
	CentroidY int
}

// NewPending expands a pattern at an anchor and wraps it in a staged entry.
func NewPending(pattern string, x, y, rotation int) (*Pending, error) {
	cells, err := Expand(pattern, x, y, rotation)
	if err != nil {
		return nil, err
	}
	return &Pending{
		ID:        uuid.NewString(),
		Pattern:   pattern,
		Cells:     cells,
		CentroidX: grid.Wrap(x),
		CentroidY: grid.Wrap(y),
	}, nil
}

// CheckCell applies the single-cell legality rule: only your own
// already-claimed, currently dead territory is placeable. Live cells, your
// base's wall ring, neutral ground, and enemy territory are all off limits.
// A zero base (owner 0, no base known yet) contributes no walls.
func CheckCell(g *grid.Grid, owner uint8, base grid.Base, x, y int) Verdict {
	c := g.At(x, y)
	switch {
	case c.Alive:
		return IllegalAlive
	case base.Owner != 0 && base.OnWall(x, y):
		return IllegalWall
	case c.Owner == 0:
		return IllegalNeutral
	case c.Owner != owner:
		return IllegalEnemy
	default:
		return Legal
	}
}

// Result is the classification of a staged batch. Conflicts lists grid
// coordinates claimed by more than one pending placement; a conflicted cell
// is reported regardless of its own legality verdict.
type Result struct {
	Legal     [][2]int
	Illegal   map[[2]int]Verdict
	Conflicts [][2]int
}

// Validate classifies every cell of every staged placement against the
// current grid. No state is touched; the caller decides how to visualize.
func Validate(pendings []*Pending, owner uint8, g *grid.Grid, base grid.Base) Result {
	res := Result{Illegal: make(map[[2]int]Verdict)}

	seen := make(map[[2]int]int)
	for _, p := range pendings {
		for _, c := range p.Cells {
			seen[c]++
		}
	}
	for c, n := range seen {
		if n > 1 {
			res.Conflicts = append(res.Conflicts, c)
		}
	}

	for _, p := range pendings {
		for _, c := range p.Cells {
			v := CheckCell(g, owner, base, c[0], c[1])
			if v == Legal {
				res.Legal = append(res.Legal, c)
			} else {
				res.Illegal[c] = v
			}
		}
	}
	return res
}

// Stage holds the client's pending placements between submissions. Owned by
// the session loop, not goroutine safe.
type Stage struct {
	pending []*Pending
}

func NewStage() *Stage {
	return &Stage{}
}

// Add stages a placement and returns it.
func (s *Stage) Add(p *Pending) *Pending {
	s.pending = append(s.pending, p)
	return p
}

// Cancel removes one staged placement by id.
func (s *Stage) Cancel(id string) bool {
	for i, p := range s.pending {
		if p.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// All returns the staged placements in stage order.
func (s *Stage) All() []*Pending {
	return s.pending
}

// Drain empties the stage and returns the union of all staged cells,
// deduplicated, ready for one batched submission. Staged entries are gone
// whether the submission later succeeds or fails; the authoritative snapshot
// is the rollback mechanism.
func (s *Stage) Drain() [][2]int {
	var cells [][2]int
	seen := make(map[[2]int]bool)
	for _, p := range s.pending {
		for _, c := range p.Cells {
			if !seen[c] {
				seen[c] = true
				cells = append(cells, c)
			}
		}
	}
	s.pending = nil
	return cells
}

// Clear drops all staged placements, used on session reset.
func (s *Stage) Clear() {
	s.pending = nil
}

// ApplyOptimistic marks cells alive and owned on the working grid so a
// submitted placement shows up immediately. There is no undo path: if the
// service rejected it, the next accepted snapshot silently corrects.
func ApplyOptimistic(g *grid.Grid, owner uint8, cells [][2]int) {
	for _, c := range cells {
		g.Set(c[0], c[1], grid.Cell{Owner: owner, Alive: true})
	}
}
