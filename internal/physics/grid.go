package physics

import (
	"cmp"
	"math"
	"slices"
)

// Grid is a uniform-cell broadphase. Each step the bodies are bucketed by
// the cells their bounding circles cover; only bodies sharing a cell are
// handed to the narrow phase. Accessed only from the game loop goroutine.

const (
	cellSize = 64.0
	maxSpan  = 16 // cells per axis before a body is treated as wide
)

type cellKey struct {
	cx int32
	cy int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / cellSize))
}

// Grid tracks which body indexes touch which cells.
type Grid struct {
	cells map[cellKey][]int
	wide  []int // bodies too large to bucket, paired with everything
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[cellKey][]int, 64)}
}

// Reset empties the grid, keeping its allocations.
func (g *Grid) Reset() {
	for k, list := range g.cells {
		g.cells[k] = list[:0]
	}
	g.wide = g.wide[:0]
}

// Add places body index i into every cell its bounds cover. Bodies without
// a bounded shape never collide and are skipped.
func (g *Grid) Add(i int, b *Body) {
	r, ok := reach(b)
	if !ok {
		return
	}
	x0, x1 := toCellCoord(b.Position.X()-r), toCellCoord(b.Position.X()+r)
	y0, y1 := toCellCoord(b.Position.Y()-r), toCellCoord(b.Position.Y()+r)
	if x1-x0 >= maxSpan || y1-y0 >= maxSpan {
		g.wide = append(g.wide, i)
		return
	}
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			k := cellKey{cx: cx, cy: cy}
			g.cells[k] = append(g.cells[k], i)
		}
	}
}

// Pairs returns every candidate pair once, as [low, high] indexes sorted
// ascending so contact order does not depend on map iteration.
func (g *Grid) Pairs() [][2]int {
	seen := make(map[[2]int]struct{})
	var out [][2]int
	add := func(a, b int) {
		if a == b {
			return
		}
		if a > b {
			a, b = b, a
		}
		p := [2]int{a, b}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, list := range g.cells {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				add(list[i], list[j])
			}
		}
	}
	for _, w := range g.wide {
		for _, list := range g.cells {
			for _, o := range list {
				add(w, o)
			}
		}
		for _, o := range g.wide {
			add(w, o)
		}
	}
	slices.SortFunc(out, func(a, b [2]int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return out
}

// reach is the radius around the body position that contains every
// bounded shape.
func reach(b *Body) (float64, bool) {
	r, ok := 0.0, false
	for _, s := range b.Shapes {
		br := s.BoundingRadius()
		if br < 0 {
			continue
		}
		r = math.Max(r, s.Offset.Len()+br)
		ok = true
	}
	return r, ok
}
