package tracking

import (
	"math"

	"github.com/banshee-data/myrmidon/internal/geometry"
)

// maxCell bounds cell coordinates so that neighbours of any cell are
// distinct and representable.
const maxCell = 1 << 52

type cell struct{ x, y int64 }

// grid is a uniform spatial hash of bounding boxes. Cells are at least as
// large as the biggest box, so two overlapping boxes always have their
// centers in the same or adjacent cells.
type grid struct {
	cellSize float64
	boxes    []geometry.AABB
	cells    map[cell][]int
}

func newGrid(boxes []geometry.AABB) *grid {
	size := 0.0
	for _, b := range boxes {
		size = max(size, b.Max.X-b.Min.X, b.Max.Y-b.Min.Y)
	}
	if size <= 0 || math.IsInf(size, 0) || math.IsNaN(size) {
		size = 1
	}
	g := &grid{cellSize: size, boxes: boxes, cells: make(map[cell][]int, len(boxes))}
	for i, b := range boxes {
		c := g.cellOf(b.Center())
		g.cells[c] = append(g.cells[c], i)
	}
	return g
}

func clampCell(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > maxCell:
		return maxCell
	case v < -maxCell:
		return -maxCell
	}
	return int64(math.Floor(v))
}

func (g *grid) cellOf(p geometry.Vec) cell {
	return cell{x: clampCell(p.X / g.cellSize), y: clampCell(p.Y / g.cellSize)}
}

// pairs calls fn once for every i < j whose boxes overlap.
func (g *grid) pairs(fn func(i, j int)) {
	for i, b := range g.boxes {
		c := g.cellOf(b.Center())
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, j := range g.cells[cell{x: c.x + dx, y: c.y + dy}] {
					if j > i && b.Overlaps(g.boxes[j]) {
						fn(i, j)
					}
				}
			}
		}
	}
}
