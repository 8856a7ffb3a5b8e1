package neighbor

import (
	"math"

	"github.com/phil-mansfield/hexatic/lib/box"
)

const (
	// maxCellsPerDim keeps tiny search radii from allocating huge grids.
	maxCellsPerDim = 1024
)

// grid is a periodic cell list. The box is split into cells along its
// fractional coordinates so that every cell is at least as wide as the search
// radius. Particles in a cell are stored as a linked list: head[c] is the
// first particle in cell c and next[i] is the particle after i, with -1 ending
// the list.
type grid struct {
	b         box.Box
	pos, frac [][3]float64
	cells     [3]int
	head      []int
	next      []int
	offsets   [3][]int
}

func (g *grid) build(b box.Box, pos, frac [][3]float64, r float64) {
	g.b, g.pos, g.frac = b, pos, frac

	w := b.Widths()
	for dim := 0; dim < 3; dim++ {
		if dim == 2 && b.Is2D() {
			g.cells[dim] = 1
			continue
		}
		g.cells[dim] = int(math.Min(w[dim] / r, maxCellsPerDim))
		if g.cells[dim] < 1 { g.cells[dim] = 1 }
	}
	g.limitCells(len(pos))

	nCells := g.cells[0] * g.cells[1] * g.cells[2]
	if cap(g.head) < nCells { g.head = make([]int, nCells) }
	g.head = g.head[:nCells]
	for c := range g.head { g.head[c] = -1 }

	if cap(g.next) < len(pos) { g.next = make([]int, len(pos)) }
	g.next = g.next[:len(pos)]

	for i := range pos {
		c := g.cellIndex(g.cellCoords(frac[i]))
		g.next[i] = g.head[c]
		g.head[c] = i
	}

	// A neighboring cell only needs to be visited once, so small grids
	// just visit every cell along that dimension.
	for dim := 0; dim < 3; dim++ {
		if g.cells[dim] >= 3 {
			g.offsets[dim] = []int{ -1, 0, +1 }
		} else {
			g.offsets[dim] = make([]int, g.cells[dim])
			for i := range g.offsets[dim] { g.offsets[dim][i] = i }
		}
	}
}

// limitCells shrinks the grid until it has roughly as many cells as there
// are particles. Larger cells are still correct, just slower to search.
func (g *grid) limitCells(n int) {
	maxCells := 4*n + 27
	total := g.cells[0] * g.cells[1] * g.cells[2]
	if total <= maxCells { return }

	dims := 3
	if g.b.Is2D() { dims = 2 }
	scale := math.Pow(float64(total) / float64(maxCells), 1/float64(dims))

	for dim := 0; dim < dims; dim++ {
		g.cells[dim] = int(float64(g.cells[dim]) / scale)
		if g.cells[dim] < 1 { g.cells[dim] = 1 }
	}
}

// cellCoords returns the 3D cell coordinates of a fractional coordinate.
func (g *grid) cellCoords(f [3]float64) [3]int {
	c := [3]int{ }
	for dim := 0; dim < 3; dim++ {
		c[dim] = int(f[dim] * float64(g.cells[dim]))
		if c[dim] >= g.cells[dim] { c[dim] = g.cells[dim] - 1 }
		if c[dim] < 0 { c[dim] = 0 }
	}
	return c
}

// cellIndex returns the index of a cell, applying periodic boundary
// conditions to c.
func (g *grid) cellIndex(c [3]int) int {
	for dim := 0; dim < 3; dim++ {
		c[dim] %= g.cells[dim]
		if c[dim] < 0 { c[dim] += g.cells[dim] }
	}
	return c[0] + c[1]*g.cells[0] + c[2]*g.cells[0]*g.cells[1]
}

func (g *grid) within(i int, r2 float64, buf []candidate) []candidate {
	ci := g.cellCoords(g.frac[i])
	small := [3]bool{ g.cells[0] < 3, g.cells[1] < 3, g.cells[2] < 3 }
	xi := g.pos[i]

	for _, dz := range g.offsets[2] {
		for _, dy := range g.offsets[1] {
			for _, dx := range g.offsets[0] {
				c := [3]int{ dx, dy, dz }
				for dim := 0; dim < 3; dim++ {
					if !small[dim] { c[dim] += ci[dim] }
				}

				for j := g.head[g.cellIndex(c)]; j != -1; j = g.next[j] {
					if j == i { continue }
					dr2 := dist2(g.b, xi, g.pos[j])
					if dr2 <= r2 { buf = append(buf, candidate{ j, dr2 }) }
				}
			}
		}
	}

	return buf
}
