package neighbor

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/phil-mansfield/hexatic/lib/box"
)

// kdIndex answers periodic queries with a non-periodic k-d tree. Every
// particle within the search radius of a box face also gets "ghost" copies
// on the far side of that face, so a query around any particle in the
// primary image sees all the periodic images it needs to.
type kdIndex struct {
	pts  kdPoints
	pos  [][3]float64
	dims int
	tree *kdtree.Tree
}

func (kd *kdIndex) build(b box.Box, pos, frac [][3]float64, r float64) {
	kd.pos, kd.dims = pos, b.Dims()

	w := b.Widths()
	margin := [3]float64{ }
	for dim := 0; dim < kd.dims; dim++ { margin[dim] = r / w[dim] }

	shifts := ghostShifts(kd.dims)
	kd.pts = kd.pts[:0]
	for i := range pos {
		kd.pts = append(kd.pts, kdPoint{ pos[i], i, kd.dims })

		for _, s := range shifts {
			f, inside := frac[i], true
			for dim := 0; dim < kd.dims; dim++ {
				f[dim] += float64(s[dim])
				if f[dim] < -margin[dim] || f[dim] >= 1 + margin[dim] {
					inside = false
					break
				}
			}
			if inside {
				kd.pts = append(kd.pts, kdPoint{ b.Coordinates(f), i, kd.dims })
			}
		}
	}

	kd.tree = kdtree.New(kd.pts, false)
}

// ghostShifts returns every non-zero image shift in {-1, 0, +1}^dims.
func ghostShifts(dims int) [][3]int {
	out := [][3]int{ }
	zs := []int{ 0 }
	if dims == 3 { zs = []int{ -1, 0, +1 } }

	for _, dz := range zs {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 { continue }
				out = append(out, [3]int{ dx, dy, dz })
			}
		}
	}
	return out
}

func (kd *kdIndex) within(i int, r2 float64, buf []candidate) []candidate {
	keep := kdtree.NewDistKeeper(r2)
	kd.tree.NearestSet(keep, kdPoint{ kd.pos[i], i, kd.dims })

	start := len(buf)
	for _, c := range keep.Heap {
		if c.Comparable == nil { continue }
		p := c.Comparable.(kdPoint)
		if p.idx == i { continue }
		buf = append(buf, candidate{ p.idx, c.Dist })
	}

	// Two images of the same particle can both be in range for strongly
	// tilted boxes. Keep the closest one.
	found := buf[start:]
	sort.Slice(found, func(a, b int) bool {
		if found[a].idx != found[b].idx { return found[a].idx < found[b].idx }
		return found[a].dr2 < found[b].dr2
	})
	n := 0
	for j := range found {
		if j > 0 && found[j].idx == found[n-1].idx { continue }
		found[n] = found[j]
		n++
	}

	return buf[:start+n]
}

// kdPoint is a particle image stored in the k-d tree. idx is the index of
// the particle it's an image of.
type kdPoint struct {
	x    [3]float64
	idx  int
	dims int
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.x[d] - c.(kdPoint).x[d]
}

func (p kdPoint) Dims() int { return p.dims }

func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	sum := 0.0
	for dim := 0; dim < p.dims; dim++ {
		d := p.x[dim] - q.x[dim]
		sum += d*d
	}
	return sum
}

// kdPoints implements kdtree.Interface.
type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p kdPoints) Len() int { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int { return kdPlane{ d, p }.Pivot() }
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// kdPlane sorts kdPoints along a single dimension.
type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].x[p.Dim] < p.kdPoints[j].x[p.Dim]
}
func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}
func (p kdPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
