/*package neighbor finds the k nearest neighbors of every particle in a periodic
box. A Finder is tied to a single box geometry through Rebuild and re-indexes
the particles on every call to Compute, since positions generally change from
call to call while the box does not.

Searches are done with a working radius which starts at the user's rmax. Any
particle with fewer than k other particles inside the working radius is
retried with a larger radius, and once the radius reaches half the narrowest
box width the remaining particles are resolved by brute force. This means
that every particle always ends up with exactly k neighbors.
*/
package neighbor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/phil-mansfield/gotetra/render/geom"
	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/hexatic/lib/box"
	"github.com/phil-mansfield/hexatic/lib/thread"
)

const (
	// RadiusGrowth is the factor the working radius grows by between passes.
	RadiusGrowth = 1.1
)

var (
	// ErrInsufficientNeighbors is returned when more neighbors are requested
	// than there are other particles.
	ErrInsufficientNeighbors = errors.New("insufficient neighbors")
	// ErrNoBox is returned by Compute if Rebuild has never been called.
	ErrNoBox = errors.New("neighbor finder has no box")

	finderLog = logrus.WithField("component", "neighbor")
)

// Method is a flag representing the spatial index used by a Finder.
type Method int
const (
	CellList Method = iota
	KDTree
)

func (m Method) String() string {
	switch m {
	case CellList: return "cell"
	case KDTree: return "kdtree"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts the name of a method ("cell" or "kdtree") into a
// Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cell", "celllist", "cell_list": return CellList, nil
	case "kdtree", "kd", "kd_tree": return KDTree, nil
	}
	return -1, fmt.Errorf("Unrecognized neighbor method '%s'. The only "+
		"valid methods are 'cell' and 'kdtree'.", s)
}

// candidate is a particle that might be a neighbor, along with its squared
// distance from the query particle.
type candidate struct {
	idx int
	dr2 float64
}

// index is the interface shared by the spatial indexes a Finder can use.
type index interface {
	// build indexes the given wrapped positions and their fractional
	// coordinates so that within() queries of radius r can be answered.
	build(b box.Box, pos, frac [][3]float64, r float64)
	// within appends every particle other than i which is within sqrt(r2)
	// of particle i to buf. Each particle is appended at most once. It must
	// be safe to call from multiple goroutines at once.
	within(i int, r2 float64, buf []candidate) []candidate
}

func newIndex(m Method) index {
	switch m {
	case KDTree: return &kdIndex{ }
	default: return &grid{ }
	}
}

// Finder finds the k nearest neighbors of particles in a periodic box.
type Finder struct {
	rmax    float64
	k       int
	method  Method
	workers int

	b      box.Box
	hasBox bool
	maxR   float64
	idx    index

	n, passes int
	r         float64
	nlist     []int
	dr2       []float64
	pos, frac [][3]float64
	bufs      [][]candidate
}

// NewFinder creates a Finder which searches for k neighbors, starting at a
// radius of rmax. The index defaults to CellList.
func NewFinder(rmax float64, k int, method ...Method) *Finder {
	f := &Finder{ rmax: rmax, k: k, method: CellList }
	if len(method) > 0 { f.method = method[0] }
	return f
}

// SetWorkers sets the number of goroutines used by Compute. n <= 0 means
// thread.Workers().
func (f *Finder) SetWorkers(n int) { f.workers = n }

// Rebuild throws away all the Finder's state and reinitializes it for a new
// box.
func (f *Finder) Rebuild(b box.Box) {
	w := b.Widths()
	f.b, f.hasBox = b, true
	f.maxR = math.Min(w[0], math.Min(w[1], w[2])) / 2
	f.idx = newIndex(f.method)

	f.n, f.passes, f.r = 0, 0, 0
	f.nlist, f.dr2 = nil, nil
	f.pos, f.frac = nil, nil

	finderLog.WithFields(logrus.Fields{
		"box": b.String(), "method": f.method.String(), "max_radius": f.maxR,
	}).Debug("Rebuilt neighbor finder.")
}

// Compute finds the k nearest neighbors of every particle in x. It fails
// without changing the Finder's state if k is larger than len(x) - 1.
func (f *Finder) Compute(x []geom.Vec) error {
	if !f.hasBox { return ErrNoBox }
	if f.k <= 0 {
		return fmt.Errorf("%w: neighbor count must be positive, got %d",
			box.ErrInvalidConfiguration, f.k)
	}
	if f.k > len(x) - 1 {
		return fmt.Errorf("%w: %d neighbors requested, but there are only "+
			"%d particles", ErrInsufficientNeighbors, f.k, len(x))
	}

	n, workers := len(x), f.workers
	if workers <= 0 { workers = thread.Workers() }
	f.resize(n, workers)

	thread.SplitArray(n, workers, func(w, start, end, step int) {
		for i := start; i < end; i += step {
			xi := [3]float64{ float64(x[i][0]), float64(x[i][1]), float64(x[i][2]) }
			f.frac[i] = f.b.Fraction(xi)
			f.pos[i] = f.b.Coordinates(f.frac[i])
		}
	})

	pending := make([]int, n)
	for i := range pending { pending[i] = i }

	r := math.Min(f.rmax, f.maxR)
	f.passes = 0
	for {
		f.passes++
		f.idx.build(f.b, f.pos, f.frac, r)
		pending = f.query(pending, r, workers)
		if len(pending) == 0 { break }

		if r >= f.maxR {
			finderLog.WithField("particles", len(pending)).Debug(
				"Search radius reached half the box width, using brute force.")
			f.bruteForce(pending, workers)
			break
		}

		r = math.Min(r*RadiusGrowth, f.maxR)
		finderLog.WithFields(logrus.Fields{
			"particles": len(pending), "radius": r,
		}).Debug("Growing search radius.")
	}
	f.r = r

	return nil
}

// resize makes sure that all internal buffers are large enough for n
// particles and the given number of workers.
func (f *Finder) resize(n, workers int) {
	f.n = n
	if cap(f.nlist) < n*f.k {
		f.nlist = make([]int, n*f.k)
		f.dr2 = make([]float64, n*f.k)
	}
	f.nlist, f.dr2 = f.nlist[:n*f.k], f.dr2[:n*f.k]

	if cap(f.pos) < n {
		f.pos = make([][3]float64, n)
		f.frac = make([][3]float64, n)
	}
	f.pos, f.frac = f.pos[:n], f.frac[:n]

	for len(f.bufs) < workers { f.bufs = append(f.bufs, nil) }
}

// query looks up the neighbors of every particle in pending within a radius
// r and returns the particles that didn't have enough candidates.
func (f *Finder) query(pending []int, r float64, workers int) []int {
	r2 := r*r
	missing := make([][]int, workers)

	thread.SplitArray(len(pending), workers, func(w, start, end, step int) {
		buf := f.bufs[w]
		for j := start; j < end; j += step {
			i := pending[j]
			buf = f.idx.within(i, r2, buf[:0])
			if len(buf) < f.k {
				missing[w] = append(missing[w], i)
				continue
			}
			f.save(i, buf)
		}
		f.bufs[w] = buf
	})

	out := pending[:0]
	for w := range missing { out = append(out, missing[w]...) }
	return out
}

// bruteForce finds the neighbors of every particle in pending by checking
// every other particle.
func (f *Finder) bruteForce(pending []int, workers int) {
	thread.SplitArray(len(pending), workers, func(w, start, end, step int) {
		buf := f.bufs[w]
		for j := start; j < end; j += step {
			i := pending[j]
			buf = buf[:0]
			for jj := range f.pos {
				if jj == i { continue }
				buf = append(buf, candidate{ jj, dist2(f.b, f.pos[i], f.pos[jj]) })
			}
			f.save(i, buf)
		}
		f.bufs[w] = buf
	})
}

// save sorts the candidates of particle i and stores the k closest. buf must
// contain at least k elements.
func (f *Finder) save(i int, buf []candidate) {
	sort.Slice(buf, func(a, b int) bool {
		if buf[a].dr2 != buf[b].dr2 { return buf[a].dr2 < buf[b].dr2 }
		return buf[a].idx < buf[b].idx
	})

	nl, dr2 := f.nlist[i*f.k: (i+1)*f.k], f.dr2[i*f.k: (i+1)*f.k]
	for j := range nl {
		nl[j], dr2[j] = buf[j].idx, buf[j].dr2
	}
}

// dist2 returns the squared minimum-image distance between x1 and x2.
func dist2(b box.Box, x1, x2 [3]float64) float64 {
	d := b.Wrap([3]float64{ x2[0] - x1[0], x2[1] - x1[1], x2[2] - x1[2] })
	return d[0]*d[0] + d[1]*d[1] + d[2]*d[2]
}

// Neighbors returns the indices of the k nearest neighbors of particle i in
// order of increasing distance. The returned slice is an internal buffer and
// is only valid until the next call to Compute.
func (f *Finder) Neighbors(i int) []int {
	return f.nlist[i*f.k: (i+1)*f.k]
}

// Distances2 returns the squared distances to the particles returned by
// Neighbors(i).
func (f *Finder) Distances2(i int) []float64 {
	return f.dr2[i*f.k: (i+1)*f.k]
}

// Len returns the number of particles indexed by the last call to Compute.
func (f *Finder) Len() int { return f.n }

// K returns the number of neighbors found for each particle.
func (f *Finder) K() int { return f.k }

// RMax returns the starting search radius.
func (f *Finder) RMax() float64 { return f.rmax }

// Method returns the spatial index used by the Finder.
func (f *Finder) Method() Method { return f.method }

// Box returns the box the Finder was last rebuilt with.
func (f *Finder) Box() box.Box { return f.b }

// SearchRadius returns the working radius of the final pass of the last call
// to Compute.
func (f *Finder) SearchRadius() float64 { return f.r }

// Passes returns the number of indexing passes used by the last call to
// Compute.
func (f *Finder) Passes() int { return f.passes }
