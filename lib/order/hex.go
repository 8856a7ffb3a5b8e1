/*package order computes per-particle bond-orientational order parameters. The
hexatic order parameter of particle i is

    psi_i = (1/k) sum_j exp(i k theta_ij)

where the sum runs over the nearest neighbors j of i, theta_ij is the angle
of the minimum-image bond from i to j in the xy plane, and k is the symmetry
order (6 for hexatic order).
*/
package order

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/dgravesa/go-parallel/parallel"
	"github.com/phil-mansfield/gotetra/render/geom"
	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/hexatic/lib/box"
	"github.com/phil-mansfield/hexatic/lib/neighbor"
	"github.com/phil-mansfield/hexatic/lib/thread"
)

const (
	// DefaultK is the symmetry order used when none is given.
	DefaultK = 6.0
	// DegenerateDist2 is the squared bond length at or below which a
	// neighbor is treated as coincident with its particle and skipped.
	DegenerateDist2 = 1e-6
)

var (
	// ErrInvalidConfiguration is box.ErrInvalidConfiguration, re-exported.
	ErrInvalidConfiguration  = box.ErrInvalidConfiguration
	// ErrInsufficientNeighbors is neighbor.ErrInsufficientNeighbors,
	// re-exported.
	ErrInsufficientNeighbors = neighbor.ErrInsufficientNeighbors

	orderLog = logrus.WithField("component", "order")
)

// HexConfig contains the parameters of a HexOrder. Zero values of Neighbors
// and Workers select defaults.
type HexConfig struct {
	RMax float64 // Starting neighbor search radius.
	K    float64 // Symmetry order.
	// Neighbors is the number of neighbors used per particle. If zero,
	// K rounded to the nearest integer is used.
	Neighbors int
	Method    neighbor.Method
	// Workers is the number of goroutines. Values <= 0 use thread.Workers().
	Workers   int
}

// HexOrder computes the hexatic order parameter of every particle in a
// periodic box. A HexOrder keeps the box, neighbor finder, and result buffer
// of its last successful call to Compute and reuses them when it can.
//
// HexOrder is not safe for concurrent calls to Compute.
type HexOrder struct {
	rmax, k    float64
	nNeighbors int
	method     neighbor.Method
	workers    int

	b      box.Box
	finder *neighbor.Finder
	res    ResultStore
}

// NewHexOrder creates a HexOrder with the cutoff radius rmax. The optional
// argument k sets the symmetry order, which defaults to DefaultK.
func NewHexOrder(rmax float64, k ...float64) *HexOrder {
	c := HexConfig{ RMax: rmax, K: DefaultK }
	if len(k) > 0 { c.K = k[0] }
	return NewHexOrderFromConfig(c)
}

// NewHexOrderFromConfig creates a HexOrder from a full set of parameters.
// The parameters are checked by Compute.
func NewHexOrderFromConfig(c HexConfig) *HexOrder {
	n := c.Neighbors
	if n == 0 { n = int(math.Round(c.K)) }
	return &HexOrder{
		rmax: c.RMax, k: c.K, nNeighbors: n,
		method: c.Method, workers: c.Workers,
	}
}

// check returns an error if the engine's parameters can't be used with b.
func (h *HexOrder) check(b box.Box) error {
	if b.IsZero() {
		return fmt.Errorf("%w: no box given", ErrInvalidConfiguration)
	}
	if err := b.ValidateCutoff(h.rmax); err != nil { return err }
	if !(h.k > 0) || math.IsInf(h.k, 0) {
		return fmt.Errorf("%w: symmetry order must be positive, got %g",
			ErrInvalidConfiguration, h.k)
	}
	if h.nNeighbors <= 0 {
		return fmt.Errorf("%w: neighbor count must be positive, got %d",
			ErrInvalidConfiguration, h.nNeighbors)
	}
	return nil
}

// Compute calculates the order parameter of every particle in x, which lies
// inside the box b. If b differs from the box of the last call, the neighbor
// finder is rebuilt. On error nothing is changed: Psi() and Box() still
// return the results of the last successful call.
func (h *HexOrder) Compute(b box.Box, x []geom.Vec) error {
	if err := h.check(b); err != nil { return err }

	finder := h.finder
	if finder == nil || !b.Equal(h.b) {
		finder = neighbor.NewFinder(h.rmax, h.nNeighbors, h.method)
		finder.SetWorkers(h.workers)
		finder.Rebuild(b)
	}
	if err := finder.Compute(x); err != nil { return err }

	if h.finder != finder {
		orderLog.WithField("box", b.String()).Debug("Box changed.")
	}
	h.b, h.finder = b, finder
	psi := h.res.resize(len(x))

	workers := h.workers
	if workers <= 0 { workers = thread.Workers() }

	norm := complex(h.k, 0)
	parallel.WithNumGoroutines(workers).For(len(x), func(i, _ int) {
		xi := x[i]
		sum := complex128(0)
		for _, j := range finder.Neighbors(i) {
			d := b.Wrap([3]float64{
				float64(x[j][0]) - float64(xi[0]),
				float64(x[j][1]) - float64(xi[1]),
				float64(x[j][2]) - float64(xi[2]),
			})
			if d[0]*d[0] + d[1]*d[1] + d[2]*d[2] <= DegenerateDist2 { continue }

			theta := math.Atan2(d[1], d[0])
			sum += cmplx.Exp(complex(0, h.k*theta))
		}
		psi[i] = sum / norm
	})

	orderLog.WithFields(logrus.Fields{
		"particles": len(x), "search_radius": finder.SearchRadius(),
		"passes": finder.Passes(),
	}).Debug("Computed hexatic order parameter.")

	return nil
}

// Psi returns the order parameters computed by the last successful call to
// Compute, in input order. It is empty before the first call. The slice is
// owned by the HexOrder and is overwritten by later calls.
func (h *HexOrder) Psi() []complex128 { return h.res.Psi() }

// Box returns the box used by the last successful call to Compute.
func (h *HexOrder) Box() box.Box { return h.b }

// Len returns the number of particles in the last successful call to Compute.
func (h *HexOrder) Len() int { return h.res.Len() }

// RMax returns the starting neighbor search radius.
func (h *HexOrder) RMax() float64 { return h.rmax }
// K returns the symmetry order.
func (h *HexOrder) K() float64 { return h.k }
// Neighbors returns the number of neighbors used per particle.
func (h *HexOrder) Neighbors() int { return h.nNeighbors }

// Finder returns the neighbor finder used by the last successful call to
// Compute, or nil.
func (h *HexOrder) Finder() *neighbor.Finder { return h.finder }
