/*package box contains the periodic simulation volume used by hexatic. Boxes
may be triclinic and may be two dimensional. The conventions follow HOOMD: the
box is centered on the origin and is spanned by the vectors

   a1 = (Lx, 0, 0)
   a2 = (xy*Ly, Ly, 0)
   a3 = (xz*Lz, yz*Lz, Lz)

Boxes are immutable values. Code which needs to know whether a box has changed
should compare two boxes with Equal.
*/
package box

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidConfiguration is returned (wrapped) whenever a box or a cutoff
// radius can't be used for a calculation.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Box is a periodic simulation volume. The zero value is not a valid box and
// is only useful as a "no box yet" sentinel.
type Box struct {
	l          [3]float64
	xy, xz, yz float64
	is2D       bool

	// Derived quantities. These are fully determined by the fields above.
	hInv   [3][3]float64
	widths [3]float64
}

// New creates a box with edge lengths lx, ly, lz and tilt factors xy, xz, yz.
// If is2D is set, lz, xz, and yz are ignored for geometry and lz may be zero.
func New(lx, ly, lz, xy, xz, yz float64, is2D bool) (Box, error) {
	if !(lx > 0) || !(ly > 0) {
		return Box{ }, fmt.Errorf("%w: box lengths must be positive, got Lx = %g, Ly = %g",
			ErrInvalidConfiguration, lx, ly)
	}
	if !is2D && !(lz > 0) {
		return Box{ }, fmt.Errorf("%w: Lz must be positive for a 3D box, got %g",
			ErrInvalidConfiguration, lz)
	}
	for _, t := range []float64{xy, xz, yz} {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Box{ }, fmt.Errorf("%w: tilt factors must be finite, got (%g, %g, %g)",
				ErrInvalidConfiguration, xy, xz, yz)
		}
	}

	b := Box{ l: [3]float64{lx, ly, lz}, xy: xy, xz: xz, yz: yz, is2D: is2D }
	if is2D { b.xz, b.yz = 0, 0 }

	if err := b.initDerived(); err != nil { return Box{ }, err }
	return b, nil
}

// Cube returns a cubic 3D box with width L. It panics if L isn't positive.
func Cube(L float64) Box {
	b, err := New(L, L, L, 0, 0, 0, false)
	if err != nil { panic(err.Error()) }
	return b
}

// Square returns a square 2D box with width L. It panics if L isn't positive.
func Square(L float64) Box {
	b, err := New(L, L, 0, 0, 0, 0, true)
	if err != nil { panic(err.Error()) }
	return b
}

// matrix returns the box matrix, whose columns are the box vectors. 2D boxes
// get a unit z-vector so that the matrix stays invertible.
func (b *Box) matrix() *mat.Dense {
	lz := b.l[2]
	if b.is2D { lz = 1 }
	return mat.NewDense(3, 3, []float64{
		b.l[0], b.xy*b.l[1], b.xz*lz,
		0, b.l[1], b.yz*lz,
		0, 0, lz,
	})
}

// initDerived computes the inverse box matrix and the plane spacings. The
// rows of the inverse are the reciprocal box vectors, and the distance
// between opposite faces is one over their norms.
func (b *Box) initDerived() error {
	inv := &mat.Dense{ }
	if err := inv.Inverse(b.matrix()); err != nil {
		return fmt.Errorf("%w: box matrix is singular: %s",
			ErrInvalidConfiguration, err.Error())
	}

	row := make([]float64, 3)
	for i := 0; i < 3; i++ {
		mat.Row(row, i, inv)
		copy(b.hInv[i][:], row)
		b.widths[i] = 1 / floats.Norm(row, 2)
	}
	if b.is2D { b.widths[2] = math.Inf(+1) }

	return nil
}

// L returns the edge lengths of the box.
func (b Box) L() [3]float64 { return b.l }

// Tilts returns the xy, xz, and yz tilt factors.
func (b Box) Tilts() (xy, xz, yz float64) { return b.xy, b.xz, b.yz }

// Is2D returns true if the box is two dimensional.
func (b Box) Is2D() bool { return b.is2D }

// IsZero returns true for the zero Box.
func (b Box) IsZero() bool { return b.l == [3]float64{ } }

// Dims returns the number of periodic dimensions.
func (b Box) Dims() int {
	if b.is2D { return 2 }
	return 3
}

// Volume returns the volume of the box, or its area if it's 2D.
func (b Box) Volume() float64 {
	if b.is2D { return b.l[0] * b.l[1] }
	return b.l[0] * b.l[1] * b.l[2]
}

// Widths returns the perpendicular distances between opposite faces of the
// box. For a 2D box the z width is +Inf.
func (b Box) Widths() [3]float64 { return b.widths }

// Equal returns true if two boxes describe the same geometry.
func (b Box) Equal(b2 Box) bool {
	return b.l == b2.l && b.xy == b2.xy && b.xz == b2.xz &&
		b.yz == b2.yz && b.is2D == b2.is2D
}

func (b Box) String() string {
	if b.is2D {
		return fmt.Sprintf("Box{Lx: %g, Ly: %g, xy: %g, 2D}",
			b.l[0], b.l[1], b.xy)
	}
	return fmt.Sprintf("Box{Lx: %g, Ly: %g, Lz: %g, xy: %g, xz: %g, yz: %g}",
		b.l[0], b.l[1], b.l[2], b.xy, b.xz, b.yz)
}

// Wrap returns the minimum image of the displacement v. The z image is removed
// first, then y, then x, so that tilt factors are carried into the lower
// dimensions. For 2D boxes the z component is zero.
func (b Box) Wrap(v [3]float64) [3]float64 {
	if b.is2D {
		v[2] = 0
	} else {
		img := math.RoundToEven(v[2] / b.l[2])
		v[2] -= b.l[2] * img
		v[1] -= b.l[2] * b.yz * img
		v[0] -= b.l[2] * b.xz * img
	}

	img := math.RoundToEven(v[1] / b.l[1])
	v[1] -= b.l[1] * img
	v[0] -= b.l[1] * b.xy * img

	img = math.RoundToEven(v[0] / b.l[0])
	v[0] -= b.l[0] * img

	return v
}

// ValidateCutoff returns an error wrapping ErrInvalidConfiguration unless
// rmax is positive and strictly smaller than half of Lx, Ly, and (for 3D
// boxes) Lz.
func (b Box) ValidateCutoff(rmax float64) error {
	if !(rmax > 0) {
		return fmt.Errorf("%w: rmax must be positive, got %g",
			ErrInvalidConfiguration, rmax)
	}

	n := b.Dims()
	names := [3]string{"Lx", "Ly", "Lz"}
	for dim := 0; dim < n; dim++ {
		if rmax >= b.l[dim]/2 {
			return fmt.Errorf("%w: rmax = %g must be smaller than half the "+
				"smallest box size, but %s = %g", ErrInvalidConfiguration,
				rmax, names[dim], b.l[dim])
		}
	}

	return nil
}

// Fraction returns the fractional coordinates of x, folded into [0, 1). For
// 2D boxes the z coordinate is always 0.
func (b Box) Fraction(x [3]float64) [3]float64 {
	if b.is2D { x[2] = 0 }

	f := [3]float64{ }
	for i := 0; i < 3; i++ {
		fi := 0.5
		for j := 0; j < 3; j++ {
			fi += b.hInv[i][j] * x[j]
		}
		fi -= math.Floor(fi)
		// Floor can leave a value of exactly 1 after rounding.
		if fi >= 1 { fi = 0 }
		f[i] = fi
	}
	if b.is2D { f[2] = 0 }

	return f
}

// Coordinates is the inverse of Fraction: it returns the position associated
// with the fractional coordinates f. f does not need to lie within [0, 1).
func (b Box) Coordinates(f [3]float64) [3]float64 {
	lz := b.l[2]
	if b.is2D { lz, f[2] = 1, 0.5 }

	f0, f1, f2 := f[0] - 0.5, f[1] - 0.5, f[2] - 0.5
	x := [3]float64{
		b.l[0]*f0 + b.xy*b.l[1]*f1 + b.xz*lz*f2,
		b.l[1]*f1 + b.yz*lz*f2,
		lz*f2,
	}
	if b.is2D { x[2] = 0 }

	return x
}
