package order

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/phil-mansfield/gotetra/render/geom"

	"github.com/phil-mansfield/hexatic/lib/box"
	"github.com/phil-mansfield/hexatic/lib/eq"
	"github.com/phil-mansfield/hexatic/lib/neighbor"
)

// gridPoints returns n random points inside b. Coordinates are multiples of
// 1/4096 so that shifting them by small whole box lengths is exact.
func gridPoints(seed int64, n int, b box.Box) []geom.Vec {
	rng := rand.New(rand.NewSource(seed))
	x := make([]geom.Vec, n)
	for i := range x {
		f := [3]float64{ rng.Float64(), rng.Float64(), rng.Float64() }
		xi := b.Coordinates(f)
		for dim := 0; dim < 3; dim++ {
			x[i][dim] = float32(math.Round(xi[dim] * 4096) / 4096)
		}
	}
	return x
}

func copyPsi(psi []complex128) []complex128 {
	out := make([]complex128, len(psi))
	copy(out, psi)
	return out
}

func TestHexagonalLattice(t *testing.T) {
	for _, b := range []box.Box{ box.Cube(10), box.Square(10) } {
		x := []geom.Vec{ {0, 0, 0} }
		for i := 0; i < 6; i++ {
			theta := float64(i) * math.Pi / 3
			x = append(x, geom.Vec{
				float32(math.Cos(theta)), float32(math.Sin(theta)), 0,
			})
		}

		h := NewHexOrder(1.5)
		if err := h.Compute(b, x); err != nil { t.Fatal(err.Error()) }

		psi := h.Psi()
		if cmplx.Abs(psi[0] - 1) > 1e-4 {
			t.Errorf("%s: Expected psi_0 = 1, got %.6f.", b, psi[0])
		}
	}
}

func TestPsiLengthAndBound(t *testing.T) {
	tilted, err := box.New(9, 8, 7, 0.3, 0.1, -0.2, false)
	if err != nil { t.Fatal(err.Error()) }

	tests := []struct{
		b box.Box
		n int
		k float64
	} {
		{box.Cube(10), 300, 6},
		{box.Square(10), 200, 6},
		{tilted, 250, 4},
		{box.Square(6), 50, 3},
	}

	for i, tt := range tests {
		h := NewHexOrder(1, tt.k)
		if len(h.Psi()) != 0 {
			t.Errorf("%d) Expected empty Psi() before Compute, got %d values.",
				i, len(h.Psi()))
		}

		x := gridPoints(int64(i), tt.n, tt.b)
		if err := h.Compute(tt.b, x); err != nil {
			t.Errorf("%d) Compute failed with '%s'.", i, err.Error())
			continue
		}

		psi := h.Psi()
		if len(psi) != tt.n || h.Len() != tt.n {
			t.Errorf("%d) Expected %d values, got %d.", i, tt.n, len(psi))
		}
		for j := range psi {
			if a := cmplx.Abs(psi[j]); !(a <= 1 + 1e-9) {
				t.Errorf("%d) Expected |psi_%d| <= 1, got %g.", i, j, a)
				break
			}
		}
		if !h.Box().Equal(tt.b) {
			t.Errorf("%d) Expected Box() = %s, got %s.", i, tt.b, h.Box())
		}
	}
}

func TestIdempotent(t *testing.T) {
	b := box.Cube(8)
	x := gridPoints(10, 200, b)

	for _, method := range []neighbor.Method{ neighbor.CellList, neighbor.KDTree } {
		h := NewHexOrderFromConfig(HexConfig{ RMax: 1, K: 6, Method: method })
		if err := h.Compute(b, x); err != nil { t.Fatal(err.Error()) }
		psi1 := copyPsi(h.Psi())
		if err := h.Compute(b, x); err != nil { t.Fatal(err.Error()) }

		if !eq.Complex128s(psi1, h.Psi()) {
			t.Errorf("%s: Expected repeated calls to give identical results.",
				method)
		}
	}
}

func TestPeriodicShift(t *testing.T) {
	tilted, err := box.New(8, 8, 8, 0.25, 0.5, -0.25, false)
	if err != nil { t.Fatal(err.Error()) }
	tilted2D, err := box.New(8, 8, 0, -0.5, 0, 0, true)
	if err != nil { t.Fatal(err.Error()) }

	tests := []struct{
		name string
		b box.Box
		shift geom.Vec
	} {
		{"cube-x", box.Cube(8), geom.Vec{ 8, 0, 0 }},
		{"cube-y", box.Cube(8), geom.Vec{ 0, -8, 0 }},
		{"cube-z", box.Cube(8), geom.Vec{ 0, 0, 8 }},
		{"square-y", box.Square(8), geom.Vec{ 0, 8, 0 }},
		{"tilted-a2", tilted, geom.Vec{ 2, 8, 0 }},
		{"tilted-a3", tilted, geom.Vec{ 4, -2, 8 }},
		{"tilted-2D-a2", tilted2D, geom.Vec{ -4, 8, 0 }},
	}

	for i, tt := range tests {
		x := gridPoints(int64(i + 100), 150, tt.b)

		h := NewHexOrder(1)
		if err := h.Compute(tt.b, x); err != nil { t.Fatal(err.Error()) }
		exp := copyPsi(h.Psi())

		for j := 0; j < len(x); j += 7 {
			for dim := 0; dim < 3; dim++ { x[j][dim] += tt.shift[dim] }
		}
		if err := h.Compute(tt.b, x); err != nil { t.Fatal(err.Error()) }

		if !eq.Complex128sEps(exp, h.Psi(), 1e-9) {
			t.Errorf("%s: Expected shifting particles by a box vector to "+
				"leave psi unchanged.", tt.name)
		}
	}
}

func TestRejectLargeCutoff(t *testing.T) {
	L := 10.0
	h := NewHexOrder(L/2 + 1)

	big := box.Cube(2*L)
	x := gridPoints(3, 40, big)
	if err := h.Compute(big, x); err != nil { t.Fatal(err.Error()) }
	prev := copyPsi(h.Psi())
	finder := h.Finder()

	err := h.Compute(box.Cube(L), gridPoints(4, 20, box.Cube(L)))
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v.", err)
	}
	if !eq.Complex128s(prev, h.Psi()) {
		t.Errorf("Expected a rejected Compute to leave Psi() unchanged.")
	}
	if !h.Box().Equal(big) || h.Finder() != finder {
		t.Errorf("Expected a rejected Compute to leave the box and finder "+
			"unchanged, got box %s.", h.Box())
	}
}

func TestInvalidParameters(t *testing.T) {
	tests := []struct{
		c HexConfig
		b box.Box
	} {
		{HexConfig{ RMax: 1, K: 0 }, box.Cube(10)},
		{HexConfig{ RMax: 1, K: -6 }, box.Cube(10)},
		{HexConfig{ RMax: 1, K: math.NaN() }, box.Cube(10)},
		{HexConfig{ RMax: 1, K: 6, Neighbors: -1 }, box.Cube(10)},
		{HexConfig{ RMax: 0, K: 6 }, box.Cube(10)},
		{HexConfig{ RMax: 5, K: 6 }, box.Cube(10)},
		{HexConfig{ RMax: 1, K: 6 }, box.Box{ }},
	}

	x := gridPoints(5, 20, box.Cube(10))
	for i := range tests {
		h := NewHexOrderFromConfig(tests[i].c)
		err := h.Compute(tests[i].b, x)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%d) Expected ErrInvalidConfiguration, got %v.", i, err)
		}
		if h.Len() != 0 || h.Finder() != nil {
			t.Errorf("%d) Expected a failed Compute to leave no state.", i)
		}
	}
}

func TestInsufficientNeighbors(t *testing.T) {
	b := box.Cube(10)
	h := NewHexOrder(2)

	x := gridPoints(6, 10, b)
	if err := h.Compute(b, x); err != nil { t.Fatal(err.Error()) }
	prev := copyPsi(h.Psi())

	err := h.Compute(b, x[:6])
	if !errors.Is(err, ErrInsufficientNeighbors) {
		t.Errorf("Expected ErrInsufficientNeighbors, got %v.", err)
	}
	if !eq.Complex128s(prev, h.Psi()) {
		t.Errorf("Expected a failed Compute to leave Psi() unchanged.")
	}

	b2 := box.Cube(12)
	err = h.Compute(b2, x[:6])
	if !errors.Is(err, ErrInsufficientNeighbors) {
		t.Errorf("Expected ErrInsufficientNeighbors, got %v.", err)
	}
	if !h.Box().Equal(b) {
		t.Errorf("Expected a failed Compute to keep box %s, got %s.",
			b, h.Box())
	}
}

func TestShrink(t *testing.T) {
	b := box.Square(10)
	x := gridPoints(7, 10, b)

	h := NewHexOrder(2, 4)
	if err := h.Compute(b, x); err != nil { t.Fatal(err.Error()) }
	if h.Len() != 10 { t.Errorf("Expected 10 values, got %d.", h.Len()) }

	small := gridPoints(8, 5, b)
	if err := h.Compute(b, small); err != nil { t.Fatal(err.Error()) }
	if len(h.Psi()) != 5 {
		t.Fatalf("Expected 5 values after shrinking, got %d.", len(h.Psi()))
	}

	fresh := NewHexOrder(2, 4)
	if err := fresh.Compute(b, small); err != nil { t.Fatal(err.Error()) }
	if !eq.Complex128sEps(fresh.Psi(), h.Psi(), 1e-12) {
		t.Errorf("Expected %.4f after shrinking, got %.4f.",
			fresh.Psi(), h.Psi())
	}
}

func TestCoincidentParticles(t *testing.T) {
	b := box.Cube(10)
	h := NewHexOrderFromConfig(HexConfig{ RMax: 1, K: 6, Neighbors: 1 })
	x := []geom.Vec{ {1, 2, 3}, {1, 2, 3} }

	if err := h.Compute(b, x); err != nil { t.Fatal(err.Error()) }
	for i, psi := range h.Psi() {
		if psi != 0 {
			t.Errorf("Expected coincident particle %d to have psi = 0, got %g.",
				i, psi)
		}
	}

	// One coincident neighbor out of six still contributes to the divisor.
	x = []geom.Vec{ {0, 0, 0}, {0, 0, 0} }
	for i := 0; i < 5; i++ {
		theta := float64(i) * math.Pi / 3
		x = append(x, geom.Vec{
			float32(math.Cos(theta)), float32(math.Sin(theta)), 0,
		})
	}
	h = NewHexOrder(1.5)
	if err := h.Compute(b, x); err != nil { t.Fatal(err.Error()) }

	for i, psi := range h.Psi() {
		if cmplx.IsNaN(psi) || cmplx.IsInf(psi) {
			t.Errorf("Expected finite psi_%d, got %g.", i, psi)
		}
	}
	if psi := h.Psi()[0]; cmplx.Abs(psi - 5.0/6) > 1e-4 {
		t.Errorf("Expected psi_0 = 5/6, got %.6f.", psi)
	}
}

func TestBufferAndFinderReuse(t *testing.T) {
	b := box.Cube(10)
	h := NewHexOrder(1.5)

	if err := h.Compute(b, gridPoints(9, 100, b)); err != nil {
		t.Fatal(err.Error())
	}
	buf, finder := &h.Psi()[0], h.Finder()

	if err := h.Compute(b, gridPoints(10, 100, b)); err != nil {
		t.Fatal(err.Error())
	}
	if &h.Psi()[0] != buf {
		t.Errorf("Expected the result buffer to be reused for the same Np.")
	}
	if h.Finder() != finder {
		t.Errorf("Expected the finder to be reused for the same box.")
	}

	b2 := box.Cube(11)
	if err := h.Compute(b2, gridPoints(11, 100, b)); err != nil {
		t.Fatal(err.Error())
	}
	if h.Finder() == finder {
		t.Errorf("Expected a new finder after the box changed.")
	}
	if !h.Finder().Box().Equal(b2) {
		t.Errorf("Expected the new finder to use %s, got %s.",
			b2, h.Finder().Box())
	}

	if err := h.Compute(b2, gridPoints(12, 101, b)); err != nil {
		t.Fatal(err.Error())
	}
	if len(h.Psi()) != 101 {
		t.Errorf("Expected the buffer to grow to 101, got %d.", len(h.Psi()))
	}
}
