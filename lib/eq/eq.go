/*package eq is a simple package for telling whether two arrays are equal to
one another, either exactly or to within some tolerance. It's mostly used by
tests.*/
package eq

import (
	"math"
	"math/cmplx"
)

// Ints returns true if two []int arrays are the same and false otherwise.
func Ints(x, y []int) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Float64s returns true if two []float64 arrays are the same and false
// otherwise.
func Float64s(x, y []float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Float64sEps returns true if the two []float64 arrays are within eps of one
// another and false otherwise. NaNs are never within eps of anything.
func Float64sEps(x, y []float64, eps float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if !(math.Abs(x[i] - y[i]) <= eps) { return false }
	}
	return true
}

// Complex128s returns true if two []complex128 arrays are bit-for-bit the
// same and false otherwise.
func Complex128s(x, y []complex128) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Complex128sEps returns true if every element of x is within a distance eps
// of the corresponding element of y in the complex plane.
func Complex128sEps(x, y []complex128, eps float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if !(cmplx.Abs(x[i] - y[i]) <= eps) { return false }
	}
	return true
}

// Vec32s returns true if two [][3]float32 arrays are the same and false
// otherwise.
func Vec32s(x, y [][3]float32) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}
