package order

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]complex128{ 3 + 4i, 0, 1 })

	tests := []struct{
		name string
		val, exp float64
	} {
		{"Mean", s.Mean, 2},
		{"Std", s.Std, math.Sqrt(7)},
		{"Min", s.Min, 0},
		{"Median", s.Median, 1},
		{"Max", s.Max, 5},
		{"Global", s.Global, 4*math.Sqrt2/3},
		{"Phase", s.Phase, math.Pi/4},
	}

	if s.N != 3 { t.Errorf("Expected N = 3, got %d.", s.N) }
	for _, tt := range tests {
		if math.Abs(tt.val - tt.exp) > 1e-12 {
			t.Errorf("Expected %s = %g, got %g.", tt.name, tt.exp, tt.val)
		}
	}
}

func TestSummarizeEdgeCases(t *testing.T) {
	if s := Summarize(nil); s != (Summary{ }) {
		t.Errorf("Expected an empty Summary, got %+v.", s)
	}

	s := Summarize([]complex128{ 1i })
	if s.Std != 0 || s.Mean != 1 || s.Global != 1 ||
		math.Abs(s.Phase - math.Pi/2) > 1e-12 {
		t.Errorf("Expected a single particle summary, got %+v.", s)
	}

	s = Summarize([]complex128{ 1, 1i, -1, -1i })
	if s.Global > 1e-12 || s.Mean != 1 || s.Std != 0 {
		t.Errorf("Expected a disordered summary, got %+v.", s)
	}
}
