package order

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of |psi| over a set of particles.
type Summary struct {
	N int `toml:"n"`

	Mean   float64 `toml:"mean"`
	Std    float64 `toml:"std"`
	Min    float64 `toml:"min"`
	Median float64 `toml:"median"`
	Max    float64 `toml:"max"`

	// Global is |<psi>|, the magnitude of the average order parameter, and
	// Phase is its argument.
	Global float64 `toml:"global"`
	Phase  float64 `toml:"phase"`
}

// Summarize computes summary statistics of psi. An empty psi gives a zero
// Summary.
func Summarize(psi []complex128) Summary {
	s := Summary{ N: len(psi) }
	if len(psi) == 0 { return s }

	abs := make([]float64, len(psi))
	sum := complex128(0)
	for i := range psi {
		abs[i] = cmplx.Abs(psi[i])
		sum += psi[i]
	}

	s.Mean, s.Std = stat.MeanStdDev(abs, nil)
	// The unbiased estimator is undefined for a single particle.
	if math.IsNaN(s.Std) { s.Std = 0 }
	s.Min, s.Max = floats.Min(abs), floats.Max(abs)

	sort.Float64s(abs)
	s.Median = stat.Quantile(0.5, stat.Empirical, abs, nil)

	mean := sum / complex(float64(len(psi)), 0)
	s.Global, s.Phase = cmplx.Abs(mean), cmplx.Phase(mean)

	return s
}
