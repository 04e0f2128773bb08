package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean computes the average of a slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// PopStd computes the population (biased) standard deviation, the convention used by
// standard scaling.
func PopStd(x []float64) float64 {
	n := len(x)
	if n < 2 {
		return 0
	}
	_, variance := stat.MeanVariance(x, nil)
	return math.Sqrt(variance * float64(n-1) / float64(n))
}

// Median returns the median value of the slice (allocates a copy).
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	mid := n >> 1 // bitwise division by 2
	if n&1 == 0 { // even
		return (cp[mid-1] + cp[mid]) * 0.5
	}
	return cp[mid]
}

// NaNMedian is Median over the non-NaN values.
func NaNMedian(x []float64) float64 {
	return Median(dropNaN(x))
}

// NaNMean is Mean over the non-NaN values.
func NaNMean(x []float64) float64 {
	return Mean(dropNaN(x))
}

// ModeString returns the most frequent non-empty string. Ties go to the
// lexicographically smallest value so the result does not depend on input order.
func ModeString(x []string) string {
	counts := make(map[string]int)
	for _, v := range x {
		if v != "" {
			counts[v]++
		}
	}
	mode, best := "", 0
	for v, c := range counts {
		if c > best || (c == best && v < mode) {
			mode, best = v, c
		}
	}
	return mode
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
