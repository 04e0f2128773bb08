package dataprep

import (
	"math"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/stats"
)

// MedianImputer fills missing numeric values with the median seen at fit time.
type MedianImputer struct {
	Median float64
}

// FitMedian captures the median of the non-missing values.
func FitMedian(col []float64) MedianImputer {
	return MedianImputer{Median: stats.NaNMedian(col)}
}

// Value returns v, or the fitted median if v is missing.
func (m MedianImputer) Value(v float64) float64 {
	if math.IsNaN(v) {
		return m.Median
	}
	return v
}

// Transform returns an imputed copy of col.
func (m MedianImputer) Transform(col []float64) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = m.Value(v)
	}
	return out
}

// ModeImputer fills missing categorical values with the most frequent value seen at fit time.
type ModeImputer struct {
	Mode string
}

// FitMode captures the most frequent non-missing category.
func FitMode(col []string) ModeImputer {
	return ModeImputer{Mode: stats.ModeString(col)}
}

// Value returns v, or the fitted mode if v is missing.
func (m ModeImputer) Value(v string) string {
	if v == "" {
		return m.Mode
	}
	return v
}

// Transform returns an imputed copy of col.
func (m ModeImputer) Transform(col []string) []string {
	out := make([]string, len(col))
	for i, v := range col {
		out[i] = m.Value(v)
	}
	return out
}
