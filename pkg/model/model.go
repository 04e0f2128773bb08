package model

import (
	"fmt"
	"sort"
	"strings"
)

// Classifier is a fitted binary classifier over a dense feature matrix.
type Classifier interface {
	Predict(X [][]float64) []int
}

// ProbaClassifier optionally exposes p(y=1).
type ProbaClassifier interface {
	Classifier
	PredictProba(X [][]float64) []float64
}

// Estimator is one classifier family. Fit trains a new Classifier from the given
// hyperparameters and never mutates the estimator, so one Estimator can fit many
// grid points concurrently.
type Estimator interface {
	Name() string
	Fit(X [][]float64, y []int, p Params) (Classifier, error)
}

// Clusterer is for unsupervised clustering.
type Clusterer interface {
	Fit(X [][]float64) error
	Predict(X [][]float64) ([]int, error)
}

// Params is one hyperparameter assignment.
type Params map[string]any

// Float reads a numeric parameter, falling back to def.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Int reads an integer parameter, falling back to def.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// String reads a string parameter, falling back to def.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Int64 reads a seed-like parameter, falling back to def.
func (p Params) Int64(key string, def int64) int64 {
	switch v := p[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return def
}

// With returns a copy of p with key set to v.
func (p Params) With(key string, v any) Params {
	out := make(Params, len(p)+1)
	for k, val := range p {
		out[k] = val
	}
	out[key] = v
	return out
}

// Format renders p with sorted keys, e.g. "C=1 solver=lbfgs".
func (p Params) Format() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, " ")
}

// ParamGrid expands a map of candidate values into the cartesian product. Keys are
// iterated in sorted order and values in the given order, so the expansion order is
// stable: the last key varies fastest.
func ParamGrid(space map[string][]any) []Params {
	keys := make([]string, 0, len(space))
	for k := range space {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grid := []Params{{}}
	for _, k := range keys {
		values := space[k]
		if len(values) == 0 {
			continue
		}
		next := make([]Params, 0, len(grid)*len(values))
		for _, g := range grid {
			for _, v := range values {
				next = append(next, g.With(k, v))
			}
		}
		grid = next
	}
	return grid
}
