package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// KNN is a fitted k-nearest-neighbours classifier. It keeps the training rows.
type KNN struct {
	K        int
	Weighted bool // votes weighted by inverse distance
	X        [][]float64
	Y        []int
}

// KNNEstimator fits KNN.
//
// Params: n_neighbors (default 5), weights "uniform" or "distance".
type KNNEstimator struct{}

func (KNNEstimator) Name() string { return "K-Neighbors" }

func (KNNEstimator) Fit(X [][]float64, y []int, p Params) (Classifier, error) {
	if err := checkXY(X, y); err != nil {
		return nil, err
	}
	k := p.Int("n_neighbors", 5)
	if k < 1 {
		return nil, errors.New("knn: n_neighbors must be positive")
	}
	m := &KNN{K: min(k, len(X)), X: X, Y: y}
	switch w := p.String("weights", "uniform"); w {
	case "uniform":
	case "distance":
		m.Weighted = true
	default:
		return nil, fmt.Errorf("knn: unknown weights %q", w)
	}
	return m, nil
}

// PredictProba returns the (weighted) share of positive neighbours per row.
func (m *KNN) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	parallelRows(len(X), func(i int) { out[i] = m.vote(X[i]) })
	return out
}

func (m *KNN) Predict(X [][]float64) []int {
	proba := m.PredictProba(X)
	out := make([]int, len(X))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}

type neighbour struct {
	dist  float64 // squared
	label int
}

func (m *KNN) vote(x []float64) float64 {
	nearest := make([]neighbour, 0, m.K+1)
	for j, row := range m.X {
		d := euclidSquared(x, row)
		if len(nearest) == m.K && d >= nearest[m.K-1].dist {
			continue
		}
		at := sort.Search(len(nearest), func(i int) bool { return nearest[i].dist > d })
		nearest = append(nearest, neighbour{})
		copy(nearest[at+1:], nearest[at:])
		nearest[at] = neighbour{dist: d, label: m.Y[j]}
		if len(nearest) > m.K {
			nearest = nearest[:m.K]
		}
	}

	pos, total := 0.0, 0.0
	for _, nb := range nearest {
		w := 1.0
		if m.Weighted {
			w = 1 / (math.Sqrt(nb.dist) + 1e-12)
		}
		total += w
		if nb.label == 1 {
			pos += w
		}
	}
	if total == 0 {
		return 0
	}
	return pos / total
}

func euclidSquared(a, b []float64) float64 {
	s := 0.0
	for i, v := range a {
		d := v - b[i]
		s += d * d
	}
	return s
}
