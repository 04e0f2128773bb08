package model

import (
	"errors"
	"math"
	"sort"
)

// Stump is a depth-one tree voting Left or Right (0/1) around a threshold.
type Stump struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
}

func (s Stump) predict(x []float64) int {
	if x[s.Feature] <= s.Threshold {
		return s.Left
	}
	return s.Right
}

// AdaBoost is a fitted SAMME ensemble of stumps.
type AdaBoost struct {
	Stumps []Stump
	Alphas []float64
}

// AdaBoostEstimator fits discrete AdaBoost (SAMME, two classes) over weighted stumps.
//
// Params: learning_rate (1.0), n_estimators (50).
type AdaBoostEstimator struct{}

func (AdaBoostEstimator) Name() string { return "AdaBoost" }

func (AdaBoostEstimator) Fit(X [][]float64, y []int, p Params) (Classifier, error) {
	if err := checkXY(X, y); err != nil {
		return nil, err
	}
	rounds := p.Int("n_estimators", 50)
	rate := p.Float("learning_rate", 1.0)
	if rounds < 1 || rate <= 0 {
		return nil, errors.New("adaboost: n_estimators and learning_rate must be positive")
	}

	n := len(X)
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	order := sortedByFeature(X)

	m := &AdaBoost{}
	for round := 0; round < rounds; round++ {
		stump, werr := fitStump(X, y, w, order)
		if werr >= 0.5 {
			// no better than chance; keep what we have, but always return one stump
			if len(m.Stumps) == 0 {
				m.Stumps = append(m.Stumps, stump)
				m.Alphas = append(m.Alphas, 1)
			}
			break
		}
		if werr <= 0 {
			m.Stumps = append(m.Stumps, stump)
			m.Alphas = append(m.Alphas, 1)
			break
		}
		alpha := rate * math.Log((1-werr)/werr)
		m.Stumps = append(m.Stumps, stump)
		m.Alphas = append(m.Alphas, alpha)

		total := 0.0
		for i := range w {
			if stump.predict(X[i]) != y[i] {
				w[i] *= math.Exp(alpha)
			}
			total += w[i]
		}
		for i := range w {
			w[i] /= total
		}
	}
	return m, nil
}

// Predict takes the weighted vote of the stumps; a tied vote predicts 0.
func (m *AdaBoost) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		score := 0.0
		for k, s := range m.Stumps {
			if s.predict(x) == 1 {
				score += m.Alphas[k]
			} else {
				score -= m.Alphas[k]
			}
		}
		if score > 0 {
			out[i] = 1
		}
	}
	return out
}

// sortedByFeature returns, per feature, the row indices in ascending value order.
func sortedByFeature(X [][]float64) [][]int {
	p := len(X[0])
	order := make([][]int, p)
	for f := 0; f < p; f++ {
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return X[idx[a]][f] < X[idx[b]][f] })
		order[f] = idx
	}
	return order
}

// fitStump finds the stump with the lowest weighted error. Each side votes its
// weighted majority class.
func fitStump(X [][]float64, y []int, w []float64, order [][]int) (Stump, float64) {
	var w0, w1 float64
	for i, v := range y {
		if v == 1 {
			w1 += w[i]
		} else {
			w0 += w[i]
		}
	}
	majority := 0
	if w1 > w0 {
		majority = 1
	}
	best := Stump{Feature: 0, Threshold: math.Inf(1), Left: majority, Right: majority}
	bestErr := math.Min(w0, w1)

	for f, idx := range order {
		var l0, l1 float64
		for s := 1; s < len(idx); s++ {
			prev := idx[s-1]
			if y[prev] == 1 {
				l1 += w[prev]
			} else {
				l0 += w[prev]
			}
			lo, hi := X[prev][f], X[idx[s]][f]
			if lo == hi {
				continue
			}
			r0, r1 := w0-l0, w1-l1
			left, right := 0, 0
			errL, errR := l1, r1
			if l1 > l0 {
				left, errL = 1, l0
			}
			if r1 > r0 {
				right, errR = 1, r0
			}
			if e := errL + errR; e < bestErr-1e-12 {
				bestErr = e
				best = Stump{Feature: f, Threshold: (lo + hi) / 2, Left: left, Right: right}
			}
		}
	}
	return best, math.Max(bestErr, 0)
}
