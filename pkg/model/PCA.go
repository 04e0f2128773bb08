package model

import (
	"errors"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// PCA finds the top-K principal components by power iteration with deflation.
// It is used to project segment features to 2-D for plotting.
type PCA struct {
	K          int
	MaxIters   int
	Seed       int64
	Means      []float64
	Components [][]float64 // K x p, each a unit vector
	Explained  []float64   // approx eigenvalues
}

// NewPCA creates and returns a new PCA model.
func NewPCA(k, maxIters int, seed int64) *PCA {
	return &PCA{K: k, MaxIters: maxIters, Seed: seed}
}

// Fit computes the top K components of X.
func (pca *PCA) Fit(X [][]float64) error {
	if len(X) < 2 {
		return errors.New("pca: need at least two rows")
	}
	n, d := len(X), len(X[0])
	if pca.K < 1 || pca.K > d {
		return errors.New("pca: K must be between 1 and the number of features")
	}

	pca.Means = make([]float64, d)
	for _, row := range X {
		floats.Add(pca.Means, row)
	}
	floats.Scale(1/float64(n), pca.Means)
	Z := pca.center(X)

	rnd := rand.New(rand.NewSource(pca.Seed))
	pca.Components = make([][]float64, 0, pca.K)
	pca.Explained = make([]float64, 0, pca.K)
	Zv := make([]float64, n)

	for comp := 0; comp < pca.K; comp++ {
		v := make([]float64, d)
		for j := range v {
			v[j] = rnd.Float64()
		}
		normalize(v)

		for t := 0; t < pca.MaxIters; t++ {
			// w = Z^T (Z v)
			parallelRows(n, func(i int) { Zv[i] = floats.Dot(Z[i], v) })
			w := make([]float64, d)
			for i := range Z {
				floats.AddScaled(w, Zv[i], Z[i])
			}
			if floats.Norm(w, 2) == 0 {
				break
			}
			normalize(w)
			v = w
		}

		lam := 0.0
		for i := range Z {
			s := floats.Dot(Z[i], v)
			lam += s * s
		}
		pca.Explained = append(pca.Explained, lam/float64(n-1))
		pca.Components = append(pca.Components, v)

		// Deflate: Z = Z - (Z v) v^T
		parallelRows(n, func(i int) { floats.AddScaled(Z[i], -floats.Dot(Z[i], v), v) })
	}
	return nil
}

// Transform projects X onto the fitted components.
func (pca *PCA) Transform(X [][]float64) ([][]float64, error) {
	if len(pca.Components) == 0 {
		return nil, errors.New("pca: model not fitted")
	}
	if len(X) == 0 {
		return nil, errors.New("pca: input data cannot be empty")
	}
	if len(X[0]) != len(pca.Means) {
		return nil, errors.New("pca: feature count mismatch between input and training data")
	}
	Z := pca.center(X)
	out := make([][]float64, len(X))
	parallelRows(len(X), func(i int) {
		t := make([]float64, len(pca.Components))
		for k, c := range pca.Components {
			t[k] = floats.Dot(Z[i], c)
		}
		out[i] = t
	})
	return out, nil
}

func (pca *PCA) center(X [][]float64) [][]float64 {
	Z := make([][]float64, len(X))
	for i, row := range X {
		Z[i] = make([]float64, len(row))
		floats.SubTo(Z[i], row, pca.Means)
	}
	return Z
}

// parallelRows runs fn(i) for i in [0, n) over GOMAXPROCS contiguous chunks.
func parallelRows(n int, fn func(i int)) {
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// normalize scales v to unit length in place.
func normalize(v []float64) {
	if norm := floats.Norm(v, 2); norm > 0 {
		floats.Scale(1/norm, v)
	}
}
