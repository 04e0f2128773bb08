package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// KMeans partitions data points into K clusters. Fit runs NInit seeded k-means++
// restarts and keeps the one with the lowest inertia.
type KMeans struct {
	K         int
	MaxIter   int
	NInit     int
	Seed      int64
	Centroids [][]float64
	Inertia   float64 // within-cluster sum of squares
}

func NewKMeans(k, maxIter, nInit int, seed int64) *KMeans {
	if nInit < 1 {
		nInit = 1
	}
	return &KMeans{K: k, MaxIter: maxIter, NInit: nInit, Seed: seed}
}

func (m *KMeans) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("kmeans: empty X")
	}
	if m.K < 1 {
		return errors.New("kmeans: K must be positive")
	}
	if len(X) < m.K {
		return fmt.Errorf("kmeans: %d rows for K=%d", len(X), m.K)
	}

	rnd := rand.New(rand.NewSource(m.Seed))
	bestInertia := math.Inf(1)
	var best [][]float64
	for run := 0; run < m.NInit; run++ {
		centroids, inertia := m.lloyd(X, rnd)
		if inertia < bestInertia {
			bestInertia, best = inertia, centroids
		}
	}
	m.Centroids = best
	m.Inertia = bestInertia
	return nil
}

// lloyd runs one k-means++ initialisation followed by Lloyd iterations.
func (m *KMeans) lloyd(X [][]float64, rnd *rand.Rand) ([][]float64, float64) {
	n, p := len(X), len(X[0])
	centroids := initCenters(X, m.K, rnd)

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (n + workers - 1) / workers
	changedBy := make([]bool, workers)

	for it := 0; it < m.MaxIter; it++ {
		// Assignment step, chunked across workers.
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			start := w * rowsPerWorker
			end := min(start+rowsPerWorker, n)
			changedBy[w] = false
			if start >= end {
				continue
			}
			wg.Add(1)
			go func(w, start, end int) {
				defer wg.Done()
				for i := start; i < end; i++ {
					best, _ := nearest(X[i], centroids)
					if assign[i] != best {
						changedBy[w] = true
					}
					assign[i] = best
				}
			}(w, start, end)
		}
		wg.Wait()

		changed := false
		for _, c := range changedBy {
			changed = changed || c
		}
		if !changed {
			break
		}

		// Update step: centroids become the mean of their members.
		sums := make([][]float64, m.K)
		counts := make([]int, m.K)
		for k := range sums {
			sums[k] = make([]float64, p)
		}
		for i := 0; i < n; i++ {
			k := assign[i]
			counts[k]++
			for j := 0; j < p; j++ {
				sums[k][j] += X[i][j]
			}
		}
		for k := 0; k < m.K; k++ {
			if counts[k] == 0 {
				continue // Keep the previous centroid for an empty cluster
			}
			for j := 0; j < p; j++ {
				centroids[k][j] = sums[k][j] / float64(counts[k])
			}
		}
	}

	inertia := 0.0
	for i := 0; i < n; i++ {
		_, d := nearest(X[i], centroids)
		inertia += d
	}
	return centroids, inertia
}

// Predict returns the index of the nearest centroid for each row.
func (m *KMeans) Predict(X [][]float64) ([]int, error) {
	switch {
	case len(m.Centroids) == 0:
		return nil, errors.New("kmeans: not fitted")
	case len(X) == 0:
		return nil, errors.New("kmeans: empty X")
	case len(X[0]) != len(m.Centroids[0]):
		return nil, fmt.Errorf("kmeans: got %d features, centroids have %d", len(X[0]), len(m.Centroids[0]))
	}
	out := make([]int, len(X))
	parallelRows(len(X), func(i int) { out[i], _ = nearest(X[i], m.Centroids) })
	return out, nil
}

// nearest returns the index of the closest centroid and its squared distance.
// Ties go to the lower index.
func nearest(x []float64, centroids [][]float64) (int, float64) {
	best, bestdSquared := 0, math.MaxFloat64
	for k, c := range centroids {
		if d := euclidSquared(x, c); d < bestdSquared {
			bestdSquared = d
			best = k
		}
	}
	return best, bestdSquared
}

// initCenters picks k-means++ starting centroids.
func initCenters(X [][]float64, k int, rnd *rand.Rand) [][]float64 {
	n := len(X)
	centroids := make([][]float64, 0, k)

	centroids = append(centroids, append([]float64{}, X[rnd.Intn(n)]...))

	distSq := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, x := range X {
			_, d2 := nearest(x, centroids)
			distSq[i] = d2
			total += d2
		}

		pick := n - 1
		if total == 0 {
			// every point coincides with a centroid; fall back to a uniform draw
			pick = rnd.Intn(n)
		} else {
			r := rnd.Float64() * total
			cumulative := 0.0
			for i, d2 := range distSq {
				cumulative += d2
				if cumulative >= r {
					pick = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64{}, X[pick]...))
	}
	return centroids
}
