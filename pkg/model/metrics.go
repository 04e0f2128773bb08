package model

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Accuracy is the share of matching labels.
func Accuracy(yTrue []int, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// PrecisionRecallF1 scores binary predictions with 1 as the positive class.
func PrecisionRecallF1(yTrue []int, yPred []int) (prec, rec, f1 float64) {
	tp, fp, fn := 0, 0, 0
	for i := range yTrue {
		if yPred[i] == 1 && yTrue[i] == 1 {
			tp++
		}
		if yPred[i] == 1 && yTrue[i] == 0 {
			fp++
		}
		if yPred[i] == 0 && yTrue[i] == 1 {
			fn++
		}
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}

// F1 is the harmonic mean of precision and recall.
func F1(yTrue []int, yPred []int) float64 {
	_, _, f1 := PrecisionRecallF1(yTrue, yPred)
	return f1
}

// Silhouette returns the mean silhouette coefficient of a labelling. Points in
// singleton clusters score 0. Fewer than two clusters score 0.
func Silhouette(X [][]float64, labels []int) float64 {
	n := len(X)
	if n == 0 {
		return 0
	}
	k := 0
	for _, l := range labels {
		if l+1 > k {
			k = l + 1
		}
	}
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	nonEmpty := 0
	for _, s := range sizes {
		if s > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return 0
	}

	scores := make([]float64, n)
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
			sums := make([]float64, k)
			for i := start; i < end; i++ {
				own := labels[i]
				if sizes[own] < 2 {
					continue
				}
				for c := range sums {
					sums[c] = 0
				}
				for j := 0; j < n; j++ {
					if j != i {
						sums[labels[j]] += floats.Distance(X[i], X[j], 2)
					}
				}
				a := sums[own] / float64(sizes[own]-1)
				b := -1.0
				for c := 0; c < k; c++ {
					if c == own || sizes[c] == 0 {
						continue
					}
					if d := sums[c] / float64(sizes[c]); b < 0 || d < b {
						b = d
					}
				}
				if m := max(a, b); m > 0 {
					scores[i] = (b - a) / m
				}
			}
		}(start, end)
	}
	wg.Wait()

	return floats.Sum(scores) / float64(n)
}
