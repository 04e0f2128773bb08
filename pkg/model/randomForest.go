package model

import (
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// RandomForest is a fitted bag of decision trees combined by averaging p(y=1).
type RandomForest struct {
	Trees []*DecisionTree
}

// RandomForestEstimator fits random forests.
//
// Params:
//   - n_estimators (default 100)
//   - min_samples_split, min_samples_leaf, max_depth, criterion: as for DecisionTreeEstimator
//   - max_features: default floor(sqrt(p))
//   - bootstrap: default true
//   - seed: base seed; tree i uses seed+i
type RandomForestEstimator struct{}

func (RandomForestEstimator) Name() string { return "Random Forest" }

// Fit trains the trees on a bounded worker pool. Each tree owns its rand source, so
// the forest is the same regardless of scheduling.
func (RandomForestEstimator) Fit(X [][]float64, y []int, p Params) (Classifier, error) {
	if err := checkXY(X, y); err != nil {
		return nil, err
	}
	nTrees := p.Int("n_estimators", 100)
	if nTrees < 1 {
		return nil, errors.New("randomforest: n_estimators must be positive")
	}
	cfg, err := treeConfigFrom(p, max(1, int(math.Sqrt(float64(len(X[0]))))))
	if err != nil {
		return nil, err
	}
	bootstrap := true
	if b, ok := p["bootstrap"].(bool); ok {
		bootstrap = b
	}
	seed := p.Int64("seed", 42)
	n := len(X)

	rf := &RandomForest{Trees: make([]*DecisionTree, nTrees)}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(runtime.GOMAXPROCS(0), nTrees); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				treeRand := rand.New(rand.NewSource(seed + int64(idx)))

				// Bootstrap sampling: an index slice, not a copy of the data.
				sampleIndices := make([]int, n)
				for j := range sampleIndices {
					if bootstrap {
						sampleIndices[j] = treeRand.Intn(n)
					} else {
						sampleIndices[j] = j
					}
				}
				rf.Trees[idx] = fitTree(X, y, sampleIndices, cfg, treeRand)
			}
		}()
	}
	for i := 0; i < nTrees; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return rf, nil
}

// PredictProba averages the trees' leaf probabilities.
func (rf *RandomForest) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for _, t := range rf.Trees {
		for i, p := range t.PredictProba(X) {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.Trees))
	}
	return out
}

// Predict returns the soft-vote label of all trees.
func (rf *RandomForest) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, p := range rf.PredictProba(X) {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}
