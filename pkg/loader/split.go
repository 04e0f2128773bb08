package loader

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into train and test sets so that each class
// keeps its share of rows in both. The result is a pure function of (labels, testRatio, seed).
func StratifiedSplit(labels []int, testRatio float64, seed int64) (train, test []int, err error) {
	if len(labels) == 0 {
		return nil, nil, errors.New("loader: no rows to split")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, errors.New("loader: test ratio must be in (0, 1)")
	}

	for _, idx := range shuffledByClass(labels, seed) {
		nTest := int(math.Round(float64(len(idx)) * testRatio))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, errors.New("loader: split produced an empty partition")
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// StratifiedKFold deals each class's shuffled rows round-robin into k folds, so
// every fold keeps the class balance of labels and fold sizes differ by at most one.
func StratifiedKFold(labels []int, k int, seed int64) [][]int {
	folds := make([][]int, k)
	next := 0
	for _, idx := range shuffledByClass(labels, seed) {
		for _, i := range idx {
			folds[next%k] = append(folds[next%k], i)
			next++
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}

// shuffledByClass groups row indices by label, in ascending label order, and
// shuffles each group with one seeded source.
func shuffledByClass(labels []int, seed int64) [][]int {
	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rnd := rand.New(rand.NewSource(seed))
	out := make([][]int, len(classes))
	for j, c := range classes {
		idx := byClass[c]
		rnd.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		out[j] = idx
	}
	return out
}

// FoldTrain returns every index not in folds[holdout].
func FoldTrain(folds [][]int, holdout int) []int {
	var out []int
	for f, idx := range folds {
		if f != holdout {
			out = append(out, idx...)
		}
	}
	return out
}
