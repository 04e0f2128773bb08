package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// ---------------------------
// Types
// ---------------------------

// TreeNode is one node of a fitted binary classification tree.
// Rows with x[Feature] <= Threshold go left.
type TreeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	N         int     // training rows that reached the node
	Proba     float64 // share of positive rows at the node
}

// DecisionTree is a fitted CART classifier.
type DecisionTree struct {
	Root *TreeNode
}

// DecisionTreeEstimator fits CART trees.
//
// Params:
//   - criterion: "gini" (default), "entropy" or "log_loss" (same as entropy)
//   - max_depth: 0 means unlimited
//   - min_samples_split (default 2), min_samples_leaf (default 1)
//   - max_features: features sampled per split, 0 means all
//   - seed: feature sampling seed
type DecisionTreeEstimator struct{}

func (DecisionTreeEstimator) Name() string { return "Decision Tree" }

func (DecisionTreeEstimator) Fit(X [][]float64, y []int, p Params) (Classifier, error) {
	cfg, err := treeConfigFrom(p, 0)
	if err != nil {
		return nil, err
	}
	if err := checkXY(X, y); err != nil {
		return nil, err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return fitTree(X, y, idx, cfg, rand.New(rand.NewSource(p.Int64("seed", 42)))), nil
}

// treeConfig holds tree growth limits.
type treeConfig struct {
	maxDepth    int
	minSplit    int
	minLeaf     int
	maxFeatures int
	impurity    func(pos, total float64) float64
}

func treeConfigFrom(p Params, defaultMaxFeatures int) (treeConfig, error) {
	cfg := treeConfig{
		maxDepth:    p.Int("max_depth", 0),
		minSplit:    p.Int("min_samples_split", 2),
		minLeaf:     p.Int("min_samples_leaf", 1),
		maxFeatures: p.Int("max_features", defaultMaxFeatures),
	}
	switch c := p.String("criterion", "gini"); c {
	case "gini":
		cfg.impurity = gini
	case "entropy", "log_loss":
		cfg.impurity = entropy
	default:
		return cfg, fmt.Errorf("dtree: unknown criterion %q", c)
	}
	if cfg.minSplit < 2 {
		cfg.minSplit = 2
	}
	if cfg.minLeaf < 1 {
		cfg.minLeaf = 1
	}
	return cfg, nil
}

func checkXY(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("model: empty X")
	}
	if len(y) != len(X) {
		return errors.New("model: X and y length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("model: ragged X")
		}
	}
	return nil
}

// ---------------------------
// Public API: Predict / PredictProba
// ---------------------------

// PredictProba returns p(y=1) per row.
func (t *DecisionTree) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = t.Root.leaf(X[i]).Proba
	}
	return out
}

// Predict returns 0/1 labels; an even split predicts 0.
func (t *DecisionTree) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, p := range t.PredictProba(X) {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}

// Depth returns the depth of the deepest leaf (root depth = 0).
func (t *DecisionTree) Depth() int { return t.Root.depth() }

func (n *TreeNode) leaf(x []float64) *TreeNode {
	node := n
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

func (n *TreeNode) depth() int {
	if n == nil || n.Leaf {
		return 0
	}
	return 1 + max(n.Left.depth(), n.Right.depth())
}

// ---------------------------
// Builder
// ---------------------------

// fitTree grows a tree on the rows in idx (duplicates allowed, for bootstrap samples).
func fitTree(X [][]float64, y []int, idx []int, cfg treeConfig, rnd *rand.Rand) *DecisionTree {
	b := &treeBuilder{X: X, y: y, cfg: cfg, rnd: rnd, p: len(X[0])}
	return &DecisionTree{Root: b.build(idx, 0)}
}

type treeBuilder struct {
	X   [][]float64
	y   []int
	cfg treeConfig
	rnd *rand.Rand
	p   int
}

// splitResult holds the best split found for one feature.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
}

func (b *treeBuilder) build(idx []int, depth int) *TreeNode {
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}
	node := &TreeNode{N: len(idx), Proba: float64(pos) / float64(len(idx))}

	// make leaf if pure or too few samples or depth reached
	if pos == 0 || pos == len(idx) || len(idx) < b.cfg.minSplit || len(idx) < 2*b.cfg.minLeaf ||
		(b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) {
		node.Leaf = true
		return node
	}

	// determine features to try
	featIndices := make([]int, b.p)
	for j := range featIndices {
		featIndices[j] = j
	}
	if b.cfg.maxFeatures > 0 && b.cfg.maxFeatures < b.p {
		b.rnd.Shuffle(b.p, func(i, j int) { featIndices[i], featIndices[j] = featIndices[j], featIndices[i] })
		featIndices = featIndices[:b.cfg.maxFeatures]
		sort.Ints(featIndices)
	}

	parent := b.cfg.impurity(float64(pos), float64(len(idx)))
	results := make([]splitResult, len(featIndices))
	var wg sync.WaitGroup
	for k, f := range featIndices {
		wg.Add(1)
		go func(k, f int) {
			defer wg.Done()
			results[k] = b.bestSplit(idx, f, pos, parent)
		}(k, f)
	}
	wg.Wait()

	// Lowest feature index wins ties, so the tree does not depend on goroutine timing.
	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature < 0 || best.gain <= 1e-12 {
		node.Leaf = true
		return node
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.X[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)
	return node
}

// bestSplit scans sorted values of feature f once, moving rows from right to left.
func (b *treeBuilder) bestSplit(idx []int, f, pos int, parent float64) splitResult {
	result := splitResult{feature: -1}
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

	n := float64(len(sorted))
	leftPos := 0
	for s := 1; s < len(sorted); s++ {
		leftPos += b.y[sorted[s-1]]
		lo, hi := b.X[sorted[s-1]][f], b.X[sorted[s]][f]
		if lo == hi {
			continue
		}
		if s < b.cfg.minLeaf || len(sorted)-s < b.cfg.minLeaf {
			continue
		}
		nl, nr := float64(s), n-float64(s)
		weighted := nl/n*b.cfg.impurity(float64(leftPos), nl) + nr/n*b.cfg.impurity(float64(pos-leftPos), nr)
		if gain := parent - weighted; gain > result.gain {
			result = splitResult{gain: gain, feature: f, threshold: (lo + hi) / 2.0}
		}
	}
	return result
}

// ---------------------------
// Utilities: impurity
// ---------------------------

func gini(pos, total float64) float64 {
	if total == 0 {
		return 0
	}
	p := pos / total
	return 2 * p * (1 - p)
}

func entropy(pos, total float64) float64 {
	if total == 0 {
		return 0
	}
	res := 0.0
	for _, p := range []float64{pos / total, 1 - pos/total} {
		if p > 0 {
			res -= p * math.Log2(p)
		}
	}
	return res
}
