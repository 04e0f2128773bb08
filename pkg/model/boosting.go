package model

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/nn"
)

// RegNode is a node of a regression tree fitted to log-loss gradients.
type RegNode struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      *RegNode
	Right     *RegNode
	Value     float64
}

func (n *RegNode) eval(x []float64) float64 {
	node := n
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// BoostedTrees is an additive model of regression trees on the log-odds scale:
// p(y=1) = sigmoid(Init + Rate * sum(tree(x))).
type BoostedTrees struct {
	Init  float64
	Rate  float64
	Trees []*RegNode
}

// Margin returns the raw log-odds score per row.
func (m *BoostedTrees) Margin(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		s := m.Init
		for _, t := range m.Trees {
			s += m.Rate * t.eval(x)
		}
		out[i] = s
	}
	return out
}

func (m *BoostedTrees) PredictProba(X [][]float64) []float64 {
	out := m.Margin(X)
	for i, s := range out {
		out[i] = nn.Sigmoid(s)
	}
	return out
}

func (m *BoostedTrees) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, s := range m.Margin(X) {
		if s > 0 {
			out[i] = 1
		}
	}
	return out
}

// GradientBoostingEstimator is Friedman gradient boosting for log-loss: each tree is
// grown on the residuals y-p by squared error, and its leaves take one Newton step.
//
// Params: learning_rate (0.1), n_estimators (100), max_depth (3), min_samples_split (2),
// min_samples_leaf (1).
type GradientBoostingEstimator struct{}

func (GradientBoostingEstimator) Name() string { return "Gradient Boosting" }

func (GradientBoostingEstimator) Fit(X [][]float64, y []int, p Params) (Classifier, error) {
	if err := checkXY(X, y); err != nil {
		return nil, err
	}
	pos := 0
	for _, v := range y {
		pos += v
	}
	// Start from the prior log-odds, clipped so a one-class sample stays finite.
	prior := math.Min(math.Max(float64(pos)/float64(len(y)), 1e-6), 1-1e-6)
	cfg := boostConfig{
		rounds:    p.Int("n_estimators", 100),
		rate:      p.Float("learning_rate", 0.1),
		init:      math.Log(prior / (1 - prior)),
		unitSplit: true,
		tree: regTreeConfig{
			maxDepth: p.Int("max_depth", 3),
			minSplit: max(2, p.Int("min_samples_split", 2)),
			minLeaf:  max(1, p.Int("min_samples_leaf", 1)),
		},
	}
	return boost(X, y, cfg)
}

// NewtonBoostingEstimator is second-order boosting in the style of XGBoost: splits
// maximise the regularised gain G^2/(H+lambda) and leaves are -G/(H+lambda).
//
// Params: learning_rate (0.3), n_estimators (100), max_depth (6), lambda (1),
// gamma (0), min_child_weight (1).
type NewtonBoostingEstimator struct{}

func (NewtonBoostingEstimator) Name() string { return "Newton Boosting" }

func (NewtonBoostingEstimator) Fit(X [][]float64, y []int, p Params) (Classifier, error) {
	if err := checkXY(X, y); err != nil {
		return nil, err
	}
	cfg := boostConfig{
		rounds: p.Int("n_estimators", 100),
		rate:   p.Float("learning_rate", 0.3),
		tree: regTreeConfig{
			maxDepth:       p.Int("max_depth", 6),
			minSplit:       2,
			minLeaf:        1,
			lambda:         p.Float("lambda", 1),
			gamma:          p.Float("gamma", 0),
			minChildWeight: p.Float("min_child_weight", 1),
		},
	}
	return boost(X, y, cfg)
}

type boostConfig struct {
	rounds int
	rate   float64
	init   float64
	// unitSplit scores splits with unit hessians (squared error on residuals).
	unitSplit bool
	tree      regTreeConfig
}

func boost(X [][]float64, y []int, cfg boostConfig) (*BoostedTrees, error) {
	if cfg.rounds < 1 {
		return nil, errors.New("boosting: n_estimators must be positive")
	}
	if cfg.rate <= 0 {
		return nil, errors.New("boosting: learning_rate must be positive")
	}
	n := len(X)
	m := &BoostedTrees{Init: cfg.init, Rate: cfg.rate, Trees: make([]*RegNode, 0, cfg.rounds)}

	margin := make([]float64, n)
	for i := range margin {
		margin[i] = cfg.init
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	for round := 0; round < cfg.rounds; round++ {
		for i := range margin {
			p := nn.Sigmoid(margin[i])
			grad[i] = p - float64(y[i])
			hess[i] = math.Max(p*(1-p), 1e-16)
		}
		b := &regTreeBuilder{X: X, grad: grad, hess: hess, splitHess: hess, cfg: cfg.tree, p: len(X[0])}
		if cfg.unitSplit {
			b.splitHess = ones
		}
		tree := b.build(idx, 0)
		m.Trees = append(m.Trees, tree)
		for i := range margin {
			margin[i] += cfg.rate * tree.eval(X[i])
		}
	}
	return m, nil
}

// ---------------------------
// Regression tree over (gradient, hessian)
// ---------------------------

type regTreeConfig struct {
	maxDepth       int
	minSplit       int
	minLeaf        int
	lambda         float64
	gamma          float64
	minChildWeight float64
}

type regTreeBuilder struct {
	X         [][]float64
	grad      []float64
	hess      []float64 // leaf values
	splitHess []float64 // split scoring
	cfg       regTreeConfig
	p         int
}

func (b *regTreeBuilder) score(g, h float64) float64 {
	if h+b.cfg.lambda <= 0 {
		return 0
	}
	return g * g / (h + b.cfg.lambda)
}

func (b *regTreeBuilder) build(idx []int, depth int) *RegNode {
	var g, h, sh float64
	for _, i := range idx {
		g += b.grad[i]
		h += b.hess[i]
		sh += b.splitHess[i]
	}
	node := &RegNode{Leaf: true}
	if h+b.cfg.lambda > 1e-150 {
		node.Value = -g / (h + b.cfg.lambda)
	}
	if len(idx) < b.cfg.minSplit || (b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) {
		return node
	}

	parent := b.score(g, sh)
	results := make([]splitResult, b.p)
	var wg sync.WaitGroup
	for f := 0; f < b.p; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			results[f] = b.bestSplit(idx, f, g, h, sh, parent)
		}(f)
	}
	wg.Wait()

	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature < 0 || best.gain <= b.cfg.gamma+1e-12 {
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
	return &RegNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

func (b *regTreeBuilder) bestSplit(idx []int, f int, g, h, sh, parent float64) splitResult {
	result := splitResult{feature: -1}
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

	var gl, shl, hl float64
	for s := 1; s < len(sorted); s++ {
		prev := sorted[s-1]
		gl += b.grad[prev]
		shl += b.splitHess[prev]
		hl += b.hess[prev]
		lo, hi := b.X[prev][f], b.X[sorted[s]][f]
		if lo == hi || s < b.cfg.minLeaf || len(sorted)-s < b.cfg.minLeaf {
			continue
		}
		if b.cfg.minChildWeight > 0 && (hl < b.cfg.minChildWeight || h-hl < b.cfg.minChildWeight) {
			continue
		}
		gain := b.score(gl, shl) + b.score(g-gl, sh-shl) - parent
		if gain > result.gain {
			result = splitResult{gain: gain, feature: f, threshold: (lo + hi) / 2}
		}
	}
	return result
}
