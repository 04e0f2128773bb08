package model

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/nn"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/optim"
)

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	W []float64 // weights
	B float64   // bias
}

// LogisticEstimator fits L2-regularised logistic regression.
//
// Params:
//   - C: inverse regularisation strength (default 1.0)
//   - solver: "lbfgs" (full-batch quasi-Newton) or "sgd" (mini-batch gradient descent)
//   - max_iter: iterations for lbfgs, epochs for sgd (default 1000 / 200)
//   - lr, batch_size: sgd only (default 0.1, 64)
//   - seed: sgd shuffling seed
type LogisticEstimator struct{}

func (LogisticEstimator) Name() string { return "Logistic Regression" }

func (LogisticEstimator) Fit(X [][]float64, y []int, p Params) (Classifier, error) {
	if len(X) == 0 {
		return nil, errors.New("logistic: empty X")
	}
	if len(y) != len(X) {
		return nil, errors.New("logistic: X and y length mismatch")
	}
	c := p.Float("C", 1.0)
	if c <= 0 {
		return nil, errors.New("logistic: C must be positive")
	}
	yf := make([]float64, len(y))
	for i, v := range y {
		yf[i] = float64(v)
	}

	switch solver := p.String("solver", "lbfgs"); solver {
	case "lbfgs":
		return fitLBFGS(X, yf, c, p.Int("max_iter", 1000))
	case "sgd":
		return fitSGD(X, yf, c, p.Int("max_iter", 200), p.Float("lr", 0.1), p.Int("batch_size", 64), p.Int64("seed", 42))
	default:
		return nil, fmt.Errorf("logistic: unknown solver %q", solver)
	}
}

// objective is mean cross-entropy plus ||w||^2 / (2 C n); theta = [w..., b].
func logisticObjective(X [][]float64, y []float64, c float64) optimize.Problem {
	n := float64(len(X))
	d := len(X[0])
	model := &LogisticRegression{W: make([]float64, d)}
	return optimize.Problem{
		Func: func(theta []float64) float64 {
			copy(model.W, theta[:d])
			model.B = theta[d]
			loss, _ := nn.BCEWithLogits(y, model.Logits(X))
			return loss + floats.Dot(model.W, model.W)/(2*c*n)
		},
		Grad: func(grad, theta []float64) {
			copy(model.W, theta[:d])
			model.B = theta[d]
			_, dz := nn.BCEWithLogits(y, model.Logits(X))
			for j := range grad {
				grad[j] = 0
			}
			for i, row := range X {
				floats.AddScaled(grad[:d], dz[i], row)
				grad[d] += dz[i]
			}
			floats.AddScaled(grad[:d], 1/(c*n), theta[:d])
		},
	}
}

func fitLBFGS(X [][]float64, y []float64, c float64, maxIter int) (*LogisticRegression, error) {
	d := len(X[0])
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-6,
	}
	result, err := optimize.Minimize(logisticObjective(X, y, c), make([]float64, d+1), settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("logistic: lbfgs: %w", err)
	}
	// Hitting the iteration limit still leaves a usable solution in result.X.
	w := make([]float64, d)
	copy(w, result.X[:d])
	return &LogisticRegression{W: w, B: result.X[d]}, nil
}

func fitSGD(X [][]float64, y []float64, c float64, epochs int, lr float64, batchSize int, seed int64) (*LogisticRegression, error) {
	if batchSize < 1 {
		return nil, errors.New("logistic: batch_size must be positive")
	}
	n, d := len(X), len(X[0])
	m := &LogisticRegression{W: make([]float64, d)}
	rnd := rand.New(rand.NewSource(seed))
	// Initialize weights with small random values to break symmetry.
	for i := range m.W {
		m.W[i] = rnd.NormFloat64() * 0.01
	}

	opt := optim.NewSGD(lr, 1/(c*float64(n)))
	order := rnd.Perm(n)
	gW := make([]float64, d)
	for ep := 0; ep < epochs; ep++ {
		rnd.Shuffle(n, func(a, b int) { order[a], order[b] = order[b], order[a] })
		for start := 0; start < n; start += batchSize {
			batch := order[start:min(start+batchSize, n)]
			bx := make([][]float64, len(batch))
			by := make([]float64, len(batch))
			for k, i := range batch {
				bx[k], by[k] = X[i], y[i]
			}

			_, dz := nn.BCEWithLogits(by, m.Logits(bx))
			gb := 0.0
			for j := range gW {
				gW[j] = 0
			}
			for k, row := range bx {
				floats.AddScaled(gW, dz[k], row)
				gb += dz[k]
			}
			opt.Step(m.W, gW)
			opt.StepBias(&m.B, gb)
		}
	}
	return m, nil
}

// Logits returns w.x + b for each row.
func (m *LogisticRegression) Logits(X [][]float64) []float64 {
	out := make([]float64, len(X))
	parallelRows(len(X), func(i int) { out[i] = floats.Dot(m.W, X[i]) + m.B })
	return out
}

// PredictProba returns p(y=1) for each row.
func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	z := m.Logits(X)
	for i, v := range z {
		z[i] = nn.Sigmoid(v)
	}
	return z
}

// Predict returns 0/1 labels at a 0.5 probability threshold.
func (m *LogisticRegression) Predict(X [][]float64) []int {
	proba := m.PredictProba(X)
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}
