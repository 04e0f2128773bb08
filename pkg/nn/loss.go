package nn

import "math"

// BCEWithLogits is the mean binary cross-entropy of sigmoid(z) against y, computed
// from the logits so that large |z| never takes log(0). The gradient is taken with
// respect to each logit: (sigmoid(z) - y) / n.
func BCEWithLogits(yTrue, logits []float64) (float64, []float64) {
	n := len(yTrue)
	if n == 0 {
		return 0, nil
	}
	s := 0.0
	grad := make([]float64, n)
	for i, z := range logits {
		y := yTrue[i]
		s += math.Max(z, 0) - z*y + math.Log1p(math.Exp(-math.Abs(z)))
		grad[i] = (Sigmoid(z) - y) / float64(n)
	}
	return s / float64(n), grad
}
