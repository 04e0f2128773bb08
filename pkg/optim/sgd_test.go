package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSGD_Step(t *testing.T) {
	w := []float64{1, -2}
	NewSGD(0.5, 0).Step(w, []float64{2, -2})
	assert.Equal(t, []float64{0, -1}, w)

	w = []float64{1, -2}
	NewSGD(0.5, 1).Step(w, []float64{0, 0})
	assert.Equal(t, []float64{0.5, -1}, w, "decay shrinks toward zero")

	b := 1.0
	NewSGD(0.1, 10).StepBias(&b, 5)
	assert.InDelta(t, 0.5, b, 1e-12)
}
