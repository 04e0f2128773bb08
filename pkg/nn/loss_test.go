package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 1.0, Sigmoid(800), 1e-12)
	assert.InDelta(t, 0.0, Sigmoid(-800), 1e-12)
	assert.False(t, math.IsNaN(Sigmoid(-800)))
}

func TestBCEWithLogits(t *testing.T) {
	loss, grad := BCEWithLogits([]float64{1, 0}, []float64{0, 0})
	assert.InDelta(t, math.Ln2, loss, 1e-12)
	assert.InDeltaSlice(t, []float64{-0.25, 0.25}, grad, 1e-12)

	// confident and right is cheap, confident and wrong stays finite
	loss, _ = BCEWithLogits([]float64{1}, []float64{50})
	assert.Less(t, loss, 1e-12)
	loss, _ = BCEWithLogits([]float64{0}, []float64{1000})
	assert.InDelta(t, 1000, loss, 1e-9)

	loss, grad = BCEWithLogits(nil, nil)
	assert.Equal(t, 0.0, loss)
	assert.Nil(t, grad)
}
