package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/segment"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestSilhouetteChart(t *testing.T) {
	meta := &segment.Metadata{
		ChosenCount:  4,
		QualityScore: 0.41,
		Candidates: []segment.CandidateScore{
			{K: 3, Silhouette: 0.35}, {K: 4, Silhouette: 0.41}, {K: 5, Silhouette: 0.3},
		},
	}
	png, err := SilhouetteChart(meta)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = SilhouetteChart(&segment.Metadata{})
	assert.Error(t, err)
}

func TestSegmentScatter(t *testing.T) {
	X := [][]float64{{0, 0, 1}, {0.1, 0, 1}, {5, 5, 0}, {5.1, 5, 0}, {9, 0, 3}, {9, 0.2, 3}}
	labels := []int{0, 0, 1, 1, 2, 2}
	centroids := [][]float64{{0.05, 0, 1}, {5.05, 5, 0}, {9, 0.1, 3}, {1, 1, 1}}

	png, err := SegmentScatter(X, labels, centroids, 42)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = SegmentScatter(X, labels[:2], centroids, 42)
	assert.Error(t, err)
}
