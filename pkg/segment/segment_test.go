package segment

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
)

// fourGroups returns a population with four well separated (income, trips) groups and
// the matrix clustered on, row-aligned.
func fourGroups(t *testing.T, perGroup int) ([][]float64, *data.Frame) {
	t.Helper()
	rnd := rand.New(rand.NewSource(5))
	groups := [][2]float64{{40000, 2}, {40000, 8}, {15000, 8}, {15000, 2}}

	var X [][]float64
	var income, trips, star, target []float64
	for g, c := range groups {
		for i := 0; i < perGroup; i++ {
			inc := c[0] + rnd.NormFloat64()*500
			tr := c[1] + rnd.NormFloat64()*0.2
			X = append(X, []float64{inc / 5000, tr})
			income = append(income, inc)
			trips = append(trips, tr)
			star = append(star, float64(3+g%3))
			target = append(target, float64(i%2))
		}
	}
	f, err := data.NewFrame(
		data.NewNumeric(data.ColMonthlyIncome, income),
		data.NewNumeric(data.ColNumberOfTrips, trips),
		data.NewNumeric(data.ColPreferredPropertyStar, star),
		data.NewCategorical(data.ColDesignation, make([]string, len(income))),
		data.NewNumeric(data.ColProdTaken, target),
	)
	require.NoError(t, err)
	return X, f
}

func TestFit_FindsFourSegments(t *testing.T) {
	X, pop := fourGroups(t, 40)
	seg := New(Config{Candidates: []int{6, 3, 4, 5}, NInit: 5, Seed: 42, Target: data.ColProdTaken}, zerolog.Nop())

	res, err := seg.Fit(context.Background(), X, pop)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Meta.ChosenCount)
	assert.Equal(t, 4, res.Model.K)
	assert.Greater(t, res.Meta.QualityScore, 0.8)
	require.Len(t, res.Meta.Candidates, 4)
	assert.Equal(t, []int{3, 4, 5, 6}, []int{
		res.Meta.Candidates[0].K, res.Meta.Candidates[1].K, res.Meta.Candidates[2].K, res.Meta.Candidates[3].K,
	})
	assert.Len(t, res.Labels, len(X))
	require.Len(t, res.Meta.Profiles, 4)

	strategies := map[string]int{}
	for id := 0; id < 4; id++ {
		p, ok := res.Meta.Profile(id)
		require.True(t, ok)
		assert.Equal(t, 40, p.Size)
		assert.NotContains(t, p.Means, data.ColProdTaken)
		assert.NotContains(t, p.Means, data.ColDesignation)
		assert.Equal(t, p.Means[data.ColMonthlyIncome], p.AverageIncome)
		strategies[p.Strategy]++

		switch {
		case p.AverageIncome > 30000:
			assert.Equal(t, StrategyPremium, p.Strategy)
		case p.AverageTrips > 5:
			assert.Equal(t, StrategyFrequent, p.Strategy)
		default:
			assert.Equal(t, StrategyEntryLevel, p.Strategy)
		}
	}
	assert.Equal(t, map[string]int{StrategyPremium: 2, StrategyFrequent: 1, StrategyEntryLevel: 1}, strategies)

	_, ok := res.Meta.Profile(4)
	assert.False(t, ok)
}

func TestFit_Deterministic(t *testing.T) {
	X, pop := fourGroups(t, 20)
	cfg := Config{Candidates: []int{3, 4}, NInit: 3, Seed: 7}
	a, err := New(cfg, zerolog.Nop()).Fit(context.Background(), X, pop)
	require.NoError(t, err)
	b, err := New(cfg, zerolog.Nop()).Fit(context.Background(), X, pop)
	require.NoError(t, err)
	assert.Equal(t, a.Meta, b.Meta)
	assert.Equal(t, a.Labels, b.Labels)
}

func TestFit_SkipsUnusableCounts(t *testing.T) {
	X, pop := fourGroups(t, 2)

	res, err := New(Config{Candidates: []int{1, 4, 8, 20}}, zerolog.Nop()).Fit(context.Background(), X, pop)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Meta.ChosenCount)
	require.Len(t, res.Meta.Candidates, 1)

	_, err = New(Config{Candidates: []int{1, 8}}, zerolog.Nop()).Fit(context.Background(), X, pop)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestFit_InputErrors(t *testing.T) {
	X, pop := fourGroups(t, 5)
	seg := New(Config{}, zerolog.Nop())

	_, err := seg.Fit(context.Background(), nil, pop)
	assert.ErrorIs(t, err, data.ErrEmptyDataset)

	_, err = seg.Fit(context.Background(), X[:3], pop)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = seg.Fit(ctx, X, pop)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBestCandidate(t *testing.T) {
	tests := []struct {
		name   string
		scores []CandidateScore
		wantK  int
	}{
		{"clear winner", []CandidateScore{{K: 3, Silhouette: 0.4}, {K: 4, Silhouette: 0.7}, {K: 5, Silhouette: 0.5}}, 4},
		{"tie goes to smaller k", []CandidateScore{{K: 3, Silhouette: 0.6}, {K: 5, Silhouette: 0.6}}, 3},
		{"tie in descending order", []CandidateScore{{K: 6, Silhouette: 0.6}, {K: 4, Silhouette: 0.6}, {K: 3, Silhouette: 0.2}}, 4},
		{"three-way tie unsorted", []CandidateScore{{K: 5, Silhouette: 0.5}, {K: 3, Silhouette: 0.5}, {K: 4, Silhouette: 0.5}}, 3},
		{"NaN never wins", []CandidateScore{{K: 3, Silhouette: math.NaN()}, {K: 4, Silhouette: -0.1}}, 4},
		{"negative scores", []CandidateScore{{K: 4, Silhouette: -0.3}, {K: 3, Silhouette: -0.2}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := bestCandidate(tt.scores)
			require.GreaterOrEqual(t, i, 0)
			assert.Equal(t, tt.wantK, tt.scores[i].K)
		})
	}

	assert.Equal(t, -1, bestCandidate(nil))
	assert.Equal(t, -1, bestCandidate([]CandidateScore{{K: 3, Silhouette: math.NaN()}}))
}

func TestStrategy(t *testing.T) {
	tests := []struct {
		name          string
		income, trips float64
		want          string
	}{
		{"rich and frequent", 30000, 5, StrategyPremium},
		{"income at median", 20000, 1, StrategyPremium},
		{"frequent", 19999, 3, StrategyFrequent},
		{"neither", 10000, 2, StrategyEntryLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strategy(tt.income, tt.trips, 20000, 3))
		})
	}
}
