package model

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs returns n rows of two well separated 2-D classes, labelled by which side of
// x0 + x1 = 0 they were drawn on.
func blobs(n int, seed int64) ([][]float64, []int) {
	rnd := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		c := 1.0
		if i%3 == 0 {
			c = -1
		} else {
			y[i] = 1
		}
		X[i] = []float64{2*c + rnd.NormFloat64()*0.5, 2*c + rnd.NormFloat64()*0.5}
	}
	return X, y
}

func TestParams(t *testing.T) {
	p := Params{"C": 1, "lr": 0.5, "solver": "sgd", "seed": int64(7)}
	assert.Equal(t, 1.0, p.Float("C", 0))
	assert.Equal(t, 0, p.Int("missing", 0))
	assert.Equal(t, 0.5, p.Float("lr", 0))
	assert.Equal(t, "sgd", p.String("solver", "lbfgs"))
	assert.Equal(t, "lbfgs", p.String("C", "lbfgs"))
	assert.Equal(t, int64(7), p.Int64("seed", 0))
	assert.Equal(t, "C=1 lr=0.5 seed=7 solver=sgd", p.Format())

	q := p.With("C", 10.0)
	assert.Equal(t, 10.0, q.Float("C", 0))
	assert.Equal(t, 1, p["C"], "With must copy")
}

func TestParamGrid_Order(t *testing.T) {
	grid := ParamGrid(map[string][]any{
		"solver": {"lbfgs", "sgd"},
		"C":      {0.1, 1.0},
		"empty":  {},
	})
	require.Len(t, grid, 4)
	assert.Equal(t, Params{"C": 0.1, "solver": "lbfgs"}, grid[0])
	assert.Equal(t, Params{"C": 0.1, "solver": "sgd"}, grid[1])
	assert.Equal(t, Params{"C": 1.0, "solver": "lbfgs"}, grid[2])
	assert.Equal(t, Params{"C": 1.0, "solver": "sgd"}, grid[3])

	assert.Equal(t, []Params{{}}, ParamGrid(nil))
}

func TestMetrics(t *testing.T) {
	yTrue := []int{1, 1, 0, 0, 1}
	yPred := []int{1, 0, 0, 1, 1}
	prec, rec, f1 := PrecisionRecallF1(yTrue, yPred)
	assert.InDelta(t, 2.0/3, prec, 1e-12)
	assert.InDelta(t, 2.0/3, rec, 1e-12)
	assert.InDelta(t, 2.0/3, f1, 1e-12)
	assert.InDelta(t, 0.6, Accuracy(yTrue, yPred), 1e-12)

	assert.Equal(t, 0.0, F1([]int{0, 0}, []int{0, 0}), "no positives scores zero")
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestSilhouette(t *testing.T) {
	X := [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}}
	assert.InDelta(t, 1.0, Silhouette(X, []int{0, 0, 1, 1}), 0.1)
	assert.Less(t, Silhouette(X, []int{0, 1, 0, 1}), 0.0)
	assert.Equal(t, 0.0, Silhouette(X, []int{0, 0, 0, 0}))
	assert.Equal(t, 0.0, Silhouette(nil, nil))
}

func TestKMeans(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	centers := [][]float64{{0, 0}, {20, 0}, {0, 20}}
	var X [][]float64
	for i := 0; i < 150; i++ {
		c := centers[i%3]
		X = append(X, []float64{c[0] + rnd.NormFloat64(), c[1] + rnd.NormFloat64()})
	}

	km := NewKMeans(3, 100, 5, 42)
	require.NoError(t, km.Fit(X))
	require.Len(t, km.Centroids, 3)

	labels, err := km.Predict(X)
	require.NoError(t, err)
	for i := 3; i < len(X); i++ {
		assert.Equal(t, labels[i%3], labels[i], "row %d left its blob", i)
	}
	assert.NotEqual(t, labels[0], labels[1])
	assert.NotEqual(t, labels[1], labels[2])
	assert.NotEqual(t, labels[0], labels[2])

	again := NewKMeans(3, 100, 5, 42)
	require.NoError(t, again.Fit(X))
	assert.Equal(t, km.Centroids, again.Centroids)
	assert.Equal(t, km.Inertia, again.Inertia)

	assert.Error(t, NewKMeans(5, 10, 1, 1).Fit(X[:3]))
	_, err = NewKMeans(3, 10, 1, 1).Predict(X)
	assert.Error(t, err)
	_, err = km.Predict([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestPCA(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	X := make([][]float64, 200)
	for i := range X {
		s := rnd.NormFloat64() * 5
		X[i] = []float64{s + rnd.NormFloat64()*0.01, 2*s + rnd.NormFloat64()*0.01, rnd.NormFloat64() * 0.01}
	}
	pca := NewPCA(2, 200, 42)
	require.NoError(t, pca.Fit(X))

	c := pca.Components[0]
	if c[0] < 0 {
		c = []float64{-c[0], -c[1], -c[2]}
	}
	assert.InDelta(t, 1/2.2360679775, c[0], 1e-3)
	assert.InDelta(t, 2/2.2360679775, c[1], 1e-3)
	assert.Greater(t, pca.Explained[0], pca.Explained[1])

	Y, err := pca.Transform(X)
	require.NoError(t, err)
	require.Len(t, Y, len(X))
	assert.Len(t, Y[0], 2)

	assert.Error(t, NewPCA(4, 10, 1).Fit(X))
	_, err = NewPCA(1, 10, 1).Transform(X)
	assert.Error(t, err)
}

func TestDefaultCandidates(t *testing.T) {
	cands, err := DefaultCandidates(DefaultFamilies, 9)
	require.NoError(t, err)
	require.Len(t, cands, len(DefaultFamilies))

	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Name()
		for _, p := range c.Grid {
			assert.Equal(t, int64(9), p.Int64("seed", 0))
		}
	}
	assert.Equal(t, []string{
		"Logistic Regression", "Decision Tree", "Random Forest",
		"Gradient Boosting", "Newton Boosting", "AdaBoost",
	}, names)
	assert.Len(t, cands[0].Grid, 6)
	assert.Len(t, cands[3].Grid, 12)

	_, err = DefaultCandidates([]string{"svm"}, 1)
	assert.Error(t, err)
}

func TestEstimators_LearnSeparableData(t *testing.T) {
	Xtr, ytr := blobs(240, 1)
	Xte, yte := blobs(90, 2)

	tests := []struct {
		est    Estimator
		params Params
	}{
		{LogisticEstimator{}, Params{"solver": "lbfgs"}},
		{LogisticEstimator{}, Params{"solver": "sgd", "seed": int64(3)}},
		{DecisionTreeEstimator{}, Params{"criterion": "entropy"}},
		{RandomForestEstimator{}, Params{"n_estimators": 25, "seed": int64(3)}},
		{GradientBoostingEstimator{}, Params{"n_estimators": 30}},
		{NewtonBoostingEstimator{}, Params{"n_estimators": 30}},
		{AdaBoostEstimator{}, Params{"n_estimators": 20, "learning_rate": 0.5}},
		{KNNEstimator{}, Params{"n_neighbors": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.est.Name()+" "+tt.params.Format(), func(t *testing.T) {
			clf, err := tt.est.Fit(Xtr, ytr, tt.params)
			require.NoError(t, err)
			pred := clf.Predict(Xte)
			require.Len(t, pred, len(Xte))
			assert.GreaterOrEqual(t, F1(yte, pred), 0.95)

			if pc, ok := clf.(ProbaClassifier); ok {
				for _, p := range pc.PredictProba(Xte) {
					assert.True(t, p >= 0 && p <= 1, "probability %v out of range", p)
				}
			}
		})
	}
}

func TestEstimators_RejectBadInput(t *testing.T) {
	X, y := blobs(10, 1)
	ests := []Estimator{
		LogisticEstimator{}, DecisionTreeEstimator{}, RandomForestEstimator{},
		GradientBoostingEstimator{}, NewtonBoostingEstimator{}, AdaBoostEstimator{}, KNNEstimator{},
	}
	for _, est := range ests {
		_, err := est.Fit(nil, nil, Params{})
		assert.Error(t, err, est.Name())
		_, err = est.Fit(X, y[:5], Params{})
		assert.Error(t, err, est.Name())
	}

	_, err := LogisticEstimator{}.Fit(X, y, Params{"solver": "newton"})
	assert.Error(t, err)
	_, err = DecisionTreeEstimator{}.Fit(X, y, Params{"criterion": "chi2"})
	assert.Error(t, err)
}

func TestEstimators_Deterministic(t *testing.T) {
	X, y := blobs(120, 5)
	p := Params{"n_estimators": 15, "seed": int64(11)}
	a, err := RandomForestEstimator{}.Fit(X, y, p)
	require.NoError(t, err)
	b, err := RandomForestEstimator{}.Fit(X, y, p)
	require.NoError(t, err)
	assert.Equal(t, a.(ProbaClassifier).PredictProba(X), b.(ProbaClassifier).PredictProba(X))
}

func TestKNN_Votes(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {10}}
	y := []int{0, 0, 1, 1}

	clf, err := KNNEstimator{}.Fit(X, y, Params{"n_neighbors": 3})
	require.NoError(t, err)
	knn := clf.(*KNN)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 2.0 / 3}, knn.PredictProba([][]float64{{0.4}, {9}}), 1e-12)
	assert.Equal(t, []int{0, 1}, knn.Predict([][]float64{{0.4}, {9}}))

	// the nearest point dominates once votes are weighted by distance
	clf, err = KNNEstimator{}.Fit(X, y, Params{"n_neighbors": 3, "weights": "distance"})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, clf.Predict([][]float64{{2.1}}))

	clf, err = KNNEstimator{}.Fit(X, y, Params{"n_neighbors": 50})
	require.NoError(t, err)
	assert.Equal(t, 4, clf.(*KNN).K)

	_, err = KNNEstimator{}.Fit(X, y, Params{"weights": "gaussian"})
	assert.Error(t, err)
	_, err = KNNEstimator{}.Fit(X, y, Params{"n_neighbors": 0})
	assert.Error(t, err)
}

func TestDecisionTree_MaxDepth(t *testing.T) {
	X, y := blobs(120, 5)
	clf, err := DecisionTreeEstimator{}.Fit(X, y, Params{"max_depth": 1})
	require.NoError(t, err)
	assert.LessOrEqual(t, clf.(*DecisionTree).Depth(), 1)
}

type envelope struct {
	Model Classifier
}

func TestClassifiers_GobRoundTrip(t *testing.T) {
	X, y := blobs(90, 4)
	ests := []struct {
		est Estimator
		p   Params
	}{
		{LogisticEstimator{}, Params{}},
		{DecisionTreeEstimator{}, Params{}},
		{RandomForestEstimator{}, Params{"n_estimators": 5}},
		{GradientBoostingEstimator{}, Params{"n_estimators": 5}},
		{NewtonBoostingEstimator{}, Params{"n_estimators": 5}},
		{AdaBoostEstimator{}, Params{"n_estimators": 5}},
		{KNNEstimator{}, Params{}},
	}
	for _, e := range ests {
		t.Run(e.est.Name(), func(t *testing.T) {
			clf, err := e.est.Fit(X, y, e.p)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, gob.NewEncoder(&buf).Encode(envelope{Model: clf}))
			var got envelope
			require.NoError(t, gob.NewDecoder(&buf).Decode(&got))
			assert.Equal(t, clf.Predict(X), got.Model.Predict(X))
		})
	}
}
