package training

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/artifact"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/config"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data/datatest"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/model"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/predict"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/selector"
)

// zeroEstimator never predicts a purchase, so its F1 is always 0.
type zeroEstimator struct{}

func (zeroEstimator) Name() string { return "Never" }

func (zeroEstimator) Fit([][]float64, []int, model.Params) (model.Classifier, error) {
	return zeroClassifier{}, nil
}

type zeroClassifier struct{}

func (zeroClassifier) Predict(X [][]float64) []int { return make([]int, len(X)) }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Artifacts.Dir = t.TempDir()
	cfg.Segmenter.Candidates = []int{3, 4}
	cfg.Segmenter.NInit = 2
	cfg.Segmenter.MaxIter = 50
	return cfg
}

func newTrainer(t *testing.T, cfg *config.Config) (*Trainer, *artifact.Store) {
	t.Helper()
	store, err := artifact.NewStore(cfg.Artifacts.Dir, cfg.Artifacts.Files)
	require.NoError(t, err)
	tr := NewTrainer(cfg, store, zerolog.Nop()).WithCandidates([]model.Candidate{
		{Estimator: zeroEstimator{}, Grid: []model.Params{{}}},
		{Estimator: model.LogisticEstimator{}, Grid: model.ParamGrid(map[string][]any{"C": {0.1, 1.0}})},
	})
	return tr, store
}

func TestRun_WritesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	tr, store := newTrainer(t, cfg)

	sum, err := tr.Run(context.Background(), datatest.Frame(300, 21))
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, "Logistic Regression", sum.Family)
	assert.GreaterOrEqual(t, sum.TestF1, selector.DefaultFloor)
	assert.Equal(t, 240, sum.TrainRows)
	assert.Equal(t, 60, sum.TestRows)
	assert.Positive(t, sum.Features)
	require.Len(t, sum.Scores, 2)
	assert.Equal(t, "Never", sum.Scores[0].Family)
	assert.Equal(t, 0.0, sum.Scores[0].TestScore)
	require.NotNil(t, sum.Segmentation)
	assert.Contains(t, []int{3, 4}, sum.Segmentation.ChosenCount)
	assert.Contains(t, sum.String(), "Logistic Regression")

	names := store.Names()
	for _, name := range []string{
		names.Transformer, names.Model, names.Segmenter, names.Metadata,
		names.SilhouettePlot, names.ScatterPlot,
	} {
		assert.FileExists(t, store.Path(name))
	}

	_, h, err := store.LoadModel()
	require.NoError(t, err)
	assert.Equal(t, "Logistic Regression", h.Family)
	assert.Equal(t, sum.RunID, h.RunID)
	assert.Equal(t, sum.Features, h.Width)
	tf, th, err := store.LoadTransformer()
	require.NoError(t, err)
	assert.Equal(t, sum.Features, tf.Width())
	assert.Equal(t, sum.RunID, th.RunID)
	_, kh, err := store.LoadSegmenter()
	require.NoError(t, err)
	assert.Equal(t, sum.RunID, kh.RunID)
	meta, err := store.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, sum.RunID, meta.RunID)
	assert.Equal(t, sum.Segmentation.ChosenCount, meta.ChosenCount)
	assert.Len(t, meta.Profiles, meta.ChosenCount)
}

func TestRun_PersistWritesTransformerLast(t *testing.T) {
	cfg := testConfig(t)
	cfg.Segmenter.Plots = false
	tr, store := newTrainer(t, cfg)

	first, err := tr.Run(context.Background(), datatest.Frame(200, 8))
	require.NoError(t, err)

	// a directory in place of the transformer makes its rename fail
	tfPath := store.Path(store.Names().Transformer)
	require.NoError(t, os.Remove(tfPath))
	require.NoError(t, os.MkdirAll(filepath.Join(tfPath, "block"), 0o750))

	_, err = tr.Run(context.Background(), datatest.Frame(200, 9))
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StagePersist, se.Stage)

	_, mh, err := store.LoadModel()
	require.NoError(t, err)
	assert.NotEmpty(t, mh.RunID)
	assert.NotEqual(t, first.RunID, mh.RunID)
	_, kh, err := store.LoadSegmenter()
	require.NoError(t, err)
	assert.Equal(t, mh.RunID, kh.RunID)

	svc := predict.NewService(store, zerolog.Nop())
	assert.ErrorIs(t, svc.Load(), predict.ErrNotReady)
	assert.False(t, svc.Ready())
}

func TestRunFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Segmenter.Plots = false
	tr, store := newTrainer(t, cfg)

	path := filepath.Join(t.TempDir(), "travel.csv")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, datatest.WriteCSV(file, datatest.Frame(200, 4)))
	require.NoError(t, file.Close())

	_, err = tr.RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.FileExists(t, store.Path(store.Names().Model))
	assert.NoFileExists(t, store.Path(store.Names().ScatterPlot))

	_, err = tr.RunFile(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageIngest, se.Stage)
}

func TestRun_MissingTarget(t *testing.T) {
	cfg := testConfig(t)
	tr, store := newTrainer(t, cfg)

	_, err := tr.Run(context.Background(), datatest.Frame(100, 1).Drop(data.ColProdTaken))
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageIngest, se.Stage)
	assert.ErrorIs(t, err, data.ErrMissingColumn)
	assert.False(t, IsModelQuality(err))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_NoAcceptableModel(t *testing.T) {
	cfg := testConfig(t)
	store, err := artifact.NewStore(cfg.Artifacts.Dir, cfg.Artifacts.Files)
	require.NoError(t, err)
	tr := NewTrainer(cfg, store, zerolog.Nop()).WithCandidates([]model.Candidate{
		{Estimator: zeroEstimator{}, Grid: []model.Params{{}}},
	})

	_, err = tr.Run(context.Background(), datatest.Frame(150, 2))
	require.Error(t, err)
	assert.True(t, IsModelQuality(err))
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageSelect, se.Stage)
	assert.Equal(t, "model_quality", outcome(err))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is persisted when selection fails")
}

func TestRun_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	tr, _ := newTrainer(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Run(ctx, datatest.Frame(100, 3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStageError(t *testing.T) {
	err := stageErr(StageSplit, errors.New("too few rows"))
	assert.Equal(t, "training: split: too few rows", err.Error())
	assert.Equal(t, "data_error", outcome(err))
	assert.Equal(t, "error", outcome(stageErr(StagePersist, errors.New("disk full"))))
}
