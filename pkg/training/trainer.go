// Package training runs the full pipeline: ingestion, split, transformer fit, model
// selection, segmentation and persistence. Any failing stage aborts the run before
// anything is written.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/artifact"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/config"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/dataprep"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/loader"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/metrics"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/model"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/pipeline"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/report"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/segment"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/selector"
)

// Summary reports a finished run.
type Summary struct {
	RunID        string            `json:"run_id"`
	Family       string            `json:"family"`
	Params       model.Params      `json:"params"`
	TestF1       float64           `json:"test_f1"`
	Scores       []selector.Score  `json:"scores"`
	Segmentation *segment.Metadata `json:"segmentation"`
	TrainRows    int               `json:"train_rows"`
	TestRows     int               `json:"test_rows"`
	Features     int               `json:"features"`
	Duration     time.Duration     `json:"duration_ns"`
}

// Trainer runs training with one configuration.
type Trainer struct {
	cfg   *config.Config
	store *artifact.Store
	log   zerolog.Logger

	// candidates overrides the configured families; tests use it for small grids.
	candidates []model.Candidate
}

// NewTrainer returns a Trainer writing to store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTrainer(cfg *config.Config, store *artifact.Store, log zerolog.Logger) *Trainer {
	return &Trainer{cfg: cfg, store: store, log: log}
}

// WithCandidates replaces the configured candidate families.
func (t *Trainer) WithCandidates(c []model.Candidate) *Trainer {
	t.candidates = c
	return t
}

// RunFile ingests a CSV file and trains on it.
func (t *Trainer) RunFile(ctx context.Context, path string) (*Summary, error) {
	f, err := data.LoadCSV(path, data.LoadOptions{DropColumns: t.cfg.Data.DropColumns})
	if err != nil {
		metrics.TrainingRuns.WithLabelValues("data_error").Inc()
		return nil, stageErr(StageIngest, err)
	}
	return t.Run(ctx, f)
}

// Run trains on an in-memory dataset and persists the artifacts.
func (t *Trainer) Run(ctx context.Context, f *data.Frame) (*Summary, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := t.log.With().Str("run_id", runID).Logger()
	log.Info().Int("rows", f.Len()).Int("columns", len(f.Columns())).Msg("training started")

	sum, err := t.run(ctx, log, runID, f)
	if err != nil {
		metrics.TrainingRuns.WithLabelValues(outcome(err)).Inc()
		log.Error().Err(err).Msg("training failed")
		return nil, err
	}
	sum.RunID = runID
	sum.Duration = time.Since(start)
	metrics.TrainingRuns.WithLabelValues("success").Inc()
	log.Info().
		Str("family", sum.Family).
		Float64("test_f1", sum.TestF1).
		Int("segments", sum.Segmentation.ChosenCount).
		Dur("duration", sum.Duration).
		Msg("training finished")
	return sum, nil
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (t *Trainer) run(ctx context.Context, log zerolog.Logger, runID string, f *data.Frame) (*Summary, error) {
	target := t.cfg.Data.Target

	// ingest
	var labels []int
	if err := timed(StageIngest, func() error {
		if f.Len() == 0 {
			return data.ErrEmptyDataset
		}
		var err error
		labels, err = f.Labels(target)
		return err
	}); err != nil {
		return nil, err
	}

	// split
	var trainFrame, testFrame *data.Frame
	var ytr, yte []int
	if err := timed(StageSplit, func() error {
		trIdx, teIdx, err := loader.StratifiedSplit(labels, t.cfg.Data.TestRatio, t.cfg.Data.Seed)
		if err != nil {
			return err
		}
		trainFrame, testFrame = f.Take(trIdx), f.Take(teIdx)
		ytr, yte = pick(labels, trIdx), pick(labels, teIdx)
		log.Info().Int("train", len(trIdx)).Int("test", len(teIdx)).Msg("split done")
		return nil
	}); err != nil {
		return nil, err
	}

	// transform
	var tf *pipeline.Transformer
	var Xtr, Xte [][]float64
	if err := timed(StageTransform, func() error {
		var err error
		tf, err = pipeline.Fit(trainFrame, pipeline.Options{Target: target, DropFirst: t.cfg.Transform.DropFirst})
		if err != nil {
			return err
		}
		if Xtr, err = tf.Apply(trainFrame); err != nil {
			return err
		}
		if Xte, err = tf.Apply(testFrame); err != nil {
			return err
		}
		log.Info().Int("width", tf.Width()).Strs("numeric", tf.Schema.Numeric).Strs("categorical", tf.Schema.Categorical).Msg("transformer fitted")
		return nil
	}); err != nil {
		return nil, err
	}

	// select
	var res *selector.Result
	if err := timed(StageSelect, func() error {
		candidates := t.candidates
		if candidates == nil {
			var err error
			if candidates, err = model.DefaultCandidates(t.cfg.Selector.Families, t.cfg.Selector.Seed); err != nil {
				return err
			}
		}
		sel := selector.New(selector.Config{
			Floor:   t.cfg.Selector.AcceptanceFloor,
			Folds:   t.cfg.Selector.CVFolds,
			Workers: t.cfg.Selector.Workers,
			Seed:    t.cfg.Selector.Seed,
		}, log.With().Str("component", "selector").Logger())
		var err error
		res, err = sel.Select(ctx, Xtr, ytr, Xte, yte, candidates)
		return err
	}); err != nil {
		return nil, err
	}

	// segment
	var seg *segment.Result
	var population [][]float64
	if err := timed(StageSegment, func() error {
		all, err := data.Concat(trainFrame, testFrame)
		if err != nil {
			return err
		}
		all = dataprep.Engineer(all)
		if population, err = tf.Apply(all); err != nil {
			return err
		}
		seg, err = segment.New(segment.Config{
			Candidates: t.cfg.Segmenter.Candidates,
			NInit:      t.cfg.Segmenter.NInit,
			MaxIter:    t.cfg.Segmenter.MaxIter,
			Seed:       t.cfg.Segmenter.Seed,
			Target:     target,
		}, log.With().Str("component", "segmenter").Logger()).Fit(ctx, population, all)
		return err
	}); err != nil {
		return nil, err
	}

	// persist: every artifact carries runID, and the transformer goes last so a
	// partial write never pairs the newest transformer with an older model.
	seg.Meta.RunID = runID
	if err := timed(StagePersist, func() error {
		if err := t.store.SaveModel(runID, res.Best.Family, tf.Width(), res.Winner); err != nil {
			return err
		}
		if err := t.store.SaveSegmenter(runID, seg.Model); err != nil {
			return err
		}
		if err := t.store.SaveMetadata(&seg.Meta); err != nil {
			return err
		}
		if err := t.store.SaveTransformer(runID, tf); err != nil {
			return err
		}
		log.Info().Str("dir", t.store.Dir()).Msg("artifacts written")
		return nil
	}); err != nil {
		return nil, err
	}

	if t.cfg.Segmenter.Plots {
		t.writePlots(log, seg, population)
	}

	return &Summary{
		Family:       res.Best.Family,
		Params:       res.Best.Params,
		TestF1:       res.Best.TestScore,
		Scores:       res.Scores,
		Segmentation: &seg.Meta,
		TrainRows:    len(Xtr),
		TestRows:     len(Xte),
		Features:     tf.Width(),
	}, nil
}

// writePlots renders the segmentation charts. Charts are informational, so a failure
// is logged and the run still succeeds.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (t *Trainer) writePlots(log zerolog.Logger, seg *segment.Result, X [][]float64) {
	names := t.store.Names()
	if png, err := report.SilhouetteChart(&seg.Meta); err != nil {
		log.Warn().Err(err).Msg("silhouette chart skipped")
	} else if err := t.store.WriteFile(names.SilhouettePlot, png); err != nil {
		log.Warn().Err(err).Msg("silhouette chart not written")
	}
	if png, err := report.SegmentScatter(X, seg.Labels, seg.Model.Centroids, t.cfg.Segmenter.Seed); err != nil {
		log.Warn().Err(err).Msg("segment scatter skipped")
	} else if err := t.store.WriteFile(names.ScatterPlot, png); err != nil {
		log.Warn().Err(err).Msg("segment scatter not written")
	}
}

func timed(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(string(stage), time.Since(start))
	if err != nil {
		return stageErr(stage, err)
	}
	return nil
}

func outcome(err error) string {
	var se *StageError
	switch {
	case IsModelQuality(err):
		return "model_quality"
	case errors.As(err, &se) && (se.Stage == StageIngest || se.Stage == StageSplit):
		return "data_error"
	default:
		return "error"
	}
}

func pick(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

// String renders a one-line summary.
func (s *Summary) String() string {
	return fmt.Sprintf("run %s: %s (test F1 %.4f), %d segments (silhouette %.4f)",
		s.RunID, s.Family, s.TestF1, s.Segmentation.ChosenCount, s.Segmentation.QualityScore)
}
