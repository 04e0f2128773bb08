// Package selector picks one classifier among candidate families by grid search.
//
// Each grid point is scored by K-fold cross-validated F1 on the training split. The
// best grid point of each family is refit on the whole training split and scored by
// F1 on the test split; that test score is the family's score. The winner is the
// highest-scoring family, with the first-registered family winning ties.
package selector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/loader"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/metrics"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/model"
)

// ErrNoAcceptableModel means no family reached the acceptance floor on the test split.
var ErrNoAcceptableModel = errors.New("selector: no acceptable model")

// DefaultFloor is the minimum test F1 for a winner.
const DefaultFloor = 0.6

// Config controls the search.
type Config struct {
	Floor   float64
	Folds   int   // cross-validation folds, at least 2
	Workers int   // 0 means GOMAXPROCS
	Seed    int64 // fold assignment seed
}

// Score is one family's outcome.
type Score struct {
	Family    string       `json:"family"`
	Params    model.Params `json:"params,omitempty"`
	CVScore   float64      `json:"cv_f1"`
	TestScore float64      `json:"test_f1"`
	Err       error        `json:"-"`
}

// Result is the outcome of a selection. Scores follow candidate registration order.
type Result struct {
	Winner model.Classifier
	Best   Score
	Scores []Score
}

// Selector runs the search.
type Selector struct {
	cfg Config
	log zerolog.Logger
}

// New returns a Selector; zero Config fields take defaults.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, log zerolog.Logger) *Selector {
	if cfg.Folds < 2 {
		cfg.Folds = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Selector{cfg: cfg, log: log}
}

// Select searches every candidate and returns the winner. When no family clears the
// floor the error wraps ErrNoAcceptableModel and the returned Result still carries the
// per-family scores, with a nil Winner.
func (s *Selector) Select(ctx context.Context, Xtr [][]float64, ytr []int, Xte [][]float64, yte []int, candidates []model.Candidate) (*Result, error) {
	if len(candidates) == 0 {
		return nil, errors.New("selector: no candidates")
	}
	if len(Xtr) == 0 || len(Xte) == 0 {
		return nil, errors.New("selector: empty train or test split")
	}
	if len(Xtr) != len(ytr) || len(Xte) != len(yte) {
		return nil, errors.New("selector: features and labels differ in length")
	}
	if len(Xtr) < s.cfg.Folds {
		return nil, fmt.Errorf("selector: %d training rows for %d folds", len(Xtr), s.cfg.Folds)
	}

	cv, err := s.crossValidate(ctx, Xtr, ytr, candidates)
	if err != nil {
		return nil, err
	}

	// Best grid point per family; earlier grid points win ties.
	best := make([]int, len(candidates))
	scores := make([]Score, len(candidates))
	for c, cand := range candidates {
		best[c] = -1
		bestCV := math.Inf(-1)
		for g := range cand.Grid {
			if v := cv[c][g]; !math.IsNaN(v) && v > bestCV {
				best[c], bestCV = g, v
			}
		}
		scores[c] = Score{Family: cand.Name()}
		if best[c] < 0 {
			scores[c].Err = fmt.Errorf("selector: %s: every grid point failed", cand.Name())
			continue
		}
		scores[c].Params = cand.Grid[best[c]]
		scores[c].CVScore = bestCV
	}

	fitted := make([]model.Classifier, len(candidates))
	var jobs []func()
	for c, cand := range candidates {
		if best[c] < 0 {
			continue
		}
		jobs = append(jobs, func() {
			clf, err := cand.Estimator.Fit(Xtr, ytr, scores[c].Params)
			metrics.RecordGridFit(cand.Name(), err)
			if err != nil {
				scores[c].Err = fmt.Errorf("selector: refit %s: %w", cand.Name(), err)
				return
			}
			fitted[c] = clf
			scores[c].TestScore = model.F1(yte, clf.Predict(Xte))
		})
	}
	if err := s.run(ctx, jobs); err != nil {
		return nil, err
	}

	res := &Result{Scores: scores}
	win := -1
	for c, sc := range scores {
		if sc.Err != nil {
			s.log.Warn().Err(sc.Err).Str("family", sc.Family).Msg("candidate failed")
			continue
		}
		metrics.CandidateScore.WithLabelValues(sc.Family).Set(sc.TestScore)
		s.log.Info().
			Str("family", sc.Family).
			Str("params", sc.Params.Format()).
			Float64("cv_f1", sc.CVScore).
			Float64("test_f1", sc.TestScore).
			Msg("candidate scored")
		if win < 0 || sc.TestScore > scores[win].TestScore {
			win = c
		}
	}
	if win < 0 {
		return res, errors.New("selector: every candidate failed")
	}
	res.Best = scores[win]
	if res.Best.TestScore < s.cfg.Floor {
		return res, fmt.Errorf("%w: best %s scored %.4f, floor %.2f", ErrNoAcceptableModel, res.Best.Family, res.Best.TestScore, s.cfg.Floor)
	}
	res.Winner = fitted[win]
	s.log.Info().Str("family", res.Best.Family).Float64("test_f1", res.Best.TestScore).Msg("winner selected")
	return res, nil
}

// crossValidate returns the mean fold F1 for every (candidate, grid point); NaN
// marks a grid point whose fit failed on some fold.
func (s *Selector) crossValidate(ctx context.Context, X [][]float64, y []int, candidates []model.Candidate) ([][]float64, error) {
	folds := loader.StratifiedKFold(y, s.cfg.Folds, s.cfg.Seed)
	type foldData struct {
		Xtr, Xva [][]float64
		ytr, yva []int
	}
	data := make([]foldData, len(folds))
	for f := range folds {
		tr := loader.FoldTrain(folds, f)
		data[f] = foldData{Xtr: rows(X, tr), ytr: labels(y, tr), Xva: rows(X, folds[f]), yva: labels(y, folds[f])}
	}

	// perFold[c][g][f]
	perFold := make([][][]float64, len(candidates))
	var jobs []func()
	for c, cand := range candidates {
		perFold[c] = make([][]float64, len(cand.Grid))
		for g, params := range cand.Grid {
			perFold[c][g] = make([]float64, len(folds))
			for f := range folds {
				jobs = append(jobs, func() {
					d := data[f]
					clf, err := cand.Estimator.Fit(d.Xtr, d.ytr, params)
					metrics.RecordGridFit(cand.Name(), err)
					if err != nil {
						s.log.Debug().Err(err).Str("family", cand.Name()).Str("params", params.Format()).Msg("fold fit failed")
						perFold[c][g][f] = math.NaN()
						return
					}
					perFold[c][g][f] = model.F1(d.yva, clf.Predict(d.Xva))
				})
			}
		}
	}
	if err := s.run(ctx, jobs); err != nil {
		return nil, err
	}

	out := make([][]float64, len(candidates))
	for c := range candidates {
		out[c] = make([]float64, len(perFold[c]))
		for g, fs := range perFold[c] {
			sum := 0.0
			for _, v := range fs {
				sum += v
			}
			out[c][g] = sum / float64(len(fs))
			s.log.Debug().
				Str("family", candidates[c].Name()).
				Str("params", candidates[c].Grid[g].Format()).
				Float64("cv_f1", out[c][g]).
				Msg("grid point scored")
		}
	}
	return out, nil
}

// run executes jobs on a bounded pool. Jobs write to their own result slots, so the
// outcome does not depend on scheduling. Cancellation stops dispatching new jobs.
func (s *Selector) run(ctx context.Context, jobs []func()) error {
	queue := make(chan func())
	var wg sync.WaitGroup
	for w := 0; w < min(s.cfg.Workers, len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				job()
			}
		}()
	}

	var err error
dispatch:
	for _, job := range jobs {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case queue <- job:
		}
	}
	close(queue)
	wg.Wait()
	return err
}

func rows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

func labels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
