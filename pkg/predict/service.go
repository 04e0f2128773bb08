// Package predict serves purchase predictions and segment assignments from the
// persisted artifacts.
package predict

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/artifact"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/metrics"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/model"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/pipeline"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/segment"
)

var (
	// ErrNotReady means the transformer or model could not be loaded.
	ErrNotReady = errors.New("predict: artifacts not ready")
	// ErrNoSegmentation means no segmentation has been trained yet.
	ErrNoSegmentation = errors.New("predict: no segmentation yet")
	// ErrInvalidRecord means the request record failed validation.
	ErrInvalidRecord = errors.New("predict: invalid record")
)

// Label is the two-valued prediction.
type Label string

const (
	LabelPurchase   Label = "Will Purchase"
	LabelNoPurchase Label = "Will Not Purchase"
)

// LabelOf maps a 0/1 class to its Label.
func LabelOf(class int) Label {
	if class == 1 {
		return LabelPurchase
	}
	return LabelNoPurchase
}

// Assignment is a record's segment and the segment's strategy.
type Assignment struct {
	Segment  int             `json:"segment"`
	Strategy string          `json:"strategy"`
	Profile  segment.Profile `json:"profile"`
}

// bundle is one consistent set of loaded artifacts. It is never mutated after load.
type bundle struct {
	transformer *pipeline.Transformer
	model       model.Classifier
	family      string
	runID       string
	segmenter   *model.KMeans
	meta        *segment.Metadata
	loadedAt    time.Time
}

// Service answers inference calls against the most recently loaded artifacts.
// Calls are safe for concurrent use; Load swaps the whole bundle atomically, so an
// in-flight call always sees one consistent set.
type Service struct {
	store   *artifact.Store
	log     zerolog.Logger
	current atomic.Pointer[bundle]
}

// NewService returns a Service reading from store. Call Load before serving.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(store *artifact.Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Load reads every artifact and swaps them in. The transformer and model are
// required and must come from the same training run; segmentation artifacts are
// optional and ignored when they belong to another run. On failure the previous
// bundle, if any, keeps serving.
func (s *Service) Load() error {
	b, err := s.loadBundle()
	if err != nil {
		metrics.ArtifactReloads.WithLabelValues("error").Inc()
		return err
	}
	s.current.Store(b)
	metrics.ArtifactReloads.WithLabelValues("success").Inc()
	s.log.Info().
		Str("run_id", b.runID).
		Str("family", b.family).
		Int("features", b.transformer.Width()).
		Bool("segments", b.meta != nil).
		Msg("artifacts loaded")
	return nil
}

func (s *Service) loadBundle() (*bundle, error) {
	t, th, err := s.store.LoadTransformer()
	if err != nil {
		return nil, fmt.Errorf("%w: transformer: %w", ErrNotReady, err)
	}
	m, mh, err := s.store.LoadModel()
	if err != nil {
		return nil, fmt.Errorf("%w: model: %w", ErrNotReady, err)
	}
	if th.RunID != mh.RunID {
		return nil, fmt.Errorf("%w: transformer from run %q, model from run %q", ErrNotReady, th.RunID, mh.RunID)
	}
	if t.Width() != mh.Width {
		return nil, fmt.Errorf("%w: transformer emits %d features, model expects %d", ErrNotReady, t.Width(), mh.Width)
	}
	b := &bundle{transformer: t, model: m, family: mh.Family, runID: mh.RunID, loadedAt: time.Now()}

	km, kh, kmErr := s.store.LoadSegmenter()
	meta, metaErr := s.store.LoadMetadata()
	switch {
	case kmErr == nil && metaErr == nil:
		if kh.RunID != b.runID || meta.RunID != b.runID || kh.Width != t.Width() {
			s.log.Warn().
				Str("run_id", b.runID).
				Str("segmenter_run_id", kh.RunID).
				Str("metadata_run_id", meta.RunID).
				Msg("segmentation artifacts belong to another run, ignoring them")
			break
		}
		b.segmenter, b.meta = km, meta
	case errors.Is(kmErr, artifact.ErrNotFound) && errors.Is(metaErr, artifact.ErrNotFound):
		s.log.Info().Msg("no segmentation artifacts")
	default:
		s.log.Warn().AnErr("segmenter", kmErr).AnErr("metadata", metaErr).Msg("segmentation artifacts unusable")
	}
	return b, nil
}

// Ready reports whether a transformer and model are loaded.
func (s *Service) Ready() bool { return s.current.Load() != nil }

// Family is the loaded model's family name.
func (s *Service) Family() string {
	if b := s.current.Load(); b != nil {
		return b.family
	}
	return ""
}

// Predict validates one record and returns its label.
func (s *Service) Predict(rec *data.RawRecord) (Label, error) {
	start := time.Now()
	if err := rec.Validate(); err != nil {
		metrics.RecordPrediction("", "invalid", time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	labels, err := s.PredictFrame(rec.Frame())
	if err != nil {
		return "", err
	}
	metrics.RecordPrediction(string(labels[0]), "", time.Since(start))
	return labels[0], nil
}

// PredictFrame labels every row of a raw frame.
func (s *Service) PredictFrame(f *data.Frame) ([]Label, error) {
	b := s.current.Load()
	if b == nil {
		metrics.RecordPrediction("", "not_ready", 0)
		return nil, ErrNotReady
	}
	X, err := b.transformer.Apply(f)
	if err != nil {
		metrics.RecordPrediction("", "transform", 0)
		return nil, fmt.Errorf("predict: transform: %w", err)
	}
	classes := b.model.Predict(X)
	out := make([]Label, len(classes))
	for i, c := range classes {
		out[i] = LabelOf(c)
	}
	return out, nil
}

// AssignSegment places one record in the trained segmentation.
func (s *Service) AssignSegment(rec *data.RawRecord) (Assignment, error) {
	b := s.current.Load()
	if b == nil {
		return Assignment{}, ErrNotReady
	}
	if b.segmenter == nil || b.meta == nil {
		return Assignment{}, ErrNoSegmentation
	}
	if err := rec.Validate(); err != nil {
		return Assignment{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	X, err := b.transformer.Apply(rec.Frame())
	if err != nil {
		return Assignment{}, fmt.Errorf("predict: transform: %w", err)
	}
	seg, err := b.segmenter.Predict(X)
	if err != nil {
		return Assignment{}, fmt.Errorf("predict: segment: %w", err)
	}
	p, _ := b.meta.Profile(seg[0])
	return Assignment{Segment: seg[0], Strategy: p.Strategy, Profile: p}, nil
}

// Segments returns the loaded segmentation document, if any.
func (s *Service) Segments() (*segment.Metadata, bool) {
	b := s.current.Load()
	if b == nil || b.meta == nil {
		return nil, false
	}
	return b.meta, true
}
