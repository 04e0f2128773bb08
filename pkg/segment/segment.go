// Package segment clusters the customer population and labels each cluster with a
// marketing strategy.
package segment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/metrics"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/model"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/stats"
)

// ErrNoCandidates is returned when no candidate k can be fitted.
var ErrNoCandidates = errors.New("segment: no usable candidate segment count")

// DefaultCandidates are the segment counts tried when none are configured.
var DefaultCandidates = []int{3, 4, 5, 6}

// Strategy texts, by priority.
const (
	StrategyPremium    = "Premium bundle offer (Deluxe/King), loyalty perks, concierge call"
	StrategyFrequent   = "Frequent-traveler discount, upsell to higher star property"
	StrategyEntryLevel = "Entry-level Basic/Standard with limited-time discount via email/SMS"
)

// Config controls the search over k.
type Config struct {
	Candidates []int
	NInit      int
	MaxIter    int
	Seed       int64
	// Target is excluded from profiles.
	Target string
}

// CandidateScore records one tried k.
type CandidateScore struct {
	K          int     `json:"k"`
	Silhouette float64 `json:"silhouette"`
	Inertia    float64 `json:"inertia"`
}

// Profile summarises one segment in original feature units.
type Profile struct {
	Size                 int                `json:"size"`
	AverageIncome        float64            `json:"avg_monthly_income"`
	AverageTrips         float64            `json:"avg_trips"`
	AveragePreferredStar float64            `json:"avg_pref_star"`
	Strategy             string             `json:"strategy"`
	Means                map[string]float64 `json:"means,omitempty"`
}

// Metadata is the read-only segmentation document shown to users.
type Metadata struct {
	RunID        string             `json:"run_id,omitempty"`
	ChosenCount  int                `json:"best_k"`
	QualityScore float64            `json:"silhouette"`
	Profiles     map[string]Profile `json:"profiles"`
	Candidates   []CandidateScore   `json:"candidates,omitempty"`
	IncomeMedian float64            `json:"income_median"`
	TripsMedian  float64            `json:"trips_median"`
}

// Profile returns the profile of segment id.
func (m *Metadata) Profile(id int) (Profile, bool) {
	p, ok := m.Profiles[strconv.Itoa(id)]
	return p, ok
}

// Result is a fitted segmentation.
type Result struct {
	Model  *model.KMeans
	Meta   Metadata
	Labels []int // segment per population row
}

// Segmenter fits segmentations.
type Segmenter struct {
	cfg Config
	log zerolog.Logger
}

// New returns a Segmenter; zero Config fields take defaults.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, log zerolog.Logger) *Segmenter {
	if len(cfg.Candidates) == 0 {
		cfg.Candidates = DefaultCandidates
	}
	if cfg.NInit < 1 {
		cfg.NInit = 10
	}
	if cfg.MaxIter < 1 {
		cfg.MaxIter = 300
	}
	return &Segmenter{cfg: cfg, log: log}
}

// Fit clusters X for every candidate k and keeps the k with the highest silhouette;
// ties go to the smallest k. population is the engineered frame X was transformed
// from, row-aligned, and is used for profiles.
func (s *Segmenter) Fit(ctx context.Context, X [][]float64, population *data.Frame) (*Result, error) {
	if len(X) == 0 {
		return nil, data.ErrEmptyDataset
	}
	if population.Len() != len(X) {
		return nil, fmt.Errorf("segment: %d matrix rows for %d frame rows", len(X), population.Len())
	}
	ks := append([]int(nil), s.cfg.Candidates...)
	sort.Ints(ks)

	var (
		tried  []CandidateScore
		fitted []*model.KMeans
		assign [][]int
	)
	for _, k := range ks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if k < 2 || k >= len(X) {
			s.log.Warn().Int("k", k).Int("rows", len(X)).Msg("skipping segment count")
			continue
		}
		km := model.NewKMeans(k, s.cfg.MaxIter, s.cfg.NInit, s.cfg.Seed)
		if err := km.Fit(X); err != nil {
			return nil, fmt.Errorf("segment: kmeans k=%d: %w", k, err)
		}
		labels, err := km.Predict(X)
		if err != nil {
			return nil, fmt.Errorf("segment: kmeans k=%d: %w", k, err)
		}
		score := model.Silhouette(X, labels)
		metrics.RecordSilhouette(k, score)
		s.log.Info().Int("k", k).Float64("silhouette", score).Float64("inertia", km.Inertia).Msg("segment count scored")
		tried = append(tried, CandidateScore{K: k, Silhouette: score, Inertia: km.Inertia})
		fitted = append(fitted, km)
		assign = append(assign, labels)
	}
	win := bestCandidate(tried)
	if win < 0 {
		return nil, ErrNoCandidates
	}
	best, bestScore, bestAssgn := fitted[win], tried[win].Silhouette, assign[win]

	meta := Metadata{
		ChosenCount:  best.K,
		QualityScore: bestScore,
		Candidates:   tried,
	}
	meta.Profiles, meta.IncomeMedian, meta.TripsMedian = s.profiles(population, bestAssgn, best.K)
	s.log.Info().Int("k", best.K).Float64("silhouette", bestScore).Msg("segmentation selected")
	return &Result{Model: best, Meta: meta, Labels: bestAssgn}, nil
}

// bestCandidate returns the index of the highest silhouette, or -1 when scores is
// empty. Equal silhouettes go to the smallest k whatever the order of scores.
func bestCandidate(scores []CandidateScore) int {
	win := -1
	for i, c := range scores {
		if math.IsNaN(c.Silhouette) {
			continue
		}
		if win < 0 {
			win = i
			continue
		}
		w := scores[win]
		if c.Silhouette > w.Silhouette || (c.Silhouette == w.Silhouette && c.K < w.K) {
			win = i
		}
	}
	return win
}

// profiles averages every numeric column per segment and assigns strategies.
func (s *Segmenter) profiles(f *data.Frame, labels []int, k int) (map[string]Profile, float64, float64) {
	var incomeMedian, tripsMedian float64
	if col, ok := f.Column(data.ColMonthlyIncome); ok && col.Kind == data.Numeric {
		incomeMedian = stats.NaNMedian(col.Num)
	}
	if col, ok := f.Column(data.ColNumberOfTrips); ok && col.Kind == data.Numeric {
		tripsMedian = stats.NaNMedian(col.Num)
	}

	members := make([][]int, k)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}

	out := make(map[string]Profile, k)
	for seg, idx := range members {
		p := Profile{Size: len(idx), Means: map[string]float64{}}
		if len(idx) > 0 {
			for _, col := range f.Columns() {
				if col.Kind != data.Numeric || col.Name == s.cfg.Target {
					continue
				}
				vals := make([]float64, len(idx))
				for j, i := range idx {
					vals[j] = col.Num[i]
				}
				if mean := stats.NaNMean(vals); !math.IsNaN(mean) {
					p.Means[col.Name] = round2(mean)
				}
			}
		}
		p.AverageIncome = p.Means[data.ColMonthlyIncome]
		p.AverageTrips = p.Means[data.ColNumberOfTrips]
		p.AveragePreferredStar = p.Means[data.ColPreferredPropertyStar]
		p.Strategy = Strategy(p.AverageIncome, p.AverageTrips, incomeMedian, tripsMedian)
		out[strconv.Itoa(seg)] = p
	}
	return out, incomeMedian, tripsMedian
}

// Strategy picks a segment's strategy: income at or above the population median
// first, then trips at or above the median, else entry level.
func Strategy(avgIncome, avgTrips, incomeMedian, tripsMedian float64) string {
	switch {
	case avgIncome >= incomeMedian:
		return StrategyPremium
	case avgTrips >= tripsMedian:
		return StrategyFrequent
	default:
		return StrategyEntryLevel
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
