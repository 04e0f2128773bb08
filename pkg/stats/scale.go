package stats

import "errors"

// StandardScaler standardizes columns with parameters captured at fit time.
// With WithMean false the columns are only divided by their standard deviation,
// which keeps zero entries at zero.
type StandardScaler struct {
	WithMean bool
	Mean     []float64
	Std      []float64
}

func NewStandardScaler(withMean bool) *StandardScaler { return &StandardScaler{WithMean: withMean} }

// Fit computes per-column mean and population standard deviation. Constant columns
// get a unit scale.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("stats: cannot fit scaler on empty input")
	}
	r, c := len(X), len(X[0])
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			col[i] = X[i][j]
		}
		s.Mean[j] = Mean(col)
		s.Std[j] = PopStd(col)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// TransformRow scales one row into dst, which must have the same length.
func (s *StandardScaler) TransformRow(dst, row []float64) {
	for j, v := range row {
		if s.WithMean {
			v -= s.Mean[j]
		}
		dst[j] = v / s.Std[j]
	}
}

// Transform returns a scaled copy of X.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	Y := make([][]float64, len(X))
	for i, row := range X {
		Y[i] = make([]float64, len(row))
		s.TransformRow(Y[i], row)
	}
	return Y
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X), nil
}
