package pipeline

import (
	"errors"
	"fmt"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/dataprep"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/stats"
)

// ErrSchemaMismatch is returned when a frame handed to Apply lacks a fitted column
// or carries it with a different kind.
var ErrSchemaMismatch = errors.New("pipeline: frame does not match fitted schema")

// Options configures Fit.
type Options struct {
	Target    string
	DropFirst bool
}

// Transformer is the fitted feature encoding. Numeric columns are median-imputed then
// standardized; categorical columns are mode-imputed, one-hot encoded, then scaled
// without centering. Output columns are numeric first, then categorical, in schema order.
//
// A Transformer is immutable after Fit and safe for concurrent Apply calls.
type Transformer struct {
	Schema      Schema
	Medians     []dataprep.MedianImputer
	NumScaler   *stats.StandardScaler
	Modes       []dataprep.ModeImputer
	Encoders    []*dataprep.OneHotEncoder
	CatScaler   *stats.StandardScaler
	TrainedRows int
}

// Fit engineers the frame and learns imputation, vocabulary and scaling parameters.
func Fit(f *data.Frame, opts Options) (*Transformer, error) {
	f = dataprep.Engineer(f)
	if f.Len() == 0 {
		return nil, data.ErrEmptyDataset
	}
	schema := DeriveSchema(f, opts.Target)
	if len(schema.Numeric)+len(schema.Categorical) == 0 {
		return nil, errors.New("pipeline: no feature columns")
	}

	t := &Transformer{Schema: schema, TrainedRows: f.Len()}

	num := make([][]float64, f.Len())
	for i := range num {
		num[i] = make([]float64, len(schema.Numeric))
	}
	for j, name := range schema.Numeric {
		col, _ := f.Column(name)
		imp := dataprep.FitMedian(col.Num)
		t.Medians = append(t.Medians, imp)
		for i, v := range col.Num {
			num[i][j] = imp.Value(v)
		}
	}
	t.NumScaler = stats.NewStandardScaler(true)
	if err := t.NumScaler.Fit(num); err != nil {
		return nil, fmt.Errorf("pipeline: numeric scaler: %w", err)
	}

	width := 0
	imputed := make([][]string, len(schema.Categorical))
	for j, name := range schema.Categorical {
		col, _ := f.Column(name)
		imp := dataprep.FitMode(col.Cat)
		t.Modes = append(t.Modes, imp)
		imputed[j] = imp.Transform(col.Cat)
		enc := dataprep.FitOneHot(imputed[j], opts.DropFirst)
		t.Encoders = append(t.Encoders, enc)
		width += enc.Width()
	}
	cat := make([][]float64, f.Len())
	for i := range cat {
		cat[i] = make([]float64, width)
		off := 0
		for j, enc := range t.Encoders {
			enc.EncodeInto(cat[i][off:off+enc.Width()], imputed[j][i])
			off += enc.Width()
		}
	}
	t.CatScaler = stats.NewStandardScaler(false)
	if err := t.CatScaler.Fit(cat); err != nil {
		return nil, fmt.Errorf("pipeline: categorical scaler: %w", err)
	}
	return t, nil
}

// Width is the number of output columns.
func (t *Transformer) Width() int {
	w := len(t.Schema.Numeric)
	for _, enc := range t.Encoders {
		w += enc.Width()
	}
	return w
}

// FeatureNames labels the output columns.
func (t *Transformer) FeatureNames() []string {
	out := append([]string(nil), t.Schema.Numeric...)
	for j, enc := range t.Encoders {
		out = append(out, enc.Names(t.Schema.Categorical[j])...)
	}
	return out
}

// Apply engineers the frame and encodes it with the fitted parameters. Unseen
// categories encode as zeros; the output width never changes. Columns outside the
// schema (the target, for one) are ignored.
func (t *Transformer) Apply(f *data.Frame) ([][]float64, error) {
	f = dataprep.Engineer(f)

	numCols := make([]*data.Column, len(t.Schema.Numeric))
	for j, name := range t.Schema.Numeric {
		col, err := t.lookup(f, name, data.Numeric)
		if err != nil {
			return nil, err
		}
		numCols[j] = col
	}
	catCols := make([]*data.Column, len(t.Schema.Categorical))
	for j, name := range t.Schema.Categorical {
		col, err := t.lookup(f, name, data.Categorical)
		if err != nil {
			return nil, err
		}
		catCols[j] = col
	}

	nNum := len(numCols)
	catWidth := t.Width() - nNum
	out := make([][]float64, f.Len())
	numRow := make([]float64, nNum)
	catRow := make([]float64, catWidth)
	for i := range out {
		row := make([]float64, nNum+catWidth)
		for j, col := range numCols {
			numRow[j] = t.Medians[j].Value(col.Num[i])
		}
		t.NumScaler.TransformRow(row[:nNum], numRow)

		off := 0
		for j, col := range catCols {
			enc := t.Encoders[j]
			enc.EncodeInto(catRow[off:off+enc.Width()], t.Modes[j].Value(col.Cat[i]))
			off += enc.Width()
		}
		t.CatScaler.TransformRow(row[nNum:], catRow)
		out[i] = row
	}
	return out, nil
}

func (t *Transformer) lookup(f *data.Frame, name string, kind data.Kind) (*data.Column, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, name)
	}
	if col.Kind != kind {
		return nil, fmt.Errorf("%w: column %q is %s, fitted as %s", ErrSchemaMismatch, name, col.Kind, kind)
	}
	return col, nil
}
