package pipeline

import "github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"

// Schema describes the feature columns a Transformer was fitted on, split by kind,
// in frame order. It is captured once at fit time and travels with the Transformer.
type Schema struct {
	Target      string
	Numeric     []string
	Categorical []string
}

// DeriveSchema partitions every column except target by kind.
func DeriveSchema(f *data.Frame, target string) Schema {
	s := Schema{Target: target}
	for _, c := range f.Columns() {
		if c.Name == target {
			continue
		}
		if c.Kind == data.Categorical {
			s.Categorical = append(s.Categorical, c.Name)
		} else {
			s.Numeric = append(s.Numeric, c.Name)
		}
	}
	return s
}

// Features returns numeric then categorical column names.
func (s Schema) Features() []string {
	out := make([]string, 0, len(s.Numeric)+len(s.Categorical))
	out = append(out, s.Numeric...)
	return append(out, s.Categorical...)
}
