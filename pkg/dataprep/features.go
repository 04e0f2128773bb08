package dataprep

import (
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
)

// Engineer replaces NumberOfPersonVisiting and NumberOfChildrenVisiting with their
// elementwise sum, TotalVisiting. Frames lacking either column are returned unchanged,
// which makes a second call on an engineered frame a no-op.
func Engineer(f *data.Frame) *data.Frame {
	persons, ok := f.Column(data.ColNumberOfPersonVisiting)
	if !ok {
		return f
	}
	children, ok := f.Column(data.ColNumberOfChildren)
	if !ok {
		return f
	}
	if persons.Kind != data.Numeric || children.Kind != data.Numeric {
		return f
	}

	total := make([]float64, f.Len())
	for i := range total {
		// NaN in either operand propagates, so imputation sees it as missing
		total[i] = persons.Num[i] + children.Num[i]
	}
	out, err := f.Drop(data.ColNumberOfPersonVisiting, data.ColNumberOfChildren).
		With(data.NewNumeric(data.ColTotalVisiting, total))
	if err != nil {
		return f
	}
	return out
}
