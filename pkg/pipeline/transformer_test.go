package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data/datatest"
)

func fitSynthetic(t *testing.T) (*Transformer, *data.Frame) {
	t.Helper()
	f := datatest.Frame(200, 1)
	tf, err := Fit(f, Options{Target: data.ColProdTaken, DropFirst: true})
	require.NoError(t, err)
	return tf, f
}

func TestFit_Schema(t *testing.T) {
	tf, _ := fitSynthetic(t)

	assert.NotContains(t, tf.Schema.Numeric, data.ColProdTaken)
	assert.NotContains(t, tf.Schema.Numeric, data.ColNumberOfPersonVisiting)
	assert.Contains(t, tf.Schema.Numeric, data.ColTotalVisiting)
	assert.Equal(t, []string{
		data.ColTypeofContact, data.ColOccupation, data.ColGender, data.ColProductPitched,
		data.ColMaritalStatus, data.ColDesignation,
	}, tf.Schema.Categorical)

	// drop_first: (2-1)+(4-1)+(2-1)+(5-1)+(4-1)+(5-1) indicator columns
	assert.Equal(t, len(tf.Schema.Numeric)+16, tf.Width())
	assert.Len(t, tf.FeatureNames(), tf.Width())
	assert.Equal(t, 200, tf.TrainedRows)
}

func TestApply_WidthStable(t *testing.T) {
	tf, f := fitSynthetic(t)

	X, err := tf.Apply(f)
	require.NoError(t, err)
	require.Len(t, X, f.Len())
	for _, row := range X {
		assert.Len(t, row, tf.Width())
	}

	single, err := tf.Apply(datatest.Record().Frame())
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Len(t, single[0], tf.Width())
}

func TestApply_UnseenCategoryEncodesAsZeros(t *testing.T) {
	tf, _ := fitSynthetic(t)

	rec := datatest.Record()
	rec.TypeofContact = "Carrier Pigeon"
	X, err := tf.Apply(rec.Frame())
	require.NoError(t, err)

	names := tf.FeatureNames()
	for j, name := range names {
		if name == data.ColTypeofContact+"_Self Enquiry" {
			assert.Equal(t, 0.0, X[0][j])
		}
	}
}

func TestApply_MissingValuesImputed(t *testing.T) {
	tf, _ := fitSynthetic(t)

	f := datatest.Record().Frame()
	f, err := f.With(data.NewCategorical(data.ColDesignation, []string{""}))
	require.NoError(t, err)
	X, err := tf.Apply(f)
	require.NoError(t, err)
	for _, v := range X[0] {
		assert.False(t, math.IsNaN(v), "NaN in transformed row")
	}
}

func TestApply_SchemaMismatch(t *testing.T) {
	tf, _ := fitSynthetic(t)

	_, err := tf.Apply(datatest.Record().Frame().Drop(data.ColMonthlyIncome))
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	f, err := datatest.Record().Frame().With(data.NewCategorical(data.ColAge, []string{"young"}))
	require.NoError(t, err)
	_, err = tf.Apply(f)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestApply_Deterministic(t *testing.T) {
	tf, _ := fitSynthetic(t)
	a, err := tf.Apply(datatest.Record().Frame())
	require.NoError(t, err)
	b, err := tf.Apply(datatest.Record().Frame())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFit_Errors(t *testing.T) {
	empty := datatest.Frame(0, 1)
	_, err := Fit(empty, Options{Target: data.ColProdTaken})
	assert.ErrorIs(t, err, data.ErrEmptyDataset)

	onlyTarget := datatest.Frame(10, 1)
	onlyTarget = onlyTarget.Drop(onlyTarget.Names()[1:]...)
	_, err = Fit(onlyTarget, Options{Target: data.ColProdTaken})
	assert.Error(t, err)
}
