package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabpipe/dataset"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

func encoderFixture(t *testing.T) *dataset.Table {
	t.Helper()
	return mustTable(t, []*dataset.Column{
		{Name: "amount", Role: dataset.Numeric, Numeric: []float64{10, 20, 30, 40}},
		{Name: "smoker", Role: dataset.Categorical, Labels: []string{"yes", "no", "no", "yes"}},
		{Name: "day", Role: dataset.Categorical, Labels: []string{"Friday", "Monday", "Friday", "Sunday"}},
	})
}

func TestFeatureEncoderLayout(t *testing.T) {
	enc := NewFeatureEncoder(EncoderConfig{
		BinaryPositive: map[string]string{"smoker": "yes"},
	})
	X, err := enc.FitTransform(encoderFixture(t))
	require.NoError(t, err)

	rows, cols := X.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"amount", "smoker", "day"}, enc.FeatureNames())
	assert.Equal(t, []int{2}, enc.CategoricalIndices(), "binary columns are not factors")
}

func TestFeatureEncoderBinaryMapping(t *testing.T) {
	enc := NewFeatureEncoder(EncoderConfig{
		BinaryPositive: map[string]string{"smoker": "yes"},
	})
	X, err := enc.FitTransform(encoderFixture(t))
	require.NoError(t, err)

	assert.Equal(t, 1.0, X.At(0, 1))
	assert.Equal(t, 0.0, X.At(1, 1))
	assert.Equal(t, 0.0, X.At(2, 1))
	assert.Equal(t, 1.0, X.At(3, 1))
}

func TestFeatureEncoderFactorCodes(t *testing.T) {
	enc := NewFeatureEncoder(EncoderConfig{
		BinaryPositive: map[string]string{"smoker": "yes"},
	})
	X, err := enc.FitTransform(encoderFixture(t))
	require.NoError(t, err)

	// Levels are fixed in sorted order: Friday=0, Monday=1, Sunday=2.
	assert.Equal(t, []string{"Friday", "Monday", "Sunday"}, enc.Levels("day"))
	assert.Equal(t, 0.0, X.At(0, 2))
	assert.Equal(t, 1.0, X.At(1, 2))
	assert.Equal(t, 0.0, X.At(2, 2))
	assert.Equal(t, 2.0, X.At(3, 2))
}

func TestFeatureEncoderStandardizesWithTrainingStats(t *testing.T) {
	enc := NewFeatureEncoder(EncoderConfig{
		BinaryPositive: map[string]string{"smoker": "yes"},
	})
	require.NoError(t, enc.Fit(encoderFixture(t)))

	// Training stats for amount: mean 25, population std sqrt(125).
	validation := mustTable(t, []*dataset.Column{
		{Name: "amount", Role: dataset.Numeric, Numeric: []float64{25, 25}},
		{Name: "smoker", Role: dataset.Categorical, Labels: []string{"no", "no"}},
		{Name: "day", Role: dataset.Categorical, Labels: []string{"Monday", "Friday"}},
	})
	X, err := enc.Transform(validation)
	require.NoError(t, err)

	assert.InDelta(t, 0, X.At(0, 0), 1e-12, "training mean maps to zero")
	assert.InDelta(t, 0, X.At(1, 0), 1e-12)
}

func TestFeatureEncoderUnseenLevelDefault(t *testing.T) {
	enc := NewFeatureEncoder(EncoderConfig{
		BinaryPositive: map[string]string{"smoker": "yes"},
	})
	require.NoError(t, enc.Fit(encoderFixture(t)))

	validation := mustTable(t, []*dataset.Column{
		{Name: "amount", Role: dataset.Numeric, Numeric: []float64{15}},
		{Name: "smoker", Role: dataset.Categorical, Labels: []string{"yes"}},
		{Name: "day", Role: dataset.Categorical, Labels: []string{"Tuesday"}},
	})
	X, err := enc.Transform(validation)
	require.NoError(t, err)

	// Tuesday was never fitted; it gets the code one past the level set.
	assert.Equal(t, 3.0, X.At(0, 2))
}

func TestFeatureEncoderUnseenLevelStrict(t *testing.T) {
	enc := NewFeatureEncoder(EncoderConfig{
		BinaryPositive: map[string]string{"smoker": "yes"},
		StrictUnseen:   true,
	})
	require.NoError(t, enc.Fit(encoderFixture(t)))

	validation := mustTable(t, []*dataset.Column{
		{Name: "amount", Role: dataset.Numeric, Numeric: []float64{15}},
		{Name: "smoker", Role: dataset.Categorical, Labels: []string{"yes"}},
		{Name: "day", Role: dataset.Categorical, Labels: []string{"Tuesday"}},
	})
	_, err := enc.Transform(validation)

	var uce *errors.UnseenCategoryError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "day", uce.Column)
	assert.Equal(t, "Tuesday", uce.Level)
}

func TestFeatureEncoderSchemaMismatch(t *testing.T) {
	enc := NewFeatureEncoder(EncoderConfig{})
	require.NoError(t, enc.Fit(encoderFixture(t)))

	narrow := mustTable(t, []*dataset.Column{
		{Name: "amount", Role: dataset.Numeric, Numeric: []float64{1}},
	})
	_, err := enc.Transform(narrow)

	var de *errors.DimensionError
	require.True(t, errors.As(err, &de))
}

func TestFeatureEncoderNotFitted(t *testing.T) {
	enc := NewFeatureEncoder(EncoderConfig{})
	_, err := enc.Transform(encoderFixture(t))

	var nfe *errors.NotFittedError
	require.True(t, errors.As(err, &nfe))
}
