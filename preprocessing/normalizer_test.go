package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabpipe/dataset"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

func mustTable(t *testing.T, cols []*dataset.Column) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable(cols)
	require.NoError(t, err)
	return tbl
}

func TestNormalizerDropsSparseAndConstantColumns(t *testing.T) {
	nan := math.NaN()
	sparse := make([]float64, 20)
	for i := range sparse {
		sparse[i] = nan
	}
	sparse[0] = 1 // 95% missing

	keep := make([]float64, 20)
	constant := make([]float64, 20)
	for i := range keep {
		keep[i] = float64(i)
		constant[i] = 7
	}

	tbl := mustTable(t, []*dataset.Column{
		{Name: "x0", Role: dataset.Numeric, Numeric: keep},
		{Name: "x1", Role: dataset.Numeric, Numeric: sparse},
		{Name: "x2", Role: dataset.Numeric, Numeric: constant},
	})

	n := NewSchemaNormalizer(NormalizerConfig{})
	out, err := n.FitTransform(tbl)
	require.NoError(t, err)

	assert.True(t, out.HasColumn("x0"))
	assert.False(t, out.HasColumn("x1"), "near-total sparsity must be dropped")
	assert.False(t, out.HasColumn("x2"), "constant column must be dropped")
	assert.True(t, tbl.HasColumn("x1"), "input must not be mutated")
}

func TestNormalizerExclusionAppliedToValidation(t *testing.T) {
	nan := math.NaN()
	trainSparse := []float64{1, nan, nan, nan, nan, nan, nan, nan, nan, nan, nan, nan}
	valDense := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	ramp := make([]float64, 12)
	for i := range ramp {
		ramp[i] = float64(i)
	}

	train := mustTable(t, []*dataset.Column{
		{Name: "x0", Role: dataset.Numeric, Numeric: ramp},
		{Name: "x1", Role: dataset.Numeric, Numeric: trainSparse},
	})
	validation := mustTable(t, []*dataset.Column{
		{Name: "x0", Role: dataset.Numeric, Numeric: ramp},
		{Name: "x1", Role: dataset.Numeric, Numeric: valDense},
	})

	n := NewSchemaNormalizer(NormalizerConfig{})
	require.NoError(t, n.Fit(train))

	out, err := n.Transform(validation)
	require.NoError(t, err)
	assert.False(t, out.HasColumn("x1"), "train-fitted exclusion applies to validation even when dense there")
}

func TestNormalizerDayCanonicalization(t *testing.T) {
	tbl := mustTable(t, []*dataset.Column{
		{Name: "day", Role: dataset.Categorical, Labels: []string{"Thur", "Mon", "Friday", "holiday"}},
		{Name: "x0", Role: dataset.Numeric, Numeric: []float64{1, 2, 3, 4}},
	})

	n := NewSchemaNormalizer(NormalizerConfig{DayColumn: "day"})
	out, err := n.FitTransform(tbl)
	require.NoError(t, err)

	got := out.Column("day").Labels
	assert.Equal(t, []string{"Thursday", "Monday", "Friday", "holiday"}, got)
}

func TestNormalizerDecoratedNumerics(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(w error) {})

	tbl := mustTable(t, []*dataset.Column{
		{Name: "pct", Role: dataset.Categorical, Labels: []string{"%12.5", "3.5%", "oops", ""}},
		{Name: "amount", Role: dataset.Categorical, Labels: []string{"$1,200", "$15", "$1,?", "$3.50"}},
	})

	n := NewSchemaNormalizer(NormalizerConfig{
		PercentColumns:  []string{"pct"},
		CurrencyColumns: []string{"amount"},
	})
	out, err := n.FitTransform(tbl)
	require.NoError(t, err)

	pct := out.Column("pct")
	require.Equal(t, dataset.Numeric, pct.Role)
	assert.InDelta(t, 0.125, pct.Numeric[0], 1e-12)
	assert.InDelta(t, 0.035, pct.Numeric[1], 1e-12)
	assert.True(t, math.IsNaN(pct.Numeric[2]), "malformed cell becomes missing")
	assert.True(t, math.IsNaN(pct.Numeric[3]))

	amount := out.Column("amount")
	require.Equal(t, dataset.Numeric, amount.Role)
	assert.InDelta(t, 1200, amount.Numeric[0], 1e-12)
	assert.InDelta(t, 15, amount.Numeric[1], 1e-12)
	assert.True(t, math.IsNaN(amount.Numeric[2]), `"$1,?" becomes missing`)
	assert.InDelta(t, 3.5, amount.Numeric[3], 1e-12)

	require.Len(t, warnings, 2)
	var mve *errors.MalformedValueError
	require.True(t, errors.As(warnings[0], &mve))
	assert.Equal(t, "pct", mve.Column)
}

func TestNormalizerRequiresFit(t *testing.T) {
	tbl := mustTable(t, []*dataset.Column{
		{Name: "x0", Role: dataset.Numeric, Numeric: []float64{1, 2}},
	})

	n := NewSchemaNormalizer(NormalizerConfig{})
	_, err := n.Transform(tbl)

	var nfe *errors.NotFittedError
	require.True(t, errors.As(err, &nfe))
}
