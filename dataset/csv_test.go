package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVInference(t *testing.T) {
	data := strings.Join([]string{
		"x0,x1,x2,y",
		"1.5,red,NA,yes",
		"2.5,blue,7,no",
		"?,red,8,no",
	}, "\n")

	tbl, err := ReadCSV(strings.NewReader(data), "y")
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumCols())
	assert.False(t, tbl.HasColumn("y"), "label column must be split off")

	x0 := tbl.Column("x0")
	require.NotNil(t, x0)
	assert.Equal(t, Numeric, x0.Role)
	assert.True(t, math.IsNaN(x0.Numeric[2]), "'?' loads as missing")

	x1 := tbl.Column("x1")
	assert.Equal(t, Categorical, x1.Role)
	assert.Equal(t, "blue", x1.Labels[1])

	x2 := tbl.Column("x2")
	assert.Equal(t, Numeric, x2.Role)
	assert.True(t, math.IsNaN(x2.Numeric[0]), "'NA' loads as missing")

	assert.Equal(t, []float64{1, 0, 0}, tbl.Label)
}

func TestReadCSVMoreRowsThanColumns(t *testing.T) {
	data := strings.Join([]string{
		"x0,x1",
		"1,a",
		"2,b",
		"3,c",
		"4,d",
	}, "\n")

	tbl, err := ReadCSV(strings.NewReader(data), "")
	require.NoError(t, err)

	require.Equal(t, 4, tbl.NumRows())
	assert.Equal(t, []float64{1, 2, 3, 4}, tbl.Column("x0").Numeric)
	assert.Equal(t, []string{"a", "b", "c", "d"}, tbl.Column("x1").Labels)
}

func TestReadCSVDecoratedNumericsStayCategorical(t *testing.T) {
	data := "x0\n%12.5\n%3.0\n"

	tbl, err := ReadCSV(strings.NewReader(data), "")
	require.NoError(t, err)

	// Conversion is the normalizer's job; the loader must not guess.
	assert.Equal(t, Categorical, tbl.Column("x0").Role)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "")
	assert.Error(t, err, "empty input")

	_, err = ReadCSV(strings.NewReader("x0,y\n"), "y")
	assert.Error(t, err, "header-only input")

	_, err = ReadCSV(strings.NewReader("x0,y\n1,maybe\n"), "y")
	assert.Error(t, err, "non-binary label")
}
