package pipeline

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/boosting"
	"github.com/YuminosukeSato/tabpipe/internal/config"
	"github.com/YuminosukeSato/tabpipe/modelselection"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// messyRow renders one record with every wart the pipeline has to
// survive: abbreviated days, percent and currency decoration, missing
// markers, and a constant column. The label is a threshold on the bill.
func messyRow(rng *rand.Rand, i int) (cells []string, label int) {
	days := []string{"Thur", "Fri", "Sat", "Sun"}
	bill := 10 + 40*rng.Float64()

	billCell := fmt.Sprintf("%.2f", bill)
	if i%17 == 0 {
		billCell = "NA"
	}
	rateCell := fmt.Sprintf("%.1f%%", 5+10*rng.Float64())
	if i%13 == 0 {
		rateCell = "?"
	}
	amountCell := fmt.Sprintf("$%.2f", bill*1.1)
	day := days[rng.Intn(len(days))]
	smoker := "no"
	if rng.Float64() < 0.4 {
		smoker = "yes"
	}

	if bill > 30 {
		label = 1
	}
	return []string{billCell, rateCell, amountCell, day, smoker, "const"}, label
}

// writeMessyData generates a labeled training CSV and an unlabeled
// validation CSV sharing the feature schema.
func writeMessyData(t *testing.T, dir string, nTrain, nValidation int) {
	t.Helper()
	rng := rand.New(rand.NewSource(11))

	var train strings.Builder
	train.WriteString("bill,rate,amount,day,smoker,junk,tipped\n")
	for i := 0; i < nTrain; i++ {
		cells, label := messyRow(rng, i)
		fmt.Fprintf(&train, "%s,%d\n", strings.Join(cells, ","), label)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train.csv"), []byte(train.String()), 0o644))

	var validation strings.Builder
	validation.WriteString("bill,rate,amount,day,smoker,junk\n")
	for i := 0; i < nValidation; i++ {
		cells, _ := messyRow(rng, i)
		validation.WriteString(strings.Join(cells, ",") + "\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "validation.csv"), []byte(validation.String()), 0o644))
}

func testConfig(t *testing.T, dir string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.TrainPath = filepath.Join(dir, "train.csv")
	cfg.Data.ValidationPath = filepath.Join(dir, "validation.csv")
	cfg.Data.LabelColumn = "tipped"
	cfg.Normalizer.DayColumn = "day"
	cfg.Normalizer.PercentColumns = []string{"rate"}
	cfg.Normalizer.CurrencyColumns = []string{"amount"}
	cfg.Encoder.BinaryPositive = map[string]string{"smoker": "yes"}
	cfg.Boosting = boosting.Params{Trees: 30, Shrinkage: 0.1, MaxDepth: 2, MinLeaf: 5}
	cfg.Output.LogisticPredictions = filepath.Join(dir, "predictions_logistic.txt")
	cfg.Output.BoostingPredictions = filepath.Join(dir, "predictions_boosting.txt")
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeMessyData(t, dir, 300, 80)
	cfg := testConfig(t, dir)

	report, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, 300, report.TrainRows)
	assert.Equal(t, 80, report.ValidationRows)
	assert.Equal(t, 240, report.FitRows)
	assert.Equal(t, 60, report.EvalRows)
	assert.Contains(t, report.DroppedColumns, "junk", "constant column must be dropped")

	// The label is a threshold on the bill: both models should beat
	// chance comfortably on the held-out subset.
	assert.Greater(t, report.LogisticAUC, 0.8)
	assert.Greater(t, report.BoostingAUC, 0.8)

	for _, path := range []string{report.LogisticPredictionsPath, report.BoostingPredictionsPath} {
		proba, err := ReadPredictions(path)
		require.NoError(t, err)
		require.Equal(t, report.ValidationRows, proba.Len(), "one probability per validation row")
		for i := 0; i < proba.Len(); i++ {
			v := proba.AtVec(i)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestRunRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	writeMessyData(t, dir, 100, 30)
	cfg := testConfig(t, dir)

	// A validation file missing a feature column must abort the run
	// before any model is fitted.
	validation := "bill,rate,amount,day,junk\n20.00,8.0%,$22.00,Fri,const\n"
	require.NoError(t, os.WriteFile(cfg.Data.ValidationPath, []byte(validation), 0o644))

	_, err := Run(cfg)
	require.ErrorIs(t, err, errors.ErrSchemaMismatch)
}

func TestRunDeterministicUnderSeed(t *testing.T) {
	dir := t.TempDir()
	writeMessyData(t, dir, 200, 50)
	cfg := testConfig(t, dir)

	first, err := Run(cfg)
	require.NoError(t, err)
	p1, err := ReadPredictions(first.BoostingPredictionsPath)
	require.NoError(t, err)

	second, err := Run(cfg)
	require.NoError(t, err)
	p2, err := ReadPredictions(second.BoostingPredictionsPath)
	require.NoError(t, err)

	require.Equal(t, p1.Len(), p2.Len())
	for i := 0; i < p1.Len(); i++ {
		assert.Equal(t, p1.AtVec(i), p2.AtVec(i))
	}
}

func TestRunWithSweepAndPlot(t *testing.T) {
	dir := t.TempDir()
	writeMessyData(t, dir, 300, 60)
	cfg := testConfig(t, dir)
	cfg.Sweep = modelselection.Grids{
		Shrinkage: []float64{0.0001, 0.001, 0.01},
		MaxDepth:  []int{1, 2},
	}
	cfg.Output.ROCPlot = filepath.Join(dir, "roc.png")

	report, err := Run(cfg)
	require.NoError(t, err)

	assert.Len(t, report.SweepTrace, 5)
	assert.Contains(t, []float64{0.0001, 0.001, 0.01}, report.BestParams.Shrinkage)

	info, err := os.Stat(cfg.Output.ROCPlot)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Equal(t, cfg.Output.ROCPlot, report.ROCPlotPath)
}

func TestWriteReadPredictionsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.txt")
	proba := mat.NewVecDense(4, []float64{0.1, 0.25, 0.999, 0.5})

	require.NoError(t, WritePredictions(path, proba))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, proba.Len(), "no header, one value per line")

	back, err := ReadPredictions(path)
	require.NoError(t, err)
	require.Equal(t, proba.Len(), back.Len())
	for i := 0; i < proba.Len(); i++ {
		assert.Equal(t, proba.AtVec(i), back.AtVec(i))
	}
}
