package pipeline

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// WritePredictions writes one probability per line, no header and no row
// index, to path.
func WritePredictions(path string, proba *mat.VecDense) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "pipeline: create %s", path)
	}
	if err := writePredictions(f, proba); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "pipeline: close %s", path)
}

func writePredictions(w io.Writer, proba *mat.VecDense) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < proba.Len(); i++ {
		if _, err := bw.WriteString(strconv.FormatFloat(proba.AtVec(i), 'g', -1, 64)); err != nil {
			return errors.Wrap(err, "pipeline: write prediction")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "pipeline: write prediction")
		}
	}
	return errors.Wrap(bw.Flush(), "pipeline: flush predictions")
}

// ReadPredictions reads a file written by WritePredictions back into a
// vector.
func ReadPredictions(path string) (*mat.VecDense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline: open %s", path)
	}
	defer f.Close()

	var values []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline: parse prediction %q", line)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "pipeline: read %s", path)
	}
	if len(values) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "pipeline: ReadPredictions")
	}
	return mat.NewVecDense(len(values), values), nil
}
