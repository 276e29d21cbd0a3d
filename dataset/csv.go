package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// missingMarkers are raw strings treated as a missing cell on load.
var missingMarkers = map[string]bool{
	"":    true,
	"NA":  true,
	"N/A": true,
	"?":   true,
	"NaN": true,
}

// LoadCSV reads a comma-delimited file with a header row into a Table.
// labelColumn names the binary target column; pass "" for unlabeled tables.
// The label column is split off the table into Table.Label.
//
// Column roles are inferred: a column whose every non-missing cell parses
// as float64 is Numeric, anything else is Categorical. Decorated numeric
// text ("$1,200", "12.5%") therefore loads as Categorical and is converted
// by the schema normalizer, not here.
func LoadCSV(path, labelColumn string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f, labelColumn)
}

// ReadCSV reads CSV data from r. See LoadCSV.
func ReadCSV(r io.Reader, labelColumn string) (*Table, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSV")
	}

	headers := records[0]
	dataRows := records[1:]
	if len(dataRows) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSV: header only")
	}

	// Transpose to columns.
	raw := make([][]string, len(headers))
	for j := range headers {
		raw[j] = make([]string, len(dataRows))
		for i, row := range dataRows {
			if j < len(row) {
				raw[j][i] = row[j]
			}
		}
	}

	var (
		columns []*Column
		label   []float64
	)
	for j, name := range headers {
		if name == labelColumn && labelColumn != "" {
			label, err = parseLabel(name, raw[j])
			if err != nil {
				return nil, err
			}
			continue
		}
		columns = append(columns, inferColumn(name, raw[j]))
	}

	table, err := NewTable(columns)
	if err != nil {
		return nil, err
	}
	table.Label = label
	return table, nil
}

// inferColumn decides the role of a raw string column and converts it.
func inferColumn(name string, cells []string) *Column {
	numeric := true
	for _, cell := range cells {
		if missingMarkers[cell] {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			numeric = false
			break
		}
	}

	// An all-missing column defaults to numeric; the normalizer drops it.
	if numeric {
		col := &Column{Name: name, Role: Numeric, Numeric: make([]float64, len(cells))}
		for i, cell := range cells {
			if missingMarkers[cell] {
				col.Numeric[i] = math.NaN()
				continue
			}
			v, _ := strconv.ParseFloat(cell, 64)
			col.Numeric[i] = v
		}
		return col
	}

	col := &Column{Name: name, Role: Categorical, Labels: make([]string, len(cells))}
	for i, cell := range cells {
		if missingMarkers[cell] {
			col.Labels[i] = ""
			continue
		}
		col.Labels[i] = cell
	}
	return col
}

// parseLabel converts the target column to {0,1}. Accepts 0/1 numerics and
// the yes/no spellings that appear in raw exports.
func parseLabel(name string, cells []string) ([]float64, error) {
	label := make([]float64, len(cells))
	for i, cell := range cells {
		switch cell {
		case "0", "no", "No":
			label[i] = 0
		case "1", "yes", "Yes":
			label[i] = 1
		default:
			return nil, errors.Newf("label column %q row %d: value %q is not binary", name, i, cell)
		}
	}
	return label, nil
}
