// Package preprocessing implements the fitted data-cleaning stages of the
// pipeline: schema normalization, predictive imputation, and feature
// encoding. Every stage is a fit/apply pair: Fit derives parameters from
// the training table only, and Transform applies them to any table without
// recomputation and never mutates its input.
package preprocessing

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/tabpipe/core/model"
	"github.com/YuminosukeSato/tabpipe/dataset"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
	"github.com/YuminosukeSato/tabpipe/pkg/log"
)

// DefaultMissingThreshold is the missing-value fraction above which a
// column is dropped as unreliable.
const DefaultMissingThreshold = 0.9

// dayNames canonicalizes abbreviated day-of-week spellings. Full names and
// unrecognized values pass through unchanged.
var dayNames = map[string]string{
	"Mon":  "Monday",
	"Tue":  "Tuesday",
	"Wed":  "Wednesday",
	"Thu":  "Thursday",
	"Thur": "Thursday",
	"Fri":  "Friday",
	"Sat":  "Saturday",
	"Sun":  "Sunday",
}

// NormalizerConfig selects the columns that need special handling. Columns
// are named, never indexed.
type NormalizerConfig struct {
	// DayColumn holds day-of-week values with inconsistent abbreviations.
	DayColumn string `yaml:"day_column"`

	// PercentColumns are text columns like "12.5%" or "%12.5"; values are
	// stripped of the percent sign and divided by 100.
	PercentColumns []string `yaml:"percent_columns"`

	// CurrencyColumns are text columns like "$1,200"; the dollar sign and
	// thousands separators are stripped.
	CurrencyColumns []string `yaml:"currency_columns"`

	// MissingThreshold overrides DefaultMissingThreshold when > 0.
	MissingThreshold float64 `yaml:"missing_threshold"`
}

// SchemaNormalizer drops unreliable columns and repairs inconsistent cell
// text. The exclusion set is fixed from the training table before any other
// statistic is computed, and applied identically to validation.
type SchemaNormalizer struct {
	state *model.StateManager
	cfg   NormalizerConfig

	excluded map[string]bool
}

// NewSchemaNormalizer creates an unfitted SchemaNormalizer.
func NewSchemaNormalizer(cfg NormalizerConfig) *SchemaNormalizer {
	if cfg.MissingThreshold <= 0 {
		cfg.MissingThreshold = DefaultMissingThreshold
	}
	return &SchemaNormalizer{
		state: model.NewStateManager(),
		cfg:   cfg,
	}
}

// Fit determines the excluded-column set from the training table: columns
// whose missing fraction exceeds the threshold or with at most one distinct
// value.
func (n *SchemaNormalizer) Fit(t *dataset.Table) error {
	if t.NumRows() == 0 || t.NumCols() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "SchemaNormalizer.Fit")
	}

	n.excluded = make(map[string]bool)
	rows := float64(t.NumRows())
	for _, col := range t.Columns() {
		missFrac := float64(col.MissingCount()) / rows
		if missFrac > n.cfg.MissingThreshold || col.DistinctCount() <= 1 {
			n.excluded[col.Name] = true
		}
	}

	logger := log.GetLoggerWithName("preprocessing.normalizer")
	logger.Debug("fitted exclusion set",
		log.DroppedColumnsKey, len(n.excluded),
		log.RowsKey, t.NumRows())

	n.state.SetFitted()
	return nil
}

// Excluded returns the names of columns the normalizer drops, sorted.
func (n *SchemaNormalizer) Excluded() []string {
	names := make([]string, 0, len(n.excluded))
	for name := range n.excluded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transform applies the fitted exclusion set and the configured text
// repairs, returning a new table. Malformed decorated-numeric cells are
// recorded as missing and reported through the warning handler; they do
// not abort the run.
func (n *SchemaNormalizer) Transform(t *dataset.Table) (*dataset.Table, error) {
	if !n.state.IsFitted() {
		return nil, errors.NewNotFittedError("SchemaNormalizer", "Transform")
	}

	out := t.DropColumns(n.excluded)

	if n.cfg.DayColumn != "" {
		if col := out.Column(n.cfg.DayColumn); col != nil && col.Role == dataset.Categorical {
			for i, v := range col.Labels {
				if full, ok := dayNames[v]; ok {
					col.Labels[i] = full
				}
			}
		}
	}

	for _, name := range n.cfg.PercentColumns {
		if err := convertDecorated(out, name, parsePercent); err != nil {
			return nil, err
		}
	}
	for _, name := range n.cfg.CurrencyColumns {
		if err := convertDecorated(out, name, parseCurrency); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// FitTransform fits on the table and transforms it.
func (n *SchemaNormalizer) FitTransform(t *dataset.Table) (*dataset.Table, error) {
	if err := n.Fit(t); err != nil {
		return nil, err
	}
	return n.Transform(t)
}

// convertDecorated rewrites a categorical column holding decorated numeric
// text into a numeric column. Cells whose residue does not parse become
// missing after a warning.
func convertDecorated(t *dataset.Table, name string, parse func(string) (float64, error)) error {
	col := t.Column(name)
	if col == nil {
		// The column may have been dropped as unreliable.
		return nil
	}
	if col.Role == dataset.Numeric {
		// Already clean numbers; nothing to strip.
		return nil
	}

	values := make([]float64, len(col.Labels))
	for i, cell := range col.Labels {
		if cell == "" {
			values[i] = math.NaN()
			continue
		}
		v, err := parse(cell)
		if err != nil {
			errors.Warn(errors.NewMalformedValueError(name, i, cell))
			values[i] = math.NaN()
			continue
		}
		values[i] = v
	}

	col.Role = dataset.Numeric
	col.Numeric = values
	col.Labels = nil
	return nil
}

// parsePercent strips a leading or trailing percent sign and divides the
// remaining number by 100.
func parsePercent(s string) (float64, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "%"), "%")
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	return v / 100.0, nil
}

// parseCurrency strips a leading dollar sign and thousands separators.
func parseCurrency(s string) (float64, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "$")
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	return strconv.ParseFloat(trimmed, 64)
}
