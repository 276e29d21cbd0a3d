// Package dataset holds the in-memory tabular structure the pipeline
// operates on and the CSV loader that produces it.
//
// Cells are stored column-wise. Numeric cells are float64 with NaN as the
// missing marker; categorical cells are strings with "" as the missing
// marker. Columns are addressed by name throughout the pipeline, never by
// position, so dropping a column cannot shift references.
package dataset

import (
	"math"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// Role classifies a column for downstream stages.
type Role int

const (
	// Numeric columns hold float64 values.
	Numeric Role = iota
	// Categorical columns hold string levels.
	Categorical
	// Excluded columns were dropped by normalization and carry no data.
	Excluded
)

func (r Role) String() string {
	switch r {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Excluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// Column is a single named column. Exactly one payload slice is populated
// according to Role.
type Column struct {
	Name    string
	Role    Role
	Numeric []float64 // NaN marks a missing cell
	Labels  []string  // "" marks a missing cell
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Role == Numeric {
		return len(c.Numeric)
	}
	return len(c.Labels)
}

// IsMissing reports whether the cell at row i is missing.
func (c *Column) IsMissing(i int) bool {
	if c.Role == Numeric {
		return math.IsNaN(c.Numeric[i])
	}
	return c.Labels[i] == ""
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// DistinctCount returns the number of distinct non-missing values.
func (c *Column) DistinctCount() int {
	if c.Role == Numeric {
		seen := make(map[float64]struct{})
		for _, v := range c.Numeric {
			if !math.IsNaN(v) {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	}
	seen := make(map[string]struct{})
	for _, v := range c.Labels {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Role: c.Role}
	if c.Numeric != nil {
		out.Numeric = make([]float64, len(c.Numeric))
		copy(out.Numeric, c.Numeric)
	}
	if c.Labels != nil {
		out.Labels = make([]string, len(c.Labels))
		copy(out.Labels, c.Labels)
	}
	return out
}

// Table is an ordered sequence of columns sharing a fixed row count, with
// an optional binary label vector for training tables.
type Table struct {
	columns []*Column
	byName  map[string]int
	nRows   int

	// Label is the binary target (0/1), present only on training tables.
	Label []float64
}

// NewTable builds a table from columns. All columns must share one length.
func NewTable(columns []*Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(columns))}
	for i, col := range columns {
		if i == 0 {
			t.nRows = col.Len()
		} else if col.Len() != t.nRows {
			return nil, errors.NewDimensionError("NewTable", t.nRows, col.Len(), 0)
		}
		if _, dup := t.byName[col.Name]; dup {
			return nil, errors.Newf("duplicate column name %q", col.Name)
		}
		t.byName[col.Name] = i
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.nRows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.columns) }

// Columns returns the columns in order.
func (t *Table) Columns() []*Column { return t.columns }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or nil if absent.
func (t *Table) Column(name string) *Column {
	idx, ok := t.byName[name]
	if !ok {
		return nil
	}
	return t.columns[idx]
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Clone returns a deep copy of the table, label included.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
	}
	out, _ := NewTable(cols)
	if t.Label != nil {
		out.Label = make([]float64, len(t.Label))
		copy(out.Label, t.Label)
	}
	return out
}

// DropColumns returns a new table without the named columns. The receiver
// is not mutated; dropped columns simply do not appear in the result.
func (t *Table) DropColumns(names map[string]bool) *Table {
	var kept []*Column
	for _, c := range t.columns {
		if !names[c.Name] {
			kept = append(kept, c.Clone())
		}
	}
	out, _ := NewTable(kept)
	if t.Label != nil {
		out.Label = make([]float64, len(t.Label))
		copy(out.Label, t.Label)
	}
	return out
}

// MissingCells returns the total number of missing cells in the table.
func (t *Table) MissingCells() int {
	n := 0
	for _, c := range t.columns {
		n += c.MissingCount()
	}
	return n
}

// SameSchema reports whether two tables carry the same column names and
// roles in the same order. Labels are ignored.
func SameSchema(a, b *Table) bool {
	if a.NumCols() != b.NumCols() {
		return false
	}
	for i, c := range a.columns {
		o := b.columns[i]
		if c.Name != o.Name || c.Role != o.Role {
			return false
		}
	}
	return true
}
