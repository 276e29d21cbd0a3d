package dataset

import (
	"math"
	"testing"
)

func numCol(name string, vals ...float64) *Column {
	return &Column{Name: name, Role: Numeric, Numeric: vals}
}

func catCol(name string, vals ...string) *Column {
	return &Column{Name: name, Role: Categorical, Labels: vals}
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable([]*Column{
		numCol("x0", 1, 2, 3),
		numCol("x1", 1, 2),
	})
	if err == nil {
		t.Fatal("mismatched column lengths should be rejected")
	}

	_, err = NewTable([]*Column{
		numCol("x0", 1),
		numCol("x0", 2),
	})
	if err == nil {
		t.Fatal("duplicate column names should be rejected")
	}
}

func TestColumnMissingStats(t *testing.T) {
	c := numCol("x0", 1, math.NaN(), 1, 2)
	if got := c.MissingCount(); got != 1 {
		t.Errorf("MissingCount = %d, want 1", got)
	}
	if got := c.DistinctCount(); got != 2 {
		t.Errorf("DistinctCount = %d, want 2", got)
	}

	s := catCol("x1", "a", "", "b", "a")
	if got := s.MissingCount(); got != 1 {
		t.Errorf("MissingCount = %d, want 1", got)
	}
	if got := s.DistinctCount(); got != 2 {
		t.Errorf("DistinctCount = %d, want 2", got)
	}
}

func TestDropColumnsDoesNotMutate(t *testing.T) {
	tbl, err := NewTable([]*Column{
		numCol("x0", 1, 2),
		catCol("x1", "a", "b"),
	})
	if err != nil {
		t.Fatal(err)
	}

	out := tbl.DropColumns(map[string]bool{"x1": true})

	if out.HasColumn("x1") {
		t.Error("dropped column still present in result")
	}
	if !tbl.HasColumn("x1") {
		t.Error("input table was mutated")
	}
	if out.NumRows() != 2 || out.NumCols() != 1 {
		t.Errorf("unexpected shape: %d x %d", out.NumRows(), out.NumCols())
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl, _ := NewTable([]*Column{numCol("x0", 1, 2)})
	tbl.Label = []float64{0, 1}

	cp := tbl.Clone()
	cp.Column("x0").Numeric[0] = 99
	cp.Label[0] = 1

	if tbl.Column("x0").Numeric[0] != 1 {
		t.Error("clone shares column storage with original")
	}
	if tbl.Label[0] != 0 {
		t.Error("clone shares label storage with original")
	}
}

func TestSameSchema(t *testing.T) {
	a, _ := NewTable([]*Column{numCol("x0", 1), catCol("x1", "a")})
	b, _ := NewTable([]*Column{numCol("x0", 2), catCol("x1", "b")})
	c, _ := NewTable([]*Column{catCol("x0", "1"), catCol("x1", "a")})

	if !SameSchema(a, b) {
		t.Error("identical schemas reported different")
	}
	if SameSchema(a, c) {
		t.Error("role mismatch not detected")
	}
}
