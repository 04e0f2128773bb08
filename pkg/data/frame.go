package data

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyDataset is returned when a frame has no rows.
	ErrEmptyDataset = errors.New("data: empty dataset")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("data: missing column")
	// ErrInvalidTarget is returned when the target column is not a binary 0/1 numeric column.
	ErrInvalidTarget = errors.New("data: invalid target column")
)

// Kind is the semantic type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Column is a typed, named column. Numeric columns mark missing values with NaN,
// categorical columns with the empty string.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Cat  []string
}

// NewNumeric builds a numeric column.
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Num: values}
}

// NewCategorical builds a categorical column.
func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Cat: values}
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	if c.Kind == Categorical {
		return len(c.Cat)
	}
	return len(c.Num)
}

// IsMissing reports whether row i holds a missing value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Categorical {
		return c.Cat[i] == ""
	}
	return math.IsNaN(c.Num[i])
}

// Present returns the non-missing numeric values.
func (c *Column) Present() []float64 {
	out := make([]float64, 0, len(c.Num))
	for _, v := range c.Num {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Categorical {
		out.Cat = make([]string, len(idx))
		for i, r := range idx {
			out.Cat[i] = c.Cat[r]
		}
		return out
	}
	out.Num = make([]float64, len(idx))
	for i, r := range idx {
		out.Num[i] = c.Num[r]
	}
	return out
}

// Frame is an ordered set of equal-length columns. Frames are treated as immutable:
// every operation returns a new Frame and never writes into the receiver's columns.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewFrame validates that all columns have the same length and unique names.
func NewFrame(cols ...*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.index[c.Name]; dup {
			return nil, fmt.Errorf("data: duplicate column %q", c.Name)
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("data: column %q has %d rows, want %d", c.Name, c.Len(), f.rows)
		}
		f.index[c.Name] = i
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns the columns in frame order.
func (f *Frame) Columns() []*Column { return f.cols }

// Names returns the column names in frame order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Has reports whether every named column is present.
func (f *Frame) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := f.index[n]; !ok {
			return false
		}
	}
	return true
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	kept := make([]*Column, 0, len(f.cols))
	for _, c := range f.cols {
		if !skip[c.Name] {
			kept = append(kept, c)
		}
	}
	out, _ := NewFrame(kept...)
	if len(kept) == 0 {
		out.rows = f.rows
	}
	return out
}

// With returns a frame with col appended, or replacing a column of the same name in place.
func (f *Frame) With(col *Column) (*Frame, error) {
	cols := append([]*Column(nil), f.cols...)
	if i, ok := f.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return NewFrame(cols...)
}

// Take returns the rows at idx, in idx order.
func (f *Frame) Take(idx []int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.take(idx)
	}
	out, _ := NewFrame(cols...)
	out.rows = len(idx)
	return out
}

// Concat stacks b under a. Both frames must have the same column names and kinds.
func Concat(a, b *Frame) (*Frame, error) {
	if len(a.cols) != len(b.cols) {
		return nil, fmt.Errorf("data: concat column count %d != %d", len(a.cols), len(b.cols))
	}
	cols := make([]*Column, len(a.cols))
	for i, ca := range a.cols {
		cb, ok := b.Column(ca.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q in second frame", ErrMissingColumn, ca.Name)
		}
		if ca.Kind != cb.Kind {
			return nil, fmt.Errorf("data: column %q is %s in one frame and %s in the other", ca.Name, ca.Kind, cb.Kind)
		}
		out := &Column{Name: ca.Name, Kind: ca.Kind}
		if ca.Kind == Categorical {
			out.Cat = append(append(make([]string, 0, len(ca.Cat)+len(cb.Cat)), ca.Cat...), cb.Cat...)
		} else {
			out.Num = append(append(make([]float64, 0, len(ca.Num)+len(cb.Num)), ca.Num...), cb.Num...)
		}
		cols[i] = out
	}
	return NewFrame(cols...)
}

// Labels extracts a binary 0/1 target column.
func (f *Frame) Labels(target string) ([]int, error) {
	c, ok := f.Column(target)
	if !ok {
		return nil, fmt.Errorf("%w: target %q", ErrMissingColumn, target)
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("%w: %q is %s", ErrInvalidTarget, target, c.Kind)
	}
	y := make([]int, len(c.Num))
	for i, v := range c.Num {
		switch v {
		case 0:
			y[i] = 0
		case 1:
			y[i] = 1
		default:
			return nil, fmt.Errorf("%w: %q row %d has value %v", ErrInvalidTarget, target, i, v)
		}
	}
	return y, nil
}
