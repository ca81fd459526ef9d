// Package dataset provides a small column-major in-memory table for
// statistical analysis: numeric columns with optional factor level labels,
// raw string columns as read from the source file, and derivation
// operations that return new tables rather than mutating in place.
package dataset

import (
	"fmt"
	"math"
	"sort"
)

// Column is one numeric column of a Dataset.  Factor columns carry a
// Levels map from the stored numeric code to its display label; Levels is
// nil for ordinary numeric columns.
type Column struct {
	Name   string
	Values []float64
	Levels map[float64]string
}

// Dataset is an immutable table of named columns.  All derivation methods
// return a new Dataset sharing column storage with the receiver; column
// values are never written in place.
type Dataset struct {
	cols []Column
	pos  map[string]int

	// Raw string columns, as read from the source file.  Used to
	// derive flag factors from the exact source tokens, then dropped.
	raw     map[string][]string
	rawOrd  []string
	numRows int
}

// New creates a Dataset from the given columns.
func New(cols []Column) (*Dataset, error) {

	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset: no columns")
	}

	n := len(cols[0].Values)
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		if len(c.Values) != n {
			return nil, fmt.Errorf("dataset: column '%s' has %d values, want %d", c.Name, len(c.Values), n)
		}
		if _, ok := pos[c.Name]; ok {
			return nil, fmt.Errorf("dataset: duplicate column '%s'", c.Name)
		}
		pos[c.Name] = i
	}

	return &Dataset{cols: cols, pos: pos, numRows: n}, nil
}

// NumObs returns the number of rows in the table.
func (ds *Dataset) NumObs() int {
	return ds.numRows
}

// Names returns the numeric column names in order.
func (ds *Dataset) Names() []string {
	na := make([]string, len(ds.cols))
	for i, c := range ds.cols {
		na[i] = c.Name
	}
	return na
}

// RawNames returns the names of the raw string columns in order.
func (ds *Dataset) RawNames() []string {
	return ds.rawOrd
}

// Col returns the values of the named numeric column.
func (ds *Dataset) Col(name string) ([]float64, error) {
	i, ok := ds.pos[name]
	if !ok {
		return nil, fmt.Errorf("dataset: column '%s' not found", name)
	}
	return ds.cols[i].Values, nil
}

// Column returns the named column including its factor labels.
func (ds *Dataset) Column(name string) (Column, error) {
	i, ok := ds.pos[name]
	if !ok {
		return Column{}, fmt.Errorf("dataset: column '%s' not found", name)
	}
	return ds.cols[i], nil
}

// Raw returns the raw string tokens of the named source column.
func (ds *Dataset) Raw(name string) ([]string, error) {
	v, ok := ds.raw[name]
	if !ok {
		return nil, fmt.Errorf("dataset: raw column '%s' not found", name)
	}
	return v, nil
}

// clone returns a shallow copy of the table structure.  Column storage is
// shared; the copies of the index slices and maps are independent.
func (ds *Dataset) clone() *Dataset {

	c := &Dataset{
		cols:    make([]Column, len(ds.cols)),
		pos:     make(map[string]int, len(ds.pos)),
		numRows: ds.numRows,
	}
	copy(c.cols, ds.cols)
	for k, v := range ds.pos {
		c.pos[k] = v
	}
	if ds.raw != nil {
		c.raw = make(map[string][]string, len(ds.raw))
		for k, v := range ds.raw {
			c.raw[k] = v
		}
		c.rawOrd = append([]string(nil), ds.rawOrd...)
	}
	return c
}

func (ds *Dataset) append(col Column) (*Dataset, error) {

	if _, ok := ds.pos[col.Name]; ok {
		return nil, fmt.Errorf("dataset: column '%s' already exists", col.Name)
	}
	if len(col.Values) != ds.numRows {
		return nil, fmt.Errorf("dataset: column '%s' has %d values, want %d", col.Name, len(col.Values), ds.numRows)
	}

	c := ds.clone()
	c.pos[col.Name] = len(c.cols)
	c.cols = append(c.cols, col)
	return c, nil
}

// WithColumn returns a new Dataset with vals appended as a numeric column.
func (ds *Dataset) WithColumn(name string, vals []float64) (*Dataset, error) {
	return ds.append(Column{Name: name, Values: vals})
}

// Coerce returns a new Dataset in which each named raw column is converted
// to a numeric column.  Tokens that do not parse as numbers become NaN.
func (ds *Dataset) Coerce(names ...string) (*Dataset, error) {

	out := ds
	for _, na := range names {
		tok, err := out.Raw(na)
		if err != nil {
			return nil, err
		}
		vals := make([]float64, len(tok))
		for i, t := range tok {
			v, err := parseNumber(t)
			if err != nil {
				v = math.NaN()
			}
			vals[i] = v
		}
		out, err = out.append(Column{Name: na, Values: vals})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WithFlagFactor returns a new Dataset with a binary factor column, coded
// 1 where the raw source token exactly equals match, 0 otherwise.  The
// comparison is on the verbatim source token, not its numeric value.
func (ds *Dataset) WithFlagFactor(name, from, match, yes, no string) (*Dataset, error) {

	tok, err := ds.Raw(from)
	if err != nil {
		return nil, err
	}

	vals := make([]float64, len(tok))
	for i, t := range tok {
		if t == match {
			vals[i] = 1
		}
	}

	return ds.append(Column{
		Name:   name,
		Values: vals,
		Levels: map[float64]string{1: yes, 0: no},
	})
}

// WithCategorical returns a new Dataset with an unordered factor column
// derived from the distinct values of the named numeric column.  Level
// labels are the integer codes; NaN codes stay NaN.
func (ds *Dataset) WithCategorical(name, from string) (*Dataset, error) {

	x, err := ds.Col(from)
	if err != nil {
		return nil, err
	}

	seen := make(map[float64]bool)
	var codes []float64
	for _, v := range x {
		if !math.IsNaN(v) && !seen[v] {
			seen[v] = true
			codes = append(codes, v)
		}
	}
	sort.Float64s(codes)

	levels := make(map[float64]string, len(codes))
	for _, c := range codes {
		levels[c] = fmt.Sprintf("%g", c)
	}

	vals := make([]float64, len(x))
	copy(vals, x)

	return ds.append(Column{Name: name, Values: vals, Levels: levels})
}

// WithThresholdSplit returns a new Dataset with a binary factor column,
// coded 1 (labeled above) where the source value is strictly greater than
// the threshold, 0 (labeled below) otherwise.  NaN values fall in the
// below group, matching the behavior of the original analysis.
func (ds *Dataset) WithThresholdSplit(name, from string, threshold float64, above, below string) (*Dataset, error) {

	x, err := ds.Col(from)
	if err != nil {
		return nil, err
	}

	vals := make([]float64, len(x))
	for i, v := range x {
		if v > threshold {
			vals[i] = 1
		}
	}

	return ds.append(Column{
		Name:   name,
		Values: vals,
		Levels: map[float64]string{1: above, 0: below},
	})
}

// Drop returns a new Dataset without the named columns.  Each name must
// refer to a numeric or raw column.
func (ds *Dataset) Drop(names ...string) (*Dataset, error) {

	drop := make(map[string]bool, len(names))
	for _, na := range names {
		_, isNum := ds.pos[na]
		_, isRaw := ds.raw[na]
		if !isNum && !isRaw {
			return nil, fmt.Errorf("dataset: column '%s' not found", na)
		}
		drop[na] = true
	}

	c := &Dataset{
		pos:     make(map[string]int),
		numRows: ds.numRows,
	}
	for _, col := range ds.cols {
		if !drop[col.Name] {
			c.pos[col.Name] = len(c.cols)
			c.cols = append(c.cols, col)
		}
	}
	for _, na := range ds.rawOrd {
		if !drop[na] {
			if c.raw == nil {
				c.raw = make(map[string][]string)
			}
			c.raw[na] = ds.raw[na]
			c.rawOrd = append(c.rawOrd, na)
		}
	}

	if len(c.cols) == 0 && len(c.rawOrd) == 0 {
		return nil, fmt.Errorf("dataset: dropping all columns")
	}

	return c, nil
}

// CompleteCases returns the row indices where every named column is
// non-NaN.
func (ds *Dataset) CompleteCases(names ...string) ([]int, error) {

	cols := make([][]float64, len(names))
	for j, na := range names {
		x, err := ds.Col(na)
		if err != nil {
			return nil, err
		}
		cols[j] = x
	}

	var keep []int
	for i := 0; i < ds.numRows; i++ {
		ok := true
		for _, x := range cols {
			if math.IsNaN(x[i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return keep, nil
}
