// Package formula implements a minimal Wilkinson-style additive model
// formula: terms joined by '+', where a term is a variable name or a
// pairwise interaction 'a:b'.  Expanding a formula against a dataset
// produces the design columns for a regression fit: numeric variables and
// 0/1 binary factors contribute their own column, k-level factors
// contribute k-1 reference-coded dummy columns, and interactions
// contribute element-wise products.
package formula

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/dataset"
)

// Term is one additive term of a parsed formula.
type Term struct {
	// Vars holds the variable names in the term: one name for a main
	// effect, two for an interaction.
	Vars []string
}

// String returns the term in formula notation.
func (t Term) String() string {
	return strings.Join(t.Vars, ":")
}

// Parse splits a formula into its additive terms.
func Parse(f string) ([]Term, error) {

	var terms []Term
	for _, part := range strings.Split(f, "+") {
		part = strings.Join(strings.Fields(part), "")
		if part == "" {
			continue
		}

		vars := strings.Split(part, ":")
		if len(vars) > 2 {
			return nil, fmt.Errorf("formula: term '%s' has more than two variables", part)
		}
		for _, v := range vars {
			if v == "" {
				return nil, fmt.Errorf("formula: malformed term '%s'", part)
			}
		}
		terms = append(terms, Term{Vars: vars})
	}

	if len(terms) == 0 {
		return nil, fmt.Errorf("formula: no terms in '%s'", f)
	}

	return terms, nil
}

// Expand parses the formula and appends any design columns it implies
// (factor dummies, interaction products) to the dataset.  It returns the
// augmented dataset and the ordered design column names.
func Expand(ds *dataset.Dataset, f string) (*dataset.Dataset, []string, error) {

	terms, err := Parse(f)
	if err != nil {
		return nil, nil, err
	}

	var names []string
	seen := make(map[string]bool)

	add := func(name string, vals []float64) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		names = append(names, name)
		if vals == nil {
			return nil
		}
		// A prior expansion may have appended this design column
		// already.
		if _, cerr := ds.Col(name); cerr == nil {
			return nil
		}
		ds, err = ds.WithColumn(name, vals)
		return err
	}

	for _, t := range terms {
		switch len(t.Vars) {
		case 1:
			cols, err := mainEffect(ds, t.Vars[0])
			if err != nil {
				return nil, nil, err
			}
			for _, c := range cols {
				if err := add(c.Name, c.Values); err != nil {
					return nil, nil, err
				}
			}
		case 2:
			acols, err := mainEffect(ds, t.Vars[0])
			if err != nil {
				return nil, nil, err
			}
			bcols, err := mainEffect(ds, t.Vars[1])
			if err != nil {
				return nil, nil, err
			}
			for _, a := range acols {
				for _, b := range bcols {
					av := a.Values
					if av == nil {
						if av, err = ds.Col(a.Name); err != nil {
							return nil, nil, err
						}
					}
					bv := b.Values
					if bv == nil {
						if bv, err = ds.Col(b.Name); err != nil {
							return nil, nil, err
						}
					}
					prod := make([]float64, len(av))
					for i := range av {
						prod[i] = av[i] * bv[i]
					}
					if err := add(a.Name+":"+b.Name, prod); err != nil {
						return nil, nil, err
					}
				}
			}
		}
	}

	return ds, names, nil
}

// designCol is one design column implied by a main effect.  Values is nil
// when the column already exists in the dataset under Name.
type designCol struct {
	Name   string
	Values []float64
}

// mainEffect resolves a variable name to its design columns.
func mainEffect(ds *dataset.Dataset, name string) ([]designCol, error) {

	col, err := ds.Column(name)
	if err != nil {
		return nil, err
	}

	if col.Levels == nil || isBinary(col) {
		return []designCol{{Name: name}}, nil
	}

	// Multi-level factor: reference-code against the lowest level.
	codes := make([]float64, 0, len(col.Levels))
	for c := range col.Levels {
		codes = append(codes, c)
	}
	sort.Float64s(codes)

	var cols []designCol
	for _, c := range codes[1:] {
		vals := make([]float64, len(col.Values))
		for i, v := range col.Values {
			switch {
			case math.IsNaN(v):
				vals[i] = math.NaN()
			case v == c:
				vals[i] = 1
			}
		}
		cols = append(cols, designCol{
			Name:   fmt.Sprintf("%s[%s]", name, col.Levels[c]),
			Values: vals,
		})
	}

	return cols, nil
}

// isBinary reports whether a factor column is a plain 0/1 indicator, which
// can serve directly as a design column.
func isBinary(col dataset.Column) bool {

	if len(col.Levels) != 2 {
		return false
	}
	_, has0 := col.Levels[0]
	_, has1 := col.Levels[1]
	return has0 && has1
}
