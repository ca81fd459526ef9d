package analysis

import (
	"fmt"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/dataset"
)

// LoadClean reads the GBCS CSV file and applies the cleaning step: numeric
// coercion, factor derivation, median-split binning, and removal of the
// raw source columns.
func LoadClean(path string) (*dataset.Dataset, error) {

	ds, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}

	return Clean(ds)
}

// Clean derives the analysis columns from a freshly loaded GBCS table.
//
// The flag factors compare the verbatim source token against "1": a file
// that writes the flags with a different textual form (e.g. "1.0") labels
// every row with the negative level.  This mirrors the original analysis;
// the GBCS file encodes these flags as bare integer tokens, for which the
// comparison is exact.
func Clean(ds *dataset.Dataset) (*dataset.Dataset, error) {

	ds, err := ds.Coerce(NumericCols...)
	if err != nil {
		return nil, fmt.Errorf("analysis: coercing numeric columns: %w", err)
	}

	ds, err = ds.WithFlagFactor("menopause_f", "menopause", "1", "Yes", "No")
	if err != nil {
		return nil, err
	}
	ds, err = ds.WithFlagFactor("hormone_f", "hormone", "1", "Yes", "No")
	if err != nil {
		return nil, err
	}
	ds, err = ds.WithFlagFactor("censrec_f", "censrec", "1", "Recurrence", "Censored")
	if err != nil {
		return nil, err
	}

	ds, err = ds.Coerce("grade")
	if err != nil {
		return nil, err
	}
	ds, err = ds.WithCategorical("grade_f", "grade")
	if err != nil {
		return nil, err
	}

	ds, err = ds.WithThresholdSplit("age_med_f", "age", AgeSplit, "Above(>53)", "Below(<=53)")
	if err != nil {
		return nil, err
	}
	ds, err = ds.WithThresholdSplit("rectime_med_f", "rectime", RectimeSplit, "Above", "Below")
	if err != nil {
		return nil, err
	}

	ds, err = ds.Drop(DropCols...)
	if err != nil {
		return nil, fmt.Errorf("analysis: dropping raw columns: %w", err)
	}

	return ds, nil
}
