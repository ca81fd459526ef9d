package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Load reads a delimited file with a header row into a Dataset.  Every
// column is kept as a raw string column; use Coerce to convert the numeric
// ones.
func Load(path string) (*Dataset, error) {

	fid, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer fid.Close()

	return Read(fid)
}

// Read reads delimited data with a header row from r into a Dataset.
func Read(r io.Reader) (*Dataset, error) {

	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true

	names, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: reading header: %w", err)
	}

	cols := make([][]string, len(names))
	nrow := 0
	for {
		row, err := rd.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("dataset: reading row %d: %w", nrow+1, err)
		}
		for j, v := range row {
			cols[j] = append(cols[j], v)
		}
		nrow++
	}

	if nrow == 0 {
		return nil, fmt.Errorf("dataset: no data rows")
	}

	ds := &Dataset{
		pos:     make(map[string]int),
		raw:     make(map[string][]string, len(names)),
		numRows: nrow,
	}
	for j, na := range names {
		na = strings.TrimSpace(na)
		if _, ok := ds.raw[na]; ok {
			return nil, fmt.Errorf("dataset: duplicate column '%s'", na)
		}
		ds.raw[na] = cols[j]
		ds.rawOrd = append(ds.rawOrd, na)
	}

	return ds, nil
}

// parseNumber parses a source token as a float, treating empty and
// whitespace-only tokens as unparseable.
func parseNumber(t string) (float64, error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(t, 64)
}
