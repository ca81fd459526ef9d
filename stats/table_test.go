package stats

import (
	"strings"
	"testing"
)

func TestSummaryTable(t *testing.T) {

	s := &SummaryTable{
		Title:    "Test model",
		Top:      []string{"Sample size: 10", "Events: 4"},
		ColNames: []string{"Variable  ", "  Estimate"},
		ColFmt:   []Fmter{FmtString(), FmtFloat("%10.4f")},
		Cols: []interface{}{
			[]string{"size", "rectime"},
			[]float64{0.25, -0.0012},
		},
		Msg: []string{"Note line"},
	}

	txt := s.String()

	for _, frag := range []string{
		"Test model",
		"Sample size: 10",
		"Variable",
		"Estimate",
		"size",
		"rectime",
		"0.2500",
		"-0.0012",
		"Note line",
	} {
		if !strings.Contains(txt, frag) {
			t.Errorf("summary table missing %q", frag)
		}
	}
}

func TestFmtString(t *testing.T) {

	f := FmtString()
	u := f([]string{"a", "longer"}, "hd")

	// Left-justified, padded to the widest entry.
	if u[0] != "a     " || u[1] != "longer" {
		t.Fail()
	}
}

func TestFmtFloat(t *testing.T) {

	f := FmtFloat("%8.2f")
	u := f([]float64{1.234, -5}, "x")
	if u[0] != "    1.23" || u[1] != "   -5.00" {
		t.Fail()
	}
}
