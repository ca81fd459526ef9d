package stats

import (
	"bytes"
	"fmt"
	"strings"
)

// Fmter formats the elements of an array of values for one table column.
// The second argument is the column header, which may be used to set the
// column width.
type Fmter func(interface{}, string) []string

// FmtString returns a Fmter for left-justified string columns.
func FmtString() Fmter {
	return func(x interface{}, h string) []string {
		y := x.([]string)
		m := len(h)
		for i := range y {
			if len(y[i]) > m {
				m = len(y[i])
			}
		}
		z := make([]string, len(y))
		c := fmt.Sprintf("%%-%ds", m)
		for i := range y {
			z[i] = fmt.Sprintf(c, y[i])
		}
		return z
	}
}

// FmtFloat returns a Fmter rendering float columns with the given
// fmt verb, e.g. "%10.4f".
func FmtFloat(verb string) Fmter {
	return func(x interface{}, h string) []string {
		y := x.([]float64)
		s := make([]string, len(y))
		for i := range y {
			s[i] = fmt.Sprintf(verb, y[i])
		}
		return s
	}
}

// SummaryTable holds the summary values for a fitted model or test, and
// renders them as a fixed-width text table.
type SummaryTable struct {

	// Title
	Title string

	// Column names
	ColNames []string

	// Formatters for the column values
	ColFmt []Fmter

	// Cols[j] is the j^th column.  Its concrete type should be an
	// array, e.g. of numbers or strings.
	Cols []interface{}

	// Values at the top of the summary
	Top []string

	// Messages displayed below the table
	Msg []string

	// Total width of the table
	tw int
}

// line returns a horizontal rule of the given character filling the width
// of the table.
func (s *SummaryTable) line(c string) string {
	return strings.Repeat(c, s.tw) + "\n"
}

// top renders the key/value region above the column headers, two fields
// per row.
func (s *SummaryTable) top(gap int) string {

	if len(s.Top) == 0 {
		return ""
	}

	w := []int{0, 0}
	for j, x := range s.Top {
		if len(x) > w[j%2] {
			w[j%2] = len(x)
		}
	}

	var b bytes.Buffer
	for j, x := range s.Top {
		c := fmt.Sprintf("%%-%ds", w[j%2])
		b.WriteString(fmt.Sprintf(c, x))
		if j%2 == 1 {
			b.WriteString("\n")
		} else {
			b.WriteString(strings.Repeat(" ", gap))
		}
	}
	if len(s.Top)%2 == 1 {
		b.WriteString("\n")
	}

	return b.String()
}

// String returns the table as a string.
func (s *SummaryTable) String() string {

	var tab [][]string
	var wx []int
	for j, c := range s.Cols {
		u := s.ColFmt[j](c, s.ColNames[j])
		tab = append(tab, u)
		w := len(s.ColNames[j])
		if len(u) > 0 && len(u[0]) > w {
			w = len(u[0])
		}
		wx = append(wx, w)
	}

	const gap = 10

	s.tw = 0
	for _, w := range wx {
		s.tw += w
	}
	if s.tw < len(s.Title) {
		s.tw = len(s.Title)
	}
	for _, x := range s.Top {
		if s.tw < gap+2*len(x) {
			s.tw = gap + 2*len(x)
		}
	}

	var buf bytes.Buffer

	// Center the title
	kr := (s.tw - len(s.Title)) / 2
	if kr < 0 {
		kr = 0
	}
	buf.WriteString(strings.Repeat(" ", kr))
	buf.WriteString(s.Title)
	buf.WriteString("\n")

	buf.WriteString(s.line("="))
	if len(s.Top) > 0 {
		buf.WriteString(s.top(gap))
		buf.WriteString(s.line("-"))
	}

	for j, c := range s.ColNames {
		f := fmt.Sprintf("%%%ds", wx[j])
		buf.WriteString(fmt.Sprintf(f, c))
	}
	buf.WriteString("\n")
	buf.WriteString(s.line("-"))

	if len(tab) > 0 {
		for i := 0; i < len(tab[0]); i++ {
			for j := 0; j < len(tab); j++ {
				f := fmt.Sprintf("%%%ds", wx[j])
				buf.WriteString(fmt.Sprintf(f, tab[j][i]))
			}
			buf.WriteString("\n")
		}
	}
	buf.WriteString(s.line("-"))

	for _, msg := range s.Msg {
		buf.WriteString(msg + "\n")
	}

	return buf.String()
}
