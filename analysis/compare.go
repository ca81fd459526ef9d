package analysis

import (
	"fmt"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/duration"
	"github.com/niecestroa/survival-analysis-german-breast-cancer/stats"
)

// Comparison holds the side-by-side Cox and transformed-Weibull
// coefficients for the final model, one row per design column.
type Comparison struct {
	Names     []string
	Cox       []float64
	WeibullPH []float64
}

// BuildComparison aligns the final Cox coefficients with the Weibull AFT
// coefficients transformed to the proportional hazards scale.  Alignment
// is by covariate name: both fits must cover the same design columns, and
// a column missing from either side is an error rather than a silently
// shifted row.
func BuildComparison(cox *duration.PHResults, weib *duration.WeibullResults) (*Comparison, error) {

	wph := weib.PHParams()

	cmp := &Comparison{}
	for i, na := range cox.Names() {
		w, ok := wph[na]
		if !ok {
			return nil, fmt.Errorf("analysis: covariate '%s' missing from the Weibull fit", na)
		}
		cmp.Names = append(cmp.Names, na)
		cmp.Cox = append(cmp.Cox, cox.Params()[i])
		cmp.WeibullPH = append(cmp.WeibullPH, w)
	}

	if len(wph) != len(cmp.Names) {
		return nil, fmt.Errorf("analysis: Weibull fit has %d covariates, Cox fit has %d",
			len(wph), len(cmp.Names))
	}

	return cmp, nil
}

// Summary returns the comparison as a summary table.
func (c *Comparison) Summary() *stats.SummaryTable {

	return &stats.SummaryTable{
		Title: "Cox vs Weibull coefficient comparison",
		Top: []string{
			fmt.Sprintf("  Covariates: %d", len(c.Names)),
			"  Weibull scale: PH transform",
		},
		ColNames: []string{"Variable   ", "Cox coef", "Weibull PH coef"},
		ColFmt: []stats.Fmter{
			stats.FmtString(),
			stats.FmtFloat("%10.4f"),
			stats.FmtFloat("%15.4f"),
		},
		Cols: []interface{}{c.Names, c.Cox, c.WeibullPH},
	}
}
