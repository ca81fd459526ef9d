package duration

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/stats"
)

// TimeTransform selects the transform applied to the event times in the
// proportional hazards assumption test.
type TimeTransform string

// RankTransform replaces each event time with its rank among the event
// times (average ranks for ties), IdentityTransform uses the times
// unchanged, and KMTransform uses one minus the Kaplan-Meier survival
// estimate at each event time.
const (
	RankTransform     TimeTransform = "rank"
	IdentityTransform TimeTransform = "identity"
	KMTransform       TimeTransform = "km"
)

// PHTestResult holds the results of the Grambsch-Therneau test of the
// proportional hazards assumption: a 1-df chi-square statistic per
// covariate and a p-df global statistic.
type PHTestResult struct {

	// Covariate names.
	Names []string

	// Per-covariate chi-square statistics and p-values.
	Stat []float64
	P    []float64

	// Global chi-square statistic, degrees of freedom, and p-value.
	GlobalStat float64
	GlobalDF   int
	GlobalP    float64

	// The time transform used.
	Transform TimeTransform
}

// TestPH runs the Grambsch-Therneau test of the proportional hazards
// assumption against a fitted proportional hazards model, correlating the
// Schoenfeld residuals with the transformed event times.
func TestPH(rslt *PHResults, transform TimeTransform) (*PHTestResult, error) {

	ph := rslt.Model().(*PHReg)
	p := ph.NumParams()
	if p == 0 {
		return nil, fmt.Errorf("duration: proportional hazards test requires covariates")
	}

	vcov := rslt.VCov()
	if vcov == nil {
		return nil, fmt.Errorf("duration: proportional hazards test requires a sampling covariance matrix")
	}

	times, resid := rslt.SchoenfeldTimes()
	d := len(times)
	if d < 2 {
		return nil, fmt.Errorf("duration: too few events for a proportional hazards test")
	}

	g, err := transformTimes(ph, times, transform)
	if err != nil {
		return nil, err
	}

	// Center the transformed times.
	var gbar float64
	for _, v := range g {
		gbar += v
	}
	gbar /= float64(d)
	var gss float64
	for i := range g {
		g[i] -= gbar
		gss += g[i] * g[i]
	}
	if gss <= 0 {
		return nil, fmt.Errorf("duration: transformed event times are constant")
	}

	// u = sum of centered-time weighted Schoenfeld residuals
	u := make([]float64, p)
	for e, r := range resid {
		for j := 0; j < p; j++ {
			u[j] += g[e] * r[j]
		}
	}

	// vu = vcov * u
	vu := make([]float64, p)
	for j := 0; j < p; j++ {
		for k := 0; k < p; k++ {
			vu[j] += vcov[j*p+k] * u[k]
		}
	}

	dd := float64(d)
	chi1 := distuv.ChiSquared{K: 1}
	out := &PHTestResult{
		Names:     append([]string(nil), ph.Names()...),
		Transform: transform,
		GlobalDF:  p,
	}

	for j := 0; j < p; j++ {
		t := dd * vu[j] * vu[j] / (vcov[j*p+j] * gss)
		out.Stat = append(out.Stat, t)
		out.P = append(out.P, chi1.Survival(t))
	}

	var tg float64
	for j := 0; j < p; j++ {
		tg += u[j] * vu[j]
	}
	out.GlobalStat = dd * tg / gss
	out.GlobalP = distuv.ChiSquared{K: float64(p)}.Survival(out.GlobalStat)

	return out, nil
}

// SchoenfeldTimes returns the event times and Schoenfeld residuals of the
// fitted model.
func (rslt *PHResults) SchoenfeldTimes() ([]float64, [][]float64) {
	ph := rslt.Model().(*PHReg)
	return ph.SchoenfeldResid(rslt.Params())
}

// transformTimes applies the selected time transform to the event times,
// which arrive sorted.
func transformTimes(ph *PHReg, times []float64, transform TimeTransform) ([]float64, error) {

	g := make([]float64, len(times))

	switch transform {
	case IdentityTransform:
		copy(g, times)

	case RankTransform:
		// Average ranks for tied event times.
		for i := 0; i < len(times); {
			j := i
			for j < len(times) && times[j] == times[i] {
				j++
			}
			r := float64(i+j+1) / 2
			for k := i; k < j; k++ {
				g[k] = r
			}
			i = j
		}

	case KMTransform:
		sf, err := NewSurvfuncRight(ph.time, ph.status)
		if err != nil {
			return nil, err
		}
		st := sf.Time()
		sp := sf.SurvProb()
		for i, t := range times {
			ii := sort.SearchFloat64s(st, t)
			if ii == len(st) || st[ii] > t {
				ii--
			}
			if ii >= 0 {
				g[i] = 1 - sp[ii]
			}
		}

	default:
		return nil, fmt.Errorf("duration: unknown time transform '%s'", transform)
	}

	return g, nil
}

// Summary returns the test results as a summary table with one row per
// covariate plus a global row.
func (r *PHTestResult) Summary() *stats.SummaryTable {

	names := append([]string(nil), r.Names...)
	names = append(names, "GLOBAL")

	stat := append([]float64(nil), r.Stat...)
	stat = append(stat, r.GlobalStat)

	df := make([]float64, len(r.Names))
	for i := range df {
		df[i] = 1
	}
	df = append(df, float64(r.GlobalDF))

	pv := append([]float64(nil), r.P...)
	pv = append(pv, r.GlobalP)

	return &stats.SummaryTable{
		Title: "Proportional hazards assumption test",
		Top: []string{
			fmt.Sprintf("  Time transform: %s", r.Transform),
		},
		ColNames: []string{"Variable   ", "Chi-square", "DF", "P-value"},
		ColFmt: []stats.Fmter{
			stats.FmtString(),
			stats.FmtFloat("%10.4f"),
			stats.FmtFloat("%6.0f"),
			stats.FmtFloat("%10.4f"),
		},
		Cols: []interface{}{names, stat, df, pv},
	}
}
