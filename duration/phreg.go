// Package duration supports statistical analysis of duration (survival)
// data: proportional hazards regression, Kaplan-Meier estimation, Weibull
// accelerated failure time models, residual diagnostics, and a
// proportional hazards assumption test.
package duration

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/dataset"
	"github.com/niecestroa/survival-analysis-german-breast-cancer/stats"
)

// PHReg describes a proportional hazards regression model for right
// censored data, using the Breslow method to resolve ties.
type PHReg struct {

	// Names of the covariates, in the order of x.
	xnames []string

	// Event/censoring times and status indicators, restricted to
	// complete cases.
	time   []float64
	status []float64

	// Covariate columns, restricted to complete cases.  x[j][i] is
	// the value of covariate j for case i.
	x [][]float64

	// Row indices of the complete cases in the source dataset.
	rows []int

	// The sorted distinct times at which events occur.
	etimes []float64

	// enter[k], event[k], and exit[k] are the case indices that
	// enter the risk set, have an event, or exit the risk set at the
	// kth distinct event time.
	enter [][]int
	event [][]int
	exit  [][]int

	// The sum of covariates over cases with events.
	sumx []float64

	// If skip[i] is true, case i contributes nothing to the partial
	// likelihood since it is censored before the first event.
	skip []bool

	// The number of cases censored before the first event.
	skipEarlyCensor int

	// Starting values, optional.
	start []float64

	// Optimization settings and method.
	optsettings *optimize.Settings
	optmethod   optimize.Method

	log *log.Logger
}

// PHRegConfig defines configuration parameters for a proportional hazards
// regression.
type PHRegConfig struct {

	// A logger to which fitting information is written.
	Log *log.Logger

	// Start contains starting values for the coefficient estimates.
	Start []float64

	// OptMethod is the gonum optimization method used to fit the model.
	OptMethod optimize.Method

	// OptSettings configures the gonum optimization routine.
	OptSettings *optimize.Settings
}

// DefaultPHRegConfig returns a default configuration for a proportional
// hazards regression.
func DefaultPHRegConfig() *PHRegConfig {
	return &PHRegConfig{
		OptMethod: &optimize.BFGS{
			Linesearcher: &optimize.MoreThuente{},
		},
	}
}

// NewPHReg returns a PHReg value that can be used to fit a proportional
// hazards regression model.  An empty predictor list specifies the null
// (baseline hazard only) model.  Cases with a missing value in the time,
// status, or any predictor variable are excluded.
func NewPHReg(ds *dataset.Dataset, time, status string, predictors []string, config *PHRegConfig) (*PHReg, error) {

	if config == nil {
		config = DefaultPHRegConfig()
	}

	need := append([]string{time, status}, predictors...)
	rows, err := ds.CompleteCases(need...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("duration: no complete cases for proportional hazards fit")
	}

	take := func(x []float64) []float64 {
		y := make([]float64, len(rows))
		for i, r := range rows {
			y[i] = x[r]
		}
		return y
	}

	tcol, err := ds.Col(time)
	if err != nil {
		return nil, err
	}
	scol, err := ds.Col(status)
	if err != nil {
		return nil, err
	}

	ph := &PHReg{
		xnames:      append([]string(nil), predictors...),
		time:        take(tcol),
		status:      take(scol),
		rows:        rows,
		start:       config.Start,
		log:         config.Log,
		optsettings: config.OptSettings,
		optmethod:   config.OptMethod,
	}

	for _, na := range predictors {
		xcol, err := ds.Col(na)
		if err != nil {
			return nil, err
		}
		ph.x = append(ph.x, take(xcol))
	}

	for i, t := range ph.time {
		if t <= 0 {
			return nil, fmt.Errorf("duration: survival time %v at case %d is not positive", t, i)
		}
		if ph.status[i] != 0 && ph.status[i] != 1 {
			return nil, fmt.Errorf("duration: status variable '%s' has values other than 0 and 1", status)
		}
	}

	ph.setupTimes()
	ph.setupCovs()

	return ph, nil
}

// NumObs returns the number of cases used to fit the model.
func (ph *PHReg) NumObs() int {
	return len(ph.time)
}

// NumParams returns the number of model parameters (regression coefficients).
func (ph *PHReg) NumParams() int {
	return len(ph.x)
}

// Names returns the covariate names.
func (ph *PHReg) Names() []string {
	return ph.xnames
}

// Rows returns the source dataset row indices of the cases used to fit the
// model, in model case order.
func (ph *PHReg) Rows() []int {
	return ph.rows
}

// Time returns the event/censoring times of the cases used to fit the model.
func (ph *PHReg) Time() []float64 {
	return ph.time
}

// Status returns the status indicators of the cases used to fit the model.
func (ph *PHReg) Status() []float64 {
	return ph.status
}

// setupTimes builds the risk set entry/event/exit index structure over the
// sorted distinct event times.
func (ph *PHReg) setupTimes() {

	// Sorted distinct times where events occur
	var et []float64
	for i, t := range ph.time {
		if ph.status[i] == 1 {
			et = append(et, t)
		}
	}
	sort.Float64s(et)
	if len(et) > 0 {
		j := 0
		for i := 1; i < len(et); i++ {
			if et[i] != et[j] {
				j++
				et[j] = et[i]
			}
		}
		et = et[0 : j+1]
	}
	ph.etimes = et

	ph.enter = make([][]int, len(et))
	ph.exit = make([][]int, len(et))
	ph.event = make([][]int, len(et))
	ph.skip = make([]bool, len(ph.time))

	if len(et) == 0 {
		return
	}

	// Risk set exit times
	for i, t := range ph.time {
		ii := sort.SearchFloat64s(et, t)
		switch {
		case ii == len(et):
			// Censored after the last event, never exits
		case et[ii] == t:
			// Event, or censored at an event time
			ph.exit[ii] = append(ph.exit[ii], i)
		case ii == 0:
			// Censored before the first event, never enters
			ph.skip[i] = true
			ph.skipEarlyCensor++
		default:
			// Censored between event times
			ph.exit[ii-1] = append(ph.exit[ii-1], i)
		}
	}

	// Event times
	for i, t := range ph.time {
		if ph.status[i] == 0 || ph.skip[i] {
			continue
		}
		ii := sort.SearchFloat64s(et, t)
		ph.event[ii] = append(ph.event[ii], i)
	}

	// Everyone enters at time 0
	for i := range ph.time {
		if !ph.skip[i] {
			ph.enter[0] = append(ph.enter[0], i)
		}
	}
}

// setupCovs computes the sum of covariates over cases with events.
func (ph *PHReg) setupCovs() {

	ph.sumx = make([]float64, len(ph.x))
	for j, x := range ph.x {
		for i := range x {
			if !ph.skip[i] && ph.status[i] == 1 {
				ph.sumx[j] += x[i]
			}
		}
	}
}

// linpred fills lp with the linear predictor at the given coefficients.
func (ph *PHReg) linpred(params, lp []float64) {
	zero(lp)
	for j, x := range ph.x {
		for i := range x {
			lp[i] += x[i] * params[j]
		}
	}
}

// LinearPredictors returns the linear predictor of each case at the given
// coefficients, usable as risk scores.
func (ph *PHReg) LinearPredictors(params []float64) []float64 {
	lp := make([]float64, ph.NumObs())
	ph.linpred(params, lp)
	return lp
}

// LogLike returns the log partial likelihood at the given parameter value.
func (ph *PHReg) LogLike(param stats.Parameter) float64 {
	return ph.breslowLogLike(param.GetCoeff())
}

// breslowLogLike returns the log partial likelihood at the given
// coefficients, using the Breslow method to resolve ties.
func (ph *PHReg) breslowLogLike(params []float64) float64 {

	n := ph.NumObs()
	lp := make([]float64, n)
	elp := make([]float64, n)
	ph.linpred(params, lp)

	// We can subtract any constant here due to invariance in the
	// partial likelihood.
	mx := floats.Max(lp)
	for i := range lp {
		lp[i] -= mx
		elp[i] = math.Exp(lp[i])
	}

	ql := float64(0)
	rlp := float64(0)
	for k := range ph.etimes {

		// Update for new entries
		for _, i := range ph.enter[k] {
			rlp += elp[i]
		}

		for _, i := range ph.event[k] {
			ql += lp[i]
		}
		ql -= float64(len(ph.event[k])) * math.Log(rlp)

		// Update for new exits
		for _, i := range ph.exit[k] {
			rlp -= elp[i]
		}
	}

	return ql
}

// Score computes the score vector of the log partial likelihood at the
// given parameter setting.
func (ph *PHReg) Score(param stats.Parameter, score []float64) {
	ph.breslowScore(param.GetCoeff(), score)
}

// breslowScore calculates the score vector at the given coefficients,
// using the Breslow approach to resolving ties.
func (ph *PHReg) breslowScore(params, score []float64) {

	zero(score)

	n := ph.NumObs()
	lp := make([]float64, n)
	ph.linpred(params, lp)

	mx := floats.Max(lp)
	for i := range lp {
		lp[i] = math.Exp(lp[i] - mx)
	}

	copy(score, ph.sumx)

	p := len(ph.x)
	rlp := float64(0)
	rlpv := make([]float64, p)
	for k := range ph.etimes {

		// Update for new entries
		for _, i := range ph.enter[k] {
			rlp += lp[i]
			for j, x := range ph.x {
				rlpv[j] += lp[i] * x[i]
			}
		}

		d := float64(len(ph.event[k]))
		floats.AddScaledTo(score, score, -d/rlp, rlpv)

		// Update for new exits
		for _, i := range ph.exit[k] {
			rlp -= lp[i]
			for j, x := range ph.x {
				rlpv[j] -= lp[i] * x[i]
			}
		}
	}
}

// Hessian computes the Hessian matrix of the log partial likelihood at the
// given parameter setting.  The Hessian type parameter is not used here.
func (ph *PHReg) Hessian(param stats.Parameter, ht stats.HessType, hess []float64) {
	ph.breslowHess(param.GetCoeff(), hess)
}

// breslowHess calculates the Hessian matrix at the given coefficients.
func (ph *PHReg) breslowHess(params, hess []float64) {

	zero(hess)

	n := ph.NumObs()
	lp := make([]float64, n)
	ph.linpred(params, lp)

	mx := floats.Max(lp)
	for i := range lp {
		lp[i] = math.Exp(lp[i] - mx)
	}

	p := len(ph.x)
	d1s := make([]float64, p)
	d2s := make([]float64, p*p)

	rlp := float64(0)
	for k := range ph.etimes {

		// Update for new entries
		for _, i := range ph.enter[k] {
			rlp += lp[i]
			for j1, x1 := range ph.x {
				d1s[j1] += lp[i] * x1[i]
				for j2 := 0; j2 <= j1; j2++ {
					x2 := ph.x[j2]
					u := lp[i] * x1[i] * x2[i]
					d2s[j1*p+j2] += u
					if j2 != j1 {
						d2s[j2*p+j1] += u
					}
				}
			}
		}

		d := float64(len(ph.event[k]))
		jj := 0
		for j1 := 0; j1 < p; j1++ {
			for j2 := 0; j2 < p; j2++ {
				hess[jj] -= d * d2s[j1*p+j2] / rlp
				hess[jj] += d * d1s[j1] * d1s[j2] / (rlp * rlp)
				jj++
			}
		}

		// Update for new exits
		for _, i := range ph.exit[k] {
			rlp -= lp[i]
			for j1, x1 := range ph.x {
				d1s[j1] -= lp[i] * x1[i]
				for j2 := 0; j2 <= j1; j2++ {
					x2 := ph.x[j2]
					u := lp[i] * x1[i] * x2[i]
					d2s[j1*p+j2] -= u
					if j2 != j1 {
						d2s[j2*p+j1] -= u
					}
				}
			}
		}
	}
}

// BaselineCumHaz returns the Breslow (Nelson-Aalen type) estimate of the
// baseline cumulative hazard at the given coefficients: the distinct event
// times, and the cumulative hazard through each of them.
func (ph *PHReg) BaselineCumHaz(params []float64) ([]float64, []float64) {

	n := ph.NumObs()
	lp := make([]float64, n)
	ph.linpred(params, lp)

	cum := make([]float64, len(ph.etimes))
	elp := 0.0
	var z float64
	for k := range ph.etimes {
		for _, i := range ph.enter[k] {
			elp += math.Exp(lp[i])
		}
		z += float64(len(ph.event[k])) / elp
		cum[k] = z
		for _, i := range ph.exit[k] {
			elp -= math.Exp(lp[i])
		}
	}

	return ph.etimes, cum
}

// PHResults describes the results of a fitted proportional hazards model.
type PHResults struct {
	stats.BaseResults
}

func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}

func negative(x []float64) {
	for i := range x {
		x[i] *= -1
	}
}

// maxFitIterations bounds the optimizer so a degenerate fit returns an
// error instead of iterating forever.
const maxFitIterations = 500

// covScale returns the standard deviation of each covariate, used to
// standardize the optimization.  Constant columns get scale 1.
func (ph *PHReg) covScale() []float64 {

	scale := make([]float64, len(ph.x))
	for j, x := range ph.x {
		var m float64
		for _, v := range x {
			m += v
		}
		m /= float64(len(x))
		var ss float64
		for _, v := range x {
			d := v - m
			ss += d * d
		}
		s := math.Sqrt(ss / float64(len(x)))
		if s == 0 {
			s = 1
		}
		scale[j] = s
	}

	return scale
}

// unscale maps coefficients for standardized covariates back to the
// original covariate scale.
func unscale(y, scale []float64) []float64 {
	x := make([]float64, len(y))
	for j := range y {
		x[j] = y[j] / scale[j]
	}
	return x
}

// Fit fits the model to the data.  The optimization runs over
// standardized covariates; mixed covariate scales (day counts against 0/1
// indicators) otherwise stall the line search.  The returned coefficients
// are on the original covariate scale.
func (ph *PHReg) Fit() (*PHResults, error) {

	if len(ph.etimes) == 0 {
		return nil, fmt.Errorf("duration: no events in the data")
	}

	nvar := ph.NumParams()

	// The null model has nothing to optimize.
	if nvar == 0 {
		ll := ph.breslowLogLike(nil)
		return &PHResults{
			BaseResults: stats.NewBaseResults(ph, ll, nil, nil, nil),
		}, nil
	}

	scale := ph.covScale()

	start := make([]float64, nvar)
	if ph.start != nil {
		for j := range start {
			start[j] = ph.start[j] * scale[j]
		}
	}

	p := optimize.Problem{
		Func: func(y []float64) float64 {
			return -ph.breslowLogLike(unscale(y, scale))
		},
		Grad: func(grad, y []float64) {
			ph.breslowScore(unscale(y, scale), grad)
			for j := range grad {
				grad[j] /= scale[j]
			}
			negative(grad)
		},
	}

	settings := ph.optsettings
	if settings == nil {
		settings = &optimize.Settings{
			GradientThreshold: 1e-5,
			MajorIterations:   maxFitIterations,
		}
	}

	optrslt, err := optimize.Minimize(p, start, settings, ph.optmethod)
	if err != nil {
		return nil, fmt.Errorf("duration: proportional hazards fit failed: %w", err)
	}
	if err := optrslt.Status.Err(); err != nil {
		return nil, fmt.Errorf("duration: proportional hazards fit failed: %w", err)
	}

	param := unscale(optrslt.X, scale)

	if ph.log != nil {
		ph.log.Printf("PHReg converged in %d major iterations", optrslt.MajorIterations)
	}

	vcov, err := stats.GetVcov(ph, stats.NewCoeff(param))
	if err != nil && ph.log != nil {
		ph.log.Printf("PHReg: %v", err)
	}

	return &PHResults{
		BaseResults: stats.NewBaseResults(ph, -optrslt.F, param, ph.xnames, vcov),
	}, nil
}

// PHSummary summarizes a fitted proportional hazards regression model.
type PHSummary struct {
	ph      *PHReg
	results *PHResults
}

// Summary returns a summary table of the model results.
func (rslt *PHResults) Summary() *PHSummary {
	return &PHSummary{
		ph:      rslt.Model().(*PHReg),
		results: rslt,
	}
}

// String returns a string representation of the summary table for the model.
func (phs *PHSummary) String() string {

	ph := phs.ph

	var nevent int
	for _, s := range ph.status {
		nevent += int(s)
	}

	sum := &stats.SummaryTable{
		Title: "Proportional hazards regression analysis",
	}

	sum.Top = append(sum.Top, fmt.Sprintf("  Sample size: %10d", ph.NumObs()))
	sum.Top = append(sum.Top, fmt.Sprintf("  Events:      %10d", nevent))
	sum.Top = append(sum.Top, "  Ties:           Breslow")

	fs := stats.FmtString()
	fn := stats.FmtFloat("%10.4f")

	// Estimate and CI for the hazard ratio
	params := phs.results.Params()
	se := phs.results.StdErr()
	var hr, lcb, ucb []float64
	for j := range params {
		hr = append(hr, math.Exp(params[j]))
		if se != nil {
			lcb = append(lcb, math.Exp(params[j]-2*se[j]))
			ucb = append(ucb, math.Exp(params[j]+2*se[j]))
		}
	}

	if se != nil {
		sum.ColNames = []string{"Variable   ", "Coefficient", "SE", "HR", "LCB", "UCB", "Z-score", "P-value"}
		sum.ColFmt = []stats.Fmter{fs, fn, fn, fn, fn, fn, fn, fn}
		sum.Cols = []interface{}{phs.results.Names(), params, se, hr, lcb, ucb,
			phs.results.ZScores(), phs.results.PValues()}
	} else {
		sum.ColNames = []string{"Variable   ", "Coefficient", "HR"}
		sum.ColFmt = []stats.Fmter{fs, fn, fn}
		sum.Cols = []interface{}{phs.results.Names(), params, hr}
	}

	if ph.skipEarlyCensor > 0 {
		sum.Msg = append(sum.Msg,
			fmt.Sprintf("%d observations dropped for being censored before the first event", ph.skipEarlyCensor))
	}

	return sum.String()
}
