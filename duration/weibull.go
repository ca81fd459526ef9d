package duration

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/dataset"
	"github.com/niecestroa/survival-analysis-german-breast-cancer/stats"
)

// interceptName labels the intercept column that the model itself adds to
// the design.  The intercept is identified by its position in the fit, not
// by this label, so a covariate that happens to carry a similar name is
// never confused with it.
const interceptName = "(Intercept)"

// logScaleName labels the log of the Weibull scale parameter in the fitted
// parameter vector.
const logScaleName = "log(scale)"

// WeibullAFT describes a Weibull accelerated failure time model for right
// censored data, in log-linear form: log T = x'b + s*e with e following a
// standard Gumbel (minimum) distribution and s the scale parameter.
type WeibullAFT struct {

	// Parameter names: intercept, covariates, log scale.
	pnames []string

	// Covariate names as given by the caller.
	xnames []string

	// Event/censoring times and status indicators, restricted to
	// complete cases with positive times.
	time   []float64
	status []float64
	logt   []float64

	// Covariate columns including the leading intercept column.
	// x[j][i] is the value of covariate j for case i.
	x [][]float64

	// Row indices of the complete cases in the source dataset.
	rows []int

	start       []float64
	optsettings *optimize.Settings
	optmethod   optimize.Method
	log         *log.Logger
}

// WeibullAFTConfig defines configuration parameters for a Weibull AFT
// regression.
type WeibullAFTConfig struct {
	Log         *log.Logger
	Start       []float64
	OptMethod   optimize.Method
	OptSettings *optimize.Settings
}

// DefaultWeibullAFTConfig returns a default configuration for a Weibull
// AFT regression.
func DefaultWeibullAFTConfig() *WeibullAFTConfig {
	return &WeibullAFTConfig{
		OptMethod: &optimize.BFGS{
			Linesearcher: &optimize.MoreThuente{},
		},
	}
}

// NewWeibullAFT returns a WeibullAFT value that can be used to fit a
// Weibull accelerated failure time model.  An intercept is always
// included.  Cases with a missing value in the time, status, or any
// predictor variable are excluded.
func NewWeibullAFT(ds *dataset.Dataset, time, status string, predictors []string, config *WeibullAFTConfig) (*WeibullAFT, error) {

	if config == nil {
		config = DefaultWeibullAFTConfig()
	}

	need := append([]string{time, status}, predictors...)
	rows, err := ds.CompleteCases(need...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("duration: no complete cases for Weibull AFT fit")
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

	wb := &WeibullAFT{
		xnames:      append([]string(nil), predictors...),
		time:        take(tcol),
		status:      take(scol),
		rows:        rows,
		start:       config.Start,
		log:         config.Log,
		optsettings: config.OptSettings,
		optmethod:   config.OptMethod,
	}

	wb.logt = make([]float64, len(wb.time))
	for i, t := range wb.time {
		if t <= 0 {
			return nil, fmt.Errorf("duration: survival time %v at case %d is not positive", t, i)
		}
		if wb.status[i] != 0 && wb.status[i] != 1 {
			return nil, fmt.Errorf("duration: status variable '%s' has values other than 0 and 1", status)
		}
		wb.logt[i] = math.Log(t)
	}

	icept := make([]float64, len(rows))
	for i := range icept {
		icept[i] = 1
	}
	wb.x = [][]float64{icept}
	wb.pnames = []string{interceptName}

	for _, na := range predictors {
		xcol, err := ds.Col(na)
		if err != nil {
			return nil, err
		}
		wb.x = append(wb.x, take(xcol))
		wb.pnames = append(wb.pnames, na)
	}
	wb.pnames = append(wb.pnames, logScaleName)

	return wb, nil
}

// NumObs returns the number of cases used to fit the model.
func (wb *WeibullAFT) NumObs() int {
	return len(wb.time)
}

// NumParams returns the number of model parameters: the intercept, one
// coefficient per covariate, and the log scale.
func (wb *WeibullAFT) NumParams() int {
	return len(wb.x) + 1
}

// Rows returns the source dataset row indices of the cases used to fit
// the model.
func (wb *WeibullAFT) Rows() []int {
	return wb.rows
}

// linpred fills lp with the location part of the model at the given
// parameters.
func (wb *WeibullAFT) linpred(params, lp []float64) {
	zero(lp)
	for j, x := range wb.x {
		for i := range x {
			lp[i] += x[i] * params[j]
		}
	}
}

// LogLike returns the log-likelihood at the given parameter value.  The
// parameter is (intercept, coefficients..., log scale).
func (wb *WeibullAFT) LogLike(param stats.Parameter) float64 {
	return wb.loglike(param.GetCoeff())
}

func (wb *WeibullAFT) loglike(params []float64) float64 {

	n := wb.NumObs()
	u := params[len(params)-1]
	s := math.Exp(u)

	lp := make([]float64, n)
	wb.linpred(params[:len(params)-1], lp)

	var ll float64
	for i := range wb.time {
		z := (wb.logt[i] - lp[i]) / s
		if wb.status[i] == 1 {
			ll += z - u - wb.logt[i]
		}
		ll -= math.Exp(z)
	}

	return ll
}

// Score fills in the score vector of the log-likelihood at the given
// parameter value.
func (wb *WeibullAFT) Score(param stats.Parameter, score []float64) {
	wb.score(param.GetCoeff(), score)
}

func (wb *WeibullAFT) score(params, score []float64) {

	zero(score)

	n := wb.NumObs()
	p := len(wb.x)
	u := params[len(params)-1]
	s := math.Exp(u)

	lp := make([]float64, n)
	wb.linpred(params[:p], lp)

	for i := range wb.time {
		z := (wb.logt[i] - lp[i]) / s
		ez := math.Exp(z)
		for j, x := range wb.x {
			score[j] += (ez - wb.status[i]) * x[i] / s
		}
		score[p] += z * (ez - wb.status[i])
		if wb.status[i] == 1 {
			score[p] -= 1
		}
	}
}

// Hessian fills in the Hessian of the log-likelihood at the given
// parameter value, by central differences of the score.  The Hessian type
// parameter is not used here.
func (wb *WeibullAFT) Hessian(param stats.Parameter, ht stats.HessType, hess []float64) {

	np := wb.NumParams()
	theta := param.GetCoeff()

	work := make([]float64, np)
	copy(work, theta)
	g0 := make([]float64, np)
	g1 := make([]float64, np)

	for k := 0; k < np; k++ {
		h := 1e-6 * (1 + math.Abs(theta[k]))
		work[k] = theta[k] + h
		wb.score(work, g1)
		work[k] = theta[k] - h
		wb.score(work, g0)
		work[k] = theta[k]
		for j := 0; j < np; j++ {
			hess[k*np+j] = (g1[j] - g0[j]) / (2 * h)
		}
	}

	// Symmetrize
	for k := 0; k < np; k++ {
		for j := 0; j < k; j++ {
			v := (hess[k*np+j] + hess[j*np+k]) / 2
			hess[k*np+j] = v
			hess[j*np+k] = v
		}
	}
}

// WeibullResults describes the results of a fitted Weibull AFT model.
type WeibullResults struct {
	stats.BaseResults
}

// Fit fits the model to the data.  As in the proportional hazards fit,
// the optimization runs over centered and standardized covariates, with
// the intercept and log scale parameters left untouched, and the returned
// coefficients are mapped back to the original covariate scale.
func (wb *WeibullAFT) Fit() (*WeibullResults, error) {

	np := wb.NumParams()
	nx := len(wb.x)

	// Center and scale for each column; the intercept column (index 0)
	// is passed through unchanged.
	center := make([]float64, nx)
	scale := make([]float64, nx)
	scale[0] = 1
	for j := 1; j < nx; j++ {
		var m float64
		for _, v := range wb.x[j] {
			m += v
		}
		m /= float64(len(wb.x[j]))
		var ss float64
		for _, v := range wb.x[j] {
			d := v - m
			ss += d * d
		}
		s := math.Sqrt(ss / float64(len(wb.x[j])))
		if s == 0 {
			s = 1
		}
		center[j] = m
		scale[j] = s
	}

	// Map parameters for the standardized covariates back to the
	// original covariate scale.  The centering terms fold into the
	// intercept and the log scale parameter is unaffected.
	fromScaled := func(y []float64) []float64 {
		th := make([]float64, np)
		th[np-1] = y[np-1]
		th[0] = y[0]
		for j := 1; j < nx; j++ {
			th[j] = y[j] / scale[j]
			th[0] -= center[j] * th[j]
		}
		return th
	}

	start := make([]float64, np)
	if wb.start != nil {
		start[np-1] = wb.start[np-1]
		start[0] = wb.start[0]
		for j := 1; j < nx; j++ {
			start[j] = wb.start[j] * scale[j]
			start[0] += center[j] * wb.start[j]
		}
	} else {
		// Start the intercept at the mean log time.
		var m float64
		for _, v := range wb.logt {
			m += v
		}
		start[0] = m / float64(len(wb.logt))
	}

	grad := make([]float64, np)

	p := optimize.Problem{
		Func: func(y []float64) float64 {
			return -wb.loglike(fromScaled(y))
		},
		Grad: func(g, y []float64) {
			wb.score(fromScaled(y), grad)
			g[0] = grad[0]
			g[np-1] = grad[np-1]
			for j := 1; j < nx; j++ {
				g[j] = (grad[j] - center[j]*grad[0]) / scale[j]
			}
			negative(g)
		},
	}

	settings := wb.optsettings
	if settings == nil {
		settings = &optimize.Settings{
			GradientThreshold: 1e-5,
			MajorIterations:   maxFitIterations,
		}
	}

	optrslt, err := optimize.Minimize(p, start, settings, wb.optmethod)
	if err != nil {
		return nil, fmt.Errorf("duration: Weibull AFT fit failed: %w", err)
	}
	if err := optrslt.Status.Err(); err != nil {
		return nil, fmt.Errorf("duration: Weibull AFT fit failed: %w", err)
	}

	param := fromScaled(optrslt.X)

	if wb.log != nil {
		wb.log.Printf("WeibullAFT converged in %d major iterations", optrslt.MajorIterations)
	}

	vcov, err := stats.GetVcov(wb, stats.NewCoeff(param))
	if err != nil && wb.log != nil {
		wb.log.Printf("WeibullAFT: %v", err)
	}

	return &WeibullResults{
		BaseResults: stats.NewBaseResults(wb, -optrslt.F, param, wb.pnames, vcov),
	}, nil
}

// Scale returns the fitted Weibull scale parameter (sigma of the
// log-linear form).
func (rslt *WeibullResults) Scale() float64 {
	params := rslt.Params()
	return math.Exp(params[len(params)-1])
}

// Shape returns the fitted Weibull shape parameter (1/Scale).
func (rslt *WeibullResults) Shape() float64 {
	return 1 / rslt.Scale()
}

// PHParams returns the fitted covariate coefficients transformed to the
// proportional hazards scale (-b/scale), keyed by covariate name.  The
// intercept and scale rows of the fit are excluded by their positions in
// the parameter vector, never by matching names.
func (rslt *WeibullResults) PHParams() map[string]float64 {

	wb := rslt.Model().(*WeibullAFT)
	params := rslt.Params()
	s := rslt.Scale()

	out := make(map[string]float64, len(wb.xnames))
	for j, na := range wb.xnames {
		// Position 0 is the model-added intercept.
		out[na] = -params[j+1] / s
	}

	return out
}

// MeanSurvival returns the model's predicted survival function averaged
// over the fitted cases, evaluated at the given times.
func (rslt *WeibullResults) MeanSurvival(times []float64) []float64 {

	wb := rslt.Model().(*WeibullAFT)
	n := wb.NumObs()
	p := len(wb.x)
	s := rslt.Scale()

	lp := make([]float64, n)
	wb.linpred(rslt.Params()[:p], lp)

	out := make([]float64, len(times))
	for k, t := range times {
		if t <= 0 {
			out[k] = 1
			continue
		}
		var m float64
		for i := 0; i < n; i++ {
			z := (math.Log(t) - lp[i]) / s
			m += math.Exp(-math.Exp(z))
		}
		out[k] = m / float64(n)
	}

	return out
}

// Summary returns a summary table of the model results.
func (rslt *WeibullResults) Summary() *stats.SummaryTable {

	wb := rslt.Model().(*WeibullAFT)

	var nevent int
	for _, s := range wb.status {
		nevent += int(s)
	}

	sum := &stats.SummaryTable{
		Title: "Weibull accelerated failure time regression analysis",
	}

	sum.Top = append(sum.Top, fmt.Sprintf("  Sample size: %10d", wb.NumObs()))
	sum.Top = append(sum.Top, fmt.Sprintf("  Events:      %10d", nevent))
	sum.Top = append(sum.Top, fmt.Sprintf("  Scale:       %10.4f", rslt.Scale()))
	sum.Top = append(sum.Top, fmt.Sprintf("  Shape:       %10.4f", rslt.Shape()))

	fs := stats.FmtString()
	fn := stats.FmtFloat("%10.4f")

	if se := rslt.StdErr(); se != nil {
		sum.ColNames = []string{"Variable   ", "Coefficient", "SE", "Z-score", "P-value"}
		sum.ColFmt = []stats.Fmter{fs, fn, fn, fn, fn}
		sum.Cols = []interface{}{rslt.Names(), rslt.Params(), se, rslt.ZScores(), rslt.PValues()}
	} else {
		sum.ColNames = []string{"Variable   ", "Coefficient"}
		sum.ColFmt = []stats.Fmter{fs, fn}
		sum.Cols = []interface{}{rslt.Names(), rslt.Params()}
	}

	return sum
}
