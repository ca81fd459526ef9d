package duration

import (
	"fmt"
	"math"
	"sort"
)

// riskSetStats computes, at the given coefficients, the sum of exp(linear
// predictor) over the risk set at each distinct event time (s0), and the
// risk-set weighted mean of each covariate (xbar[k][j]).
func (ph *PHReg) riskSetStats(params []float64) (s0 []float64, xbar [][]float64) {

	n := ph.NumObs()
	p := len(ph.x)
	lp := make([]float64, n)
	ph.linpred(params, lp)

	s0 = make([]float64, len(ph.etimes))
	xbar = make([][]float64, len(ph.etimes))

	rlp := 0.0
	rlpv := make([]float64, p)
	for k := range ph.etimes {

		for _, i := range ph.enter[k] {
			e := math.Exp(lp[i])
			rlp += e
			for j, x := range ph.x {
				rlpv[j] += e * x[i]
			}
		}

		s0[k] = rlp
		xb := make([]float64, p)
		for j := range xb {
			xb[j] = rlpv[j] / rlp
		}
		xbar[k] = xb

		for _, i := range ph.exit[k] {
			e := math.Exp(lp[i])
			rlp -= e
			for j, x := range ph.x {
				rlpv[j] -= e * x[i]
			}
		}
	}

	return s0, xbar
}

// MartingaleResid returns the martingale residual for each case at the
// given coefficients: the case's status minus its expected cumulative
// event count under the fitted hazard.  For a null model the residual is
// status minus the Nelson-Aalen cumulative hazard at the case's time.
func (ph *PHReg) MartingaleResid(params []float64) []float64 {

	n := ph.NumObs()
	lp := make([]float64, n)
	ph.linpred(params, lp)

	_, cumhaz := ph.BaselineCumHaz(params)

	resid := make([]float64, n)
	for i, t := range ph.time {
		// Cumulative hazard through the last event time at or
		// before t; zero for cases censored before the first event.
		ii := sort.SearchFloat64s(ph.etimes, t)
		if ii == len(ph.etimes) || ph.etimes[ii] > t {
			ii--
		}
		var ch float64
		if ii >= 0 {
			ch = cumhaz[ii]
		}
		resid[i] = ph.status[i] - ch*math.Exp(lp[i])
	}

	return resid
}

// SchoenfeldResid returns the Schoenfeld residuals at the given
// coefficients: for each event, in time order, the event case's covariate
// vector minus the risk-set weighted covariate mean at the event time.
// The returned times give each event's time.
func (ph *PHReg) SchoenfeldResid(params []float64) (times []float64, resid [][]float64) {

	p := len(ph.x)
	_, xbar := ph.riskSetStats(params)

	for k, t := range ph.etimes {
		for _, i := range ph.event[k] {
			r := make([]float64, p)
			for j, x := range ph.x {
				r[j] = x[i] - xbar[k][j]
			}
			resid = append(resid, r)
			times = append(times, t)
		}
	}

	return times, resid
}

// ScoreResid returns the score residuals at the given coefficients, one
// p-vector per case.  The score residuals sum to the score vector.
func (ph *PHReg) ScoreResid(params []float64) [][]float64 {

	n := ph.NumObs()
	p := len(ph.x)
	lp := make([]float64, n)
	ph.linpred(params, lp)

	s0, xbar := ph.riskSetStats(params)

	// Cumulative baseline hazard increments and their xbar-weighted
	// sums, through each event time.
	ca := make([]float64, len(ph.etimes))
	cb := make([][]float64, len(ph.etimes))
	var a float64
	b := make([]float64, p)
	for k := range ph.etimes {
		h0 := float64(len(ph.event[k])) / s0[k]
		a += h0
		for j := range b {
			b[j] += h0 * xbar[k][j]
		}
		ca[k] = a
		cbk := make([]float64, p)
		copy(cbk, b)
		cb[k] = cbk
	}

	resid := make([][]float64, n)
	for i, t := range ph.time {

		r := make([]float64, p)
		resid[i] = r

		ii := sort.SearchFloat64s(ph.etimes, t)
		if ii == len(ph.etimes) || ph.etimes[ii] > t {
			ii--
		}

		if ph.status[i] == 1 && !ph.skip[i] {
			for j, x := range ph.x {
				r[j] = x[i] - xbar[ii][j]
			}
		}

		if ii >= 0 {
			e := math.Exp(lp[i])
			for j, x := range ph.x {
				r[j] -= e * (ca[ii]*x[i] - cb[ii][j])
			}
		}
	}

	return resid
}

// DFBetaResid returns the DFbeta residuals of the fitted model: for each
// case, the approximate change in each coefficient estimate when the case
// is removed, computed as the case's score residual times the sampling
// covariance matrix.
func (rslt *PHResults) DFBetaResid() ([][]float64, error) {

	ph := rslt.Model().(*PHReg)
	vcov := rslt.VCov()
	if vcov == nil {
		return nil, fmt.Errorf("duration: DFbeta residuals require a sampling covariance matrix")
	}

	p := ph.NumParams()
	score := ph.ScoreResid(rslt.Params())

	resid := make([][]float64, len(score))
	for i, s := range score {
		r := make([]float64, p)
		for j := 0; j < p; j++ {
			for k := 0; k < p; k++ {
				r[j] += s[k] * vcov[k*p+j]
			}
		}
		resid[i] = r
	}

	return resid, nil
}
