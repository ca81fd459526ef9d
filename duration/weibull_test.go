package duration

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/dataset"
	"github.com/niecestroa/survival-analysis-german-breast-cancer/stats"
)

func weibullData(t *testing.T) *dataset.Dataset {
	t.Helper()

	var time, status, x []float64
	for i := 0; i < 50; i++ {
		xi := float64(i % 5)
		x = append(x, xi)
		time = append(time, (1+0.5*xi)*(0.2+float64(i%7)))
		if i%4 == 0 {
			status = append(status, 0)
		} else {
			status = append(status, 1)
		}
	}

	ds, err := dataset.New([]dataset.Column{
		{Name: "Time", Values: time},
		{Name: "Status", Values: status},
		{Name: "X", Values: x},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

// Intercept-only log-likelihood at zero coefficients and unit scale:
// sum of status*(z - log t) - exp(z) with z = log t.
func TestWeibullLogLike(t *testing.T) {

	ds, err := dataset.New([]dataset.Column{
		{Name: "Time", Values: []float64{1, 2}},
		{Name: "Status", Values: []float64{1, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}

	wb, err := NewWeibullAFT(ds, "Time", "Status", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if wb.NumParams() != 2 {
		t.Fail()
	}
	if math.Abs(wb.loglike([]float64{0, 0})-(-3)) > 1e-10 {
		t.Fail()
	}
}

// The analytic score agrees with central differences of the
// log-likelihood.
func TestWeibullScore(t *testing.T) {

	wb, err := NewWeibullAFT(weibullData(t), "Time", "Status", []string{"X"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	params := []float64{0.1, 0.2, -0.1}
	np := wb.NumParams()

	score := make([]float64, np)
	wb.score(params, score)

	work := make([]float64, np)
	copy(work, params)
	for k := 0; k < np; k++ {
		h := 1e-6
		work[k] = params[k] + h
		f1 := wb.loglike(work)
		work[k] = params[k] - h
		f0 := wb.loglike(work)
		work[k] = params[k]

		nd := (f1 - f0) / (2 * h)
		if math.Abs(score[k]-nd) > 1e-4*(1+math.Abs(nd)) {
			t.Errorf("score[%d]=%v, numeric %v", k, score[k], nd)
		}
	}
}

func TestWeibullFit(t *testing.T) {

	wb, err := NewWeibullAFT(weibullData(t), "Time", "Status", []string{"X"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	rslt, err := wb.Fit()
	if err != nil {
		t.Fatal(err)
	}

	score := make([]float64, wb.NumParams())
	wb.score(rslt.Params(), score)
	for _, v := range score {
		if math.Abs(v) > 1e-3 {
			t.Fail()
		}
	}

	if rslt.Scale() <= 0 {
		t.Fail()
	}
	if math.Abs(rslt.Shape()*rslt.Scale()-1) > 1e-10 {
		t.Fail()
	}

	// Longer times for larger x, so the AFT coefficient is positive
	// and the hazard-scale coefficient negative.
	m := rslt.ParamsByName()
	if m["X"] <= 0 {
		t.Fail()
	}
	if rslt.PHParams()["X"] >= 0 {
		t.Fail()
	}

	txt := rslt.Summary().String()
	for _, frag := range []string{"Weibull", "(Intercept)", "X", "log(scale)", "Scale:"} {
		if !strings.Contains(txt, frag) {
			t.Errorf("summary missing %q", frag)
		}
	}
}

func TestWeibullPHParams(t *testing.T) {

	ds, err := dataset.New([]dataset.Column{
		{Name: "Time", Values: []float64{1, 2, 3}},
		{Name: "Status", Values: []float64{1, 1, 0}},
		{Name: "x", Values: []float64{0, 1, 2}},
	})
	if err != nil {
		t.Fatal(err)
	}

	wb, err := NewWeibullAFT(ds, "Time", "Status", []string{"x"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	rslt := &WeibullResults{
		BaseResults: stats.NewBaseResults(wb, 0, []float64{1, 0.5, math.Log(2)}, wb.pnames, nil),
	}

	if math.Abs(rslt.Scale()-2) > 1e-10 {
		t.Fail()
	}

	phpar := rslt.PHParams()
	if len(phpar) != 1 {
		t.Fail()
	}
	if math.Abs(phpar["x"]-(-0.25)) > 1e-10 {
		t.Fail()
	}
}

// A covariate whose name matches the intercept label is still reported:
// the model's own intercept is excluded by position, not by name.
func TestWeibullInterceptName(t *testing.T) {

	ds, err := dataset.New([]dataset.Column{
		{Name: "Time", Values: []float64{1, 2, 3}},
		{Name: "Status", Values: []float64{1, 1, 0}},
		{Name: "(Intercept)", Values: []float64{0, 1, 2}},
	})
	if err != nil {
		t.Fatal(err)
	}

	wb, err := NewWeibullAFT(ds, "Time", "Status", []string{"(Intercept)"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	rslt := &WeibullResults{
		BaseResults: stats.NewBaseResults(wb, 0, []float64{3, 0.5, 0}, wb.pnames, nil),
	}

	phpar := rslt.PHParams()
	if math.Abs(phpar["(Intercept)"]-(-0.5)) > 1e-10 {
		t.Fail()
	}
}

func TestWeibullMeanSurvival(t *testing.T) {

	ds, err := dataset.New([]dataset.Column{
		{Name: "Time", Values: []float64{1}},
		{Name: "Status", Values: []float64{1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	wb, err := NewWeibullAFT(ds, "Time", "Status", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	rslt := &WeibullResults{
		BaseResults: stats.NewBaseResults(wb, 0, []float64{0, 0}, wb.pnames, nil),
	}

	// Unit scale and zero location gives S(t) = exp(-t).
	sp := rslt.MeanSurvival([]float64{0, 1, 2})
	ep := []float64{1, math.Exp(-1), math.Exp(-2)}
	if !floats.EqualApprox(sp, ep, 1e-10) {
		t.Fail()
	}

	if fmt.Sprintf("%v", rslt.MeanSurvival([]float64{-1})) != "[1]" {
		t.Fail()
	}
}

// Rescaling a covariate rescales its coefficient inversely and leaves
// the intercept and scale parameters unchanged.
func TestWeibullFitScale(t *testing.T) {

	fit := func(mult float64) *WeibullResults {
		var time, status, x []float64
		for i := 0; i < 50; i++ {
			xi := float64(i % 5)
			x = append(x, mult*xi)
			time = append(time, (1+0.5*xi)*(0.2+float64(i%7)))
			if i%4 == 0 {
				status = append(status, 0)
			} else {
				status = append(status, 1)
			}
		}
		ds, err := dataset.New([]dataset.Column{
			{Name: "Time", Values: time},
			{Name: "Status", Values: status},
			{Name: "X", Values: x},
		})
		if err != nil {
			t.Fatal(err)
		}
		wb, err := NewWeibullAFT(ds, "Time", "Status", []string{"X"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		rslt, err := wb.Fit()
		if err != nil {
			t.Fatal(err)
		}
		return rslt
	}

	raw := fit(1)
	big := fit(1000)

	if math.Abs(raw.Params()[0]-big.Params()[0]) > 1e-4*(1+math.Abs(raw.Params()[0])) {
		t.Fail()
	}
	if math.Abs(raw.Params()[1]-1000*big.Params()[1]) > 1e-4*(1+math.Abs(raw.Params()[1])) {
		t.Fail()
	}
	if math.Abs(raw.Params()[2]-big.Params()[2]) > 1e-4 {
		t.Fail()
	}
}
