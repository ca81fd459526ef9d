package duration

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// Null model martingale residuals are status minus the Nelson-Aalen
// cumulative hazard at the case's time, and sum to zero.
func TestMartingaleNull(t *testing.T) {

	ph, err := NewPHReg(data1(t), "Time", "Status", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	resid := ph.MartingaleResid(nil)
	expected := []float64{
		2.0 / 3, 2.0 / 3, -1.0 / 3, -2.0 / 3, 1.0 / 3, -2.0 / 3,
	}
	if !floats.EqualApprox(resid, expected, 1e-10) {
		t.Fail()
	}
	if math.Abs(floats.Sum(resid)) > 1e-10 {
		t.Fail()
	}
}

func TestMartingaleSum(t *testing.T) {

	ph, err := NewPHReg(data3(t), "Time", "Status", []string{"X1", "X2"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The residuals sum to zero at any coefficient value.
	for _, par := range [][]float64{{0, 0}, {0.5, -0.2}} {
		resid := ph.MartingaleResid(par)
		if math.Abs(floats.Sum(resid)) > 1e-8 {
			t.Fail()
		}
	}
}

// The Schoenfeld residuals sum to the score vector.
func TestSchoenfeldSum(t *testing.T) {

	ph, err := NewPHReg(data3(t), "Time", "Status", []string{"X1", "X2"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, par := range [][]float64{{0, 0}, {0.3, -0.1}} {

		times, resid := ph.SchoenfeldResid(par)
		if len(times) != 6 || len(resid) != 6 {
			t.Fatal("wrong number of events")
		}
		for i := 1; i < len(times); i++ {
			if times[i] < times[i-1] {
				t.Fail()
			}
		}

		var sum [2]float64
		for _, r := range resid {
			sum[0] += r[0]
			sum[1] += r[1]
		}

		score := make([]float64, 2)
		ph.breslowScore(par, score)
		if math.Abs(sum[0]-score[0]) > 1e-8 || math.Abs(sum[1]-score[1]) > 1e-8 {
			t.Fail()
		}
	}
}

// The score residuals sum to the score vector.
func TestScoreResid(t *testing.T) {

	ph, err := NewPHReg(data3(t), "Time", "Status", []string{"X1", "X2"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, par := range [][]float64{{0, 0}, {0.3, -0.1}} {

		resid := ph.ScoreResid(par)

		var sum [2]float64
		for _, r := range resid {
			sum[0] += r[0]
			sum[1] += r[1]
		}

		score := make([]float64, 2)
		ph.breslowScore(par, score)
		if math.Abs(sum[0]-score[0]) > 1e-8 || math.Abs(sum[1]-score[1]) > 1e-8 {
			t.Fail()
		}
	}
}

// At the fitted coefficients the score residuals, and hence the DFbeta
// residuals, sum to zero.
func TestDFBeta(t *testing.T) {

	ph, err := NewPHReg(data3(t), "Time", "Status", []string{"X1", "X2"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	rslt, err := ph.Fit()
	if err != nil {
		t.Fatal(err)
	}

	dfbeta, err := rslt.DFBetaResid()
	if err != nil {
		t.Fatal(err)
	}
	if len(dfbeta) != ph.NumObs() {
		t.Fail()
	}

	var sum [2]float64
	for _, r := range dfbeta {
		sum[0] += r[0]
		sum[1] += r[1]
	}
	if math.Abs(sum[0]) > 1e-3 || math.Abs(sum[1]) > 1e-3 {
		t.Fail()
	}
}
