package duration

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestSurvfunc(t *testing.T) {

	time := []float64{1, 2, 3, 4}
	status := []float64{1, 1, 0, 1}

	sf, err := NewSurvfuncRight(time, status)
	if err != nil {
		t.Fatal(err)
	}

	// The censoring time at 3 is compressed away.
	if fmt.Sprintf("%v", sf.Time()) != "[1 2 4]" {
		t.Fail()
	}
	if fmt.Sprintf("%v", sf.NumRisk()) != "[4 3 1]" {
		t.Fail()
	}
	if fmt.Sprintf("%v", sf.NumEvents()) != "[1 1 1]" {
		t.Fail()
	}
	if !floats.EqualApprox(sf.SurvProb(), []float64{0.75, 0.5, 0}, 1e-10) {
		t.Fail()
	}

	// Greenwood standard error at the first event time.
	se := sf.SurvProbSE()
	if math.Abs(se[0]-0.75*math.Sqrt(1.0/12)) > 1e-10 {
		t.Fail()
	}
}

func TestSurvfuncTies(t *testing.T) {

	time := []float64{1, 1, 1, 2, 2, 3}
	status := []float64{1, 1, 0, 0, 1, 0}

	sf, err := NewSurvfuncRight(time, status)
	if err != nil {
		t.Fatal(err)
	}

	if fmt.Sprintf("%v", sf.Time()) != "[1 2 3]" {
		t.Fail()
	}
	if fmt.Sprintf("%v", sf.NumRisk()) != "[6 3 1]" {
		t.Fail()
	}
	if fmt.Sprintf("%v", sf.NumEvents()) != "[2 1 0]" {
		t.Fail()
	}

	// S(1) = 4/6, S(2) = (4/6)*(2/3), unchanged at the final
	// censoring time.
	ep := []float64{4.0 / 6, 4.0 / 9, 4.0 / 9}
	if !floats.EqualApprox(sf.SurvProb(), ep, 1e-10) {
		t.Fail()
	}
}

func TestSurvfuncMissing(t *testing.T) {

	time := []float64{1, math.NaN(), 2, 3}
	status := []float64{1, 1, math.NaN(), 0}

	sf, err := NewSurvfuncRight(time, status)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprintf("%v", sf.NumRisk()) != "[2 1]" {
		t.Fail()
	}
}

func TestSurvfuncInvalid(t *testing.T) {

	if _, err := NewSurvfuncRight([]float64{1, 2}, []float64{1}); err == nil {
		t.Fail()
	}
	if _, err := NewSurvfuncRight([]float64{1, 2}, []float64{1, 2}); err == nil {
		t.Fail()
	}
	nan := math.NaN()
	if _, err := NewSurvfuncRight([]float64{nan}, []float64{1}); err == nil {
		t.Fail()
	}
}

// survProbAt evaluates the estimated survival step function at t.
func survProbAt(sf *SurvfuncRight, t float64) float64 {

	times := sf.Time()
	probs := sf.SurvProb()

	ii := sort.SearchFloat64s(times, t)
	if ii == len(times) || times[ii] > t {
		ii--
	}
	if ii < 0 {
		return 1
	}
	return probs[ii]
}

// Two independent samples drawn from the same hazard, each with its own
// censoring, should yield survival curves that agree closely on a shared
// timeline.
func TestSurvfuncSameHazard(t *testing.T) {

	rng := rand.New(rand.NewSource(4523745))

	sample := func(n int) (time, status []float64) {
		for i := 0; i < n; i++ {
			tt := rng.ExpFloat64()
			cc := 5 * rng.Float64()
			if tt <= cc {
				time = append(time, tt)
				status = append(status, 1)
			} else {
				time = append(time, cc)
				status = append(status, 0)
			}
		}
		return time, status
	}

	t1, s1 := sample(2000)
	t2, s2 := sample(2000)

	sf1, err := NewSurvfuncRight(t1, s1)
	if err != nil {
		t.Fatal(err)
	}
	sf2, err := NewSurvfuncRight(t2, s2)
	if err != nil {
		t.Fatal(err)
	}

	for q := 0.2; q <= 2.01; q += 0.2 {
		d := survProbAt(sf1, q) - survProbAt(sf2, q)
		if math.Abs(d) > 0.1 {
			t.Errorf("survival curves disagree at t=%.1f: gap %.3f", q, d)
		}
	}
}
