package duration

import (
	"math"
	"testing"
)

func TestConcordancePerfect(t *testing.T) {

	// Higher risk score, shorter time; no censoring.
	var time, status, score []float64
	for i := 0; i < 40; i++ {
		time = append(time, float64(i+1))
		status = append(status, 1)
		score = append(score, -float64(i+1))
	}

	c, err := NewConcordance(time, status, score)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(c.Concordance()-1) > 1e-10 {
		t.Fail()
	}
}

func TestConcordanceConstant(t *testing.T) {

	// Constant risk scores place every comparable pair at one half.
	var time, status, score []float64
	for i := 0; i < 40; i++ {
		time = append(time, float64(i+1))
		status = append(status, 1)
		score = append(score, 2.5)
	}

	c, err := NewConcordance(time, status, score)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(c.Concordance()-0.5) > 1e-10 {
		t.Fail()
	}
}

func TestConcordanceAntiConcordant(t *testing.T) {

	var time, status, score []float64
	for i := 0; i < 40; i++ {
		time = append(time, float64(i+1))
		status = append(status, 1)
		score = append(score, float64(i+1))
	}

	c, err := NewConcordance(time, status, score)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(c.Concordance()) > 1e-10 {
		t.Fail()
	}
}

func TestConcordanceCensored(t *testing.T) {

	var time, status, score []float64
	for i := 0; i < 60; i++ {
		time = append(time, float64(i+1))
		if i%3 == 0 {
			status = append(status, 0)
		} else {
			status = append(status, 1)
		}
		score = append(score, -float64(i+1))
	}

	c, err := NewConcordance(time, status, score)
	if err != nil {
		t.Fatal(err)
	}
	c = c.NumPair(5000).Tau(50)

	// Still perfectly concordant on the comparable pairs.
	if math.Abs(c.Concordance()-1) > 1e-10 {
		t.Fail()
	}
}

func TestConcordanceInvalid(t *testing.T) {

	if _, err := NewConcordance([]float64{1, 2}, []float64{1, 1}, []float64{1}); err == nil {
		t.Fail()
	}
}

func TestConcordanceFromFit(t *testing.T) {

	rslt := fit3(t)

	cidx, err := rslt.Concordance()
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(cidx) || cidx < 0 || cidx > 1 {
		t.Fail()
	}
}
