package duration

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Concordance calculates the survival concordance of Uno et al.
// (https://www.ncbi.nlm.nih.gov/pmc/articles/PMC3079915) for a set of
// risk scores, e.g. the linear predictors of a fitted proportional
// hazards model.
type Concordance struct {

	// Truncate at this time horizon
	tau float64

	// The risk scores that are being assessed, sorted by time
	score []float64

	// Event or censoring time, sorted
	time []float64

	// Event status, sorted by time
	status []float64

	// Number of pairs sampled at random to estimate the concordance
	npair int

	rng *rand.Rand

	// The survival function of the censoring distribution
	sf *SurvfuncRight
}

// Concordance estimates the survival concordance of a fitted proportional
// hazards model, using the linear predictors as risk scores.
func (rslt *PHResults) Concordance() (float64, error) {
	ph := rslt.Model().(*PHReg)
	lp := ph.LinearPredictors(rslt.Params())
	c, err := NewConcordance(ph.Time(), ph.Status(), lp)
	if err != nil {
		return math.NaN(), err
	}
	return c.Concordance(), nil
}

// NewConcordance creates a Concordance value for the given times, status
// indicators, and risk scores.
func NewConcordance(time, status, score []float64) (*Concordance, error) {

	if len(time) != len(status) || len(time) != len(score) {
		return nil, fmt.Errorf("duration: concordance input lengths differ")
	}

	c := &Concordance{
		npair: 10000,
		rng:   rand.New(rand.NewSource(4523745)),
	}

	// Sort everything by time
	idx := make([]int, len(time))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return time[idx[a]] < time[idx[b]] })

	statusr := make([]float64, len(time))
	for i, j := range idx {
		c.time = append(c.time, time[j])
		c.status = append(c.status, status[j])
		c.score = append(c.score, score[j])
		// The censoring distribution reverses the status.
		statusr[i] = 1 - status[j]
	}

	// Survival function of the censoring times
	sf, err := NewSurvfuncRight(c.time, statusr)
	if err != nil {
		return nil, err
	}
	c.sf = sf

	return c, nil
}

// NumPair sets the number of pairs of observations sampled at random to
// estimate the concordance.
func (c *Concordance) NumPair(npair int) *Concordance {
	c.npair = npair
	return c
}

// Tau sets the truncation horizon; pairs whose earlier time falls past
// the horizon are not compared.  The default is the largest event time.
func (c *Concordance) Tau(tau float64) *Concordance {
	c.tau = tau
	return c
}

// censProb returns the estimated probability of remaining uncensored
// through time t.
func (c *Concordance) censProb(t float64) float64 {

	st := c.sf.Time()
	sp := c.sf.SurvProb()

	ii := sort.SearchFloat64s(st, t)
	if ii == len(st) || st[ii] > t {
		ii--
	}
	if ii < 0 {
		return 1
	}
	return sp[ii]
}

// Concordance estimates the probability that, of two comparable cases,
// the one with the higher risk score has the shorter survival time,
// weighted by the inverse probability of censoring.
func (c *Concordance) Concordance() float64 {

	n := len(c.time)

	tau := c.tau
	if tau == 0 {
		for i, t := range c.time {
			if c.status[i] == 1 && t > tau {
				tau = t
			}
		}
	}

	var num, den float64
	for k := 0; k < c.npair; k++ {

		i := c.rng.Intn(n)
		j := c.rng.Intn(n)
		if i == j {
			continue
		}

		// Arrange so that i has the earlier time.
		if c.time[j] < c.time[i] {
			i, j = j, i
		}

		// Comparable pairs have an observed event at the earlier
		// time, inside the horizon.
		if c.status[i] != 1 || c.time[i] >= tau {
			continue
		}

		g := c.censProb(c.time[i])
		if g <= 0 {
			continue
		}
		w := 1 / (g * g)

		den += w
		if c.score[i] > c.score[j] {
			num += w
		} else if c.score[i] == c.score[j] {
			num += w / 2
		}
	}

	if den == 0 {
		return math.NaN()
	}
	return num / den
}
