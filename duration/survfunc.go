package duration

import (
	"fmt"
	"math"
	"sort"
)

// SurvfuncRight uses the method of Kaplan and Meier to estimate the
// survival distribution based on (possibly) right censored data.
type SurvfuncRight struct {

	// Distinct times (event or censoring), sorted, compressed to the
	// times where events occur plus the last time.
	times []float64

	// Number of events at each time in times.
	nEvents []float64

	// Number of people at risk just before each time in times.
	nRisk []float64

	// The estimated survival function evaluated at each time in times.
	survProb []float64

	// Greenwood standard errors for the estimates in survProb.
	survProbSE []float64
}

// NewSurvfuncRight estimates the survival function from the given times
// and status indicators (1 if the event occurred at the time, 0 if
// censored).  Cases with a missing time or status are excluded.
func NewSurvfuncRight(time, status []float64) (*SurvfuncRight, error) {

	if len(time) != len(status) {
		return nil, fmt.Errorf("duration: time and status lengths differ")
	}

	events := make(map[float64]float64)
	total := make(map[float64]float64)
	n := 0
	for i, t := range time {
		if math.IsNaN(t) || math.IsNaN(status[i]) {
			continue
		}
		if status[i] != 0 && status[i] != 1 {
			return nil, fmt.Errorf("duration: status has values other than 0 and 1")
		}
		if status[i] == 1 {
			events[t]++
		}
		total[t]++
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("duration: no observations for survival function")
	}

	sf := &SurvfuncRight{}
	sf.eventstats(events, total)
	sf.compress()
	sf.fit()

	return sf, nil
}

// Time returns the times at which the survival function changes.
func (sf *SurvfuncRight) Time() []float64 {
	return sf.times
}

// NumRisk returns the number of people at risk just before each time
// point where the survival function changes.
func (sf *SurvfuncRight) NumRisk() []float64 {
	return sf.nRisk
}

// NumEvents returns the number of events at each time point where the
// survival function changes.
func (sf *SurvfuncRight) NumEvents() []float64 {
	return sf.nEvents
}

// SurvProb returns the estimated survival probabilities at the points
// where the survival function changes.
func (sf *SurvfuncRight) SurvProb() []float64 {
	return sf.survProb
}

// SurvProbSE returns the standard errors of the estimated survival
// probabilities.
func (sf *SurvfuncRight) SurvProbSE() []float64 {
	return sf.survProbSE
}

// rollback converts per-time counts to counts at risk, by accumulating
// from the last time backwards.
func rollback(x []float64) {
	var z float64
	for i := len(x) - 1; i >= 0; i-- {
		z += x[i]
		x[i] = z
	}
}

func (sf *SurvfuncRight) eventstats(events, total map[float64]float64) {

	// Sorted distinct times (event or censoring)
	sf.times = make([]float64, 0, len(total))
	for t := range total {
		sf.times = append(sf.times, t)
	}
	sort.Float64s(sf.times)

	// Event count and risk set size at each time point.
	sf.nEvents = make([]float64, len(sf.times))
	sf.nRisk = make([]float64, len(sf.times))
	for i, t := range sf.times {
		sf.nEvents[i] = events[t]
		sf.nRisk[i] = total[t]
	}
	rollback(sf.nRisk)
}

// compress removes times where no events occurred, retaining the last
// time point regardless.
func (sf *SurvfuncRight) compress() {

	var ix []int
	for i := 0; i < len(sf.times); i++ {
		if sf.nEvents[i] > 0 || i == len(sf.times)-1 {
			ix = append(ix, i)
		}
	}

	if len(ix) < len(sf.times) {
		for i, j := range ix {
			sf.times[i] = sf.times[j]
			sf.nEvents[i] = sf.nEvents[j]
			sf.nRisk[i] = sf.nRisk[j]
		}
		sf.times = sf.times[0:len(ix)]
		sf.nEvents = sf.nEvents[0:len(ix)]
		sf.nRisk = sf.nRisk[0:len(ix)]
	}
}

func (sf *SurvfuncRight) fit() {

	sf.survProb = make([]float64, len(sf.times))
	x := float64(1)
	for i := range sf.times {
		x *= 1 - sf.nEvents[i]/sf.nRisk[i]
		sf.survProb[i] = x
	}

	sf.survProbSE = make([]float64, len(sf.times))
	x = 0
	for i := range sf.times {
		d := sf.nEvents[i]
		n := sf.nRisk[i]
		if n > d {
			x += d / (n * (n - d))
		}
		sf.survProbSE[i] = math.Sqrt(x) * sf.survProb[i]
	}
}
