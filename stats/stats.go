// Package stats holds the shared machinery for fitting regression-style
// models by maximum likelihood: the model and parameter interfaces, the
// results value returned by a fit, sampling variance estimation, and the
// text summary tables printed by the analysis.
package stats

// Dtype is the numeric type used for all data and parameter values.
type Dtype = float64

// HessType indicates the type of a Hessian matrix for a log-likelihood.
type HessType int

// ObsHess (observed Hessian) and ExpHess (expected Hessian) are the two
// types of log-likelihood Hessian matrices.
const (
	ObsHess HessType = iota
	ExpHess
)

// Parameter is the parameter of a model.
type Parameter interface {

	// GetCoeff returns the coefficients of the covariates in the
	// linear predictor.  The returned value is a reference, changes
	// to it change the parameter itself.
	GetCoeff() []float64

	// SetCoeff sets the coefficients of the covariates in the linear
	// predictor.
	SetCoeff([]float64)

	// Clone creates a deep copy of the Parameter.
	Clone() Parameter
}

// Coeff is a plain coefficient-vector Parameter.
type Coeff struct {
	coeff []float64
}

// NewCoeff returns a Coeff parameter wrapping x.
func NewCoeff(x []float64) *Coeff {
	return &Coeff{coeff: x}
}

// GetCoeff returns the coefficient vector.
func (c *Coeff) GetCoeff() []float64 {
	return c.coeff
}

// SetCoeff sets the coefficient vector.
func (c *Coeff) SetCoeff(x []float64) {
	c.coeff = x
}

// Clone returns a deep copy of the parameter value.
func (c *Coeff) Clone() Parameter {
	y := make([]float64, len(c.coeff))
	copy(y, c.coeff)
	return &Coeff{coeff: y}
}

// RegFitter is a regression model that can be fit to data.
type RegFitter interface {

	// NumParams is the number of parameters in the model.
	NumParams() int

	// NumObs is the number of observations in the data set.
	NumObs() int

	// LogLike is the log-likelihood function.
	LogLike(Parameter) float64

	// Score fills in the score vector.
	Score(Parameter, []float64)

	// Hessian fills in the (vectorized) Hessian matrix.
	Hessian(Parameter, HessType, []float64)
}
