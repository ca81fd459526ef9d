package analysis

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/dataset"
	"github.com/niecestroa/survival-analysis-german-breast-cancer/duration"
	"github.com/niecestroa/survival-analysis-german-breast-cancer/formula"
)

func (p *Pipeline) phConfig() *duration.PHRegConfig {
	c := duration.DefaultPHRegConfig()
	c.Log = p.log
	return c
}

// fitFormula expands a model formula against the table and fits a
// proportional hazards model over the resulting design columns.
func (p *Pipeline) fitFormula(ds *dataset.Dataset, f string) (*duration.PHResults, error) {

	dsx, names, err := formula.Expand(ds, f)
	if err != nil {
		return nil, err
	}

	ph, err := duration.NewPHReg(dsx, TimeVar, StatusVar, names, p.phConfig())
	if err != nil {
		return nil, err
	}

	return ph.Fit()
}

// NullModel fits the baseline-hazard-only model and returns the table
// with the null-model martingale residuals appended as the 'martingale'
// column.  Cases excluded from the fit get a missing residual.
func (p *Pipeline) NullModel(ds *dataset.Dataset) (*dataset.Dataset, *duration.PHResults, error) {

	ph, err := duration.NewPHReg(ds, TimeVar, StatusVar, nil, p.phConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("analysis: null model: %w", err)
	}

	rslt, err := ph.Fit()
	if err != nil {
		return nil, nil, fmt.Errorf("analysis: null model: %w", err)
	}

	resid := ph.MartingaleResid(rslt.Params())

	vals := make([]float64, ds.NumObs())
	for i := range vals {
		vals[i] = math.NaN()
	}
	for i, r := range ph.Rows() {
		vals[r] = resid[i]
	}

	dsm, err := ds.WithColumn("martingale", vals)
	if err != nil {
		return nil, nil, err
	}

	return dsm, rslt, nil
}

// FullModel fits the proportional hazards model over every covariate
// remaining after cleaning.
func (p *Pipeline) FullModel(ds *dataset.Dataset) (*duration.PHResults, error) {

	rslt, err := p.fitFormula(ds, FullFormula)
	if err != nil {
		return nil, fmt.Errorf("analysis: full model: %w", err)
	}
	return rslt, nil
}

// ReducedModel fits the proportional hazards model over the reduced
// covariate subset.
func (p *Pipeline) ReducedModel(ds *dataset.Dataset) (*duration.PHResults, error) {

	rslt, err := p.fitFormula(ds, ReducedFormula)
	if err != nil {
		return nil, fmt.Errorf("analysis: reduced model: %w", err)
	}
	return rslt, nil
}

// ScreenResult is the outcome of one interaction screen fit: the fitted
// model, or the error that prevented it.
type ScreenResult struct {
	Term    string
	Results *duration.PHResults
	Err     error
}

// ScreenInteractions fits, for each configured interaction term, the
// reduced model augmented with that single term.  Each fit is isolated: a
// failed term records its error and the remaining terms still run.
func (p *Pipeline) ScreenInteractions(ds *dataset.Dataset) []ScreenResult {

	out := make([]ScreenResult, 0, len(InteractionTerms))
	for _, term := range InteractionTerms {

		rslt, err := p.fitFormula(ds, ReducedFormula+" + "+term)
		if err != nil {
			p.log.Printf("interaction screen: term %s failed: %v", term, err)
		}
		out = append(out, ScreenResult{Term: term, Results: rslt, Err: err})
	}

	return out
}

// TestProportionality runs the rank-transform proportional hazards
// assumption test against the reduced model.
func (p *Pipeline) TestProportionality(reduced *duration.PHResults) (*duration.PHTestResult, error) {

	rslt, err := duration.TestPH(reduced, duration.RankTransform)
	if err != nil {
		return nil, fmt.Errorf("analysis: proportional hazards test: %w", err)
	}
	return rslt, nil
}

// FinalModel fits the designated final model and writes its DFbeta
// influence residuals, one column per coefficient, to dfbeta.csv in the
// output directory.
func (p *Pipeline) FinalModel(ds *dataset.Dataset) (*duration.PHResults, error) {

	rslt, err := p.fitFormula(ds, FinalFormula)
	if err != nil {
		return nil, fmt.Errorf("analysis: final model: %w", err)
	}

	dfbeta, err := rslt.DFBetaResid()
	if err != nil {
		return nil, fmt.Errorf("analysis: final model: %w", err)
	}

	if err := p.writeDFBeta(rslt.Names(), dfbeta); err != nil {
		return nil, err
	}

	return rslt, nil
}

// FitWeibull fits the Weibull accelerated failure time model with the
// final formula.  The formula is shared verbatim with the final Cox model
// so the coefficient comparison is between the same design columns.
func (p *Pipeline) FitWeibull(ds *dataset.Dataset) (*duration.WeibullResults, error) {

	dsx, names, err := formula.Expand(ds, FinalFormula)
	if err != nil {
		return nil, err
	}

	cfg := duration.DefaultWeibullAFTConfig()
	cfg.Log = p.log

	wb, err := duration.NewWeibullAFT(dsx, TimeVar, StatusVar, names, cfg)
	if err != nil {
		return nil, fmt.Errorf("analysis: Weibull model: %w", err)
	}

	rslt, err := wb.Fit()
	if err != nil {
		return nil, fmt.Errorf("analysis: Weibull model: %w", err)
	}

	return rslt, nil
}

func (p *Pipeline) writeDFBeta(names []string, dfbeta [][]float64) error {

	var b strings.Builder
	b.WriteString(strings.Join(names, ","))
	b.WriteString("\n")
	for _, row := range dfbeta {
		for j, v := range row {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteString("\n")
	}

	return p.writeArtifact("dfbeta.csv", b.String())
}

// writeArtifact writes a text artifact into the output directory.
func (p *Pipeline) writeArtifact(name, content string) error {

	if err := os.MkdirAll(p.cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("analysis: creating output directory: %w", err)
	}
	path := filepath.Join(p.cfg.OutDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("analysis: writing %s: %w", name, err)
	}
	return nil
}
