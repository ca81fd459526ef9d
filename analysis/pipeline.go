package analysis

import (
	"fmt"
)

// Run executes the workflow end to end: clean, null model and martingale
// residuals, residual diagnostics, full and reduced models, interaction
// screen, proportional hazards assumption test, final model with DFbeta
// residuals, Weibull comparison, and survival curves.  The assumption
// test summary and the coefficient comparison are printed to the
// pipeline's writer; model summaries and residuals are written into the
// output directory.
func (p *Pipeline) Run() error {

	if err := p.cfg.Validate(); err != nil {
		return err
	}

	p.log.Printf("loading %s", p.cfg.DataPath)
	ds, err := LoadClean(p.cfg.DataPath)
	if err != nil {
		return err
	}
	p.log.Printf("cleaned table: %d rows, %d columns", ds.NumObs(), len(ds.Names()))

	p.log.Printf("fitting null model")
	ds, _, err = p.NullModel(ds)
	if err != nil {
		return err
	}

	p.log.Printf("rendering martingale diagnostics")
	if err := p.MartingalePlots(ds); err != nil {
		return err
	}

	p.log.Printf("fitting full model")
	full, err := p.FullModel(ds)
	if err != nil {
		return err
	}
	if err := p.writeArtifact("cox_full.txt", full.Summary().String()); err != nil {
		return err
	}

	p.log.Printf("fitting reduced model")
	reduced, err := p.ReducedModel(ds)
	if err != nil {
		return err
	}
	if err := p.writeArtifact("cox_reduced.txt", reduced.Summary().String()); err != nil {
		return err
	}

	p.log.Printf("screening interactions")
	screen := p.ScreenInteractions(ds)
	for _, sr := range screen {
		if sr.Err != nil {
			continue
		}
		name := fmt.Sprintf("cox_interaction_%s.txt", sanitize(sr.Term))
		if err := p.writeArtifact(name, sr.Results.Summary().String()); err != nil {
			return err
		}
	}

	p.log.Printf("testing proportional hazards assumption")
	zph, err := p.TestProportionality(reduced)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, zph.Summary().String())

	p.log.Printf("fitting final model")
	final, err := p.FinalModel(ds)
	if err != nil {
		return err
	}
	cidx, err := final.Concordance()
	if err != nil {
		return err
	}
	p.log.Printf("final model concordance: %.3f", cidx)
	body := final.Summary().String() + fmt.Sprintf("\nConcordance (Uno): %.3f\n", cidx)
	if err := p.writeArtifact("cox_final.txt", body); err != nil {
		return err
	}

	p.log.Printf("fitting Weibull model")
	weib, err := p.FitWeibull(ds)
	if err != nil {
		return err
	}
	if err := p.writeArtifact("weibull_final.txt", weib.Summary().String()); err != nil {
		return err
	}

	cmp, err := BuildComparison(final, weib)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, cmp.Summary().String())

	p.log.Printf("rendering survival curves")
	if err := p.SurvivalCurves(ds, weib); err != nil {
		return err
	}

	return nil
}

// sanitize makes an interaction term usable as a file name component.
func sanitize(term string) string {
	out := []rune(term)
	for i, c := range out {
		if c == ':' {
			out[i] = '_'
		}
	}
	return string(out)
}
