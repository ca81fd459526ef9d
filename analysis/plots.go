package analysis

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/dataset"
	"github.com/niecestroa/survival-analysis-german-breast-cancer/duration"
)

// MartingalePlots renders, for each continuous diagnostic covariate, a
// scatter of the covariate against the null-model martingale residuals
// with a lowess trend line, writing one PNG per covariate into the output
// directory.  Cases with a missing covariate or residual are excluded
// from the plot.
func (p *Pipeline) MartingalePlots(ds *dataset.Dataset) error {

	resid, err := ds.Col("martingale")
	if err != nil {
		return fmt.Errorf("analysis: martingale plots: %w", err)
	}

	if err := os.MkdirAll(p.cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("analysis: creating output directory: %w", err)
	}

	for _, v := range DiagnosticCovariates {

		x, err := ds.Col(v)
		if err != nil {
			return fmt.Errorf("analysis: martingale plots: %w", err)
		}

		var px, py []float64
		for i := range x {
			if math.IsNaN(x[i]) || math.IsNaN(resid[i]) {
				continue
			}
			px = append(px, x[i])
			py = append(py, resid[i])
		}
		if len(px) == 0 {
			p.log.Printf("martingale plot: no plottable points for %s", v)
			continue
		}

		fname := filepath.Join(p.cfg.OutDir, fmt.Sprintf("martingale_%s.png", v))
		if err := p.martingalePlot(v, px, py, fname); err != nil {
			return err
		}
		p.log.Printf("wrote %s", fname)
	}

	return nil
}

func (p *Pipeline) martingalePlot(name string, x, y []float64, fname string) error {

	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("Martingale Residuals vs %s", name)
	plt.X.Label.Text = name
	plt.Y.Label.Text = "Martingale residual"

	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("analysis: building scatter: %w", err)
	}
	sc.GlyphStyle.Color = color.RGBA{B: 128, A: 128}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	plt.Add(sc)

	sx, sy := lowess(x, y, p.cfg.LowessFrac)
	spts := make(plotter.XYs, len(sx))
	for i := range sx {
		spts[i].X = sx[i]
		spts[i].Y = sy[i]
	}
	ln, err := plotter.NewLine(spts)
	if err != nil {
		return fmt.Errorf("analysis: building trend line: %w", err)
	}
	ln.Color = color.RGBA{R: 200, A: 255}
	ln.Width = vg.Points(1.5)
	plt.Add(ln)

	w := vg.Length(p.cfg.PlotWidth) * vg.Inch
	h := vg.Length(p.cfg.PlotHeight) * vg.Inch
	if err := plt.Save(w, h, fname); err != nil {
		return fmt.Errorf("analysis: saving %s: %w", fname, err)
	}

	return nil
}

// SurvivalCurves renders the comparison plot: a Kaplan-Meier curve for
// each hormone therapy group, overlaid with the Weibull model's mean
// predicted survival curve evaluated on a fixed time grid.
func (p *Pipeline) SurvivalCurves(ds *dataset.Dataset, weib *duration.WeibullResults) error {

	col, err := ds.Column("hormone_f")
	if err != nil {
		return fmt.Errorf("analysis: survival curves: %w", err)
	}
	time, err := ds.Col(TimeVar)
	if err != nil {
		return fmt.Errorf("analysis: survival curves: %w", err)
	}
	status, err := ds.Col(StatusVar)
	if err != nil {
		return fmt.Errorf("analysis: survival curves: %w", err)
	}

	cp := duration.NewCurvePlot("Cox vs Weibull Survival Comparison").
		Size(p.cfg.PlotWidth, p.cfg.PlotHeight)

	// One KM curve per group, "Yes" first.
	for _, code := range []float64{1, 0} {
		var gt, gs []float64
		for i, v := range col.Values {
			if v == code {
				gt = append(gt, time[i])
				gs = append(gs, status[i])
			}
		}
		sf, err := duration.NewSurvfuncRight(gt, gs)
		if err != nil {
			return fmt.Errorf("analysis: survival curves: %w", err)
		}
		label := fmt.Sprintf("Cox KM: %s", col.Levels[code])
		if err := cp.AddSurvfunc(sf, label); err != nil {
			return err
		}
	}

	grid := timeGrid(time, WeibullTimeStep)
	if err := cp.AddCurve(grid, weib.MeanSurvival(grid), "Weibull Mean Curve"); err != nil {
		return err
	}

	if err := os.MkdirAll(p.cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("analysis: creating output directory: %w", err)
	}
	fname := filepath.Join(p.cfg.OutDir, "survival_comparison.png")
	if err := cp.Save(fname); err != nil {
		return err
	}
	p.log.Printf("wrote %s", fname)

	return nil
}

// timeGrid returns the grid 0, step, 2*step, ... up to the maximum
// observed time.
func timeGrid(time []float64, step float64) []float64 {

	var mx float64
	for _, t := range time {
		if !math.IsNaN(t) && t > mx {
			mx = t
		}
	}

	var grid []float64
	for t := 0.0; t < mx; t += step {
		grid = append(grid, t)
	}
	return grid
}
