package duration

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// CurvePlot overlays survival curves on a single plot: step functions for
// Kaplan-Meier estimates and ordinary lines for model-based curves.
type CurvePlot struct {
	plt    *plot.Plot
	width  vg.Length
	height vg.Length
	nline  int
}

// NewCurvePlot returns a survival curve plot with the given title.
func NewCurvePlot(title string) *CurvePlot {

	plt := plot.New()
	plt.Title.Text = title
	plt.X.Label.Text = "Time"
	plt.Y.Label.Text = "Proportion surviving"
	plt.Y.Min = 0
	plt.Y.Max = 1
	plt.Legend.Top = false
	plt.Legend.Left = true

	return &CurvePlot{
		plt:    plt,
		width:  4 * vg.Inch,
		height: 4 * vg.Inch,
	}
}

// Size sets the plot size in inches.
func (cp *CurvePlot) Size(w, h float64) *CurvePlot {
	cp.width = vg.Length(w) * vg.Inch
	cp.height = vg.Length(h) * vg.Inch
	return cp
}

// AddSurvfunc plots an estimated survival function as a step function.
func (cp *CurvePlot) AddSurvfunc(sf *SurvfuncRight, label string) error {

	ti := sf.Time()
	pr := sf.SurvProb()

	pts := make(plotter.XYs, 0, 2*len(ti)+1)
	pts = append(pts, plotter.XY{X: 0, Y: 1})
	for i := range ti {
		pts = append(pts, plotter.XY{X: ti[i], Y: pts[len(pts)-1].Y})
		pts = append(pts, plotter.XY{X: ti[i], Y: pr[i]})
	}

	return cp.addLine(pts, label)
}

// AddCurve plots a survival curve evaluated on a time grid.
func (cp *CurvePlot) AddCurve(times, prob []float64, label string) error {

	if len(times) != len(prob) {
		return fmt.Errorf("duration: curve coordinate lengths differ")
	}

	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = prob[i]
	}

	return cp.addLine(pts, label)
}

func (cp *CurvePlot) addLine(pts plotter.XYs, label string) error {

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("duration: building curve: %w", err)
	}
	line.Color = plotutil.Color(cp.nline)
	cp.nline++

	cp.plt.Add(line)
	cp.plt.Legend.Add(label, line)

	return nil
}

// Save writes the plot to the given file.
func (cp *CurvePlot) Save(fname string) error {

	if err := cp.plt.Save(cp.width, cp.height, fname); err != nil {
		return fmt.Errorf("duration: saving plot: %w", err)
	}
	return nil
}
