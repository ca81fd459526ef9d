// Package analysis implements the German Breast Cancer Study survival
// analysis workflow: data cleaning, null/full/reduced/interaction/final
// proportional hazards models, the proportional hazards assumption test,
// a Weibull accelerated failure time comparison, residual diagnostics,
// and survival curve plots.
package analysis

import (
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// The analysis is defined by the constants below.  The split thresholds
// and the term lists are fixed properties of this study, not quantities
// recomputed from the data; changing them changes the analysis.
const (
	// TimeVar and StatusVar are the duration and event columns used
	// by every model fit.
	TimeVar   = "survtime"
	StatusVar = "censdead"

	// AgeSplit and RectimeSplit are the median-split thresholds for
	// the derived age and recurrence-time factors.
	AgeSplit     = 53
	RectimeSplit = 1084

	// WeibullTimeStep is the spacing of the time grid on which the
	// Weibull mean survival curve is evaluated.
	WeibullTimeStep = 10

	// ReducedFormula is the covariate subset carried into the
	// assumption test and interaction screen.
	ReducedFormula = "size + prog_recp + rectime"

	// FinalFormula is fit by both the final Cox model and the Weibull
	// AFT model; the coefficient comparison requires the two fits to
	// share it exactly.
	FinalFormula = "size + prog_recp + rectime + hormone_f + age_med_f + prog_recp:rectime + size:hormone_f"

	// FullFormula covers every covariate remaining after cleaning.
	FullFormula = "age + size + nodes + prog_recp + estrg_recp + rectime + " +
		"menopause_f + hormone_f + censrec_f + grade_f + age_med_f + rectime_med_f"
)

// NumericCols are the raw columns coerced to numbers during cleaning.
var NumericCols = []string{
	"age", "size", "nodes", "prog_recp", "estrg_recp", "rectime", "survtime", "censdead",
}

// DropCols are the raw and identifier columns removed after the factor
// derivations.
var DropCols = []string{
	"id", "diagdateb", "recdate", "deathdate", "menopause", "hormone", "grade", "censrec",
}

// DiagnosticCovariates are the continuous covariates plotted against the
// null-model martingale residuals.
var DiagnosticCovariates = []string{
	"age", "size", "nodes", "prog_recp", "estrg_recp", "rectime", "survtime",
}

// InteractionTerms are the pairwise interactions screened one at a time on
// top of the reduced model.
var InteractionTerms = []string{
	"size:hormone_f",
	"size:menopause_f",
	"size:grade_f",
	"prog_recp:rectime",
	"size:prog_recp",
}

// Config holds the run parameters of the workflow.
type Config struct {

	// DataPath is the input CSV file.
	DataPath string `yaml:"data"`

	// OutDir receives the plots, model summaries, and residual files.
	OutDir string `yaml:"out"`

	// Plot size in inches.
	PlotWidth  float64 `yaml:"plot_width"`
	PlotHeight float64 `yaml:"plot_height"`

	// LowessFrac is the fraction of points in each local regression
	// window of the martingale diagnostic plots.
	LowessFrac float64 `yaml:"lowess_frac"`
}

// DefaultConfig returns the default run parameters.
func DefaultConfig() *Config {
	return &Config{
		OutDir:     "out",
		PlotWidth:  5,
		PlotHeight: 4,
		LowessFrac: 0.6,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {

	cfg := DefaultConfig()

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("analysis: reading config: %w", err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("analysis: parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("analysis: no input data file configured")
	}
	if c.OutDir == "" {
		return fmt.Errorf("analysis: no output directory configured")
	}
	if c.LowessFrac <= 0 || c.LowessFrac > 1 {
		return fmt.Errorf("analysis: lowess fraction %v out of range", c.LowessFrac)
	}
	return nil
}

// Pipeline runs the workflow stages in order against one dataset.
type Pipeline struct {
	cfg *Config
	log *log.Logger
	out io.Writer
}

// NewPipeline returns a Pipeline writing its tables to out and its stage
// log to logger.  A nil logger discards the log; a nil writer means
// stdout.
func NewPipeline(cfg *Config, logger *log.Logger, out io.Writer) *Pipeline {

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if out == nil {
		out = os.Stdout
	}
	return &Pipeline{cfg: cfg, log: logger, out: out}
}
