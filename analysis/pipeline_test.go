package analysis

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {

	if testing.Short() {
		t.Skip("full workflow run")
	}

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "gbcs.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(syntheticCSV(150)), 0o644))

	cfg := DefaultConfig()
	cfg.DataPath = dataPath
	cfg.OutDir = filepath.Join(dir, "out")

	var out bytes.Buffer
	p := NewPipeline(cfg, nil, &out)
	require.NoError(t, p.Run())

	// The two tables of the analysis go to the writer.
	txt := out.String()
	assert.Contains(t, txt, "Proportional hazards assumption test")
	assert.Contains(t, txt, "Cox vs Weibull coefficient comparison")
	assert.Contains(t, txt, "Covariates: 7")
	assert.Contains(t, txt, "GLOBAL")

	// Everything else lands in the output directory.
	for _, name := range []string{
		"cox_full.txt",
		"cox_reduced.txt",
		"cox_final.txt",
		"weibull_final.txt",
		"dfbeta.csv",
		"survival_comparison.png",
		"martingale_age.png",
		"martingale_size.png",
		"martingale_nodes.png",
		"martingale_prog_recp.png",
		"martingale_estrg_recp.png",
		"martingale_rectime.png",
		"martingale_survtime.png",
		"cox_interaction_size_hormone_f.txt",
		"cox_interaction_prog_recp_rectime.txt",
	} {
		fi, err := os.Stat(filepath.Join(cfg.OutDir, name))
		require.NoError(t, err, name)
		assert.Greater(t, fi.Size(), int64(0), name)
	}

	final, err := os.ReadFile(filepath.Join(cfg.OutDir, "cox_final.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(final), "Concordance (Uno):")

	dfbeta, err := os.ReadFile(filepath.Join(cfg.OutDir, "dfbeta.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(dfbeta), "prog_recp:rectime")
}

func TestRunValidates(t *testing.T) {

	cfg := DefaultConfig()
	p := NewPipeline(cfg, nil, nil)
	assert.Error(t, p.Run())
}

func TestSanitize(t *testing.T) {

	if sanitize("prog_recp:rectime") != "prog_recp_rectime" {
		t.Fail()
	}
	if sanitize("size") != "size" {
		t.Fail()
	}
}

func TestTimeGrid(t *testing.T) {

	grid := timeGrid([]float64{5, 35}, 10)
	assert.Equal(t, []float64{0, 10, 20, 30}, grid)

	assert.Nil(t, timeGrid(nil, 10))
}
