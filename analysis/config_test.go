package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {

	cfg := DefaultConfig()
	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, 0.6, cfg.LowessFrac)
	assert.True(t, cfg.PlotWidth > 0 && cfg.PlotHeight > 0)
}

func TestLoadConfig(t *testing.T) {

	path := filepath.Join(t.TempDir(), "gbcs.yml")
	body := "data: gbcs.csv\nout: results\nlowess_frac: 0.4\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gbcs.csv", cfg.DataPath)
	assert.Equal(t, "results", cfg.OutDir)
	assert.Equal(t, 0.4, cfg.LowessFrac)

	// Unset keys keep their defaults.
	assert.Equal(t, 5.0, cfg.PlotWidth)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {

	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.DataPath = "gbcs.csv"
	assert.NoError(t, cfg.Validate())

	cfg.LowessFrac = 0
	assert.Error(t, cfg.Validate())
	cfg.LowessFrac = 1.5
	assert.Error(t, cfg.Validate())
	cfg.LowessFrac = 0.5

	cfg.OutDir = ""
	assert.Error(t, cfg.Validate())
}
