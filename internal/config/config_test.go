package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Workspace.Dir)
	assert.False(t, cfg.Workspace.Overwrite)
	assert.InDelta(t, 4.0, cfg.Scenarios.Surges["MHHW"], 0.001)
	assert.InDelta(t, 8.0, cfg.Scenarios.Surges["10yr"], 0.001)
	assert.InDelta(t, 9.6, cfg.Scenarios.Surges["50yr"], 0.001)
	assert.InDelta(t, 10.5, cfg.Scenarios.Surges["100yr"], 0.001)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, cfg.Scenarios.SLRSteps)
	assert.Equal(t, "flood_elev", cfg.Fields.Elevation)
	assert.Equal(t, "N_bldgs", cfg.Fields.BuildingCount)
	assert.Equal(t, "area_wtlds", cfg.Fields.WetlandArea)
	assert.Equal(t, "N_wtlds", cfg.Fields.WetlandCount)
	assert.Equal(t, "STRUCT_ID", cfg.Fields.BuildingID)
	assert.Equal(t, int64(4)<<30, cfg.Raster.MaxBytes)
	assert.Equal(t, "tidegate_runs.db", cfg.RunLog.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
workspace:
  dir: /data/tidegates
  overwrite: true
scenarios:
  surges:
    MHHW: 3.2
    10yr: 7.1
    50yr: 8.8
    100yr: 9.9
  slr_steps: [0, 2, 4]
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/tidegates", cfg.Workspace.Dir)
	assert.True(t, cfg.Workspace.Overwrite)
	assert.InDelta(t, 3.2, cfg.Scenarios.Surges["MHHW"], 0.001)
	assert.Equal(t, []int{0, 2, 4}, cfg.Scenarios.SLRSteps)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, "flood_elev", cfg.Fields.Elevation)
}

func TestLoadCanonicalizesSurgeNames(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	// Keys as viper hands them back: lowercased regardless of the file's
	// spelling.
	yaml := `
scenarios:
  surges:
    mhhw: 3.2
    10YR: 7.1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 3.2, cfg.Scenarios.Surges["MHHW"], 0.001)
	assert.InDelta(t, 7.1, cfg.Scenarios.Surges["10yr"], 0.001)
	_, hasLower := cfg.Scenarios.Surges["mhhw"]
	assert.False(t, hasLower)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "console"})
	assert.Error(t, err)
}
