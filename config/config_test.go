package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByteMirror/ghostmaze/log"
)

// TestMain runs before all tests to set up the test environment
func TestMain(m *testing.M) {
	log.Initialize()
	defer log.Close()

	exitCode := m.Run()
	os.Exit(exitCode)
}

// withTempHome points the config dir at a throwaway home for the test.
func withTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.GreaterOrEqual(t, cfg.MazeWidth, 5)
	assert.GreaterOrEqual(t, cfg.MazeHeight, 5)
	assert.GreaterOrEqual(t, cfg.Ghosts, 1)
	assert.GreaterOrEqual(t, cfg.BottleneckCapacity, 1)
	assert.Greater(t, cfg.StepIntervalMs, 0)
	assert.Greater(t, cfg.PublishIntervalMs, 0)
	assert.LessOrEqual(t, cfg.TaskCPUMinMs, cfg.TaskCPUMaxMs)
	assert.LessOrEqual(t, cfg.TaskIOMinMs, cfg.TaskIOMaxMs)
}

func TestSaveAndLoadConfig(t *testing.T) {
	withTempHome(t)

	cfg := DefaultConfig()
	cfg.MazeWidth = 21
	cfg.Ghosts = 7
	cfg.Seed = 42

	require.NoError(t, SaveConfig(cfg))

	loaded := LoadConfig()
	assert.Equal(t, 21, loaded.MazeWidth)
	assert.Equal(t, 7, loaded.Ghosts)
	assert.Equal(t, int64(42), loaded.Seed)
}

func TestLoadConfigCreatesDefaultOnFirstRun(t *testing.T) {
	home := withTempHome(t)

	loaded := LoadConfig()
	assert.Equal(t, DefaultConfig(), loaded)

	// First run persists the defaults.
	_, err := os.Stat(filepath.Join(home, ".ghostmaze", ConfigFileName))
	assert.NoError(t, err)
}

func TestLoadConfigFallsBackOnCorruptFile(t *testing.T) {
	home := withTempHome(t)

	dir := filepath.Join(home, ".ghostmaze")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("not json"), 0644))

	loaded := LoadConfig()
	assert.Equal(t, DefaultConfig(), loaded)
}
