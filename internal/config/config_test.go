// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/proptree/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Scene:  config.SceneConfig{DeviceScaleFactor: 2, PageScaleFactor: 1},
		Output: config.OutputConfig{Format: config.FormatJSON},
		Trees:  config.TreesConfig{Mode: config.ModeActive},
		Log:    config.LogConfig{Level: "debug"},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_Invalid_ReturnsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"zero device scale", func(c *config.Config) { c.Scene.DeviceScaleFactor = 0 }, config.ErrInvalidDeviceScaleFactor},
		{"negative page scale", func(c *config.Config) { c.Scene.PageScaleFactor = -1 }, config.ErrInvalidPageScaleFactor},
		{"unknown format", func(c *config.Config) { c.Output.Format = "xml" }, config.ErrInvalidFormat},
		{"unknown mode", func(c *config.Config) { c.Trees.Mode = "impl" }, config.ErrInvalidMode},
		{"unknown level", func(c *config.Config) { c.Log.Level = "trace" }, config.ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, config.DefaultDeviceScaleFactor, cfg.Scene.DeviceScaleFactor, 0)
	assert.InDelta(t, config.DefaultPageScaleFactor, cfg.Scene.PageScaleFactor, 0)
	assert.Equal(t, config.FormatTable, cfg.Output.Format)
	assert.Equal(t, config.ModeMain, cfg.Trees.Mode)
	assert.True(t, cfg.Trees.ScaleContents)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ptdump.yaml")
	content := `scene:
  device_scale_factor: 2
output:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PTDUMP_TREES_MODE", "active")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, cfg.Scene.DeviceScaleFactor, 0)
	assert.Equal(t, config.FormatJSON, cfg.Output.Format)
	assert.Equal(t, config.ModeActive, cfg.Trees.Mode)
}

func TestLoadConfig_InvalidFile_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: xml\n"), 0o600))

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrInvalidFormat)
}

func TestLoadConfig_SearchPath(t *testing.T) {
	work := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(work)

	cfg, err := config.LoadConfig("")
	require.NoError(t, err, "no config file anywhere is not an error")
	assert.Equal(t, config.DefaultFormat, cfg.Output.Format)

	require.NoError(t, os.WriteFile(filepath.Join(home, ".ptdump.yaml"), []byte("trees:\n  mode: pending\n"), 0o600))
	cfg, err = config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.ModePending, cfg.Trees.Mode)

	// The working directory wins over the home directory.
	require.NoError(t, os.WriteFile(filepath.Join(work, ".ptdump.yaml"), []byte("trees:\n  mode: active\n"), 0o600))
	cfg, err = config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.ModeActive, cfg.Trees.Mode)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}
