package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Drill.Source)
	assert.Nil(t, cfg.Server.Port)
	assert.Empty(t, cfg.Shortcuts)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[drill]
source = "http://localhost:8000"
pitches = [0, 1]
strict-pair-finding = true
pause-after-correct = false

[server]
port = 9000

[shortcuts]
play_audio = "^r"
continue = "Space"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Drill.Source)
	assert.Equal(t, "http://localhost:8000", *cfg.Drill.Source)
	require.NotNil(t, cfg.Drill.Pitches)
	assert.Equal(t, []int{0, 1}, *cfg.Drill.Pitches)
	require.NotNil(t, cfg.Drill.Strict)
	assert.True(t, *cfg.Drill.Strict)
	require.NotNil(t, cfg.Drill.PauseAfterCorrect)
	assert.False(t, *cfg.Drill.PauseAfterCorrect)
	assert.Nil(t, cfg.Drill.Devoiced)
	require.NotNil(t, cfg.Server.Port)
	assert.Equal(t, 9000, *cfg.Server.Port)
	assert.Equal(t, "^r", cfg.Shortcuts["play_audio"])
	assert.Equal(t, "Space", cfg.Shortcuts["continue"])
}

func TestLoadConfigRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[drill\nsource ="), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}
