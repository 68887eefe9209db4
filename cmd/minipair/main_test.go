package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/minipair/internal/config"
	"github.com/verte-zerg/minipair/internal/pairs"
)

func TestBuildFilters(t *testing.T) {
	f, err := buildFilters([]int{0, 2}, true, false)
	require.NoError(t, err)
	assert.Equal(t, [5]bool{true, false, true, false, false}, f.Pitches)
	assert.True(t, f.Devoiced)
	assert.False(t, f.Strict)

	_, err = buildFilters([]int{5}, false, false)
	require.Error(t, err)
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var pitches []int
	var strict bool
	cmd.Flags().IntSliceVar(&pitches, "pitch", []int{0}, "")
	cmd.Flags().BoolVar(&strict, "strict", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--strict=false"}))

	fromFile := []int{1, 3}
	on := true
	applyIntSliceConfig(cmd, "pitch", &pitches, &fromFile)
	applyBoolConfig(cmd, "strict", &strict, &on)

	assert.Equal(t, []int{1, 3}, pitches)
	assert.False(t, strict, "explicit flag wins over config")
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	_, err := toml.Decode(defaultConfigTemplate(), &cfg)
	require.NoError(t, err)
	assert.Nil(t, cfg.Drill.Source)
}

func TestCheckRecordsReportsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, pairs.DataDir), 0o755))
	good := `{"kana":"あめ","pairs":[{"rawPronunciation":"あめ","accentedMora":1,"moraCount":2,"pitchAccent":1,"soundData":"AA=="}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, pairs.DataDir, "good.json"), []byte(good), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, pairs.DataDir, "bad.json"), []byte(`{"kana":"x","pairs":[]}`), 0o644))

	src := pairs.NewDirSource(dir)
	failures, err := checkRecords(context.Background(), src, []string{"good.json", "bad.json", "missing.json"})
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "bad.json")
	assert.Contains(t, failures[1], "missing.json")
}
