package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromReader(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFromReader(strings.NewReader(`# Global options
log.level debug
sim.step 20ms

[run]
# per command
realtime true
log.level warn

[tree]
style never`))
	require.NoError(t, err)

	v, ok := cfg.GetGlobalOption("log.level")
	assert.True(t, ok)
	assert.Equal(t, "debug", v)

	v, ok = cfg.GetCommandOption("run", "realtime")
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	v, ok = cfg.GetCommandOption("run", "log.level")
	assert.True(t, ok)
	assert.Equal(t, "warn", v, "command value shadows the global")

	v, ok = cfg.GetCommandOption("tree", "sim.step")
	assert.True(t, ok)
	assert.Equal(t, "20ms", v, "falls back to the global")

	_, ok = cfg.GetCommandOption("nonexistent", "option")
	assert.False(t, ok)

	assert.False(t, cfg.HasWarnings(), "%v", cfg.GetWarnings())
}

func TestLoadFromReader_Empty(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Global)
	assert.Empty(t, cfg.Commands)
	assert.False(t, cfg.HasWarnings())
}

func TestLoadFromReader_ValueKeepsSpaces(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFromReader(strings.NewReader("log.file   /tmp/my logs/sfrag.log  \nflag"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/my logs/sfrag.log", cfg.GetString("log.file"))

	v, ok := cfg.GetGlobalOption("flag")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestLoadFromReader_Warnings(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFromReader(strings.NewReader(`sim.lanes two
colour auto
[run]
realtime maybe
bogus 1`))
	require.NoError(t, err)
	require.True(t, cfg.HasWarnings())

	warnings := strings.Join(cfg.GetWarnings(), "\n")
	assert.Contains(t, warnings, `global option "sim.lanes": expected int`)
	assert.Contains(t, warnings, `unknown global option: "colour"`)
	assert.Contains(t, warnings, `option "realtime" in [run]: expected bool`)
	assert.Contains(t, warnings, `unknown option for command "run": "bogus"`)
}

func TestLoadFromReader_Sections(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFromReader(strings.NewReader("[run\nsim.lanes\t3\n[tree]\nstyle never\n[]\nsim.blocks 5\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{`line 1: malformed section header "[run"`}, cfg.GetWarnings())
	assert.Equal(t, "3", cfg.GetString("sim.lanes"), "tab separates key and value")
	assert.Equal(t, "5", cfg.GetString("sim.blocks"), "empty header returns to globals")
	v, ok := cfg.GetCommandOption("tree", "style")
	assert.True(t, ok)
	assert.Equal(t, "never", v)
}

func TestSetGlobalAndCommandOptions(t *testing.T) {
	t.Parallel()
	cfg := NewConfig()

	cfg.SetGlobalOption("color", "never")
	v, ok := cfg.GetGlobalOption("color")
	require.True(t, ok)
	assert.Equal(t, "never", v)

	cfg.SetCommandOption("run", "json", "true")
	cfg.SetGlobalOption("json", "false")
	v, ok = cfg.GetCommandOption("run", "json")
	require.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestLoadFromPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cfg, err := LoadFromPath(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Global)

	path := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(path, []byte("sim.blocks 6\n[tree]\nstyle always"), 0600))
	cfg, err = LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "6", cfg.GetString("sim.blocks"))
	v, _ := cfg.GetCommandOption("tree", "style")
	assert.Equal(t, "always", v)
}

func TestLoadFromPath_RejectsSymlink(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	require.NoError(t, os.WriteFile(target, []byte("sim.blocks 6"), 0600))
	link := filepath.Join(dir, "config")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := LoadFromPath(link)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symlink not allowed")
}

func TestLoad_UsesConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("condition.mode cel"), 0600))
	t.Setenv(ConfigPathEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cel", cfg.GetString("condition.mode"))
}

func TestLoad_NoFileReturnsEmptyConfig(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "config"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Global)
	assert.Empty(t, cfg.Commands)
}
