package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: drive-and-stop
actors: [{name: ego, spawn: {x: 20, y: 101.75}}]
steps:
  - {fragment: drive_and_sharp_stop, actor: ego, speed: 10, distance: 15}
`

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SFRAG_CONFIG", filepath.Join(dir, "config"))
	t.Setenv("SFRAG_LOG_LEVEL", "error")

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))

	t.Run("no command shows help", func(t *testing.T) {
		stdout, _, err := runCLI(t)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Available commands:")
	})

	t.Run("help flag", func(t *testing.T) {
		for _, arg := range []string{"-h", "--help"} {
			stdout, _, err := runCLI(t, arg)
			require.NoError(t, err)
			assert.Contains(t, stdout, "Usage: sfrag <command>")
		}
	})

	t.Run("version", func(t *testing.T) {
		stdout, _, err := runCLI(t, "version")
		require.NoError(t, err)
		assert.Equal(t, "sfrag version "+version+"\n", stdout)
	})

	t.Run("unknown command", func(t *testing.T) {
		_, stderr, err := runCLI(t, "nonexistent")
		require.Error(t, err)
		assert.Contains(t, stderr, "Unknown command: nonexistent")
	})

	t.Run("command help flag", func(t *testing.T) {
		_, stderr, err := runCLI(t, "run", "-h")
		require.ErrorIs(t, err, flag.ErrHelp)
		assert.Contains(t, stderr, "Usage: sfrag run")
	})

	t.Run("init then config", func(t *testing.T) {
		_, _, err := runCLI(t, "init")
		require.NoError(t, err)

		_, _, err = runCLI(t, "config", "sim.step", "25ms")
		require.NoError(t, err)

		stdout, _, err := runCLI(t, "config", "sim.step")
		require.NoError(t, err)
		assert.Equal(t, "sim.step: 25ms\n", stdout)
	})

	t.Run("validate", func(t *testing.T) {
		stdout, _, err := runCLI(t, "validate", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, `Scenario "drive-and-stop" is valid`)
	})

	t.Run("tree", func(t *testing.T) {
		stdout, _, err := runCLI(t, "tree", "-style", "never", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "DriveAndSharpStop (Sequence)")
	})

	t.Run("run", func(t *testing.T) {
		stdout, _, err := runCLI(t, "run", path)
		require.NoError(t, err)
		assert.Regexp(t, `Success:\s+true`, stdout)
	})
}
