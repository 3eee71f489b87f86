package config

import (
	"testing"
	"time"

	"github.com/joeycumines/scenario-fragments/internal/condition"
	"github.com/joeycumines/scenario-fragments/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSettings_Defaults(t *testing.T) {
	t.Parallel()
	got, err := ResolveSettings(NewConfig(), DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, Settings{
		Color:              "auto",
		LogLevel:           "info",
		LogFormat:          "text",
		LogMaxSizeMB:       10,
		LogMaxFiles:        5,
		Step:               50 * time.Millisecond,
		MaxTicks:           100000,
		Grid:               sim.DefaultGridConfig(),
		ConditionMode:      condition.ModeExpr,
		ConditionCacheSize: condition.DefaultCacheSize,
		RedisKey:           "sfrag:reports",
	}, got)
}

func TestResolveSettings_ConfigAndEnv(t *testing.T) {
	c := NewConfig()
	c.SetGlobalOption("sim.step", "20ms")
	c.SetGlobalOption("sim.blocks", "6")
	c.SetGlobalOption("sim.lane-width", "3")
	c.SetGlobalOption("log.level", "DEBUG")
	c.SetGlobalOption("report.redis-max-len", "50")
	c.SetGlobalOption("condition.mode", "expr")

	t.Setenv("SFRAG_CONDITION_MODE", "cel")
	t.Setenv("SFRAG_REDIS_ADDR", "localhost:6379")

	got, err := ResolveSettings(c, DefaultSchema())
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, got.Step)
	assert.Equal(t, 6, got.Grid.Blocks)
	assert.InDelta(t, 3, got.Grid.LaneWidth, 1e-12)
	assert.Equal(t, "debug", got.LogLevel)
	assert.EqualValues(t, 50, got.RedisMaxLen)
	assert.Equal(t, condition.ModeCEL, got.ConditionMode)
	assert.Equal(t, "localhost:6379", got.RedisAddr)
}

func TestResolveSettings_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"bad int", "sim.lanes", "two", `sim.lanes: expected int, got "two"`},
		{"bad float", "sim.block-size", "wide", `sim.block-size: expected float, got "wide"`},
		{"bad duration", "sim.step", "50", `sim.step: expected duration, got "50"`},
		{"zero step", "sim.step", "0s", "sim.step: must be positive"},
		{"bad mode", "condition.mode", "lua", "condition.mode"},
		{"bad color", "color", "sometimes", "color: expected auto, always or never"},
		{"bad grid", "sim.block-size", "10", "too small"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewConfig()
			c.SetGlobalOption(tt.key, tt.value)
			_, err := ResolveSettings(c, DefaultSchema())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolveSettings_ReportsAll(t *testing.T) {
	t.Parallel()
	c := NewConfig()
	c.SetGlobalOption("sim.lanes", "two")
	c.SetGlobalOption("sim.max-ticks", "many")

	_, err := ResolveSettings(c, DefaultSchema())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sim.lanes")
	assert.Contains(t, err.Error(), "sim.max-ticks")
}
