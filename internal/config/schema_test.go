package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchema() *ConfigSchema {
	s := NewSchema()
	s.Register(
		ConfigOption{Key: "level", Type: TypeString, Default: "info", Description: "Level", EnvVar: "SFRAG_TEST_SCHEMA_LEVEL"},
		ConfigOption{Key: "lanes", Type: TypeInt, Default: "2", Description: "Lanes"},
		ConfigOption{Key: "realtime", Section: "run", Type: TypeBool, Default: "false", Description: "Realtime"},
		ConfigOption{Key: "style", Section: "tree", Type: TypeString, Description: "Style"},
	)
	return s
}

func TestSchema_LookupAndIsKnown(t *testing.T) {
	t.Parallel()
	s := newTestSchema()

	tests := []struct {
		section, key string
		lookup       bool
		known        bool
	}{
		{"", "level", true, true},
		{"", "realtime", false, false},
		{"run", "realtime", true, true},
		{"run", "level", false, true},
		{"tree", "realtime", false, false},
		{"nosection", "lanes", false, true},
		{"", "nonexistent", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.section+"/"+tt.key, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.lookup, s.Lookup(tt.section, tt.key) != nil)
			assert.Equal(t, tt.known, s.IsKnown(tt.section, tt.key))
		})
	}
}

func TestSchema_Listing(t *testing.T) {
	t.Parallel()
	s := newTestSchema()

	var globals []string
	for _, o := range s.Options("") {
		globals = append(globals, o.Key)
	}
	assert.Equal(t, []string{"level", "lanes"}, globals)

	run := s.Options("run")
	require.Len(t, run, 1)
	assert.Equal(t, "realtime", run[0].Key)

	assert.Equal(t, []string{"run", "tree"}, s.Sections())
}

func TestSchema_DuplicateOverwrites(t *testing.T) {
	t.Parallel()
	s := NewSchema()
	s.Register(ConfigOption{Key: "lanes", Type: TypeString}, ConfigOption{Key: "blocks", Type: TypeInt})
	s.Register(ConfigOption{Key: "lanes", Type: TypeInt})
	assert.Equal(t, TypeInt, s.Lookup("", "lanes").Type)
	require.Len(t, s.Options(""), 2)
	assert.Equal(t, "lanes", s.Options("")[0].Key, "replaced in place")
}

func TestSchema_Resolve(t *testing.T) {
	s := newTestSchema()
	c := NewConfig()
	c.SetGlobalOption("level", "debug")

	assert.Equal(t, "debug", s.Resolve(c, "level"))
	assert.Equal(t, "2", s.Resolve(c, "lanes"), "schema default")
	assert.Empty(t, s.Resolve(c, "nonexistent"))

	t.Setenv("SFRAG_TEST_SCHEMA_LEVEL", "warn")
	assert.Equal(t, "warn", s.Resolve(c, "level"), "env overrides config")

	t.Setenv("SFRAG_TEST_SCHEMA_LEVEL", "")
	assert.Empty(t, s.Resolve(c, "level"), "empty env still overrides")
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	s := newTestSchema()

	tests := []struct {
		name  string
		setup func(*Config)
		want  []string
	}{
		{
			name:  "valid",
			setup: func(c *Config) { c.SetGlobalOption("lanes", "3"); c.SetCommandOption("run", "realtime", "yes") },
		},
		{
			name:  "unknown global",
			setup: func(c *Config) { c.SetGlobalOption("lane", "3") },
			want:  []string{`unknown global option: "lane" (value: "3")`},
		},
		{
			name:  "unknown command option",
			setup: func(c *Config) { c.SetCommandOption("tree", "realtime", "true") },
			want:  []string{`unknown option for command "tree": "realtime" (value: "true")`},
		},
		{
			name:  "global type mismatch",
			setup: func(c *Config) { c.SetGlobalOption("lanes", "two") },
			want:  []string{`global option "lanes": expected int, got "two"`},
		},
		{
			name:  "global key in section is type checked",
			setup: func(c *Config) { c.SetCommandOption("run", "lanes", "x") },
			want:  []string{`option "lanes" in [run]: expected int, got "x"`},
		},
		{
			name: "sorted",
			setup: func(c *Config) {
				c.SetGlobalOption("zeta", "1")
				c.SetGlobalOption("alpha", "1")
			},
			want: []string{
				`unknown global option: "alpha" (value: "1")`,
				`unknown global option: "zeta" (value: "1")`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewConfig()
			tt.setup(c)
			assert.Equal(t, tt.want, ValidateConfig(c, s))
		})
	}
}

func TestOptionType_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ   OptionType
		value string
		ok    bool
	}{
		{TypeString, "anything at all", true},
		{"", "", true},
		{TypeBool, "on", true},
		{TypeBool, "No", true},
		{TypeBool, "maybe", false},
		{TypeInt, "42", true},
		{TypeInt, "4.2", false},
		{TypeFloat, "4.2", true},
		{TypeFloat, "1e3", true},
		{TypeFloat, "wide", false},
		{TypeDuration, "50ms", true},
		{TypeDuration, "50", false},
		{"colour", "red", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"="+tt.value, func(t *testing.T) {
			t.Parallel()
			err := tt.typ.Check(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetters(t *testing.T) {
	t.Parallel()
	c := NewConfig()
	c.SetGlobalOption("name", "ego")
	c.SetGlobalOption("flag", "yes")
	c.SetCommandOption("run", "realtime", "on")
	c.SetCommandOption("run", "json", "sometimes")

	assert.Equal(t, "ego", c.GetString("name"))
	assert.Empty(t, c.GetString("missing"))

	v, ok := c.GetCommandBool("run", "realtime")
	assert.True(t, ok)
	assert.True(t, v)
	_, ok = c.GetCommandBool("run", "json")
	assert.False(t, ok)
	v, ok = c.GetCommandBool("run", "flag")
	assert.True(t, ok, "falls back to the global")
	assert.True(t, v)
	_, ok = c.GetCommandBool("run", "missing")
	assert.False(t, ok)
}

func TestFormatHelp(t *testing.T) {
	t.Parallel()
	help := newTestSchema().FormatHelp()

	assert.True(t, strings.HasPrefix(help, "Global Options:\n"))
	assert.Contains(t, help, "(default: info, env: SFRAG_TEST_SCHEMA_LEVEL)")
	assert.Contains(t, help, "(type: int, default: 2)")
	assert.Contains(t, help, "\n[run] Options:\n")
	assert.Contains(t, help, "\n[tree] Options:\n")
	assert.Less(t, strings.Index(help, "[run]"), strings.Index(help, "[tree]"))

	assert.Empty(t, NewSchema().FormatHelp())
}

func TestDefaultSchema(t *testing.T) {
	t.Parallel()
	s := DefaultSchema()

	types := map[string]OptionType{
		"color":                TypeString,
		"log.file":             TypeString,
		"log.level":            TypeString,
		"log.format":           TypeString,
		"log.max-size-mb":      TypeInt,
		"log.max-files":        TypeInt,
		"sim.step":             TypeDuration,
		"sim.max-ticks":        TypeInt,
		"sim.blocks":           TypeInt,
		"sim.block-size":       TypeFloat,
		"sim.lane-width":       TypeFloat,
		"sim.lanes":            TypeInt,
		"condition.mode":       TypeString,
		"condition.cache-size": TypeInt,
		"report.redis-addr":    TypeString,
		"report.redis-key":     TypeString,
		"report.redis-max-len": TypeInt,
	}
	for key, typ := range types {
		opt := s.Lookup("", key)
		if assert.NotNil(t, opt, key) {
			assert.Equal(t, typ, opt.Type, key)
			assert.NotEmpty(t, opt.Description, key)
			assert.NoError(t, opt.Type.Check(opt.Default), "default of %s", key)
		}
	}
	assert.Len(t, s.Options(""), len(types))
	assert.True(t, s.IsKnown("run", "realtime"))
	assert.True(t, s.IsKnown("run", "json"))
	assert.True(t, s.IsKnown("tree", "style"))
}
