package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joeycumines/scenario-fragments/internal/condition"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// Settings are the effective values of the global options, after environment
// overrides and schema defaults have been applied.
type Settings struct {
	Color string

	LogFile      string
	LogLevel     string
	LogFormat    string
	LogMaxSizeMB int
	LogMaxFiles  int

	Step     time.Duration
	MaxTicks int
	Grid     sim.GridConfig

	ConditionMode      condition.Mode
	ConditionCacheSize int

	RedisAddr   string
	RedisKey    string
	RedisMaxLen int64
}

// ResolveSettings resolves every global option of s against c. Values that do
// not parse are reported together.
func ResolveSettings(c *Config, s *ConfigSchema) (Settings, error) {
	r := resolver{c: c, s: s}
	out := Settings{
		Color:     r.string("color"),
		LogFile:   r.string("log.file"),
		LogLevel:  strings.ToLower(r.string("log.level")),
		LogFormat: strings.ToLower(r.string("log.format")),

		LogMaxSizeMB: r.int("log.max-size-mb"),
		LogMaxFiles:  r.int("log.max-files"),

		Step:     r.duration("sim.step"),
		MaxTicks: r.int("sim.max-ticks"),
		Grid: sim.GridConfig{
			Blocks:    r.int("sim.blocks"),
			BlockSize: r.float("sim.block-size"),
			LaneWidth: r.float("sim.lane-width"),
			Lanes:     r.int("sim.lanes"),
		},

		ConditionCacheSize: r.int("condition.cache-size"),

		RedisAddr:   r.string("report.redis-addr"),
		RedisKey:    r.string("report.redis-key"),
		RedisMaxLen: int64(r.int("report.redis-max-len")),
	}

	mode, err := condition.ParseMode(r.string("condition.mode"))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("condition.mode: %w", err))
	}
	out.ConditionMode = mode

	switch out.Color {
	case "auto", "always", "never":
	default:
		r.errs = append(r.errs, fmt.Errorf("color: expected auto, always or never, got %q", out.Color))
	}
	if out.Step <= 0 {
		r.errs = append(r.errs, fmt.Errorf("sim.step: must be positive, got %s", out.Step))
	}
	if err := out.Grid.Validate(); err != nil {
		r.errs = append(r.errs, err)
	}

	if err := errors.Join(r.errs...); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return out, nil
}

type resolver struct {
	c    *Config
	s    *ConfigSchema
	errs []error
}

func (r *resolver) string(key string) string {
	return strings.TrimSpace(r.s.Resolve(r.c, key))
}

func (r *resolver) int(key string) int {
	v := r.string(key)
	if v == "" {
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: expected int, got %q", key, v))
	}
	return i
}

func (r *resolver) float(key string) float64 {
	v := r.string(key)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: expected float, got %q", key, v))
	}
	return f
}

func (r *resolver) duration(key string) time.Duration {
	v := r.string(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: expected duration, got %q", key, v))
	}
	return d
}
