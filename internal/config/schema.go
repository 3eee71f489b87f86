package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// OptionType is the value type of a configuration option.
type OptionType string

const (
	TypeString   OptionType = "string"
	TypeBool     OptionType = "bool"
	TypeInt      OptionType = "int"
	TypeFloat    OptionType = "float"
	TypeDuration OptionType = "duration"
)

// Check reports whether value parses as t. An empty type accepts anything.
func (t OptionType) Check(value string) error {
	var err error
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		_, err = parseBool(value)
	case TypeInt:
		_, err = strconv.Atoi(value)
	case TypeFloat:
		_, err = strconv.ParseFloat(value, 64)
	case TypeDuration:
		_, err = time.ParseDuration(value)
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	if err != nil {
		return fmt.Errorf("expected %s, got %q", t, value)
	}
	return nil
}

// ConfigOption declares one option. Section is "" for global options.
type ConfigOption struct {
	Key         string
	Section     string
	Type        OptionType
	Default     string
	Description string
	// EnvVar, if set, overrides the file value of a global option.
	EnvVar string
}

type optionKey struct{ section, key string }

// ConfigSchema is the set of known options, in registration order.
type ConfigSchema struct {
	options []ConfigOption
	index   map[optionKey]int
}

// NewSchema creates an empty schema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{index: make(map[optionKey]int)}
}

// Register adds options. Re-registering a section and key replaces the earlier
// declaration in place.
func (s *ConfigSchema) Register(opts ...ConfigOption) {
	for _, opt := range opts {
		k := optionKey{opt.Section, opt.Key}
		if i, ok := s.index[k]; ok {
			s.options[i] = opt
			continue
		}
		s.index[k] = len(s.options)
		s.options = append(s.options, opt)
	}
}

// Lookup returns the option declared for key in section ("" for global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	i, ok := s.index[optionKey{section, key}]
	if !ok {
		return nil
	}
	opt := s.options[i]
	return &opt
}

// effective returns the declaration that applies to key within section: the
// section's own, else the global one.
func (s *ConfigSchema) effective(section, key string) *ConfigOption {
	if section != "" {
		if opt := s.Lookup(section, key); opt != nil {
			return opt
		}
	}
	return s.Lookup("", key)
}

// IsKnown reports whether key may appear in section. Global keys are valid in
// every section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	return s.effective(section, key) != nil
}

// Options returns the options declared for section ("" for global).
func (s *ConfigSchema) Options(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, o)
		}
	}
	return out
}

// Sections returns the sorted names of sections with declared options.
func (s *ConfigSchema) Sections() []string {
	var out []string
	for _, o := range s.options {
		if o.Section != "" && !slices.Contains(out, o.Section) {
			out = append(out, o.Section)
		}
	}
	slices.Sort(out)
	return out
}

// Resolve returns the effective value of a global key: its environment
// variable if set (even to ""), else the file value, else the default.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if v, ok := c.GetGlobalOption(key); ok {
		return v
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ValidateConfig returns sorted, human-readable problems with c: unknown keys
// and values that do not parse as their declared type.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string
	for key, value := range c.Global {
		opt := s.Lookup("", key)
		switch {
		case opt == nil:
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
		case opt.Type.Check(value) != nil:
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, opt.Type.Check(value)))
		}
	}
	for section, opts := range c.Commands {
		for key, value := range opts {
			opt := s.effective(section, key)
			switch {
			case opt == nil:
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
			case opt.Type.Check(value) != nil:
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, opt.Type.Check(value)))
			}
		}
	}
	slices.Sort(issues)
	return issues
}

// GetString returns the global option for key, or "" if unset.
func (c *Config) GetString(key string) string {
	v, _ := c.GetGlobalOption(key)
	return v
}

// GetCommandBool returns the option for command parsed as a boolean, falling
// back to the global option. ok is false if the option is unset or does not
// parse.
func (c *Config) GetCommandBool(command, key string) (value, ok bool) {
	v, set := c.GetCommandOption(command, key)
	if !set {
		return false, false
	}
	b, err := parseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// FormatHelp renders every option, globals first, then each section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder
	write := func(title string, opts []ConfigOption) {
		if len(opts) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(title)
		for _, o := range opts {
			fmt.Fprintf(&b, "  %-35s %s", o.Key, o.Description)
			var notes []string
			if o.Type != "" && o.Type != TypeString {
				notes = append(notes, "type: "+string(o.Type))
			}
			if o.Default != "" {
				notes = append(notes, "default: "+o.Default)
			}
			if o.EnvVar != "" {
				notes = append(notes, "env: "+o.EnvVar)
			}
			if len(notes) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(notes, ", "))
			}
			b.WriteByte('\n')
		}
	}
	write("Global Options:\n", s.Options(""))
	for _, sec := range s.Sections() {
		write(fmt.Sprintf("[%s] Options:\n", sec), s.Options(sec))
	}
	return b.String()
}

// DefaultSchema declares every option sfrag understands.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.Register(
		ConfigOption{Key: "color", Type: TypeString, Default: "auto", Description: "Color mode: auto, always, never", EnvVar: "SFRAG_COLOR"},

		ConfigOption{Key: "log.file", Type: TypeString, Description: "Log file path (rotated by size); stderr when empty", EnvVar: "SFRAG_LOG_FILE"},
		ConfigOption{Key: "log.level", Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "SFRAG_LOG_LEVEL"},
		ConfigOption{Key: "log.format", Type: TypeString, Default: "text", Description: "Log format: text, json", EnvVar: "SFRAG_LOG_FORMAT"},
		ConfigOption{Key: "log.max-size-mb", Type: TypeInt, Default: "10", Description: "Max log file size in MB before rotation"},
		ConfigOption{Key: "log.max-files", Type: TypeInt, Default: "5", Description: "Max number of rotated log backup files"},

		ConfigOption{Key: "sim.step", Type: TypeDuration, Default: "50ms", Description: "Simulated time per tick", EnvVar: "SFRAG_STEP"},
		ConfigOption{Key: "sim.max-ticks", Type: TypeInt, Default: "100000", Description: "Abort a run after this many ticks", EnvVar: "SFRAG_MAX_TICKS"},
		ConfigOption{Key: "sim.blocks", Type: TypeInt, Default: "4", Description: "Grid town blocks per side"},
		ConfigOption{Key: "sim.block-size", Type: TypeFloat, Default: "100", Description: "Distance between parallel roads in metres"},
		ConfigOption{Key: "sim.lane-width", Type: TypeFloat, Default: "3.5", Description: "Lane width in metres"},
		ConfigOption{Key: "sim.lanes", Type: TypeInt, Default: "2", Description: "Lanes per direction"},

		ConfigOption{Key: "condition.mode", Type: TypeString, Default: "expr", Description: "Default wait condition language: expr, cel", EnvVar: "SFRAG_CONDITION_MODE"},
		ConfigOption{Key: "condition.cache-size", Type: TypeInt, Default: "1000", Description: "Compiled condition cache capacity per language"},

		ConfigOption{Key: "report.redis-addr", Type: TypeString, Description: "Redis URL or host:port receiving run reports", EnvVar: "SFRAG_REDIS_ADDR"},
		ConfigOption{Key: "report.redis-key", Type: TypeString, Default: "sfrag:reports", Description: "Redis list key for run reports"},
		ConfigOption{Key: "report.redis-max-len", Type: TypeInt, Default: "0", Description: "Trim the report list to this length (0 keeps all)"},

		ConfigOption{Key: "realtime", Section: "run", Type: TypeBool, Default: "false", Description: "Pace ticks against the wall clock"},
		ConfigOption{Key: "json", Section: "run", Type: TypeBool, Default: "false", Description: "Print the run report as JSON"},
		ConfigOption{Key: "style", Section: "tree", Type: TypeString, Default: "auto", Description: "Styled tree output: auto, always, never"},
	)
	return s
}
