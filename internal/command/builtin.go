package command

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/joeycumines/scenario-fragments/internal/config"
)

// HelpCommand lists commands, or describes one.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand("help", "Display help information for commands", "help [command]"),
		registry:    registry,
	}
}

func (c *HelpCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		c.overview(stdout)
		return nil
	}

	cmd, err := c.registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Command: %s\nDescription: %s\nUsage: sfrag %s\n", cmd.Name(), cmd.Description(), cmd.Usage())

	var flags bytes.Buffer
	scratch := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	scratch.SetOutput(&flags)
	cmd.SetupFlags(scratch)
	scratch.PrintDefaults()
	if flags.Len() > 0 {
		_, _ = fmt.Fprintf(stdout, "\nFlags:\n%s", flags.String())
	}
	return nil
}

func (c *HelpCommand) overview(w io.Writer) {
	_, _ = fmt.Fprint(w, "sfrag - compose driving scenarios from behaviour tree fragments and run them\n\n"+
		"Usage: sfrag <command> [options] [args...]\n\n"+
		"Available commands:\n")
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, name := range c.registry.List() {
		if cmd, err := c.registry.Get(name); err == nil {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\n", name, cmd.Description())
		}
	}
	_ = tw.Flush()
	_, _ = fmt.Fprint(w, "\nUse 'sfrag help <command>' for more information about a specific command (includes flags).\n")
}

// VersionCommand prints the build version.
type VersionCommand struct {
	*BaseCommand
	version string
}

func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand("version", "Display version information", "version"),
		version:     version,
	}
}

func (c *VersionCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "sfrag version %s\n", c.version)
	return nil
}

// ConfigCommand shows, reads, writes and checks configuration.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	schema     *config.ConfigSchema
	configPath string
	showGlobal bool
	showAll    bool
}

// NewConfigCommand creates the config command. Values it sets are persisted to
// configPath, or to the default location when configPath is empty.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand("config", "Manage configuration settings", "config [options] [key [value] | validate | schema]"),
		config:      cfg,
		schema:      config.DefaultSchema(),
		configPath:  configPath,
	}
}

func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showGlobal, "global", false, "Show only global configuration")
	fs.BoolVar(&c.showAll, "all", false, "Show all configuration (global and command-specific)")
}

func (c *ConfigCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	switch {
	case len(args) == 0:
		c.show(stdout)
	case args[0] == "validate":
		c.validate(stdout)
	case args[0] == "schema":
		_, _ = fmt.Fprint(stdout, c.schema.FormatHelp())
	case len(args) == 1:
		c.get(stdout, args[0])
	case len(args) == 2:
		c.set(stdout, stderr, args[0], args[1])
	default:
		_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
		return errors.New("invalid arguments")
	}
	return nil
}

func (c *ConfigCommand) show(w io.Writer) {
	if !c.showAll && !c.showGlobal {
		_, _ = fmt.Fprint(w, "Configuration management:\n"+
			"  config <key>          - Get configuration value\n"+
			"  config <key> <value>  - Set configuration value\n"+
			"  config -global        - Show global configuration\n"+
			"  config -all           - Show all configuration\n"+
			"  config validate       - Validate configuration\n"+
			"  config schema         - Show configuration schema\n")
		return
	}
	_, _ = fmt.Fprintln(w, "Global configuration:")
	printOptions(w, "  ", c.config.Global)
	if c.showAll {
		_, _ = fmt.Fprintln(w, "\nCommand-specific configuration:")
		for _, name := range slices.Sorted(maps.Keys(c.config.Commands)) {
			_, _ = fmt.Fprintf(w, "  [%s]\n", name)
			printOptions(w, "    ", c.config.Commands[name])
		}
	}
}

// get prints the effective value of key: environment, then file, then default.
func (c *ConfigCommand) get(w io.Writer, key string) {
	if _, set := c.config.GetGlobalOption(key); !set && c.schema.Lookup("", key) == nil {
		_, _ = fmt.Fprintf(w, "Configuration key '%s' not found\n", key)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", key, c.schema.Resolve(c.config, key))
}

func (c *ConfigCommand) set(stdout, stderr io.Writer, key, value string) {
	if !c.schema.IsKnown("", key) {
		_, _ = fmt.Fprintf(stderr, "Warning: unknown configuration key %q\n", key)
	} else if err := c.schema.Lookup("", key).Type.Check(value); err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: %s: %v\n", key, err)
	}
	c.config.SetGlobalOption(key, value)

	path := c.configPath
	if path == "" {
		path, _ = config.GetConfigPath()
	}
	if path != "" {
		if err := config.SetKeyInFile(path, key, value); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: failed to persist config to disk: %v\n", err)
		}
	}
	_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", key, value)
}

// validate reports schema problems together with settings that fail to resolve.
func (c *ConfigCommand) validate(w io.Writer) {
	issues := config.ValidateConfig(c.config, c.schema)
	if _, err := config.ResolveSettings(c.config, c.schema); err != nil {
		issues = append(issues, err.Error())
	}
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(w, "Configuration is valid.")
		return
	}
	_, _ = fmt.Fprintf(w, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(w, "  - %s\n", issue)
	}
}

func printOptions(w io.Writer, indent string, options map[string]string) {
	for _, key := range slices.Sorted(maps.Keys(options)) {
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", indent, key, options[key])
	}
}

func noArgs(args []string, stderr io.Writer) error {
	if len(args) == 0 {
		return nil
	}
	_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
	return errors.New("unexpected arguments")
}

// InitCommand writes a commented default configuration file.
type InitCommand struct {
	*BaseCommand
	configPath string
	force      bool
}

// NewInitCommand creates the init command. An empty configPath selects the
// default location.
func NewInitCommand(configPath string) *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand("init", "Write a default configuration file", "init [options]"),
		configPath:  configPath,
	}
}

func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Overwrite an existing configuration")
}

const defaultConfigFile = `# sfrag configuration file
# Format: optionName remainingLineIsTheValue
# Use [command_name] sections for command-specific options.
# Run 'sfrag config schema' for every option.

color auto
log.level info
# log.file /var/log/sfrag/sfrag.log

sim.step 50ms
sim.max-ticks 100000
sim.blocks 4
sim.block-size 100
sim.lane-width 3.5
sim.lanes 2

condition.mode expr

# report.redis-addr localhost:6379
report.redis-key sfrag:reports

[run]
realtime false

[tree]
style auto
`

func (c *InitCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}

	path := c.configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	switch _, err := os.Lstat(path); {
	case err == nil && !c.force:
		_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\nUse -force to overwrite existing configuration\n", path)
		return nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := config.WriteFile(path, []byte(defaultConfigFile), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if cfg, err := config.LoadFromPath(path); err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: failed to load created config: %v\n", err)
	} else if cfg.HasWarnings() {
		_, _ = fmt.Fprintf(stderr, "Warning: created config has %d issue(s)\n", len(cfg.GetWarnings()))
	}
	_, _ = fmt.Fprintf(stdout, "Initialized sfrag configuration at: %s\n", path)
	return nil
}
