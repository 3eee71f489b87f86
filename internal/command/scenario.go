package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/condition"
	"github.com/joeycumines/scenario-fragments/internal/config"
	"github.com/joeycumines/scenario-fragments/internal/report"
	"github.com/joeycumines/scenario-fragments/internal/scenario"
	"golang.org/x/term"
)

// ErrScenarioFailed is returned by the run command when the scenario ran to
// completion without succeeding.
var ErrScenarioFailed = errors.New("scenario failed")

// scenarioFlags are shared by the commands that build a scenario.
type scenarioFlags struct {
	mode     string
	logFile  string
	logLevel string
}

func (f *scenarioFlags) setup(fs *flag.FlagSet) {
	fs.StringVar(&f.mode, "mode", "", "Default wait condition language: expr or cel (overrides condition.mode)")
	fs.StringVar(&f.logFile, "log-file", "", "Log file path (overrides log.file)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")
}

// scenarioEnv is the resolved environment a scenario is built in.
type scenarioEnv struct {
	settings config.Settings
	logger   *slog.Logger
	closer   io.Closer
}

func (f *scenarioFlags) open(cfg *config.Config, stderr io.Writer) (*scenarioEnv, error) {
	settings, err := config.ResolveSettings(cfg, config.DefaultSchema())
	if err != nil {
		return nil, err
	}
	if f.mode != "" {
		if settings.ConditionMode, err = condition.ParseMode(f.mode); err != nil {
			return nil, err
		}
	}
	logger, closer, err := newLogger(f.logFile, f.logLevel, settings, stderr)
	if err != nil {
		return nil, err
	}
	condition.SetCacheSize(settings.ConditionCacheSize)
	return &scenarioEnv{settings: settings, logger: logger, closer: closer}, nil
}

func (e *scenarioEnv) Close() error { return e.closer.Close() }

func (e *scenarioEnv) build(path string) (*scenario.Scenario, error) {
	def, err := scenario.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return scenario.Build(def,
		scenario.WithLogger(e.logger),
		scenario.WithConditionMode(e.settings.ConditionMode),
		scenario.WithGridDefaults(e.settings.Grid),
	)
}

// scenarioArg returns the single scenario file argument.
func scenarioArg(args []string, stderr io.Writer) (string, error) {
	if len(args) != 1 {
		_, _ = fmt.Fprintln(stderr, "expected exactly one scenario file")
		return "", fmt.Errorf("invalid arguments")
	}
	return args[0], nil
}

// RunCommand builds a scenario and runs it to completion.
type RunCommand struct {
	*BaseCommand
	scenarioFlags
	config *config.Config

	realtime    bool
	step        time.Duration
	maxTicks    int
	redisAddr   string
	jsonOutput  bool
	runOptions  scenario.RunOptions
	reportSinks []report.Sink
}

// NewRunCommand creates a new run command.
func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Run a scenario and report the outcome",
			"run [options] <scenario.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	c.scenarioFlags.setup(fs)
	fs.BoolVar(&c.realtime, "realtime", false, "Pace ticks against the wall clock (overrides [run] realtime)")
	fs.DurationVar(&c.step, "step", 0, "Simulated time per tick (overrides sim.step)")
	fs.IntVar(&c.maxTicks, "max-ticks", 0, "Abort after this many ticks (overrides sim.max-ticks)")
	fs.StringVar(&c.redisAddr, "report-redis", "", "Redis URL or host:port to push the report to (overrides report.redis-addr)")
	fs.BoolVar(&c.jsonOutput, "json", false, "Print the report as JSON (overrides [run] json)")
}

// Execute runs the scenario. It fails with ErrScenarioFailed when the scenario
// completes unsuccessfully.
func (c *RunCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	path, err := scenarioArg(args, stderr)
	if err != nil {
		return err
	}

	env, err := c.open(c.config, stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	sc, err := env.build(path)
	if err != nil {
		return err
	}

	opts := c.runOptions
	opts.Step = firstPositive(c.step, env.settings.Step)
	opts.MaxTicks = firstPositive(c.maxTicks, env.settings.MaxTicks)
	opts.Realtime = c.realtime
	if v, ok := c.config.GetCommandBool("run", "realtime"); ok && !c.realtime {
		opts.Realtime = v
	}
	jsonOutput := c.jsonOutput
	if v, ok := c.config.GetCommandBool("run", "json"); ok && !c.jsonOutput {
		jsonOutput = v
	}

	res, runErr := sc.Run(ctx, opts)
	if res == nil {
		return runErr
	}
	rep := report.FromResult(res, runErr)

	sinks := append([]report.Sink(nil), c.reportSinks...)
	if jsonOutput {
		sinks = append(sinks, report.NewJSONSink(stdout, true))
	} else {
		printSummary(stdout, rep)
	}
	if addr := firstNonEmpty(c.redisAddr, env.settings.RedisAddr); addr != "" {
		redisSink, err := report.NewRedisSink(ctx, report.RedisOptions{
			URL:    addr,
			Key:    env.settings.RedisKey,
			MaxLen: env.settings.RedisMaxLen,
		})
		if err != nil {
			return err
		}
		defer redisSink.Close()
		sinks = append(sinks, redisSink)
	}
	// the report is published even for a cancelled run
	if err := report.Multi(sinks...).Write(context.WithoutCancel(ctx), rep); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}

	if runErr != nil {
		return runErr
	}
	if !rep.Success {
		return fmt.Errorf("%w: %s", ErrScenarioFailed, rep.Scenario)
	}
	return nil
}

func printSummary(w io.Writer, r report.Report) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Scenario:\t%s\n", r.Scenario)
	_, _ = fmt.Fprintf(tw, "Run:\t%s\n", r.ID)
	_, _ = fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	_, _ = fmt.Fprintf(tw, "Success:\t%t\n", r.Success)
	_, _ = fmt.Fprintf(tw, "Timed out:\t%t\n", r.TimedOut)
	_, _ = fmt.Fprintf(tw, "Ticks:\t%d\n", r.Ticks)
	_, _ = fmt.Fprintf(tw, "Simulated:\t%s\n", time.Duration(r.ElapsedMS)*time.Millisecond)
	for _, cr := range r.Criteria {
		_, _ = fmt.Fprintf(tw, "Criterion:\t%s\t%s\t(actual %g, expected %g)\n", cr.Name, cr.Outcome, cr.Actual, cr.Expected)
	}
	if r.Error != "" {
		_, _ = fmt.Fprintf(tw, "Error:\t%s\n", r.Error)
	}
	_ = tw.Flush()
}

// TreeCommand renders the behaviour tree a scenario builds.
type TreeCommand struct {
	*BaseCommand
	scenarioFlags
	config *config.Config
	style  string
}

// NewTreeCommand creates a new tree command.
func NewTreeCommand(cfg *config.Config) *TreeCommand {
	return &TreeCommand{
		BaseCommand: NewBaseCommand(
			"tree",
			"Render the behaviour tree of a scenario",
			"tree [options] <scenario.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the tree command.
func (c *TreeCommand) SetupFlags(fs *flag.FlagSet) {
	c.scenarioFlags.setup(fs)
	fs.StringVar(&c.style, "style", "", "Styled output: auto, always, never (overrides [tree] style)")
}

// Execute renders the tree.
func (c *TreeCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	path, err := scenarioArg(args, stderr)
	if err != nil {
		return err
	}

	env, err := c.open(c.config, stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	style := c.style
	if style == "" {
		style, _ = c.config.GetCommandOption("tree", "style")
	}
	if style == "" || style == "auto" {
		style = env.settings.Color
	}
	styled, err := useStyle(style, stdout)
	if err != nil {
		return err
	}

	sc, err := env.build(path)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, btx.Render(sc.Root, styled))
	return nil
}

// useStyle resolves auto, always or never. Auto styles terminals only.
func useStyle(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "", "auto":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return false, fmt.Errorf("invalid style %q: expected auto, always or never", mode)
	}
}

// ValidateCommand checks that a scenario file loads and builds.
type ValidateCommand struct {
	*BaseCommand
	scenarioFlags
	config *config.Config
}

// NewValidateCommand creates a new validate command.
func NewValidateCommand(cfg *config.Config) *ValidateCommand {
	return &ValidateCommand{
		BaseCommand: NewBaseCommand(
			"validate",
			"Check that a scenario file is valid and builds",
			"validate [options] <scenario.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the validate command.
func (c *ValidateCommand) SetupFlags(fs *flag.FlagSet) {
	c.scenarioFlags.setup(fs)
}

// Execute validates the scenario. Building it also checks that every actor
// spawns on the road and that fragments resolve their routes.
func (c *ValidateCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	path, err := scenarioArg(args, stderr)
	if err != nil {
		return err
	}

	env, err := c.open(c.config, stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	sc, err := env.build(path)
	if err != nil {
		return err
	}

	var behaviours int
	sc.Root.Walk(func(int, *btx.Behaviour) bool {
		behaviours++
		return true
	})
	_, _ = fmt.Fprintf(stdout, "Scenario %q is valid: %d actor(s), %d step(s), %d criteria, %d behaviours\n",
		sc.Definition.Name, len(sc.Definition.Actors), len(sc.Definition.Steps), len(sc.Criteria()), behaviours)
	return nil
}

func firstPositive[T int | time.Duration](values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
