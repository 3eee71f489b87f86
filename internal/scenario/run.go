package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/atomic"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultStep is the simulation time advanced per tick.
	DefaultStep = 50 * time.Millisecond
	// DefaultMaxTicks bounds a run that neither finishes nor times out.
	DefaultMaxTicks = 100_000
)

// ErrMaxTicks is returned when a run is aborted by RunOptions.MaxTicks.
var ErrMaxTicks = errors.New("scenario: tick limit reached")

// errFinished stops the real-time ticker once the tree has resolved.
var errFinished = errors.New("scenario finished")

// RunOptions configures Run. Zero values take the defaults.
type RunOptions struct {
	// Step is the simulation time per tick, and in real-time mode also the wall
	// clock interval between ticks.
	Step     time.Duration
	MaxTicks int
	// Realtime drives the tree with a go-behaviortree ticker instead of a tight
	// loop.
	Realtime bool

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o RunOptions) withDefaults() RunOptions {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	return o
}

// CriterionResult is the verdict of one criterion.
type CriterionResult struct {
	Name     string
	Actor    string
	Outcome  atomic.Outcome
	Actual   float64
	Expected float64
}

// Result summarises a run.
type Result struct {
	ID       uuid.UUID
	Scenario string
	// Status is the final status of the root, bt.Running if the run was aborted.
	Status   bt.Status
	Success  bool
	TimedOut bool
	Ticks    int
	// Elapsed is simulation time; Wall is real time.
	Elapsed  time.Duration
	Wall     time.Duration
	Criteria []CriterionResult
	// Err is the error reported by the tree, if any.
	Err error
}

// Run ticks the scenario until the root resolves. The world advances one step
// after every tick that leaves the tree running.
//
// Failures inside the tree are reported by the Result. The returned error is
// non-nil only when the run was aborted: the context ended, the tick limit was
// reached, or the instruments could not be created. A Scenario runs once.
func (s *Scenario) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	opts = opts.withDefaults()
	tel, err := newTelemetry(opts.TracerProvider, opts.MeterProvider)
	if err != nil {
		return nil, err
	}

	ctx, span := tel.tracer.Start(ctx, "scenario.run", trace.WithAttributes(
		attribute.String("scenario.name", s.Definition.Name),
		attribute.Bool("scenario.realtime", opts.Realtime),
		attribute.Int64("scenario.step_ms", opts.Step.Milliseconds()),
	))
	defer span.End()

	s.logger.Info("scenario started", "name", s.Definition.Name, "actors", len(s.actors), "realtime", opts.Realtime)
	start := time.Now()
	ticksBefore := s.ticks

	var (
		status  bt.Status
		treeErr error
		runErr  error
	)
	if opts.Realtime {
		status, treeErr, runErr = s.runRealtime(ctx, opts)
	} else {
		status, treeErr, runErr = s.runLoop(ctx, opts)
	}
	// terminates anything still running, which settles the criteria
	s.Root.Stop()

	res := s.result(status, treeErr, runErr)
	res.Wall = time.Since(start)

	tel.ticks.Add(ctx, int64(s.ticks-ticksBefore), metric.WithAttributes(attribute.String("scenario.name", s.Definition.Name)))
	tel.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scenario.name", s.Definition.Name),
		attribute.Bool("scenario.success", res.Success),
	))

	span.SetAttributes(
		attribute.String("scenario.run_id", res.ID.String()),
		attribute.Int("scenario.ticks", res.Ticks),
		attribute.Int64("scenario.elapsed_ms", res.Elapsed.Milliseconds()),
		attribute.Bool("scenario.timed_out", res.TimedOut),
		attribute.Bool("scenario.success", res.Success),
	)
	switch {
	case runErr != nil:
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	case res.Err != nil:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	case !res.Success:
		span.SetStatus(codes.Error, "scenario failed")
	default:
		span.SetStatus(codes.Ok, "")
	}

	s.logger.Info("scenario finished",
		"name", s.Definition.Name,
		"id", res.ID,
		"success", res.Success,
		"status", statusString(res.Status),
		"ticks", res.Ticks,
		"elapsed", res.Elapsed,
		"timed_out", res.TimedOut,
	)
	if res.Err != nil {
		s.logger.Warn("scenario tree reported an error", "name", s.Definition.Name, "error", res.Err)
	}
	return res, runErr
}

// tick ticks the root once and, while it is still running, advances the world.
func (s *Scenario) tick(dt time.Duration) (bt.Status, error) {
	status, err := s.Root.Tick()
	s.ticks++
	if status == bt.Running && err == nil {
		s.World.Tick(dt)
	}
	return status, err
}

func (s *Scenario) runLoop(ctx context.Context, opts RunOptions) (bt.Status, error, error) {
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return bt.Running, nil, err
		}
		if n >= opts.MaxTicks {
			return bt.Running, nil, fmt.Errorf("%w (%d)", ErrMaxTicks, opts.MaxTicks)
		}
		status, err := s.tick(opts.Step)
		if status != bt.Running || err != nil {
			return status, err, nil
		}
	}
}

func (s *Scenario) runRealtime(ctx context.Context, opts RunOptions) (bt.Status, error, error) {
	var (
		status  = bt.Running
		treeErr error
		n       int
	)
	ticker := bt.NewTicker(ctx, opts.Step, func() (bt.Tick, []bt.Node) {
		return func([]bt.Node) (bt.Status, error) {
			if n >= opts.MaxTicks {
				return bt.Failure, fmt.Errorf("%w (%d)", ErrMaxTicks, opts.MaxTicks)
			}
			n++
			status, treeErr = s.tick(opts.Step)
			if status != bt.Running || treeErr != nil {
				return status, errFinished
			}
			return bt.Running, nil
		}, nil
	})
	<-ticker.Done()
	if err := ticker.Err(); err != nil && !errors.Is(err, errFinished) {
		return status, treeErr, err
	}
	return status, treeErr, nil
}

func (s *Scenario) result(status bt.Status, treeErr, runErr error) *Result {
	res := &Result{
		ID:       uuid.New(),
		Scenario: s.Definition.Name,
		Status:   status,
		Ticks:    s.ticks,
		Elapsed:  s.World.Elapsed(),
		Err:      treeErr,
	}
	if s.timeout != nil {
		res.TimedOut = s.timeout.TimedOut()
	}

	criteriaOK := true
	for _, c := range s.criteria {
		outcome := c.Criterion.Outcome()
		if outcome != atomic.OutcomeSuccess {
			criteriaOK = false
		}
		res.Criteria = append(res.Criteria, CriterionResult{
			Name:     c.Behaviour.Name(),
			Actor:    c.Actor,
			Outcome:  outcome,
			Actual:   c.Criterion.ActualValue(),
			Expected: c.Criterion.ExpectedValue(),
		})
	}

	stepsStatus, _ := s.steps.Status()
	res.Success = runErr == nil &&
		treeErr == nil &&
		stepsStatus == bt.Success &&
		!res.TimedOut &&
		criteriaOK
	return res
}

func statusString(s bt.Status) string {
	switch s {
	case bt.Success:
		return "success"
	case bt.Failure:
		return "failure"
	default:
		return "running"
	}
}
