package scenario

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joeycumines/scenario-fragments/internal/atomic"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/condition"
	"github.com/joeycumines/scenario-fragments/internal/fragments"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

const (
	// DefaultActorType is the type of actors that do not name one.
	DefaultActorType = "vehicle.sedan"
	// DefaultSameLane is the distance driven before a lane change starts.
	DefaultSameLane = 10.0
	// DefaultOtherLane is the distance driven after a lane change.
	DefaultOtherLane = 20.0
)

// Option configures Build.
type Option func(*builder)

// WithLogger sets the logger for the world and the run.
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithConditionMode sets the expression language of wait steps that do not name
// one.
func WithConditionMode(m condition.Mode) Option {
	return func(b *builder) { b.mode = m }
}

// WithGridDefaults sets the map configuration that the definition's map section
// overlays.
func WithGridDefaults(cfg sim.GridConfig) Option {
	return func(b *builder) { b.grid = cfg }
}

type builder struct {
	logger *slog.Logger
	mode   condition.Mode
	grid   sim.GridConfig

	world  *sim.World
	actors map[string]*sim.Vehicle
	bb     *btx.Blackboard
}

// CriterionEntry is a criterion of a built scenario.
type CriterionEntry struct {
	Actor     string
	Behaviour *btx.Behaviour
	Criterion atomic.Criterion
}

// Scenario is a built scenario, ready to run once.
type Scenario struct {
	Definition *Definition
	World      *sim.World
	Blackboard *btx.Blackboard
	Root       *btx.Behaviour

	actors   map[string]*sim.Vehicle
	steps    *btx.Behaviour
	criteria []CriterionEntry
	timeout  *atomic.TimeOut
	logger   *slog.Logger
	ticks    int
}

// Build creates the world, spawns the actors and builds the behaviour tree of
// def. def is expected to be valid. Every actor must spawn on the road; an
// off-road spawn fails with an error wrapping sim.ErrOffRoad.
func Build(def *Definition, opts ...Option) (*Scenario, error) {
	b := &builder{
		logger: slog.Default(),
		grid:   sim.DefaultGridConfig(),
		actors: make(map[string]*sim.Vehicle, len(def.Actors)),
		bb:     new(btx.Blackboard),
	}
	for _, opt := range opts {
		opt(b)
	}

	m, err := sim.NewGridMap(def.Map.GridConfig(b.grid))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", def.Name, err)
	}
	b.world = sim.NewWorld(m, sim.WithLogger(b.logger))

	for _, a := range def.Actors {
		typ := a.Type
		if typ == "" {
			typ = DefaultActorType
		}
		if _, err := m.Waypoint(a.Spawn.Location()); err != nil {
			return nil, fmt.Errorf("scenario %s: actor %s: %w", def.Name, a.Name, err)
		}
		v, err := b.world.SpawnVehicle(typ, a.Spawn.Transform())
		if err != nil {
			return nil, fmt.Errorf("scenario %s: actor %s: %w", def.Name, a.Name, err)
		}
		b.actors[a.Name] = v
	}

	steps := make([]*btx.Behaviour, 0, len(def.Steps))
	for i, spec := range def.Steps {
		node, err := b.step(spec)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: steps[%d]: %w", def.Name, i, err)
		}
		steps = append(steps, node)
	}

	s := &Scenario{
		Definition: def,
		World:      b.world,
		Blackboard: b.bb,
		actors:     b.actors,
		steps:      btx.Sequence("Steps", steps...),
		logger:     b.logger,
	}
	children := []*btx.Behaviour{s.steps}

	if len(def.Criteria) > 0 {
		nodes := make([]*btx.Behaviour, 0, len(def.Criteria))
		for _, c := range def.Criteria {
			node := atomic.NewCollisionTest(b.actors[c.Collision], b.world, c.TerminateOnFailure,
				atomic.WithName("CollisionTest "+c.Collision))
			s.criteria = append(s.criteria, CriterionEntry{
				Actor:     c.Collision,
				Behaviour: node,
				Criterion: node.Leaf().(atomic.Criterion),
			})
			nodes = append(nodes, node)
		}
		children = append(children, btx.Parallel("Criteria", btx.SuccessOnAll, nodes...))
	}

	if def.Timeout > 0 {
		node := atomic.NewTimeOut(b.world, def.Timeout)
		s.timeout = node.Leaf().(*atomic.TimeOut)
		children = append(children, node)
	}

	s.Root = btx.Parallel(def.Name, btx.SuccessOnOne, children...)
	return s, nil
}

// Actor returns the named actor, or nil.
func (s *Scenario) Actor(name string) *sim.Vehicle { return s.actors[name] }

// Steps returns the step sequence.
func (s *Scenario) Steps() *btx.Behaviour { return s.steps }

// Criteria returns the scenario's criteria in definition order.
func (s *Scenario) Criteria() []CriterionEntry { return append([]CriterionEntry(nil), s.criteria...) }

// Ticks returns the number of times the root has been ticked.
func (s *Scenario) Ticks() int { return s.ticks }

func (b *builder) step(s StepSpec) (*btx.Behaviour, error) {
	if len(s.Parallel) > 0 {
		children := make([]*btx.Behaviour, 0, len(s.Parallel))
		for i, c := range s.Parallel {
			node, err := b.step(c)
			if err != nil {
				return nil, fmt.Errorf("parallel[%d]: %w", i, err)
			}
			children = append(children, node)
		}
		name := s.Name
		if name == "" {
			name = "Parallel"
		}
		return btx.Parallel(name, btx.SuccessOnAll, children...), nil
	}

	actor := b.actors[s.Actor]
	if actor == nil {
		return nil, fmt.Errorf("unknown actor %q", s.Actor)
	}

	var (
		node *btx.Behaviour
		err  error
	)
	switch {
	case s.Wait != "":
		node, err = b.wait(s, actor)
	case s.Fragment != "":
		var f fragments.Fragment
		if f, err = b.fragment(s, actor); err == nil {
			node, err = f.CreateTree()
		}
	default:
		node, err = b.behaviour(s, actor)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.kind(), err)
	}
	if s.Name != "" {
		node = btx.Sequence(s.Name, node)
	}
	return node, nil
}

func (b *builder) wait(s StepSpec, actor *sim.Vehicle) (*btx.Behaviour, error) {
	mode := b.mode
	if s.Mode != "" {
		var err error
		if mode, err = condition.ParseMode(s.Mode); err != nil {
			return nil, err
		}
	}
	cond, err := condition.Compile(mode, s.Wait)
	if err != nil {
		return nil, err
	}
	return atomic.NewWaitForCondition(actor, b.world, cond, b.bb), nil
}

func (b *builder) fragment(s StepSpec, actor *sim.Vehicle) (fragments.Fragment, error) {
	m := b.world.Map()
	start := actor.Transform().Location
	if s.Start != nil {
		start = s.Start.Location()
	}
	switch s.Fragment {
	case FragmentDriveToIntersection:
		return fragments.NewDriveToNextIntersection(actor, m, s.Speed, s.Distance), nil
	case FragmentDriveAndTurn:
		return fragments.NewDriveAndTurnAtNextIntersection(actor, m, s.Speed, start, s.Turn), nil
	case FragmentDriveAndSharpStop:
		f := fragments.NewDriveAndSharpStop(actor, m, s.Speed, s.Distance)
		if s.Brake > 0 {
			f.WithBrake(s.Brake)
		}
		return f, nil
	case FragmentDriveAndSlowDown:
		return fragments.NewDriveAndSlowDown(actor, b.world, s.Speed, s.SlowSpeed, s.SlowDistance, s.ResumeDistance), nil
	case FragmentDriveAndTurnTwice:
		return fragments.NewDriveAndTurnTwice(actor, m, s.Speed, start, s.Turn, s.SecondTurn), nil
	case FragmentPlannedStop:
		f := fragments.NewPlannedStopAtIntersection(actor, m, s.Speed, s.Distance, b.bb)
		if s.Brake > 0 {
			f.WithBrake(s.Brake)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown fragment %q", s.Fragment)
	}
}

func (b *builder) behaviour(s StepSpec, actor *sim.Vehicle) (*btx.Behaviour, error) {
	m := b.world.Map()
	switch s.Behaviour {
	case BehaviourKeepVelocity:
		var opts []atomic.Option
		if s.Distance > 0 {
			opts = append(opts, atomic.WithDistance(s.Distance))
		}
		if s.Duration > 0 {
			opts = append(opts, atomic.WithDuration(s.Duration))
		}
		return atomic.NewKeepVelocity(actor, b.world, s.Speed, opts...), nil
	case BehaviourStop:
		brake := s.Brake
		if brake == 0 {
			brake = fragments.DefaultBrake
		}
		return atomic.NewStopVehicle(actor, brake), nil
	case BehaviourStandStill:
		return atomic.NewStandStill(actor, b.world, s.Duration), nil
	case BehaviourLaneChange:
		sameLane, otherLane := s.Distance, s.OtherLane
		if sameLane == 0 {
			sameLane = DefaultSameLane
		}
		if otherLane == 0 {
			otherLane = DefaultOtherLane
		}
		return atomic.NewLaneChange(actor, m, s.Speed, s.Side == "left", sameLane, otherLane), nil
	case BehaviourDriveTo:
		if s.Target == nil {
			return nil, errors.New("no target")
		}
		return atomic.NewBasicAgentBehavior(actor, m, s.Target.Location(), s.Speed), nil
	case BehaviourDriveDistance:
		return atomic.NewDriveDistance(actor, s.Distance), nil
	case BehaviourWaitForVehicle:
		other := b.actors[s.Other]
		if other == nil {
			return nil, fmt.Errorf("unknown other actor %q", s.Other)
		}
		return atomic.NewInTriggerDistanceToVehicle(other, actor, s.Distance), nil
	case BehaviourTeleport:
		if s.Target == nil {
			return nil, errors.New("no target")
		}
		return atomic.NewActorTransformSetter(actor, s.Target.Transform()), nil
	case BehaviourDestroy:
		return atomic.NewActorDestroy(actor), nil
	default:
		return nil, fmt.Errorf("unknown behaviour %q", s.Behaviour)
	}
}
