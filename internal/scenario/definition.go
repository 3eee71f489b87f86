// Package scenario loads YAML scenario definitions, builds their behaviour trees
// from fragments and atomic behaviours, and runs them against a simulated world.
//
// The root of every scenario is a parallel composite that succeeds as soon as one
// of its children does:
//
//	<name> (parallel, success on one)
//	├── Steps (sequence)       the fragments and behaviours, in order
//	├── Criteria (parallel)    present when criteria are defined
//	└── TimeOut                present when a timeout is defined
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeycumines/scenario-fragments/internal/condition"
	"github.com/joeycumines/scenario-fragments/internal/pathgen"
	"github.com/joeycumines/scenario-fragments/internal/sim"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is returned, wrapped, for every definition that fails
// validation.
var ErrInvalidDefinition = errors.New("scenario: invalid definition")

// Fragment names accepted by StepSpec.Fragment.
const (
	FragmentDriveToIntersection = "drive_to_intersection"
	FragmentDriveAndTurn        = "drive_and_turn"
	FragmentDriveAndSharpStop   = "drive_and_sharp_stop"
	FragmentDriveAndSlowDown    = "drive_and_slow_down"
	FragmentDriveAndTurnTwice   = "drive_and_turn_twice"
	FragmentPlannedStop         = "planned_stop"
)

// Behaviour names accepted by StepSpec.Behaviour.
const (
	BehaviourKeepVelocity   = "keep_velocity"
	BehaviourStop           = "stop"
	BehaviourStandStill     = "stand_still"
	BehaviourLaneChange     = "lane_change"
	BehaviourDriveTo        = "drive_to"
	BehaviourDriveDistance  = "drive_distance"
	BehaviourWaitForVehicle = "wait_for_vehicle"
	BehaviourTeleport       = "teleport"
	BehaviourDestroy        = "destroy"
)

// Definition is a scenario file.
type Definition struct {
	Name     string          `yaml:"name"`
	Timeout  time.Duration   `yaml:"timeout,omitempty"`
	Map      MapSpec         `yaml:"map,omitempty"`
	Actors   []ActorSpec     `yaml:"actors"`
	Steps    []StepSpec      `yaml:"steps"`
	Criteria []CriterionSpec `yaml:"criteria,omitempty"`
}

// MapSpec configures the grid road network. Zero fields take the defaults.
type MapSpec struct {
	Blocks    int     `yaml:"blocks,omitempty"`
	BlockSize float64 `yaml:"block_size,omitempty"`
	LaneWidth float64 `yaml:"lane_width,omitempty"`
	Lanes     int     `yaml:"lanes,omitempty"`
}

// GridConfig overlays m on defaults.
func (m MapSpec) GridConfig(defaults sim.GridConfig) sim.GridConfig {
	cfg := defaults
	if m.Blocks != 0 {
		cfg.Blocks = m.Blocks
	}
	if m.BlockSize != 0 {
		cfg.BlockSize = m.BlockSize
	}
	if m.LaneWidth != 0 {
		cfg.LaneWidth = m.LaneWidth
	}
	if m.Lanes != 0 {
		cfg.Lanes = m.Lanes
	}
	return cfg
}

// Point is a location with an optional heading in degrees.
type Point struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Yaw float64 `yaml:"yaw,omitempty"`
}

func (p Point) Location() sim.Location { return sim.Location{X: p.X, Y: p.Y} }

func (p Point) Transform() sim.Transform {
	return sim.Transform{Location: p.Location(), Rotation: sim.Rotation{Yaw: p.Yaw}}
}

// ActorSpec spawns a vehicle.
type ActorSpec struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	Spawn Point  `yaml:"spawn"`
}

// StepSpec is one entry of the step sequence. Exactly one of Fragment,
// Behaviour, Wait or Parallel is set; the remaining fields are parameters, used
// as each kind requires.
type StepSpec struct {
	Name      string     `yaml:"name,omitempty"`
	Fragment  string     `yaml:"fragment,omitempty"`
	Behaviour string     `yaml:"behaviour,omitempty"`
	Wait      string     `yaml:"wait,omitempty"`
	Parallel  []StepSpec `yaml:"parallel,omitempty"`

	Actor string `yaml:"actor,omitempty"`
	Mode  string `yaml:"mode,omitempty"`

	Speed          float64       `yaml:"speed,omitempty"`
	Distance       float64       `yaml:"distance,omitempty"`
	Brake          float64       `yaml:"brake,omitempty"`
	Turn           string        `yaml:"turn,omitempty"`
	SecondTurn     string        `yaml:"second_turn,omitempty"`
	Start          *Point        `yaml:"start,omitempty"`
	SlowSpeed      float64       `yaml:"slow_speed,omitempty"`
	SlowDistance   float64       `yaml:"slow_distance,omitempty"`
	ResumeDistance float64       `yaml:"resume_distance,omitempty"`
	Duration       time.Duration `yaml:"duration,omitempty"`
	Side           string        `yaml:"side,omitempty"`
	OtherLane      float64       `yaml:"other_lane,omitempty"`
	Target         *Point        `yaml:"target,omitempty"`
	Other          string        `yaml:"other,omitempty"`
}

func (s StepSpec) kind() string {
	switch {
	case s.Fragment != "":
		return "fragment " + s.Fragment
	case s.Behaviour != "":
		return "behaviour " + s.Behaviour
	case s.Wait != "":
		return "wait"
	default:
		return "parallel"
	}
}

// CriterionSpec judges the run.
type CriterionSpec struct {
	Collision          string `yaml:"collision"`
	TerminateOnFailure bool   `yaml:"terminate_on_failure,omitempty"`
}

// Load decodes and validates a definition. Unknown fields are rejected.
func Load(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile loads the definition at path.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	def, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate reports every problem with d, joined and wrapped in
// ErrInvalidDefinition.
func (d *Definition) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if d.Name == "" {
		add("name is required")
	}
	if d.Timeout < 0 {
		add("timeout must not be negative")
	}
	if err := d.Map.GridConfig(sim.DefaultGridConfig()).Validate(); err != nil {
		add("map: %w", err)
	}

	actors := make(map[string]bool, len(d.Actors))
	if len(d.Actors) == 0 {
		add("at least one actor is required")
	}
	for i, a := range d.Actors {
		switch {
		case a.Name == "":
			add("actors[%d]: name is required", i)
		case actors[a.Name]:
			add("actors[%d]: duplicate name %q", i, a.Name)
		}
		actors[a.Name] = true
	}

	if len(d.Steps) == 0 {
		add("at least one step is required")
	}
	for i, s := range d.Steps {
		for _, err := range s.validate(actors) {
			errs = append(errs, fmt.Errorf("steps[%d]: %w", i, err))
		}
	}

	for i, c := range d.Criteria {
		if !actors[c.Collision] {
			add("criteria[%d]: unknown actor %q", i, c.Collision)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, errors.Join(errs...))
	}
	return nil
}

func (s StepSpec) validate(actors map[string]bool) []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	set := 0
	for _, v := range []bool{s.Fragment != "", s.Behaviour != "", s.Wait != "", len(s.Parallel) > 0} {
		if v {
			set++
		}
	}
	if set != 1 {
		add("exactly one of fragment, behaviour, wait or parallel is required")
		return errs
	}

	if len(s.Parallel) > 0 {
		for i, c := range s.Parallel {
			for _, err := range c.validate(actors) {
				errs = append(errs, fmt.Errorf("parallel[%d]: %w", i, err))
			}
		}
		return errs
	}

	if !actors[s.Actor] {
		add("unknown actor %q", s.Actor)
	}
	positive := func(name string, v float64) {
		if v <= 0 {
			add("%s: %s must be positive", s.kind(), name)
		}
	}
	turn := func(name, v string) {
		if _, err := pathgen.ParseTurn(v); err != nil {
			add("%s: %s: %w", s.kind(), name, err)
		}
	}
	brake := func() {
		if s.Brake < 0 || s.Brake > 1 {
			add("%s: brake must be within [0, 1]", s.kind())
		}
	}

	switch {
	case s.Wait != "" && s.Mode == "":
		// the language is chosen at build time, so either must accept it
		_, exprErr := condition.Compile(condition.ModeExpr, s.Wait)
		_, celErr := condition.Compile(condition.ModeCEL, s.Wait)
		if exprErr != nil && celErr != nil {
			add("wait: %w", exprErr)
		}

	case s.Wait != "":
		mode, err := condition.ParseMode(s.Mode)
		if err != nil {
			add("wait: %w", err)
		} else if _, err := condition.Compile(mode, s.Wait); err != nil {
			add("wait: %w", err)
		}

	case s.Fragment != "":
		switch s.Fragment {
		case FragmentDriveToIntersection:
			positive("speed", s.Speed)
			positive("distance", s.Distance)
		case FragmentDriveAndSharpStop, FragmentPlannedStop:
			positive("speed", s.Speed)
			positive("distance", s.Distance)
			brake()
		case FragmentDriveAndTurn:
			positive("speed", s.Speed)
			turn("turn", s.Turn)
		case FragmentDriveAndTurnTwice:
			positive("speed", s.Speed)
			turn("turn", s.Turn)
			turn("second_turn", s.SecondTurn)
		case FragmentDriveAndSlowDown:
			positive("speed", s.Speed)
			positive("slow_speed", s.SlowSpeed)
			positive("slow_distance", s.SlowDistance)
			positive("resume_distance", s.ResumeDistance)
		default:
			add("unknown fragment %q", s.Fragment)
		}

	default:
		switch s.Behaviour {
		case BehaviourKeepVelocity:
			positive("speed", s.Speed)
			if s.Distance <= 0 && s.Duration <= 0 {
				add("%s: distance or duration is required", s.kind())
			}
		case BehaviourStop:
			brake()
		case BehaviourStandStill:
			if s.Duration <= 0 {
				add("%s: duration must be positive", s.kind())
			}
		case BehaviourLaneChange:
			positive("speed", s.Speed)
			if s.Side != "left" && s.Side != "right" {
				add("%s: side must be left or right", s.kind())
			}
		case BehaviourDriveTo:
			positive("speed", s.Speed)
			if s.Target == nil {
				add("%s: target is required", s.kind())
			}
		case BehaviourDriveDistance:
			positive("distance", s.Distance)
		case BehaviourWaitForVehicle:
			positive("distance", s.Distance)
			if !actors[s.Other] {
				add("%s: unknown other actor %q", s.kind(), s.Other)
			}
		case BehaviourTeleport:
			if s.Target == nil {
				add("%s: target is required", s.kind())
			}
		case BehaviourDestroy:
		default:
			add("unknown behaviour %q", s.Behaviour)
		}
	}
	return errs
}
