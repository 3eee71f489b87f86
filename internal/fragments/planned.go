package fragments

import (
	"fmt"

	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/scenario-fragments/internal/atomic"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/pathgen"
	"github.com/joeycumines/scenario-fragments/internal/plan"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// Planning variables of PlannedStopAtIntersection.
const (
	VarNearIntersection = "near_intersection"
	VarStopped          = "stopped"
)

// PlannedStopAtIntersection reaches the same end state as DriveAndSharpStop, but the
// tree is synthesised by the PA-BT planner from the goal "near the intersection and
// stopped" and two actions: drive_to_intersection and stop.
type PlannedStopAtIntersection struct {
	vehicle  sim.Actor
	m        sim.Map
	speed    float64
	distance float64
	brake    float64
	bb       *btx.Blackboard
}

// NewPlannedStopAtIntersection creates the fragment. Sensor readings are mirrored
// to bb, which may be nil.
func NewPlannedStopAtIntersection(vehicle sim.Actor, m sim.Map, speed, distanceFromIntersection float64, bb *btx.Blackboard) *PlannedStopAtIntersection {
	if bb == nil {
		bb = new(btx.Blackboard)
	}
	return &PlannedStopAtIntersection{
		vehicle:  vehicle,
		m:        m,
		speed:    speed,
		distance: distanceFromIntersection,
		brake:    DefaultBrake,
		bb:       bb,
	}
}

// WithBrake sets the brake amount used by the stop action.
func (f *PlannedStopAtIntersection) WithBrake(brake float64) *PlannedStopAtIntersection {
	f.brake = brake
	return f
}

// Name returns the name of the fragment's root behaviour.
func (f *PlannedStopAtIntersection) Name() string { return "PlannedStopAtIntersection" }

// CreateTree builds a fresh planning state and plans the goal from it.
func (f *PlannedStopAtIntersection) CreateTree() (*btx.Behaviour, error) {
	state := plan.NewState(f.bb)

	var (
		target   sim.Location
		resolved bool
	)
	state.SetSensor(VarNearIntersection, func() (any, error) {
		loc := f.vehicle.Transform().Location
		if !resolved {
			wp, err := f.m.Waypoint(loc)
			if err != nil {
				return nil, err
			}
			junction, _, err := pathgen.NextIntersection(wp, atomic.IntersectionSearchDistance)
			if err != nil {
				return nil, err
			}
			target, resolved = junction.Transform().Location, true
		}
		return loc.Distance(target) < f.distance, nil
	})
	state.SetSensor(VarStopped, func() (any, error) {
		return f.vehicle.Speed() < atomic.StandstillSpeed, nil
	})

	drive, err := NewDriveToNextIntersection(f.vehicle, f.m, f.speed, f.distance).CreateTree()
	if err != nil {
		return nil, err
	}
	state.RegisterAction("drive_to_intersection", plan.BehaviourAction(
		"drive_to_intersection",
		nil,
		pabtpkg.Effects{plan.NewSimpleEffect(VarNearIntersection, true)},
		drive,
	))
	state.RegisterAction("stop", plan.BehaviourAction(
		"stop",
		[]pabtpkg.IConditions{{plan.EqualityCond(VarNearIntersection, true)}},
		pabtpkg.Effects{plan.NewSimpleEffect(VarStopped, true)},
		atomic.NewStopVehicle(f.vehicle, f.brake),
	))

	b, err := plan.Build(f.Name(), state, pabtpkg.IConditions{
		plan.EqualityCond(VarNearIntersection, true),
		plan.EqualityCond(VarStopped, true),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return b, nil
}
