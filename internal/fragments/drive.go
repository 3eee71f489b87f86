package fragments

import (
	"fmt"

	"github.com/joeycumines/scenario-fragments/internal/atomic"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/pathgen"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// DriveToNextIntersection follows the lane until the vehicle is within distance of
// the next intersection.
type DriveToNextIntersection struct {
	vehicle  sim.Actor
	m        sim.Map
	speed    float64
	distance float64
}

// NewDriveToNextIntersection creates the fragment. The vehicle follows its lane
// at speed until within distanceFromIntersection metres of the next junction.
func NewDriveToNextIntersection(vehicle sim.Actor, m sim.Map, speed, distanceFromIntersection float64) *DriveToNextIntersection {
	return &DriveToNextIntersection{vehicle: vehicle, m: m, speed: speed, distance: distanceFromIntersection}
}

// Name returns the name of the fragment's root behaviour.
func (f *DriveToNextIntersection) Name() string { return "DriveToNextIntersection" }

// CreateTree returns parallel(success on one): lane follower, intersection trigger.
func (f *DriveToNextIntersection) CreateTree() (*btx.Behaviour, error) {
	return btx.Parallel("DrivingTowardsIntersection", btx.SuccessOnOne,
		atomic.NewLaneFollower(f.vehicle, f.m, f.speed),
		atomic.NewInTriggerDistanceToNextIntersection(f.vehicle, f.m, f.distance),
	), nil
}

// DriveAndTurnAtNextIntersection drives from a start location through the next
// intersection, leaving it in the selected direction.
type DriveAndTurnAtNextIntersection struct {
	vehicle sim.Actor
	m       sim.Map
	speed   float64
	start   sim.Location
	turn    string
}

// NewDriveAndTurnAtNextIntersection creates the fragment. turn is "straight",
// "right" or "left"; anything else turns left.
func NewDriveAndTurnAtNextIntersection(vehicle sim.Actor, m sim.Map, speed float64, start sim.Location, turn string) *DriveAndTurnAtNextIntersection {
	return &DriveAndTurnAtNextIntersection{vehicle: vehicle, m: m, speed: speed, start: start, turn: turn}
}

// Name returns the name of the fragment's root behaviour.
func (f *DriveAndTurnAtNextIntersection) Name() string { return "DriveAndTurnAtNextIntersection" }

// TurnValue maps the selector to the path generation turn.
func (f *DriveAndTurnAtNextIntersection) TurnValue() pathgen.Turn {
	return pathgen.TurnFromSelector(f.turn)
}

// CreateTree is CreateTreeWithPlan without the plan.
func (f *DriveAndTurnAtNextIntersection) CreateTree() (*btx.Behaviour, error) {
	b, _, err := f.CreateTreeWithPlan()
	return b, err
}

// CreateTreeWithPlan returns a waypoint follower over the generated turn plan,
// together with the plan so callers can chain from its final waypoint.
func (f *DriveAndTurnAtNextIntersection) CreateTreeWithPlan() (*btx.Behaviour, pathgen.Plan, error) {
	wp, err := f.m.Waypoint(f.start)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: start %s: %w", f.Name(), f.start, err)
	}
	plan, err := pathgen.GenerateTargetWaypointList(wp, f.TurnValue())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return atomic.NewWaypointFollower(f.vehicle, f.speed, plan), plan, nil
}

// DriveAndSharpStop drives towards the next intersection and brakes hard once
// within distance of it.
type DriveAndSharpStop struct {
	vehicle  sim.Actor
	m        sim.Map
	speed    float64
	distance float64
	brake    float64
}

// NewDriveAndSharpStop creates the fragment, braking with DefaultBrake.
func NewDriveAndSharpStop(vehicle sim.Actor, m sim.Map, speed, distanceFromIntersection float64) *DriveAndSharpStop {
	return &DriveAndSharpStop{vehicle: vehicle, m: m, speed: speed, distance: distanceFromIntersection, brake: DefaultBrake}
}

// WithBrake sets the brake amount, in (0, 1].
func (f *DriveAndSharpStop) WithBrake(brake float64) *DriveAndSharpStop {
	f.brake = brake
	return f
}

// Name returns the name of the fragment's root behaviour.
func (f *DriveAndSharpStop) Name() string { return "DriveAndSharpStop" }

// CreateTree returns sequence: DriveToNextIntersection tree, StopVehicle.
func (f *DriveAndSharpStop) CreateTree() (*btx.Behaviour, error) {
	drive, err := NewDriveToNextIntersection(f.vehicle, f.m, f.speed, f.distance).CreateTree()
	if err != nil {
		return nil, err
	}
	return btx.Sequence(f.Name(), drive, atomic.NewStopVehicle(f.vehicle, f.brake)), nil
}

// DriveAndSlowDown holds a reduced speed for a distance, then returns to the
// original speed for another.
type DriveAndSlowDown struct {
	vehicle        sim.Actor
	clock          sim.Clock
	speed          float64
	slowSpeed      float64
	slowDistance   float64
	resumeDistance float64
}

// NewDriveAndSlowDown creates the fragment. The vehicle holds slowSpeed for
// slowDistance metres, then speed for resumeDistance metres.
func NewDriveAndSlowDown(vehicle sim.Actor, clock sim.Clock, speed, slowSpeed, slowDistance, resumeDistance float64) *DriveAndSlowDown {
	return &DriveAndSlowDown{
		vehicle:        vehicle,
		clock:          clock,
		speed:          speed,
		slowSpeed:      slowSpeed,
		slowDistance:   slowDistance,
		resumeDistance: resumeDistance,
	}
}

// Name returns the name of the fragment's root behaviour.
func (f *DriveAndSlowDown) Name() string { return "DriveAndSlowDown" }

// CreateTree returns sequence: KeepVelocity(slow speed), KeepVelocity(speed).
func (f *DriveAndSlowDown) CreateTree() (*btx.Behaviour, error) {
	return btx.Sequence(f.Name(),
		atomic.NewKeepVelocity(f.vehicle, f.clock, f.slowSpeed, atomic.WithDistance(f.slowDistance), atomic.WithName("SlowDown")),
		atomic.NewKeepVelocity(f.vehicle, f.clock, f.speed, atomic.WithDistance(f.resumeDistance), atomic.WithName("ResumeSpeed")),
	), nil
}

// DriveAndTurnTwice turns at the next intersection, then at the one after, the
// second turn starting where the first plan ends.
type DriveAndTurnTwice struct {
	vehicle sim.Actor
	m       sim.Map
	speed   float64
	start   sim.Location
	first   string
	second  string
}

// NewDriveAndTurnTwice creates the fragment. Turn selectors map as in
// NewDriveAndTurnAtNextIntersection.
func NewDriveAndTurnTwice(vehicle sim.Actor, m sim.Map, speed float64, start sim.Location, firstTurn, secondTurn string) *DriveAndTurnTwice {
	return &DriveAndTurnTwice{vehicle: vehicle, m: m, speed: speed, start: start, first: firstTurn, second: secondTurn}
}

// Name returns the name of the fragment's root behaviour.
func (f *DriveAndTurnTwice) Name() string { return "DriveAndTurnTwice" }

// CreateTree is CreateTreeWithPlans without the plans.
func (f *DriveAndTurnTwice) CreateTree() (*btx.Behaviour, error) {
	b, _, _, err := f.CreateTreeWithPlans()
	return b, err
}

// CreateTreeWithPlans returns sequence: first turn follower, second turn follower,
// along with both plans.
func (f *DriveAndTurnTwice) CreateTreeWithPlans() (*btx.Behaviour, pathgen.Plan, pathgen.Plan, error) {
	firstTree, firstPlan, err := NewDriveAndTurnAtNextIntersection(f.vehicle, f.m, f.speed, f.start, f.first).CreateTreeWithPlan()
	if err != nil {
		return nil, nil, nil, err
	}
	next := firstPlan.Final().Transform().Location
	secondTree, secondPlan, err := NewDriveAndTurnAtNextIntersection(f.vehicle, f.m, f.speed, next, f.second).CreateTreeWithPlan()
	if err != nil {
		return nil, nil, nil, err
	}
	return btx.Sequence(f.Name(), firstTree, secondTree), firstPlan, secondPlan, nil
}
