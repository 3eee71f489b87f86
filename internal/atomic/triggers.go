package atomic

import (
	"errors"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/condition"
	"github.com/joeycumines/scenario-fragments/internal/pathgen"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// IntersectionSearchDistance bounds the search for the next intersection, in metres.
const IntersectionSearchDistance = 1000.0

// InTriggerDistanceToVehicle succeeds once actor is within distance of reference.
type InTriggerDistanceToVehicle struct {
	reference sim.Actor
	actor     sim.Actor
	distance  float64
}

// NewInTriggerDistanceToVehicle returns the trigger.
func NewInTriggerDistanceToVehicle(reference, actor sim.Actor, distance float64, opts ...Option) *btx.Behaviour {
	o := applyOptions("InTriggerDistanceToVehicle", opts)
	return btx.NewLeaf(o.name, &InTriggerDistanceToVehicle{reference: reference, actor: actor, distance: distance})
}

func (t *InTriggerDistanceToVehicle) Update() (bt.Status, error) {
	if t.actor.Transform().Location.Distance(t.reference.Transform().Location) < t.distance {
		return bt.Success, nil
	}
	return bt.Running, nil
}

// InTriggerDistanceToNextIntersection succeeds once actor is within distance of the
// first junction ahead of where it was when the trigger started.
type InTriggerDistanceToNextIntersection struct {
	actor    sim.Actor
	m        sim.Map
	distance float64

	target sim.Location
}

// NewInTriggerDistanceToNextIntersection returns the trigger.
func NewInTriggerDistanceToNextIntersection(actor sim.Actor, m sim.Map, distance float64, opts ...Option) *btx.Behaviour {
	o := applyOptions("InTriggerDistanceToNextIntersection", opts)
	return btx.NewLeaf(o.name, &InTriggerDistanceToNextIntersection{actor: actor, m: m, distance: distance})
}

// Distance returns the trigger distance in metres.
func (t *InTriggerDistanceToNextIntersection) Distance() float64 { return t.distance }

// Target returns the junction location found when the trigger started.
func (t *InTriggerDistanceToNextIntersection) Target() sim.Location { return t.target }

func (t *InTriggerDistanceToNextIntersection) Initialise() error {
	wp, err := t.m.Waypoint(t.actor.Transform().Location)
	if err != nil {
		return err
	}
	junction, _, err := pathgen.NextIntersection(wp, IntersectionSearchDistance)
	if err != nil {
		return err
	}
	t.target = junction.Transform().Location
	return nil
}

func (t *InTriggerDistanceToNextIntersection) Update() (bt.Status, error) {
	if t.actor.Transform().Location.Distance(t.target) < t.distance {
		return bt.Success, nil
	}
	return bt.Running, nil
}

// DriveDistance succeeds once actor has travelled distance metres.
type DriveDistance struct {
	actor    sim.Actor
	distance float64

	last      sim.Location
	travelled float64
}

// NewDriveDistance returns the trigger.
func NewDriveDistance(actor sim.Actor, distance float64, opts ...Option) *btx.Behaviour {
	o := applyOptions("DriveDistance", opts)
	return btx.NewLeaf(o.name, &DriveDistance{actor: actor, distance: distance})
}

func (d *DriveDistance) Initialise() error {
	d.last = d.actor.Transform().Location
	d.travelled = 0
	return nil
}

func (d *DriveDistance) Update() (bt.Status, error) {
	loc := d.actor.Transform().Location
	d.travelled += d.last.Distance(loc)
	d.last = loc
	if d.travelled >= d.distance {
		return bt.Success, nil
	}
	return bt.Running, nil
}

// StandStill succeeds once actor has been stopped for duration.
type StandStill struct {
	actor    sim.Actor
	clock    sim.Clock
	duration time.Duration

	since time.Duration
}

// NewStandStill returns the trigger.
func NewStandStill(actor sim.Actor, clock sim.Clock, duration time.Duration, opts ...Option) *btx.Behaviour {
	o := applyOptions("StandStill", opts)
	return btx.NewLeaf(o.name, &StandStill{actor: actor, clock: clock, duration: duration})
}

func (s *StandStill) Initialise() error {
	s.since = s.clock.Elapsed()
	return nil
}

func (s *StandStill) Update() (bt.Status, error) {
	now := s.clock.Elapsed()
	if s.actor.Speed() >= StandstillSpeed {
		s.since = now
		return bt.Running, nil
	}
	if now-s.since >= s.duration {
		return bt.Success, nil
	}
	return bt.Running, nil
}

// WaitForCondition succeeds once a compiled condition over the actor's state holds.
// Blackboard entries, when a blackboard is given, are visible as vars.
type WaitForCondition struct {
	actor sim.Actor
	clock sim.Clock
	cond  condition.Condition
	bb    *btx.Blackboard
}

// NewWaitForCondition returns the trigger.
func NewWaitForCondition(actor sim.Actor, clock sim.Clock, cond condition.Condition, bb *btx.Blackboard, opts ...Option) *btx.Behaviour {
	o := applyOptions("WaitForCondition", opts)
	return btx.NewLeaf(o.name, &WaitForCondition{actor: actor, clock: clock, cond: cond, bb: bb})
}

// Condition returns the condition waited on.
func (w *WaitForCondition) Condition() condition.Condition { return w.cond }

func (w *WaitForCondition) Update() (bt.Status, error) {
	if w.cond == nil {
		return bt.Failure, errors.New("no condition")
	}
	var vars map[string]any
	if w.bb != nil {
		vars = w.bb.Snapshot()
	}
	ok, err := w.cond.Eval(condition.EnvFor(w.actor, w.clock, vars))
	if err != nil {
		return bt.Failure, err
	}
	if ok {
		return bt.Success, nil
	}
	return bt.Running, nil
}
