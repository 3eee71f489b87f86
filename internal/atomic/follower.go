package atomic

import (
	"fmt"
	"math"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/pathgen"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

const (
	// minReach is the smallest radius, in metres, within which a waypoint counts as
	// reached.
	minReach = 2.0
	// reachTime scales the reach radius with speed.
	reachTime = 0.25
	// followHorizon is how far ahead, in metres, the lane-following queue extends.
	followHorizon = 50.0
)

// WaypointFollower steers an actor through a queue of waypoints at a fixed speed.
//
// With a plan it succeeds once the final waypoint is reached. Without one it keeps
// following the current lane, straight through junctions, and never succeeds on
// its own; it fails if the lane ends.
type WaypointFollower struct {
	actor  sim.Actor
	speed  float64
	m      sim.Map
	plan   pathgen.Plan
	source func() (pathgen.Plan, error)

	queue pathgen.Plan
}

// NewWaypointFollower returns a behaviour driving actor along plan.
func NewWaypointFollower(actor sim.Actor, speed float64, plan pathgen.Plan, opts ...Option) *btx.Behaviour {
	o := applyOptions("WaypointFollower", opts)
	return btx.NewLeaf(o.name, &WaypointFollower{actor: actor, speed: speed, plan: plan})
}

// NewLaneFollower returns a behaviour driving actor along its lane indefinitely.
func NewLaneFollower(actor sim.Actor, m sim.Map, speed float64, opts ...Option) *btx.Behaviour {
	o := applyOptions("WaypointFollower", opts)
	return btx.NewLeaf(o.name, &WaypointFollower{actor: actor, speed: speed, m: m})
}

// NewLaneChange returns a behaviour that follows the lane for sameLane metres,
// changes to the adjacent lane on the given side, and follows that lane for
// otherLane metres.
func NewLaneChange(actor sim.Actor, m sim.Map, speed float64, left bool, sameLane, otherLane float64, opts ...Option) *btx.Behaviour {
	o := applyOptions("LaneChange", opts)
	return btx.NewLeaf(o.name, &WaypointFollower{
		actor: actor,
		speed: speed,
		source: func() (pathgen.Plan, error) {
			wp, err := m.Waypoint(actor.Transform().Location)
			if err != nil {
				return nil, err
			}
			return pathgen.LaneChangePlan(wp, left, sameLane, math.Max(speed, minReach*2), otherLane)
		},
	})
}

// NewBasicAgentBehavior returns a behaviour that routes actor to target and drives
// there.
func NewBasicAgentBehavior(actor sim.Actor, m sim.Map, target sim.Location, speed float64, opts ...Option) *btx.Behaviour {
	o := applyOptions("BasicAgentBehavior", opts)
	return btx.NewLeaf(o.name, &WaypointFollower{
		actor: actor,
		speed: speed,
		source: func() (pathgen.Plan, error) {
			return pathgen.RouteTo(m, actor.Transform().Location, target)
		},
	})
}

// Speed returns the target speed in m/s.
func (w *WaypointFollower) Speed() float64 { return w.speed }

// Plan returns the fixed plan, or nil when following the lane or planning on start.
func (w *WaypointFollower) Plan() pathgen.Plan { return w.plan }

// FollowsLane reports whether the follower tracks its lane instead of a plan.
func (w *WaypointFollower) FollowsLane() bool { return w.m != nil }

// Remaining returns the number of queued waypoints.
func (w *WaypointFollower) Remaining() int { return len(w.queue) }

func (w *WaypointFollower) Initialise() error {
	switch {
	case w.source != nil:
		plan, err := w.source()
		if err != nil {
			return err
		}
		w.queue = plan
	case w.m != nil:
		w.queue = nil
		return w.extend()
	default:
		w.queue = append(pathgen.Plan(nil), w.plan...)
	}
	return nil
}

// extend tops up the lane-following queue.
func (w *WaypointFollower) extend() error {
	last := w.queue.Final()
	if last == nil {
		wp, err := w.m.Waypoint(w.actor.Transform().Location)
		if err != nil {
			return err
		}
		last = wp
	}
	w.queue = append(w.queue, pathgen.LaneFollowPlan(last, followHorizon, pathgen.PlanStep)...)
	return nil
}

func (w *WaypointFollower) Update() (bt.Status, error) {
	loc := w.actor.Transform().Location
	reach := math.Max(minReach, w.speed*reachTime)
	for len(w.queue) > 0 && loc.Distance(w.queue[0].Waypoint.Transform().Location) < reach {
		w.queue = w.queue[1:]
	}
	if w.m != nil && w.queue.Length() < followHorizon/2 {
		if err := w.extend(); err != nil {
			return bt.Failure, err
		}
	}
	if len(w.queue) == 0 {
		if w.m != nil {
			return bt.Failure, fmt.Errorf("%w at %s", pathgen.ErrDeadEnd, loc)
		}
		return bt.Success, nil
	}
	dir := loc.Vector(w.queue[0].Waypoint.Transform().Location).Normalize()
	if err := w.actor.SetTargetVelocity(dir.Scale(w.speed)); err != nil {
		return bt.Failure, err
	}
	return bt.Running, nil
}
