// Package pathgen turns waypoints into plans: which way to leave a junction, where
// a turn ends, and how far away the next intersection is.
package pathgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/joeycumines/scenario-fragments/internal/sim"
)

var (
	// ErrNoJunction is returned when no junction is found within the search distance.
	ErrNoJunction = errors.New("pathgen: no junction ahead")
	// ErrDeadEnd is returned when the lane ends before the plan is complete.
	ErrDeadEnd = errors.New("pathgen: lane ends")
)

const (
	// PlanStep is the spacing, in metres, of generated turn plans.
	PlanStep = 2.0
	// lookahead is how far past a junction entry the exit direction is measured.
	lookahead = 10.0
	// straightThreshold is the heading change, in radians, under which a turn is
	// considered complete.
	straightThreshold = 0.1 * math.Pi / 180
	// maxSearch bounds every waypoint walk, in metres.
	maxSearch = 5000.0
)

// ChooseAtJunction picks, from the branches returned by current.Next, the one
// matching turn: the right-most exit for TurnRight, the left-most for TurnLeft and
// the one closest to straight ahead for TurnStraight. Exits are compared by the
// cross product of the current heading with the direction to a point lookahead
// metres along each branch.
func ChooseAtJunction(current sim.Waypoint, choices []sim.Waypoint, turn Turn) sim.Waypoint {
	if len(choices) == 0 {
		return nil
	}
	tr := current.Transform()
	heading := tr.Rotation.ForwardVector()

	var (
		best      sim.Waypoint
		bestCross float64
	)
	for _, choice := range choices {
		probe := choice
		if ahead := choice.Next(lookahead); len(ahead) > 0 {
			probe = ahead[0]
		}
		cross := heading.CrossZ(tr.Location.Vector(probe.Transform().Location).Normalize())
		if best == nil || better(turn, cross, bestCross) {
			best, bestCross = choice, cross
		}
	}
	return best
}

func better(turn Turn, cross, best float64) bool {
	switch {
	case turn > 0:
		return cross > best
	case turn < 0:
		return cross < best
	default:
		return math.Abs(cross) < math.Abs(best)
	}
}

// GenerateTargetWaypointList walks forward from wp in PlanStep increments, takes
// the exit selected by turn at the first junction, and stops once the manoeuvre is
// complete: for a turn, when the path has left the junction and straightened out;
// going straight, at the first waypoint past the junction.
func GenerateTargetWaypointList(wp sim.Waypoint, turn Turn) (Plan, error) {
	var (
		plan     Plan
		junction bool
		walked   float64
	)
	for walked < maxSearch {
		choices := wp.Next(PlanStep)
		if len(choices) == 0 {
			return plan, fmt.Errorf("%w after %.1fm", ErrDeadEnd, walked)
		}
		option := RoadOptionLaneFollow
		if len(choices) > 1 || (!junction && choices[0].IsJunction()) {
			junction = true
			wp = ChooseAtJunction(wp, choices, turn)
		} else {
			wp = choices[0]
		}
		if wp.IsJunction() {
			option = turn.RoadOption()
		}
		plan = append(plan, Step{Waypoint: wp, Option: option})
		walked += PlanStep

		if junction && !wp.IsJunction() && (turn == TurnStraight || plan.straightened()) {
			return plan, nil
		}
	}
	return plan, fmt.Errorf("%w within %.0fm", ErrNoJunction, maxSearch)
}

// straightened reports whether the last three steps are collinear within
// straightThreshold.
func (p Plan) straightened() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	a := p[n-3].Waypoint.Transform().Location
	b := p[n-2].Waypoint.Transform().Location
	c := p[n-1].Waypoint.Transform().Location
	return sim.AngleBetween(a.Vector(b), b.Vector(c)) < straightThreshold
}

// GenerateTargetWaypoint returns the first waypoint past the next junction, leaving
// it by turn.
func GenerateTargetWaypoint(wp sim.Waypoint, turn Turn) (sim.Waypoint, error) {
	junction := false
	for walked := 0.0; walked < maxSearch; walked++ {
		choices := wp.Next(1)
		if len(choices) == 0 {
			return nil, fmt.Errorf("%w after %.0fm", ErrDeadEnd, walked)
		}
		if !junction && (len(choices) > 1 || choices[0].IsJunction()) {
			junction = true
			wp = ChooseAtJunction(wp, choices, turn)
		} else {
			wp = choices[0]
		}
		if junction && !wp.IsJunction() {
			return wp, nil
		}
	}
	return nil, fmt.Errorf("%w within %.0fm", ErrNoJunction, maxSearch)
}

// WaypointInDistance walks up to distance metres along the lane, stopping early at
// a junction or where the lane ends. It returns the waypoint reached and the
// distance actually travelled.
func WaypointInDistance(wp sim.Waypoint, distance float64) (sim.Waypoint, float64) {
	var travelled float64
	for !wp.IsJunction() && travelled < distance {
		next := wp.Next(1)
		if len(next) == 0 {
			break
		}
		n := next[len(next)-1]
		travelled += n.Transform().Location.Distance(wp.Transform().Location)
		wp = n
	}
	return wp, travelled
}

// NextIntersection returns the first junction waypoint ahead of wp, and the
// distance to it along the lane. If wp is already in a junction it is returned.
func NextIntersection(wp sim.Waypoint, maxDistance float64) (sim.Waypoint, float64, error) {
	var travelled float64
	for !wp.IsJunction() {
		if travelled >= maxDistance {
			return nil, travelled, fmt.Errorf("%w within %.0fm", ErrNoJunction, maxDistance)
		}
		next := wp.Next(1)
		if len(next) == 0 {
			return nil, travelled, fmt.Errorf("%w after %.0fm", ErrDeadEnd, travelled)
		}
		n := next[len(next)-1]
		travelled += n.Transform().Location.Distance(wp.Transform().Location)
		wp = n
	}
	return wp, travelled, nil
}

// LaneFollowPlan follows the lane for distance metres in steps of step metres,
// going straight through junctions. It stops early where the lane ends.
func LaneFollowPlan(wp sim.Waypoint, distance, step float64) Plan {
	if step <= 0 {
		step = PlanStep
	}
	var plan Plan
	for walked := 0.0; walked < distance; walked += step {
		choices := wp.Next(step)
		if len(choices) == 0 {
			break
		}
		wp = ChooseAtJunction(wp, choices, TurnStraight)
		plan = append(plan, Step{Waypoint: wp, Option: RoadOptionLaneFollow})
	}
	return plan
}

// LaneChangePlan follows the current lane for sameLane metres, moves to the
// adjacent lane over changeDistance metres, then follows it for otherLane metres.
func LaneChangePlan(wp sim.Waypoint, left bool, sameLane, changeDistance, otherLane float64) (Plan, error) {
	plan := LaneFollowPlan(wp, sameLane, PlanStep)
	if f := plan.Final(); f != nil {
		wp = f
	}
	ahead := wp.Next(changeDistance)
	if len(ahead) == 0 {
		return plan, fmt.Errorf("%w before the lane change", ErrDeadEnd)
	}
	target, ok := ChooseAtJunction(wp, ahead, TurnStraight).Lane(left)
	if !ok {
		side := "right"
		if left {
			side = "left"
		}
		return plan, fmt.Errorf("pathgen: no lane to the %s of road %d lane %d", side, wp.RoadID(), wp.LaneID())
	}
	option := RoadOptionChangeLaneRight
	if left {
		option = RoadOptionChangeLaneLeft
	}
	plan = append(plan, Step{Waypoint: target, Option: option})
	return append(plan, LaneFollowPlan(target, otherLane, PlanStep)...), nil
}

// RouteTo plans a route from start to the lane waypoint nearest destination. At
// every junction it greedily takes the exit that ends closest to the destination.
// The route ends within PlanStep of the destination.
func RouteTo(m sim.Map, start, destination sim.Location) (Plan, error) {
	wp, err := m.Waypoint(start)
	if err != nil {
		return nil, fmt.Errorf("route start: %w", err)
	}
	goal, err := m.Waypoint(destination)
	if err != nil {
		return nil, fmt.Errorf("route destination: %w", err)
	}
	target := goal.Transform().Location

	var plan Plan
	for walked := 0.0; walked < maxSearch; walked += PlanStep {
		if wp.Transform().Location.Distance(target) <= PlanStep {
			return plan, nil
		}
		choices := wp.Next(PlanStep)
		if len(choices) == 0 {
			return plan, fmt.Errorf("%w after %.0fm routing to %s", ErrDeadEnd, walked, destination)
		}
		option := RoadOptionLaneFollow
		if len(choices) > 1 {
			wp, option = closestExit(wp, choices, target)
		} else {
			wp = choices[0]
		}
		plan = append(plan, Step{Waypoint: wp, Option: option})
	}
	return plan, fmt.Errorf("pathgen: no route to %s within %.0fm", destination, maxSearch)
}

// closestExit returns the branch whose junction exit lies nearest target, and the
// road option describing it.
func closestExit(current sim.Waypoint, choices []sim.Waypoint, target sim.Location) (sim.Waypoint, RoadOption) {
	var (
		best     sim.Waypoint
		bestDist = math.Inf(1)
	)
	for _, c := range choices {
		exit := c
		for n := 0; exit.IsJunction() && n < 100; n++ {
			next := exit.Next(1)
			if len(next) == 0 {
				break
			}
			exit = next[0]
		}
		if d := exit.Transform().Location.Distance(target); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, Classify(current, best).RoadOption()
}

// Classify reports which way the branch choice leaves the junction ahead of current.
func Classify(current sim.Waypoint, choice sim.Waypoint) Turn {
	tr := current.Transform()
	probe := choice
	if ahead := choice.Next(lookahead); len(ahead) > 0 {
		probe = ahead[0]
	}
	cross := tr.Rotation.ForwardVector().CrossZ(tr.Location.Vector(probe.Transform().Location).Normalize())
	switch {
	case cross > 0.3:
		return TurnRight
	case cross < -0.3:
		return TurnLeft
	default:
		return TurnStraight
	}
}
