package pathgen

import (
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// Step is one waypoint of a plan with the manoeuvre it belongs to.
type Step struct {
	Waypoint sim.Waypoint
	Option   RoadOption
}

// Plan is an ordered list of steps for a waypoint follower.
type Plan []Step

// Final returns the last waypoint, or nil for an empty plan.
func (p Plan) Final() sim.Waypoint {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1].Waypoint
}

// Locations returns the location of every step.
func (p Plan) Locations() []sim.Location {
	out := make([]sim.Location, len(p))
	for i, s := range p {
		out[i] = s.Waypoint.Transform().Location
	}
	return out
}

// Length returns the distance along the plan, from its first step to its last.
func (p Plan) Length() float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += p[i-1].Waypoint.Transform().Location.Distance(p[i].Waypoint.Transform().Location)
	}
	return total
}
