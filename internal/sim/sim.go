// Package sim defines the simulator surface that scenario behaviours drive, together
// with a small kinematic reference world.
//
// Behaviours depend only on the interfaces in this file (Actor, Map, Waypoint, Clock,
// CollisionSource). The World, Vehicle and GridMap types implement them with a
// deliberately simple model: a square grid of two-way, multi-lane roads whose
// crossings are junctions, and point-mass vehicles that follow whatever velocity or
// brake command they were given during the current step.
//
// The world is not safe for concurrent use. It is owned by the goroutine that ticks
// the behaviour tree and calls World.Tick.
package sim

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrOffRoad is returned when a location cannot be projected onto a lane.
	ErrOffRoad = errors.New("sim: location is not on the road network")
	// ErrActorDestroyed is returned when commanding an actor that no longer exists.
	ErrActorDestroyed = errors.New("sim: actor destroyed")
)

// Actor is a simulated participant that behaviours may move or command.
type Actor interface {
	ID() uuid.UUID
	TypeID() string
	IsAlive() bool
	Transform() Transform
	// SetTransform teleports the actor and zeroes its velocity.
	SetTransform(t Transform) error
	Velocity() Vector3D
	Speed() float64
	// SetTargetVelocity commands the velocity the actor will hold for the next step.
	SetTargetVelocity(v Vector3D) error
	// ApplyBrake commands a deceleration, as a fraction of the maximum, for the next step.
	ApplyBrake(amount float64) error
	Destroy() error
}

// Waypoint is a point with orientation on a lane of the road network.
type Waypoint interface {
	Transform() Transform
	// IsJunction reports whether the waypoint lies inside a junction.
	IsJunction() bool
	// Next returns the waypoints approximately distance metres ahead. More than one
	// waypoint is returned where the lane branches at a junction entry. An empty
	// result means the lane ends.
	Next(distance float64) []Waypoint
	// Lane returns the adjacent lane in the same driving direction, on the left or right.
	Lane(left bool) (Waypoint, bool)
	RoadID() int
	LaneID() int
}

// Map resolves world locations to waypoints.
type Map interface {
	Name() string
	// Waypoint projects loc onto the closest driving lane.
	Waypoint(loc Location) (Waypoint, error)
}

// Clock reports simulation time.
type Clock interface {
	Elapsed() time.Duration
}

// CollisionEvent describes a contact between two actors.
type CollisionEvent struct {
	Actor    Actor
	Other    Actor
	Location Location
	Elapsed  time.Duration
}

// CollisionSource delivers collision events for an actor, in the manner of an
// attached collision sensor.
type CollisionSource interface {
	// SubscribeCollisions registers fn for collisions involving actor. The returned
	// function removes the subscription.
	SubscribeCollisions(actor Actor, fn func(CollisionEvent)) (cancel func())
}
