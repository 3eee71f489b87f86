package atomic

import (
	"errors"
	"fmt"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// ActorTransformSetter teleports an actor and succeeds once it is in place.
type ActorTransformSetter struct {
	actor     sim.Actor
	transform sim.Transform
}

// NewActorTransformSetter returns a behaviour moving actor to transform.
func NewActorTransformSetter(actor sim.Actor, transform sim.Transform, opts ...Option) *btx.Behaviour {
	o := applyOptions("ActorTransformSetter", opts)
	return btx.NewLeaf(o.name, &ActorTransformSetter{actor: actor, transform: transform})
}

func (a *ActorTransformSetter) Update() (bt.Status, error) {
	if a.actor.Transform().Location.Distance(a.transform.Location) < 1 {
		return bt.Success, nil
	}
	if err := a.actor.SetTransform(a.transform); err != nil {
		return bt.Failure, err
	}
	return bt.Running, nil
}

// ActorDestroy removes an actor from the world. An actor that is already gone
// counts as destroyed.
type ActorDestroy struct {
	actor sim.Actor
}

// NewActorDestroy returns a behaviour destroying actor.
func NewActorDestroy(actor sim.Actor, opts ...Option) *btx.Behaviour {
	o := applyOptions("ActorDestroy", opts)
	return btx.NewLeaf(o.name, &ActorDestroy{actor: actor})
}

func (a *ActorDestroy) Update() (bt.Status, error) {
	if err := a.actor.Destroy(); err != nil && !errors.Is(err, sim.ErrActorDestroyed) {
		return bt.Failure, err
	}
	return bt.Success, nil
}

// KeepVelocity drives an actor along its heading at a constant speed until it has
// travelled a distance or a duration has passed. With neither bound it runs
// indefinitely.
type KeepVelocity struct {
	actor    sim.Actor
	speed    float64
	distance float64
	duration time.Duration
	clock    sim.Clock

	start     time.Duration
	last      sim.Location
	travelled float64
}

// NewKeepVelocity returns a KeepVelocity behaviour. WithDuration requires a clock.
func NewKeepVelocity(actor sim.Actor, clock sim.Clock, speed float64, opts ...Option) *btx.Behaviour {
	o := applyOptions("KeepVelocity", opts)
	return btx.NewLeaf(o.name, &KeepVelocity{
		actor:    actor,
		speed:    speed,
		distance: o.distance,
		duration: o.duration,
		clock:    clock,
	})
}

// TargetSpeed returns the commanded speed in m/s.
func (k *KeepVelocity) TargetSpeed() float64 { return k.speed }

// Distance returns the distance bound, or 0 if unbounded.
func (k *KeepVelocity) Distance() float64 { return k.distance }

// Duration returns the time bound, or 0 if unbounded.
func (k *KeepVelocity) Duration() time.Duration { return k.duration }

// Travelled returns the distance covered in the current run.
func (k *KeepVelocity) Travelled() float64 { return k.travelled }

func (k *KeepVelocity) Initialise() error {
	if k.duration > 0 && k.clock == nil {
		return errors.New("duration bound without a clock")
	}
	if k.clock != nil {
		k.start = k.clock.Elapsed()
	}
	k.last = k.actor.Transform().Location
	k.travelled = 0
	return nil
}

func (k *KeepVelocity) Update() (bt.Status, error) {
	tr := k.actor.Transform()
	k.travelled += k.last.Distance(tr.Location)
	k.last = tr.Location

	if k.distance > 0 && k.travelled >= k.distance {
		return bt.Success, nil
	}
	if k.duration > 0 && k.clock.Elapsed()-k.start >= k.duration {
		return bt.Success, nil
	}
	if err := k.actor.SetTargetVelocity(tr.Rotation.ForwardVector().Scale(k.speed)); err != nil {
		return bt.Failure, err
	}
	return bt.Running, nil
}

// StopVehicle brakes until the actor stands still.
type StopVehicle struct {
	actor sim.Actor
	brake float64
}

// NewStopVehicle returns a behaviour braking actor with the given brake amount in
// [0, 1].
func NewStopVehicle(actor sim.Actor, brake float64, opts ...Option) *btx.Behaviour {
	o := applyOptions("StopVehicle", opts)
	return btx.NewLeaf(o.name, &StopVehicle{actor: actor, brake: brake})
}

// Brake returns the brake amount.
func (s *StopVehicle) Brake() float64 { return s.brake }

func (s *StopVehicle) Initialise() error {
	if s.brake <= 0 || s.brake > 1 {
		return fmt.Errorf("brake %.2f outside (0, 1]", s.brake)
	}
	return nil
}

func (s *StopVehicle) Update() (bt.Status, error) {
	if s.actor.Speed() < StandstillSpeed {
		return bt.Success, nil
	}
	if err := s.actor.ApplyBrake(s.brake); err != nil {
		return bt.Failure, err
	}
	return bt.Running, nil
}
