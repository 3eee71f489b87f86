package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxDeceleration is the deceleration, in m/s², of a full brake.
	MaxDeceleration = 8.0
	// DefaultVehicleRadius is the collision radius of a spawned vehicle.
	DefaultVehicleRadius = 1.2
)

// World owns the map, the actors and simulation time.
type World struct {
	m         Map
	logger    *slog.Logger
	actors    []*Vehicle
	elapsed   time.Duration
	ticks     int64
	subs      map[uuid.UUID]map[int]func(CollisionEvent)
	nextSub   int
	colliding map[[2]uuid.UUID]bool
}

var (
	_ Clock           = (*World)(nil)
	_ CollisionSource = (*World)(nil)
)

// WorldOption configures a World.
type WorldOption func(*World)

// WithLogger sets the logger used for spawn, destroy and collision events.
func WithLogger(l *slog.Logger) WorldOption {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorld creates an empty world over m.
func NewWorld(m Map, opts ...WorldOption) *World {
	w := &World{
		m:         m,
		logger:    slog.Default(),
		subs:      make(map[uuid.UUID]map[int]func(CollisionEvent)),
		colliding: make(map[[2]uuid.UUID]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Map returns the world's map.
func (w *World) Map() Map { return w.m }

// Elapsed implements Clock.
func (w *World) Elapsed() time.Duration { return w.elapsed }

// Ticks returns the number of steps simulated.
func (w *World) Ticks() int64 { return w.ticks }

// SpawnVehicle places a vehicle at t.
func (w *World) SpawnVehicle(typeID string, t Transform) (*Vehicle, error) {
	for _, a := range w.actors {
		if a.alive && a.transform.Location.Distance(t.Location) < a.radius+DefaultVehicleRadius {
			return nil, fmt.Errorf("sim: spawn of %s at %s blocked by %s", typeID, t.Location, a.id)
		}
	}
	v := &Vehicle{
		id:        uuid.New(),
		typeID:    typeID,
		world:     w,
		transform: t,
		radius:    DefaultVehicleRadius,
		alive:     true,
	}
	w.actors = append(w.actors, v)
	w.logger.Debug("spawned actor", "id", v.id, "type", typeID, "location", t.Location.String())
	return v, nil
}

// Actors returns the live actors.
func (w *World) Actors() []Actor {
	out := make([]Actor, 0, len(w.actors))
	for _, a := range w.actors {
		if a.alive {
			out = append(out, a)
		}
	}
	return out
}

// SubscribeCollisions implements CollisionSource.
func (w *World) SubscribeCollisions(actor Actor, fn func(CollisionEvent)) func() {
	id := actor.ID()
	if w.subs[id] == nil {
		w.subs[id] = make(map[int]func(CollisionEvent))
	}
	n := w.nextSub
	w.nextSub++
	w.subs[id][n] = fn
	return func() {
		delete(w.subs[id], n)
	}
}

// Tick advances the simulation by dt. Each vehicle applies the command it received
// since the previous step, moves, and then contacts are detected.
func (w *World) Tick(dt time.Duration) {
	sec := dt.Seconds()
	for _, v := range w.actors {
		if v.alive {
			v.step(sec)
		}
	}
	w.elapsed += dt
	w.ticks++
	w.detectCollisions()
}

func (w *World) detectCollisions() {
	for i, a := range w.actors {
		for _, b := range w.actors[i+1:] {
			key := [2]uuid.UUID{a.id, b.id}
			touching := a.alive && b.alive &&
				a.transform.Location.Distance(b.transform.Location) < a.radius+b.radius
			if touching && !w.colliding[key] {
				w.logger.Info("collision", "actor", a.id, "other", b.id, "location", a.transform.Location.String())
				w.emit(CollisionEvent{Actor: a, Other: b, Location: a.transform.Location, Elapsed: w.elapsed})
				w.emit(CollisionEvent{Actor: b, Other: a, Location: b.transform.Location, Elapsed: w.elapsed})
			}
			if touching {
				w.colliding[key] = true
			} else {
				delete(w.colliding, key)
			}
		}
	}
}

func (w *World) emit(ev CollisionEvent) {
	for _, fn := range w.subs[ev.Actor.ID()] {
		fn(ev)
	}
}

// Vehicle is a point-mass actor. Commands last a single step: without a new command
// the vehicle coasts at its current velocity.
type Vehicle struct {
	id        uuid.UUID
	typeID    string
	world     *World
	transform Transform
	velocity  Vector3D
	radius    float64
	alive     bool

	target *Vector3D
	brake  float64
}

var _ Actor = (*Vehicle)(nil)

func (v *Vehicle) ID() uuid.UUID        { return v.id }
func (v *Vehicle) TypeID() string       { return v.typeID }
func (v *Vehicle) IsAlive() bool        { return v.alive }
func (v *Vehicle) Transform() Transform { return v.transform }
func (v *Vehicle) Velocity() Vector3D   { return v.velocity }
func (v *Vehicle) Speed() float64       { return v.velocity.Length() }

func (v *Vehicle) String() string {
	return fmt.Sprintf("%s(%s)", v.typeID, v.id.String()[:8])
}

func (v *Vehicle) SetTransform(t Transform) error {
	if !v.alive {
		return ErrActorDestroyed
	}
	v.transform = t
	v.velocity = Vector3D{}
	v.target = nil
	v.brake = 0
	return nil
}

func (v *Vehicle) SetTargetVelocity(vel Vector3D) error {
	if !v.alive {
		return ErrActorDestroyed
	}
	v.target = &vel
	v.brake = 0
	return nil
}

func (v *Vehicle) ApplyBrake(amount float64) error {
	if !v.alive {
		return ErrActorDestroyed
	}
	v.target = nil
	v.brake = clampf(amount, 0, 1)
	return nil
}

func (v *Vehicle) Destroy() error {
	if !v.alive {
		return ErrActorDestroyed
	}
	v.alive = false
	v.velocity = Vector3D{}
	v.world.logger.Debug("destroyed actor", "id", v.id)
	return nil
}

func (v *Vehicle) step(sec float64) {
	switch {
	case v.target != nil:
		v.velocity = *v.target
	case v.brake > 0:
		speed := v.velocity.Length() - v.brake*MaxDeceleration*sec
		if speed <= 0 {
			v.velocity = Vector3D{}
		} else {
			v.velocity = v.velocity.Normalize().Scale(speed)
		}
	}
	v.target = nil
	v.brake = 0
	if v.velocity.Length() > 0 {
		v.transform.Rotation.Yaw = YawOf(v.velocity)
		v.transform.Location = v.transform.Location.Add(v.velocity.Scale(sec))
	}
}
