package atomic

import (
	"log/slog"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// Outcome is the verdict of a criterion.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeFailure:
		return "FAILURE"
	default:
		return "RUNNING"
	}
}

// Criterion is a leaf that judges a run. A criterion keeps running for the
// duration of the scenario and settles its outcome when it is terminated.
type Criterion interface {
	btx.Leaf
	Outcome() Outcome
	// ActualValue is the measured value the outcome was judged on.
	ActualValue() float64
	// ExpectedValue is the value required for success.
	ExpectedValue() float64
}

// CollisionTest fails if the actor collides with anything.
type CollisionTest struct {
	actor              sim.Actor
	source             sim.CollisionSource
	terminateOnFailure bool
	logger             *slog.Logger

	cancel  func()
	events  []sim.CollisionEvent
	outcome Outcome
}

var _ Criterion = (*CollisionTest)(nil)

// NewCollisionTest returns a collision criterion for actor. With
// terminateOnFailure the behaviour fails on the first collision, ending the
// scenario; otherwise it records the collision and keeps running.
func NewCollisionTest(actor sim.Actor, source sim.CollisionSource, terminateOnFailure bool, opts ...Option) *btx.Behaviour {
	o := applyOptions("CollisionTest", opts)
	return btx.NewLeaf(o.name, &CollisionTest{
		actor:              actor,
		source:             source,
		terminateOnFailure: terminateOnFailure,
		logger:             slog.Default(),
	})
}

func (c *CollisionTest) Outcome() Outcome { return c.outcome }

func (c *CollisionTest) ActualValue() float64 { return float64(len(c.events)) }

func (c *CollisionTest) ExpectedValue() float64 { return 0 }

// Events returns the collisions recorded.
func (c *CollisionTest) Events() []sim.CollisionEvent {
	return append([]sim.CollisionEvent(nil), c.events...)
}

func (c *CollisionTest) Initialise() error {
	c.events = nil
	c.outcome = OutcomeRunning
	c.cancel = c.source.SubscribeCollisions(c.actor, func(ev sim.CollisionEvent) {
		c.events = append(c.events, ev)
	})
	return nil
}

func (c *CollisionTest) Update() (bt.Status, error) {
	if len(c.events) == 0 {
		return bt.Running, nil
	}
	if c.outcome != OutcomeFailure {
		last := c.events[len(c.events)-1]
		c.logger.Warn("collision criterion failed", "actor", c.actor.ID(), "other", last.Other.ID(), "elapsed", last.Elapsed)
	}
	c.outcome = OutcomeFailure
	if c.terminateOnFailure {
		return bt.Failure, nil
	}
	return bt.Running, nil
}

func (c *CollisionTest) Terminate() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	switch {
	case len(c.events) > 0:
		c.outcome = OutcomeFailure
	case c.outcome == OutcomeRunning:
		c.outcome = OutcomeSuccess
	}
}
