package atomic

import (
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// TimeOut succeeds once timeout has elapsed in simulation time.
type TimeOut struct {
	clock   sim.Clock
	timeout time.Duration

	start    time.Duration
	timedOut bool
}

// NewTimeOut returns the timer.
func NewTimeOut(clock sim.Clock, timeout time.Duration, opts ...Option) *btx.Behaviour {
	o := applyOptions("TimeOut", opts)
	return btx.NewLeaf(o.name, &TimeOut{clock: clock, timeout: timeout})
}

// TimedOut reports whether the timer expired.
func (t *TimeOut) TimedOut() bool { return t.timedOut }

func (t *TimeOut) Initialise() error {
	t.start = t.clock.Elapsed()
	t.timedOut = false
	return nil
}

func (t *TimeOut) Update() (bt.Status, error) {
	if t.clock.Elapsed()-t.start >= t.timeout {
		t.timedOut = true
		return bt.Success, nil
	}
	return bt.Running, nil
}
