package atomic

import (
	"time"
)

// StandstillSpeed is the speed, in m/s, under which an actor is considered stopped.
const StandstillSpeed = 0.1

// Option customises a behaviour. Options that do not apply to a behaviour are
// ignored by it.
type Option func(*options)

type options struct {
	name     string
	duration time.Duration
	distance float64
}

// WithName overrides the behaviour name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDuration bounds a behaviour in simulation time.
func WithDuration(d time.Duration) Option {
	return func(o *options) { o.duration = d }
}

// WithDistance bounds a behaviour by distance travelled, in metres.
func WithDistance(m float64) Option {
	return func(o *options) { o.distance = m }
}

func applyOptions(name string, opts []Option) options {
	o := options{name: name}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
