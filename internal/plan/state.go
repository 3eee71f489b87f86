// Package plan adapts go-pabt, the Planning and Acting Behaviour Tree planner, to
// scenario behaviours. A State answers the planner's questions: the current value of
// a variable, read from a live sensor or the blackboard, and which registered
// actions could make a failed condition true.
package plan

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"

	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/scenario-fragments/internal/btx"
)

var _ pabtpkg.IState = (*State)(nil)

// Sensor reads a variable from the world each time the planner asks for it.
type Sensor func() (any, error)

// ActionGeneratorFunc produces actions for a failed condition at planning time.
// Returning any actions makes the generator authoritative for that condition: the
// static registry is not consulted.
type ActionGeneratorFunc func(failed pabtpkg.Condition) ([]pabtpkg.IAction, error)

// State implements pabtpkg.IState over a blackboard, with optional sensors that
// shadow blackboard keys. Sensor readings are written back to the blackboard so
// other behaviours observe what the planner saw.
type State struct {
	*btx.Blackboard

	logger *slog.Logger

	mu        sync.RWMutex
	actions   map[string]pabtpkg.IAction
	sensors   map[string]Sensor
	generator ActionGeneratorFunc
}

// NewState creates a State backed by bb.
func NewState(bb *btx.Blackboard) *State {
	return &State{
		Blackboard: bb,
		logger:     slog.Default(),
		actions:    make(map[string]pabtpkg.IAction),
		sensors:    make(map[string]Sensor),
	}
}

// SetSensor binds key to a live reading.
func (s *State) SetSensor(key string, fn Sensor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensors[key] = fn
}

// SetActionGenerator sets the dynamic action generator, or clears it when nil.
func (s *State) SetActionGenerator(gen ActionGeneratorFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generator = gen
}

// RegisterAction adds or replaces a named action. Registered actions are
// offered to the planner in name order.
func (s *State) RegisterAction(name string, action pabtpkg.IAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[name] = action
}

// Action returns the registered action called name, or nil.
func (s *State) Action(name string) pabtpkg.IAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actions[name]
}

// Variable implements pabtpkg.IState. Keys are normalised to strings. A missing
// key yields (nil, nil).
func (s *State) Variable(key any) (any, error) {
	k, err := keyString(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	sensor := s.sensors[k]
	s.mu.RUnlock()
	if sensor == nil {
		return s.Blackboard.Get(k), nil
	}
	v, err := sensor()
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %w", k, err)
	}
	s.Blackboard.Set(k, v)
	return v, nil
}

func keyString(key any) (string, error) {
	switch k := key.(type) {
	case nil:
		return "", fmt.Errorf("variable key cannot be nil")
	case string:
		return k, nil
	case int:
		return strconv.Itoa(k), nil
	case int64:
		return strconv.FormatInt(k, 10), nil
	case fmt.Stringer:
		return k.String(), nil
	default:
		return "", fmt.Errorf("unsupported key type: %T", key)
	}
}

// Actions implements pabtpkg.IState. It returns the actions with an effect on the
// failed condition's key whose value satisfies it. A nil condition returns every
// registered action.
func (s *State) Actions(failed pabtpkg.Condition) ([]pabtpkg.IAction, error) {
	s.mu.RLock()
	registered := make([]pabtpkg.IAction, 0, len(s.actions))
	for _, name := range slices.Sorted(maps.Keys(s.actions)) {
		registered = append(registered, s.actions[name])
	}
	generator := s.generator
	s.mu.RUnlock()

	if failed == nil {
		return registered, nil
	}

	candidates := registered
	if generator != nil {
		switch generated, err := generator(failed); {
		case err != nil:
			s.logger.Warn("action generator failed, using registered actions", "key", failed.Key(), "error", err)
		case len(generated) > 0:
			candidates = generated
		}
	}

	var relevant []pabtpkg.IAction
	var names []string
	for _, a := range candidates {
		if !satisfies(a, failed) {
			continue
		}
		relevant = append(relevant, a)
		if named, ok := a.(*Action); ok {
			names = append(names, named.Name)
		}
	}
	s.logger.Debug("planning for failed condition", "key", failed.Key(), "actions", names)
	return relevant, nil
}

func satisfies(action pabtpkg.IAction, failed pabtpkg.Condition) bool {
	for _, e := range action.Effects() {
		if e != nil && e.Key() == failed.Key() && failed.Match(e.Value()) {
			return true
		}
	}
	return false
}
