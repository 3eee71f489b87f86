package plan

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/scenario-fragments/internal/btx"
)

// Action is a named PA-BT action: preconditions, effects and the behaviour that
// brings the effects about.
type Action struct {
	Name string

	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       bt.Node
	behaviour  *btx.Behaviour
}

var _ pabtpkg.IAction = (*Action)(nil)

// NewAction creates an action. It panics if node is nil.
func NewAction(name string, conditions []pabtpkg.IConditions, effects pabtpkg.Effects, node bt.Node) *Action {
	if node == nil {
		panic(fmt.Sprintf("plan.NewAction: node cannot be nil (action=%s)", name))
	}
	return &Action{Name: name, conditions: conditions, effects: effects, node: node}
}

// BehaviourAction creates an action executing b.
func BehaviourAction(name string, conditions []pabtpkg.IConditions, effects pabtpkg.Effects, b *btx.Behaviour) *Action {
	a := NewAction(name, conditions, effects, b.Node())
	a.behaviour = b
	return a
}

func (a *Action) Conditions() []pabtpkg.IConditions { return a.conditions }

func (a *Action) Effects() pabtpkg.Effects { return a.effects }

func (a *Action) Node() bt.Node { return a.node }

// Build plans for goals, any one of which is sufficient, and wraps the resulting
// plan as a named behaviour. Stopping that behaviour stops the behaviours of
// registered BehaviourActions; actions from the generator are not tracked.
func Build(name string, state *State, goals ...pabtpkg.IConditions) (*btx.Behaviour, error) {
	p, err := pabtpkg.INew(state, goals)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", name, err)
	}
	registered, _ := state.Actions(nil)
	var owned []*btx.Behaviour
	for _, a := range registered {
		if a, ok := a.(*Action); ok && a.behaviour != nil {
			owned = append(owned, a.behaviour)
		}
	}
	return btx.Subtree(name, p.Node(), owned...), nil
}
