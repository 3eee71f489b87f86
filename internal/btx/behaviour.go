package btx

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
)

// Kind identifies how a Behaviour combines its children.
type Kind int

const (
	// KindLeaf is an atomic behaviour, trigger or criterion.
	KindLeaf Kind = iota
	// KindSequence ticks children in order; each must succeed before the next starts.
	KindSequence
	// KindParallel ticks every unfinished child within the same tick.
	KindParallel
	// KindSubtree wraps an externally built bt.Node, such as a PA-BT plan.
	KindSubtree
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSequence:
		return "sequence"
	case KindParallel:
		return "parallel"
	case KindSubtree:
		return "subtree"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Policy decides when a parallel behaviour succeeds.
type Policy int

const (
	// SuccessOnOne succeeds as soon as any child succeeds.
	SuccessOnOne Policy = iota
	// SuccessOnAll succeeds once every child has succeeded.
	SuccessOnAll
)

func (p Policy) String() string {
	if p == SuccessOnAll {
		return "success-on-all"
	}
	return "success-on-one"
}

// Leaf is the logic of a leaf behaviour. Update is called once per tick while the
// behaviour is active.
type Leaf interface {
	Update() (bt.Status, error)
}

// Initialiser is implemented by leaves that set up state when they start running.
type Initialiser interface {
	Initialise() error
}

// Terminator is implemented by leaves that release state when they finish or are
// stopped by a parent.
type Terminator interface {
	Terminate()
}

// Behaviour is a named node of a behaviour tree. It is a thin layer over
// go-behaviortree that keeps the tree structure inspectable and gives leaves an
// initialise / update / terminate lifecycle.
//
// A Behaviour is not safe for concurrent use.
type Behaviour struct {
	name     string
	kind     Kind
	policy   Policy
	children []*Behaviour
	nodes    []bt.Node
	leaf     Leaf
	subtree  bt.Node
	owned    []*Behaviour

	tick    bt.Tick
	running bool

	ticks  int
	status bt.Status
	err    error
}

// NewLeaf wraps leaf as a named behaviour.
func NewLeaf(name string, leaf Leaf) *Behaviour {
	b := &Behaviour{name: name, kind: KindLeaf, leaf: leaf}
	b.tick = b.newTick()
	return b
}

// Sequence composes children so that each must succeed before the next starts. A
// child that has succeeded is not ticked again until the sequence finishes.
func Sequence(name string, children ...*Behaviour) *Behaviour {
	return newComposite(name, KindSequence, SuccessOnAll, children)
}

// Parallel composes children so that all of them are ticked on every tick, resolving
// according to policy. Any child failure fails the parallel. When it resolves,
// children that are still running are stopped.
func Parallel(name string, policy Policy, children ...*Behaviour) *Behaviour {
	return newComposite(name, KindParallel, policy, children)
}

// Subtree wraps a node built elsewhere. Its internals are opaque, except for
// owned: behaviours ticked from inside node, which Stop stops in turn. Owned
// behaviours are not reported as children.
func Subtree(name string, node bt.Node, owned ...*Behaviour) *Behaviour {
	b := &Behaviour{name: name, kind: KindSubtree, subtree: node, owned: owned}
	b.tick = b.newTick()
	return b
}

func newComposite(name string, kind Kind, policy Policy, children []*Behaviour) *Behaviour {
	b := &Behaviour{
		name:     name,
		kind:     kind,
		policy:   policy,
		children: children,
		nodes:    make([]bt.Node, len(children)),
	}
	for i, c := range children {
		b.nodes[i] = c.Node()
	}
	b.tick = b.newTick()
	return b
}

func (b *Behaviour) newTick() bt.Tick {
	switch b.kind {
	case KindSequence:
		return bt.Memorize(bt.Sequence)
	case KindParallel:
		return b.parallelTick()
	case KindSubtree:
		return func([]bt.Node) (bt.Status, error) {
			return b.subtree.Tick()
		}
	default:
		return b.leafTick
	}
}

// Node returns the go-behaviortree node for b.
func (b *Behaviour) Node() bt.Node {
	return func() (bt.Tick, []bt.Node) {
		return b.observe, b.nodes
	}
}

// Tick ticks the tree rooted at b once.
func (b *Behaviour) Tick() (bt.Status, error) {
	return b.Node().Tick()
}

func (b *Behaviour) observe(children []bt.Node) (bt.Status, error) {
	status, err := b.tick(children)
	b.ticks++
	b.status, b.err = status, err
	return status, err
}

func (b *Behaviour) leafTick([]bt.Node) (bt.Status, error) {
	if !b.running {
		if init, ok := b.leaf.(Initialiser); ok {
			if err := init.Initialise(); err != nil {
				return bt.Failure, fmt.Errorf("%s: initialise: %w", b.name, err)
			}
		}
		b.running = true
	}
	status, err := b.leaf.Update()
	if err != nil {
		status, err = bt.Failure, fmt.Errorf("%s: %w", b.name, err)
	}
	if status != bt.Running {
		b.terminate()
	}
	return status, err
}

func (b *Behaviour) terminate() {
	b.running = false
	if t, ok := b.leaf.(Terminator); ok {
		t.Terminate()
	}
}

func (b *Behaviour) parallelTick() bt.Tick {
	done := make([]bool, len(b.children))
	return func(children []bt.Node) (bt.Status, error) {
		var (
			succeeded, failed bool
			remaining         int
			firstErr          error
		)
		for i, child := range children {
			if done[i] {
				continue
			}
			status, err := child.Tick()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			switch {
			case err != nil || status == bt.Failure:
				failed, done[i] = true, true
			case status == bt.Success:
				succeeded, done[i] = true, true
			default:
				remaining++
			}
		}
		var result bt.Status
		switch {
		case failed:
			result = bt.Failure
		case succeeded && b.policy == SuccessOnOne, remaining == 0:
			result = bt.Success
		default:
			return bt.Running, nil
		}
		for _, c := range b.children {
			c.Stop()
		}
		clear(done)
		return result, firstErr
	}
}

// Stop terminates running leaves under b and resets composite state, so the next tick
// starts a fresh execution.
func (b *Behaviour) Stop() {
	for _, c := range b.children {
		c.Stop()
	}
	switch b.kind {
	case KindLeaf:
		if b.running {
			b.terminate()
		}
	case KindSequence, KindParallel:
		b.tick = b.newTick()
	case KindSubtree:
		for _, o := range b.owned {
			o.Stop()
		}
	}
}

// Name returns the behaviour's name.
func (b *Behaviour) Name() string { return b.name }

// Kind returns how the behaviour combines its children.
func (b *Behaviour) Kind() Kind { return b.kind }

// Policy returns the parallel policy. It is meaningful only for KindParallel.
func (b *Behaviour) Policy() Policy { return b.policy }

// Leaf returns the leaf logic, or nil for composites.
func (b *Behaviour) Leaf() Leaf { return b.leaf }

// Children returns the direct children in tick order.
func (b *Behaviour) Children() []*Behaviour {
	return append([]*Behaviour(nil), b.children...)
}

// Status returns the result of the most recent tick, and false if b was never ticked.
func (b *Behaviour) Status() (bt.Status, bool) { return b.status, b.ticks > 0 }

// Err returns the error from the most recent tick.
func (b *Behaviour) Err() error { return b.err }

// Ticks returns how many times b has been ticked.
func (b *Behaviour) Ticks() int { return b.ticks }

// Walk visits b and its descendants depth first. Returning false from fn skips the
// children of the visited behaviour.
func (b *Behaviour) Walk(fn func(depth int, b *Behaviour) bool) {
	b.walk(0, fn)
}

func (b *Behaviour) walk(depth int, fn func(int, *Behaviour) bool) {
	if !fn(depth, b) {
		return
	}
	for _, c := range b.children {
		c.walk(depth+1, fn)
	}
}

// Find returns every behaviour under b, b included, with the given name.
func (b *Behaviour) Find(name string) []*Behaviour {
	var out []*Behaviour
	b.Walk(func(_ int, n *Behaviour) bool {
		if n.name == name {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (b *Behaviour) String() string {
	return Render(b, false)
}
