// Package condition compiles boolean expressions over an actor's state, for
// triggers such as "wait until the vehicle is slower than 0.5 m/s".
//
// Two evaluation modes are supported: expr-lang (the default) and CEL. Compiled
// programs are cached per mode in a bounded LRU cache keyed by source.
package condition

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeycumines/scenario-fragments/internal/sim"
)

// ErrNonBoolean is returned when an expression does not evaluate to a bool.
var ErrNonBoolean = errors.New("condition: expression is not boolean")

// Mode selects the expression language.
type Mode int

const (
	// ModeExpr evaluates github.com/expr-lang/expr expressions.
	ModeExpr Mode = iota
	// ModeCEL evaluates Common Expression Language expressions.
	ModeCEL
)

func (m Mode) String() string {
	switch m {
	case ModeExpr:
		return "expr"
	case ModeCEL:
		return "cel"
	default:
		return "unknown"
	}
}

// ParseMode parses "expr" or "cel". The empty string selects ModeExpr.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expr":
		return ModeExpr, nil
	case "cel":
		return ModeCEL, nil
	default:
		return 0, fmt.Errorf("condition: unknown mode %q (want expr or cel)", s)
	}
}

// Env is the data an expression is evaluated against. Field tags name the
// variables visible to expressions.
type Env struct {
	Speed   float64        `expr:"speed"`
	X       float64        `expr:"x"`
	Y       float64        `expr:"y"`
	Yaw     float64        `expr:"yaw"`
	Elapsed float64        `expr:"elapsed"`
	Alive   bool           `expr:"alive"`
	Vars    map[string]any `expr:"vars"`
}

// EnvFor captures the state of actor at the time given by clock. Elapsed is in
// seconds. A nil clock yields zero elapsed time.
func EnvFor(actor sim.Actor, clock sim.Clock, vars map[string]any) Env {
	tr := actor.Transform()
	var elapsed time.Duration
	if clock != nil {
		elapsed = clock.Elapsed()
	}
	if vars == nil {
		vars = map[string]any{}
	}
	return Env{
		Speed:   actor.Speed(),
		X:       tr.Location.X,
		Y:       tr.Location.Y,
		Yaw:     tr.Rotation.Yaw,
		Elapsed: elapsed.Seconds(),
		Alive:   actor.IsAlive(),
		Vars:    vars,
	}
}

func (e Env) activation() map[string]any {
	return map[string]any{
		"speed":   e.Speed,
		"x":       e.X,
		"y":       e.Y,
		"yaw":     e.Yaw,
		"elapsed": e.Elapsed,
		"alive":   e.Alive,
		"vars":    e.Vars,
	}
}

// Condition is a compiled boolean expression.
type Condition interface {
	Source() string
	Mode() Mode
	Eval(env Env) (bool, error)
}

var (
	exprPrograms = NewCache[*exprProgram](DefaultCacheSize)
	celPrograms  = NewCache[*celProgram](DefaultCacheSize)
)

// SetCacheSize sets the capacity of the program caches, at least 1.
func SetCacheSize(size int) {
	exprPrograms.Resize(size)
	celPrograms.Resize(size)
}

// CacheSize returns the capacity of the program caches.
func CacheSize() int { return exprPrograms.Cap() }

// ClearCache empties the program caches.
func ClearCache() {
	exprPrograms.Clear()
	celPrograms.Clear()
}

// Compile compiles src in the given mode, reusing a cached program when one exists.
func Compile(mode Mode, src string) (Condition, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("condition: empty expression")
	}
	switch mode {
	case ModeExpr:
		if p, ok := exprPrograms.Get(src); ok {
			return p, nil
		}
		p, err := compileExpr(src)
		if err != nil {
			return nil, err
		}
		exprPrograms.Put(src, p)
		return p, nil
	case ModeCEL:
		if p, ok := celPrograms.Get(src); ok {
			return p, nil
		}
		p, err := compileCEL(src)
		if err != nil {
			return nil, err
		}
		celPrograms.Put(src, p)
		return p, nil
	default:
		return nil, fmt.Errorf("condition: unknown mode %d", int(mode))
	}
}
