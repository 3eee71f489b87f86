package plan

import (
	pabtpkg "github.com/joeycumines/go-pabt"
)

// SimpleCond is a condition backed by a Go function.
type SimpleCond struct {
	key   any
	match func(value any) bool
}

var _ pabtpkg.Condition = (*SimpleCond)(nil)

func NewSimpleCond(key any, match func(value any) bool) *SimpleCond {
	return &SimpleCond{key: key, match: match}
}

func (c *SimpleCond) Key() any { return c.key }

func (c *SimpleCond) Match(value any) bool {
	if c.match == nil {
		return false
	}
	return c.match(value)
}

// EqualityCond matches when the variable equals expected.
func EqualityCond(key, expected any) *SimpleCond {
	return NewSimpleCond(key, func(value any) bool { return value == expected })
}

// NotNilCond matches when the variable is set.
func NotNilCond(key any) *SimpleCond {
	return NewSimpleCond(key, func(value any) bool { return value != nil })
}

// SimpleEffect is a fixed key/value effect.
type SimpleEffect struct {
	key   any
	value any
}

var _ pabtpkg.Effect = (*SimpleEffect)(nil)

func NewSimpleEffect(key, value any) *SimpleEffect {
	return &SimpleEffect{key: key, value: value}
}

func (e *SimpleEffect) Key() any { return e.key }

func (e *SimpleEffect) Value() any { return e.value }
