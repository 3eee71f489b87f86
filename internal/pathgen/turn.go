package pathgen

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrUnknownTurn is returned by ParseTurn for anything but left, straight or right.
var ErrUnknownTurn = errors.New("pathgen: unknown turn")

// Turn selects the exit taken at a junction.
type Turn int

const (
	TurnLeft     Turn = -1
	TurnStraight Turn = 0
	TurnRight    Turn = 1
)

func (t Turn) String() string {
	switch t {
	case TurnLeft:
		return "left"
	case TurnStraight:
		return "straight"
	case TurnRight:
		return "right"
	default:
		return fmt.Sprintf("turn(%d)", int(t))
	}
}

// ParseTurn converts a turn selector, rejecting unrecognised values.
func ParseTurn(s string) (Turn, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return TurnLeft, nil
	case "straight":
		return TurnStraight, nil
	case "right":
		return TurnRight, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTurn, s)
	}
}

// TurnFromSelector maps "straight" to TurnStraight, "right" to TurnRight and
// anything else to TurnLeft. Values other than "left" are logged, since they are
// usually typos.
func TurnFromSelector(s string) Turn {
	switch s {
	case "straight":
		return TurnStraight
	case "right":
		return TurnRight
	case "left":
		return TurnLeft
	default:
		slog.Warn("unrecognised turn selector, turning left", "turn", s)
		return TurnLeft
	}
}

// RoadOption labels a plan step with the manoeuvre it belongs to.
type RoadOption int

const (
	RoadOptionVoid RoadOption = iota - 1
	_
	RoadOptionLeft
	RoadOptionRight
	RoadOptionStraight
	RoadOptionLaneFollow
	RoadOptionChangeLaneLeft
	RoadOptionChangeLaneRight
)

func (o RoadOption) String() string {
	switch o {
	case RoadOptionVoid:
		return "VOID"
	case RoadOptionLeft:
		return "LEFT"
	case RoadOptionRight:
		return "RIGHT"
	case RoadOptionStraight:
		return "STRAIGHT"
	case RoadOptionLaneFollow:
		return "LANEFOLLOW"
	case RoadOptionChangeLaneLeft:
		return "CHANGELANELEFT"
	case RoadOptionChangeLaneRight:
		return "CHANGELANERIGHT"
	default:
		return fmt.Sprintf("RoadOption(%d)", int(o))
	}
}

// RoadOption returns the option for steps inside a junction taken with t.
func (t Turn) RoadOption() RoadOption {
	switch {
	case t > 0:
		return RoadOptionRight
	case t < 0:
		return RoadOptionLeft
	default:
		return RoadOptionStraight
	}
}
