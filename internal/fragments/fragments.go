// Package fragments provides reusable behaviour-tree fragments for driving
// scenarios: "drive to the next intersection", "drive and turn", "drive and stop"
// and friends. Each fragment holds its parameters and builds a fresh tree on every
// CreateTree call, ready to be placed under a caller-owned scenario tree.
//
// Fragments only compose atomic behaviours; they implement no retry, timeout or
// recovery of their own. Failures surface when the tree is ticked.
package fragments

import (
	"github.com/joeycumines/scenario-fragments/internal/btx"
)

// DefaultBrake is the brake amount used by DriveAndSharpStop.
const DefaultBrake = 1.0

// Fragment builds a behaviour tree.
type Fragment interface {
	Name() string
	CreateTree() (*btx.Behaviour, error)
}

var (
	_ Fragment = (*DriveToNextIntersection)(nil)
	_ Fragment = (*DriveAndTurnAtNextIntersection)(nil)
	_ Fragment = (*DriveAndSharpStop)(nil)
	_ Fragment = (*DriveAndSlowDown)(nil)
	_ Fragment = (*DriveAndTurnTwice)(nil)
	_ Fragment = (*PlannedStopAtIntersection)(nil)
)
