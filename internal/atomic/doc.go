// Package atomic provides the leaf behaviours scenarios are assembled from: actor
// commands (KeepVelocity, StopVehicle, WaypointFollower, ...), trigger conditions
// that succeed once something has happened (InTriggerDistanceToNextIntersection,
// DriveDistance, ...), criteria that observe a run without ending it
// (CollisionTest), and the scenario TimeOut.
//
// Every constructor returns a *btx.Behaviour. The leaf logic is reachable through
// Behaviour.Leaf for inspection.
//
// Commands issued to an actor last a single simulation step, so behaviours that
// drive an actor re-issue their command on every tick while running.
package atomic
