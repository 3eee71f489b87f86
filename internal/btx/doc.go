// Package btx layers named, inspectable behaviours over go-behaviortree.
//
// go-behaviortree nodes are opaque closures, which makes it impossible to ask a
// composed tree what it is made of. A Behaviour keeps the name, kind, policy and
// children alongside the bt.Node it produces, so factories can be verified
// structurally and trees can be rendered for humans.
//
// Composites:
//
//   - Sequence: memorized, a succeeded child is not re-ticked until the sequence
//     resolves.
//   - Parallel: every unfinished child is ticked within the same tick. SuccessOnOne
//     resolves on the first success, SuccessOnAll once every child succeeded. Any
//     failure fails the parallel. Children still running are stopped.
//
// Leaves implement Leaf, and optionally Initialiser and Terminator, giving them the
// initialise / update / terminate lifecycle of a classic behaviour tree.
package btx
