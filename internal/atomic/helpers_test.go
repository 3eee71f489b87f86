package atomic

import (
	"testing"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/sim"
	"github.com/joeycumines/scenario-fragments/internal/testutil"
)

const testStep = testutil.Step

func newTestWorld(t *testing.T) *sim.World { return testutil.NewWorld(t) }

func spawn(t *testing.T, w *sim.World, x, y, yaw float64) *sim.Vehicle {
	t.Helper()
	return testutil.Spawn(t, w, x, y, yaw)
}

func runUntilDone(t *testing.T, w *sim.World, b *btx.Behaviour, maxTicks int) (bt.Status, error) {
	t.Helper()
	return testutil.RunTree(t, w, b, maxTicks)
}
