package fragments

import (
	"testing"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/sim"
	"github.com/joeycumines/scenario-fragments/internal/testutil"
	"github.com/stretchr/testify/require"
)

const testStep = testutil.Step

func newTestWorld(t *testing.T) *sim.World { return testutil.NewWorld(t) }

func spawn(t *testing.T, w *sim.World, x, y, yaw float64) *sim.Vehicle {
	t.Helper()
	return testutil.Spawn(t, w, x, y, yaw)
}

func createTree(t *testing.T, f Fragment) *btx.Behaviour {
	t.Helper()
	b, err := f.CreateTree()
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

// run drives b to completion, requiring that it finishes without error.
func run(t *testing.T, w *sim.World, b *btx.Behaviour, maxTicks int) bt.Status {
	t.Helper()
	status, err := testutil.RunTree(t, w, b, maxTicks)
	require.NoError(t, err)
	return status
}
