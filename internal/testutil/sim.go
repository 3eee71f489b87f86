package testutil

import (
	"testing"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/btx"
	"github.com/joeycumines/scenario-fragments/internal/sim"
	"github.com/stretchr/testify/require"
)

// Step is the simulation step used by tree-driving helpers.
const Step = 50 * time.Millisecond

// NewGridMap builds the default grid map.
func NewGridMap(t testing.TB) *sim.GridMap {
	t.Helper()
	m, err := sim.NewGridMap(sim.DefaultGridConfig())
	require.NoError(t, err)
	return m
}

// NewWorld builds an empty world over the default grid map.
func NewWorld(t testing.TB) *sim.World {
	t.Helper()
	return sim.NewWorld(NewGridMap(t))
}

// Spawn places a test vehicle at (x, y) facing yaw degrees.
func Spawn(t testing.TB, w *sim.World, x, y, yaw float64) *sim.Vehicle {
	t.Helper()
	v, err := w.SpawnVehicle("vehicle.test", sim.Transform{
		Location: sim.Location{X: x, Y: y},
		Rotation: sim.Rotation{Yaw: yaw},
	})
	require.NoError(t, err)
	return v
}

// RunTree alternates tree and world ticks until b stops running, failing the test
// if it is still running after maxTicks.
func RunTree(t testing.TB, w *sim.World, b *btx.Behaviour, maxTicks int) (bt.Status, error) {
	t.Helper()
	for range maxTicks {
		status, err := b.Tick()
		if status != bt.Running {
			return status, err
		}
		w.Tick(Step)
	}
	t.Fatalf("%s still running after %d ticks", b.Name(), maxTicks)
	return bt.Running, nil
}
