package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld_TargetVelocityMovesVehicle(t *testing.T) {
	t.Parallel()
	w := NewWorld(newTestMap(t))

	v, err := w.SpawnVehicle("vehicle.test", Transform{Location: Location{X: 10, Y: 101.75}})
	require.NoError(t, err)

	require.NoError(t, v.SetTargetVelocity(Vector3D{X: 10}))
	w.Tick(100 * time.Millisecond)

	assert.InDelta(t, 11, v.Transform().Location.X, 1e-9)
	assert.InDelta(t, 10, v.Speed(), 1e-9)
	assert.Equal(t, 100*time.Millisecond, w.Elapsed())
	assert.EqualValues(t, 1, w.Ticks())

	// no new command: coasts
	w.Tick(100 * time.Millisecond)
	assert.InDelta(t, 12, v.Transform().Location.X, 1e-9)
}

func TestWorld_BrakeDecelerates(t *testing.T) {
	t.Parallel()
	w := NewWorld(newTestMap(t))

	v, err := w.SpawnVehicle("vehicle.test", Transform{Location: Location{X: 10, Y: 101.75}})
	require.NoError(t, err)
	require.NoError(t, v.SetTargetVelocity(Vector3D{X: 4}))
	w.Tick(100 * time.Millisecond)

	require.NoError(t, v.ApplyBrake(1))
	w.Tick(250 * time.Millisecond)
	assert.InDelta(t, 2, v.Speed(), 1e-9)

	require.NoError(t, v.ApplyBrake(1))
	w.Tick(time.Second)
	assert.Zero(t, v.Speed())
}

func TestWorld_YawFollowsVelocity(t *testing.T) {
	t.Parallel()
	w := NewWorld(newTestMap(t))

	v, err := w.SpawnVehicle("vehicle.test", Transform{Location: Location{X: 198.25, Y: 20}})
	require.NoError(t, err)
	require.NoError(t, v.SetTargetVelocity(Vector3D{Y: 5}))
	w.Tick(50 * time.Millisecond)
	assert.InDelta(t, 90, v.Transform().Rotation.Yaw, 1e-9)
}

func TestWorld_CollisionEvents(t *testing.T) {
	t.Parallel()
	w := NewWorld(newTestMap(t))

	a, err := w.SpawnVehicle("vehicle.a", Transform{Location: Location{X: 10, Y: 101.75}})
	require.NoError(t, err)
	b, err := w.SpawnVehicle("vehicle.b", Transform{Location: Location{X: 15, Y: 101.75}})
	require.NoError(t, err)

	var got []CollisionEvent
	cancel := w.SubscribeCollisions(a, func(ev CollisionEvent) { got = append(got, ev) })

	require.NoError(t, a.SetTargetVelocity(Vector3D{X: 10}))
	w.Tick(300 * time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID(), got[0].Other.ID())

	// still touching: no new event
	w.Tick(10 * time.Millisecond)
	require.Len(t, got, 1)

	cancel()
	require.NoError(t, a.SetTransform(Transform{Location: Location{X: 10, Y: 101.75}}))
	w.Tick(10 * time.Millisecond)
	require.NoError(t, a.SetTransform(Transform{Location: Location{X: 15, Y: 101.75}}))
	w.Tick(10 * time.Millisecond)
	assert.Len(t, got, 1)
}

func TestWorld_SpawnBlocked(t *testing.T) {
	t.Parallel()
	w := NewWorld(newTestMap(t))

	_, err := w.SpawnVehicle("vehicle.a", Transform{Location: Location{X: 10, Y: 101.75}})
	require.NoError(t, err)
	_, err = w.SpawnVehicle("vehicle.b", Transform{Location: Location{X: 11, Y: 101.75}})
	require.Error(t, err)
}

func TestVehicle_Destroy(t *testing.T) {
	t.Parallel()
	w := NewWorld(newTestMap(t))

	v, err := w.SpawnVehicle("vehicle.test", Transform{})
	require.NoError(t, err)
	require.Len(t, w.Actors(), 1)

	require.NoError(t, v.Destroy())
	assert.False(t, v.IsAlive())
	assert.Empty(t, w.Actors())
	assert.ErrorIs(t, v.Destroy(), ErrActorDestroyed)
	assert.ErrorIs(t, v.SetTargetVelocity(Vector3D{X: 1}), ErrActorDestroyed)
	assert.ErrorIs(t, v.ApplyBrake(1), ErrActorDestroyed)
}
