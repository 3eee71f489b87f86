package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMap(t *testing.T) *GridMap {
	t.Helper()
	m, err := NewGridMap(DefaultGridConfig())
	require.NoError(t, err)
	return m
}

func TestGridConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*GridConfig)
		wantErr bool
	}{
		{"default", func(*GridConfig) {}, false},
		{"no blocks", func(c *GridConfig) { c.Blocks = 0 }, true},
		{"no lanes", func(c *GridConfig) { c.Lanes = 0 }, true},
		{"zero lane width", func(c *GridConfig) { c.LaneWidth = 0 }, true},
		{"junctions overlap", func(c *GridConfig) { c.BlockSize = 20 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultGridConfig()
			tt.mutate(&cfg)
			_, err := NewGridMap(cfg)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGridMap_WaypointProjection(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	tests := []struct {
		name   string
		loc    Location
		want   Location
		yaw    float64
		laneID int
	}{
		{"inner lane heading +x", Location{X: 20, Y: 101}, Location{X: 20, Y: 101.75}, 0, 1},
		{"outer lane heading +x", Location{X: 20, Y: 105}, Location{X: 20, Y: 105.25}, 0, 2},
		{"inner lane heading -x", Location{X: 20, Y: 98}, Location{X: 20, Y: 98.25}, 180, -1},
		{"inner lane heading +y", Location{X: 198, Y: 40}, Location{X: 198.25, Y: 40}, 90, 1},
		{"inner lane heading -y", Location{X: 202, Y: 40}, Location{X: 201.75, Y: 40}, 270, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wp, err := m.Waypoint(tt.loc)
			require.NoError(t, err)
			tr := wp.Transform()
			assert.InDelta(t, tt.want.X, tr.Location.X, 1e-9)
			assert.InDelta(t, tt.want.Y, tr.Location.Y, 1e-9)
			assert.InDelta(t, tt.yaw, tr.Rotation.Yaw, 1e-9)
			assert.Equal(t, tt.laneID, wp.LaneID())
			assert.False(t, wp.IsJunction())
		})
	}
}

func TestGridMap_WaypointOffRoad(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	_, err := m.Waypoint(Location{X: 50, Y: 50})
	require.ErrorIs(t, err, ErrOffRoad)

	_, err = m.Waypoint(Location{X: -100, Y: 0})
	require.ErrorIs(t, err, ErrOffRoad)
}

func TestLaneWaypoint_NextStraight(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	wp, err := m.Waypoint(Location{X: 20, Y: 101.75})
	require.NoError(t, err)

	next := wp.Next(10)
	require.Len(t, next, 1)
	assert.InDelta(t, 30, next[0].Transform().Location.X, 1e-9)
	assert.InDelta(t, 101.75, next[0].Transform().Location.Y, 1e-9)
	assert.False(t, next[0].IsJunction())
}

func TestLaneWaypoint_NextBranchesAtJunction(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	wp, err := m.Waypoint(Location{X: 90, Y: 101.75})
	require.NoError(t, err)

	choices := wp.Next(5)
	require.Len(t, choices, 3, "straight, left and right")
	for _, c := range choices {
		assert.True(t, c.IsJunction())
	}

	// border road: no left turn off the map
	edge, err := m.Waypoint(Location{X: 90, Y: 1.75})
	require.NoError(t, err)
	require.Len(t, edge.Next(5), 2)
}

func TestConnector_RightTurnExitsOnCrossRoad(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	wp, err := m.Waypoint(Location{X: 90, Y: 101.75})
	require.NoError(t, err)

	choices := wp.Next(5)
	require.Len(t, choices, 3)
	cur := choices[2]
	for i := 0; i < 100 && cur.IsJunction(); i++ {
		next := cur.Next(1)
		require.NotEmpty(t, next)
		cur = next[0]
	}
	require.False(t, cur.IsJunction())

	tr := cur.Transform()
	assert.InDelta(t, 90, tr.Rotation.Yaw, 1e-9)
	assert.InDelta(t, 98.25, tr.Location.X, 1e-9)
	assert.Greater(t, tr.Location.Y, 101.75)
}

func TestLaneWaypoint_EndOfMap(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	// heading -x on road 1, inside the border junction
	wp, err := m.Waypoint(Location{X: 3, Y: 98.25})
	require.NoError(t, err)
	assert.True(t, wp.IsJunction())
	assert.Empty(t, wp.Next(5))
}

func TestLaneWaypoint_Lane(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	wp, err := m.Waypoint(Location{X: 20, Y: 101.75})
	require.NoError(t, err)

	_, ok := wp.Lane(true)
	assert.False(t, ok, "no lane left of the inner lane")

	right, ok := wp.Lane(false)
	require.True(t, ok)
	assert.InDelta(t, 105.25, right.Transform().Location.Y, 1e-9)
	assert.Equal(t, wp.RoadID(), right.RoadID())
}
