package btx

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackboard(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	require.Nil(t, bb.Get("missing"))
	require.Nil(t, bb.Snapshot())

	bb.Set("near_intersection", true)
	bb.Set("speed", 4.5)
	require.Equal(t, true, bb.Get("near_intersection"))

	v, ok := bb.Lookup("speed")
	require.True(t, ok)
	require.Equal(t, 4.5, v)

	bb.Set("speed", nil)
	v, ok = bb.Lookup("speed")
	require.True(t, ok, "nil is still a value")
	require.Nil(t, v)

	snap := bb.Snapshot()
	snap["extra"] = 1
	_, ok = bb.Lookup("extra")
	require.False(t, ok, "snapshot is a copy")
}

func TestBlackboard_Concurrent(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for j := range 100 {
				key := fmt.Sprintf("k%d-%d", i, j)
				bb.Set(key, j)
				assert.Equal(t, j, bb.Get(key))
				_ = bb.Snapshot()
			}
		})
	}
	wg.Wait()
	require.Len(t, bb.Snapshot(), 800)
}
