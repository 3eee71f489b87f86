package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/atomic"
	"github.com/joeycumines/scenario-fragments/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *scenario.Result {
	return &scenario.Result{
		ID:       uuid.MustParse("8d3b5a3e-6a53-4f0b-9b7e-2f7c1a0d9e11"),
		Scenario: "sharp-stop",
		Status:   bt.Success,
		Success:  true,
		Ticks:    212,
		Elapsed:  10550 * time.Millisecond,
		Wall:     3 * time.Millisecond,
		Criteria: []scenario.CriterionResult{
			{Name: "CollisionTest ego", Actor: "ego", Outcome: atomic.OutcomeSuccess},
		},
	}
}

func TestFromResult(t *testing.T) {
	t.Parallel()
	r := FromResult(testResult(), nil)

	assert.Equal(t, "8d3b5a3e-6a53-4f0b-9b7e-2f7c1a0d9e11", r.ID)
	assert.Equal(t, "sharp-stop", r.Scenario)
	assert.Equal(t, "SUCCESS", r.Status)
	assert.True(t, r.Success)
	assert.Equal(t, 212, r.Ticks)
	assert.EqualValues(t, 10550, r.ElapsedMS)
	assert.EqualValues(t, 3, r.WallMS)
	assert.Equal(t, []Criterion{{Name: "CollisionTest ego", Actor: "ego", Outcome: "SUCCESS"}}, r.Criteria)
	assert.Empty(t, r.Error)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestFromResult_Errors(t *testing.T) {
	t.Parallel()

	res := testResult()
	res.Status = bt.Failure
	res.Err = errors.New("WaypointFollower: sim: actor destroyed")
	assert.Equal(t, "FAILURE", FromResult(res, nil).Status)
	assert.Equal(t, "WaypointFollower: sim: actor destroyed", FromResult(res, nil).Error)

	res.Status = bt.Running
	r := FromResult(res, scenario.ErrMaxTicks)
	assert.Equal(t, "RUNNING", r.Status)
	assert.Equal(t, scenario.ErrMaxTicks.Error(), r.Error)
}

func TestJSONSink(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	sink := NewJSONSink(&buf, true)

	require.NoError(t, sink.Write(context.Background(), FromResult(testResult(), nil)))
	assert.Contains(t, buf.String(), "\n  \"scenario\": \"sharp-stop\"")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "SUCCESS", got["status"])
	assert.NotContains(t, got, "error")
}

type failingSink struct{ err error }

func (f failingSink) Write(context.Context, Report) error { return f.err }

func TestMulti(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	boom := errors.New("boom")

	err := Multi(failingSink{boom}, NewJSONSink(&buf, false)).Write(context.Background(), FromResult(testResult(), nil))
	require.ErrorIs(t, err, boom)
	assert.NotEmpty(t, buf.String(), "later sinks still written")

	require.NoError(t, Multi().Write(context.Background(), Report{}))
}
