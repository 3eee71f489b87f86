package condition

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/scenario-fragments/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActor struct {
	sim.Actor
	transform sim.Transform
	speed     float64
}

func (a *fakeActor) ID() uuid.UUID            { return uuid.Nil }
func (a *fakeActor) IsAlive() bool            { return true }
func (a *fakeActor) Transform() sim.Transform { return a.transform }
func (a *fakeActor) Speed() float64           { return a.speed }

type fixedClock time.Duration

func (c fixedClock) Elapsed() time.Duration { return time.Duration(c) }

func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{"": ModeExpr, "expr": ModeExpr, "CEL": ModeCEL} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("javascript")
	require.Error(t, err)
}

func TestEnvFor(t *testing.T) {
	t.Parallel()

	a := &fakeActor{
		transform: sim.Transform{Location: sim.Location{X: 3, Y: 4}, Rotation: sim.Rotation{Yaw: 90}},
		speed:     7,
	}
	env := EnvFor(a, fixedClock(1500*time.Millisecond), nil)
	assert.Equal(t, Env{Speed: 7, X: 3, Y: 4, Yaw: 90, Elapsed: 1.5, Alive: true, Vars: map[string]any{}}, env)

	env = EnvFor(a, nil, map[string]any{"stage": 2})
	assert.Zero(t, env.Elapsed)
	assert.Equal(t, 2, env.Vars["stage"])
}

func TestCompile_Modes(t *testing.T) {
	t.Parallel()

	env := Env{Speed: 0.2, X: 150, Elapsed: 12, Alive: true, Vars: map[string]any{"phase": "stop"}}

	tests := []struct {
		name string
		mode Mode
		src  string
		want bool
	}{
		{"expr stopped", ModeExpr, "speed < 0.5", true},
		{"expr compound", ModeExpr, "alive && x > 100 && elapsed >= 12", true},
		{"expr vars", ModeExpr, `vars.phase == "stop"`, true},
		{"expr false", ModeExpr, "speed > 1", false},
		{"cel stopped", ModeCEL, "speed < 0.5", true},
		{"cel compound", ModeCEL, "alive && x > 100.0 && elapsed >= 12.0", true},
		{"cel vars", ModeCEL, `vars.phase == "stop"`, true},
		{"cel false", ModeCEL, "speed > 1.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := Compile(tt.mode, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, c.Mode())
			assert.Equal(t, tt.src, c.Source())
			got, err := c.Eval(env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	_, err := Compile(ModeExpr, "  ")
	require.Error(t, err)

	_, err = Compile(ModeExpr, "speed +")
	require.Error(t, err)

	_, err = Compile(ModeExpr, "speed * 2")
	require.Error(t, err, "non-boolean expressions are rejected at compile time")

	_, err = Compile(ModeCEL, "speed * 2.0")
	require.ErrorIs(t, err, ErrNonBoolean)

	_, err = Compile(ModeCEL, "unknown_var > 1")
	require.Error(t, err)

	_, err = Compile(Mode(9), "true")
	require.Error(t, err)
}

func TestCompile_CELDynamicNonBoolean(t *testing.T) {
	t.Parallel()

	c, err := Compile(ModeCEL, `vars.phase`)
	require.NoError(t, err)
	_, err = c.Eval(Env{Vars: map[string]any{"phase": "stop"}})
	require.ErrorIs(t, err, ErrNonBoolean)
}
