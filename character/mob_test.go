package character

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/prefabs"
	"github.com/stretchr/testify/require"
)

func TestParseActionKind(t *testing.T) {
	for kind, name := range actionNames {
		got, err := ParseActionKind(" " + name + " ")
		require.NoError(t, err)
		require.Equal(t, kind, got)
	}
	_, err := ParseActionKind("fly")
	require.ErrorIs(t, err, ErrUnknownAction)

	_, err = NewMobBehavior(prefabs.BehaviorSpec{Actions: []prefabs.ActionSpec{{Kind: "fly"}}}, 1, nil)
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestSelectorHonorsValidity(t *testing.T) {
	h := newTestHost(t)
	b, err := NewMobBehavior(prefabs.BehaviorSpec{
		IntervalMs: 100,
		Actions: []prefabs.ActionSpec{
			{Kind: "jump", Weight: 5},
			{Kind: "attack", Weight: 5},
			{Kind: "move_left", Weight: 1},
		},
	}, 7, nil)
	require.NoError(t, err)
	c := newTestController(t, h, Mob, b)
	c.State().Jumping = true

	for i := 0; i < 50; i++ {
		b.current = -1
		b.choose(c)
		require.Equal(t, ActionMoveLeft, b.Current().Kind, "airborne mobs can only walk")
	}
}

func TestAttackBlocksMovement(t *testing.T) {
	h := newTestHost(t)
	b, err := NewMobBehavior(prefabs.BehaviorSpec{
		IntervalMs: 100,
		Actions: []prefabs.ActionSpec{
			{Kind: "attack", Weight: 1, DurationMs: 500},
			{Kind: "move_right", Weight: 1},
			{Kind: "stand", Weight: 1},
		},
	}, 3, nil)
	require.NoError(t, err)
	c := newTestController(t, h, Mob, b)
	fh, _ := h.graph.Get(0)
	c.Feet().Committed = fh

	require.True(t, b.start(c, ActionAttack, 0))
	require.True(t, b.Attacking())
	require.False(t, canMove(c, b))
	for i := 0; i < 20; i++ {
		b.current = -1
		b.choose(c)
		require.Equal(t, ActionStand, b.Current().Kind)
	}

	b.Next(c, 500)
	require.False(t, b.Attacking())
}

func TestRepeatsBeforeRechoosing(t *testing.T) {
	h := newTestHost(t)
	b, err := NewMobBehavior(prefabs.BehaviorSpec{
		IntervalMs: 100,
		Actions:    []prefabs.ActionSpec{{Kind: "move_left", Weight: 1, MinRepeat: 3, MaxRepeat: 3}},
	}, 1, nil)
	require.NoError(t, err)
	c := newTestController(t, h, Mob, b)

	keys := b.Next(c, 16)
	require.True(t, keys.Left)
	require.Equal(t, 2, b.repeats)
	b.Next(c, 100)
	require.Equal(t, 1, b.repeats)
}

func TestJumpActionPressesOnce(t *testing.T) {
	h := newTestHost(t)
	b, err := NewMobBehavior(prefabs.BehaviorSpec{
		IntervalMs: 1000,
		Actions:    []prefabs.ActionSpec{{Kind: "jump", Weight: 1}},
	}, 1, nil)
	require.NoError(t, err)
	c := newTestController(t, h, Mob, b)
	fh, _ := h.graph.Get(0)
	c.Feet().Committed = fh

	require.True(t, b.Next(c, 16).Jump)
	require.False(t, b.Next(c, 16).Jump)
}

func TestRegionConfinesMob(t *testing.T) {
	h := newTestHost(t)
	b, err := NewMobBehavior(prefabs.BehaviorSpec{
		IntervalMs: 1000,
		Region:     &prefabs.RegionSpec{MinX: 150, MaxX: 300},
		Actions: []prefabs.ActionSpec{
			{Kind: "move_left", Weight: 1},
			{Kind: "move_right", Weight: 1},
		},
	}, 1, nil)
	require.NoError(t, err)
	c := newTestController(t, h, Mob, b)

	keys := b.Next(c, 16)
	require.True(t, keys.Right)
	require.False(t, keys.Left)
	require.Equal(t, ActionMoveRight, b.Current().Kind)
	require.Len(t, h.after, 1)

	h.after[0]()
	require.InDelta(t, 150, c.Position().X, 1e-9)
	require.Equal(t, 1, c.State().Facing)

	_, err = NewMobBehavior(prefabs.BehaviorSpec{Region: &prefabs.RegionSpec{MinX: 2, MaxX: 1}}, 1, nil)
	require.Error(t, err)
}

func TestScriptOverridesSelector(t *testing.T) {
	h := newTestHost(t)
	src := []byte(`
choose := func(engine, state) {
	pos := engine.get_position()
	if pos[0] < 200 && engine.can("move_right") {
		return "move_right"
	}
	return ""
}
`)
	script, err := CompileScript("inline", src)
	require.NoError(t, err)

	b, err := NewMobBehavior(prefabs.BehaviorSpec{
		IntervalMs: 100,
		Actions: []prefabs.ActionSpec{
			{Kind: "stand", Weight: 100},
			{Kind: "move_right", Weight: 1},
		},
	}, 1, nil)
	require.NoError(t, err)
	b.script = script
	c := newTestController(t, h, Mob, b)

	require.True(t, b.Next(c, 16).Right)

	c.Teleport(cp.Vector{X: 250}, cp.Vector{})
	kind, ok, err := script.Choose(c, b)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, ActionStand, kind)
}

func TestScriptErrors(t *testing.T) {
	_, err := CompileScript("empty", []byte(`x := 1`))
	require.Error(t, err)

	_, err = CompileScript("broken", []byte(`choose := func(`))
	require.Error(t, err)

	script, err := CompileScript("bad", []byte(`choose := func(engine, state) { return "teleport" }`))
	require.NoError(t, err)
	h := newTestHost(t)
	b, err := NewMobBehavior(prefabs.BehaviorSpec{}, 1, nil)
	require.NoError(t, err)
	c := newTestController(t, h, Mob, b)
	_, ok, err := script.Choose(c, b)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestPatrolScriptLoads(t *testing.T) {
	script, err := LoadScript("patrol.tengo")
	require.NoError(t, err)
	require.Equal(t, "patrol.tengo", script.Name())
}
