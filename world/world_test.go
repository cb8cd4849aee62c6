package world

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/character"
	"github.com/milk9111/footsim/levels"
	"github.com/milk9111/footsim/motion"
	"github.com/milk9111/footsim/netsync"
	"github.com/milk9111/footsim/physics"
	"github.com/milk9111/footsim/prefabs"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func seg(id int, x1, y1, x2, y2 float64, prev, next int) levels.Foothold {
	return levels.Foothold{ID: id, X1: x1, Y1: y1, X2: x2, Y2: y2, Prev: prev, Next: next}
}

func testLevel(fhs ...levels.Foothold) *levels.Level {
	return &levels.Level{
		Name:   "test",
		Layers: []levels.Layer{{Groups: []levels.Group{{Footholds: fhs}}}},
	}
}

func newWorld(t *testing.T, lvl *levels.Level) *World {
	t.Helper()
	w := New(nil, nil)
	require.NoError(t, w.LoadLevel(lvl))
	return w
}

func spawn(t *testing.T, w *World, x, y float64) *character.Controller {
	t.Helper()
	c, err := w.Spawn(SpawnOptions{Kind: character.LocalPlayer, Name: "p", Position: cp.Vector{X: x, Y: y}})
	require.NoError(t, err)
	return c
}

// settle steps until c stands on a foothold, then until the solver has
// finished pushing it out of the surface.
func settle(t *testing.T, w *World, c *character.Controller, max int) {
	t.Helper()
	landed := false
	for i := 0; i < max && !landed; i++ {
		w.Step()
		landed = c.Grounded()
	}
	require.True(t, landed, "character never landed at %v", c.Position())

	prev := c.Position().Y
	for i := 0; i < 90; i++ {
		w.Step()
		y := c.Position().Y
		if c.Grounded() && math.Abs(y-prev) < 0.05 {
			return
		}
		prev = y
	}
	require.FailNow(t, "character never came to rest", "position %v", c.Position())
}

type contactMode struct {
	name  string
	ghost bool
}

var contactModes = []contactMode{{"plain", false}, {"ghost", true}}

func newWorldIn(t *testing.T, m contactMode, lvl *levels.Level) *World {
	t.Helper()
	ctx := physics.DefaultContext()
	ctx.GhostVertices = m.ghost
	w := New(ctx, nil)
	require.NoError(t, w.LoadLevel(lvl))
	return w
}

func TestStandsOnFloor(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	c := spawn(t, w, 0, -1)

	settle(t, w, c, 60)
	require.Equal(t, 0, c.Feet().CommittedID())
	require.InDelta(t, 0, c.Position().Y, 2)

	for i := 0; i < 60; i++ {
		w.Step()
		require.True(t, c.Grounded(), "step %d", i)
	}
	require.Zero(t, w.Faults())
}

func TestWalkAcrossSeam(t *testing.T) {
	for _, m := range contactModes {
		t.Run(m.name, func(t *testing.T) {
			w := newWorldIn(t, m, testLevel(
				seg(1, -300, 0, 0, 0, 0, 2),
				seg(2, 0, 0, 300, 0, 1, 0),
			))
			c := spawn(t, w, -100, -1)
			settle(t, w, c, 60)

			c.SetKeys(motion.Keys{Right: true})
			crossed := false
			for i := 0; i < 240; i++ {
				w.Step()
				require.False(t, c.State().Jumping, "airborne at x=%.2f", c.Position().X)
				require.NotNil(t, c.Feet().Committed, "no foothold at x=%.2f", c.Position().X)
				if c.Position().X > 60 {
					crossed = true
					break
				}
			}
			require.True(t, crossed)
			require.Equal(t, 1, c.Feet().CommittedID())
			require.True(t, c.State().Walking)
			require.InDelta(t, c.Tuning().WalkSpeed, c.Velocity().X, c.Tuning().WalkSpeed*0.2)
		})
	}
}

func TestWalkOffEdge(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -100, 0, 100, 0, 0, 0)))
	c := spawn(t, w, 0, -1)
	settle(t, w, c, 60)

	c.SetKeys(motion.Keys{Right: true})
	fell := false
	for i := 0; i < 240; i++ {
		w.Step()
		if c.Feet().Committed == nil {
			fell = true
			break
		}
	}
	require.True(t, fell)
	require.Greater(t, c.Position().X, 80.0)
	require.True(t, c.State().Jumping)

	for i := 0; i < 30; i++ {
		w.Step()
	}
	require.Greater(t, c.Position().Y, 10.0)
	require.Nil(t, c.Feet().Committed)
}

func TestJumpAndLand(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	c := spawn(t, w, 0, -1)
	settle(t, w, c, 60)

	c.SetKeys(motion.Keys{Jump: true})
	w.Step()
	require.True(t, c.State().Jumping)
	require.Equal(t, 1, c.State().JumpCount)
	require.Nil(t, c.Feet().Committed)

	c.SetKeys(motion.Keys{})
	peak := 0.0
	landed := false
	for i := 0; i < 120; i++ {
		w.Step()
		peak = min(peak, c.Position().Y)
		if c.Grounded() {
			landed = true
			break
		}
	}
	require.True(t, landed)
	require.Less(t, peak, -50.0)
	require.Zero(t, c.State().JumpCount)
	require.Equal(t, 0, c.Feet().CommittedID())
}

func TestAirJumps(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	spec := &prefabs.CharacterSpec{MaxJumps: 2}
	c, err := w.Spawn(SpawnOptions{Kind: character.LocalPlayer, Position: cp.Vector{Y: -1}, Spec: spec})
	require.NoError(t, err)
	settle(t, w, c, 60)

	press := func() {
		c.SetKeys(motion.Keys{Jump: true})
		w.Step()
		c.SetKeys(motion.Keys{})
		for i := 0; i < 5; i++ {
			w.Step()
		}
	}
	press()
	require.Equal(t, 1, c.State().JumpCount)
	press()
	require.Equal(t, 2, c.State().JumpCount)
	require.Less(t, c.Velocity().Y, 0.0)
	press()
	require.Equal(t, 2, c.State().JumpCount)
}

func TestDropThrough(t *testing.T) {
	w := newWorld(t, testLevel(
		seg(1, -200, 0, 200, 0, 0, 0),
		seg(2, -200, 100, 200, 100, 0, 0),
	))
	c := spawn(t, w, 0, -1)
	settle(t, w, c, 60)
	require.Equal(t, 0, c.Feet().CommittedID())

	c.SetKeys(motion.Keys{Down: true, Jump: true})
	w.Step()
	require.True(t, c.State().Dropping)
	require.NotNil(t, c.Feet().Leaving)
	require.Equal(t, 0, c.Feet().Leaving.ID)
	require.Nil(t, c.Feet().Committed)

	c.SetKeys(motion.Keys{})
	settle(t, w, c, 120)
	require.Equal(t, 1, c.Feet().CommittedID())
	require.False(t, c.State().Dropping)
	require.Nil(t, c.Feet().Leaving)
	require.InDelta(t, 100, c.Position().Y, 2)
}

func TestDropWithoutFootholdBelow(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -200, 0, 200, 0, 0, 0)))
	c := spawn(t, w, 0, -1)
	settle(t, w, c, 60)

	c.SetKeys(motion.Keys{Down: true, Jump: true})
	w.Step()
	require.True(t, c.State().Dropping)
	require.NotNil(t, c.Feet().Leaving)
	require.Equal(t, 0, c.Feet().Leaving.ID)
	require.Nil(t, c.Feet().Committed)

	c.SetKeys(motion.Keys{})
	for i := 0; i < 30; i++ {
		w.Step()
		require.Nil(t, c.Feet().Committed, "step %d", i)
	}
	require.Greater(t, c.Position().Y, 20.0)
	require.True(t, c.State().Dropping)
}

func TestPassThroughFromBelow(t *testing.T) {
	w := newWorld(t, testLevel(
		seg(1, -200, 100, 200, 100, 0, 0),
		seg(2, -200, 50, 200, 50, 0, 0),
	))
	c := spawn(t, w, 0, 99)
	settle(t, w, c, 60)
	require.Equal(t, 0, c.Feet().CommittedID())

	c.SetKeys(motion.Keys{Jump: true})
	w.Step()
	c.SetKeys(motion.Keys{})

	settle(t, w, c, 150)
	require.Equal(t, 1, c.Feet().CommittedID())
	require.InDelta(t, 50, c.Position().Y, 2)
}

func TestLadderClimb(t *testing.T) {
	lvl := testLevel(
		seg(1, -300, 0, 300, 0, 0, 0),
		seg(2, -40, -150, 40, -150, 0, 0),
	)
	lvl.Ladders = []levels.Ladder{{ID: 1, IsLadder: true, X: 0, Y1: -150, Y2: 0}}
	w := newWorld(t, lvl)
	require.Len(t, w.Zones(), 1)

	c := spawn(t, w, 5, -1)
	settle(t, w, c, 60)

	c.SetKeys(motion.Keys{Up: true})
	w.Step()
	require.True(t, c.State().LadderEngaged)
	require.InDelta(t, 0, c.Position().X, 1)
	require.NotNil(t, c.Climber().Joint())

	for i := 0; i < 30; i++ {
		w.Step()
		require.True(t, c.State().LadderEngaged)
		require.False(t, c.State().Jumping)
		require.Nil(t, c.Feet().Committed)
	}
	require.Less(t, c.Position().Y, -20.0)
	require.InDelta(t, 0, c.Position().X, 1)

	for i := 0; i < 300 && c.State().LadderEngaged; i++ {
		w.Step()
	}
	require.False(t, c.State().LadderEngaged)
	require.Nil(t, c.Climber().Joint())

	c.SetKeys(motion.Keys{})
	settle(t, w, c, 120)
	require.Equal(t, 1, c.Feet().CommittedID())
	require.InDelta(t, -150, c.Position().Y, 2)
	require.Zero(t, w.Faults())
}

func TestBulletKnocksBack(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	c := spawn(t, w, 0, -1)
	settle(t, w, c, 60)

	_, err := w.SpawnBullet(BulletOptions{
		Position: cp.Vector{X: -100, Y: -15},
		Velocity: cp.Vector{X: 600},
	})
	require.NoError(t, err)
	require.Equal(t, 1, w.Bullets())

	hit := false
	for i := 0; i < 60; i++ {
		w.Step()
		if c.State().InKnockback() {
			hit = true
			break
		}
	}
	require.True(t, hit)
	require.Zero(t, w.Bullets())
	require.True(t, c.State().Invincible())
	require.True(t, c.State().OutOfControl)
	require.Greater(t, c.Velocity().X, 0.0)
}

func TestBulletExpires(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	before := len(w.Entities())
	_, err := w.SpawnBullet(BulletOptions{Position: cp.Vector{Y: -500}, LifeMs: 50})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		w.Step()
	}
	require.Zero(t, w.Bullets())
	require.Len(t, w.Entities(), before)
}

func TestBulletStopsAtWalls(t *testing.T) {
	w := newWorld(t, testLevel(
		seg(1, -300, 0, 100, 0, 0, 2),
		seg(2, 100, 0, 100, -200, 1, 0),
	))
	_, err := w.SpawnBullet(BulletOptions{Position: cp.Vector{X: 0, Y: -50}, Velocity: cp.Vector{X: 600}})
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		w.Step()
	}
	require.Zero(t, w.Bullets())
}

func TestMobStaysInRegion(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -400, 0, 400, 0, 0, 0)))
	c, err := w.Spawn(SpawnOptions{
		Kind:     character.Mob,
		Name:     "walker",
		Position: cp.Vector{Y: -1},
		Behavior: &prefabs.BehaviorSpec{
			IntervalMs: 200,
			Actions:    []prefabs.ActionSpec{{Kind: "move_left", Weight: 1}},
			Region:     &prefabs.RegionSpec{MinX: -60, MaxX: 60},
		},
	})
	require.NoError(t, err)

	for i := 0; i < 400; i++ {
		w.Step()
		require.GreaterOrEqual(t, c.Position().X, -80.0, "step %d", i)
		require.LessOrEqual(t, c.Position().X, 80.0, "step %d", i)
	}
	require.Zero(t, w.Faults())
}

func TestRemoteMoveTo(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	local := spawn(t, w, 0, -1)
	remote, err := w.Spawn(SpawnOptions{Kind: character.RemotePlayer, Position: cp.Vector{X: 200, Y: -100}})
	require.NoError(t, err)
	settle(t, w, local, 60)

	rec := netsync.FromSnapshot(local.ID.Key(), w.Frame(), local.Snapshot())
	require.NoError(t, w.MoveTo(remote.ID, rec))
	require.InDelta(t, local.Position().X, remote.Position().X, 0.01)
	require.InDelta(t, local.Position().Y, remote.Position().Y, 0.01)
	require.Equal(t, 0, remote.Feet().CommittedID())
	require.False(t, remote.State().Jumping)

	w.Step()
	require.True(t, remote.Grounded())
}

func TestRemoteMoveToClearsLeaving(t *testing.T) {
	w := newWorld(t, testLevel(
		seg(1, -300, 0, 300, 0, 0, 0),
		seg(2, -300, 100, 300, 100, 0, 0),
	))
	local := spawn(t, w, 0, -1)
	remote, err := w.Spawn(SpawnOptions{Kind: character.RemotePlayer, Position: cp.Vector{X: 0, Y: 99}})
	require.NoError(t, err)
	settle(t, w, local, 60)

	remote.Feet().Leaving = local.Feet().Committed
	remote.State().Dropping = true

	rec := netsync.FromSnapshot(local.ID.Key(), w.Frame(), local.Snapshot())
	require.False(t, rec.Snapshot().State.Dropping)
	require.NoError(t, w.MoveTo(remote.ID, rec))
	require.Nil(t, remote.Feet().Leaving)
	require.False(t, remote.State().Dropping)

	for i := 0; i < 10; i++ {
		w.Step()
	}
	require.True(t, remote.Grounded())
	require.Equal(t, 0, remote.Feet().CommittedID())
	require.InDelta(t, 0, remote.Position().Y, 2)
}

func TestRecords(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	spawn(t, w, -100, -1)
	spawn(t, w, 100, -1)
	_, err := w.Spawn(SpawnOptions{Kind: character.RemotePlayer, Position: cp.Vector{Y: -1}})
	require.NoError(t, err)

	tr := netsync.NewTracker(0.5)
	require.Len(t, w.Records(tr), 2)
	require.Empty(t, w.Records(tr))
	require.Len(t, w.Snapshots(), 3)
}

func TestRemoveDuringStepIsDeferred(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	c := spawn(t, w, 0, -1)

	w.stepping = true
	require.NoError(t, w.Remove(c.ID))
	_, ok := w.Controller(c.ID)
	require.True(t, ok)
	require.True(t, w.space.ContainsBody(c.FootBody()))

	w.stepping = false
	destroySystem{}.Update(w)
	_, ok = w.Controller(c.ID)
	require.False(t, ok)
	require.False(t, w.space.ContainsBody(c.FootBody()))
	require.ErrorIs(t, w.Remove(c.ID), ErrUnknownEntity)
	require.Empty(t, w.Characters())
}

func TestRemoveWhileStanding(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	c := spawn(t, w, 0, -1)
	settle(t, w, c, 60)

	require.NoError(t, w.Remove(c.ID))
	require.Empty(t, w.Characters())
	w.Step()
	require.Zero(t, w.Faults())
}

func TestRefusedWhileStepping(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	w.stepping = true
	defer func() { w.stepping = false }()

	_, err := w.Spawn(SpawnOptions{})
	require.ErrorIs(t, err, ErrStepping)
	require.ErrorIs(t, w.LoadLevel(testLevel(seg(1, 0, 0, 10, 0, 0, 0))), ErrStepping)
	_, err = w.SpawnBullet(BulletOptions{})
	require.ErrorIs(t, err, ErrStepping)
	require.Panics(t, func() { w.Step() })
}

func TestConstraintRemovalWaitsForStep(t *testing.T) {
	w := New(nil, nil)
	a := w.space.AddBody(cp.NewBody(1, 1))
	b := w.space.AddBody(cp.NewBody(1, 1))
	joint := w.space.AddConstraint(cp.NewPivotJoint(a, b, cp.Vector{}))

	w.stepping = true
	w.RemoveConstraint(joint)
	require.True(t, w.space.ContainsConstraint(joint))

	w.stepping = false
	destroySystem{}.Update(w)
	require.False(t, w.space.ContainsConstraint(joint))
}

func TestAfterStepRunsInOrder(t *testing.T) {
	w := New(nil, nil)
	var got []int
	w.AfterStep(func() { got = append(got, 1) })
	w.AfterStep(func() {
		got = append(got, 2)
		w.AfterStep(func() { got = append(got, 3) })
	})
	w.AfterStep(nil)

	w.Step()
	require.Equal(t, []int{1, 2, 3}, got)
	require.EqualValues(t, 1, w.Frame())
}

func TestGuardRecoversFaults(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := New(nil, zap.New(core))

	repaired := false
	ok := w.guard("test", func() bool { panic("boom") }, func() { repaired = true })
	require.False(t, ok)
	require.True(t, repaired)
	require.Equal(t, 1, w.Faults())
	require.Equal(t, 1, logs.FilterMessage("simulation fault").Len())

	require.True(t, w.guard("test", func() bool { return true }, nil))
	require.Equal(t, 1, w.Faults())

	dev := New(nil, zap.New(core, zap.Development()))
	require.Panics(t, func() {
		dev.guard("test", func() bool { panic("boom") }, nil)
	})
}

func TestDrag(t *testing.T) {
	w := newWorld(t, testLevel(seg(1, -300, 0, 300, 0, 0, 0)))
	c := spawn(t, w, 0, -1)
	settle(t, w, c, 60)

	require.NoError(t, w.Drag(c.ID, cp.Vector{X: 0, Y: -150}))
	for i := 0; i < 60; i++ {
		w.Step()
	}
	require.Less(t, c.Position().Y, -50.0)
	require.False(t, c.Grounded())

	w.Release(c.ID)
	settle(t, w, c, 180)
	require.Equal(t, 0, c.Feet().CommittedID())
}

func TestSampleLevel(t *testing.T) {
	lvl, err := levels.LoadEmbedded("sample")
	require.NoError(t, err)
	w := newWorld(t, lvl)
	w.SetSeed(7)

	p, err := w.SpawnPlayer("start")
	require.NoError(t, err)
	mobs, err := w.SpawnMobs()
	require.NoError(t, err)
	require.Len(t, mobs, 2)

	settle(t, w, p, 60)
	require.Equal(t, 0, p.Feet().CommittedID())
	for i := 0; i < 300; i++ {
		w.Step()
	}
	require.Zero(t, w.Faults())
	require.Len(t, w.Characters(), 3)

	_, err = w.SpawnPlayer("nowhere")
	require.Error(t, err)
}

func TestNoLevel(t *testing.T) {
	w := New(nil, nil)
	_, err := w.SpawnPlayer("")
	require.ErrorIs(t, err, ErrNoLevel)
	_, err = w.SpawnMobs()
	require.ErrorIs(t, err, ErrNoLevel)

	bad := testLevel(seg(1, 0, 0, 10, 0, 0, 7))
	require.Error(t, w.LoadLevel(bad))
	require.Nil(t, w.Level())
}

func TestFallsExactlyAtChainEnd(t *testing.T) {
	for _, m := range contactModes {
		t.Run(m.name, func(t *testing.T) {
			w := newWorldIn(t, m, testLevel(
				seg(1, 0, 0, 100, 0, 0, 2),
				seg(2, 100, 0, 200, 0, 1, 0),
			))
			c := spawn(t, w, 50, -1)
			settle(t, w, c, 60)

			c.SetKeys(motion.Keys{Right: true})
			prevX := c.FootBody().Position().X
			for i := 0; i < 240; i++ {
				w.Step()
				x := c.FootBody().Position().X
				if c.Feet().Committed == nil {
					require.Greater(t, x, 200.0)
					require.LessOrEqual(t, prevX, 200.0)
					require.True(t, c.State().Jumping)
					return
				}
				prevX = x
			}
			t.Fatal("never walked off the chain end")
		})
	}
}

func TestLadderEngageWhileAirborne(t *testing.T) {
	lvl := testLevel(seg(1, -300, 0, 300, 0, 0, 0))
	lvl.Ladders = []levels.Ladder{{ID: 1, IsLadder: true, X: 0, Y1: -150, Y2: 0}}
	w := newWorld(t, lvl)
	c := spawn(t, w, 0, -1)
	settle(t, w, c, 60)

	c.SetKeys(motion.Keys{Jump: true})
	w.Step()
	c.SetKeys(motion.Keys{})
	for i := 0; i < 5; i++ {
		w.Step()
	}
	require.True(t, c.State().Jumping)
	require.Equal(t, 1, c.State().JumpCount)

	c.SetKeys(motion.Keys{Up: true})
	w.Step()
	require.True(t, c.State().LadderEngaged)
	require.False(t, c.State().Jumping)
	require.Zero(t, c.State().JumpCount)

	y := c.Position().Y
	w.Step()
	require.Less(t, c.Position().Y, y)
	require.InDelta(t, -c.Tuning().LadderSpeed, c.Velocity().Y, c.Tuning().LadderSpeed*0.2)
}
