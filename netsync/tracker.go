package netsync

import (
	"github.com/milk9111/footsim/common"
	"github.com/milk9111/footsim/motion"
)

// ChangeSet marks which parts of a snapshot changed since the last send.
type ChangeSet uint8

const (
	ChangePosition ChangeSet = 1 << iota
	ChangeVelocity
	ChangeFoothold
	ChangeFlags
	ChangeTimers
	ChangeKeys
	ChangeLayer
)

func (c ChangeSet) Dirty() bool {
	return c != 0
}

func (c ChangeSet) Has(flag ChangeSet) bool {
	return c&flag != 0
}

// Diff compares two snapshots. Positions and velocities within tol count as
// unchanged, and timers only count when one starts, ends or is extended.
func Diff(before, after motion.Snapshot, tol float64) ChangeSet {
	var c ChangeSet
	if !near(before.Position.X, after.Position.X, tol) || !near(before.Position.Y, after.Position.Y, tol) {
		c |= ChangePosition
	}
	if !near(before.Velocity.X, after.Velocity.X, tol) || !near(before.Velocity.Y, after.Velocity.Y, tol) {
		c |= ChangeVelocity
	}
	if before.Foothold != after.Foothold {
		c |= ChangeFoothold
	}
	if before.Layer != after.Layer {
		c |= ChangeLayer
	}
	b, a := before.State, after.State
	if b.Jumping != a.Jumping || b.Walking != a.Walking || b.Prone != a.Prone ||
		b.Dropping != a.Dropping || b.LadderEngaged != a.LadderEngaged ||
		b.OutOfControl != a.OutOfControl || b.JumpCount != a.JumpCount ||
		b.LadderMoveDir != a.LadderMoveDir || b.Facing != a.Facing {
		c |= ChangeFlags
	}
	if timerChanged(b.KnockbackMs, a.KnockbackMs) || timerChanged(b.InvincibleMs, a.InvincibleMs) ||
		timerChanged(b.PortalCooldownMs, a.PortalCooldownMs) {
		c |= ChangeTimers
	}
	if before.Keys != after.Keys {
		c |= ChangeKeys
	}
	return c
}

func near(a, b, tol float64) bool {
	return common.NearlyEqual(a, b, tol)
}

func timerChanged(before, after float64) bool {
	return (before > 0) != (after > 0) || after > before
}

// Tracker remembers the last snapshot sent per character and reports what
// changed since, once per outbound tick.
type Tracker struct {
	tol  float64
	last map[uint64]motion.Snapshot
}

func NewTracker(tol float64) *Tracker {
	return &Tracker{tol: tol, last: map[uint64]motion.Snapshot{}}
}

// Observe diffs s against the previous snapshot of id and stores s. The first
// observation of an id reports every change.
func (t *Tracker) Observe(id uint64, s motion.Snapshot) ChangeSet {
	prev, ok := t.last[id]
	t.last[id] = s
	if !ok {
		return ChangePosition | ChangeVelocity | ChangeFoothold | ChangeFlags | ChangeTimers | ChangeKeys | ChangeLayer
	}
	return Diff(prev, s, t.tol)
}

func (t *Tracker) Forget(id uint64) {
	delete(t.last, id)
}
