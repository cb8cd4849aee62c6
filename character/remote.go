package character

import (
	"github.com/milk9111/footsim/netsync"
	"go.uber.org/zap"
)

// MoveTo applies a move update received for a remote character: it
// teleports the bodies, restores the locomotion state and re-applies the
// received intent so the character keeps moving until the next update.
// It must not be called while the space is stepping.
func (c *Controller) MoveTo(rec netsync.MoveRecord) {
	snap := rec.Snapshot()
	c.Teleport(snap.Position, snap.Velocity)
	c.layer = snap.Layer

	want := snap.State
	if !want.LadderEngaged && c.state.LadderEngaged {
		c.detach()
	}
	if want.LadderEngaged && !c.state.LadderEngaged {
		if c.climber.Touching == nil {
			want.LadderEngaged = false
			want.Jumping = true
		} else {
			c.engage()
			c.Teleport(snap.Position, snap.Velocity)
		}
	}
	c.state = want

	c.feet.Fall()
	if !want.Dropping {
		c.feet.Leaving = nil
	}
	if fh, ok := c.host.Graph().Get(snap.Foothold); ok {
		c.feet.Committed = fh
	} else if !want.Jumping && !want.LadderEngaged {
		c.state.Jumping = true
	}
	if c.state.InKnockback() || c.state.LadderEngaged {
		c.motor.SetMaxForce(0)
	} else {
		c.motor.SetMaxForce(c.motorForce)
	}

	c.keys = snap.Keys
	c.prevKeys = snap.Keys
	switch dir := snap.Keys.Horizontal(); {
	case c.state.LadderEngaged:
	case dir != 0 && c.state.CanAct():
		c.walk(dir)
	default:
		c.brake()
	}
	c.log.Debug("moved", zap.Uint64("frame", rec.Frame), zap.Int("foothold", snap.Foothold))
}
