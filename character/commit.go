package character

import (
	"fmt"

	"github.com/milk9111/footsim/foothold"
	"github.com/milk9111/footsim/ladder"
	"go.uber.org/zap"
)

// Commit publishes the foothold chosen during the step and updates the jump
// state from it. It runs once per character after the space has stepped.
func (c *Controller) Commit() {
	st := &c.state
	awake := !c.torso.IsSleeping() && !c.foot.IsSleeping()
	landed := c.feet.Commit(awake)

	switch {
	case st.LadderEngaged:
		st.Jumping = false
	case c.feet.Committed != nil:
		st.Jumping = false
		if landed {
			st.JumpCount = 0
			c.log.Debug("landed", zap.Int("foothold", c.feet.Committed.ID))
		}
		if st.Dropping && !foothold.SameChain(c.feet.Committed, c.feet.Leaving) {
			st.Dropping = false
		}
	case awake:
		st.Jumping = true
		st.Prone = false
	}
	c.check()
}

// check panics when the flags contradict the physical state.
func (c *Controller) check() {
	st := &c.state
	if !st.Jumping && !st.LadderEngaged && c.feet.Committed == nil {
		panic(fmt.Errorf("%w: entity %s", ErrGroundedWithoutFoothold, c.ID))
	}
	if st.LadderEngaged && c.climber.Engaged == nil {
		panic(ladder.ErrNoZone)
	}
}

// OnLadderBegin records a zone the torso started overlapping.
func (c *Controller) OnLadderBegin(z *ladder.Zone) {
	c.climber.Touch(z)
}

// OnLadderEnd forgets a zone and lets go of it when it was the one being
// climbed.
func (c *Controller) OnLadderEnd(z *ladder.Zone) {
	if c.climber.Untouch(z) {
		c.detach()
	}
}
