package character

import (
	"math"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// Knockback throws the character away from a hit. dir is the horizontal
// direction of the push, impulse the velocity change in space units and ms
// how long intent is ignored. Zero values take the tuning defaults.
func (c *Controller) Knockback(dir int, impulse, ms float64) {
	if impulse <= 0 {
		impulse = c.tuning.KnockbackImpulse
	}
	if ms <= 0 {
		ms = c.tuning.KnockbackMs
	}
	if dir == 0 {
		dir = -c.state.Facing
	}
	c.detach()

	st := &c.state
	st.KnockbackMs = ms
	st.OutOfControl = true
	st.Walking = false
	st.Prone = false
	st.Face(-dir)
	c.motor.SetMaxForce(0)

	for _, body := range []*cp.Body{c.torso, c.foot} {
		m := body.Mass()
		body.ApplyImpulseAtWorldPoint(cp.Vector{X: float64(dir) * impulse * m, Y: -impulse * m * 0.6}, body.Position())
	}
	c.log.Debug("knockback", zap.Int("dir", dir), zap.Float64("ms", ms))
}

// SetInvincible starts the post-hit invincibility timer.
func (c *Controller) SetInvincible(ms float64) {
	if ms < 0 {
		ms = c.tuning.InvincibleMs
	}
	c.state.InvincibleMs = math.Max(c.state.InvincibleMs, ms)
}

func (c *Controller) SetPortalCooldown(ms float64) {
	c.state.PortalCooldownMs = math.Max(0, ms)
}

// Hit applies a knockback followed by invincibility unless the character is
// already invincible. It reports whether the hit landed.
func (c *Controller) Hit(dir int) bool {
	if c.state.Invincible() {
		return false
	}
	c.Knockback(dir, 0, 0)
	c.SetInvincible(c.tuning.InvincibleMs)
	return true
}
