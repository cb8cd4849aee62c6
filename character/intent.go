package character

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/common"
	"github.com/milk9111/footsim/motion"
	"github.com/milk9111/footsim/physics"
	"go.uber.org/zap"
)

// PreStep turns this step's intent into forces, impulses and motor rates.
// It runs once per character before the space steps.
func (c *Controller) PreStep() {
	st := &c.state
	c.feet.Begin()

	dtMs := c.host.Context().StepMs()
	if exp := st.Tick(dtMs); exp.Knockback && !st.LadderEngaged {
		c.motor.SetMaxForce(c.motorForce)
	}
	if c.mob != nil {
		c.keys = c.mob.Next(c, dtMs)
	}
	keys := c.keys
	defer func() { c.prevKeys = keys }()

	switch {
	case st.LadderEngaged:
		c.climb(keys)
	case c.tryEngage(keys):
	default:
		c.locomote(keys)
	}

	if st.LadderEngaged {
		st.Jumping = false
	}
}

func (c *Controller) jumpPressed(keys motion.Keys) bool {
	return keys.Jump && !c.prevKeys.Jump
}

func (c *Controller) locomote(keys motion.Keys) {
	st := &c.state
	if !st.CanAct() {
		st.Walking = false
		st.Prone = false
		return
	}

	grounded := c.Grounded()
	dir := keys.Horizontal()

	if keys.Jump {
		switch {
		case grounded && keys.Down:
			c.drop()
		case c.canJump(grounded, c.jumpPressed(keys)):
			c.jump()
		}
	}

	st.Prone = c.Grounded() && !st.Jumping && keys.Down && dir == 0
	if dir != 0 && !st.Prone {
		st.Face(dir)
		st.Walking = true
		c.walk(dir)
		return
	}
	st.Walking = false
	c.brake()
}

// canJump allows a ground jump while standing upright and air jumps on a
// fresh press until MaxJumps is spent.
func (c *Controller) canJump(grounded, pressed bool) bool {
	st := &c.state
	if st.LadderEngaged || !st.CanAct() {
		return false
	}
	if grounded {
		return !st.Prone
	}
	return pressed && st.JumpCount < c.tuning.MaxJumps
}

func (c *Controller) jump() {
	st := &c.state
	st.Jumping = true
	st.JumpCount++
	st.Prone = false
	for _, body := range []*cp.Body{c.torso, c.foot} {
		v := body.Velocity()
		body.SetVelocity(v.X, math.Min(v.Y, 0))
		body.ApplyImpulseAtWorldPoint(cp.Vector{Y: -c.tuning.JumpSpeed * body.Mass()}, body.Position())
	}
	c.log.Debug("jump", zap.Int("count", st.JumpCount))
}

// drop starts a drop-through from the committed foothold. The character
// falls past its chain and lands on whatever lies below, if anything.
func (c *Controller) drop() {
	committed := c.feet.Committed
	st := &c.state
	st.Dropping = true
	st.Prone = false
	c.feet.Drop()
	c.foot.Activate()
	c.torso.Activate()

	pos := c.Position()
	below, ok := c.host.Graph().Below(pos.X, pos.Y+c.tuning.FootRadius, committed.Chain)
	if !ok {
		c.log.Debug("drop", zap.Int("from", committed.ID))
		return
	}
	c.log.Debug("drop",
		zap.Int("from", committed.ID),
		zap.Int("toward", below.ID),
	)
}

// walk spins the foot so that it rolls at WalkSpeed, and steers the body
// directly while airborne.
func (c *Controller) walk(dir int) {
	speed := float64(dir) * c.tuning.WalkSpeed
	c.setRate(speed)
	if c.Grounded() {
		return
	}
	c.airControl(speed)
}

func (c *Controller) airControl(target float64) {
	step := c.tuning.AirControl * c.host.Context().FixedStep
	if step <= 0 {
		return
	}
	for _, body := range []*cp.Body{c.torso, c.foot} {
		v := body.Velocity()
		body.SetVelocity(common.Approach(v.X, target, step), v.Y)
	}
}

// brake lowers the motor target in proportion to the current speed.
func (c *Controller) brake() {
	vx := c.foot.Velocity().X
	c.setRate(vx * (1 - c.tuning.BrakeFactor))
}

// setRate drives the foot so that its rim moves at speed.
func (c *Controller) setRate(speed float64) {
	motor, ok := c.motor.Class.(*cp.SimpleMotor)
	if !ok {
		return
	}
	motor.Rate = -speed / c.tuning.FootRadius
	c.foot.Activate()
}

func (c *Controller) tryEngage(keys motion.Keys) bool {
	z := c.climber.Touching
	vertical := keys.Vertical()
	if z == nil || vertical == 0 || keys.Jump || !c.state.CanAct() {
		return false
	}
	pos := c.Position()
	if !z.CanEngage(pos, vertical, c.tuning.LadderTolerance, ladderEpsilon) {
		return false
	}
	c.engage()
	c.climb(keys)
	return true
}

const ladderEpsilon = 0.5

func (c *Controller) engage() {
	z := c.climber.Touching
	pos := c.Position()
	c.Teleport(cp.Vector{X: z.X, Y: z.Clamp(pos.Y)}, cp.Vector{})
	c.climber.Engage(c.host.Space(), c.torso, c.feetOffset())

	c.torso.SetVelocityUpdateFunc(physics.Weightless)
	c.foot.SetVelocityUpdateFunc(physics.Weightless)
	c.setRate(0)
	c.motor.SetMaxForce(0)

	st := &c.state
	st.LadderEngaged = true
	st.ResetJump()
	st.Walking = false
	st.Prone = false
	st.Dropping = false
	c.feet.Leaving = nil
	c.feet.Fall()
	c.log.Debug("ladder engaged", zap.Int("zone", z.ID), zap.Bool("ladder", z.IsLadder))
}

// climb drives an engaged character along the zone.
func (c *Controller) climb(keys motion.Keys) {
	st := &c.state
	z := c.climber.Zone()
	if !st.CanAct() {
		c.detach()
		return
	}

	side := keys.Horizontal()
	if keys.Jump && side != 0 {
		c.jumpOff(side)
		return
	}

	dir := keys.Vertical()
	if dir != 0 && z.AtLimit(c.Position().Y, dir, ladderEpsilon) {
		c.detach()
		return
	}
	st.LadderMoveDir = dir
	v := cp.Vector{Y: float64(dir) * c.tuning.LadderSpeed}
	c.torso.SetVelocityVector(v)
	c.foot.SetVelocityVector(v)
	c.foot.SetAngularVelocity(0)
}

func (c *Controller) jumpOff(side int) {
	c.detach()
	st := &c.state
	st.Face(side)
	st.Jumping = true
	st.JumpCount = 1
	for _, body := range []*cp.Body{c.torso, c.foot} {
		m := body.Mass()
		impulse := cp.Vector{X: float64(side) * c.tuning.LadderJumpOff * m, Y: -c.tuning.JumpSpeed * m / 2}
		body.SetVelocityVector(cp.Vector{})
		body.ApplyImpulseAtWorldPoint(impulse, body.Position())
	}
}

// detach releases the ladder and hands the character back to gravity.
func (c *Controller) detach() {
	if c.climber.Engaged == nil && !c.state.LadderEngaged {
		return
	}
	c.climber.Detach(c.host)
	maxFall := c.host.Context().Pixels(c.host.Context().MaxFallSpeed)
	c.torso.SetVelocityUpdateFunc(physics.Falling(maxFall))
	c.foot.SetVelocityUpdateFunc(physics.Falling(maxFall))
	if !c.state.InKnockback() {
		c.motor.SetMaxForce(c.motorForce)
	}
	st := &c.state
	st.LadderEngaged = false
	st.LadderMoveDir = 0
	st.Jumping = true
	c.log.Debug("ladder released")
}
