package ladder

import "github.com/jakecoffman/cp"

// Remover removes constraints, deferring the removal while the space is
// stepping.
type Remover interface {
	RemoveConstraint(c *cp.Constraint)
}

// Climber is one character's relation to ladder zones: unengaged, touching
// a candidate zone, or engaged on one.
type Climber struct {
	Touching *Zone
	Engaged  *Zone
	joint    *cp.Constraint
}

// Touch records z as the candidate zone. An engaged climber keeps its zone.
func (c *Climber) Touch(z *Zone) {
	if c.Engaged != nil {
		return
	}
	c.Touching = z
}

// Untouch forgets z. It reports true when z is the engaged zone, in which
// case the caller must detach.
func (c *Climber) Untouch(z *Zone) bool {
	if c.Touching == z {
		c.Touching = nil
	}
	return c.Engaged != nil && c.Engaged == z
}

// Engage binds torso to the touched zone's vertical axis. offset is the
// distance from the torso centre down to the character's feet.
func (c *Climber) Engage(space *cp.Space, torso *cp.Body, offset float64) *Zone {
	z := c.Touching
	if z == nil {
		panic(ErrNoZone)
	}
	a := cp.Vector{X: z.X, Y: z.Top - offset}
	b := cp.Vector{X: z.X, Y: z.Bottom - offset}
	joint := cp.NewGrooveJoint(space.StaticBody, torso, a, b, cp.Vector{})
	joint.SetCollideBodies(false)
	space.AddConstraint(joint)

	c.joint = joint
	c.Engaged = z
	return z
}

// Zone returns the engaged zone and panics when the climber claims to be
// engaged without one.
func (c *Climber) Zone() *Zone {
	if c.Engaged == nil {
		panic(ErrNoZone)
	}
	return c.Engaged
}

// Detach releases the engaged zone, if any.
func (c *Climber) Detach(r Remover) {
	if c.joint != nil {
		r.RemoveConstraint(c.joint)
		c.joint = nil
	}
	c.Engaged = nil
}

// Joint is the constraint holding the character to the zone.
func (c *Climber) Joint() *cp.Constraint {
	return c.joint
}
