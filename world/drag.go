package world

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/ecs"
)

// drag pins a character's torso to a point the debug tools move around.
type drag struct {
	anchor *cp.Body
	joint  *cp.Constraint
}

// Drag pulls the character toward point until Release. Calling it again
// moves the point.
func (w *World) Drag(e ecs.Entity, point cp.Vector) error {
	c, ok := w.Controller(e)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, e)
	}
	if d, ok := w.drags.Get(e.ID); ok {
		d.anchor.SetPosition(point)
		return nil
	}
	if w.stepping {
		return ErrStepping
	}

	anchor := cp.NewKinematicBody()
	anchor.SetPosition(point)
	torso := c.TorsoBody()
	joint := cp.NewPivotJoint2(anchor, torso, cp.Vector{}, cp.Vector{})
	joint.SetMaxForce(torso.Mass() * w.ctx.GravityPx().Length() * 20)
	joint.SetCollideBodies(false)

	w.space.AddBody(anchor)
	w.space.AddConstraint(joint)
	torso.Activate()
	w.drags.Set(e.ID, &drag{anchor: anchor, joint: joint})
	return nil
}

// Release lets go of a dragged character.
func (w *World) Release(e ecs.Entity) {
	w.release(e)
}

func (w *World) release(e ecs.Entity) {
	d, ok := w.drags.Get(e.ID)
	if !ok {
		return
	}
	w.drags.Remove(e.ID)
	w.RemoveConstraint(d.joint)
	w.Destroy(func() {
		if w.space.ContainsBody(d.anchor) {
			w.space.RemoveBody(d.anchor)
		}
	})
}
