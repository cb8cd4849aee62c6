package physics

import "github.com/jakecoffman/cp"

// Falling integrates gravity and caps downward speed at maxFall (space units
// per second) so a body never crosses a one-way edge within a single step.
func Falling(maxFall float64) cp.BodyVelocityFunc {
	return func(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
		cp.BodyUpdateVelocity(body, gravity, damping, dt)
		if maxFall <= 0 {
			return
		}
		if v := body.Velocity(); v.Y > maxFall {
			body.SetVelocity(v.X, maxFall)
		}
	}
}

// Weightless integrates a body with gravity suspended.
func Weightless(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
	cp.BodyUpdateVelocity(body, cp.Vector{}, damping, dt)
}
