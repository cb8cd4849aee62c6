package physics

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/prefabs"
)

// ErrInvalidContext reports a simulation context that cannot drive a space.
var ErrInvalidContext = errors.New("physics: invalid simulation context")

// Context carries the scale, gravity and solver settings shared by every
// entry point of a simulation. Lengths are meters unless a field says pixels.
type Context struct {
	PixelsPerMeter float64
	Gravity        cp.Vector // m/s^2, +Y points down
	FixedStep      float64   // seconds

	VelocityIterations int
	PositionIterations int

	MaxFallSpeed float64 // m/s

	// One-way contact thresholds.
	LandingSpeed         float64 // m/s moving into a face before it counts as a landing
	SlowSpeed            float64 // m/s below which a shallow overlap still lands
	PenetrationTolerance float64 // m
	EdgeTolerance        float64 // m, endpoint matching for chain linkage
	GhostVertices        bool

	SegmentRadius   float64 // m
	TerrainFriction float64

	// Ladder and rope sensor geometry.
	LadderHalfWidth float64 // m
	LadderReach     float64 // m past either end that still counts as touching
}

// DefaultContext returns the settings used when no world spec is loaded.
func DefaultContext() *Context {
	return &Context{
		PixelsPerMeter:       100,
		Gravity:              cp.Vector{X: 0, Y: 20},
		FixedStep:            1.0 / 60.0,
		VelocityIterations:   8,
		PositionIterations:   3,
		MaxFallSpeed:         5.5,
		LandingSpeed:         0.05,
		SlowSpeed:            0.6,
		PenetrationTolerance: 0.05,
		EdgeTolerance:        0.01,
		SegmentRadius:        0,
		TerrainFriction:      1,
		LadderHalfWidth:      0.2,
		LadderReach:          0.1,
	}
}

// NewContext builds a context from a world spec, filling unset fields from
// DefaultContext.
func NewContext(spec prefabs.WorldSpec) (*Context, error) {
	ctx := DefaultContext()
	if spec.PixelsPerMeter != 0 {
		ctx.PixelsPerMeter = spec.PixelsPerMeter
	}
	if spec.Gravity != nil {
		ctx.Gravity = cp.Vector{X: spec.Gravity.X, Y: spec.Gravity.Y}
	}
	if spec.FixedStep != 0 {
		ctx.FixedStep = spec.FixedStep
	}
	if spec.VelocityIterations != 0 {
		ctx.VelocityIterations = spec.VelocityIterations
	}
	if spec.PositionIterations != 0 {
		ctx.PositionIterations = spec.PositionIterations
	}
	if spec.MaxFallSpeed != 0 {
		ctx.MaxFallSpeed = spec.MaxFallSpeed
	}

	c := spec.Contact
	if c.LandingSpeed != 0 {
		ctx.LandingSpeed = c.LandingSpeed
	}
	if c.SlowSpeed != 0 {
		ctx.SlowSpeed = c.SlowSpeed
	}
	if c.PenetrationTolerance != 0 {
		ctx.PenetrationTolerance = c.PenetrationTolerance
	}
	if c.EdgeTolerance != 0 {
		ctx.EdgeTolerance = c.EdgeTolerance
	}
	if c.SegmentRadius != 0 {
		ctx.SegmentRadius = c.SegmentRadius
	}
	if c.Friction != 0 {
		ctx.TerrainFriction = c.Friction
	}
	ctx.GhostVertices = c.GhostVertices

	if spec.Ladder.HalfWidth != 0 {
		ctx.LadderHalfWidth = spec.Ladder.HalfWidth
	}
	if spec.Ladder.Reach != 0 {
		ctx.LadderReach = spec.Ladder.Reach
	}

	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	return ctx, nil
}

// Validate reports settings that would stall or explode the solver.
func (c *Context) Validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil", ErrInvalidContext)
	case c.PixelsPerMeter <= 0:
		return fmt.Errorf("%w: pixels_per_meter %v", ErrInvalidContext, c.PixelsPerMeter)
	case c.FixedStep <= 0:
		return fmt.Errorf("%w: fixed_step %v", ErrInvalidContext, c.FixedStep)
	case c.VelocityIterations < 1 || c.PositionIterations < 0:
		return fmt.Errorf("%w: iterations %d/%d", ErrInvalidContext, c.VelocityIterations, c.PositionIterations)
	}
	return nil
}

// Pixels converts meters to space units.
func (c *Context) Pixels(m float64) float64 {
	return m * c.PixelsPerMeter
}

// Meters converts space units to meters.
func (c *Context) Meters(px float64) float64 {
	return px / c.PixelsPerMeter
}

func (c *Context) GravityPx() cp.Vector {
	return c.Gravity.Mult(c.PixelsPerMeter)
}

// StepMs is the fixed step in milliseconds, the unit of every gameplay timer.
func (c *Context) StepMs() float64 {
	return c.FixedStep * 1000
}

// NewSpace creates a cp space configured from the context. cp resolves
// velocity and position error in one impulse loop, so it gets both counts.
func (c *Context) NewSpace() *cp.Space {
	space := cp.NewSpace()
	space.Iterations = uint(c.VelocityIterations + c.PositionIterations)
	space.SetGravity(c.GravityPx())
	return space
}
