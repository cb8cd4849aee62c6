package ladder

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/physics"
)

var (
	ErrNoZone      = errors.New("ladder: engaged without a zone")
	ErrEmptySpan   = errors.New("ladder: empty vertical span")
	ErrDuplicateID = errors.New("ladder: duplicate id")
)

// Record is a raw ladder or rope.
type Record struct {
	ID       int
	IsLadder bool
	X        float64
	Y1, Y2   float64
	Layer    int
	Piece    int
}

// Zone is a vertical traversal region backed by a static sensor.
type Zone struct {
	ID       int
	IsLadder bool
	X        float64
	Top      float64
	Bottom   float64
	Reach    float64
	Layer    int
	Piece    int

	Shape *cp.Shape
}

// Build adds one sensor per record to the space's static body.
func Build(space *cp.Space, records []Record, ctx *physics.Context) ([]*Zone, error) {
	halfWidth := ctx.Pixels(ctx.LadderHalfWidth)
	reach := ctx.Pixels(ctx.LadderReach)

	seen := make(map[int]bool, len(records))
	zones := make([]*Zone, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
		if r.Y1 == r.Y2 {
			return nil, fmt.Errorf("%w: %d", ErrEmptySpan, r.ID)
		}
		zones = append(zones, &Zone{
			ID:       r.ID,
			IsLadder: r.IsLadder,
			X:        r.X,
			Top:      math.Min(r.Y1, r.Y2),
			Bottom:   math.Max(r.Y1, r.Y2),
			Reach:    reach,
			Layer:    r.Layer,
			Piece:    r.Piece,
		})
	}

	for _, z := range zones {
		bb := cp.BB{L: z.X - halfWidth, B: z.Top - z.Reach, R: z.X + halfWidth, T: z.Bottom}
		shape := cp.NewBox2(space.StaticBody, bb, 0)
		shape.SetSensor(true)
		physics.Attach(shape, physics.KindLadderZone, z)
		z.Shape = shape
		space.AddShape(shape)
	}
	return zones, nil
}

// Remove takes the zone's sensor out of the space.
func (z *Zone) Remove(space *cp.Space) {
	if z == nil || z.Shape == nil {
		return
	}
	space.RemoveShape(z.Shape)
	z.Shape = nil
}

// CanEngage reports whether a character at pos (its feet) pressing vertical
// (-1 up, +1 down) may grab the zone. Up needs room above, down needs room
// below, and the character must be within tol of the zone's axis.
func (z *Zone) CanEngage(pos cp.Vector, vertical int, tol, eps float64) bool {
	if z == nil || math.Abs(pos.X-z.X) > tol {
		return false
	}
	switch vertical {
	case -1:
		return pos.Y > z.Top+eps && pos.Y <= z.Bottom+z.Reach
	case 1:
		return pos.Y < z.Bottom-eps && pos.Y >= z.Top-z.Reach
	}
	return false
}

// AtLimit reports whether moving in dir from y would leave the span.
func (z *Zone) AtLimit(y float64, dir int, eps float64) bool {
	switch {
	case dir < 0:
		return y <= z.Top+eps
	case dir > 0:
		return y >= z.Bottom-eps
	}
	return false
}

// Clamp keeps y inside the span.
func (z *Zone) Clamp(y float64) float64 {
	return math.Max(z.Top, math.Min(z.Bottom, y))
}
