package foothold

import (
	"math"

	"github.com/jakecoffman/cp"
)

// None marks a missing prev/next id.
const None = -1

// Record is a raw terrain segment with 0-based ids.
type Record struct {
	ID     int
	X1, Y1 float64
	X2, Y2 float64
	Prev   int
	Next   int
	Layer  int
	Group  int
}

// Foothold is one terrain segment. Prev and Next are resolved by Build.
type Foothold struct {
	ID     int
	A, B   cp.Vector
	PrevID int
	NextID int
	Layer  int
	Group  int

	Prev  *Foothold
	Next  *Foothold
	Chain *Chain

	// Set by the terrain builder.
	Body  *cp.Body
	Shape *cp.Shape
}

func (f *Foothold) IsWall() bool { return f.A.X == f.B.X }
func (f *Foothold) IsFirst() bool { return f.Prev == nil }
func (f *Foothold) IsLast() bool { return f.Next == nil }

func (f *Foothold) Length() float64 {
	return f.B.Sub(f.A).Length()
}

// Tangent is the unit direction from A to B.
func (f *Foothold) Tangent() cp.Vector {
	return f.B.Sub(f.A).Normalize()
}

// Up is the unit normal on the standing side of the segment. Footholds are
// authored left to right, so with +Y down that is the tangent turned
// counter-clockwise on screen.
func (f *Foothold) Up() cp.Vector {
	return f.Tangent().ReversePerp()
}

// Project returns the parameter of p along the segment: 0 at A, 1 at B.
func (f *Foothold) Project(p cp.Vector) float64 {
	seg := f.B.Sub(f.A)
	l2 := seg.LengthSq()
	if l2 == 0 {
		return 0
	}
	return p.Sub(f.A).Dot(seg) / l2
}

// YAt returns the segment height at x. ok is false outside the span or for
// walls.
func (f *Foothold) YAt(x float64) (float64, bool) {
	lo, hi := math.Min(f.A.X, f.B.X), math.Max(f.A.X, f.B.X)
	if f.IsWall() || x < lo || x > hi {
		return 0, false
	}
	t := (x - f.A.X) / (f.B.X - f.A.X)
	return f.A.Y + t*(f.B.Y-f.A.Y), true
}

// Chain is a maximal prev/next linked run of footholds, head to tail.
type Chain struct {
	ID        int
	Footholds []*Foothold
	Bounds    cp.BB
	Loop      bool
	Layer     int
	Body      *cp.Body
}

func (c *Chain) Head() *Foothold {
	if c == nil || len(c.Footholds) == 0 {
		return nil
	}
	return c.Footholds[0]
}

func (c *Chain) Tail() *Foothold {
	if c == nil || len(c.Footholds) == 0 {
		return nil
	}
	return c.Footholds[len(c.Footholds)-1]
}

// FreeEnds returns the chain endpoints that have no neighbor. Loops have none.
func (c *Chain) FreeEnds() []cp.Vector {
	if c == nil || c.Loop || len(c.Footholds) == 0 {
		return nil
	}
	return []cp.Vector{c.Head().A, c.Tail().B}
}

// Linked reports whether the chain of a ends where b begins or ends, within
// tol on both axes. Such footholds continue each other even though they were
// authored as separate chains.
func Linked(a, b *Foothold, tol float64) bool {
	if a == nil || b == nil || a.Chain == nil {
		return false
	}
	if a.Chain == b.Chain {
		return true
	}
	for _, end := range a.Chain.FreeEnds() {
		for _, p := range []cp.Vector{b.A, b.B} {
			if math.Abs(end.X-p.X) <= tol && math.Abs(end.Y-p.Y) <= tol {
				return true
			}
		}
	}
	return false
}

// SameChain reports whether a and b belong to one chain.
func SameChain(a, b *Foothold) bool {
	return a != nil && b != nil && a.Chain != nil && a.Chain == b.Chain
}
