package ground

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/foothold"
	"github.com/milk9111/footsim/motion"
	"go.uber.org/zap"
)

// PreSolve decides whether fh is solid for w during this step and records
// landing candidates in w's feet. Returning false disables the contact for
// this step; arb.Ignore disables it until the shapes separate.
func (g *Ground) PreSolve(fh *foothold.Foothold, w Walker, arb *cp.Arbiter) bool {
	set := arb.ContactPointSet()
	if set.Count == 0 {
		panic(ErrNoContactPoints)
	}

	// Walls are plain solids.
	if fh.IsWall() {
		return true
	}

	state, feet := w.State(), w.Feet()
	if state.LadderEngaged {
		return false
	}

	foot := w.FootBody()
	center := foot.Position()
	point := contactPoint(&set)

	if state.Dropping && feet.Leaving != nil {
		if foothold.SameChain(fh, feet.Leaving) {
			return arb.Ignore()
		}
		if point.Y <= center.Y {
			return false
		}
	}

	up := fh.Up()
	height := center.Sub(fh.A).Dot(up)
	if height < 0 {
		// Coming from underneath: pass through until the shapes separate.
		return arb.Ignore()
	}

	rel := foot.VelocityAtWorldPoint(point).Sub(fh.Body.VelocityAtWorldPoint(point))
	vn := rel.Dot(up)
	penetration := w.FootRadius() - height
	landing := vn < -g.landingSpeed || (penetration <= g.penetration && vn <= g.slowSpeed)
	if !landing {
		return false
	}

	t := fh.Project(center)
	travel := foot.Velocity().Dot(fh.Tangent())
	if (t > 1 && fh.Next == nil && travel >= 0) || (t < 0 && fh.Prev == nil && travel <= 0) {
		state.Jumping = true
		feet.Fall()
		g.log.Debug("walked off chain end",
			zap.Int("foothold", fh.ID),
			zap.Float64("t", t),
		)
		return arb.Ignore()
	}

	if g.cornerOwnedByNeighbor(fh, t, center) {
		return false
	}

	priority := SelectPriority(feet.Reference(), feet.LastContact, feet.HasContact, fh, point, g.edgeTol)
	feet.Offer(fh, point, priority)
	return true
}

// Separate ends a contact between w and fh.
func (g *Ground) Separate(fh *foothold.Foothold, w Walker) {
	w.Feet().Release(fh)
}

// SelectPriority ranks a landing on fh against the reference foothold. A
// foothold on another chain replaces the reference only when it is higher
// than the last contact and the reference chain does not already run into
// it.
func SelectPriority(reference *foothold.Foothold, last cp.Vector, hasLast bool, fh *foothold.Foothold, point cp.Vector, tol float64) motion.Priority {
	if reference == nil || foothold.SameChain(reference, fh) {
		return motion.PriorityPrimary
	}
	higher := !hasLast || point.Y < last.Y-tol
	if higher && !foothold.Linked(reference, fh, tol) {
		return motion.PriorityPrimary
	}
	return motion.PriorityFallback
}

// cornerOwnedByNeighbor reports whether a contact with fh's endpoint should
// be left to the linked neighbour the foot centre already projects onto.
// Ghost vertices hand over at every interior endpoint. Without them only
// flush seams hand over; a step between segments keeps its corner.
func (g *Ground) cornerOwnedByNeighbor(fh *foothold.Foothold, t float64, center cp.Vector) bool {
	var n *foothold.Foothold
	var end, start cp.Vector
	switch {
	case t > 1:
		n = fh.Next
		if n != nil {
			end, start = fh.B, n.A
		}
	case t < 0:
		n = fh.Prev
		if n != nil {
			end, start = fh.A, n.B
		}
	}
	if n == nil || n.IsWall() {
		return false
	}
	if nt := n.Project(center); nt < 0 || nt > 1 {
		return false
	}
	if g.ctx.GhostVertices {
		return true
	}
	return math.Abs(end.X-start.X) <= g.edgeTol && math.Abs(end.Y-start.Y) <= g.edgeTol
}

func contactPoint(set *cp.ContactPointSet) cp.Vector {
	var sum cp.Vector
	for i := 0; i < set.Count; i++ {
		p := set.Points[i]
		sum = sum.Add(p.PointA.Lerp(p.PointB, 0.5))
	}
	return sum.Mult(1 / float64(set.Count))
}
