package motion

import (
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/foothold"
)

// Priority ranks a contact candidate.
type Priority int

const (
	PriorityIgnored Priority = iota
	PriorityFallback
	PriorityPrimary
)

// Contact is one landing candidate seen during a step.
type Contact struct {
	Foothold *foothold.Foothold
	Point    cp.Vector
	Priority Priority
}

// Feet is the double-buffered foothold claim of a character. Contact
// callbacks write Pending and Fallbacks during the solve, and Commit
// publishes the result once the step has finished.
type Feet struct {
	Pending   *foothold.Foothold
	Committed *foothold.Foothold
	Leaving   *foothold.Foothold
	Fallbacks []Contact

	LastContact cp.Vector
	HasContact  bool
}

// Reference is the foothold new contacts are compared against: the pending
// claim of this step if there is one, otherwise the committed one.
func (f *Feet) Reference() *foothold.Foothold {
	if f.Pending != nil {
		return f.Pending
	}
	return f.Committed
}

// Begin clears the working values before the engine solves.
func (f *Feet) Begin() {
	f.Pending = nil
	f.Fallbacks = f.Fallbacks[:0]
}

// Offer records a landing candidate. A primary candidate replaces the pending
// claim and demotes the one it replaces to a fallback.
func (f *Feet) Offer(fh *foothold.Foothold, point cp.Vector, priority Priority) {
	switch priority {
	case PriorityPrimary:
		if f.Pending != nil && f.Pending != fh {
			f.Fallbacks = append(f.Fallbacks, Contact{Foothold: f.Pending, Point: f.LastContact, Priority: PriorityFallback})
		}
		f.Pending = fh
		f.LastContact = point
		f.HasContact = true
	case PriorityFallback:
		f.Fallbacks = append(f.Fallbacks, Contact{Foothold: fh, Point: point, Priority: priority})
	}
}

// Commit publishes the pending claim when the bodies are awake. It promotes
// the best fallback when nothing primary was seen, and reports whether the
// character went from no foothold to a foothold.
func (f *Feet) Commit(awake bool) (landed bool) {
	if !awake {
		return false
	}
	was := f.Committed
	f.Committed = f.Pending
	if f.Committed == nil && len(f.Fallbacks) > 0 {
		sort.SliceStable(f.Fallbacks, func(i, j int) bool {
			return f.Fallbacks[i].Priority > f.Fallbacks[j].Priority
		})
		best := f.Fallbacks[0]
		f.Committed = best.Foothold
		f.LastContact = best.Point
		f.HasContact = true
	}
	if f.Committed == nil {
		f.Fallbacks = f.Fallbacks[:0]
	}
	return was == nil && f.Committed != nil
}

// Release clears whichever references point at fh. Unrelated references are
// left alone.
func (f *Feet) Release(fh *foothold.Foothold) {
	if fh == nil {
		return
	}
	if f.Pending == fh {
		f.Pending = nil
	}
	if f.Committed == fh {
		f.Committed = nil
	}
	if f.Leaving == fh {
		f.Leaving = nil
	}
	kept := f.Fallbacks[:0]
	for _, c := range f.Fallbacks {
		if c.Foothold != fh {
			kept = append(kept, c)
		}
	}
	f.Fallbacks = kept
}

// Drop starts a drop-through from the committed foothold.
func (f *Feet) Drop() {
	f.Leaving = f.Committed
	f.Committed = nil
	f.Pending = nil
}

// Fall forgets both claims, as when walking off the end of a chain.
func (f *Feet) Fall() {
	f.Pending = nil
	f.Committed = nil
}

// CommittedID is the committed foothold id, or foothold.None.
func (f *Feet) CommittedID() int {
	if f.Committed == nil {
		return foothold.None
	}
	return f.Committed.ID
}
