package motion

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/foothold"
)

func testGraph(t *testing.T) *foothold.Graph {
	t.Helper()
	g, err := foothold.Build([]foothold.Record{
		{ID: 0, X1: 0, Y1: 0, X2: 100, Y2: 0, Prev: foothold.None, Next: 1},
		{ID: 1, X1: 100, Y1: 0, X2: 200, Y2: 0, Prev: 0, Next: foothold.None},
		{ID: 2, X1: 0, Y1: 50, X2: 200, Y2: 50, Prev: foothold.None, Next: foothold.None},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func get(t *testing.T, g *foothold.Graph, id int) *foothold.Foothold {
	t.Helper()
	fh, ok := g.Get(id)
	if !ok {
		t.Fatalf("missing foothold %d", id)
	}
	return fh
}

func TestFeetCommit(t *testing.T) {
	g := testGraph(t)
	a, b, low := get(t, g, 0), get(t, g, 1), get(t, g, 2)

	cases := []struct {
		name       string
		committed  *foothold.Foothold
		offers     []Contact
		awake      bool
		wantCommit *foothold.Foothold
		wantLanded bool
	}{
		{
			name:       "pending_wins",
			offers:     []Contact{{Foothold: a, Priority: PriorityPrimary}},
			awake:      true,
			wantCommit: a,
			wantLanded: true,
		},
		{
			name:       "nothing_clears",
			committed:  a,
			awake:      true,
			wantCommit: nil,
		},
		{
			name:       "fallback_promoted",
			offers:     []Contact{{Foothold: low, Priority: PriorityFallback}},
			awake:      true,
			wantCommit: low,
			wantLanded: true,
		},
		{
			name:       "asleep_keeps_committed",
			committed:  b,
			awake:      false,
			wantCommit: b,
		},
		{
			name:      "primary_replaces_and_demotes",
			committed: a,
			offers: []Contact{
				{Foothold: a, Priority: PriorityPrimary},
				{Foothold: b, Priority: PriorityPrimary},
			},
			awake:      true,
			wantCommit: b,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &Feet{Committed: c.committed}
			f.Begin()
			for _, o := range c.offers {
				f.Offer(o.Foothold, o.Point, o.Priority)
			}
			landed := f.Commit(c.awake)
			if f.Committed != c.wantCommit {
				t.Fatalf("committed = %v, want %v", f.Committed, c.wantCommit)
			}
			if landed != c.wantLanded {
				t.Fatalf("landed = %v, want %v", landed, c.wantLanded)
			}
		})
	}
}

func TestFeetDemotedPendingIsFallback(t *testing.T) {
	g := testGraph(t)
	a, low := get(t, g, 0), get(t, g, 2)

	f := &Feet{}
	f.Begin()
	f.Offer(low, cp.Vector{X: 10, Y: 50}, PriorityPrimary)
	f.Offer(a, cp.Vector{X: 10, Y: 0}, PriorityPrimary)

	if f.Pending != a {
		t.Fatalf("expected a pending")
	}
	if len(f.Fallbacks) != 1 || f.Fallbacks[0].Foothold != low {
		t.Fatalf("expected low demoted to fallback, got %+v", f.Fallbacks)
	}
	if f.LastContact.Y != 0 {
		t.Fatalf("last contact should follow the pending claim")
	}
}

func TestFeetFallbackOrder(t *testing.T) {
	g := testGraph(t)
	a, low := get(t, g, 0), get(t, g, 2)

	f := &Feet{}
	f.Begin()
	f.Fallbacks = append(f.Fallbacks, Contact{Foothold: low, Priority: PriorityIgnored})
	f.Offer(a, cp.Vector{}, PriorityFallback)
	f.Commit(true)
	if f.Committed != a {
		t.Fatalf("highest priority fallback should win, got %v", f.Committed)
	}
}

func TestFeetRelease(t *testing.T) {
	g := testGraph(t)
	a, b, low := get(t, g, 0), get(t, g, 1), get(t, g, 2)

	f := &Feet{Pending: a, Committed: b, Leaving: low}
	f.Release(a)
	if f.Pending != nil || f.Committed != b || f.Leaving != low {
		t.Fatalf("release of a touched unrelated refs: %+v", f)
	}
	f.Release(low)
	if f.Leaving != nil || f.Committed != b {
		t.Fatalf("release of low: %+v", f)
	}
	f.Release(nil)
	f.Release(a)
	if f.Committed != b {
		t.Fatalf("releasing an unreferenced foothold must be a no-op")
	}
}

func TestFeetDrop(t *testing.T) {
	g := testGraph(t)
	a := get(t, g, 0)

	f := &Feet{Committed: a}
	f.Drop()
	if f.Leaving != a || f.Committed != nil {
		t.Fatalf("drop should move committed into leaving: %+v", f)
	}
	if f.CommittedID() != foothold.None {
		t.Fatalf("expected no committed id")
	}
}
