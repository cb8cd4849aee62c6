package foothold

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jakecoffman/cp"
)

var (
	ErrEmpty          = errors.New("foothold: no segments")
	ErrInvalidID      = errors.New("foothold: invalid id")
	ErrDuplicateID    = errors.New("foothold: duplicate id")
	ErrDanglingID     = errors.New("foothold: dangling id")
	ErrAsymmetricLink = errors.New("foothold: asymmetric link")
	ErrUnterminated   = errors.New("foothold: chain neither terminates nor loops")
	ErrDegenerate     = errors.New("foothold: zero length segment")
)

// Graph indexes footholds by id and groups them into chains.
type Graph struct {
	byID   map[int]*Foothold
	order  []*Foothold
	chains []*Chain
}

// Build resolves links and groups records into chains. Malformed input is
// reported, never dropped, since later stages index footholds by id.
func Build(records []Record) (*Graph, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	g := &Graph{byID: make(map[int]*Foothold, len(records))}
	for _, r := range records {
		if r.ID < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidID, r.ID)
		}
		if _, ok := g.byID[r.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		fh := &Foothold{
			ID:     r.ID,
			A:      cp.Vector{X: r.X1, Y: r.Y1},
			B:      cp.Vector{X: r.X2, Y: r.Y2},
			PrevID: r.Prev,
			NextID: r.Next,
			Layer:  r.Layer,
			Group:  r.Group,
		}
		if fh.A.Equal(fh.B) {
			return nil, fmt.Errorf("%w: %d", ErrDegenerate, r.ID)
		}
		g.byID[r.ID] = fh
		g.order = append(g.order, fh)
	}

	if err := g.link(); err != nil {
		return nil, err
	}
	if err := g.buildChains(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) link() error {
	for _, fh := range g.order {
		if fh.PrevID != None {
			prev, ok := g.byID[fh.PrevID]
			if !ok {
				return fmt.Errorf("%w: foothold %d prev %d", ErrDanglingID, fh.ID, fh.PrevID)
			}
			fh.Prev = prev
		}
		if fh.NextID != None {
			next, ok := g.byID[fh.NextID]
			if !ok {
				return fmt.Errorf("%w: foothold %d next %d", ErrDanglingID, fh.ID, fh.NextID)
			}
			fh.Next = next
		}
	}
	for _, fh := range g.order {
		if fh.Next != nil && fh.Next.Prev != fh {
			return fmt.Errorf("%w: %d.next=%d but %d.prev=%d", ErrAsymmetricLink, fh.ID, fh.Next.ID, fh.Next.ID, fh.Next.PrevID)
		}
		if fh.Prev != nil && fh.Prev.Next != fh {
			return fmt.Errorf("%w: %d.prev=%d but %d.next=%d", ErrAsymmetricLink, fh.ID, fh.Prev.ID, fh.Prev.ID, fh.Prev.NextID)
		}
	}
	return nil
}

func (g *Graph) buildChains() error {
	visited := make(map[*Foothold]bool, len(g.order))

	// Open chains first: every head walks forward until next is null.
	for _, fh := range g.order {
		if fh.Prev != nil || visited[fh] {
			continue
		}
		chain := &Chain{ID: len(g.chains), Layer: fh.Layer}
		for cur := fh; cur != nil; cur = cur.Next {
			if visited[cur] {
				return fmt.Errorf("%w: foothold %d reached twice", ErrUnterminated, cur.ID)
			}
			visited[cur] = true
			cur.Chain = chain
			chain.Footholds = append(chain.Footholds, cur)
		}
		g.chains = append(g.chains, chain)
	}

	// Whatever remains has a prev on every member, so it can only be loops.
	for _, fh := range g.order {
		if visited[fh] {
			continue
		}
		chain := &Chain{ID: len(g.chains), Layer: fh.Layer, Loop: true}
		cur := fh
		for {
			if visited[cur] {
				if cur != fh {
					return fmt.Errorf("%w: foothold %d re-entered before head %d", ErrUnterminated, cur.ID, fh.ID)
				}
				break
			}
			visited[cur] = true
			cur.Chain = chain
			chain.Footholds = append(chain.Footholds, cur)
			if cur.Next == nil {
				return fmt.Errorf("%w: foothold %d", ErrUnterminated, cur.ID)
			}
			cur = cur.Next
		}
		g.chains = append(g.chains, chain)
	}

	for _, chain := range g.chains {
		chain.Bounds = bounds(chain.Footholds)
	}
	return nil
}

func bounds(fhs []*Foothold) cp.BB {
	bb := cp.BB{L: math.Inf(1), B: math.Inf(1), R: math.Inf(-1), T: math.Inf(-1)}
	for _, fh := range fhs {
		for _, p := range []cp.Vector{fh.A, fh.B} {
			bb.L = math.Min(bb.L, p.X)
			bb.R = math.Max(bb.R, p.X)
			bb.B = math.Min(bb.B, p.Y)
			bb.T = math.Max(bb.T, p.Y)
		}
	}
	return bb
}

// Get returns the foothold with id.
func (g *Graph) Get(id int) (*Foothold, bool) {
	if g == nil {
		return nil, false
	}
	fh, ok := g.byID[id]
	return fh, ok
}

// Chains returns the chains in build order.
func (g *Graph) Chains() []*Chain {
	if g == nil {
		return nil
	}
	return g.chains
}

// Len is the number of footholds.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// Walk visits every foothold in id order.
func (g *Graph) Walk(fn func(*Foothold)) {
	if g == nil {
		return
	}
	fhs := append([]*Foothold(nil), g.order...)
	sort.Slice(fhs, func(i, j int) bool { return fhs[i].ID < fhs[j].ID })
	for _, fh := range fhs {
		fn(fh)
	}
}

// Below returns the nearest non-wall foothold strictly under (x, y), skipping
// the chain except.
func (g *Graph) Below(x, y float64, except *Chain) (*Foothold, bool) {
	if g == nil {
		return nil, false
	}
	var best *Foothold
	bestY := math.Inf(1)
	for _, chain := range g.chains {
		if chain == except || x < chain.Bounds.L || x > chain.Bounds.R || chain.Bounds.T <= y {
			continue
		}
		for _, fh := range chain.Footholds {
			fy, ok := fh.YAt(x)
			if !ok || fy <= y || fy >= bestY {
				continue
			}
			best, bestY = fh, fy
		}
	}
	return best, best != nil
}
