package ground

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/foothold"
	"github.com/milk9111/footsim/motion"
	"github.com/milk9111/footsim/physics"
	"go.uber.org/zap"
)

var (
	ErrMissingFoothold = errors.New("ground: foothold missing from table")
	ErrNoContactPoints = errors.New("ground: contact without points")
)

// Walker is the character side of a terrain contact.
type Walker interface {
	FootBody() *cp.Body
	FootRadius() float64
	Feet() *motion.Feet
	State() *motion.State
}

// Ground owns the terrain bodies built from a foothold graph and decides,
// contact by contact, whether a foothold is solid for a character.
type Ground struct {
	ctx   *physics.Context
	space *cp.Space
	graph *foothold.Graph
	log   *zap.Logger

	bodies []*cp.Body
	shapes []*cp.Shape

	// Thresholds in space units.
	landingSpeed float64
	slowSpeed    float64
	penetration  float64
	edgeTol      float64
}

// Load creates one kinematic body per chain and one edge per foothold.
func Load(space *cp.Space, graph *foothold.Graph, ctx *physics.Context, log *zap.Logger) (*Ground, error) {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Ground{
		ctx:          ctx,
		space:        space,
		graph:        graph,
		log:          log.Named("ground"),
		landingSpeed: ctx.Pixels(ctx.LandingSpeed),
		slowSpeed:    ctx.Pixels(ctx.SlowSpeed),
		penetration:  ctx.Pixels(ctx.PenetrationTolerance),
		edgeTol:      ctx.Pixels(ctx.EdgeTolerance),
	}

	radius := ctx.Pixels(ctx.SegmentRadius)
	for _, chain := range graph.Chains() {
		body := cp.NewKinematicBody()
		chain.Body = body
		g.bodies = append(g.bodies, body)

		for _, fh := range chain.Footholds {
			if err := g.checkLinks(fh); err != nil {
				g.discard()
				return nil, err
			}
			shape := cp.NewSegment(body, fh.A, fh.B, radius)
			physics.Attach(shape, physics.KindTerrain, fh)
			shape.SetFriction(ctx.TerrainFriction)
			shape.SetElasticity(0)
			fh.Body = body
			fh.Shape = shape
			g.shapes = append(g.shapes, shape)
		}
	}

	for _, body := range g.bodies {
		space.AddBody(body)
	}
	for _, shape := range g.shapes {
		space.AddShape(shape)
	}

	g.log.Debug("terrain loaded",
		zap.Int("footholds", graph.Len()),
		zap.Int("chains", len(graph.Chains())),
		zap.Bool("ghost_vertices", ctx.GhostVertices),
	)
	return g, nil
}

func (g *Ground) checkLinks(fh *foothold.Foothold) error {
	for _, id := range []int{fh.PrevID, fh.NextID} {
		if id == foothold.None {
			continue
		}
		if _, ok := g.graph.Get(id); !ok {
			return fmt.Errorf("%w: %d linked from %d", ErrMissingFoothold, id, fh.ID)
		}
	}
	return nil
}

func (g *Ground) discard() {
	for _, chain := range g.graph.Chains() {
		chain.Body = nil
		for _, fh := range chain.Footholds {
			fh.Body, fh.Shape = nil, nil
		}
	}
	g.bodies, g.shapes = nil, nil
}

// Graph returns the foothold graph the terrain was built from.
func (g *Ground) Graph() *foothold.Graph {
	if g == nil {
		return nil
	}
	return g.graph
}

// Unload removes every terrain body from the space. It must not run while
// the space is stepping.
func (g *Ground) Unload() {
	if g == nil {
		return
	}
	for _, shape := range g.shapes {
		g.space.RemoveShape(shape)
	}
	for _, body := range g.bodies {
		g.space.RemoveBody(body)
	}
	g.discard()
}
