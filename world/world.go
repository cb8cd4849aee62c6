package world

import (
	"errors"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/character"
	"github.com/milk9111/footsim/ecs"
	"github.com/milk9111/footsim/foothold"
	"github.com/milk9111/footsim/ground"
	"github.com/milk9111/footsim/ladder"
	"github.com/milk9111/footsim/levels"
	"github.com/milk9111/footsim/physics"
	"go.uber.org/zap"
)

var (
	ErrStepping      = errors.New("world: not allowed while the space is stepping")
	ErrUnknownEntity = errors.New("world: unknown entity")
	ErrNoLevel       = errors.New("world: no level loaded")
)

// World owns the physics space and runs the fixed-step loop over every
// character in it.
type World struct {
	ctx   *physics.Context
	space *cp.Space
	log   *zap.Logger

	registry    ecs.Registry
	controllers ecs.SparseSet[*character.Controller]
	bullets     ecs.SparseSet[*bullet]
	drags       ecs.SparseSet[*drag]

	level  *levels.Level
	graph  *foothold.Graph
	ground *ground.Ground
	zones  []*ladder.Zone

	scheduler *ecs.Scheduler[*World]
	afterStep ecs.Queue[func()]
	deferred  ecs.Queue[func()]
	stepping  bool
	removing  int
	frame     uint64
	faults    int
	seed      uint64
}

// New creates an empty world. A nil context takes the defaults.
func New(ctx *physics.Context, log *zap.Logger) *World {
	if ctx == nil {
		ctx = physics.DefaultContext()
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &World{
		ctx:   ctx,
		space: ctx.NewSpace(),
		log:   log.Named("world"),
		seed:  1,
	}
	w.scheduler = ecs.NewScheduler[*World](
		intentSystem{},
		solveSystem{},
		commitSystem{},
		afterStepSystem{},
		destroySystem{},
	)
	w.installHandlers()
	return w
}

func (w *World) Space() *cp.Space { return w.space }
func (w *World) Context() *physics.Context { return w.ctx }
func (w *World) Graph() *foothold.Graph { return w.graph }
func (w *World) Level() *levels.Level { return w.level }
func (w *World) Zones() []*ladder.Zone { return w.zones }
func (w *World) Frame() uint64 { return w.frame }
func (w *World) Stepping() bool { return w.stepping }
func (w *World) Faults() int { return w.faults }
func (w *World) Logger() *zap.Logger { return w.log }
func (w *World) Entities() []ecs.Entity { return w.registry.Entities() }
func (w *World) Characters() []*character.Controller {
	return append([]*character.Controller(nil), w.controllers.Values()...)
}

// SetSeed makes mob behavior reproducible.
func (w *World) SetSeed(seed uint64) {
	w.seed = seed
}

// Step advances the simulation by one fixed step.
func (w *World) Step() {
	if w.stepping {
		panic(ErrStepping)
	}
	w.scheduler.Update(w)
	w.frame++
}

// locked reports whether bodies, shapes and constraints must not be removed
// right now.
func (w *World) locked() bool {
	return w.stepping || w.removing > 0
}

// lock brackets removals that fire separate callbacks.
func (w *World) lock() {
	w.removing++
}

func (w *World) unlock() {
	w.removing--
	if !w.locked() {
		ecs.Run(&w.deferred)
	}
}

// AfterStep queues fn to run once after the next commit. Functions run in
// the order they were queued.
func (w *World) AfterStep(fn func()) {
	if fn != nil {
		w.afterStep.Push(fn)
	}
}

// Destroy runs fn now, or after the step when the space is locked.
func (w *World) Destroy(fn func()) {
	if fn == nil {
		return
	}
	if w.locked() {
		w.deferred.Push(fn)
		return
	}
	fn()
}

func (w *World) RemoveConstraint(c *cp.Constraint) {
	w.Destroy(func() {
		if c != nil && w.space.ContainsConstraint(c) {
			w.space.RemoveConstraint(c)
		}
	})
}

// RemoveBody removes body and its shapes.
func (w *World) RemoveBody(body *cp.Body) {
	w.Destroy(func() {
		if body == nil || !w.space.ContainsBody(body) {
			return
		}
		var shapes []*cp.Shape
		var constraints []*cp.Constraint
		body.EachShape(func(s *cp.Shape) { shapes = append(shapes, s) })
		body.EachConstraint(func(c *cp.Constraint) { constraints = append(constraints, c) })

		w.lock()
		defer w.unlock()
		for _, c := range constraints {
			if w.space.ContainsConstraint(c) {
				w.space.RemoveConstraint(c)
			}
		}
		for _, s := range shapes {
			if w.space.ContainsShape(s) {
				w.space.RemoveShape(s)
			}
		}
		w.space.RemoveBody(body)
	})
}

func (w *World) nextSeed() uint64 {
	w.seed = w.seed*6364136223846793005 + 1442695040888963407
	return w.seed
}
