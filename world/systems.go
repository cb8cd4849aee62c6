package world

import (
	"github.com/milk9111/footsim/ecs"
	"go.uber.org/zap"
)

// intentSystem turns each character's keys into forces before the solve,
// in spawn order.
type intentSystem struct{}

func (intentSystem) Update(w *World) {
	for _, c := range w.controllers.Values() {
		c.PreStep()
	}
	w.ageBullets()
}

type solveSystem struct{}

func (solveSystem) Update(w *World) {
	w.stepping = true
	defer func() { w.stepping = false }()
	w.space.Step(w.ctx.FixedStep)
}

// commitSystem publishes the foothold claims gathered during the solve.
type commitSystem struct{}

func (commitSystem) Update(w *World) {
	for _, c := range w.controllers.Values() {
		c := c
		w.guard("commit", func() bool {
			c.Commit()
			return true
		}, func() {
			c.State().Jumping = true
		}, zap.Stringer("entity", c.ID))
	}
}

type afterStepSystem struct{}

func (afterStepSystem) Update(w *World) {
	ecs.Run(&w.afterStep)
}

type destroySystem struct{}

func (destroySystem) Update(w *World) {
	ecs.Run(&w.deferred)
}
