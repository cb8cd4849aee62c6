package world

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/character"
	"github.com/milk9111/footsim/foothold"
	"github.com/milk9111/footsim/ladder"
	"github.com/milk9111/footsim/physics"
	"go.uber.org/zap"
)

// installHandlers routes every contact the simulation cares about. Shapes
// arrive in handler order, so the first tag is always the character or the
// bullet.
func (w *World) installHandlers() {
	foot := w.space.NewCollisionHandler(physics.KindCharacterFoot.CollisionType(), physics.KindTerrain.CollisionType())
	foot.PreSolveFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		return w.contact(arb, physics.PreSolve, func(c *character.Controller, ev physics.ContactEvent) bool {
			if w.ground == nil {
				return false
			}
			return w.ground.PreSolve(ev.Other.Owner.(*foothold.Foothold), c, ev.Arbiter)
		})
	}
	foot.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
		w.contact(arb, physics.ContactEnd, func(c *character.Controller, ev physics.ContactEvent) bool {
			fh := ev.Other.Owner.(*foothold.Foothold)
			if w.ground == nil {
				c.Feet().Release(fh)
				return true
			}
			w.ground.Separate(fh, c)
			return true
		})
	}

	// The torso only collides with walls; floors belong to the foot.
	torso := w.space.NewCollisionHandler(physics.KindCharacterTorso.CollisionType(), physics.KindTerrain.CollisionType())
	torso.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		return w.contact(arb, physics.ContactBegin, func(_ *character.Controller, ev physics.ContactEvent) bool {
			return ev.Other.Owner.(*foothold.Foothold).IsWall()
		})
	}

	zone := w.space.NewCollisionHandler(physics.KindCharacterFoot.CollisionType(), physics.KindLadderZone.CollisionType())
	zone.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		w.contact(arb, physics.ContactBegin, func(c *character.Controller, ev physics.ContactEvent) bool {
			c.OnLadderBegin(ev.Other.Owner.(*ladder.Zone))
			return true
		})
		return true
	}
	zone.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
		w.contact(arb, physics.ContactEnd, func(c *character.Controller, ev physics.ContactEvent) bool {
			c.OnLadderEnd(ev.Other.Owner.(*ladder.Zone))
			return true
		})
	}

	wall := w.space.NewCollisionHandler(physics.KindBullet.CollisionType(), physics.KindTerrain.CollisionType())
	wall.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		return w.bulletContact(arb, func(b *bullet, other *physics.Tag) bool {
			if other.Owner.(*foothold.Foothold).IsWall() {
				w.expire(b)
			}
			return false
		})
	}
	for _, kind := range []physics.Kind{physics.KindCharacterTorso, physics.KindCharacterFoot} {
		hit := w.space.NewCollisionHandler(physics.KindBullet.CollisionType(), kind.CollisionType())
		hit.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
			return w.bulletContact(arb, func(b *bullet, other *physics.Tag) bool {
				c, ok := other.Owner.(*character.Controller)
				if !ok || b.spent || c.ID == b.owner {
					return false
				}
				w.strike(b, c)
				return false
			})
		}
	}
}

// contact unpacks a character contact and runs fn behind the fault boundary.
func (w *World) contact(arb *cp.Arbiter, phase physics.Phase, fn func(c *character.Controller, ev physics.ContactEvent) bool) bool {
	return w.guard(phase.String(), func() bool {
		a, b := arb.Shapes()
		self, ok := physics.TagOf(a)
		if !ok {
			panic(fmt.Errorf("world: untagged shape in %s contact", phase))
		}
		other, ok := physics.TagOf(b)
		if !ok {
			panic(fmt.Errorf("world: untagged shape in %s contact", phase))
		}
		c, ok := self.Owner.(*character.Controller)
		if !ok {
			panic(fmt.Errorf("world: %s shape owned by %T", self.Kind, self.Owner))
		}
		return fn(c, physics.ContactEvent{Phase: phase, Self: self, Other: other, Arbiter: arb})
	}, nil)
}

func (w *World) bulletContact(arb *cp.Arbiter, fn func(b *bullet, other *physics.Tag) bool) bool {
	return w.guard("bullet", func() bool {
		a, b := arb.Shapes()
		self, _ := physics.TagOf(a)
		other, ok := physics.TagOf(b)
		if self == nil || !ok {
			panic(fmt.Errorf("world: untagged shape in bullet contact"))
		}
		return fn(self.Owner.(*bullet), other)
	}, nil)
}

// guard runs fn and turns a panic into a logged fault. The contact is
// disabled and repair, when set, patches the state left behind.
// Development loggers re-panic from DPanic.
func (w *World) guard(what string, fn func() bool, repair func(), fields ...zap.Field) (ok bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ok = false
		w.faults++
		if repair != nil {
			repair()
		}
		fields = append(fields, zap.String("in", what), zap.Uint64("frame", w.frame), zap.Any("panic", r))
		w.log.DPanic("simulation fault", fields...)
	}()
	return fn()
}
