package world

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/character"
	"github.com/milk9111/footsim/common"
	"github.com/milk9111/footsim/ecs"
	"github.com/milk9111/footsim/physics"
	"go.uber.org/zap"
)

// BulletOptions describes a projectile in space units. Owner is never hit
// by its own bullet.
type BulletOptions struct {
	Owner    ecs.Entity
	Position cp.Vector
	Velocity cp.Vector
	Radius   float64
	LifeMs   float64
}

type bullet struct {
	entity ecs.Entity
	owner  ecs.Entity
	body   *cp.Body
	shape  *cp.Shape
	ageMs  float64
	lifeMs float64
	spent  bool
}

// SpawnBullet fires a weightless projectile. It knocks back the first
// character it touches and disappears on walls or when its life runs out.
func (w *World) SpawnBullet(opts BulletOptions) (ecs.Entity, error) {
	if w.stepping {
		return ecs.Entity{}, ErrStepping
	}
	if opts.Radius <= 0 {
		opts.Radius = w.ctx.Pixels(0.05)
	}
	if opts.LifeMs <= 0 {
		opts.LifeMs = 2000
	}

	const mass = 0.1
	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, opts.Radius, cp.Vector{}))
	body.SetPosition(opts.Position)
	body.SetVelocityVector(opts.Velocity)
	body.SetVelocityUpdateFunc(physics.Weightless)

	shape := cp.NewCircle(body, opts.Radius, cp.Vector{})
	shape.SetSensor(true)

	b := &bullet{
		entity: w.registry.Create(),
		owner:  opts.Owner,
		body:   body,
		shape:  shape,
		lifeMs: opts.LifeMs,
	}
	physics.Attach(shape, physics.KindBullet, b)
	w.space.AddBody(body)
	w.space.AddShape(shape)
	w.bullets.Set(b.entity.ID, b)
	return b.entity, nil
}

// Bullets is the number of live projectiles.
func (w *World) Bullets() int {
	return w.bullets.Len()
}

func (w *World) ageBullets() {
	dt := w.ctx.StepMs()
	for _, b := range append([]*bullet(nil), w.bullets.Values()...) {
		b.ageMs += dt
		if b.ageMs >= b.lifeMs {
			w.expire(b)
		}
	}
}

func (w *World) strike(b *bullet, c *character.Controller) {
	dir := common.Sign(b.body.Velocity().X)
	if c.Hit(dir) {
		w.log.Debug("bullet hit", zap.Stringer("bullet", b.entity), zap.Stringer("target", c.ID))
	}
	w.expire(b)
}

// expire removes a bullet once; the removal waits for the step to end.
func (w *World) expire(b *bullet) {
	if b.spent {
		return
	}
	b.spent = true
	w.Destroy(func() {
		w.RemoveBody(b.body)
		w.bullets.Remove(b.entity.ID)
		w.registry.Destroy(b.entity)
	})
}
