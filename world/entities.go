package world

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/character"
	"github.com/milk9111/footsim/ecs"
	"github.com/milk9111/footsim/motion"
	"github.com/milk9111/footsim/netsync"
	"github.com/milk9111/footsim/prefabs"
)

// SpawnOptions describes a character to add. Position is where its feet
// go, in space units. A nil Spec takes the default tuning.
type SpawnOptions struct {
	Kind     character.Kind
	Name     string
	Position cp.Vector
	Spec     *prefabs.CharacterSpec
	Behavior *prefabs.BehaviorSpec
	Layer    int
}

// Spawn adds a character. Spawning while the space steps is refused; queue
// it with AfterStep instead.
func (w *World) Spawn(opts SpawnOptions) (*character.Controller, error) {
	if w.stepping {
		return nil, ErrStepping
	}

	var mob *character.MobBehavior
	if opts.Kind == character.Mob {
		spec := prefabs.BehaviorSpec{}
		if opts.Behavior != nil {
			spec = *opts.Behavior
		}
		b, err := character.NewMobBehavior(spec, w.nextSeed(), w.log)
		if err != nil {
			return nil, fmt.Errorf("world: spawn %s: %w", opts.Name, err)
		}
		mob = b
	}

	e := w.registry.Create()
	c, err := character.New(w, character.Options{
		ID:       e,
		Kind:     opts.Kind,
		Name:     opts.Name,
		Tuning:   character.NewTuning(opts.Spec, w.ctx),
		Position: opts.Position,
		Layer:    opts.Layer,
		Mob:      mob,
	}, w.log)
	if err != nil {
		w.registry.Destroy(e)
		return nil, err
	}
	w.controllers.Set(e.ID, c)
	return c, nil
}

// Remove takes a character out of the world, after the step when called
// from inside one.
func (w *World) Remove(e ecs.Entity) error {
	c, ok := w.Controller(e)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, e)
	}
	w.Destroy(func() {
		if !w.registry.Alive(e) {
			return
		}
		w.lock()
		defer w.unlock()
		w.release(e)
		c.Remove()
		w.controllers.Remove(e.ID)
		w.registry.Destroy(e)
	})
	return nil
}

func (w *World) Controller(e ecs.Entity) (*character.Controller, bool) {
	if !w.registry.Alive(e) {
		return nil, false
	}
	return w.controllers.Get(e.ID)
}

// SetKeys sets the intent a character uses on the next step.
func (w *World) SetKeys(e ecs.Entity, keys motion.Keys) error {
	c, ok := w.Controller(e)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, e)
	}
	c.SetKeys(keys)
	return nil
}

// MoveTo applies a network move update, after the step when called from
// inside one.
func (w *World) MoveTo(e ecs.Entity, rec netsync.MoveRecord) error {
	c, ok := w.Controller(e)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, e)
	}
	if w.stepping {
		w.AfterStep(func() { c.MoveTo(rec) })
		return nil
	}
	c.MoveTo(rec)
	return nil
}

// EntitySnapshot pairs a character's read model with its entity.
type EntitySnapshot struct {
	Entity   ecs.Entity
	Kind     character.Kind
	Snapshot motion.Snapshot
}

// Snapshots returns every character's state in spawn order.
func (w *World) Snapshots() []EntitySnapshot {
	out := make([]EntitySnapshot, 0, w.controllers.Len())
	for _, c := range w.controllers.Values() {
		out = append(out, EntitySnapshot{Entity: c.ID, Kind: c.Kind, Snapshot: c.Snapshot()})
	}
	return out
}

// Records builds the move updates of the local characters whose state
// changed since the tracker last saw them.
func (w *World) Records(tr *netsync.Tracker) []netsync.MoveRecord {
	var out []netsync.MoveRecord
	for _, s := range w.Snapshots() {
		if s.Kind == character.RemotePlayer {
			continue
		}
		if !tr.Observe(s.Entity.Key(), s.Snapshot).Dirty() {
			continue
		}
		out = append(out, netsync.FromSnapshot(s.Entity.Key(), w.frame, s.Snapshot))
	}
	return out
}
