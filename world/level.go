package world

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/character"
	"github.com/milk9111/footsim/ground"
	"github.com/milk9111/footsim/ladder"
	"github.com/milk9111/footsim/levels"
	"github.com/milk9111/footsim/prefabs"
	"go.uber.org/zap"
)

// LoadLevel replaces the terrain and climbable zones. Characters stay where
// they are and fall if nothing is under them.
func (w *World) LoadLevel(lvl *levels.Level) error {
	if w.stepping {
		return ErrStepping
	}
	graph, err := lvl.Graph()
	if err != nil {
		return err
	}

	w.unloadLevel()
	g, err := ground.Load(w.space, graph, w.ctx, w.log)
	if err != nil {
		return err
	}
	zones, err := ladder.Build(w.space, lvl.LadderRecords(), w.ctx)
	if err != nil {
		w.lock()
		g.Unload()
		w.unlock()
		return fmt.Errorf("world: %s: %w", lvl.Name, err)
	}

	w.level, w.graph, w.ground, w.zones = lvl, graph, g, zones
	w.log.Info("level loaded",
		zap.String("level", lvl.Name),
		zap.Int("footholds", graph.Len()),
		zap.Int("chains", len(graph.Chains())),
		zap.Int("zones", len(zones)),
	)
	return nil
}

func (w *World) unloadLevel() {
	if w.level == nil {
		return
	}
	w.lock()
	defer w.unlock()
	for _, z := range w.zones {
		z.Remove(w.space)
	}
	w.ground.Unload()
	w.level, w.graph, w.ground, w.zones = nil, nil, nil, nil
}

// SpawnPlayer places the local player at the named spawn point of the level,
// with the tuning from player.yaml.
func (w *World) SpawnPlayer(spawn string) (*character.Controller, error) {
	if w.level == nil {
		return nil, ErrNoLevel
	}
	sp, ok := w.level.Spawn(spawn)
	if !ok {
		return nil, fmt.Errorf("world: %s has no spawn %q", w.level.Name, spawn)
	}
	spec, err := prefabs.LoadPlayerSpec()
	if err != nil {
		return nil, err
	}
	return w.Spawn(SpawnOptions{
		Kind:     character.LocalPlayer,
		Name:     "player",
		Position: cp.Vector{X: sp.X, Y: sp.Y},
		Spec:     spec,
	})
}

// SpawnMobs places every mob listed by the level.
func (w *World) SpawnMobs() ([]*character.Controller, error) {
	if w.level == nil {
		return nil, ErrNoLevel
	}
	var out []*character.Controller
	for _, m := range w.level.Mobs {
		spec, err := prefabs.LoadMobSpec(m.Prefab)
		if err != nil {
			return out, err
		}
		behavior := spec.Behavior
		if r := m.Region(); r != nil {
			behavior.Region = r
		}
		c, err := w.Spawn(SpawnOptions{
			Kind:     character.Mob,
			Name:     m.Prefab,
			Position: cp.Vector{X: m.X, Y: m.Y},
			Spec:     &spec.CharacterSpec,
			Behavior: &behavior,
		})
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}
