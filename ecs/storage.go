package ecs

// entityStore tracks entity generations and free ids.
type entityStore struct {
	gen  []int
	free []int
}

func (s *entityStore) create() Entity {
	var id int
	if len(s.free) > 0 {
		id = s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
	} else {
		s.gen = append(s.gen, 0)
		id = len(s.gen)
	}
	return Entity{ID: id, Gen: s.gen[id-1]}
}

func (s *entityStore) destroy(e Entity) bool {
	if !s.isAlive(e) {
		return false
	}
	s.gen[e.ID-1]++
	s.free = append(s.free, e.ID)
	return true
}

func (s *entityStore) isAlive(e Entity) bool {
	if s == nil || e.ID <= 0 || e.ID > len(s.gen) {
		return false
	}
	return s.gen[e.ID-1] == e.Gen
}

// Registry hands out entities and remembers which are alive, in creation
// order.
type Registry struct {
	store entityStore
	alive SparseSet[Entity]
}

func (r *Registry) Create() Entity {
	e := r.store.create()
	r.alive.Set(e.ID, e)
	return e
}

// Destroy reports false for stale or unknown entities.
func (r *Registry) Destroy(e Entity) bool {
	if !r.store.destroy(e) {
		return false
	}
	r.alive.Remove(e.ID)
	return true
}

func (r *Registry) Alive(e Entity) bool {
	return r.store.isAlive(e)
}

func (r *Registry) Len() int {
	return r.alive.Len()
}

// Entities lists the live entities. The order is stable until an entity is
// destroyed.
func (r *Registry) Entities() []Entity {
	return append([]Entity(nil), r.alive.Values()...)
}
