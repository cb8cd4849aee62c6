package ecs

type System[T any] interface {
	Update(T)
}

// SystemFunc adapts a function to a System.
type SystemFunc[T any] func(T)

func (f SystemFunc[T]) Update(v T) {
	f(v)
}

type Scheduler[T any] struct {
	systems []System[T]
}

func NewScheduler[T any](systems ...System[T]) *Scheduler[T] {
	copied := append([]System[T](nil), systems...)
	return &Scheduler[T]{systems: copied}
}

func (s *Scheduler[T]) Add(system System[T]) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

func (s *Scheduler[T]) Update(v T) {
	for _, system := range s.systems {
		system.Update(v)
	}
}

func (s *Scheduler[T]) Systems() []System[T] {
	systems := make([]System[T], 0, len(s.systems))
	return append(systems, s.systems...)
}
