package motion

import "github.com/jakecoffman/cp"

// Keys is the normalized intent of one character for one step.
type Keys struct {
	Left  bool
	Right bool
	Up    bool
	Down  bool
	Jump  bool
}

// Horizontal is -1, 0 or +1.
func (k Keys) Horizontal() int {
	dir := 0
	if k.Left {
		dir--
	}
	if k.Right {
		dir++
	}
	return dir
}

// Vertical is -1 for up, +1 for down.
func (k Keys) Vertical() int {
	dir := 0
	if k.Up {
		dir--
	}
	if k.Down {
		dir++
	}
	return dir
}

// Snapshot is the read model exposed to rendering and network sync.
type Snapshot struct {
	Position cp.Vector
	Velocity cp.Vector
	Foothold int
	Layer    int
	State    State
	Keys     Keys
}
