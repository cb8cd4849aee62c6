package physics

import "github.com/jakecoffman/cp"

// Phase is the stage of a contact reported by the engine.
type Phase int

const (
	ContactBegin Phase = iota
	PreSolve
	ContactEnd
)

func (p Phase) String() string {
	switch p {
	case ContactBegin:
		return "begin"
	case PreSolve:
		return "presolve"
	case ContactEnd:
		return "end"
	}
	return "unknown"
}

// ContactEvent is one engine callback, normalized so Self is the shape whose
// kind the handler was registered with first.
type ContactEvent struct {
	Phase   Phase
	Self    *Tag
	Other   *Tag
	Arbiter *cp.Arbiter
}
