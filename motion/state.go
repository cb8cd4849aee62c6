package motion

import "math"

// Phase is the locomotion state derived from the flags.
type Phase int

const (
	Grounded Phase = iota
	Airborne
	LadderEngaged
	Dropping
	Knockback
)

func (p Phase) String() string {
	switch p {
	case Grounded:
		return "grounded"
	case Airborne:
		return "airborne"
	case LadderEngaged:
		return "ladder"
	case Dropping:
		return "dropping"
	case Knockback:
		return "knockback"
	}
	return "unknown"
}

// State holds the locomotion flags and timers of one character. Timers are
// milliseconds and never go negative.
type State struct {
	Jumping       bool
	JumpCount     int
	Walking       bool
	Prone         bool
	Dropping      bool
	LadderEngaged bool
	LadderMoveDir int // -1 up, 0 still, +1 down
	OutOfControl  bool
	Facing        int // -1 left, +1 right

	KnockbackMs      float64
	InvincibleMs     float64
	PortalCooldownMs float64
}

// NewState returns a character standing still and facing right.
func NewState() State {
	return State{Facing: 1}
}

// Expired lists the timers that reached zero during a Tick.
type Expired struct {
	Knockback      bool
	Invincible     bool
	PortalCooldown bool
}

// Tick advances every timer by dtMs. A knockback that runs out hands control
// back to the character.
func (s *State) Tick(dtMs float64) Expired {
	var out Expired
	out.Knockback = tick(&s.KnockbackMs, dtMs)
	out.Invincible = tick(&s.InvincibleMs, dtMs)
	out.PortalCooldown = tick(&s.PortalCooldownMs, dtMs)
	if out.Knockback {
		s.OutOfControl = false
	}
	return out
}

func tick(v *float64, dt float64) bool {
	if *v <= 0 {
		return false
	}
	*v = math.Max(0, *v-dt)
	return *v == 0
}

func (s *State) Invincible() bool { return s.InvincibleMs > 0 }
func (s *State) PortalReady() bool { return s.PortalCooldownMs <= 0 }
func (s *State) InKnockback() bool { return s.KnockbackMs > 0 }

// ResetJump marks the character as standing with its jumps restored.
func (s *State) ResetJump() {
	s.Jumping = false
	s.JumpCount = 0
}

// Face turns toward dir, keeping the current facing when dir is 0.
func (s *State) Face(dir int) {
	s.Facing = faceOf(dir, s.Facing)
}

// CanAct reports whether intent may drive the character.
func (s *State) CanAct() bool {
	return !s.OutOfControl && !s.InKnockback()
}

func faceOf(dir, fallback int) int {
	switch {
	case dir < 0:
		return -1
	case dir > 0:
		return 1
	}
	return fallback
}

// Phase derives the dominant state. Knockback wins over everything, then the
// ladder, then a drop in progress.
func (s *State) Phase() Phase {
	switch {
	case s.InKnockback():
		return Knockback
	case s.LadderEngaged:
		return LadderEngaged
	case s.Dropping:
		return Dropping
	case s.Jumping:
		return Airborne
	}
	return Grounded
}
