package netsync

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/motion"
)

// Flags packs the boolean locomotion state of a character.
type Flags uint16

const (
	FlagJumping Flags = 1 << iota
	FlagWalking
	FlagProne
	FlagDropping
	FlagLadder
	FlagKnockback
	FlagInvincible
	FlagOutOfControl
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// KeyBits packs motion.Keys.
type KeyBits uint8

const (
	KeyLeft KeyBits = 1 << iota
	KeyRight
	KeyUp
	KeyDown
	KeyJump
)

func PackKeys(k motion.Keys) KeyBits {
	var b KeyBits
	set := func(on bool, bit KeyBits) {
		if on {
			b |= bit
		}
	}
	set(k.Left, KeyLeft)
	set(k.Right, KeyRight)
	set(k.Up, KeyUp)
	set(k.Down, KeyDown)
	set(k.Jump, KeyJump)
	return b
}

func (b KeyBits) Keys() motion.Keys {
	return motion.Keys{
		Left:  b&KeyLeft != 0,
		Right: b&KeyRight != 0,
		Up:    b&KeyUp != 0,
		Down:  b&KeyDown != 0,
		Jump:  b&KeyJump != 0,
	}
}

// MoveRecord is the move update sent for one character. Positions are in
// space units and timers in milliseconds.
type MoveRecord struct {
	ID    uint64 `codec:"id"`
	Frame uint64 `codec:"fr"`

	X  float64 `codec:"x"`
	Y  float64 `codec:"y"`
	VX float64 `codec:"vx"`
	VY float64 `codec:"vy"`

	Foothold  int32   `codec:"fh"`
	Layer     int32   `codec:"ly"`
	Flags     Flags   `codec:"fl"`
	JumpCount uint8   `codec:"jc"`
	LadderDir int8    `codec:"ld"`
	Facing    int8    `codec:"fc"`
	Keys      KeyBits `codec:"k"`

	KnockbackMs      float32 `codec:"kb"`
	InvincibleMs     float32 `codec:"inv"`
	PortalCooldownMs float32 `codec:"pc"`
}

// FromSnapshot builds the record of character id at frame.
func FromSnapshot(id, frame uint64, s motion.Snapshot) MoveRecord {
	st := s.State
	var flags Flags
	set := func(on bool, flag Flags) {
		if on {
			flags |= flag
		}
	}
	set(st.Jumping, FlagJumping)
	set(st.Walking, FlagWalking)
	set(st.Prone, FlagProne)
	set(st.Dropping, FlagDropping)
	set(st.LadderEngaged, FlagLadder)
	set(st.InKnockback(), FlagKnockback)
	set(st.Invincible(), FlagInvincible)
	set(st.OutOfControl, FlagOutOfControl)

	return MoveRecord{
		ID:               id,
		Frame:            frame,
		X:                s.Position.X,
		Y:                s.Position.Y,
		VX:               s.Velocity.X,
		VY:               s.Velocity.Y,
		Foothold:         int32(s.Foothold),
		Layer:            int32(s.Layer),
		Flags:            flags,
		JumpCount:        uint8(st.JumpCount),
		LadderDir:        int8(st.LadderMoveDir),
		Facing:           int8(st.Facing),
		Keys:             PackKeys(s.Keys),
		KnockbackMs:      float32(st.KnockbackMs),
		InvincibleMs:     float32(st.InvincibleMs),
		PortalCooldownMs: float32(st.PortalCooldownMs),
	}
}

// Snapshot expands the record back into the read model.
func (r MoveRecord) Snapshot() motion.Snapshot {
	st := motion.NewState()
	st.Jumping = r.Flags.Has(FlagJumping)
	st.Walking = r.Flags.Has(FlagWalking)
	st.Prone = r.Flags.Has(FlagProne)
	st.Dropping = r.Flags.Has(FlagDropping)
	st.LadderEngaged = r.Flags.Has(FlagLadder)
	st.OutOfControl = r.Flags.Has(FlagOutOfControl)
	st.JumpCount = int(r.JumpCount)
	st.LadderMoveDir = int(r.LadderDir)
	if r.Facing != 0 {
		st.Facing = int(r.Facing)
	}
	st.KnockbackMs = float64(r.KnockbackMs)
	st.InvincibleMs = float64(r.InvincibleMs)
	st.PortalCooldownMs = float64(r.PortalCooldownMs)

	return motion.Snapshot{
		Position: cp.Vector{X: r.X, Y: r.Y},
		Velocity: cp.Vector{X: r.VX, Y: r.VY},
		Foothold: int(r.Foothold),
		Layer:    int(r.Layer),
		State:    st,
		Keys:     r.Keys.Keys(),
	}
}
