package character

import (
	"github.com/milk9111/footsim/physics"
	"github.com/milk9111/footsim/prefabs"
)

// Tuning is a character's physical setup in space units (pixels, pixels per
// second) and milliseconds.
type Tuning struct {
	TorsoWidth  float64
	TorsoHeight float64
	FootRadius  float64
	TorsoMass   float64
	FootMass    float64
	Friction    float64

	WalkSpeed   float64
	JumpSpeed   float64
	MaxJumps    int
	AirControl  float64 // px/s^2
	BrakeFactor float64 // share of current speed shed per step, 0..1

	KnockbackImpulse float64 // px/s velocity change
	KnockbackMs      float64
	InvincibleMs     float64

	LadderSpeed     float64
	LadderTolerance float64
	LadderJumpOff   float64 // px/s velocity change
}

var defaultSpec = prefabs.CharacterSpec{
	Torso:            prefabs.SizeSpec{Width: 0.2, Height: 0.3},
	FootRadius:       0.1,
	TorsoMass:        1,
	FootMass:         1,
	Friction:         1,
	WalkSpeed:        1.25,
	JumpSpeed:        5.5,
	MaxJumps:         1,
	AirControl:       6,
	BrakeFactor:      0.5,
	KnockbackImpulse: 2,
	KnockbackMs:      400,
	InvincibleMs:     2000,
	Ladder: prefabs.LadderSpec{
		Speed:          1,
		Tolerance:      0.15,
		GrabMargin:     0.1,
		JumpOffImpulse: 2,
	},
}

// DefaultTuning is the built-in player tuning.
func DefaultTuning(ctx *physics.Context) Tuning {
	return NewTuning(&defaultSpec, ctx)
}

// NewTuning converts a spec in meters into space units. Zero fields take the
// built-in defaults.
func NewTuning(spec *prefabs.CharacterSpec, ctx *physics.Context) Tuning {
	s := defaultSpec
	if spec != nil {
		s = merge(*spec)
	}
	return Tuning{
		TorsoWidth:       ctx.Pixels(s.Torso.Width),
		TorsoHeight:      ctx.Pixels(s.Torso.Height),
		FootRadius:       ctx.Pixels(s.FootRadius),
		TorsoMass:        s.TorsoMass,
		FootMass:         s.FootMass,
		Friction:         s.Friction,
		WalkSpeed:        ctx.Pixels(s.WalkSpeed),
		JumpSpeed:        ctx.Pixels(s.JumpSpeed),
		MaxJumps:         s.MaxJumps,
		AirControl:       ctx.Pixels(s.AirControl),
		BrakeFactor:      s.BrakeFactor,
		KnockbackImpulse: ctx.Pixels(s.KnockbackImpulse),
		KnockbackMs:      s.KnockbackMs,
		InvincibleMs:     s.InvincibleMs,
		LadderSpeed:      ctx.Pixels(s.Ladder.Speed),
		LadderTolerance:  ctx.Pixels(s.Ladder.Tolerance),
		LadderJumpOff:    ctx.Pixels(s.Ladder.JumpOffImpulse),
	}
}

func merge(s prefabs.CharacterSpec) prefabs.CharacterSpec {
	d := defaultSpec
	pick := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	pick(&s.Torso.Width, d.Torso.Width)
	pick(&s.Torso.Height, d.Torso.Height)
	pick(&s.FootRadius, d.FootRadius)
	pick(&s.TorsoMass, d.TorsoMass)
	pick(&s.FootMass, d.FootMass)
	pick(&s.Friction, d.Friction)
	pick(&s.WalkSpeed, d.WalkSpeed)
	pick(&s.JumpSpeed, d.JumpSpeed)
	pick(&s.BrakeFactor, d.BrakeFactor)
	pick(&s.KnockbackImpulse, d.KnockbackImpulse)
	pick(&s.KnockbackMs, d.KnockbackMs)
	pick(&s.Ladder.Speed, d.Ladder.Speed)
	pick(&s.Ladder.Tolerance, d.Ladder.Tolerance)
	pick(&s.Ladder.JumpOffImpulse, d.Ladder.JumpOffImpulse)
	if s.MaxJumps <= 0 {
		s.MaxJumps = d.MaxJumps
	}
	if s.BrakeFactor > 1 {
		s.BrakeFactor = 1
	}
	return s
}
