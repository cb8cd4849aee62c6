package prefabs

import (
	"fmt"
	"strings"
)

type SizeSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type LadderSpec struct {
	Speed          float64 `yaml:"speed"`
	Tolerance      float64 `yaml:"tolerance"`
	GrabMargin     float64 `yaml:"grab_margin"`
	JumpOffImpulse float64 `yaml:"jump_off_impulse"`
}

// CharacterSpec is the physical tuning of a character. Lengths are meters,
// speeds meters per second, durations milliseconds.
type CharacterSpec struct {
	Name             string     `yaml:"name"`
	Torso            SizeSpec   `yaml:"torso"`
	FootRadius       float64    `yaml:"foot_radius"`
	TorsoMass        float64    `yaml:"torso_mass"`
	FootMass         float64    `yaml:"foot_mass"`
	Friction         float64    `yaml:"friction"`
	WalkSpeed        float64    `yaml:"walk_speed"`
	JumpSpeed        float64    `yaml:"jump_speed"`
	MaxJumps         int        `yaml:"max_jumps"`
	AirControl       float64    `yaml:"air_control"`
	BrakeFactor      float64    `yaml:"brake_factor"`
	KnockbackImpulse float64    `yaml:"knockback_impulse"`
	KnockbackMs      float64    `yaml:"knockback_ms"`
	InvincibleMs     float64    `yaml:"invincible_ms"`
	Ladder           LadderSpec `yaml:"ladder"`
}

type ActionSpec struct {
	Kind       string  `yaml:"kind"`
	Weight     int     `yaml:"weight"`
	MinRepeat  int     `yaml:"min_repeat"`
	MaxRepeat  int     `yaml:"max_repeat"`
	DurationMs float64 `yaml:"duration_ms"`
}

// RegionSpec bounds a mob horizontally, in map pixels.
type RegionSpec struct {
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
}

type BehaviorSpec struct {
	IntervalMs float64      `yaml:"interval_ms"`
	Actions    []ActionSpec `yaml:"actions"`
	Script     string       `yaml:"script"`
	Region     *RegionSpec  `yaml:"region"`
}

type MobSpec struct {
	CharacterSpec `yaml:",inline"`
	Behavior      BehaviorSpec `yaml:"behavior"`
}

func LoadCharacterSpec(filename string) (*CharacterSpec, error) {
	spec, err := LoadSpec[CharacterSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

func LoadPlayerSpec() (*CharacterSpec, error) {
	return LoadCharacterSpec("player.yaml")
}

// LoadMobSpec loads mob_<name>.yaml, or name itself when it already names a
// yaml file.
func LoadMobSpec(name string) (*MobSpec, error) {
	filename := name
	if !isSpecFile(name) {
		filename = fmt.Sprintf("mob_%s.yaml", strings.ToLower(name))
	}
	spec, err := LoadSpec[MobSpec](filename)
	if err != nil {
		return nil, err
	}
	if spec.Behavior.IntervalMs < 0 {
		return nil, fmt.Errorf("prefabs: %s: negative interval_ms", filename)
	}
	return &spec, nil
}
