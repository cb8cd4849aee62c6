package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type VectorSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// WorldSpec holds the simulation context. Zero fields keep their defaults.
type WorldSpec struct {
	Name               string      `yaml:"name"`
	PixelsPerMeter     float64     `yaml:"pixels_per_meter"`
	Gravity            *VectorSpec `yaml:"gravity"`
	FixedStep          float64     `yaml:"fixed_step"`
	VelocityIterations int         `yaml:"velocity_iterations"`
	PositionIterations int         `yaml:"position_iterations"`
	MaxFallSpeed       float64     `yaml:"max_fall_speed"`
	Contact            ContactSpec `yaml:"contact"`
	Ladder             ZoneSpec    `yaml:"ladder"`
}

type ContactSpec struct {
	LandingSpeed         float64 `yaml:"landing_speed"`
	SlowSpeed            float64 `yaml:"slow_speed"`
	PenetrationTolerance float64 `yaml:"penetration_tolerance"`
	EdgeTolerance        float64 `yaml:"edge_tolerance"`
	GhostVertices        bool    `yaml:"ghost_vertices"`
	SegmentRadius        float64 `yaml:"segment_radius"`
	Friction             float64 `yaml:"friction"`
}

type ZoneSpec struct {
	HalfWidth float64 `yaml:"half_width"`
	Reach     float64 `yaml:"reach"`
}

func LoadWorldSpec() (*WorldSpec, error) {
	spec, err := LoadSpec[WorldSpec]("world.yaml")
	if err != nil {
		return nil, err
	}
	return &spec, nil
}
