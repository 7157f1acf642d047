package icosdf

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Config groups every constant of the modeling, marching and shading recipe.
// [DefaultConfig] is the only supported recipe. The values are exposed so
// that renderers and tests refer to them by name.
type Config struct {
	Shape     ShapeConfig
	Animation AnimationConfig
	March     MarchConfig
	Shading   ShadingConfig
	Camera    CameraConfig
}

// ShapeConfig holds the dimensions of the perforated shell.
type ShapeConfig struct {
	// FoldLevel is the depth of kaleidoscopic folding, one of 0, 1 or 2.
	FoldLevel    int
	SphereRadius float32
	InnerRadius  float32
	// Spikes are capped cones from the origin along the edge, face and apex directions.
	SpikeBaseRadius float32
	SpikeHeights    [3]float32
	SpikeBlend      float32
	// Holes are lens shaped windows cut through the shell.
	WindowBlend   float32
	HoleThickness float32
	HoleClip      float32
	FinalBlend    float32
}

// AnimationConfig defines the time driven rotation of the shell, see [Spin].
type AnimationConfig struct {
	// Period of the animation phase. Phase wraps into [0, Period).
	Period float32
	// SwapDegrees is the fixed rotation around the x axis.
	SwapDegrees float32
	// TiltDegrees is the fixed rotation around the y axis.
	TiltDegrees float32
	// SpinDegrees is the rotation around the face direction per unit of phase.
	SpinDegrees float32
}

// MarchConfig bounds the sphere tracing loop.
type MarchConfig struct {
	MaxSteps    int
	HitEpsilon  float32
	MaxDistance float32
}

// ShadingConfig is the local illumination recipe.
type ShadingConfig struct {
	NormalEpsilon float32
	LightDir      ms3.Vec
	Albedo        float32

	DiffuseWeight float32
	AmbientWeight float32
	AmbientColor  ms3.Vec
	BackWeight    float32
	BackColor     ms3.Vec
	FresnelWeight float32

	ShadowSteps int
	ShadowTMin  float32
	ShadowTMax  float32
	// ShadowSharpness is the penumbra factor k in min(res, k*h/t).
	ShadowSharpness float32
	ShadowMinStep   float32
	ShadowMaxStep   float32
	// ShadowEpsilon ends the shadow march when the field drops below it.
	ShadowEpsilon float32

	// Ambient occlusion samples are spread linearly from AOMinRadius to AOMaxRadius along the normal.
	AOSamples   int
	AOMinRadius float32
	AOMaxRadius float32
	AODecay     float32
	AOScale     float32

	Background ms3.Vec
	Gamma      float32
}

// CameraConfig places the orbit camera. Distance is multiplied by zoom.
type CameraConfig struct {
	Direction   ms3.Vec
	Target      ms3.Vec
	Up          ms3.Vec
	Distance    float32
	FocalLength float32
}

// DefaultConfig returns the shell, marching and shading recipe.
func DefaultConfig() Config {
	return Config{
		Shape: ShapeConfig{
			FoldLevel:       1,
			SphereRadius:    1,
			InnerRadius:     0.97,
			SpikeBaseRadius: 0.05,
			SpikeHeights:    [3]float32{1.3, 1.7, 1.8},
			SpikeBlend:      0.12,
			WindowBlend:     0.08,
			HoleThickness:   0.02,
			HoleClip:        1.1,
			FinalBlend:      0.015,
		},
		Animation: AnimationConfig{
			Period:      4,
			SwapDegrees: 60,
			TiltDegrees: -36,
			SpinDegrees: 120,
		},
		March: MarchConfig{
			MaxSteps:    100,
			HitEpsilon:  0.001,
			MaxDistance: 20,
		},
		Shading: ShadingConfig{
			NormalEpsilon:   0.001,
			LightDir:        ms3.Unit(ms3.Vec{X: 0.6, Y: 0.7, Z: 0.5}),
			Albedo:          0.6,
			DiffuseWeight:   1.20,
			AmbientWeight:   0.80,
			AmbientColor:    ms3.Vec{X: 0.40, Y: 0.50, Z: 0.60},
			BackWeight:      0.30,
			BackColor:       ms3.Vec{X: 0.25, Y: 0.25, Z: 0.25},
			FresnelWeight:   0.20,
			ShadowSteps:     16,
			ShadowTMin:      0.02,
			ShadowTMax:      2.5,
			ShadowSharpness: 8,
			ShadowMinStep:   0.02,
			ShadowMaxStep:   0.10,
			ShadowEpsilon:   0.001,
			AOSamples:       5,
			AOMinRadius:     0.01,
			AOMaxRadius:     0.12,
			AODecay:         0.95,
			AOScale:         3,
			Background:      ms3.Vec{X: 0.04, Y: 0.045, Z: 0.05},
			Gamma:           2.2,
		},
		Camera: CameraConfig{
			Direction:   ms3.Vec{Z: 1},
			Up:          ms3.Vec{Y: 1},
			Distance:    4,
			FocalLength: 2,
		},
	}
}

// Validate checks all sub-configurations and returns the joined errors found.
func (cfg Config) Validate() error {
	return errors.Join(
		cfg.Shape.Validate(),
		cfg.Animation.Validate(),
		cfg.March.Validate(),
		cfg.Shading.Validate(),
		cfg.Camera.Validate(),
	)
}

func (cfg ShapeConfig) Validate() error {
	var errs []error
	if cfg.FoldLevel < 0 || cfg.FoldLevel > 2 {
		errs = append(errs, fmt.Errorf("fold level must be 0, 1 or 2, got %d", cfg.FoldLevel))
	}
	if cfg.SphereRadius <= 0 || cfg.InnerRadius <= 0 || cfg.InnerRadius >= cfg.SphereRadius {
		errs = append(errs, fmt.Errorf("invalid shell radii outer=%g inner=%g", cfg.SphereRadius, cfg.InnerRadius))
	}
	if cfg.SpikeBaseRadius < 0 {
		errs = append(errs, errors.New("negative spike base radius"))
	}
	for i, h := range cfg.SpikeHeights {
		if h <= 0 {
			errs = append(errs, fmt.Errorf("spike %d height must be positive", i))
		}
	}
	if cfg.SpikeBlend <= 0 || cfg.WindowBlend <= 0 || cfg.FinalBlend <= 0 {
		errs = append(errs, errors.New("blend radii must be positive"))
	}
	if cfg.HoleClip <= cfg.SphereRadius {
		errs = append(errs, errors.New("hole clip radius must enclose the shell"))
	}
	return errors.Join(errs...)
}

func (cfg AnimationConfig) Validate() error {
	if cfg.Period <= 0 || math32.IsInf(cfg.Period, 0) {
		return fmt.Errorf("invalid animation period %g", cfg.Period)
	}
	return nil
}

func (cfg MarchConfig) Validate() error {
	var errs []error
	if cfg.MaxSteps <= 0 {
		errs = append(errs, errors.New("march steps must be positive"))
	}
	if cfg.HitEpsilon <= 0 {
		errs = append(errs, errors.New("hit epsilon must be positive"))
	}
	if cfg.MaxDistance <= cfg.HitEpsilon {
		errs = append(errs, errors.New("max march distance too small"))
	}
	return errors.Join(errs...)
}

func (cfg ShadingConfig) Validate() error {
	var errs []error
	if cfg.NormalEpsilon <= 0 {
		errs = append(errs, errors.New("normal epsilon must be positive"))
	}
	if l := ms3.Norm(cfg.LightDir); math32.Abs(l-1) > 1e-4 {
		errs = append(errs, fmt.Errorf("light direction must be unit length, got norm %g", l))
	}
	if cfg.ShadowSteps <= 0 || cfg.ShadowTMax <= cfg.ShadowTMin || cfg.ShadowMinStep > cfg.ShadowMaxStep {
		errs = append(errs, errors.New("invalid soft shadow parameters"))
	}
	if cfg.AOSamples < 2 || cfg.AOMaxRadius <= cfg.AOMinRadius {
		errs = append(errs, errors.New("ambient occlusion needs at least 2 samples over a positive radius span"))
	}
	if cfg.Gamma <= 0 {
		errs = append(errs, errors.New("gamma must be positive"))
	}
	return errors.Join(errs...)
}

func (cfg CameraConfig) Validate() error {
	var errs []error
	if ms3.Norm(cfg.Direction) < epstol || ms3.Norm(cfg.Up) < epstol {
		errs = append(errs, errors.New("camera direction and up hint must be non-zero"))
	}
	if cfg.Distance <= 0 || cfg.FocalLength <= 0 {
		errs = append(errs, errors.New("camera distance and focal length must be positive"))
	}
	return errors.Join(errs...)
}
