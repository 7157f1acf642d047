// Package icosdf models a perforated shell with icosahedral symmetry as a
// signed distance field. The field is evaluated on the CPU through [gleval.SDF3]
// and can be emitted as GLSL through [glbuild.Shader3D].
package icosdf

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	largenum = 1e20
	// epstol is used to check for badly conditioned denominators
	// such as lengths used for normalization.
	epstol = 6e-7
)

// Builder wraps shell and animation node generation.
// Provides error handling strategies with panics or error accumulation during shape generation.
type Builder struct {
	NoDimensionPanic bool
	accumErrs        []error
}

// Err returns all accumulated shape errors joined. Returns nil if no errors were found.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if !bld.NoDimensionPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

// NewShell returns the perforated icosahedral shell described by cfg using the
// process-wide [DefaultBasis].
func (bld *Builder) NewShell(cfg ShapeConfig) *Shell {
	if err := cfg.Validate(); err != nil {
		bld.shapeErrorf("shell config: %s", err)
	}
	return newShell(cfg, DefaultBasis())
}

// Animate returns the shell rotated to its pose at animTime, see [Spin].
func (bld *Builder) Animate(s *Shell, anim AnimationConfig, animTime float32) *Animated {
	if s == nil {
		panic("nil shell argument to Animate")
	}
	if math32.IsNaN(animTime) || math32.IsInf(animTime, 0) {
		bld.shapeErrorf("non-finite animation time %v", animTime)
		animTime = 0
	}
	if err := anim.Validate(); err != nil {
		bld.shapeErrorf("animation config: %s", err)
	}
	return newAnimated(s, anim, animTime)
}

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

func absf(a float32) float32 {
	return math32.Abs(a)
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}

func mixf(x, y, a float32) float32 {
	return x*(1-a) + y*a
}

func mid(a, b ms3.Vec) ms3.Vec {
	return ms3.Scale(0.5, ms3.Add(a, b))
}

// mirror reflects v across the plane through the origin with unit normal n.
func mirror(v, n ms3.Vec) ms3.Vec {
	return ms3.Sub(v, ms3.Scale(2*ms3.Dot(v, n), n))
}

func unitSum(vecs ...ms3.Vec) ms3.Vec {
	var sum ms3.Vec
	for _, v := range vecs {
		sum = ms3.Add(sum, v)
	}
	return ms3.Unit(sum)
}

func hashvec3(vecs ...ms3.Vec) float32 {
	var hashA float32 = 0.0
	var hashB float32 = 1.0
	for _, v := range vecs {
		hashA, hashB = hashAdd(hashA, hashB, v.X)
		hashA, hashB = hashAdd(hashA, hashB, v.Y)
		hashA, hashB = hashAdd(hashA, hashB, v.Z)
	}
	return hashfint(hashA + hashB)
}

func hashf(values []float32) float32 {
	var hashA float32 = 0.0
	var hashB float32 = 1.0
	for _, num := range values {
		hashA, hashB = hashAdd(hashA, hashB, num)
	}
	return hashfint(hashA + hashB)
}

func hashAdd(a, b, num float32) (aNew, bNew float32) {
	const prime = 31.0
	a += num
	b *= (prime + num)
	a = hashfint(a)
	b = hashfint(b)
	return a, b
}

func hashfint(f float32) float32 {
	return float32(int(f*1000000)%1000000) / 1000000 // Keep within [0.0, 1.0)
}
