package glrender

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf"
)

// FrameParameters is the per frame input supplied by the host.
type FrameParameters struct {
	// Tint is the linear RGBA color of the diffuse term. Alpha is ignored.
	Tint [4]float32
	// Resolution is the physical output size in pixels.
	Resolution ms2.Vec
	// Mouse is carried in the parameter block layout but unused. Its y
	// coordinate grows upwards from the bottom edge, see [FrameParameters.SetCursor].
	Mouse ms2.Vec
	// Time is the elapsed time in seconds.
	Time  float32
	Speed float32
	Zoom  float32
}

// DefaultFrame returns an 800x600 steel blue frame at time zero.
func DefaultFrame() FrameParameters {
	return FrameParameters{
		Tint:       [4]float32{0.0612, 0.2232, 0.4564, 1},
		Resolution: ms2.Vec{X: 800, Y: 600},
		Speed:      1,
		Zoom:       1,
	}
}

// Uniforms returns the parameter block in GPU layout: tint, then
// (width, height, mouse x, mouse y), then (time, speed, zoom, 0).
func (fp FrameParameters) Uniforms() [3][4]float32 {
	return [3][4]float32{
		fp.Tint,
		{fp.Resolution.X, fp.Resolution.Y, fp.Mouse.X, fp.Mouse.Y},
		{fp.Time, fp.Speed, fp.Zoom, 0},
	}
}

// SetCursor stores a window cursor position, with y growing downwards from
// the top edge, into Mouse. Resolution must be set beforehand.
func (fp *FrameParameters) SetCursor(x, y float32) {
	fp.Mouse = ms2.Vec{X: x, Y: fp.Resolution.Y - y}
}

// AnimTime returns time multiplied by speed, the unwrapped animation clock.
func (fp FrameParameters) AnimTime() float32 {
	return fp.Time * fp.Speed
}

func (fp FrameParameters) tint() ms3.Vec {
	return ms3.Vec{X: fp.Tint[0], Y: fp.Tint[1], Z: fp.Tint[2]}
}

// Fragment is a gamma encoded output color.
type Fragment struct {
	R, G, B, A float32
}

// RGBA returns the fragment quantized to 8 bits per channel.
func (f Fragment) RGBA() color.RGBA {
	return color.RGBA{R: quantize(f.R), G: quantize(f.G), B: quantize(f.B), A: quantize(f.A)}
}

func quantize(v float32) uint8 {
	return uint8(clampf(v, 0, 1)*255 + 0.5)
}

// Pipeline computes the color of individual pixels of the shell. A Pipeline
// is immutable and safe for concurrent use.
type Pipeline struct {
	cfg    icosdf.Config
	shell  *icosdf.Shell
	camera Camera
}

// NewPipeline validates cfg and builds the shell it renders.
func NewPipeline(cfg icosdf.Config) (*Pipeline, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	bld := icosdf.Builder{NoDimensionPanic: true}
	shell := bld.NewShell(cfg.Shape)
	if err = bld.Err(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, shell: shell, camera: NewCamera(cfg.Camera)}, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() icosdf.Config { return p.cfg }

// Shell returns the unposed shell.
func (p *Pipeline) Shell() *icosdf.Shell { return p.shell }

// Camera returns the pipeline camera.
func (p *Pipeline) Camera() Camera { return p.camera }

// Pose returns the shell posed for the frame's animation time.
func (p *Pipeline) Pose(fp FrameParameters) *icosdf.Animated {
	bld := icosdf.Builder{NoDimensionPanic: true}
	return bld.Animate(p.shell, p.cfg.Animation, fp.AnimTime())
}

// Frame prepares the per frame state shared by all pixels of fp.
func (p *Pipeline) Frame(fp FrameParameters) *Frame {
	return &Frame{p: p, params: fp, posed: p.Pose(fp)}
}

// Fragment computes the color at pixel for frame fp. Rendering many pixels of
// the same frame is cheaper through [Pipeline.Frame].
func (p *Pipeline) Fragment(fp FrameParameters, pixel ms2.Vec) Fragment {
	return p.Frame(fp).Fragment(pixel)
}

// Frame renders pixels of a single frame. It is safe for concurrent use.
type Frame struct {
	p      *Pipeline
	params FrameParameters
	posed  *icosdf.Animated
}

// Params returns the frame parameters.
func (f *Frame) Params() FrameParameters { return f.params }

// Posed returns the shell posed for the frame.
func (f *Frame) Posed() *icosdf.Animated { return f.posed }

// Fragment computes the gamma encoded color at pixel. A degenerate resolution
// yields the zero fragment. Rays that miss the shell return the background.
func (f *Frame) Fragment(pixel ms2.Vec) Fragment {
	cfg := &f.p.cfg
	ro, rd, ok := f.p.camera.BuildRay(pixel, f.params.Resolution, f.params.Zoom)
	if !ok {
		return Fragment{}
	}
	isect := Trace(f.posed, ro, rd, cfg.March)
	if !isect.Hit {
		return f.p.encode(cfg.Shading.Background)
	}
	pos := ms3.Add(ro, ms3.Scale(isect.T, rd))
	nor := Normal(f.posed, pos, cfg.Shading.NormalEpsilon)
	ctx := f.ShadingContext(pos, nor, rd)
	return f.p.encode(Lighting(f.posed, ctx, f.params.tint(), &cfg.Shading))
}

// ShadingContext returns the context for lighting pos, with unit normal nor,
// seen along ray direction rd.
func (f *Frame) ShadingContext(pos, nor, rd ms3.Vec) ShadingContext {
	return ShadingContext{
		Pos:     pos,
		Normal:  nor,
		Reflect: reflect(rd, nor),
		View:    rd,
		Basis:   f.p.shell.Basis(),
		Phase:   f.posed.Phase(),
	}
}

// encode maps a linear color to the output fragment. Non-finite colors are
// replaced by the background.
func (p *Pipeline) encode(col ms3.Vec) Fragment {
	sh := &p.cfg.Shading
	if !isFinite(col) {
		col = sh.Background
	}
	invGamma := 1 / sh.Gamma
	return Fragment{
		R: math32.Pow(math32.Max(col.X, 0), invGamma),
		G: math32.Pow(math32.Max(col.Y, 0), invGamma),
		B: math32.Pow(math32.Max(col.Z, 0), invGamma),
		A: 1,
	}
}
