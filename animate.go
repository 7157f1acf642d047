package icosdf

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf/glbuild"
	"github.com/soypat/icosdf/gleval"
)

// AnimationPhase returns time*speed wrapped into [0, period).
func AnimationPhase(time, speed, period float32) float32 {
	phase := math32.Mod(time*speed, period)
	if phase < 0 {
		phase += period
	}
	if phase >= period || math32.IsNaN(phase) {
		phase = 0
	}
	return phase
}

// Spin returns the rotation applied to sample points before folding at the
// given animation phase: a fixed rotation around x, then around y, then a
// right handed rotation of phase*SpinDegrees around the basis face direction.
// The face direction is a threefold symmetry axis of the shell, so with the
// default 120 degrees per unit all integer phases give the same shape and
// wrapping the phase is seamless.
func Spin(anim AnimationConfig, b *Basis, phase float32) ms3.Mat3 {
	const deg2rad = math32.Pi / 180
	swap := ms3.RotationMat4(anim.SwapDegrees*deg2rad, ms3.Vec{X: 1})
	tilt := ms3.RotationMat4(anim.TiltDegrees*deg2rad, ms3.Vec{Y: 1})
	fixed := ms3.MulMat4(tilt, swap)
	spin := ms3.Rotation(anim.SpinDegrees*deg2rad*phase, b.Face)
	var cols [3]ms3.Vec
	for i, e := range [3]ms3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		cols[i] = spin.Rotate(fixed.MulPosition(e))
	}
	return ms3.NewMat3([]float32{
		cols[0].X, cols[1].X, cols[2].X,
		cols[0].Y, cols[1].Y, cols[2].Y,
		cols[0].Z, cols[1].Z, cols[2].Z,
	})
}

// Animated is a [Shell] posed at a fixed animation time.
type Animated struct {
	shell glbuild.Shader3D
	s     *Shell
	rot   ms3.Mat3
	time  float32
	phase float32
}

func newAnimated(s *Shell, anim AnimationConfig, animTime float32) *Animated {
	phase := AnimationPhase(animTime, 1, anim.Period)
	return &Animated{
		shell: s,
		s:     s,
		rot:   Spin(anim, s.basis, phase),
		time:  animTime,
		phase: phase,
	}
}

// Rotation returns the rotation applied to sample points.
func (a *Animated) Rotation() ms3.Mat3 { return a.rot }

// Time returns the animation time the shell is posed at.
func (a *Animated) Time() float32 { return a.time }

// Phase returns the animation time wrapped into the animation period.
func (a *Animated) Phase() float32 { return a.phase }

// Shell returns the underlying shell.
func (a *Animated) Shell() *Shell { return a.s }

// Distance evaluates the posed shell at p.
func (a *Animated) Distance(p ms3.Vec) float32 {
	return a.s.Distance(ms3.MulMatVec(a.rot, p))
}

// Evaluate implements [gleval.SDF3]. A [gleval.VecPool] is required in userData.
func (a *Animated) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	rotated := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(rotated)
	for i, p := range pos {
		rotated[i] = ms3.MulMatVec(a.rot, p)
	}
	return a.s.Evaluate(rotated, dist, userData)
}

// Bounds returns the bounds of the shell which are rotation invariant.
func (a *Animated) Bounds() ms3.Box {
	bb := a.s.Bounds()
	// Rotating a cube around the origin can reach its corners along any axis.
	r := ms3.Norm(bb.Max)
	return ms3.Box{Min: ms3.Vec{X: -r, Y: -r, Z: -r}, Max: ms3.Vec{X: r, Y: r, Z: r}}
}

func (a *Animated) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	return fn(userData, &a.shell)
}

func (a *Animated) AppendShaderName(b []byte) []byte {
	b = append(b, "icoanim"...)
	b = glbuild.AppendFloat(b, 'n', 'p', hashvec3(a.rot.VecCol(0), a.rot.VecCol(1), a.rot.VecCol(2)))
	b = append(b, '_')
	b = a.shell.AppendShaderName(b)
	return b
}

func (a *Animated) AppendShaderBody(b []byte) []byte {
	b = AppendRotationDecl(b, "R", a.rot)
	b = append(b, "return "...)
	b = a.shell.AppendShaderName(b)
	b = append(b, "(R*p);"...)
	return b
}

func (a *Animated) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

// AppendRotationDecl appends a GLSL mat3 declaration of r.
func AppendRotationDecl(b []byte, varname string, r ms3.Mat3) []byte {
	b = append(b, "mat3 "...)
	b = append(b, varname...)
	b = append(b, "=mat3("...)
	for j := 0; j < 3; j++ {
		// GLSL matrix constructors take columns.
		arr := r.VecCol(j).Array()
		b = glbuild.AppendFloats(b, ',', '-', '.', arr[:]...)
		if j != 2 {
			b = append(b, ',')
		}
	}
	b = append(b, ");\n"...)
	return b
}
