package icosdf

import (
	"errors"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf/glbuild"
	"github.com/soypat/icosdf/glbuild/glsllib"
)

// Shell is the perforated icosahedral shell: a thin spherical shell with
// conical spikes along the edge, face and apex directions of every fold
// domain and lens shaped holes cut through it. Shell is immutable and safe for
// concurrent use.
type Shell struct {
	cfg    ShapeConfig
	basis  *Basis
	spikes [3]cappedCone
	holes  [2]lens
}

var errMismatchBufferLength = errors.New("position and distance buffer length mismatch")

func newShell(cfg ShapeConfig, b *Basis) *Shell {
	A, B, C := seedVertices(b)
	// Direction halfway between the midpoints of the two face edges leaving the vertex.
	x := unitSum(ms3.Unit(mid(A, B)), ms3.Unit(mid(A, C)))
	s := &Shell{cfg: cfg, basis: b}
	for i, axis := range [3]ms3.Vec{b.Edge, b.Face, b.Apex} {
		s.spikes[i] = cappedCone{axis: axis, h: cfg.SpikeHeights[i], r1: cfg.SpikeBaseRadius}
	}
	s.holes[0] = newLens(b.Apex, x, unitSum(b.Apex, x, b.Edge))
	s.holes[1] = newLens(b.Face, unitSum(b.Face, b.Edge, b.Edge), unitSum(x, b.Edge))
	return s
}

// Config returns the shape configuration the shell was built with.
func (s *Shell) Config() ShapeConfig { return s.cfg }

// Basis returns the fold basis shared by the shell.
func (s *Shell) Basis() *Basis { return s.basis }

// Distance folds p into the fundamental domain and evaluates the field there.
func (s *Shell) Distance(p ms3.Vec) float32 {
	q, region := Fold(p, s.cfg.FoldLevel, s.basis)
	return s.Field(q, region)
}

// Field evaluates the shell distance at an already folded point q. Region 0
// cuts both holes, any other region only the first.
func (s *Shell) Field(q ms3.Vec, region int) float32 {
	cfg := &s.cfg
	r := ms3.Norm(q)
	spikes := float32(largenum)
	for i := range s.spikes {
		spikes = minf(spikes, s.spikes[i].distance(q))
	}
	shell := smoothUnion(r-cfg.SphereRadius, spikes, cfg.SpikeBlend)
	shell = maxf(shell, -(r - cfg.InnerRadius))

	holes := s.holes[0].distance(q, cfg.WindowBlend, cfg.HoleThickness)
	if region == 0 {
		holes = minf(holes, s.holes[1].distance(q, cfg.WindowBlend, cfg.HoleThickness))
	}
	holes = maxf(holes, r-cfg.HoleClip)
	return smoothDiff(shell, holes, cfg.FinalBlend)
}

// Evaluate implements [gleval.SDF3]. It does not require userData.
func (s *Shell) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	}
	for i, p := range pos {
		dist[i] = s.Distance(p)
	}
	return nil
}

// Bounds returns a box centered at the origin that contains the sphere and the spike tips.
func (s *Shell) Bounds() ms3.Box {
	r := s.cfg.SphereRadius
	for _, h := range s.cfg.SpikeHeights {
		r = maxf(r, h)
	}
	return ms3.Box{
		Min: ms3.Vec{X: -r, Y: -r, Z: -r},
		Max: ms3.Vec{X: r, Y: r, Z: r},
	}
}

func (s *Shell) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	return nil
}

func (s *Shell) AppendShaderName(b []byte) []byte {
	b = append(b, "icoshell"...)
	cfg := &s.cfg
	values := []float32{
		float32(cfg.FoldLevel), cfg.SphereRadius, cfg.InnerRadius, cfg.SpikeBaseRadius,
		cfg.SpikeHeights[0], cfg.SpikeHeights[1], cfg.SpikeHeights[2],
		cfg.SpikeBlend, cfg.WindowBlend, cfg.HoleThickness, cfg.HoleClip, cfg.FinalBlend,
	}
	vecs := s.basis.Vectors()
	b = glbuild.AppendFloat(b, 'n', 'p', hashf(values))
	b = append(b, '_')
	b = glbuild.AppendFloat(b, 'n', 'p', hashvec3(vecs[:]...))
	return b
}

func (s *Shell) AppendShaderBody(b []byte) []byte {
	cfg := &s.cfg
	bs := s.basis
	b = glbuild.AppendVec3Decl(b, "nc", bs.Corner)
	b = append(b, `p = abs(p);
p -= 2.0*min(0.0, dot(p, nc))*nc;
p.xy = abs(p.xy);
p -= 2.0*min(0.0, dot(p, nc))*nc;
p.xy = abs(p.xy);
p -= 2.0*min(0.0, dot(p, nc))*nc;
int region = 0;
`...)
	if cfg.FoldLevel >= 1 {
		b = glbuild.AppendVec3Decl(b, "f0", bs.Fold[0])
		b = append(b, "float t = dot(p, f0);\nif (t < 0.0) { p -= 2.0*t*f0; region = 1; }\n"...)
	}
	if cfg.FoldLevel >= 2 {
		b = glbuild.AppendVec3Decl(b, "f1", bs.Fold[1])
		b = glbuild.AppendVec3Decl(b, "f2", bs.Fold[2])
		b = append(b, "p -= 2.0*min(0.0, dot(p, f1))*f1;\np -= 2.0*min(0.0, dot(p, f2))*f2;\n"...)
	}
	b = append(b, "float r = length(p);\nfloat spikes = min(min("...)
	b = s.spikes[0].appendCall(b)
	b = append(b, ',')
	b = s.spikes[1].appendCall(b)
	b = append(b, "),"...)
	b = s.spikes[2].appendCall(b)
	b = append(b, ");\n"...)
	b = glbuild.AppendFloatDecl(b, "R", cfg.SphereRadius)
	b = glbuild.AppendFloatDecl(b, "Rin", cfg.InnerRadius)
	b = append(b, "float shell = icoSmoothUnion(r-R, spikes, "...)
	b = glbuild.AppendFloat(b, '-', '.', cfg.SpikeBlend)
	b = append(b, ");\nshell = max(shell, -(r-Rin));\nfloat holes = "...)
	b = s.holes[0].appendCall(b, cfg.WindowBlend, cfg.HoleThickness)
	b = append(b, ";\nif (region == 0) { holes = min(holes, "...)
	b = s.holes[1].appendCall(b, cfg.WindowBlend, cfg.HoleThickness)
	b = append(b, "); }\nholes = max(holes, r-"...)
	b = glbuild.AppendFloat(b, '-', '.', cfg.HoleClip)
	b = append(b, ");\nreturn icoSmoothDiff(shell, holes, "...)
	b = glbuild.AppendFloat(b, '-', '.', cfg.FinalBlend)
	b = append(b, ");"...)
	return b
}

var shellFunctions = []glbuild.ShaderObject{
	glsllib.SmoothUnion(),
	glsllib.SmoothIntersect(),
	glsllib.SmoothDiff(),
	glsllib.CappedCone3D(),
	glsllib.Window3D(),
}

func (s *Shell) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, shellFunctions...)
}
