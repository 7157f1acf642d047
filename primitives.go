package icosdf

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf/glbuild"
)

// cappedCone is a cone along a unit axis starting at the origin with radius r1
// and ending at height h with radius r2.
type cappedCone struct {
	axis   ms3.Vec
	h      float32
	r1, r2 float32
}

// distance is the exact capped cone distance of Inigo Quilez evaluated in the
// (radial, axial) half plane.
func (c cappedCone) distance(p ms3.Vec) float32 {
	hh := c.h / 2
	along := ms3.Dot(p, c.axis)
	qx := ms3.Norm(ms3.Sub(p, ms3.Scale(along, c.axis)))
	qy := along - hh
	k1x, k1y := c.r2, hh
	k2x, k2y := c.r2-c.r1, 2*hh
	rsel := c.r2
	if qy < 0 {
		rsel = c.r1
	}
	cax := qx - minf(qx, rsel)
	cay := absf(qy) - hh
	t := clampf(((k1x-qx)*k2x+(k1y-qy)*k2y)/(k2x*k2x+k2y*k2y), 0, 1)
	cbx := qx - k1x + k2x*t
	cby := qy - k1y + k2y*t
	s := float32(1)
	if cbx < 0 && cay < 0 {
		s = -1
	}
	return s * math32.Sqrt(minf(cax*cax+cay*cay, cbx*cbx+cby*cby))
}

func (c cappedCone) appendCall(b []byte) []byte {
	b = append(b, "icoCappedCone(p,vec3("...)
	arr := c.axis.Array()
	b = glbuild.AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, "),"...)
	b = glbuild.AppendFloats(b, ',', '-', '.', c.h, c.r1, c.r2)
	b = append(b, ')')
	return b
}

// window is the half-space bounded by the plane through three vertices on the
// unit sphere, swept radially: an infinite circular cone with apex at the
// origin through the circle where that plane cuts the sphere. On the sphere
// it agrees with the plane. Its walls stay radial through the shell so the
// cut does not narrow with depth. The distance is negative inside the cone,
// the side containing the plane normal n.
type window struct {
	n        ms3.Vec
	cos, sin float32
}

// newWindow returns the window through the circle passing by unit vectors a, b and c.
// The inside of the window is chosen as the side containing direction g.
func newWindow(a, b, c, g ms3.Vec) window {
	n := ms3.Unit(ms3.Cross(ms3.Sub(b, a), ms3.Sub(c, a)))
	if ms3.Dot(n, g)-ms3.Dot(n, a) < 0 {
		n = ms3.Scale(-1, n)
	}
	cos := ms3.Dot(n, a)
	return window{n: n, cos: cos, sin: math32.Sqrt(maxf(0, 1-cos*cos))}
}

func (w window) distance(q ms3.Vec) float32 {
	return ms3.Norm(ms3.Cross(q, w.n))*w.cos - ms3.Dot(q, w.n)*w.sin
}

func (w window) appendCall(b []byte) []byte {
	b = append(b, "icoWindow(p,vec3("...)
	arr := w.n.Array()
	b = glbuild.AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, "),"...)
	b = glbuild.AppendFloats(b, ',', '-', '.', w.cos, w.sin)
	b = append(b, ')')
	return b
}

// lens is a hole bounded by two windows sharing the chord (a, b). The second
// window's circle passes through c mirrored across the great circle of a and b,
// making the lens symmetric about that great circle.
type lens [2]window

func newLens(a, b, c ms3.Vec) lens {
	m := ms3.Unit(ms3.Cross(a, b))
	g := ms3.Unit(ms3.Add(a, b))
	return lens{
		newWindow(a, b, c, g),
		newWindow(a, b, mirror(c, m), g),
	}
}

func (l lens) distance(q ms3.Vec, blend, thickness float32) float32 {
	return smoothIntersect(l[0].distance(q), l[1].distance(q), blend) + thickness
}

func (l lens) appendCall(b []byte, blend, thickness float32) []byte {
	b = append(b, "icoSmoothIntersect("...)
	b = l[0].appendCall(b)
	b = append(b, ',')
	b = l[1].appendCall(b)
	b = append(b, ',')
	b = glbuild.AppendFloat(b, '-', '.', blend)
	b = append(b, ")+"...)
	b = glbuild.AppendFloat(b, '-', '.', thickness)
	return b
}
