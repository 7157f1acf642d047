package icosdf

import (
	"github.com/soypat/geometry/ms3"
)

// Reflect conditionally mirrors p across the plane dot(x,n)+offset = 0 where n is unit length.
// Points on the negative side are mirrored and reported with side -1. Points on
// the plane or its positive side are returned unchanged with side +1.
func Reflect(p, n ms3.Vec, offset float32) (ms3.Vec, float32) {
	t := ms3.Dot(p, n) + offset
	if t < 0 {
		return ms3.Sub(p, ms3.Scale(2*t, n)), -1
	}
	return p, 1
}

// Fold maps p into the fundamental domain of the icosahedral group and returns
// the folded point and the sub-region it landed in. At level 0 the region is always 0.
// At level 1 and above region is 1 when the point was mirrored across b.Fold[0].
// Levels outside [0, 2] are clamped.
func Fold(p ms3.Vec, level int, b *Basis) (ms3.Vec, int) {
	p = ms3.AbsElem(p)
	p, _ = Reflect(p, b.Corner, 0)
	for i := 0; i < 2; i++ {
		p.X = absf(p.X)
		p.Y = absf(p.Y)
		p, _ = Reflect(p, b.Corner, 0)
	}
	region := 0
	if level >= 1 {
		var side float32
		p, side = Reflect(p, b.Fold[0], 0)
		if side < 0 {
			region = 1
		}
	}
	if level >= 2 {
		p, _ = Reflect(p, b.Fold[1], 0)
		p, _ = Reflect(p, b.Fold[2], 0)
	}
	return p, region
}
