package icosdf

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Basis holds the unit vectors that define the icosahedral fold domain.
// A Basis is immutable once computed.
type Basis struct {
	// Corner is the normal of the corner reflection plane that, together with
	// the coordinate planes, generates the icosahedral group.
	Corner ms3.Vec
	// Fold holds the normals of the three subdivision fold planes.
	Fold [3]ms3.Vec
	// Reference directions of the fundamental domain.
	Edge   ms3.Vec
	Vertex ms3.Vec
	Face   ms3.Vec
	// Apex is Vertex mirrored across Fold[0].
	Apex ms3.Vec
}

// ComputeBasis derives the icosahedral fold basis from pi/5. It is pure and
// always returns identical values.
func ComputeBasis() Basis {
	cospin := math32.Cos(math32.Pi / 5)
	scospin := math32.Sqrt(0.75 - cospin*cospin)
	var b Basis
	b.Corner = ms3.Vec{X: -0.5, Y: -cospin, Z: scospin}
	b.Edge = ms3.Vec{Z: 1}
	b.Vertex = ms3.Unit(ms3.Vec{X: scospin, Z: 0.5})
	b.Face = ms3.Unit(ms3.Vec{Y: scospin, Z: cospin})

	A, B, C := seedVertices(&b)
	b.Fold[0] = ms3.Unit(ms3.Cross(mid(A, C), mid(A, B)))
	b.Apex = mirror(A, b.Fold[0])
	// Second subdivision operates on the triangle (Apex, mid(A,C), mid(A,B)).
	A2, B2, C2 := b.Apex, mid(A, C), mid(A, B)
	b.Fold[1] = ms3.Unit(ms3.Cross(mid(A2, C2), mid(A2, B2)))
	b.Fold[2] = ms3.Unit(ms3.Cross(mid(B2, C2), mid(A2, B2)))
	return b
}

// seedVertices returns the three icosahedron vertex directions bounding the
// face that contains the fold domain. The first one is b.Vertex.
func seedVertices(b *Basis) (A, B, C ms3.Vec) {
	A = b.Vertex
	C = mirror(A, ms3.Unit(ms3.Cross(b.Edge, b.Face)))
	B = mirror(C, ms3.Unit(ms3.Cross(b.Vertex, b.Face)))
	return A, B, C
}

var defaultBasis = sync.OnceValue(func() *Basis {
	b := ComputeBasis()
	return &b
})

// DefaultBasis returns the process-wide basis, computed on first use.
// The returned value is shared and must not be modified.
func DefaultBasis() *Basis {
	return defaultBasis()
}

// Vectors returns the eight basis vectors in declaration order.
func (b *Basis) Vectors() [8]ms3.Vec {
	return [8]ms3.Vec{b.Corner, b.Fold[0], b.Fold[1], b.Fold[2], b.Edge, b.Vertex, b.Face, b.Apex}
}
