package glrender

import (
	"errors"
	"io"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/geometry/ms3"
)

// sdfxShape exposes a Distancer as an sdfx solid.
type sdfxShape struct {
	d  Distancer
	bb sdf.Box3
}

func (s sdfxShape) Evaluate(p v3.Vec) float64 {
	return float64(s.d.Distance(ms3.Vec{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}))
}

func (s sdfxShape) BoundingBox() sdf.Box3 { return s.bb }

// MeshRenderer extracts the surface of a Distancer with uniform marching
// cubes and serves the resulting triangles as a [Renderer].
type MeshRenderer struct {
	tris []ms3.Triangle
	off  int
}

// NewMeshRenderer meshes the surface of d contained in bb. cells is the number
// of marching cubes along the longest side of bb.
func NewMeshRenderer(d Distancer, bb ms3.Box, cells int) (*MeshRenderer, error) {
	if d == nil {
		return nil, errors.New("nil distancer")
	} else if cells < 2 {
		return nil, errors.New("mesh needs at least 2 cells")
	}
	// Leave room so no surface lies on the boundary of the sampling grid.
	bb = bb.ScaleCentered(ms3.Vec{X: 1.05, Y: 1.05, Z: 1.05})
	shape := sdfxShape{
		d: d,
		bb: sdf.Box3{
			Min: v3.Vec{X: float64(bb.Min.X), Y: float64(bb.Min.Y), Z: float64(bb.Min.Z)},
			Max: v3.Vec{X: float64(bb.Max.X), Y: float64(bb.Max.Y), Z: float64(bb.Max.Z)},
		},
	}
	triangles := render.ToTriangles(shape, render.NewMarchingCubesUniform(cells))
	m := &MeshRenderer{tris: make([]ms3.Triangle, 0, len(triangles))}
	for _, tri := range triangles {
		m.tris = append(m.tris, ms3.Triangle{
			toVec(tri[0]),
			toVec(tri[1]),
			toVec(tri[2]),
		})
	}
	return m, nil
}

func toVec(v v3.Vec) ms3.Vec {
	return ms3.Vec{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// Len returns the total number of triangles in the mesh.
func (m *MeshRenderer) Len() int { return len(m.tris) }

// ReadTriangles copies the next triangles of the mesh into dst. It returns
// io.EOF once all triangles have been read.
func (m *MeshRenderer) ReadTriangles(dst []ms3.Triangle, userData any) (int, error) {
	if len(dst) == 0 {
		return 0, errors.New("empty triangle buffer")
	}
	n := copy(dst, m.tris[m.off:])
	m.off += n
	if m.off == len(m.tris) {
		return n, io.EOF
	}
	return n, nil
}

// Reset rewinds the renderer to the first triangle.
func (m *MeshRenderer) Reset() { m.off = 0 }
