// Package glrender turns signed distance fields into pictures and meshes. It
// projects camera rays, sphere traces them, shades the hits and writes the
// results as images, animations or STL triangles.
package glrender

import (
	"io"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Distancer is a signed distance field evaluated one point at a time.
// [icosdf.Shell] and [icosdf.Animated] implement it.
type Distancer interface {
	Distance(p ms3.Vec) float32
}

// Renderer reads triangles of a surface in successive calls, similar to [io.Reader].
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.RenderAll implementation.
func RenderAll(r Renderer, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, startSize)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}

func isFinite(v ms3.Vec) bool {
	for _, c := range v.Array() {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// reflect returns the reflection of incident direction d about unit normal n.
func reflect(d, n ms3.Vec) ms3.Vec {
	return ms3.Sub(d, ms3.Scale(2*ms3.Dot(d, n), n))
}
