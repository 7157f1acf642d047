package glrender

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf"
)

// Camera is a pinhole camera orbiting its target. It is a value type safe for concurrent use.
type Camera struct {
	target ms3.Vec
	// back points from the target to the camera, unit length.
	back     ms3.Vec
	distance float32
	focal    float32
	// Orthonormal view frame: right, up and forward.
	uu, vv, ww ms3.Vec
}

// NewCamera returns the camera placed by cfg. cfg should be validated beforehand.
func NewCamera(cfg icosdf.CameraConfig) Camera {
	back := ms3.Unit(cfg.Direction)
	ww := ms3.Scale(-1, back)
	uu := ms3.Unit(ms3.Cross(ww, cfg.Up))
	vv := ms3.Cross(uu, ww)
	return Camera{
		target:   cfg.Target,
		back:     back,
		distance: cfg.Distance,
		focal:    cfg.FocalLength,
		uu:       uu,
		vv:       vv,
		ww:       ww,
	}
}

// Origin returns the camera position at the given zoom. Zoom scales the
// distance to the target.
func (c Camera) Origin(zoom float32) ms3.Vec {
	return ms3.Add(c.target, ms3.Scale(c.distance*zoom, c.back))
}

// BuildRay returns the world space ray through pixel for an image of the given
// resolution. Pixel coordinates grow rightwards and downwards from the top left
// corner and share units with resolution. Device coordinates are normalized by
// the image height so the aspect ratio is preserved.
// ok is false for a degenerate resolution, in which case no ray exists.
func (c Camera) BuildRay(pixel, resolution ms2.Vec, zoom float32) (origin, dir ms3.Vec, ok bool) {
	if !(resolution.X > 0 && resolution.Y > 0) {
		return ms3.Vec{}, ms3.Vec{}, false
	}
	x := (2*pixel.X - resolution.X) / resolution.Y
	y := -(2*pixel.Y - resolution.Y) / resolution.Y
	dir = ms3.Add(ms3.Add(ms3.Scale(x, c.uu), ms3.Scale(y, c.vv)), ms3.Scale(c.focal, c.ww))
	return c.Origin(zoom), ms3.Unit(dir), true
}
