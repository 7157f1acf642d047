package icosdfaux

import (
	"errors"
	"image"
	"image/color"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf/glrender"
)

// SliceConfig selects the plane drawn by [RenderSlice].
type SliceConfig struct {
	// Z is the height of the xy cutting plane.
	Z float32
	// HalfSize is half the side of the square region drawn, centered at the origin.
	HalfSize float32
	// Conversion maps distances to colors. If nil [ColorConversionInigoQuilez] is used.
	Conversion func(float32) color.Color
}

// RenderSlice draws the distance field of d over an xy plane section into
// img. Image rows grow towards negative y.
func RenderSlice(img *image.RGBA, d glrender.Distancer, cfg SliceConfig) error {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return errors.New("empty image")
	} else if cfg.HalfSize <= 0 {
		return errors.New("slice half size must be positive")
	}
	conv := cfg.Conversion
	if conv == nil {
		conv = ColorConversionInigoQuilez(2 * cfg.HalfSize / 3)
	}
	scale := 2 * cfg.HalfSize / float32(max(w, h))
	for j := 0; j < h; j++ {
		y := (float32(h)/2 - float32(j) - 0.5) * scale
		for i := 0; i < w; i++ {
			x := (float32(i) + 0.5 - float32(w)/2) * scale
			img.Set(bounds.Min.X+i, bounds.Min.Y+j, conv(d.Distance(ms3.Vec{X: x, Y: y, Z: cfg.Z})))
		}
	}
	return nil
}
