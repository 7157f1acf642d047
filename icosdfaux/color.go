package icosdfaux

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
	"golang.org/x/image/colornames"
)

var red = color.RGBA{R: 255, A: 255}

// ParseTint parses a hex sRGB color ("#4682b4", "4682b4") or a CSS color
// name and returns it as linear RGBA with alpha 1.
func ParseTint(s string) ([4]float32, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return LinearRGBA(c), nil
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || len(b) != 3 {
		return [4]float32{}, fmt.Errorf("invalid tint %q: want color name or hex RRGGBB", s)
	}
	return LinearRGBA(color.RGBA{R: b[0], G: b[1], B: b[2], A: 255}), nil
}

// LinearRGBA converts an sRGB encoded color to linear RGB. Alpha is always 1.
func LinearRGBA(c color.RGBA) [4]float32 {
	return [4]float32{srgbToLinear(c.R), srgbToLinear(c.G), srgbToLinear(c.B), 1}
}

func srgbToLinear(v uint8) float32 {
	c := float32(v) / math.MaxUint8
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// ColorConversionInigoQuilez creates a new color conversion using [Inigo Quilez]'s style.
// Outside distances are orange, inside distances blue, with contour bands every
// characteristicDistance/150 and a white surface line. Returns red for NaN values.
//
// [Inigo Quilez]: https://iquilezles.org/articles/distfunctions2d/
func ColorConversionInigoQuilez(characteristicDistance float32) func(float32) color.Color {
	inv := 1. / characteristicDistance
	one := ms3.Vec{X: 1, Y: 1, Z: 1}
	return func(d float32) color.Color {
		if math.IsNaN(d) {
			return red
		}
		d *= inv
		var c ms3.Vec
		if d > 0 {
			c = ms3.Vec{X: 0.9, Y: 0.6, Z: 0.3}
		} else {
			c = ms3.Vec{X: 0.65, Y: 0.85, Z: 1.0}
		}
		c = ms3.Scale(1-math.Exp(-6*math.Abs(d)), c)
		c = ms3.Scale(0.8+0.2*math.Cos(150*d), c)
		edge := 1 - ms1.SmoothStep(0, 0.01, math.Abs(d))
		c = ms3.Add(ms3.Scale(1-edge, c), ms3.Scale(edge, one))
		return color.RGBA{
			R: uint8(ms1.Clamp(c.X, 0, 1) * 255),
			G: uint8(ms1.Clamp(c.Y, 0, 1) * 255),
			B: uint8(ms1.Clamp(c.Z, 0, 1) * 255),
			A: 255,
		}
	}
}

func percentUint64(num, denom uint64) float32 {
	if denom == 0 {
		return 0
	}
	return math.Trunc(10000*float32(num)/float32(denom)) / 100
}
