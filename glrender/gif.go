package glrender

import (
	"errors"
	"image"
	"image/color/palette"
	"image/gif"
	"io"

	"golang.org/x/image/draw"
)

// GIFAnimation accumulates rendered frames into a looping animated GIF.
type GIFAnimation struct {
	g gif.GIF
}

// AddFrame quantizes img to the Plan 9 palette with Floyd-Steinberg dithering
// and appends it to the animation. delay is in hundredths of a second.
func (a *GIFAnimation) AddFrame(img image.Image, delay int) {
	pimg := image.NewPaletted(img.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), img, img.Bounds().Min)
	a.g.Image = append(a.g.Image, pimg)
	a.g.Delay = append(a.g.Delay, delay)
}

// Len returns the number of frames added.
func (a *GIFAnimation) Len() int { return len(a.g.Image) }

// Encode writes the animation to w.
func (a *GIFAnimation) Encode(w io.Writer) error {
	if len(a.g.Image) == 0 {
		return errors.New("GIF animation has no frames")
	}
	a.g.LoopCount = 0
	return gif.EncodeAll(w, &a.g)
}
