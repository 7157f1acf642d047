package icosdfaux

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

var captionFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// DrawCaption writes text in the bottom left corner of img. The font size is
// scaled with the image height.
func DrawCaption(img draw.Image, text string, col color.Color) error {
	ttf, err := captionFont()
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	size := max(8, float64(bounds.Dy())/24)
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()
	margin := int(size / 2)
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(bounds.Min.X+margin, bounds.Max.Y-margin-face.Metrics().Descent.Ceil()),
	}
	drawer.DrawString(text)
	return nil
}
