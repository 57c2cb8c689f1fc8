package thumbnails

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// BrandColor fills the background of placeholder thumbnails.
var BrandColor = color.NRGBA{R: 120, G: 81, B: 169, A: 255}

// PlaceholderQuality is the JPEG quality used for placeholder thumbnails.
const PlaceholderQuality = 85

// Placeholder renders the brand canvas with a white play glyph pointing right.
func Placeholder() *image.NRGBA {
	img := imaging.New(Width, Height, BrandColor)

	cx, cy := float32(Width/2), float32(Height/2)
	z := vector.NewRasterizer(Width, Height)
	z.MoveTo(cx-40, cy-50)
	z.LineTo(cx-40, cy+50)
	z.LineTo(cx+50, cy)
	z.ClosePath()
	z.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{})

	return img
}

// EncodePlaceholder writes the placeholder as a JPEG to w.
func EncodePlaceholder(w io.Writer) error {
	return imaging.Encode(w, Placeholder(), imaging.JPEG, imaging.JPEGQuality(PlaceholderQuality))
}

// WritePlaceholder atomically replaces path with a freshly encoded placeholder.
func WritePlaceholder(path string) error {
	return writeAtomic(path, EncodePlaceholder)
}
