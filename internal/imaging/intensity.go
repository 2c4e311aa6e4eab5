package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/glyph-flood-mcp/internal/watershed"
)

// PreprocessOptions controls how a page is turned into an intensity map.
type PreprocessOptions struct {
	// Invert flips lightness so dark ink on light paper becomes the high
	// intensity that floods first.
	Invert bool `json:"invert" yaml:"invert"`

	// BlurRadius is the Gaussian blur radius in pixels applied before
	// segmentation. Zero disables blurring. Light blurring merges speckle
	// maxima that would otherwise seed one basin each.
	BlurRadius float64 `json:"blur_radius" yaml:"blurRadius"`
}

// Preprocess converts img to grayscale and applies the blur and inversion in
// opts, in that order.
func Preprocess(img image.Image, opts PreprocessOptions) image.Image {
	var out image.Image = effect.Grayscale(img)
	if opts.BlurRadius > 0 {
		out = blur.Gaussian(out, opts.BlurRadius)
	}
	if opts.Invert {
		out = effect.Invert(out)
	}
	return out
}

// Intensity maps img to a compact float intensity image using CIE L*
// lightness in [0, 1]. Fully transparent pixels map to 0.
func Intensity(img image.Image) watershed.FloatImage {
	b := img.Bounds()
	out := watershed.NewFloatImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			out.Set(x, y, float32(l))
		}
	}
	return out
}

// IntensityMap is Preprocess followed by Intensity.
func IntensityMap(img image.Image, opts PreprocessOptions) watershed.FloatImage {
	return Intensity(Preprocess(img, opts))
}
