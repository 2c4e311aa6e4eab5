package glyph

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/glyph-flood-mcp/internal/imaging"
	"github.com/ironsheep/glyph-flood-mcp/internal/watershed"
)

// Options controls glyph isolation.
type Options struct {
	// Threshold is the lowest intensity counted as ink. Basin pixels below
	// it are background that the flood reached, not part of the glyph.
	Threshold float32 `json:"threshold" yaml:"threshold"`

	// MinMass is the smallest glyph, in ink pixels, that is kept.
	MinMass int `json:"min_mass" yaml:"minMass"`

	// Padding is the white border added around each mask, in source pixels.
	Padding int `json:"padding" yaml:"padding"`

	// TargetHeight is the height masks are scaled to. Zero keeps the
	// padded size.
	TargetHeight int `json:"target_height" yaml:"targetHeight"`
}

// DefaultOptions returns the isolation settings used when none are given.
func DefaultOptions() Options {
	return Options{
		Threshold:    0.5,
		MinMass:      8,
		Padding:      4,
		TargetHeight: 48,
	}
}

// Glyph is the ink of one basin cut out of a segmented image.
type Glyph struct {
	// Index is the glyph's position in reading order.
	Index int `json:"index"`

	// Basin is the watershed region the glyph was taken from.
	Basin watershed.Region `json:"basin"`

	// Bounds is the tight box around the ink pixels; Max is exclusive.
	Bounds image.Rectangle `json:"bounds"`

	// Mass counts the ink pixels.
	Mass int `json:"mass"`

	// MeanIntensity and StdDevIntensity summarize the ink intensities.
	MeanIntensity   float64 `json:"mean_intensity"`
	StdDevIntensity float64 `json:"stddev_intensity"`

	// Mask shows the ink black on white, padded and scaled.
	Mask image.Image `json:"-"`
}

type ink struct {
	bounds  image.Rectangle
	samples []float64
}

func (k *ink) add(x, y int, v float32) {
	px := image.Rect(x, y, x+1, y+1)
	if k.samples == nil {
		k.bounds = px
	} else {
		k.bounds = k.bounds.Union(px)
	}
	k.samples = append(k.samples, float64(v))
}

// Isolate builds one Glyph per basin of ws holding at least opts.MinMass
// pixels at or above opts.Threshold. Unresolved single pixels never become
// glyphs.
//
// The engine should have finished, or at least stopped at a point the caller
// is happy with; Isolate reads whatever partition exists now.
//
// Glyphs are ordered by the left edge of their bounds, then by the top edge.
func Isolate(ws *watershed.Watershed, opts Options) ([]Glyph, error) {
	if ws == nil {
		return nil, errors.New("nil watershed")
	}
	if opts.MinMass < 1 {
		opts.MinMass = 1
	}
	if opts.Padding < 0 {
		return nil, fmt.Errorf("invalid padding %d", opts.Padding)
	}

	regions, labels := ws.Partition()
	if regions == nil {
		return nil, watershed.ErrClosed
	}

	width := ws.Width()
	inks := make([]ink, len(regions))
	for i, label := range labels {
		if label < 0 || regions[label].Unresolved {
			continue
		}
		x, y := i%width, i/width
		if v := ws.Intensity(x, y); v >= opts.Threshold {
			inks[label].add(x, y, v)
		}
	}

	var glyphs []Glyph
	for label, r := range regions {
		k := &inks[label]
		if len(k.samples) < opts.MinMass {
			continue
		}
		mean, std := intensityStats(k.samples)
		glyphs = append(glyphs, Glyph{
			Basin:           r,
			Bounds:          k.bounds,
			Mass:            len(k.samples),
			MeanIntensity:   mean,
			StdDevIntensity: std,
			Mask:            renderMask(ws, labels, int32(label), k.bounds, opts),
		})
	}

	sort.SliceStable(glyphs, func(i, j int) bool {
		a, b := glyphs[i].Bounds.Min, glyphs[j].Bounds.Min
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	for i := range glyphs {
		glyphs[i].Index = i
	}
	return glyphs, nil
}

func intensityStats(values []float64) (mean, std float64) {
	if len(values) < 2 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// renderMask draws the ink pixels carrying label inside bounds.
func renderMask(ws *watershed.Watershed, labels []int32, label int32, bounds image.Rectangle, opts Options) image.Image {
	width := ws.Width()
	mask := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for i := range mask.Pix {
		mask.Pix[i] = 0xff
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if labels[y*width+x] == label && ws.Intensity(x, y) >= opts.Threshold {
				mask.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{})
			}
		}
	}

	var out image.Image = mask
	if opts.Padding > 0 {
		out = imaging.Pad(out, opts.Padding, color.White)
	}
	return imaging.FitHeight(out, opts.TargetHeight)
}
