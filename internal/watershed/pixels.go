package watershed

import (
	"math"
	"sort"
)

// Pixel is one entry of the flooding queue.
type Pixel struct {
	Intensity float32
	X, Y      int16
}

// packed returns the pixel's bits laid out as a little-endian
// {float32, int16, int16} record.
func (p Pixel) packed() uint64 {
	return uint64(math.Float32bits(p.Intensity)) |
		uint64(uint16(p.X))<<32 |
		uint64(uint16(p.Y))<<48
}

// mix64 is a full-avalanche bijection on 64-bit words.
func mix64(x uint64) uint64 {
	x += 0x2907abf3a2a7701b
	x ^= x >> 32
	x ^= x >> 19
	x *= 0x0531d5c5d8d29753
	x ^= x >> 27
	x ^= x << 7
	return x
}

// GeneratePixels scans img row-major and returns one Pixel per sample.
// The caller is expected to have validated img.
func GeneratePixels(img FloatImage) []Pixel {
	px := make([]Pixel, 0, img.Width*img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px = append(px, Pixel{
				Intensity: img.At(x, y),
				X:         int16(x),
				Y:         int16(y),
			})
		}
	}
	return px
}

// ComparePixels orders pixels for flooding: it returns a negative number when
// a must be processed before b, and a positive number when after.
//
// Higher intensity comes first. Equal intensities are ordered by mix64 of the
// packed pixel, and identical hashes fall back to raster position, so the
// result is 0 only when a and b are the same pixel.
func ComparePixels(a, b Pixel) int {
	switch {
	case a.Intensity > b.Intensity:
		return -1
	case a.Intensity < b.Intensity:
		return 1
	}
	ha, hb := mix64(a.packed()), mix64(b.packed())
	switch {
	case ha < hb:
		return -1
	case ha > hb:
		return 1
	}
	switch {
	case a.Y != b.Y:
		return int(a.Y) - int(b.Y)
	default:
		return int(a.X) - int(b.X)
	}
}

// SortPixels sorts px into flooding order in place.
func SortPixels(px []Pixel) {
	sort.Slice(px, func(i, j int) bool {
		return ComparePixels(px[i], px[j]) < 0
	})
}

// RankPixels returns the flooding queue for img.
func RankPixels(img FloatImage) []Pixel {
	px := GeneratePixels(img)
	SortPixels(px)
	return px
}
