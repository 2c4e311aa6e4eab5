package watershed

import (
	"fmt"
	"math"
)

// MaxDimension is the largest supported width or height. Pixel coordinates
// are stored as int16.
const MaxDimension = math.MaxInt16

// FloatImage is a single-channel float32 intensity map.
//
// The sample at (x, y) is Pix[y*Stride + x*ElemStride]. A zero ElemStride is
// treated as 1, so a compact image only needs Width, Height and Stride.
type FloatImage struct {
	Pix        []float32
	Width      int
	Height     int
	Stride     int // elements between vertically adjacent samples
	ElemStride int // elements between horizontally adjacent samples
}

// NewFloatImage allocates a compact zeroed image.
func NewFloatImage(width, height int) FloatImage {
	return FloatImage{
		Pix:        make([]float32, width*height),
		Width:      width,
		Height:     height,
		Stride:     width,
		ElemStride: 1,
	}
}

func (f FloatImage) elemStride() int {
	if f.ElemStride == 0 {
		return 1
	}
	return f.ElemStride
}

func (f FloatImage) offset(x, y int) int {
	return y*f.Stride + x*f.elemStride()
}

// At returns the sample at (x, y). It panics if (x, y) lies outside the image.
func (f FloatImage) At(x, y int) float32 {
	return f.Pix[f.offset(x, y)]
}

// Set stores v at (x, y).
func (f FloatImage) Set(x, y int, v float32) {
	f.Pix[f.offset(x, y)] = v
}

// Validate checks the dimensions, strides and buffer length, and rejects NaN
// samples.
func (f FloatImage) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrEmptyImage, f.Width, f.Height)
	}
	if f.Width > MaxDimension || f.Height > MaxDimension {
		return fmt.Errorf("%w: got %dx%d", ErrImageTooLarge, f.Width, f.Height)
	}
	es := f.elemStride()
	if es < 0 {
		return fmt.Errorf("%w: element stride %d", ErrInvalidStride, es)
	}
	rowSpan := (f.Width-1)*es + 1
	if f.Height > 1 && f.Stride < rowSpan {
		return fmt.Errorf("%w: row stride %d shorter than row span %d", ErrInvalidStride, f.Stride, rowSpan)
	}
	need := (f.Height-1)*f.Stride + rowSpan
	if len(f.Pix) < need {
		return fmt.Errorf("%w: have %d samples, need %d", ErrShortBuffer, len(f.Pix), need)
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if v := f.At(x, y); v != v {
				return fmt.Errorf("%w at (%d,%d)", ErrNaNIntensity, x, y)
			}
		}
	}
	return nil
}

// Clone returns a compact copy that shares no memory with f.
func (f FloatImage) Clone() FloatImage {
	dst := NewFloatImage(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+f.Width]
		for x := range row {
			row[x] = f.At(x, y)
		}
	}
	return dst
}
