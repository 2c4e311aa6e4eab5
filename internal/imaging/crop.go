package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage is an image encoded as base64 PNG for JSON transport.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Crop extracts region r from img and scales it by scale. A scale of 1 or
// less than or equal to 0 leaves the size unchanged.
//
// Coordinates follow the image convention: r.Min is inclusive and r.Max is
// exclusive. The returned image always starts at (0, 0).
func Crop(img image.Image, r image.Rectangle, scale float64) (image.Image, error) {
	bounds := img.Bounds()
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: x1 must be < x2, y1 must be < y2", r)
	}
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}

	cropped := imaging.Crop(img, r)
	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}

// Pad surrounds img with a border of the given width in fill color.
func Pad(img image.Image, border int, fill color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+2*border, b.Dy()+2*border, fill)
	return imaging.Paste(canvas, img, image.Pt(border, border))
}

// FitHeight resizes img to height pixels, keeping its aspect ratio. Images
// already at that height are returned unchanged.
func FitHeight(img image.Image, height int) image.Image {
	if height <= 0 || img.Bounds().Dy() == height {
		return img
	}
	return imaging.Resize(img, 0, height, imaging.Lanczos)
}
