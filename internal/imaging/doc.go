// Package imaging loads page images and prepares them for segmentation.
//
// It covers three steps of the glyph pipeline:
//
//   - Loading: ImageCache decodes PNG, JPEG and GIF files once per path.
//   - Preparation: Preprocess applies grayscale conversion, optional Gaussian
//     blur and optional inversion (github.com/anthonynsimon/bild), and
//     Intensity turns the result into a watershed.FloatImage of CIE L*
//     lightness values (github.com/lucasb-eyer/go-colorful).
//   - Extraction: Crop, Pad and FitHeight cut and normalize regions
//     (github.com/disintegration/imaging); EncodePNG packages them for JSON.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner.
// Rectangles use an inclusive Min and an exclusive Max, matching
// image.Rectangle.
//
// # Sign Convention
//
// The watershed floods from the highest intensity down. For dark text on a
// light background set PreprocessOptions.Invert so each glyph's ink forms a
// peak and the paper between glyphs becomes the low ground where basins meet.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless.
package imaging
