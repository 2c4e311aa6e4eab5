package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Alphanumerics is the default recognition whitelist.
const Alphanumerics = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// CharGuess is one candidate reading of a glyph.
type CharGuess struct {
	// Char is the recognized character.
	Char string `json:"char"`

	// CodePoint is Char as a rune.
	CodePoint rune `json:"code_point"`

	// Confidence is the recognizer's confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// Recognizer reads a single isolated glyph.
//
// Implementations return an empty, non-nil slice when the glyph is not
// recognized as exactly one character. Errors are reserved for failures of
// the engine itself.
type Recognizer interface {
	Recognize(img image.Image) ([]CharGuess, error)
}

// Options configures a Tesseract recognizer.
type Options struct {
	// Language is the Tesseract language code. Default: "eng".
	Language string `json:"language" yaml:"language"`

	// TessdataPrefix is the directory holding *.traineddata files. Empty uses
	// the Tesseract installation default.
	TessdataPrefix string `json:"tessdata_prefix" yaml:"tessdataPrefix"`

	// Whitelist restricts the characters Tesseract may return.
	// Default: Alphanumerics.
	Whitelist string `json:"whitelist" yaml:"whitelist"`
}

// Tesseract is a Recognizer backed by the Tesseract engine through gosseract.
//
// The engine runs in single-character page segmentation mode, so every image
// passed to Recognize should contain one glyph. A Tesseract is safe for
// concurrent use; calls are serialized on one underlying client.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a single-character recognizer.
//
// Parameters:
//   - opts: Language, tessdata location and whitelist. Zero values select
//     the defaults documented on Options.
//
// Returns:
//   - *Tesseract: The recognizer. Call Close when done.
//   - error: Non-nil if an option is rejected by gosseract. A missing
//     language file is only detected on the first Recognize call.
func NewTesseract(opts Options) (*Tesseract, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.Whitelist == "" {
		opts.Whitelist = Alphanumerics
	}

	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(opts.Whitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	return &Tesseract{client: client}, nil
}

// Recognize reads img as a single character.
//
// The guess confidence is Tesseract's symbol-level confidence scaled to
// 0.0-1.0. When symbol boxes are unavailable the guess is still returned,
// with zero confidence.
func (t *Tesseract) Recognize(img image.Image) ([]CharGuess, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode glyph: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	confidence := 0.0
	if boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_SYMBOL); err == nil && len(boxes) > 0 {
		confidence = boxes[0].Confidence / 100.0
	}
	return parseGuess(text, confidence), nil
}

// Close releases the Tesseract client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

// parseGuess accepts Tesseract output only when it is exactly one character
// in the '0'..'z' range, optionally followed by a line break.
func parseGuess(text string, confidence float64) []CharGuess {
	text = strings.TrimLeft(text, "\n")
	if text == "" {
		return []CharGuess{}
	}
	c := text[0]
	if c < '0' || c > 'z' {
		return []CharGuess{}
	}
	if rest := text[1:]; rest != "" && rest[0] != '\n' {
		return []CharGuess{}
	}
	return []CharGuess{{
		Char:       string(rune(c)),
		CodePoint:  rune(c),
		Confidence: min(max(confidence, 0), 1),
	}}
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}
