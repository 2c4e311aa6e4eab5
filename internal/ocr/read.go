package ocr

import (
	"fmt"
	"image"

	"github.com/ironsheep/glyph-flood-mcp/internal/glyph"
)

// Reading is the recognizer's answer for one glyph.
type Reading struct {
	Index   int             `json:"index"`
	Bounds  image.Rectangle `json:"bounds"`
	Guesses []CharGuess     `json:"guesses"`
}

// Best returns the most confident guess, if any.
func (r Reading) Best() (CharGuess, bool) {
	if len(r.Guesses) == 0 {
		return CharGuess{}, false
	}
	best := r.Guesses[0]
	for _, g := range r.Guesses[1:] {
		if g.Confidence > best.Confidence {
			best = g
		}
	}
	return best, true
}

// ReadGlyphs runs r over each glyph's mask in order.
//
// The first recognizer error aborts the run; readings gathered so far are
// discarded.
func ReadGlyphs(r Recognizer, glyphs []glyph.Glyph) ([]Reading, error) {
	readings := make([]Reading, 0, len(glyphs))
	for _, g := range glyphs {
		if g.Mask == nil {
			return nil, fmt.Errorf("glyph %d has no mask", g.Index)
		}
		guesses, err := r.Recognize(g.Mask)
		if err != nil {
			return nil, fmt.Errorf("glyph %d: %w", g.Index, err)
		}
		if guesses == nil {
			guesses = []CharGuess{}
		}
		readings = append(readings, Reading{
			Index:   g.Index,
			Bounds:  g.Bounds,
			Guesses: guesses,
		})
	}
	return readings, nil
}

// Text joins the best guess of every reading, using '?' for glyphs with no
// guess.
func Text(readings []Reading) string {
	out := make([]rune, 0, len(readings))
	for _, r := range readings {
		if g, ok := r.Best(); ok {
			out = append(out, g.CodePoint)
			continue
		}
		out = append(out, '?')
	}
	return string(out)
}
