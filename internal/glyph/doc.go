// Package glyph turns watershed basins into images suitable for character
// recognition.
//
// Each basin large enough to be a character becomes a Glyph: its bounds and
// mass, summary statistics of its intensities, and a black-on-white mask of
// exactly the pixels the basin owns. Masks are padded and scaled to a common
// height so a recognizer sees every glyph at a similar size.
package glyph
