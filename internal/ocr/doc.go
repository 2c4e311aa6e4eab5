// Package ocr recognizes isolated glyphs using Tesseract.
//
// The watershed stage hands this package one small image per basin. Each is
// read in Tesseract's single-character page segmentation mode with an
// alphanumeric whitelist, and the answer is accepted only if Tesseract
// returns exactly one character.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Options.TessdataPrefix points at a non-default traineddata directory.
//
// # Recognizer
//
// Recognizer is the interface callers depend on. Tesseract is the
// gosseract-backed implementation.
//
// # Confidence
//
// Confidence is Tesseract's symbol-level confidence divided by 100. It
// reflects how sure the engine is of its choice among the whitelisted
// characters, not whether the glyph is a character at all.
package ocr
