// Package server implements the MCP (Model Context Protocol) server for
// watershed glyph segmentation.
//
// This package provides a JSON-RPC 2.0 server that exposes the segmentation
// pipeline through the MCP protocol, so an MCP client can split a page into
// character glyphs and read them.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Segmentation:
//   - image_watershed: Flood the image and list basins
//   - image_segment_glyphs: Cut basins into glyph boxes and masks
//   - image_read_glyphs: Recognize each glyph as one character
//
// Every segmentation tool accepts an optional region and per-call overrides
// of the preprocessing, conflict and glyph settings. Unset arguments come
// from the server's config.Config.
//
// # Segmentation Pipeline
//
// A call loads the image through the cache, optionally crops it, converts it
// to an intensity map (grayscale, blur, invert), floods it with a watershed
// engine driven by the configured merge policy, and then isolates glyphs.
// Each call builds and closes its own engine; nothing but the image cache and
// the recognizer is shared between calls.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(config.DefaultConfig())
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
