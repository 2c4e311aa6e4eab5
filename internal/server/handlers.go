package server

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/ironsheep/glyph-flood-mcp/internal/imaging"
	"github.com/ironsheep/glyph-flood-mcp/internal/ocr"
	"github.com/ironsheep/glyph-flood-mcp/internal/watershed"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_watershed").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		log.Printf("Tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Fills unset optional parameters from the server configuration
//  3. Loads images from cache as needed
//  4. Runs the segmentation pipeline as far as the tool needs
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Segmentation
	case "image_watershed":
		return s.handleImageWatershed(args)
	case "image_segment_glyphs":
		return s.handleImageSegmentGlyphs(args)
	case "image_read_glyphs":
		return s.handleImageReadGlyphs(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Segmentation Handlers ===

const defaultMaxBasins = 200

type imageWatershedArgs struct {
	segmentArgs
	MaxBasins int `json:"max_basins"`
}

// WatershedResult is the image_watershed response.
type WatershedResult struct {
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Summary   watershed.Summary `json:"summary"`
	Basins    []BasinResult     `json:"basins"`
	Truncated bool              `json:"truncated"`
}

// BasinResult describes one basin.
type BasinResult struct {
	ID   int `json:"id"`
	Mass int `json:"mass"`
	Box  Box `json:"box"`
}

func (s *Server) handleImageWatershed(args json.RawMessage) (interface{}, error) {
	var a imageWatershedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxBasins <= 0 {
		a.MaxBasins = defaultMaxBasins
	}

	seg, err := s.segment(a.segmentArgs)
	if err != nil {
		return nil, err
	}
	defer seg.ws.Close()

	result := &WatershedResult{
		Width:   seg.ws.Width(),
		Height:  seg.ws.Height(),
		Summary: seg.ws.Summarize(),
		Basins:  []BasinResult{},
	}
	for _, r := range seg.ws.Regions() {
		if r.Unresolved {
			continue
		}
		result.Basins = append(result.Basins, BasinResult{
			ID:   int(r.ID),
			Mass: r.Mass,
			Box:  boxOf(r.Bounds, seg.origin),
		})
	}
	sort.SliceStable(result.Basins, func(i, j int) bool {
		return result.Basins[i].Mass > result.Basins[j].Mass
	})
	if len(result.Basins) > a.MaxBasins {
		result.Basins = result.Basins[:a.MaxBasins]
		result.Truncated = true
	}
	return result, nil
}

type imageSegmentGlyphsArgs struct {
	glyphArgs
	IncludeMasks bool `json:"include_masks"`
}

// SegmentResult is the image_segment_glyphs response.
type SegmentResult struct {
	Summary watershed.Summary `json:"summary"`
	Glyphs  []GlyphResult     `json:"glyphs"`
}

// GlyphResult describes one isolated glyph.
type GlyphResult struct {
	Index           int                   `json:"index"`
	Box             Box                   `json:"box"`
	Mass            int                   `json:"mass"`
	BasinMass       int                   `json:"basin_mass"`
	MeanIntensity   float64               `json:"mean_intensity"`
	StdDevIntensity float64               `json:"stddev_intensity"`
	Mask            *imaging.EncodedImage `json:"mask,omitempty"`
}

func (s *Server) handleImageSegmentGlyphs(args json.RawMessage) (interface{}, error) {
	var a imageSegmentGlyphsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	summary, glyphs, origin, err := s.isolate(a.glyphArgs)
	if err != nil {
		return nil, err
	}

	result := &SegmentResult{
		Summary: summary,
		Glyphs:  make([]GlyphResult, 0, len(glyphs)),
	}
	for _, g := range glyphs {
		gr := GlyphResult{
			Index:           g.Index,
			Box:             boxOf(g.Bounds, origin),
			Mass:            g.Mass,
			BasinMass:       g.Basin.Mass,
			MeanIntensity:   g.MeanIntensity,
			StdDevIntensity: g.StdDevIntensity,
		}
		if a.IncludeMasks {
			enc, err := imaging.EncodePNG(g.Mask)
			if err != nil {
				return nil, fmt.Errorf("glyph %d: %w", g.Index, err)
			}
			gr.Mask = enc
		}
		result.Glyphs = append(result.Glyphs, gr)
	}
	return result, nil
}

// ReadResult is the image_read_glyphs response.
type ReadResult struct {
	Text   string         `json:"text"`
	Glyphs []GlyphReading `json:"glyphs"`
}

// GlyphReading is the recognizer's answer for one glyph.
type GlyphReading struct {
	Index   int             `json:"index"`
	Box     Box             `json:"box"`
	Best    *ocr.CharGuess  `json:"best,omitempty"`
	Guesses []ocr.CharGuess `json:"guesses"`
}

func (s *Server) handleImageReadGlyphs(args json.RawMessage) (interface{}, error) {
	var a glyphArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	_, glyphs, origin, err := s.isolate(a)
	if err != nil {
		return nil, err
	}
	rec, err := s.ocrEngine()
	if err != nil {
		return nil, err
	}
	readings, err := ocr.ReadGlyphs(rec, glyphs)
	if err != nil {
		return nil, err
	}

	result := &ReadResult{
		Text:   ocr.Text(readings),
		Glyphs: make([]GlyphReading, 0, len(readings)),
	}
	for _, r := range readings {
		gr := GlyphReading{
			Index:   r.Index,
			Box:     boxOf(r.Bounds, origin),
			Guesses: r.Guesses,
		}
		if best, ok := r.Best(); ok {
			gr.Best = &best
		}
		result.Glyphs = append(result.Glyphs, gr)
	}
	return result, nil
}
