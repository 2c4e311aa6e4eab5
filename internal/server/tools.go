package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the image path argument shared by every tool.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// segmentationProperties returns the arguments shared by the tools that run
// the watershed, merged with extra.
func segmentationProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": pathProperty,
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional rectangle to segment instead of the whole image. Coordinates in results stay in full-image space.",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
				"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
				"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
				"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
		"invert": map[string]interface{}{
			"type":        "boolean",
			"description": "Invert lightness before flooding so dark ink forms the basins. Default from server config (true)",
		},
		"blur_radius": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian blur radius applied before flooding. 0 disables. Default from server config",
		},
		"conflict": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"edge", "skip", "stop"},
			"description": "What to do with a pixel touching two basins. Default from server config (edge)",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// glyphProperties are the glyph isolation arguments.
var glyphProperties = map[string]interface{}{
	"threshold": map[string]interface{}{
		"type":        "number",
		"description": "Lowest intensity (0-1, after preprocessing) counted as ink. Default from server config (0.5)",
	},
	"min_mass": map[string]interface{}{
		"type":        "integer",
		"description": "Smallest glyph in ink pixels. Default from server config (8)",
	},
	"padding": map[string]interface{}{
		"type":        "integer",
		"description": "White border around each glyph mask, in pixels",
	},
	"target_height": map[string]interface{}{
		"type":        "integer",
		"description": "Height glyph masks are scaled to. 0 keeps the native size",
	},
}

func withGlyphProperties(extra map[string]interface{}) map[string]interface{} {
	props := make(map[string]interface{}, len(glyphProperties)+len(extra))
	for k, v := range glyphProperties {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return segmentationProperties(props)
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Segmentation
		{
			Name:        "image_watershed",
			Description: "Flood the image's lightness from its brightest pixels down and report the resulting basins with their mass and bounding boxes, plus counts of edge and unresolved pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": segmentationProperties(map[string]interface{}{
					"max_basins": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of basins listed, largest first (default 200)",
						"default":     200,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_segment_glyphs",
			Description: "Segment the image into glyphs: one per basin with enough ink. Returns glyph bounding boxes in reading order and, optionally, each glyph's mask as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withGlyphProperties(map[string]interface{}{
					"include_masks": map[string]interface{}{
						"type":        "boolean",
						"description": "Include each glyph's black-on-white mask as base64 PNG (default false)",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_read_glyphs",
			Description: "Segment the image into glyphs and recognize each one as a single alphanumeric character. Returns per-glyph guesses with confidence and the joined text.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withGlyphProperties(nil),
				"required":   []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
