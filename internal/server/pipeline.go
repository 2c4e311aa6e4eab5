package server

import (
	"fmt"
	"image"

	"github.com/ironsheep/glyph-flood-mcp/internal/glyph"
	"github.com/ironsheep/glyph-flood-mcp/internal/imaging"
	"github.com/ironsheep/glyph-flood-mcp/internal/watershed"
)

// Box is a rectangle in full-image coordinates; X2 and Y2 are exclusive.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func boxOf(r image.Rectangle, origin image.Point) Box {
	r = r.Add(origin)
	return Box{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// segmentArgs are the arguments shared by every tool that floods an image.
// Pointer fields left nil take their value from the server configuration.
type segmentArgs struct {
	Path       string      `json:"path"`
	Region     *regionArgs `json:"region"`
	Invert     *bool       `json:"invert"`
	BlurRadius *float64    `json:"blur_radius"`
	Conflict   string      `json:"conflict"`
}

type glyphArgs struct {
	segmentArgs
	Threshold    *float64 `json:"threshold"`
	MinMass      *int     `json:"min_mass"`
	Padding      *int     `json:"padding"`
	TargetHeight *int     `json:"target_height"`
}

// segmentation is a finished watershed over (part of) a cached image.
type segmentation struct {
	ws *watershed.Watershed
	// origin is the top-left corner of the segmented area in the image.
	origin image.Point
}

// segment loads, crops and preprocesses an image and floods it to
// completion. The caller owns the returned engine.
func (s *Server) segment(a segmentArgs) (*segmentation, error) {
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var origin image.Point
	if a.Region != nil {
		r := image.Rect(a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2)
		cropped, err := imaging.Crop(img, r.Add(img.Bounds().Min), 1)
		if err != nil {
			return nil, err
		}
		img, origin = cropped, r.Min
	}

	cfg := *s.cfg
	if a.Invert != nil {
		cfg.Preprocess.Invert = *a.Invert
	}
	if a.BlurRadius != nil {
		cfg.Preprocess.BlurRadius = *a.BlurRadius
	}
	if a.Conflict != "" {
		cfg.Segmentation.Conflict = a.Conflict
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	ws, err := watershed.New(imaging.IntensityMap(img, cfg.Preprocess), watershed.WithPolicy(policy))
	if err != nil {
		return nil, fmt.Errorf("cannot segment %s: %w", a.Path, err)
	}
	out, err := ws.Run()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}
	if out.Status != watershed.StatusDone {
		ws.Close()
		return nil, fmt.Errorf("segmentation suspended at (%d,%d)", out.Conflict.Pixel.X, out.Conflict.Pixel.Y)
	}
	return &segmentation{ws: ws, origin: origin}, nil
}

// isolate segments an image and cuts its basins into glyphs.
func (s *Server) isolate(a glyphArgs) (watershed.Summary, []glyph.Glyph, image.Point, error) {
	opts := s.cfg.Glyphs
	if a.Threshold != nil {
		opts.Threshold = float32(*a.Threshold)
	}
	if a.MinMass != nil {
		opts.MinMass = *a.MinMass
	}
	if a.Padding != nil {
		opts.Padding = *a.Padding
	}
	if a.TargetHeight != nil {
		opts.TargetHeight = *a.TargetHeight
	}

	seg, err := s.segment(a.segmentArgs)
	if err != nil {
		return watershed.Summary{}, nil, image.Point{}, err
	}
	defer seg.ws.Close()

	glyphs, err := glyph.Isolate(seg.ws, opts)
	if err != nil {
		return watershed.Summary{}, nil, image.Point{}, err
	}
	return seg.ws.Summarize(), glyphs, seg.origin, nil
}
