package watershed

import (
	"fmt"
	"image"
)

// RegionID is an opaque handle to a region root. Handles are only meaningful
// for the Watershed that issued them, and a handle stops being a root once
// its region is merged into another.
type RegionID int

// Region describes one basin.
type Region struct {
	ID   RegionID `json:"id"`
	Mass int      `json:"mass"`
	// Bounds is the tight bounding box; Max is exclusive.
	Bounds image.Rectangle `json:"bounds"`
	// Unresolved marks a single pixel that was skipped or never reached.
	Unresolved bool `json:"unresolved,omitempty"`
}

// PixelState is the final classification of a pixel.
type PixelState int

const (
	// Unvisited pixels were skipped or not yet reached.
	Unvisited PixelState = iota
	// InBasin pixels belong to a flooded basin.
	InBasin
	// EdgePixel pixels are watershed boundaries and belong to no basin.
	EdgePixel
)

// Summary counts the outcome of a run.
type Summary struct {
	Pixels           int  `json:"pixels"`
	Basins           int  `json:"basins"`
	EdgePixels       int  `json:"edge_pixels"`
	UnresolvedPixels int  `json:"unresolved_pixels"`
	Stopped          bool `json:"stopped"`
}

func (w *Watershed) cellIndex(id RegionID) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	i := int(id)
	if !w.grid.interior(i) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownRegion, id)
	}
	return i, nil
}

func (w *Watershed) region(root int) Region {
	c := &w.grid.cells[root]
	return Region{
		ID:   RegionID(root),
		Mass: int(c.mass),
		Bounds: image.Rect(
			int(c.minX), int(c.minY),
			int(c.maxX)+1, int(c.maxY)+1,
		),
		Unresolved: !c.visited,
	}
}

// Region returns the basin that id currently belongs to.
func (w *Watershed) Region(id RegionID) (Region, error) {
	i, err := w.cellIndex(id)
	if err != nil {
		return Region{}, err
	}
	return w.region(w.grid.find(i)), nil
}

// Merge joins the regions of a and b and returns the surviving root. It is
// meant for merge policies that then answer Retry.
func (w *Watershed) Merge(a, b RegionID) (RegionID, error) {
	ia, err := w.cellIndex(a)
	if err != nil {
		return 0, err
	}
	ib, err := w.cellIndex(b)
	if err != nil {
		return 0, err
	}
	for _, i := range [2]int{ia, ib} {
		switch c := &w.grid.cells[i]; {
		case c.edge:
			return 0, ErrEdgeRegion
		case !c.visited:
			return 0, ErrUnvisitedRegion
		}
	}
	return RegionID(w.grid.union(ia, ib)), nil
}

// Find returns the root of the basin containing (x, y). ok is false for
// coordinates outside the image and for edge pixels.
func (w *Watershed) Find(x, y int) (id RegionID, ok bool) {
	if w.closed || x < 0 || x >= w.width || y < 0 || y >= w.height {
		return 0, false
	}
	i := w.grid.index(x, y)
	if w.grid.cells[i].edge {
		return 0, false
	}
	return RegionID(w.grid.find(i)), true
}

// State returns the classification of the pixel at (x, y).
func (w *Watershed) State(x, y int) PixelState {
	if w.closed || x < 0 || x >= w.width || y < 0 || y >= w.height {
		return Unvisited
	}
	c := &w.grid.cells[w.grid.index(x, y)]
	switch {
	case c.edge:
		return EdgePixel
	case c.visited:
		return InBasin
	}
	return Unvisited
}

// Regions lists every basin in order of its first pixel in raster order.
// Edge pixels belong to none of them; unresolved pixels are single-pixel
// regions.
func (w *Watershed) Regions() []Region {
	regions, _ := w.label()
	return regions
}

// Labels returns, for each pixel in raster order, the index of its basin in
// Regions, or -1 for edge pixels.
func (w *Watershed) Labels() []int32 {
	_, labels := w.label()
	return labels
}

// Partition returns Regions and Labels from a single pass.
func (w *Watershed) Partition() ([]Region, []int32) {
	return w.label()
}

// Summarize counts basins, edge pixels and unresolved pixels.
func (w *Watershed) Summarize() Summary {
	regions, labels := w.label()
	s := Summary{
		Pixels:  w.numPixels,
		Stopped: w.stopped,
	}
	for _, r := range regions {
		if r.Unresolved {
			s.UnresolvedPixels += r.Mass
			continue
		}
		s.Basins++
	}
	for _, l := range labels {
		if l < 0 {
			s.EdgePixels++
		}
	}
	return s
}

func (w *Watershed) label() ([]Region, []int32) {
	if w.closed {
		return nil, nil
	}
	g := w.grid
	labels := make([]int32, 0, w.numPixels)
	ordinal := make(map[int]int32)
	var regions []Region
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			i := g.index(x, y)
			if g.cells[i].edge {
				labels = append(labels, -1)
				continue
			}
			root := g.find(i)
			n, seen := ordinal[root]
			if !seen {
				n = int32(len(regions))
				ordinal[root] = n
				regions = append(regions, w.region(root))
			}
			labels = append(labels, n)
		}
	}
	return regions, labels
}
