package watershed

import "math"

// cell is one union-find node. mass and the bounding box are authoritative
// only while the cell is a root.
type cell struct {
	parent  int32
	rank    uint8
	visited bool
	edge    bool
	mass    int32
	minX    int16
	maxX    int16
	minY    int16
	maxY    int16
}

// resetStats puts the cell's aggregate fields into their identity state.
func (c *cell) resetStats() {
	c.mass = 0
	c.minX = math.MaxInt16
	c.maxX = math.MinInt16
	c.minY = math.MaxInt16
	c.maxY = math.MinInt16
}

// forest is the region grid: a (width+2) x (height+2) array of cells whose
// one-cell border is never visited, so neighbour scans need no bounds checks.
type forest struct {
	width   int
	height  int
	stride  int
	cells   []cell
	offsets [8]int
}

func newForest(width, height int) *forest {
	stride := width + 2
	f := &forest{
		width:  width,
		height: height,
		stride: stride,
		cells:  make([]cell, stride*(height+2)),
		offsets: [8]int{
			-stride - 1, -stride, -stride + 1,
			-1, 1,
			stride - 1, stride, stride + 1,
		},
	}
	for i := range f.cells {
		c := &f.cells[i]
		c.parent = int32(i)
		c.resetStats()
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := &f.cells[f.index(x, y)]
			c.mass = 1
			c.minX, c.maxX = int16(x), int16(x)
			c.minY, c.maxY = int16(y), int16(y)
		}
	}
	return f
}

// index maps image coordinates to a grid index.
func (f *forest) index(x, y int) int {
	return (y+1)*f.stride + x + 1
}

// coords maps a grid index back to image coordinates.
func (f *forest) coords(i int) (x, y int) {
	return i%f.stride - 1, i/f.stride - 1
}

// interior reports whether i addresses an image pixel rather than the border.
func (f *forest) interior(i int) bool {
	if i < 0 || i >= len(f.cells) {
		return false
	}
	x, y := f.coords(i)
	return x >= 0 && x < f.width && y >= 0 && y < f.height
}

// find returns the root of i, pointing every node on the walk at its
// grandparent.
func (f *forest) find(i int) int {
	for {
		p := int(f.cells[i].parent)
		if p == i {
			return i
		}
		f.cells[i].parent = f.cells[p].parent
		i = p
	}
}

// union merges the regions of p and q and returns the surviving root. The
// lower-rank root is attached under the higher one; on equal rank q's root
// goes under p's and p's rank grows.
func (f *forest) union(p, q int) int {
	rp, rq := f.find(p), f.find(q)
	if rp == rq {
		return rp
	}
	switch {
	case f.cells[rp].rank < f.cells[rq].rank:
		rp, rq = rq, rp
	case f.cells[rp].rank == f.cells[rq].rank:
		f.cells[rp].rank++
	}
	f.fold(rp, rq)
	return rp
}

// fold moves the statistics of absorbed into root and links absorbed under it.
func (f *forest) fold(root, absorbed int) {
	r, a := &f.cells[root], &f.cells[absorbed]
	a.parent = int32(root)
	r.mass += a.mass
	r.minX = min(r.minX, a.minX)
	r.maxX = max(r.maxX, a.maxX)
	r.minY = min(r.minY, a.minY)
	r.maxY = max(r.maxY, a.maxY)
	a.resetStats()
}
