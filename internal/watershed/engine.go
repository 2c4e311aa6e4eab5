package watershed

import "fmt"

// StepResult classifies a single flooding step.
type StepResult int

const (
	// StepNew means the pixel touched no basin and became a basin of its own.
	StepNew StepResult = iota + 1
	// StepExtended means the pixel joined the only basin it touched.
	StepExtended
	// StepNeedsMerge means the pixel touches two or more basins. The conflict
	// stays pending until a disposition is supplied.
	StepNeedsMerge
)

func (r StepResult) String() string {
	switch r {
	case StepNew:
		return "new"
	case StepExtended:
		return "extended"
	case StepNeedsMerge:
		return "needs-merge"
	}
	return fmt.Sprintf("StepResult(%d)", int(r))
}

// Status is the state a run returns to its caller in.
type Status int

const (
	// StatusDone means every pixel was processed or the run was stopped.
	StatusDone Status = iota + 1
	// StatusSuspended means a conflict awaits a disposition via Resume.
	StatusSuspended
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusSuspended:
		return "suspended"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Conflict describes a pixel that touches two distinct basins.
type Conflict struct {
	Pixel Pixel
	Rank  int      // position of Pixel in the flooding queue
	A, B  RegionID // the first two distinct neighbouring roots found
	cell  int
}

// Outcome is the result of Run and Resume. Conflict is set only when Status
// is StatusSuspended.
type Outcome struct {
	Status   Status
	Conflict Conflict
}

// Option configures a Watershed.
type Option func(*Watershed)

// WithPolicy attaches a merge policy. Without one every conflict suspends the
// run.
func WithPolicy(p MergePolicy) Option {
	return func(w *Watershed) {
		w.policy = p
	}
}

// Watershed is one segmentation run over a private copy of the input image.
type Watershed struct {
	img       FloatImage
	width     int
	height    int
	numPixels int
	queue     []Pixel
	grid      *forest
	nextRank  int
	policy    MergePolicy

	pending  *Conflict
	inPolicy bool
	done     bool
	stopped  bool
	closed   bool
	err      error
}

// New validates img, copies it and ranks its pixels. No Watershed is returned
// on error.
func New(img FloatImage, opts ...Option) (*Watershed, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	clone := img.Clone()
	w := &Watershed{
		img:       clone,
		width:     clone.Width,
		height:    clone.Height,
		numPixels: clone.Width * clone.Height,
		queue:     RankPixels(clone),
		grid:      newForest(clone.Width, clone.Height),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Width returns the image width in pixels.
func (w *Watershed) Width() int { return w.width }

// Height returns the image height in pixels.
func (w *Watershed) Height() int { return w.height }

// Progress returns the queue cursor and the queue length.
func (w *Watershed) Progress() (next, total int) {
	return w.nextRank, w.numPixels
}

// Done reports whether the run has finished.
func (w *Watershed) Done() bool { return w.done }

// Stopped reports whether the run was ended early by Stop.
func (w *Watershed) Stopped() bool { return w.stopped }

// Pending returns the conflict awaiting a disposition, if any.
func (w *Watershed) Pending() (Conflict, bool) {
	if w.pending == nil {
		return Conflict{}, false
	}
	return *w.pending, true
}

// Intensity returns the sample at (x, y) from the engine's copy of the image.
func (w *Watershed) Intensity(x, y int) float32 {
	return w.img.At(x, y)
}

func (w *Watershed) usable() error {
	switch {
	case w.closed:
		return ErrClosed
	case w.inPolicy:
		return ErrReentrant
	case w.err != nil:
		return w.err
	case w.done:
		return ErrDone
	}
	return nil
}

// Step processes the pixel under the cursor without consulting the policy.
// On StepNeedsMerge the conflict stays pending; settle it with Resolve or
// Resume.
func (w *Watershed) Step() (StepResult, error) {
	if err := w.usable(); err != nil {
		return 0, err
	}
	if w.pending != nil {
		return 0, ErrConflictPending
	}
	return w.step(), nil
}

// Run floods until the queue is exhausted, a Stop, or a suspension.
func (w *Watershed) Run() (Outcome, error) {
	if err := w.usable(); err != nil {
		return Outcome{}, err
	}
	if w.pending != nil {
		return Outcome{}, ErrConflictPending
	}
	return w.drive()
}

// Resume settles the pending conflict with d and continues flooding as Run
// does. Yield leaves the conflict pending and returns StatusSuspended again.
func (w *Watershed) Resume(d Disposition) (Outcome, error) {
	if err := w.usable(); err != nil {
		return Outcome{}, err
	}
	if w.pending == nil {
		return Outcome{}, ErrNoConflict
	}
	out, more, err := w.dispatch(d)
	if err != nil || !more {
		return out, err
	}
	return w.drive()
}

// Resolve settles the pending conflict with d without flooding further. It
// is the single-step counterpart of Resume.
func (w *Watershed) Resolve(d Disposition) error {
	if err := w.usable(); err != nil {
		return err
	}
	if w.pending == nil {
		return ErrNoConflict
	}
	_, _, err := w.dispatch(d)
	return err
}

// Close releases the grid, the queue and the image copy. Regions must be
// read before Close.
func (w *Watershed) Close() {
	w.closed = true
	w.grid = nil
	w.queue = nil
	w.img = FloatImage{}
	w.pending = nil
}

func (w *Watershed) drive() (Outcome, error) {
	for !w.done {
		if w.step() != StepNeedsMerge {
			continue
		}
		if w.policy == nil {
			return w.suspend(), nil
		}
		c := w.pending
		w.inPolicy = true
		d := w.policy.Resolve(w, c.A, c.B)
		w.inPolicy = false
		switch {
		case w.closed:
			return Outcome{}, ErrClosed
		case w.pending != c:
			w.err = fmt.Errorf("%w: conflict at (%d,%d) changed during Resolve", ErrReentrant, c.Pixel.X, c.Pixel.Y)
			return Outcome{}, w.err
		}
		out, more, err := w.dispatch(d)
		if err != nil || !more {
			return out, err
		}
	}
	return Outcome{Status: StatusDone}, nil
}

func (w *Watershed) suspend() Outcome {
	return Outcome{Status: StatusSuspended, Conflict: *w.pending}
}

func (w *Watershed) advance() {
	w.nextRank++
	if w.nextRank >= w.numPixels {
		w.done = true
	}
}

// step classifies queue[nextRank] by the distinct roots among its visited,
// non-edge neighbours.
func (w *Watershed) step() StepResult {
	g := w.grid
	px := w.queue[w.nextRank]
	idx := g.index(int(px.X), int(px.Y))
	self := g.find(idx)

	first, second := -1, -1
scan:
	for _, off := range g.offsets {
		n := idx + off
		if c := &g.cells[n]; !c.visited || c.edge {
			continue
		}
		r := g.find(n)
		switch {
		case r == self:
			// already joined, e.g. by a policy merge before Retry
		case first < 0:
			first = r
		case r != first:
			second = r
			break scan
		}
	}

	switch {
	case first < 0:
		g.cells[idx].visited = true
		w.advance()
		return StepNew
	case second < 0:
		g.union(first, idx)
		g.cells[idx].visited = true
		w.advance()
		return StepExtended
	}
	w.pending = &Conflict{
		Pixel: px,
		Rank:  w.nextRank,
		A:     RegionID(first),
		B:     RegionID(second),
		cell:  idx,
	}
	return StepNeedsMerge
}

// dispatch applies d to the pending conflict. more reports whether flooding
// should continue.
func (w *Watershed) dispatch(d Disposition) (out Outcome, more bool, err error) {
	c := w.pending
	switch d {
	case Retry:
		w.pending = nil
		return Outcome{}, true, nil
	case Edge:
		cell := &w.grid.cells[c.cell]
		cell.visited = true
		cell.edge = true
		w.pending = nil
		w.advance()
		return Outcome{}, true, nil
	case Skip:
		w.pending = nil
		w.advance()
		return Outcome{}, true, nil
	case Yield:
		return w.suspend(), false, nil
	case Stop:
		w.pending = nil
		w.done = true
		w.stopped = true
		return Outcome{Status: StatusDone}, false, nil
	}
	w.err = fmt.Errorf("%w: %v for pixel (%d,%d)", ErrInvalidDisposition, d, c.Pixel.X, c.Pixel.Y)
	return Outcome{}, false, w.err
}
