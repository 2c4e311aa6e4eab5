package watershed

import (
	"errors"
	"image"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

// newImage builds a compact width x height image from row-major values.
func newImage(t *testing.T, width, height int, values ...float32) FloatImage {
	t.Helper()
	if len(values) != width*height {
		t.Fatalf("newImage: got %d values for %dx%d", len(values), width, height)
	}
	img := NewFloatImage(width, height)
	copy(img.Pix, values)
	return img
}

// valley is two peaks separated by a single low pixel at x=2.
func valley(t *testing.T) FloatImage {
	t.Helper()
	return newImage(t, 5, 1, 3, 1, 0, 1, 3)
}

func mustNew(t *testing.T, img FloatImage, opts ...Option) *Watershed {
	t.Helper()
	ws, err := New(img, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return ws
}

// runAnswering drives ws to completion, settling every suspension with d.
func runAnswering(t *testing.T, ws *Watershed, d Disposition) {
	t.Helper()
	out, err := ws.Run()
	for err == nil && out.Status == StatusSuspended {
		out, err = ws.Resume(d)
	}
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func masses(regions []Region) []int {
	m := make([]int, len(regions))
	for i, r := range regions {
		m[i] = r.Mass
	}
	return m
}

func TestNew_InvalidImage(t *testing.T) {
	tests := []struct {
		name string
		img  FloatImage
		want error
	}{
		{"zero width", FloatImage{Height: 1}, ErrEmptyImage},
		{"negative height", FloatImage{Width: 1, Height: -1}, ErrEmptyImage},
		{"too wide", FloatImage{Width: MaxDimension + 1, Height: 1}, ErrImageTooLarge},
		{"short buffer", FloatImage{Pix: make([]float32, 5), Width: 3, Height: 2, Stride: 3}, ErrShortBuffer},
		{"overlapping rows", FloatImage{Pix: make([]float32, 6), Width: 3, Height: 2, Stride: 2}, ErrInvalidStride},
		{"negative element stride", FloatImage{Pix: make([]float32, 6), Width: 3, Height: 2, Stride: 3, ElemStride: -1}, ErrInvalidStride},
		{"nan", FloatImage{Pix: []float32{1, float32(math.NaN())}, Width: 2, Height: 1, Stride: 2}, ErrNaNIntensity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := New(tt.img)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got error %v, want %v", err, tt.want)
			}
			if ws != nil {
				t.Error("New returned a Watershed alongside an error")
			}
		})
	}
}

func TestNew_ClonesInput(t *testing.T) {
	img := valley(t)
	ws := mustNew(t, img)

	img.Pix[0] = 100
	if got := ws.Intensity(0, 0); got != 3 {
		t.Errorf("engine copy changed with input: got %v, want 3", got)
	}
}

func TestRun_NoPolicySuspends(t *testing.T) {
	ws := mustNew(t, valley(t))

	out, err := ws.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Status != StatusSuspended {
		t.Fatalf("status: got %v, want suspended", out.Status)
	}
	c := out.Conflict
	if c.Pixel.X != 2 || c.Pixel.Y != 0 || c.Rank != 4 {
		t.Errorf("conflict at (%d,%d) rank %d, want (2,0) rank 4", c.Pixel.X, c.Pixel.Y, c.Rank)
	}
	if c.A == c.B {
		t.Error("conflicting roots are equal")
	}
	for _, id := range []RegionID{c.A, c.B} {
		r, err := ws.Region(id)
		if err != nil {
			t.Fatalf("Region(%d) failed: %v", id, err)
		}
		if r.ID != id || r.Mass != 2 {
			t.Errorf("region %d: got %+v, want root of mass 2", id, r)
		}
	}
	if pending, ok := ws.Pending(); !ok || pending != c {
		t.Errorf("Pending: got %+v %v, want %+v", pending, ok, c)
	}
	if ws.State(2, 0) != Unvisited {
		t.Error("conflicting pixel marked visited before a disposition")
	}

	out, err = ws.Resume(Edge)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if out.Status != StatusDone {
		t.Fatalf("status after resume: got %v, want done", out.Status)
	}
	if got, want := ws.Labels(), []int32{0, 0, -1, 1, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("labels: got %v, want %v", got, want)
	}
}

func TestRun_EdgePolicy(t *testing.T) {
	ws := mustNew(t, valley(t), WithPolicy(ConstantPolicy(Edge)))

	out, err := ws.Run()
	if err != nil || out.Status != StatusDone {
		t.Fatalf("Run: got %v, %v; want done", out.Status, err)
	}
	if ws.State(2, 0) != EdgePixel {
		t.Error("conflicting pixel is not an edge")
	}
	if _, ok := ws.Find(2, 0); ok {
		t.Error("Find succeeded on an edge pixel")
	}

	regions := ws.Regions()
	if got := masses(regions); !reflect.DeepEqual(got, []int{2, 2}) {
		t.Fatalf("masses: got %v, want [2 2]", got)
	}
	if regions[0].Bounds != image.Rect(0, 0, 2, 1) || regions[1].Bounds != image.Rect(3, 0, 5, 1) {
		t.Errorf("bounds: got %v and %v", regions[0].Bounds, regions[1].Bounds)
	}

	s := ws.Summarize()
	want := Summary{Pixels: 5, Basins: 2, EdgePixels: 1}
	if s != want {
		t.Errorf("summary: got %+v, want %+v", s, want)
	}
}

func TestRun_SkipPolicy(t *testing.T) {
	ws := mustNew(t, valley(t), WithPolicy(ConstantPolicy(Skip)))

	if out, err := ws.Run(); err != nil || out.Status != StatusDone {
		t.Fatalf("Run: got %v, %v; want done", out.Status, err)
	}
	if ws.State(2, 0) != Unvisited {
		t.Error("skipped pixel was marked visited")
	}

	regions := ws.Regions()
	if got := masses(regions); !reflect.DeepEqual(got, []int{2, 1, 2}) {
		t.Fatalf("masses: got %v, want [2 1 2]", got)
	}
	if !regions[1].Unresolved || regions[0].Unresolved || regions[2].Unresolved {
		t.Errorf("only the skipped pixel should be unresolved: %+v", regions)
	}
	if got, want := ws.Labels(), []int32{0, 0, 1, 2, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("labels: got %v, want %v", got, want)
	}
	s := ws.Summarize()
	if s.Basins != 2 || s.UnresolvedPixels != 1 || s.EdgePixels != 0 {
		t.Errorf("summary: got %+v", s)
	}
}

func TestRun_StopPolicy(t *testing.T) {
	ws := mustNew(t, valley(t), WithPolicy(ConstantPolicy(Stop)))

	out, err := ws.Run()
	if err != nil || out.Status != StatusDone {
		t.Fatalf("Run: got %v, %v; want done", out.Status, err)
	}
	if !ws.Stopped() || !ws.Done() {
		t.Error("run should be stopped and done")
	}
	if next, total := ws.Progress(); next != 4 || total != 5 {
		t.Errorf("progress: got %d/%d, want 4/5", next, total)
	}
	if ws.State(2, 0) != Unvisited {
		t.Error("pixel after stop was visited")
	}
	if _, err := ws.Run(); !errors.Is(err, ErrDone) {
		t.Errorf("Run after stop: got %v, want ErrDone", err)
	}
}

func TestRun_YieldPolicy(t *testing.T) {
	calls := 0
	policy := PolicyFunc(func(*Watershed, RegionID, RegionID) Disposition {
		calls++
		return Yield
	})
	ws := mustNew(t, valley(t), WithPolicy(policy))

	out, err := ws.Run()
	if err != nil || out.Status != StatusSuspended {
		t.Fatalf("Run: got %v, %v; want suspended", out.Status, err)
	}
	if calls != 1 {
		t.Fatalf("policy called %d times, want 1", calls)
	}

	out, err = ws.Resume(Yield)
	if err != nil || out.Status != StatusSuspended {
		t.Fatalf("Resume(Yield): got %v, %v; want suspended", out.Status, err)
	}
	if calls != 1 {
		t.Errorf("Resume(Yield) consulted the policy")
	}

	// Retry rescans and asks the policy again, which yields again.
	out, err = ws.Resume(Retry)
	if err != nil || out.Status != StatusSuspended {
		t.Fatalf("Resume(Retry): got %v, %v; want suspended", out.Status, err)
	}
	if calls != 2 {
		t.Errorf("policy called %d times after retry, want 2", calls)
	}

	out, err = ws.Resume(Edge)
	if err != nil || out.Status != StatusDone {
		t.Fatalf("Resume(Edge): got %v, %v; want done", out.Status, err)
	}
}

func TestRun_MergeThenRetry(t *testing.T) {
	calls := 0
	policy := PolicyFunc(func(w *Watershed, a, b RegionID) Disposition {
		calls++
		if _, err := w.Merge(a, b); err != nil {
			t.Errorf("Merge failed: %v", err)
		}
		return Retry
	})
	ws := mustNew(t, valley(t), WithPolicy(policy))

	if out, err := ws.Run(); err != nil || out.Status != StatusDone {
		t.Fatalf("Run: got %v, %v; want done", out.Status, err)
	}
	if calls != 1 {
		t.Errorf("policy called %d times, want 1", calls)
	}
	regions := ws.Regions()
	if len(regions) != 1 || regions[0].Mass != 5 || regions[0].Bounds != image.Rect(0, 0, 5, 1) {
		t.Errorf("regions: got %+v, want one basin of mass 5", regions)
	}
}

func TestRun_InvalidDispositionIsFatal(t *testing.T) {
	ws := mustNew(t, valley(t), WithPolicy(ConstantPolicy(Disposition(42))))

	if _, err := ws.Run(); !errors.Is(err, ErrInvalidDisposition) {
		t.Fatalf("got %v, want ErrInvalidDisposition", err)
	}
	if _, err := ws.Run(); !errors.Is(err, ErrInvalidDisposition) {
		t.Errorf("second Run: got %v, want the same failure", err)
	}
	if _, err := ws.Resume(Edge); !errors.Is(err, ErrInvalidDisposition) {
		t.Errorf("Resume after failure: got %v", err)
	}
}

func TestRun_PolicyCannotDriveEngine(t *testing.T) {
	img := newImage(t, 7, 1, 3, 1, 3, 1, 3, 1, 3)
	calls := 0
	policy := PolicyFunc(func(w *Watershed, a, b RegionID) Disposition {
		calls++
		if _, err := w.Resume(Edge); !errors.Is(err, ErrReentrant) {
			t.Errorf("Resume from policy: got %v, want ErrReentrant", err)
		}
		if err := w.Resolve(Edge); !errors.Is(err, ErrReentrant) {
			t.Errorf("Resolve from policy: got %v, want ErrReentrant", err)
		}
		if _, err := w.Step(); !errors.Is(err, ErrReentrant) {
			t.Errorf("Step from policy: got %v, want ErrReentrant", err)
		}
		if _, err := w.Run(); !errors.Is(err, ErrReentrant) {
			t.Errorf("Run from policy: got %v, want ErrReentrant", err)
		}
		if _, ok := w.Pending(); !ok {
			t.Error("conflict no longer pending inside policy")
		}
		return Edge
	})
	ws := mustNew(t, img, WithPolicy(policy))

	out, err := ws.Run()
	if err != nil || out.Status != StatusDone {
		t.Fatalf("Run: got %v, %v; want done", out.Status, err)
	}
	if calls != 3 {
		t.Errorf("policy called %d times, want 3", calls)
	}
	s := ws.Summarize()
	if s.Basins != 4 || s.EdgePixels != 3 || s.UnresolvedPixels != 0 {
		t.Errorf("summary: got %+v, want 4 basins and 3 edge pixels", s)
	}
}

func TestRun_PolicyClosingEngine(t *testing.T) {
	policy := PolicyFunc(func(w *Watershed, a, b RegionID) Disposition {
		w.Close()
		return Edge
	})
	ws := mustNew(t, valley(t), WithPolicy(policy))

	if _, err := ws.Run(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Run: got %v, want ErrClosed", err)
	}
	if _, err := ws.Run(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Run: got %v, want ErrClosed", err)
	}
}

func TestResume_Misuse(t *testing.T) {
	ws := mustNew(t, valley(t))

	if _, err := ws.Resume(Edge); !errors.Is(err, ErrNoConflict) {
		t.Errorf("Resume before any conflict: got %v, want ErrNoConflict", err)
	}
	if err := ws.Resolve(Edge); !errors.Is(err, ErrNoConflict) {
		t.Errorf("Resolve before any conflict: got %v, want ErrNoConflict", err)
	}

	if _, err := ws.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := ws.Run(); !errors.Is(err, ErrConflictPending) {
		t.Errorf("Run while pending: got %v, want ErrConflictPending", err)
	}
	if _, err := ws.Step(); !errors.Is(err, ErrConflictPending) {
		t.Errorf("Step while pending: got %v, want ErrConflictPending", err)
	}

	if _, err := ws.Resume(Edge); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if _, err := ws.Step(); !errors.Is(err, ErrDone) {
		t.Errorf("Step after done: got %v, want ErrDone", err)
	}
	if _, err := ws.Resume(Edge); !errors.Is(err, ErrDone) {
		t.Errorf("Resume after done: got %v, want ErrDone", err)
	}
}

func TestStep_Classification(t *testing.T) {
	ws := mustNew(t, valley(t))

	counts := make(map[StepResult]int)
	for !ws.Done() {
		r, err := ws.Step()
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		counts[r]++
		if r == StepNeedsMerge {
			if err := ws.Resolve(Skip); err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
		}
	}

	want := map[StepResult]int{StepNew: 2, StepExtended: 2, StepNeedsMerge: 1}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("step results: got %v, want %v", counts, want)
	}
}

func TestMerge_Errors(t *testing.T) {
	ws := mustNew(t, valley(t))
	g := ws.grid

	if _, err := ws.Merge(RegionID(0), RegionID(g.index(0, 0))); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("border handle: got %v, want ErrUnknownRegion", err)
	}
	if _, err := ws.Merge(RegionID(-3), RegionID(g.index(0, 0))); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("negative handle: got %v, want ErrUnknownRegion", err)
	}
	if _, err := ws.Merge(RegionID(g.index(0, 0)), RegionID(g.index(1, 0))); !errors.Is(err, ErrUnvisitedRegion) {
		t.Errorf("unflooded pixels: got %v, want ErrUnvisitedRegion", err)
	}

	runAnswering(t, ws, Edge)
	if _, err := ws.Merge(RegionID(g.index(2, 0)), RegionID(g.index(0, 0))); !errors.Is(err, ErrEdgeRegion) {
		t.Errorf("edge pixel: got %v, want ErrEdgeRegion", err)
	}
}

func TestClose(t *testing.T) {
	ws := mustNew(t, valley(t))
	ws.Close()

	if _, err := ws.Run(); !errors.Is(err, ErrClosed) {
		t.Errorf("Run after Close: got %v, want ErrClosed", err)
	}
	if ws.Regions() != nil {
		t.Error("Regions after Close should be nil")
	}
	if _, ok := ws.Find(0, 0); ok {
		t.Error("Find after Close should fail")
	}
	if _, err := ws.Region(RegionID(8)); !errors.Is(err, ErrClosed) {
		t.Errorf("Region after Close: got %v, want ErrClosed", err)
	}
}

func TestRun_FlatRowTerminates(t *testing.T) {
	img := newImage(t, 3, 1, 1, 1, 1)
	middleLast := RankPixels(img)[2].X == 1

	var labels [2][]int32
	for i := range labels {
		ws := mustNew(t, img, WithPolicy(ConstantPolicy(Edge)))
		if out, err := ws.Run(); err != nil || out.Status != StatusDone {
			t.Fatalf("Run: got %v, %v; want done", out.Status, err)
		}
		labels[i] = ws.Labels()

		regions := ws.Regions()
		if middleLast {
			if !reflect.DeepEqual(labels[i], []int32{0, -1, 1}) {
				t.Errorf("middle ranked last: labels %v, want [0 -1 1]", labels[i])
			}
			continue
		}
		if len(regions) != 1 || regions[0].Mass != 3 {
			t.Errorf("middle ranked early: got %+v, want one basin of mass 3", regions)
		}
	}
	if !reflect.DeepEqual(labels[0], labels[1]) {
		t.Errorf("runs disagree: %v vs %v", labels[0], labels[1])
	}
}

// randomImage returns a noisy image with few distinct levels, so ties are common.
func randomImage(seed int64, width, height int) FloatImage {
	rng := rand.New(rand.NewSource(seed))
	img := NewFloatImage(width, height)
	for i := range img.Pix {
		img.Pix[i] = float32(rng.Intn(4))
	}
	return img
}

func mergingPolicy() MergePolicy {
	return PolicyFunc(func(w *Watershed, a, b RegionID) Disposition {
		if _, err := w.Merge(a, b); err != nil {
			return Stop
		}
		return Retry
	})
}

func TestRun_PartitionAndBounds(t *testing.T) {
	policies := map[string]MergePolicy{
		"edge":  ConstantPolicy(Edge),
		"skip":  ConstantPolicy(Skip),
		"merge": mergingPolicy(),
	}

	for name, policy := range policies {
		t.Run(name, func(t *testing.T) {
			const width, height = 12, 9
			ws := mustNew(t, randomImage(42, width, height), WithPolicy(policy))
			if out, err := ws.Run(); err != nil || out.Status != StatusDone {
				t.Fatalf("Run: got %v, %v; want done", out.Status, err)
			}

			regions := ws.Regions()
			labels := ws.Labels()

			total, edges := 0, 0
			for _, r := range regions {
				total += r.Mass
			}
			counts := make([]int, len(regions))
			boxes := make([]image.Rectangle, len(regions))
			for i, l := range labels {
				x, y := i%width, i/width
				if l < 0 {
					edges++
					if ws.State(x, y) != EdgePixel {
						t.Errorf("label -1 on non-edge pixel (%d,%d)", x, y)
					}
					continue
				}
				counts[l]++
				px := image.Rect(x, y, x+1, y+1)
				if counts[l] == 1 {
					boxes[l] = px
				} else {
					boxes[l] = boxes[l].Union(px)
				}
				id, ok := ws.Find(x, y)
				if !ok || id != regions[l].ID {
					t.Errorf("Find(%d,%d) = %d,%v; want %d", x, y, id, ok, regions[l].ID)
				}
			}

			if total+edges != width*height {
				t.Errorf("masses %d + edges %d != %d pixels", total, edges, width*height)
			}
			for i, r := range regions {
				if counts[i] != r.Mass {
					t.Errorf("region %d: mass %d, labelled pixels %d", i, r.Mass, counts[i])
				}
				if boxes[i] != r.Bounds {
					t.Errorf("region %d: bounds %v, tight box %v", i, r.Bounds, boxes[i])
				}
			}
			if s := ws.Summarize(); s.EdgePixels != edges {
				t.Errorf("summary edges %d, counted %d", s.EdgePixels, edges)
			}
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	run := func() ([]int32, []Region) {
		ws := mustNew(t, randomImage(3, 16, 10))
		runAnswering(t, ws, Edge)
		return ws.Labels(), ws.Regions()
	}

	l1, r1 := run()
	l2, r2 := run()
	if !reflect.DeepEqual(l1, l2) || !reflect.DeepEqual(r1, r2) {
		t.Error("identical inputs produced different partitions")
	}
}

func TestFind_Idempotent(t *testing.T) {
	ws := mustNew(t, randomImage(5, 8, 8), WithPolicy(ConstantPolicy(Edge)))
	if _, err := ws.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	before := ws.Regions()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a, okA := ws.Find(x, y)
			b, okB := ws.Find(x, y)
			if a != b || okA != okB {
				t.Errorf("Find(%d,%d) not idempotent: %d/%v then %d/%v", x, y, a, okA, b, okB)
			}
		}
	}
	if after := ws.Regions(); !reflect.DeepEqual(before, after) {
		t.Error("Find changed region statistics")
	}
}

func TestSkip_NeverGrowsConflictingRegions(t *testing.T) {
	ws := mustNew(t, randomImage(11, 10, 10))

	var skipped []Pixel
	for !ws.Done() {
		r, err := ws.Step()
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if r != StepNeedsMerge {
			continue
		}
		c, _ := ws.Pending()
		ra, _ := ws.Region(c.A)
		rb, _ := ws.Region(c.B)
		if err := ws.Resolve(Skip); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		ra2, _ := ws.Region(c.A)
		rb2, _ := ws.Region(c.B)
		if ra2.Mass != ra.Mass || rb2.Mass != rb.Mass {
			t.Errorf("skip grew a conflicting region: %d->%d, %d->%d", ra.Mass, ra2.Mass, rb.Mass, rb2.Mass)
		}
		skipped = append(skipped, c.Pixel)
	}

	if len(skipped) == 0 {
		t.Fatal("test image produced no conflicts")
	}
	for _, p := range skipped {
		if s := ws.State(int(p.X), int(p.Y)); s != Unvisited {
			t.Errorf("skipped pixel (%d,%d) has state %v", p.X, p.Y, s)
		}
	}
}

func TestEdge_ConflictPixelsNeverCounted(t *testing.T) {
	ws := mustNew(t, randomImage(11, 10, 10))

	var conflicts []Pixel
	out, err := ws.Run()
	for err == nil && out.Status == StatusSuspended {
		conflicts = append(conflicts, out.Conflict.Pixel)
		out, err = ws.Resume(Edge)
	}
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(conflicts) == 0 {
		t.Fatal("test image produced no conflicts")
	}

	for _, p := range conflicts {
		if s := ws.State(int(p.X), int(p.Y)); s != EdgePixel {
			t.Errorf("conflict pixel (%d,%d) has state %v, want edge", p.X, p.Y, s)
		}
	}
	s := ws.Summarize()
	if s.EdgePixels != len(conflicts) {
		t.Errorf("edge pixels %d, conflicts %d", s.EdgePixels, len(conflicts))
	}
	mass := 0
	for _, r := range ws.Regions() {
		mass += r.Mass
	}
	if mass+s.EdgePixels != 100 {
		t.Errorf("masses %d + edges %d != 100", mass, s.EdgePixels)
	}
}
