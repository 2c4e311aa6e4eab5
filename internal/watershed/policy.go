package watershed

import (
	"fmt"
	"strings"
)

// Disposition tells the engine what to do with a pixel that touches two or
// more distinct basins.
type Disposition int

const (
	// Retry classifies the same pixel again. Policies return it after merging
	// the conflicting regions themselves (see Watershed.Merge). A policy that
	// returns Retry without merging sees the same conflict again.
	Retry Disposition = iota + 1
	// Edge marks the pixel as a permanent watershed boundary.
	Edge
	// Skip advances past the pixel, leaving it unvisited.
	Skip
	// Yield suspends the run with the conflict pending.
	Yield
	// Stop ends the run. Regions built so far are final.
	Stop
)

var dispositionNames = map[Disposition]string{
	Retry: "retry",
	Edge:  "edge",
	Skip:  "skip",
	Yield: "yield",
	Stop:  "stop",
}

func (d Disposition) String() string {
	if name, ok := dispositionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Disposition(%d)", int(d))
}

// ParseDisposition converts a case-insensitive name such as "edge" into a
// Disposition.
func ParseDisposition(s string) (Disposition, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for d, name := range dispositionNames {
		if name == want {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDisposition, s)
}

// MergePolicy decides conflicts. a and b are distinct region roots, valid at
// the time of the call. Resolve may inspect them with Watershed.Region and
// merge them with Watershed.Merge, but must not drive the engine: Step, Run,
// Resume and Resolve fail with ErrReentrant while a policy is deciding.
type MergePolicy interface {
	Resolve(w *Watershed, a, b RegionID) Disposition
}

// PolicyFunc adapts an ordinary function to MergePolicy.
type PolicyFunc func(w *Watershed, a, b RegionID) Disposition

// Resolve calls f(w, a, b).
func (f PolicyFunc) Resolve(w *Watershed, a, b RegionID) Disposition {
	return f(w, a, b)
}

// ConstantPolicy returns a policy that answers every conflict with d.
func ConstantPolicy(d Disposition) MergePolicy {
	return PolicyFunc(func(*Watershed, RegionID, RegionID) Disposition {
		return d
	})
}
