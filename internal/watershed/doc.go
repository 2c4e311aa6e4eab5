// Package watershed computes a watershed segmentation of a single-channel
// float32 intensity image.
//
// Pixels are flooded one at a time in strictly descending intensity order.
// Each pixel either starts a new basin, extends the single basin it touches,
// or, when it touches two or more distinct basins, raises a merge conflict
// that is handed to a pluggable MergePolicy (or back to the caller).
//
// # Pipeline
//
//  1. Ranking: GeneratePixels scans the image row-major and SortPixels orders
//     the result highest intensity first. Equal intensities are ordered by a
//     64-bit avalanche hash of the pixel's packed bits, so ties are
//     reproducible but not biased toward the scan direction.
//  2. Region forest: one union-find node per pixel, stored in a grid padded by
//     a one-cell sentinel border. Every root carries the mass (pixel count)
//     and bounding box of its basin.
//  3. Flooding: Run walks the ranked queue. Conflicts are resolved with a
//     Disposition (Retry, Edge, Skip, Yield or Stop).
//
// # Suspend and Resume
//
// The engine never blocks. When no policy is attached, or when the policy
// returns Yield, Run returns an Outcome with StatusSuspended and the pending
// Conflict. The caller decides and calls Resume with a disposition; the
// neighbours of the pending pixel are not rescanned unless that disposition
// is Retry.
//
//	ws, err := watershed.New(img)
//	if err != nil {
//	    return err
//	}
//	out, err := ws.Run()
//	for err == nil && out.Status == watershed.StatusSuspended {
//	    out, err = ws.Resume(watershed.Edge)
//	}
//
// # Output
//
// After StatusDone, Regions lists every basin with its mass and bounds, and
// Labels maps each pixel to its basin ordinal (-1 for edge pixels). Pixels
// that were skipped, or never reached because of Stop, remain single-pixel
// basins flagged Unresolved.
//
// # Concurrency
//
// A Watershed is not safe for concurrent use. Segment independent images with
// one Watershed per goroutine; nothing is shared between instances.
package watershed
