package watershed

import "errors"

var (
	// ErrEmptyImage indicates an image with no rows or no columns.
	ErrEmptyImage = errors.New("watershed: image must have at least one row and one column")
	// ErrImageTooLarge indicates a dimension beyond MaxDimension.
	ErrImageTooLarge = errors.New("watershed: image dimension exceeds 32767")
	// ErrInvalidStride indicates row or element strides that overlap or are negative.
	ErrInvalidStride = errors.New("watershed: invalid image stride")
	// ErrShortBuffer indicates a pixel buffer too short for the dimensions and strides.
	ErrShortBuffer = errors.New("watershed: pixel buffer too short")
	// ErrNaNIntensity indicates a NaN sample, which has no place in the ranking order.
	ErrNaNIntensity = errors.New("watershed: NaN intensity")

	// ErrInvalidDisposition indicates a merge policy returned a value outside the defined set.
	ErrInvalidDisposition = errors.New("watershed: invalid merge disposition")
	// ErrNoConflict indicates a disposition was supplied with no conflict pending.
	ErrNoConflict = errors.New("watershed: no pending conflict")
	// ErrConflictPending indicates Run or Step was called while a conflict awaits Resume.
	ErrConflictPending = errors.New("watershed: conflict pending, resume with a disposition")
	// ErrDone indicates the run already finished.
	ErrDone = errors.New("watershed: run already finished")
	// ErrReentrant indicates a merge policy tried to drive the engine from Resolve.
	ErrReentrant = errors.New("watershed: engine driven from inside a merge policy")
	// ErrClosed indicates the Watershed was closed.
	ErrClosed = errors.New("watershed: closed")

	// ErrUnknownRegion indicates a region handle that does not address an image pixel.
	ErrUnknownRegion = errors.New("watershed: unknown region")
	// ErrUnvisitedRegion indicates an attempt to merge a pixel that has not been flooded.
	ErrUnvisitedRegion = errors.New("watershed: region has not been flooded")
	// ErrEdgeRegion indicates an attempt to merge an edge pixel into a basin.
	ErrEdgeRegion = errors.New("watershed: edge pixels belong to no region")
)
