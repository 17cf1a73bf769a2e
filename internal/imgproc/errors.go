package imgproc

import (
	"errors"
	"fmt"
)

// Sentinel errors for grid operations.
var (
	// ErrInvalidKernel indicates a blur kernel smaller than one pixel.
	ErrInvalidKernel = errors.New("imgproc: blur kernel must be positive")

	// ErrEmptyGrid indicates an attempt to encode a grid with no pixels.
	ErrEmptyGrid = errors.New("imgproc: grid is empty")

	// ErrUnsupportedDirection indicates a concat direction other than
	// Horizontal or Vertical.
	ErrUnsupportedDirection = errors.New("imgproc: unsupported concat direction")

	// ErrDimensionMismatch is matched by every *DimensionMismatchError.
	ErrDimensionMismatch = errors.New("imgproc: dimension mismatch")
)

// DecodeError reports that an input could not be turned into a grid.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("imgproc: decode: %v", e.Err)
	}
	return fmt.Sprintf("imgproc: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DimensionMismatchError reports two grids (or two rows) whose sizes along
// Axis disagree.
type DimensionMismatchError struct {
	Op   string
	Axis string // "height" or "width"
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("imgproc: %s: %s mismatch (want %d, got %d)", e.Op, e.Axis, e.Want, e.Got)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// WriteError reports a failure to persist a grid.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("imgproc: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
