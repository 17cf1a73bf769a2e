package imgproc

import "fmt"

// TransformName identifies a single-grid transform.
type TransformName string

// Single-grid transforms. Concat needs a second grid and is not listed.
const (
	TransformBlur          TransformName = "blur"
	TransformContour       TransformName = "contour"
	TransformRotate        TransformName = "rotate"
	TransformSaltAndPepper TransformName = "salt_n_pepper"
	TransformSegment       TransformName = "segment"
)

// Options carries the parameters a transform may need.
type Options struct {
	// Kernel is the blur block size. Zero means DefaultBlurKernel.
	Kernel int
	// Rand feeds SaltAndPepper. Nil means the process-wide source.
	Rand Float64Source
}

// Transforms lists the names accepted by Apply.
func Transforms() []TransformName {
	return []TransformName{
		TransformBlur,
		TransformContour,
		TransformRotate,
		TransformSaltAndPepper,
		TransformSegment,
	}
}

// Apply runs the named transform on g.
func Apply(g *Grid, name TransformName, opts Options) error {
	switch name {
	case TransformBlur:
		k := opts.Kernel
		if k == 0 {
			k = DefaultBlurKernel
		}
		return g.Blur(k)
	case TransformContour:
		g.Contour()
	case TransformRotate:
		g.Rotate()
	case TransformSaltAndPepper:
		g.SaltAndPepper(opts.Rand)
	case TransformSegment:
		g.Segment()
	default:
		return fmt.Errorf("imgproc: unknown transform %q", name)
	}
	return nil
}
