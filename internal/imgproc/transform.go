package imgproc

import (
	"math"
	"math/rand/v2"
)

// DefaultBlurKernel is the blur block size used when none is configured.
const DefaultBlurKernel = 16

// Salt and pepper thresholds.
const (
	saltBelow   = 0.2
	pepperAbove = 0.8
)

// Segment threshold: values at or below it become black, the rest white.
const segmentThreshold = 100

// Float64Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Float64Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Direction selects how Concat joins two grids.
type Direction string

// Concat directions.
const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Blur replaces every cell with the floored mean of the kernel×kernel block
// starting at it. The grid shrinks to (h-kernel+1)×(w-kernel+1); when the
// kernel does not fit, the grid becomes empty.
func (g *Grid) Blur(kernel int) error {
	if kernel <= 0 {
		return ErrInvalidKernel
	}
	h, w := g.Height(), g.Width()
	outH, outW := h-kernel+1, w-kernel+1
	if outH <= 0 || outW <= 0 {
		g.rows = [][]float64{}
		return nil
	}

	// Summed-area table with a zero border: sat[(i)*(w+1)+j] is the sum of
	// rows [0,i) and columns [0,j).
	stride := w + 1
	sat := make([]float64, (h+1)*stride)
	for i := range h {
		var rowSum float64
		for j := range w {
			rowSum += g.rows[i][j]
			sat[(i+1)*stride+j+1] = sat[i*stride+j+1] + rowSum
		}
	}

	area := float64(kernel * kernel)
	out := make([][]float64, outH)
	for i := range outH {
		row := make([]float64, outW)
		top, bottom := i*stride, (i+kernel)*stride
		for j := range outW {
			sum := sat[bottom+j+kernel] - sat[top+j+kernel] - sat[bottom+j] + sat[top+j]
			// The epsilon absorbs summation error for block sums that are
			// exact multiples of the area.
			row[j] = math.Floor(sum/area + 1e-9)
		}
		out[i] = row
	}
	g.rows = out
	return nil
}

// Contour replaces every row with the absolute differences of neighbouring
// values, shortening it by one. Rows of length one or zero become empty.
func (g *Grid) Contour() {
	for i, row := range g.rows {
		if len(row) <= 1 {
			g.rows[i] = []float64{}
			continue
		}
		diff := make([]float64, len(row)-1)
		for j := 1; j < len(row); j++ {
			diff[j-1] = math.Abs(row[j-1] - row[j])
		}
		g.rows[i] = diff
	}
}

// Rotate turns the grid 90 degrees clockwise. The result has the old width
// as its height. A grid without columns has no rows afterwards and stays
// 0x0, so four rotations restore only non-empty grids.
func (g *Grid) Rotate() {
	h, w := g.Height(), g.Width()
	out := make([][]float64, w)
	for i := range w {
		row := make([]float64, h)
		for j := range h {
			row[j] = g.rows[h-1-j][i]
		}
		out[i] = row
	}
	g.rows = out
}

// SaltAndPepper sets each cell to white with probability 0.2 and to black
// with probability 0.2, drawing one value per cell from rnd. A nil rnd uses
// the process-wide random source.
func (g *Grid) SaltAndPepper(rnd Float64Source) {
	if rnd == nil {
		rnd = globalSource{}
	}
	for _, row := range g.rows {
		for j := range row {
			x := rnd.Float64()
			if x < saltBelow {
				row[j] = 255
			}
			if x > pepperAbove {
				row[j] = 0
			}
		}
	}
}

// Segment thresholds the grid: values up to and including 100 become 0,
// everything above becomes 255.
func (g *Grid) Segment() {
	for _, row := range g.rows {
		for j, v := range row {
			if v <= segmentThreshold {
				row[j] = 0
			} else {
				row[j] = 255
			}
		}
	}
}

// Concat appends other to the grid. Horizontal joins row by row and needs
// equal heights; Vertical stacks other below and needs equal widths. The
// grid is left untouched on error. other is only read, and may be g itself.
func (g *Grid) Concat(other *Grid, dir Direction) error {
	switch dir {
	case Horizontal:
		if g.Height() != other.Height() {
			return &DimensionMismatchError{Op: "concat", Axis: "height", Want: g.Height(), Got: other.Height()}
		}
		src := other.Rows()
		for i := range g.rows {
			g.rows[i] = append(g.rows[i], src[i]...)
		}
	case Vertical:
		if g.Width() != other.Width() {
			return &DimensionMismatchError{Op: "concat", Axis: "width", Want: g.Width(), Got: other.Width()}
		}
		g.rows = append(g.rows, other.Rows()...)
	default:
		return ErrUnsupportedDirection
	}
	return nil
}
