package imgproc

import "slices"

// Grid is a single-channel image stored as rows of brightness values.
//
// All rows have the same length between calls. A Grid is owned by the
// caller that created it and is not safe for concurrent use.
type Grid struct {
	path string
	rows [][]float64
}

// FromRows builds a grid from literal rows. The rows are copied.
// Ragged input is rejected with a *DimensionMismatchError.
func FromRows(rows [][]float64) (*Grid, error) {
	g := &Grid{rows: make([][]float64, len(rows))}
	for i, row := range rows {
		if i > 0 && len(row) != len(rows[0]) {
			return nil, &DimensionMismatchError{
				Op:   "from rows",
				Axis: "width",
				Want: len(rows[0]),
				Got:  len(row),
			}
		}
		g.rows[i] = slices.Clone(row)
	}
	return g, nil
}

// Path returns the file the grid was loaded from, or "" for in-memory grids.
func (g *Grid) Path() string { return g.path }

// Height returns the number of rows.
func (g *Grid) Height() int { return len(g.rows) }

// Width returns the number of columns; zero for an empty grid.
func (g *Grid) Width() int {
	if len(g.rows) == 0 {
		return 0
	}
	return len(g.rows[0])
}

// At returns the value at row i, column j.
func (g *Grid) At(i, j int) float64 { return g.rows[i][j] }

// Rows returns a deep copy of the grid contents.
func (g *Grid) Rows() [][]float64 {
	out := make([][]float64, len(g.rows))
	for i, row := range g.rows {
		out[i] = slices.Clone(row)
	}
	return out
}

// Empty reports whether the grid holds no pixels.
func (g *Grid) Empty() bool {
	return g.Height() == 0 || g.Width() == 0
}
