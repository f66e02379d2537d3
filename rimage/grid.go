package rimage

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrOutOfBounds is returned when a grid is accessed outside of its rows and columns.
var ErrOutOfBounds = errors.New("grid access out of bounds")

// Grid is a fixed size 2D array of normalized pixel values, indexed by (row, column). Values
// are expected to be in [0, 1]. Both the image being reconstructed and the mask that classifies
// its pixels are grids.
type Grid struct {
	data *mat.Dense
}

// NewGrid returns a grid of the given dimensions with every value set to zero. Non-positive
// dimensions produce an empty grid.
func NewGrid(rows, cols int) *Grid {
	if rows <= 0 || cols <= 0 {
		return &Grid{}
	}
	return &Grid{data: mat.NewDense(rows, cols, nil)}
}

// NewGridFromSlice returns a grid backed by a copy of vals, which is laid out row by row.
func NewGridFromSlice(rows, cols int, vals []float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("grid dimensions must be positive, got %dx%d", rows, cols)
	}
	if len(vals) != rows*cols {
		return nil, errors.Errorf("expected %d values for a %dx%d grid but got %d", rows*cols, rows, cols, len(vals))
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	return &Grid{data: mat.NewDense(rows, cols, cp)}, nil
}

// NewUniformGrid returns a grid of the given dimensions with every value set to val.
func NewUniformGrid(rows, cols int, val float64) *Grid {
	g := NewGrid(rows, cols)
	if g.data == nil {
		return g
	}
	raw := g.data.RawMatrix()
	for i := range raw.Data {
		raw.Data[i] = val
	}
	return g
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	if g.data == nil {
		return 0
	}
	r, _ := g.data.Dims()
	return r
}

// Cols returns the number of columns.
func (g *Grid) Cols() int {
	if g.data == nil {
		return 0
	}
	_, c := g.data.Dims()
	return c
}

// Dims returns the number of rows and columns.
func (g *Grid) Dims() (int, int) {
	return g.Rows(), g.Cols()
}

// SameDims reports whether both grids have identical dimensions.
func (g *Grid) SameDims(other *Grid) bool {
	r1, c1 := g.Dims()
	r2, c2 := other.Dims()
	return r1 == r2 && c1 == c2
}

// Contains reports whether (row, col) is inside the grid.
func (g *Grid) Contains(row, col int) bool {
	r, c := g.Dims()
	return row >= 0 && col >= 0 && row < r && col < c
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) (float64, error) {
	if !g.Contains(row, col) {
		return 0, g.outOfBounds(row, col)
	}
	return g.data.At(row, col), nil
}

// Set sets the value at (row, col).
func (g *Grid) Set(row, col int, val float64) error {
	if !g.Contains(row, col) {
		return g.outOfBounds(row, col)
	}
	g.data.Set(row, col, val)
	return nil
}

func (g *Grid) outOfBounds(row, col int) error {
	r, c := g.Dims()
	return errors.Wrapf(ErrOutOfBounds, "(%d, %d) not in %dx%d grid", row, col, r, c)
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	if g.data == nil {
		return &Grid{}
	}
	return &Grid{data: mat.DenseCopyOf(g.data)}
}

// Equal reports whether both grids have the same dimensions and values.
func (g *Grid) Equal(other *Grid) bool {
	if !g.SameDims(other) {
		return false
	}
	if g.data == nil {
		return true
	}
	return mat.Equal(g.data, other.data)
}

// EqualApprox is like Equal but allows each value to differ by at most tol.
func (g *Grid) EqualApprox(other *Grid, tol float64) bool {
	if !g.SameDims(other) {
		return false
	}
	if g.data == nil {
		return true
	}
	return mat.EqualApprox(g.data, other.data, tol)
}

// Values returns a copy of the grid's values laid out row by row.
func (g *Grid) Values() []float64 {
	if g.data == nil {
		return nil
	}
	raw := g.data.RawMatrix()
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for row := 0; row < raw.Rows; row++ {
		out = append(out, raw.Data[row*raw.Stride:row*raw.Stride+raw.Cols]...)
	}
	return out
}

// String returns a short description of the grid.
func (g *Grid) String() string {
	r, c := g.Dims()
	return fmt.Sprintf("Grid(%dx%d)", r, c)
}
