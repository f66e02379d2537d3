package holefill

import (
	"math/rand"
	"testing"

	"go.viam.com/test"

	"go.viam.com/holefill/rimage"
)

// gridFromRows builds a grid from a literal row by row layout.
func gridFromRows(t *testing.T, rows [][]float64) *rimage.Grid {
	t.Helper()
	vals := make([]float64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		test.That(t, len(row), test.ShouldEqual, len(rows[0]))
		vals = append(vals, row...)
	}
	g, err := rimage.NewGridFromSlice(len(rows), len(rows[0]), vals)
	test.That(t, err, test.ShouldBeNil)
	return g
}

// maskWithHoles returns a rows x cols mask of ones with zeros at the given points.
func maskWithHoles(t *testing.T, rows, cols int, holes ...Point) *rimage.Grid {
	t.Helper()
	mask := rimage.NewUniformGrid(rows, cols, 1)
	for _, pt := range holes {
		test.That(t, mask.Set(pt.Row, pt.Col, 0), test.ShouldBeNil)
	}
	return mask
}

func randomGrid(t *testing.T, r *rand.Rand, rows, cols int) *rimage.Grid {
	t.Helper()
	g := rimage.NewGrid(rows, cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			test.That(t, g.Set(row, col, r.Float64()), test.ShouldBeNil)
		}
	}
	return g
}

func gridValue(t *testing.T, g *rimage.Grid, pt Point) float64 {
	t.Helper()
	val, err := g.At(pt.Row, pt.Col)
	test.That(t, err, test.ShouldBeNil)
	return val
}
