package holefill

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/holefill/logging"
	"go.viam.com/holefill/rimage"
)

func buildSets(t *testing.T, mask *rimage.Grid, conn Connectivity) (PointSet, PointSet) {
	t.Helper()
	holes, border, err := NewPointSetBuilder(conn, logging.NewTestLogger(t)).Build(context.Background(), mask)
	test.That(t, err, test.ShouldBeNil)
	return holes, border
}

func TestFillSingleHole(t *testing.T) {
	logger := logging.NewTestLogger(t)
	mask := maskWithHoles(t, 5, 5, Point{2, 2})
	holes, border := buildSets(t, mask, EightConnected)
	filler := NewHoleFiller(nil, logger)

	for _, fill := range []func(context.Context, *rimage.Grid, PointSet, PointSet) error{
		filler.FillExact,
		filler.FillApproximate,
	} {
		img := rimage.NewUniformGrid(5, 5, 1)
		test.That(t, img.Set(2, 2, 0), test.ShouldBeNil)
		test.That(t, fill(context.Background(), img, holes, border), test.ShouldBeNil)
		test.That(t, img.Equal(rimage.NewUniformGrid(5, 5, 1)), test.ShouldBeTrue)
	}
}

func TestFillExactWeightsByDistance(t *testing.T) {
	logger := logging.NewTestLogger(t)
	img := gridFromRows(t, [][]float64{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0},
	})
	mask := maskWithHoles(t, 5, 6, Point{2, 2}, Point{2, 3})
	holes, border := buildSets(t, mask, FourConnected)
	test.That(t, border, test.ShouldResemble, NewPointSet(
		Point{1, 2}, Point{1, 3}, Point{3, 2}, Point{3, 3}, Point{2, 1}, Point{2, 4},
	))

	filler := NewHoleFiller(WeightFunctionFunc(func(p1, p2 Point) float64 {
		return 1 / p1.DistanceSquared(p2)
	}), logger)
	test.That(t, filler.FillExact(context.Background(), img, holes, border), test.ShouldBeNil)

	// (2, 2): weights 1, 1/2, 1, 1/2, 1, 1/4 over values 0, 0, 0, 0, 1, 0
	test.That(t, gridValue(t, img, Point{2, 2}), test.ShouldAlmostEqual, 1/4.25)
	// (2, 3): weights 1/2, 1, 1/2, 1, 1/4, 1 over values 0, 0, 0, 0, 1, 0
	test.That(t, gridValue(t, img, Point{2, 3}), test.ShouldAlmostEqual, 0.25/4.25)
}

func TestFillStaysWithinBorderRange(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := rand.New(rand.NewSource(11))
	for trial := 0; trial < 20; trial++ {
		img := randomGrid(t, r, 12, 9)
		mask := randomGrid(t, r, 12, 9)
		conn := EightConnected
		if trial%2 == 1 {
			conn = FourConnected
		}
		holes, border := buildSets(t, mask, conn)
		if holes.Len() == 0 || border.Len() == 0 {
			continue
		}
		minVal, maxVal := math.Inf(1), math.Inf(-1)
		for pt := range border {
			val := gridValue(t, img, pt)
			minVal = math.Min(minVal, val)
			maxVal = math.Max(maxVal, val)
		}

		exact := img.Clone()
		filler := NewHoleFiller(nil, logger)
		test.That(t, filler.FillExact(context.Background(), exact, holes, border), test.ShouldBeNil)
		approx := img.Clone()
		test.That(t, filler.FillApproximate(context.Background(), approx, holes, border), test.ShouldBeNil)

		for pt := range holes {
			for _, filled := range []*rimage.Grid{exact, approx} {
				val := gridValue(t, filled, pt)
				test.That(t, val, test.ShouldBeGreaterThanOrEqualTo, minVal-1e-9)
				test.That(t, val, test.ShouldBeLessThanOrEqualTo, maxVal+1e-9)
			}
		}

		// only holes change
		for row := 0; row < 12; row++ {
			for col := 0; col < 9; col++ {
				pt := Point{row, col}
				if holes.Contains(pt) {
					continue
				}
				test.That(t, gridValue(t, exact, pt), test.ShouldEqual, gridValue(t, img, pt))
				test.That(t, gridValue(t, approx, pt), test.ShouldEqual, gridValue(t, img, pt))
			}
		}
	}

	// every border point of a large hole is far enough that its gaussian weight underflows
	gaussian, err := NewWeightFunction(GaussianWeightName, nil)
	test.That(t, err, test.ShouldBeNil)
	filler := NewHoleFiller(gaussian, logger)
	mask := rimage.NewUniformGrid(201, 201, 0)
	holes, border := buildSets(t, mask, FourConnected)
	test.That(t, holes.Len(), test.ShouldEqual, 199*199)
	for _, level := range []float64{0.4, 0.6} {
		img := rimage.NewUniformGrid(201, 201, level)
		exact := img.Clone()
		test.That(t, filler.FillExact(context.Background(), exact, holes, border), test.ShouldBeNil)
		approx := img.Clone()
		test.That(t, filler.FillApproximate(context.Background(), approx, holes, border), test.ShouldBeNil)
		test.That(t, gridValue(t, exact, Point{100, 100}), test.ShouldAlmostEqual, level)
		test.That(t, gridValue(t, approx, Point{100, 100}), test.ShouldAlmostEqual, level)
	}

	// a far away border still weighs its closest points most
	img := rimage.NewUniformGrid(201, 201, 0)
	for col := 0; col < 201; col++ {
		test.That(t, img.Set(0, col, 1), test.ShouldBeNil)
	}
	test.That(t, filler.FillExact(context.Background(), img, holes, border), test.ShouldBeNil)
	test.That(t, gridValue(t, img, Point{99, 100}), test.ShouldBeGreaterThan, 0.99)
	test.That(t, gridValue(t, img, Point{101, 100}), test.ShouldBeLessThan, 0.01)
}

func TestFillApproximateIsUniform(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := rand.New(rand.NewSource(3))
	img := randomGrid(t, r, 8, 8)
	mask := maskWithHoles(t, 8, 8, Point{2, 2}, Point{2, 3}, Point{3, 2}, Point{5, 5}, Point{6, 6})
	holes, border := buildSets(t, mask, EightConnected)

	filler := NewHoleFiller(nil, logger)
	test.That(t, filler.FillApproximate(context.Background(), img, holes, border), test.ShouldBeNil)

	centroid, ok := Centroid(holes)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, centroid, test.ShouldResemble, Point{3, 3})
	want := gridValue(t, img, Point{2, 2})
	for pt := range holes {
		test.That(t, gridValue(t, img, pt), test.ShouldEqual, want)
	}
}

func TestFillWithoutHoles(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := rand.New(rand.NewSource(5))
	img := randomGrid(t, r, 6, 7)
	orig := img.Clone()
	mask := rimage.NewUniformGrid(6, 7, 1)
	holes, border := buildSets(t, mask, EightConnected)
	test.That(t, holes.Len(), test.ShouldEqual, 0)
	test.That(t, border.Len(), test.ShouldEqual, 0)

	filler := NewHoleFiller(nil, logger)
	test.That(t, filler.FillExact(context.Background(), img, holes, border), test.ShouldBeNil)
	test.That(t, img.Equal(orig), test.ShouldBeTrue)
	test.That(t, filler.FillApproximate(context.Background(), img, holes, border), test.ShouldBeNil)
	test.That(t, img.Equal(orig), test.ShouldBeTrue)
}

func TestFillDegenerateInput(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := rand.New(rand.NewSource(9))
	img := randomGrid(t, r, 6, 6)
	orig := img.Clone()
	holes, border := buildSets(t, rimage.NewGrid(6, 6), EightConnected)
	test.That(t, holes.Len(), test.ShouldEqual, 16)
	test.That(t, border.Len(), test.ShouldEqual, 0)

	filler := NewHoleFiller(nil, logger)
	for _, fill := range []func(context.Context, *rimage.Grid, PointSet, PointSet) error{
		filler.FillExact,
		filler.FillApproximate,
	} {
		err := fill(context.Background(), img, holes, border)
		var degenerate *DegenerateInputError
		test.That(t, errors.As(err, &degenerate), test.ShouldBeTrue)
		test.That(t, degenerate.Holes, test.ShouldEqual, 16)
		test.That(t, err.Error(), test.ShouldContainSubstring, "border set is empty")
		test.That(t, img.Equal(orig), test.ShouldBeTrue)
	}
}

func TestFillNonFiniteWeights(t *testing.T) {
	logger := logging.NewTestLogger(t)
	img := rimage.NewUniformGrid(5, 5, 0.5)
	orig := img.Clone()
	holes, border := buildSets(t, maskWithHoles(t, 5, 5, Point{2, 2}), EightConnected)

	filler := NewHoleFiller(WeightFunctionFunc(func(p1, p2 Point) float64 { return 0 }), logger)
	err := filler.FillExact(context.Background(), img, holes, border)
	var degenerate *DegenerateInputError
	test.That(t, errors.As(err, &degenerate), test.ShouldBeTrue)
	test.That(t, degenerate.Holes, test.ShouldEqual, 1)
	test.That(t, img.Equal(orig), test.ShouldBeTrue)

	err = filler.FillApproximate(context.Background(), img, holes, border)
	test.That(t, errors.As(err, &degenerate), test.ShouldBeTrue)
	test.That(t, img.Equal(orig), test.ShouldBeTrue)
}

func TestFillCanceled(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := rand.New(rand.NewSource(1))
	img := randomGrid(t, r, 7, 7)
	orig := img.Clone()
	holes, border := buildSets(t, maskWithHoles(t, 7, 7, Point{3, 3}, Point{3, 4}), EightConnected)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	filler := NewHoleFiller(nil, logger)
	test.That(t, filler.FillExact(ctx, img, holes, border), test.ShouldBeError, context.Canceled)
	test.That(t, img.Equal(orig), test.ShouldBeTrue)
	test.That(t, filler.FillApproximate(ctx, img, holes, border), test.ShouldBeError, context.Canceled)
	test.That(t, img.Equal(orig), test.ShouldBeTrue)
}

func TestFillOutOfBounds(t *testing.T) {
	logger := logging.NewTestLogger(t)
	img := rimage.NewUniformGrid(3, 3, 1)
	filler := NewHoleFiller(nil, logger)
	err := filler.FillExact(context.Background(), img, NewPointSet(Point{5, 5}), NewPointSet(Point{0, 0}))
	test.That(t, errors.Is(err, rimage.ErrOutOfBounds), test.ShouldBeTrue)

	err = filler.FillExact(context.Background(), img, NewPointSet(Point{1, 1}), NewPointSet(Point{-1, 0}))
	test.That(t, errors.Is(err, rimage.ErrOutOfBounds), test.ShouldBeTrue)
}

func TestFillIsIdempotent(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := rand.New(rand.NewSource(17))
	img := randomGrid(t, r, 9, 9)
	holes, border := buildSets(t, maskWithHoles(t, 9, 9, Point{4, 4}, Point{4, 5}, Point{5, 4}), EightConnected)
	filler := NewHoleFiller(nil, logger)
	test.That(t, filler.FillExact(context.Background(), img, holes, border), test.ShouldBeNil)
	filled := img.Clone()

	// every hole is known now
	holes, border = buildSets(t, rimage.NewUniformGrid(9, 9, 1), EightConnected)
	test.That(t, filler.FillExact(context.Background(), img, holes, border), test.ShouldBeNil)
	test.That(t, img.Equal(filled), test.ShouldBeTrue)
}
