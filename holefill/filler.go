package holefill

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"

	"go.viam.com/holefill/logging"
	"go.viam.com/holefill/rimage"
	"go.viam.com/holefill/utils"
)

// HoleFiller replaces the value of every hole point with a weighted average of the border point
// values around it.
type HoleFiller struct {
	weight WeightFunction
	logger logging.Logger
}

// NewHoleFiller returns a filler using the given weight function. A nil weight function selects
// the default one.
func NewHoleFiller(weight WeightFunction, logger logging.Logger) *HoleFiller {
	if weight == nil {
		weight = NewDefaultWeightFunction()
	}
	return &HoleFiller{weight: weight, logger: logger}
}

// border holds the border points with the image values read before any hole is written.
type border struct {
	points []Point
	values []float64
}

func (f *HoleFiller) readBorder(img *rimage.Grid, borderSet PointSet) (*border, error) {
	b := &border{
		points: borderSet.Sorted(),
		values: make([]float64, 0, borderSet.Len()),
	}
	for _, pt := range b.points {
		val, err := img.At(pt.Row, pt.Col)
		if err != nil {
			return nil, err
		}
		b.values = append(b.values, val)
	}
	return b, nil
}

// weightedAverage computes sum(w(u, b) * I(b)) / sum(w(u, b)) over every border point b.
func (f *HoleFiller) weightedAverage(u Point, b *border) (float64, error) {
	var numerator, denominator float64
	if logWeight, ok := f.weight.(LogWeightFunction); ok {
		// exp(l - maxLog) scales every weight by the same factor and keeps the largest at 1.
		maxLog := math.Inf(-1)
		for _, pt := range b.points {
			maxLog = math.Max(maxLog, logWeight.LogWeight(u, pt))
		}
		for i, pt := range b.points {
			w := math.Exp(logWeight.LogWeight(u, pt) - maxLog)
			numerator += w * b.values[i]
			denominator += w
		}
	} else {
		for i, pt := range b.points {
			w := f.weight.Weight(u, pt)
			numerator += w * b.values[i]
			denominator += w
		}
	}
	val := numerator / denominator
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, &DegenerateInputError{
			Holes:  1,
			Reason: fmt.Sprintf("weighted average at %v is not finite (total weight %v)", u, denominator),
		}
	}
	return val, nil
}

// FillExact sets every hole point of img to the weighted average of the border values around it.
// Each hole is computed independently from the border values, so holes are computed in
// parallel into a separate buffer that is applied once every value is known. An empty hole set
// leaves img untouched; an empty border set for a non-empty hole set is a
// *DegenerateInputError and img is not modified.
func (f *HoleFiller) FillExact(ctx context.Context, img *rimage.Grid, holes, borderSet PointSet) error {
	if holes.Len() == 0 {
		f.logger.CDebugw(ctx, "no holes to fill")
		return nil
	}
	if borderSet.Len() == 0 {
		return newEmptyBorderError(holes.Len())
	}
	b, err := f.readBorder(img, borderSet)
	if err != nil {
		return err
	}

	holePoints := holes.Sorted()
	if err := checkInBounds(img, holePoints); err != nil {
		return err
	}
	filled := make([]float64, len(holePoints))
	var groupErrs []error
	done := atomic.NewInt64(0)
	if err := utils.GroupWorkParallel(
		ctx,
		len(holePoints),
		func(numGroups int) {
			groupErrs = make([]error, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
					if groupErrs[groupNum] != nil {
						return
					}
					val, err := f.weightedAverage(holePoints[workNum], b)
					if err != nil {
						groupErrs[groupNum] = err
						return
					}
					filled[workNum] = val
				}, func() {
					done.Add(int64(groupSize))
				}
		},
	); err != nil {
		return err
	}
	for _, err := range groupErrs {
		if err != nil {
			var degenerate *DegenerateInputError
			if errors.As(err, &degenerate) {
				degenerate.Holes = len(holePoints)
			}
			return err
		}
	}

	for i, pt := range holePoints {
		if err := img.Set(pt.Row, pt.Col, filled[i]); err != nil {
			return err
		}
	}
	f.logger.CDebugw(ctx, "exact fill done", "holes", done.Load(), "border", len(b.points))
	return nil
}

// checkInBounds ensures every point can be written so a fill is never partially applied.
func checkInBounds(img *rimage.Grid, pts []Point) error {
	for _, pt := range pts {
		if !img.Contains(pt.Row, pt.Col) {
			return errors.Wrapf(rimage.ErrOutOfBounds, "hole %v not in %v", pt, img)
		}
	}
	return nil
}

// Centroid returns the mean row and mean column of the points, truncated to integers. The
// centroid does not need to be a member of the set. ok is false for an empty set.
func Centroid(pts PointSet) (centroid Point, ok bool) {
	if pts.Len() == 0 {
		return Point{}, false
	}
	var rowSum, colSum int
	for pt := range pts {
		rowSum += pt.Row
		colSum += pt.Col
	}
	return Point{rowSum / pts.Len(), colSum / pts.Len()}, true
}

// FillApproximate computes a single weighted average at the centroid of the hole set and
// assigns it to every hole point, trading per pixel accuracy for a cost linear in the border
// size. Empty hole and border sets behave like in FillExact.
func (f *HoleFiller) FillApproximate(ctx context.Context, img *rimage.Grid, holes, borderSet PointSet) error {
	centroid, ok := Centroid(holes)
	if !ok {
		f.logger.CDebugw(ctx, "no holes to fill")
		return nil
	}
	if borderSet.Len() == 0 {
		return newEmptyBorderError(holes.Len())
	}
	b, err := f.readBorder(img, borderSet)
	if err != nil {
		return err
	}
	if err := checkInBounds(img, lo.Keys(holes)); err != nil {
		return err
	}

	val, err := f.weightedAverage(centroid, b)
	if err != nil {
		var degenerate *DegenerateInputError
		if errors.As(err, &degenerate) {
			degenerate.Holes = holes.Len()
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for pt := range holes {
		if err := img.Set(pt.Row, pt.Col, val); err != nil {
			return err
		}
	}
	f.logger.CDebugw(ctx, "approximate fill done",
		"holes", holes.Len(), "border", len(b.points), "centroid", centroid.String(), "value", val)
	return nil
}
