package holefill

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/holefill/logging"
	"go.viam.com/holefill/rimage"
	"go.viam.com/holefill/utils"
)

// DefaultThreshold separates hole pixels (below it) from known pixels (at or above it) in a
// normalized mask.
const DefaultThreshold = 0.5

// ValidateThreshold ensures threshold is in (0, 1]. A threshold of 0 would never find a hole.
func ValidateThreshold(threshold float64) error {
	if !(threshold > 0) || threshold > 1 {
		return errors.Errorf("threshold must be greater than 0 and at most 1, got %v", threshold)
	}
	return nil
}

// PointSetBuilder derives the hole set and the border set of a mask.
type PointSetBuilder struct {
	Threshold    float64
	Connectivity Connectivity

	logger logging.Logger
}

// NewPointSetBuilder returns a builder using DefaultThreshold.
func NewPointSetBuilder(conn Connectivity, logger logging.Logger) *PointSetBuilder {
	return &PointSetBuilder{
		Threshold:    DefaultThreshold,
		Connectivity: conn,
		logger:       logger,
	}
}

// Build computes the hole set of mask and then its border set.
func (b *PointSetBuilder) Build(ctx context.Context, mask *rimage.Grid) (PointSet, PointSet, error) {
	holes, err := b.HoleSet(ctx, mask)
	if err != nil {
		return nil, nil, err
	}
	border, err := b.BorderSet(ctx, holes, mask)
	if err != nil {
		return nil, nil, err
	}
	b.logger.CDebugw(ctx, "built point sets",
		"holes", holes.Len(), "border", border.Len(), "connectivity", b.Connectivity.String())
	return holes, border, nil
}

// HoleSet returns every interior point of mask whose value is below the threshold. Points on the
// outermost ring of the grid are never holes, so a mask with fewer than 3 rows or columns has
// none. Rows are scanned in parallel, each group collecting its own set which are merged once
// all groups are done. An error is only returned if ctx is done.
func (b *PointSetBuilder) HoleSet(ctx context.Context, mask *rimage.Grid) (PointSet, error) {
	rows, cols := mask.Dims()
	holes := NewPointSet()
	if rows < 3 || cols < 3 {
		return holes, nil
	}

	var groupSets []PointSet
	if err := utils.GroupWorkParallel(
		ctx,
		rows-2,
		func(numGroups int) {
			groupSets = make([]PointSet, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			local := NewPointSet()
			return func(memberNum, workNum int) {
					row := workNum + 1
					for col := 1; col < cols-1; col++ {
						val, err := mask.At(row, col)
						if err == nil && val < b.Threshold {
							local.Add(Point{row, col})
						}
					}
				}, func() {
					groupSets[groupNum] = local
				}
		},
	); err != nil {
		return nil, err
	}

	for _, set := range groupSets {
		holes.Merge(set)
	}
	return holes, nil
}

// BorderSet returns every known point adjacent to at least one hole under the builder's
// connectivity. Holes are interior points so all of their neighbors are inside the mask. A
// neighbor that is itself a hole is never a border point. Like HoleSet, hole points are split
// among parallel groups whose sets are merged afterward.
func (b *PointSetBuilder) BorderSet(ctx context.Context, holes PointSet, mask *rimage.Grid) (PointSet, error) {
	border := NewPointSet()
	if holes.Len() == 0 {
		return border, nil
	}

	holePoints := holes.Sorted()
	var groupSets []PointSet
	if err := utils.GroupWorkParallel(
		ctx,
		len(holePoints),
		func(numGroups int) {
			groupSets = make([]PointSet, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			local := NewPointSet()
			return func(memberNum, workNum int) {
					hole := holePoints[workNum]
					for _, offset := range neighborOffsets {
						if !b.Connectivity.considers(offset) {
							continue
						}
						neighbor := hole.Add(offset)
						val, err := mask.At(neighbor.Row, neighbor.Col)
						if err != nil || val < b.Threshold {
							continue
						}
						local.Add(neighbor)
					}
				}, func() {
					groupSets[groupNum] = local
				}
		},
	); err != nil {
		return nil, err
	}

	for _, set := range groupSets {
		border.Merge(set)
	}
	return border, nil
}
