// Package holefill fills missing regions of a grayscale image with a distance weighted average
// of the known pixels bordering them.
package holefill

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Point is a (row, column) grid coordinate. It is comparable and used directly as a set key.
type Point struct {
	Row int
	Col int
}

// Add returns the point offset by other.
func (p Point) Add(other Point) Point {
	return Point{p.Row + other.Row, p.Col + other.Col}
}

// DistanceSquared returns the squared euclidean distance between both points.
func (p Point) DistanceSquared(other Point) float64 {
	dr := float64(p.Row - other.Row)
	dc := float64(p.Col - other.Col)
	return dr*dr + dc*dc
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// PointSet is an unordered set of points.
type PointSet map[Point]struct{}

// NewPointSet returns a set holding the given points.
func NewPointSet(pts ...Point) PointSet {
	s := make(PointSet, len(pts))
	for _, pt := range pts {
		s.Add(pt)
	}
	return s
}

// Add inserts pt; adding a point twice is a no-op.
func (s PointSet) Add(pt Point) {
	s[pt] = struct{}{}
}

// Contains reports whether pt is in the set.
func (s PointSet) Contains(pt Point) bool {
	_, ok := s[pt]
	return ok
}

// Len returns the number of points in the set.
func (s PointSet) Len() int {
	return len(s)
}

// Merge adds every point of other to s.
func (s PointSet) Merge(other PointSet) {
	for pt := range other {
		s[pt] = struct{}{}
	}
}

// Disjoint reports whether no point belongs to both sets.
func (s PointSet) Disjoint(other PointSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for pt := range small {
		if large.Contains(pt) {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every point of s is also in other.
func (s PointSet) SubsetOf(other PointSet) bool {
	for pt := range s {
		if !other.Contains(pt) {
			return false
		}
	}
	return true
}

// Sorted returns the points in row major order.
func (s PointSet) Sorted() []Point {
	pts := lo.Keys(s)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Row != pts[j].Row {
			return pts[i].Row < pts[j].Row
		}
		return pts[i].Col < pts[j].Col
	})
	return pts
}
