package holefill

import (
	"strconv"

	"github.com/pkg/errors"

	"go.viam.com/holefill/utils"
)

// Connectivity decides which neighbors of a hole point count as adjacent to it.
type Connectivity int

const (
	// EightConnected counts axis aligned and diagonal neighbors.
	EightConnected Connectivity = iota
	// FourConnected counts only axis aligned neighbors.
	FourConnected
)

// ParseConnectivity converts 4 or 8 into a Connectivity.
func ParseConnectivity(n int) (Connectivity, error) {
	switch n {
	case 4:
		return FourConnected, nil
	case 8:
		return EightConnected, nil
	default:
		return EightConnected, errors.Errorf("connectivity must be 4 or 8, got %d", n)
	}
}

// Neighbors returns 4 or 8.
func (c Connectivity) Neighbors() int {
	if c == FourConnected {
		return 4
	}
	return 8
}

func (c Connectivity) String() string {
	return strconv.Itoa(c.Neighbors()) + "-connected"
}

// neighborOffsets are the 8 offsets around a point.
var neighborOffsets = []Point{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// isCorner reports whether an offset is diagonal.
func isCorner(offset Point) bool {
	return utils.AbsInt(offset.Row)+utils.AbsInt(offset.Col) == 2
}

// considers reports whether a neighbor at offset counts under c.
func (c Connectivity) considers(offset Point) bool {
	return !(c == FourConnected && isCorner(offset))
}
