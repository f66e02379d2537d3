package holefill

import "fmt"

// DegenerateInputError is returned by a fill when no weighted average can be computed for the
// holes, most commonly because no known pixel borders any of them. The image is left untouched.
type DegenerateInputError struct {
	Holes  int
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("cannot fill %d hole points: %s", e.Holes, e.Reason)
}

func newEmptyBorderError(holes int) error {
	return &DegenerateInputError{Holes: holes, Reason: "border set is empty"}
}
