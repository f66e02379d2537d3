package rimage

import "fmt"

// ResourceError is returned when an image or mask cannot be used as input: it could not be
// read or decoded, or its dimensions do not match its counterpart.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot load grid: %v", e.Err)
	}
	return fmt.Sprintf("cannot load grid from %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError wraps err as a ResourceError for the given path.
func NewResourceError(path string, err error) error {
	return &ResourceError{Path: path, Err: err}
}
