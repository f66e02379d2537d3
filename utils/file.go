package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// SafeJoinDir performs a filepath.Join of 'parent' and 'name' but returns an error
// if the resulting path points outside of 'parent'.
func SafeJoinDir(parent, name string) (string, error) {
	res := filepath.Join(parent, name)
	if !strings.HasPrefix(filepath.Clean(res), filepath.Clean(parent)+string(os.PathSeparator)) {
		return res, errors.Errorf("unsafe path join: '%s' with '%s'", parent, name)
	}
	return res, nil
}
