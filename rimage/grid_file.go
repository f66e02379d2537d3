package rimage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/holefill/utils"
)

// GridLoader produces the image and mask grids of a single hole filling run. Both grids must
// have identical dimensions.
type GridLoader interface {
	LoadGrids(ctx context.Context) (img, mask *Grid, err error)
}

// GridWriter persists a filled grid under the given name.
type GridWriter interface {
	WriteGrid(ctx context.Context, name string, g *Grid) error
}

// A StagedGrid is an encoded grid that is not visible under its name until committed.
type StagedGrid interface {
	Commit() error
	Discard() error
}

// A StagingGridWriter is a GridWriter that can encode a grid ahead of publishing it, so several
// grids can be published only once all of them were encoded.
type StagingGridWriter interface {
	GridWriter
	StageGrid(ctx context.Context, name string, g *Grid) (StagedGrid, error)
}

// FileGridLoader loads an image and its mask from files on disk.
type FileGridLoader struct {
	ImagePath string
	MaskPath  string
}

// LoadGrids reads both files. See LoadGrids.
func (l *FileGridLoader) LoadGrids(ctx context.Context) (*Grid, *Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return LoadGrids(l.ImagePath, l.MaskPath)
}

// DirGridWriter writes grids as image files into a directory. The file format is picked from
// the extension of the name each grid is written under.
type DirGridWriter struct {
	Dir string
}

// WriteGrid writes g to Dir/name. Names that resolve outside of Dir are rejected.
func (w *DirGridWriter) WriteGrid(ctx context.Context, name string, g *Grid) error {
	staged, err := w.StageGrid(ctx, name, g)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// StageGrid encodes g into a temporary file in Dir that Commit renames to Dir/name.
func (w *DirGridWriter) StageGrid(ctx context.Context, name string, g *Grid) (StagedGrid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := utils.SafeJoinDir(w.Dir, name)
	if err != nil {
		return nil, err
	}
	return stageGridFile(path, g)
}

// LoadGrids reads an image and a mask and normalizes both into grids. Any decoding failure or a
// dimension mismatch between the two is returned as a *ResourceError.
func LoadGrids(imagePath, maskPath string) (*Grid, *Grid, error) {
	img, err := ReadGridFromFile(imagePath)
	if err != nil {
		return nil, nil, err
	}
	mask, err := ReadGridFromFile(maskPath)
	if err != nil {
		return nil, nil, err
	}
	if !img.SameDims(mask) {
		return nil, nil, NewResourceError(maskPath, errors.Errorf(
			"mask is %dx%d but image is %dx%d", mask.Rows(), mask.Cols(), img.Rows(), img.Cols()))
	}
	return img, mask, nil
}

// ReadGridFromFile decodes the image at path into a normalized grid.
func ReadGridFromFile(path string) (*Grid, error) {
	RegisterCodecs()
	img, err := imaging.Open(path)
	if err != nil {
		return nil, NewResourceError(path, err)
	}
	g := GridFromImage(img)
	if g.Rows() == 0 || g.Cols() == 0 {
		return nil, NewResourceError(path, errors.New("image has no pixels"))
	}
	return g, nil
}

// DecodeGrid decodes an image from r into a normalized grid.
func DecodeGrid(r io.Reader) (*Grid, error) {
	RegisterCodecs()
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, NewResourceError("", err)
	}
	g := GridFromImage(img)
	if g.Rows() == 0 || g.Cols() == 0 {
		return nil, NewResourceError("", errors.New("image has no pixels"))
	}
	return g, nil
}

// EncodeGrid writes the grid to w as an 8 bit grayscale image in the given format.
func EncodeGrid(w io.Writer, g *Grid, format imaging.Format) error {
	return imaging.Encode(w, g.ToGray(), format)
}

// WriteGridToFile writes the grid as an 8 bit grayscale image. The format is picked from the
// file extension. The image is encoded into a temporary file next to path that is only renamed
// into place once fully written, so a failed write never leaves a partial image behind.
func WriteGridToFile(path string, g *Grid) error {
	staged, err := stageGridFile(path, g)
	if err != nil {
		return err
	}
	return staged.Commit()
}

type stagedFile struct {
	tmp  string
	path string
}

// Commit moves the encoded image to its final path.
func (f *stagedFile) Commit() error {
	if err := os.Rename(f.tmp, f.path); err != nil {
		return multierr.Combine(err, os.Remove(f.tmp))
	}
	return nil
}

// Discard removes the encoded image.
func (f *stagedFile) Discard() error {
	return os.Remove(f.tmp)
}

func stageGridFile(path string, g *Grid) (_ *stagedFile, err error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot pick an image format for %q", path)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, os.Remove(tmp.Name()))
		}
	}()

	if err := EncodeGrid(tmp, g, format); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "cannot encode %s", path), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return &stagedFile{tmp: tmp.Name(), path: path}, nil
}
