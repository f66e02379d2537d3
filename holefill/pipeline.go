package holefill

import (
	"context"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/holefill/logging"
	"go.viam.com/holefill/rimage"
)

// Mode selects how holes are filled.
type Mode int

const (
	// ModeExact computes a weighted average for every hole point.
	ModeExact Mode = iota
	// ModeApproximate computes one weighted average at the hole centroid and uses it everywhere.
	ModeApproximate
)

// AllModes lists every fill mode.
var AllModes = []Mode{ModeExact, ModeApproximate}

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeApproximate:
		return "approximate"
	default:
		return "unknown"
	}
}

// ArtifactName is the file name a filled image of this mode is written under.
func (m Mode) ArtifactName() string {
	if m == ModeApproximate {
		return "LazyFix.png"
	}
	return "Fixed.png"
}

// ParseModes converts "exact", "approximate" or "both" into the modes to run.
func ParseModes(s string) ([]Mode, error) {
	switch strings.ToLower(s) {
	case "exact":
		return []Mode{ModeExact}, nil
	case "approximate", "approx", "lazy":
		return []Mode{ModeApproximate}, nil
	case "both", "":
		return AllModes, nil
	default:
		return nil, errors.Errorf("unknown fill mode %q, expected exact, approximate or both", s)
	}
}

// Report summarizes one fill.
type Report struct {
	Mode     Mode
	Holes    int
	Border   int
	Duration time.Duration
	// Min, Max and Mean describe the values written into the holes. They are zero when there
	// were no holes.
	Min  float64
	Max  float64
	Mean float64
	// Values holds the filled values in row major hole order.
	Values []float64
}

// Result is a filled image and its report.
type Result struct {
	Grid   *rimage.Grid
	Report *Report
}

// Pipeline runs the whole hole filling process over an image and its mask: point sets are
// built once and every requested mode fills its own copy of the image.
type Pipeline struct {
	builder *PointSetBuilder
	filler  *HoleFiller
	logger  logging.Logger
}

// NewPipeline returns a pipeline that builds point sets with builder and fills with filler.
func NewPipeline(builder *PointSetBuilder, filler *HoleFiller, logger logging.Logger) *Pipeline {
	return &Pipeline{builder: builder, filler: filler, logger: logger}
}

// Run fills a copy of img using mode. The given grids are never modified.
func (p *Pipeline) Run(ctx context.Context, img, mask *rimage.Grid, mode Mode) (*Result, error) {
	results, err := p.RunAll(ctx, img, mask, mode)
	if err != nil {
		return nil, err
	}
	return results[mode], nil
}

// RunAll fills one copy of img per mode, concurrently. Either every mode succeeds or an error
// is returned and no result is.
func (p *Pipeline) RunAll(ctx context.Context, img, mask *rimage.Grid, modes ...Mode) (map[Mode]*Result, error) {
	if !img.SameDims(mask) {
		return nil, rimage.NewResourceError("", errors.Errorf(
			"mask is %dx%d but image is %dx%d", mask.Rows(), mask.Cols(), img.Rows(), img.Cols()))
	}
	holes, border, err := p.builder.Build(ctx, mask)
	if err != nil {
		return nil, err
	}
	if holes.Len() > 0 && border.Len() == 0 {
		return nil, newEmptyBorderError(holes.Len())
	}

	results := make([]*Result, len(modes))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, mode := range modes {
		i, mode := i, mode
		group.Go(func() error {
			res, err := p.fill(groupCtx, img.Clone(), holes, border, mode)
			if err != nil {
				return errors.Wrapf(err, "%s fill failed", mode)
			}
			results[i] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	byMode := make(map[Mode]*Result, len(modes))
	for i, mode := range modes {
		byMode[mode] = results[i]
	}
	return byMode, nil
}

func (p *Pipeline) fill(ctx context.Context, img *rimage.Grid, holes, border PointSet, mode Mode) (*Result, error) {
	start := time.Now()
	var err error
	switch mode {
	case ModeExact:
		err = p.filler.FillExact(ctx, img, holes, border)
	case ModeApproximate:
		err = p.filler.FillApproximate(ctx, img, holes, border)
	default:
		err = errors.Errorf("unknown fill mode %d", int(mode))
	}
	if err != nil {
		return nil, err
	}

	report := &Report{
		Mode:     mode,
		Holes:    holes.Len(),
		Border:   border.Len(),
		Duration: time.Since(start),
	}
	if err := report.summarize(img, holes); err != nil {
		return nil, err
	}
	p.logger.Infow("filled holes",
		"mode", mode.String(),
		"holes", report.Holes,
		"border", report.Border,
		"duration", report.Duration.String(),
		"min", report.Min,
		"max", report.Max,
		"mean", report.Mean,
	)
	return &Result{Grid: img, Report: report}, nil
}

func (r *Report) summarize(img *rimage.Grid, holes PointSet) error {
	if holes.Len() == 0 {
		return nil
	}
	values := make(stats.Float64Data, 0, holes.Len())
	for _, pt := range holes.Sorted() {
		val, err := img.At(pt.Row, pt.Col)
		if err != nil {
			return err
		}
		values = append(values, val)
	}
	var err error
	if r.Min, err = values.Min(); err != nil {
		return err
	}
	if r.Max, err = values.Max(); err != nil {
		return err
	}
	if r.Mean, err = values.Mean(); err != nil {
		return err
	}
	r.Values = values
	return nil
}

// Process loads the grids with loader, runs every mode and hands each filled grid to writer
// under its mode's artifact name. Nothing is written unless every mode succeeded. A writer that
// implements rimage.StagingGridWriter only has its grids published once all of them were
// encoded; other writers may be left with the grids written before a failed write.
func (p *Pipeline) Process(ctx context.Context, loader rimage.GridLoader, writer rimage.GridWriter, modes ...Mode) ([]*Report, error) {
	img, mask, err := loader.LoadGrids(ctx)
	if err != nil {
		return nil, err
	}
	results, err := p.RunAll(ctx, img, mask, modes...)
	if err != nil {
		return nil, err
	}
	if err := writeResults(ctx, writer, results, modes); err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(modes))
	for _, mode := range modes {
		reports = append(reports, results[mode].Report)
	}
	return reports, nil
}

func writeResults(ctx context.Context, writer rimage.GridWriter, results map[Mode]*Result, modes []Mode) error {
	stager, ok := writer.(rimage.StagingGridWriter)
	if !ok {
		for _, mode := range modes {
			if err := writer.WriteGrid(ctx, mode.ArtifactName(), results[mode].Grid); err != nil {
				return errors.Wrapf(err, "cannot write %s", mode.ArtifactName())
			}
		}
		return nil
	}

	staged := make([]rimage.StagedGrid, 0, len(modes))
	discard := func(err error, pending []rimage.StagedGrid) error {
		for _, s := range pending {
			err = multierr.Combine(err, s.Discard())
		}
		return err
	}
	for _, mode := range modes {
		s, err := stager.StageGrid(ctx, mode.ArtifactName(), results[mode].Grid)
		if err != nil {
			return discard(errors.Wrapf(err, "cannot write %s", mode.ArtifactName()), staged)
		}
		staged = append(staged, s)
	}
	for i, s := range staged {
		if err := s.Commit(); err != nil {
			return discard(errors.Wrapf(err, "cannot write %s", modes[i].ArtifactName()), staged[i+1:])
		}
	}
	return nil
}
