package holefill

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/holefill/logging"
	"go.viam.com/holefill/rimage"
)

type memoryLoader struct {
	img, mask *rimage.Grid
	err       error
}

func (l *memoryLoader) LoadGrids(ctx context.Context) (*rimage.Grid, *rimage.Grid, error) {
	return l.img, l.mask, l.err
}

type memoryWriter struct {
	mu      sync.Mutex
	written map[string]*rimage.Grid
}

func (w *memoryWriter) WriteGrid(ctx context.Context, name string, g *rimage.Grid) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written == nil {
		w.written = map[string]*rimage.Grid{}
	}
	w.written[name] = g
	return nil
}

type stagedMemoryGrid struct {
	writer *stagingWriter
	name   string
	grid   *rimage.Grid
}

func (s *stagedMemoryGrid) Commit() error {
	return s.writer.WriteGrid(context.Background(), s.name, s.grid)
}

func (s *stagedMemoryGrid) Discard() error {
	s.writer.discarded = append(s.writer.discarded, s.name)
	return nil
}

// stagingWriter fails to stage failName.
type stagingWriter struct {
	memoryWriter
	failName  string
	discarded []string
}

func (w *stagingWriter) StageGrid(ctx context.Context, name string, g *rimage.Grid) (rimage.StagedGrid, error) {
	if name == w.failName {
		return nil, errors.New("disk full")
	}
	return &stagedMemoryGrid{writer: w, name: name, grid: g}, nil
}

func newTestPipeline(t *testing.T, conn Connectivity) *Pipeline {
	logger := logging.NewTestLogger(t)
	return NewPipeline(NewPointSetBuilder(conn, logger), NewHoleFiller(nil, logger), logger)
}

func TestParseModes(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []Mode
	}{
		{"exact", []Mode{ModeExact}},
		{"EXACT", []Mode{ModeExact}},
		{"approximate", []Mode{ModeApproximate}},
		{"lazy", []Mode{ModeApproximate}},
		{"both", AllModes},
		{"", AllModes},
	} {
		modes, err := ParseModes(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, modes, test.ShouldResemble, tc.want)
	}
	_, err := ParseModes("fast")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, ModeExact.ArtifactName(), test.ShouldEqual, "Fixed.png")
	test.That(t, ModeApproximate.ArtifactName(), test.ShouldEqual, "LazyFix.png")
	test.That(t, ModeApproximate.String(), test.ShouldEqual, "approximate")
}

func TestRunAllLeavesInputsUntouched(t *testing.T) {
	r := rand.New(rand.NewSource(21))
	img := randomGrid(t, r, 10, 10)
	mask := maskWithHoles(t, 10, 10, Point{4, 4}, Point{4, 5}, Point{5, 4}, Point{5, 5}, Point{2, 7})
	origImg, origMask := img.Clone(), mask.Clone()

	p := newTestPipeline(t, EightConnected)
	results, err := p.RunAll(context.Background(), img, mask, AllModes...)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 2)
	test.That(t, img.Equal(origImg), test.ShouldBeTrue)
	test.That(t, mask.Equal(origMask), test.ShouldBeTrue)

	exact := results[ModeExact]
	approx := results[ModeApproximate]
	test.That(t, exact.Grid, test.ShouldNotEqual, approx.Grid)
	test.That(t, exact.Report.Holes, test.ShouldEqual, 5)
	test.That(t, approx.Report.Holes, test.ShouldEqual, 5)
	test.That(t, exact.Report.Border, test.ShouldEqual, approx.Report.Border)
	test.That(t, exact.Report.Min, test.ShouldBeLessThanOrEqualTo, exact.Report.Mean)
	test.That(t, exact.Report.Mean, test.ShouldBeLessThanOrEqualTo, exact.Report.Max)
	test.That(t, approx.Report.Min, test.ShouldEqual, approx.Report.Max)
	test.That(t, exact.Report.Values, test.ShouldHaveLength, 5)
	test.That(t, exact.Report.Values[0], test.ShouldEqual, gridValue(t, exact.Grid, Point{2, 7}))

	// same result as filling directly
	holes, border := buildSets(t, mask, EightConnected)
	direct := img.Clone()
	test.That(t, NewHoleFiller(nil, logging.NewTestLogger(t)).FillExact(context.Background(), direct, holes, border),
		test.ShouldBeNil)
	test.That(t, exact.Grid.Equal(direct), test.ShouldBeTrue)

	res, err := p.Run(context.Background(), img, mask, ModeApproximate)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Grid.Equal(approx.Grid), test.ShouldBeTrue)
}

func TestRunAllErrors(t *testing.T) {
	p := newTestPipeline(t, EightConnected)

	_, err := p.RunAll(context.Background(), rimage.NewGrid(4, 4), rimage.NewGrid(4, 5), AllModes...)
	var resErr *rimage.ResourceError
	test.That(t, errors.As(err, &resErr), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mask is 4x5 but image is 4x4")

	_, err = p.RunAll(context.Background(), rimage.NewUniformGrid(5, 5, 1), rimage.NewGrid(5, 5), AllModes...)
	var degenerate *DegenerateInputError
	test.That(t, errors.As(err, &degenerate), test.ShouldBeTrue)
	test.That(t, degenerate.Holes, test.ShouldEqual, 9)

	_, err = p.Run(context.Background(), rimage.NewGrid(5, 5), maskWithHoles(t, 5, 5, Point{2, 2}), Mode(7))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown fill mode")
}

func TestProcess(t *testing.T) {
	img := rimage.NewUniformGrid(6, 6, 0.25)
	test.That(t, img.Set(2, 3, 1), test.ShouldBeNil)
	mask := maskWithHoles(t, 6, 6, Point{2, 3}, Point{3, 3})

	writer := &memoryWriter{}
	p := newTestPipeline(t, FourConnected)
	reports, err := p.Process(context.Background(), &memoryLoader{img: img, mask: mask}, writer, AllModes...)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reports, test.ShouldHaveLength, 2)
	test.That(t, reports[0].Mode, test.ShouldEqual, ModeExact)
	test.That(t, reports[1].Mode, test.ShouldEqual, ModeApproximate)
	test.That(t, reports[0].Border, test.ShouldEqual, 6)

	test.That(t, writer.written, test.ShouldHaveLength, 2)
	for _, name := range []string{"Fixed.png", "LazyFix.png"} {
		filled, ok := writer.written[name]
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, filled.EqualApprox(rimage.NewUniformGrid(6, 6, 0.25), 1e-9), test.ShouldBeTrue)
	}
}

func TestProcessWritesNothingOnFailure(t *testing.T) {
	p := newTestPipeline(t, EightConnected)
	writer := &memoryWriter{}

	_, err := p.Process(context.Background(),
		&memoryLoader{img: rimage.NewGrid(5, 5), mask: rimage.NewGrid(5, 5)}, writer, AllModes...)
	var degenerate *DegenerateInputError
	test.That(t, errors.As(err, &degenerate), test.ShouldBeTrue)
	test.That(t, writer.written, test.ShouldBeEmpty)

	loadErr := rimage.NewResourceError("missing.png", errors.New("no such file"))
	_, err = p.Process(context.Background(), &memoryLoader{err: loadErr}, writer, AllModes...)
	test.That(t, err, test.ShouldEqual, loadErr)
	test.That(t, writer.written, test.ShouldBeEmpty)
}

func TestProcessPublishesAllOrNothing(t *testing.T) {
	img := rimage.NewUniformGrid(6, 6, 0.25)
	mask := maskWithHoles(t, 6, 6, Point{2, 3}, Point{3, 3})
	p := newTestPipeline(t, FourConnected)

	writer := &stagingWriter{failName: ModeApproximate.ArtifactName()}
	_, err := p.Process(context.Background(), &memoryLoader{img: img, mask: mask}, writer, AllModes...)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot write LazyFix.png: disk full")
	test.That(t, writer.written, test.ShouldBeEmpty)
	test.That(t, writer.discarded, test.ShouldResemble, []string{"Fixed.png"})

	writer = &stagingWriter{}
	reports, err := p.Process(context.Background(), &memoryLoader{img: img, mask: mask}, writer, AllModes...)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reports, test.ShouldHaveLength, 2)
	test.That(t, writer.written, test.ShouldHaveLength, 2)
	test.That(t, writer.discarded, test.ShouldBeEmpty)
}
