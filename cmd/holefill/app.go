package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/holefill/config"
	"go.viam.com/holefill/holefill"
	"go.viam.com/holefill/logging"
	"go.viam.com/holefill/rimage"
)

const (
	// Flags.
	generalFlagDebug  = "debug"
	fillFlagImage     = "image"
	fillFlagMask      = "mask"
	fillFlagConn      = "connectivity"
	fillFlagWeight    = "weight"
	fillFlagOut       = "out"
	fillFlagConfig    = "config"
	fillFlagMode      = "mode"
	fillFlagThreshold = "threshold"
	inspectFlagPlot   = "plot"
	fillFlagHistogram = "histogram"
)

const (
	histogramBins  = 10
	histogramWidth = 40
)

type holefillCLI struct {
	logger logging.Logger
}

// newApp returns the command line app with Writer set to out and ErrWriter set to errOut.
// Logs go to errOut so that out only carries command output.
func newApp(out, errOut io.Writer) *cli.App {
	h := &holefillCLI{}
	return &cli.App{
		Name:            "holefill",
		Usage:           "fill holes in grayscale images",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			h.logger = logging.NewBlankLogger("holefill")
			h.logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
			if c.Bool(generalFlagDebug) {
				h.logger.SetLevel(logging.DEBUG)
				c.Context = logging.EnableDebugMode(c.Context, "")
			} else {
				h.logger.SetLevel(logging.INFO)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "fill",
				Usage:     "fill the holes of an image and write the exact and approximate results",
				UsageText: "holefill fill --image <path> --mask <path> [other options]",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     fillFlagImage,
						Usage:    "grayscale `IMAGE` to fill",
						Required: true,
					},
					&cli.PathFlag{
						Name:     fillFlagMask,
						Usage:    "`MASK` whose dark pixels mark the holes of the image",
						Required: true,
					},
					&cli.IntFlag{
						Name:  fillFlagConn,
						Usage: "pixel connectivity used to find the border of the holes, 4 or 8",
						Value: 8,
					},
					&cli.StringFlag{
						Name:  fillFlagWeight,
						Usage: fmt.Sprintf("weight function, one of %v", holefill.RegisteredWeightFunctions()),
						Value: holefill.DefaultWeightName,
					},
					&cli.PathFlag{
						Name:  fillFlagOut,
						Usage: "directory the filled images are written to",
						Value: config.DefaultOutputDir,
					},
					&cli.StringFlag{
						Name:  fillFlagMode,
						Usage: "which fills to run: exact, approximate or both",
						Value: "both",
					},
					&cli.Float64Flag{
						Name:  fillFlagThreshold,
						Usage: "mask values below this are holes",
						Value: holefill.DefaultThreshold,
					},
					&cli.BoolFlag{
						Name:  fillFlagHistogram,
						Usage: "print a histogram of the filled values",
					},
					&cli.PathFlag{
						Name:    fillFlagConfig,
						Aliases: []string{"c"},
						Usage:   "load configuration from `FILE`, flags override its values",
					},
				},
				Action: h.fillAction,
			},
			{
				Name:      "inspect",
				Usage:     "print the hole and border points found in a mask",
				UsageText: "holefill inspect --mask <path> [--connectivity 4|8]",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     fillFlagMask,
						Usage:    "`MASK` whose dark pixels mark holes",
						Required: true,
					},
					&cli.IntFlag{
						Name:  fillFlagConn,
						Usage: "pixel connectivity, 4 or 8",
						Value: 8,
					},
					&cli.Float64Flag{
						Name:  fillFlagThreshold,
						Usage: "mask values below this are holes",
						Value: holefill.DefaultThreshold,
					},
					&cli.PathFlag{
						Name:  inspectFlagPlot,
						Usage: "also draw the hole and border points to `FILE` (png, svg or pdf)",
					},
				},
				Action: h.inspectAction,
			},
		},
	}
}

// runConfig merges the optional config file with the flags that were explicitly set.
func runConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.Path(fillFlagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet(fillFlagConn) {
		cfg.Connectivity = c.Int(fillFlagConn)
	}
	if c.IsSet(fillFlagWeight) && c.String(fillFlagWeight) != cfg.Weight.Type {
		cfg.Weight = config.WeightConfig{Type: c.String(fillFlagWeight)}
	}
	if c.IsSet(fillFlagOut) {
		cfg.OutputDir = c.Path(fillFlagOut)
	}
	if c.IsSet(fillFlagMode) {
		cfg.Mode = c.String(fillFlagMode)
	}
	if c.IsSet(fillFlagThreshold) {
		cfg.Threshold = lo.ToPtr(c.Float64(fillFlagThreshold))
	}
	if err := cfg.Validate("flags"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *holefillCLI) fillAction(c *cli.Context) error {
	rimage.RegisterCodecs()
	cfg, err := runConfig(c)
	if err != nil {
		return err
	}
	modes, err := cfg.Modes()
	if err != nil {
		return err
	}
	pipeline, err := cfg.NewPipeline(h.logger)
	if err != nil {
		return err
	}

	loader := &rimage.FileGridLoader{ImagePath: c.Path(fillFlagImage), MaskPath: c.Path(fillFlagMask)}
	writer := &rimage.DirGridWriter{Dir: cfg.OutputDir}
	reports, err := pipeline.Process(c.Context, loader, writer, modes...)
	if err != nil {
		return errors.Wrap(err, "cannot fill image")
	}
	for _, report := range reports {
		path := filepath.Join(cfg.OutputDir, report.Mode.ArtifactName())
		if report.Holes == 0 {
			warningf(c.App.ErrWriter, "mask has no holes, %s is a copy of the image", path)
		}
		printf(c.App.Writer, "%s: filled %d holes from %d border points in %s (min %.4f, max %.4f, mean %.4f) -> %s",
			report.Mode, report.Holes, report.Border, report.Duration, report.Min, report.Max, report.Mean, path)
		if c.Bool(fillFlagHistogram) {
			if err := printHistogram(c.App.Writer, report); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *holefillCLI) inspectAction(c *cli.Context) error {
	rimage.RegisterCodecs()
	conn, err := holefill.ParseConnectivity(c.Int(fillFlagConn))
	if err != nil {
		return err
	}
	mask, err := rimage.ReadGridFromFile(c.Path(fillFlagMask))
	if err != nil {
		return err
	}
	if err := holefill.ValidateThreshold(c.Float64(fillFlagThreshold)); err != nil {
		return err
	}
	builder := holefill.NewPointSetBuilder(conn, h.logger)
	builder.Threshold = c.Float64(fillFlagThreshold)
	holes, border, err := builder.Build(c.Context, mask)
	if err != nil {
		return err
	}

	printf(c.App.Writer, "mask: %dx%d", mask.Rows(), mask.Cols())
	printf(c.App.Writer, "connectivity: %s", conn)
	printf(c.App.Writer, "holes: %d", holes.Len())
	printf(c.App.Writer, "border: %d", border.Len())
	if centroid, ok := holefill.Centroid(holes); ok {
		printf(c.App.Writer, "centroid: %s", centroid)
	}
	if holes.Len() > 0 && border.Len() == 0 {
		warningf(c.App.ErrWriter, "no known pixel borders the holes, they cannot be filled")
	}
	if path := c.Path(inspectFlagPlot); path != "" {
		if err := holefill.PlotPointSets(path, mask.Rows(), mask.Cols(), holes, border); err != nil {
			return errors.Wrap(err, "cannot plot point sets")
		}
		printf(c.App.Writer, "plot: %s", path)
	}
	return nil
}

// printHistogram prints the distribution of the filled values. Bins need a non-empty range, so a
// single distinct value is printed as is.
func printHistogram(w io.Writer, report *holefill.Report) error {
	switch {
	case len(report.Values) == 0:
		return nil
	case report.Max == report.Min:
		printf(w, "all %d filled values are %.4f", len(report.Values), report.Min)
		return nil
	default:
		return histogram.Fprint(w, histogram.Hist(histogramBins, report.Values), histogram.Linear(histogramWidth))
	}
}

// printf prints a message with a newline to the given writer.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a highlighted warning with a newline to the given writer.
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: ")
	printf(w, format, a...)
}
