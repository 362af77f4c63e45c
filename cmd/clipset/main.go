// Package main provides the CLI entry point for clipset.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/clipset/pkg/adapters/framesink"
	"github.com/user/clipset/pkg/adapters/ggrenderer"
	"github.com/user/clipset/pkg/adapters/logger"
	"github.com/user/clipset/pkg/adapters/mp4decoder"
	"github.com/user/clipset/pkg/adapters/nullsink"
	"github.com/user/clipset/pkg/adapters/osfilesystem"
	"github.com/user/clipset/pkg/config"
	"github.com/user/clipset/pkg/dataset"
	"github.com/user/clipset/pkg/npy"
	"github.com/user/clipset/pkg/ports"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:  "clipset",
		Usage: l10n.T("Sample training clips from a video corpus"),
		Commands: []*cli.Command{
			sampleCommand(),
			exportCommand(),
			probeCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// datasetFlags are shared by the sample and export commands.
func datasetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"f"}, Usage: l10n.T("YAML config file")},
		&cli.StringFlag{Name: "meta", Usage: l10n.T("Metadata CSV path")},
		&cli.StringFlag{Name: "data-dir", Usage: l10n.T("Corpus root directory")},
		&cli.IntFlag{Name: "subsample", Usage: l10n.T("Use only this many metadata rows (deterministic)")},
		&cli.IntFlag{Name: "length", Aliases: []string{"L"}, Usage: l10n.T("Frames per clip")},
		&cli.IntFlag{Name: "stride", Aliases: []string{"s"}, Usage: l10n.T("Frame stride")},
		&cli.IntFlag{Name: "stride-min", Usage: l10n.T("Minimum frame stride for randomization")},
		&cli.BoolFlag{Name: "random-stride", Usage: l10n.T("Randomize the stride per sample")},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Target clip height")},
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Target clip width")},
		&cli.StringFlag{Name: "transform", Usage: l10n.T("Spatial transform policy (random_crop, center_crop, resize_center_crop, resize)")},
		&cli.Float64Flag{Name: "fixed-fps", Usage: l10n.T("Normalize playback to this fps")},
		&cli.IntFlag{Name: "fps-max", Usage: l10n.T("Cap the reported fps")},
		&cli.BoolFlag{Name: "raw", Usage: l10n.T("Decode at native resolution")},
		&cli.IntFlag{Name: "max-attempts", Usage: l10n.T("Retry budget per Get call")},
		&cli.Int64Flag{Name: "seed", Usage: l10n.T("Randomization seed (0 = clock)")},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Save contact sheets of sampled clips")},
		&cli.StringFlag{Name: "debug-dir", Value: "./debug", Usage: l10n.T("Directory for debug output")},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output")},
	}
}

func sampleCommand() *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: l10n.T("Draw samples and report fps/stride statistics"),
		Flags: append(datasetFlags(),
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: l10n.T("Number of samples to draw")},
			&cli.IntFlag{Name: "index", Value: 0, Usage: l10n.T("First sample index")},
		),
		Action: func(c *cli.Context) error {
			log := buildLogger(c)
			source, err := buildDataset(c, log)
			if err != nil {
				return err
			}

			count := c.Int("count")
			start := c.Int("index")
			drawn := 0
			for i := 0; i < count; i++ {
				sample, err := source.Get(start + i)
				if err != nil {
					return err
				}
				drawn++
				log.Debug("Sample %d: %s fps=%d stride=%d", start+i, sample.Path, sample.FPS, sample.FrameStride)
			}

			log.Info("Sampled %d/%d clips", drawn, count)
			fps, stride := source.Stats()
			log.Info("fps histogram: %v", fps)
			log.Info("frame stride histogram: %v", stride)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: l10n.T("Write samples to .npy tensors with caption sidecars"),
		Flags: append(datasetFlags(),
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: l10n.T("Number of samples to export")},
			&cli.IntFlag{Name: "index", Value: 0, Usage: l10n.T("First sample index")},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Output directory")},
		),
		Action: func(c *cli.Context) error {
			log := buildLogger(c)
			source, err := buildDataset(c, log)
			if err != nil {
				return err
			}

			fs := osfilesystem.New()
			outDir := c.String("out")
			if err := fs.MkdirAll(outDir); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			count := c.Int("count")
			start := c.Int("index")
			for i := 0; i < count; i++ {
				sample, err := source.Get(start + i)
				if err != nil {
					return err
				}

				v := sample.Video
				base := filepath.Join(outDir, fmt.Sprintf("sample-%06d", start+i))
				shape := []int{v.C(), v.T(), v.H(), v.W()}
				if err := npy.WriteFloat32(fs, base+".npy", v.Data(), shape); err != nil {
					return err
				}
				if err := fs.WriteFile(base+".txt", []byte(sample.Caption)); err != nil {
					return err
				}
				log.Info("Exported sample %d to %s", start+i, base+".npy")
			}
			return nil
		},
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Print frame count and average fps of a video file"),
		ArgsUsage: "<file.mp4>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one video file argument")
			}
			path := c.Args().First()

			log := logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
			decoder := mp4decoder.New(log)
			handle, err := decoder.Open(path, ports.OpenOptions{})
			if err != nil {
				return err
			}
			defer handle.Close()

			fmt.Printf("%s: %d frames, %.3f fps\n", path, handle.FrameCount(), handle.AvgFPS())
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("clipset version %s", version))
			return nil
		},
	}
}

func buildLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

// buildDataset assembles the clip source from the config file and flag
// overrides.
func buildDataset(c *cli.Context, log ports.Logger) (*dataset.ClipSource, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyFlags(c, &cfg)

	if cfg.MetaPath == "" {
		return nil, fmt.Errorf("metadata path is required (--meta or config meta_path)")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory is required (--data-dir or config data_dir)")
	}

	fs := osfilesystem.New()
	decoder := mp4decoder.New(log)

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = framesink.New(cfg.DebugDir, fs, ggrenderer.New())
	} else {
		sink = nullsink.New()
	}

	return dataset.New(cfg.ToDatasetOptions(), decoder, fs, log, sink)
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("meta") {
		cfg.MetaPath = c.String("meta")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("subsample") {
		cfg.Subsample = c.Int("subsample")
	}
	if c.IsSet("length") {
		cfg.VideoLength = c.Int("length")
	}
	if c.IsSet("stride") {
		cfg.FrameStride = c.Int("stride")
	}
	if c.IsSet("stride-min") {
		cfg.FrameStrideMin = c.Int("stride-min")
	}
	if c.IsSet("random-stride") {
		cfg.RandomStride = c.Bool("random-stride")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("transform") {
		cfg.SpatialTransform = c.String("transform")
	}
	if c.IsSet("fixed-fps") {
		cfg.FixedFPS = c.Float64("fixed-fps")
	}
	if c.IsSet("fps-max") {
		cfg.FPSMax = c.Int("fps-max")
	}
	if c.IsSet("raw") {
		cfg.LoadRawResolution = c.Bool("raw")
	}
	if c.IsSet("max-attempts") {
		cfg.MaxAttempts = c.Int("max-attempts")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
}
