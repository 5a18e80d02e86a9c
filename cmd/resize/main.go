package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nvr-ai/go-resize/batch"
	"github.com/nvr-ai/go-resize/config"
	"github.com/nvr-ai/go-resize/watch"
	"github.com/pkg/errors"
)

func main() {
	os.Exit(run())
}

// run executes the command and returns the process exit code.
func run() int {
	var (
		configPath string
		inDir      string
		outDir     string
		workers    int
		preset     string
		filter     string
		edge       string
		logLevel   string
		logFormat  string
		watchMode  bool
	)

	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&inDir, "in", "", "Input directory (overrides config)")
	flag.StringVar(&outDir, "out", "", "Output directory (overrides config)")
	flag.IntVar(&workers, "workers", 0, "Number of concurrent resize workers (overrides config)")
	flag.StringVar(&preset, "preset", "", "Standard frame size for the first image, e.g. 720p (overrides config)")
	flag.StringVar(&filter, "filter", "", "Resample filter: bicubic, catmullrom, mitchell, lanczos")
	flag.StringVar(&edge, "edge", "", "Pre-filter border handling: skip, clamp, mirror, wrap")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&logFormat, "log-format", "", "Log format: text, json")
	flag.BoolVar(&watchMode, "watch", false, "Keep running and resize images added to the input directory")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if inDir != "" {
		cfg.InputDir = inDir
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if preset != "" {
		cfg.Sizes.Preset = preset
	}
	if filter != "" {
		cfg.Resize.Filter = filter
	}
	if edge != "" {
		cfg.Resize.Edge = edge
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	batch.SetLogger(logger)

	proc, err := batch.NewProcessor(cfg)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := proc.Run(ctx, cfg.InputDir, cfg.OutputDir)
	printReport(report)
	if err != nil {
		logger.Error("batch failed", "error", err)
		return 1
	}

	failed := len(report.Failures())
	if watchMode {
		failed += runWatch(ctx, proc, cfg, report.Loaded)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newLogger builds the slog logger described by the log section.
func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, errors.Errorf("invalid log format %q", cfg.Format)
	}
}

// runWatch blocks until ctx is cancelled and returns the number of failed files.
func runWatch(ctx context.Context, proc *batch.Processor, cfg *config.Config, start int) int {
	w, err := watch.New(proc, cfg.InputDir, cfg.OutputDir, watch.Options{Start: start})
	if err != nil {
		batch.Logger().Error("failed to start watcher", "error", err)
		return 1
	}

	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	failed := 0
	for res := range w.Results() {
		if res.Err != nil {
			failed++
			fmt.Printf("FAILED %s: %v\n", res.Name, res.Err)
			continue
		}
		fmt.Printf("%s -> %s (%dx%d)\n", res.Name, res.Output, res.Actual.Width, res.Actual.Height)
	}
	if err := <-errc; err != nil {
		batch.Logger().Error("watcher stopped", "error", err)
		failed++
	}
	return failed
}

func printReport(report batch.Report) {
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("FAILED %s (%s): %v\n", res.Name, res.Stage, res.Err)
			continue
		}
		fmt.Printf("%s -> %s (requested %dx%d, actual %dx%d)\n",
			res.Name, res.Output,
			res.Requested.Width, res.Requested.Height,
			res.Actual.Width, res.Actual.Height,
		)
	}
	fmt.Printf("\nLoaded: %d, Resized: %d, Failed: %d, Reloaded: %d\n",
		report.Loaded, report.Resized, len(report.Failures()), report.Reloaded)
}
