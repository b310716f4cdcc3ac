package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/algorithms/catalog"
	"curve-digitizer/internal/config"
	"curve-digitizer/internal/imaging"
	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"
	"curve-digitizer/internal/pipeline"
	"curve-digitizer/internal/services"
	"curve-digitizer/internal/shutdown"

	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath string
	imagePath  string
	restore    string
	csvPath    string
	project    string
	plotPath   string
	maskPath   string
	logLevel   string
	logFile    string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "job description (.toml)")
	flag.StringVar(&opts.imagePath, "image", "", "chart image, overrides [image].path")
	flag.StringVar(&opts.restore, "restore", "", "take algorithm parameters from the first dataset of a saved project")
	flag.StringVar(&opts.csvPath, "csv", "", "write points as CSV, overrides [output].csv")
	flag.StringVar(&opts.project, "project", "", "write a project document, overrides [output].project")
	flag.StringVar(&opts.plotPath, "plot", "", "write a plot preview (png, svg, pdf), overrides [output].plot")
	flag.StringVar(&opts.maskPath, "mask-out", "", "write the binarized mask as an image")
	flag.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn, error or disabled")
	flag.StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file instead of the console")
	flag.Parse()

	if opts.configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: curve-digitizer -config job.toml [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "curve-digitizer: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	log, closeLog, err := newLogger(cfg.Output.LogLevel, opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	shutdownManager := shutdown.NewManager(log)
	shutdownManager.Listen()
	defer shutdownManager.Shutdown()
	ctx := shutdownManager.Context()

	if cfg.Image.Path == "" {
		return errors.New("no image given: set [image].path or -image")
	}

	axes, err := cfg.Calibration.Axes()
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	loader := imaging.NewLoader(log)
	img, err := loader.LoadFile(ctx, cfg.Image.Path, imaging.OptionsFromConfig(cfg.Image))
	if err != nil {
		return err
	}

	manager := catalog.NewManager()
	if cfg.Extraction.Algorithm != "" {
		if err := manager.SetCurrentAlgorithm(cfg.Extraction.Algorithm); err != nil {
			return err
		}
	}

	stateRepo := models.NewProcessingStateRepository()
	extraction := services.NewExtractionService(manager, stateRepo, log)
	shutdownManager.Register(shutdown.Func(extraction.CancelExtraction))

	algo, params, err := prepareAlgorithm(extraction, manager, axes, opts.restore, cfg.Extraction.Parameters)
	if err != nil {
		return err
	}
	for _, p := range params {
		log.Debug("CLI", "parameter", map[string]interface{}{
			"key":   p.Key,
			"name":  p.Name,
			"unit":  p.Unit,
			"value": p.Value,
		})
	}

	dataset := models.NewDataset(cfg.Extraction.Dataset)
	result, err := extraction.Extract(ctx, services.ExtractionRequest{
		Algorithm: algo,
		Mask:      img.Mask,
		Axes:      axes,
		Dataset:   dataset,
	})
	if err != nil {
		return err
	}

	exporter := pipeline.NewExporter(log)

	// Outputs are independent files; write them concurrently.
	var g errgroup.Group
	if cfg.Output.CSV != "" {
		g.Go(func() error {
			return exporter.SaveCSV(cfg.Output.CSV, result.Pixels, result.Data)
		})
	}
	if cfg.Output.Plot != "" {
		logX, logY := axes.LogScales()
		plotOpts := pipeline.DefaultPlotOptions()
		plotOpts.Title = filepath.Base(img.Path)
		plotOpts.LogX, plotOpts.LogY = logX, logY
		g.Go(func() error {
			return exporter.SavePlot(cfg.Output.Plot, dataset.Name(), result.Data, plotOpts)
		})
	}
	if cfg.Output.Project != "" {
		project := pipeline.NewProject(img, axes)
		project.AddDataset(dataset, algo, axes)
		g.Go(func() error {
			return exporter.SaveProject(cfg.Output.Project, project)
		})
	}
	if opts.maskPath != "" {
		g.Go(func() error {
			return exporter.SaveMask(opts.maskPath, imaging.MaskImage(img.Mask))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Output.CSV == "" && cfg.Output.Project == "" && cfg.Output.Plot == "" {
		return exporter.WriteCSV(os.Stdout, result.Pixels, result.Data)
	}
	return nil
}

// prepareAlgorithm builds the algorithm to run: a fresh instance seeded from
// the calibration, or the parameters stored in a project.
func prepareAlgorithm(
	extraction *services.ExtractionService,
	manager *algorithms.Manager,
	axes *models.XYAxes,
	restorePath string,
	overrides map[string]float64,
) (algorithms.Algorithm, []algorithms.Parameter, error) {
	if restorePath == "" {
		algo, err := extraction.NewAlgorithm()
		if err != nil {
			return nil, nil, err
		}
		params, err := services.ApplyOverrides(algo, axes, overrides)
		return algo, params, err
	}

	project, err := pipeline.LoadProject(restorePath)
	if err != nil {
		return nil, nil, err
	}
	_, algo, err := project.Restore(manager, 0)
	if err != nil {
		return nil, nil, err
	}
	if algo == nil {
		return nil, nil, fmt.Errorf("%s: first dataset has no algorithm state", restorePath)
	}
	// Restored bounds win over the calibration.
	params, err := services.ApplyOverrides(algo, nil, overrides)
	return algo, params, err
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.imagePath != "" {
		cfg.Image.Path = opts.imagePath
	}
	if opts.csvPath != "" {
		cfg.Output.CSV = opts.csvPath
	}
	if opts.project != "" {
		cfg.Output.Project = opts.project
	}
	if opts.plotPath != "" {
		cfg.Output.Plot = opts.plotPath
	}
	if opts.logLevel != "" {
		cfg.Output.LogLevel = opts.logLevel
	}
}

func newLogger(levelName, logFile string) (logger.Logger, func(), error) {
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	level = logger.LevelFromEnv(level)

	if logFile == "" {
		return logger.NewConsoleLogger(level), func() {}, nil
	}

	f, err := os.OpenFile(filepath.Clean(logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logger.NewFileLogger(f, level), func() { f.Close() }, nil
}
