package gui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/config"
	"curve-digitizer/internal/gui/widgets"
	"curve-digitizer/internal/imaging"
	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"
	"curve-digitizer/internal/pipeline"
	"curve-digitizer/internal/services"

	"fyne.io/fyne/v2"
)

const progressInterval = 100 * time.Millisecond

// Controller coordinates between view components and the extraction services
type Controller struct {
	view       *View
	loader     *imaging.Loader
	extraction *services.ExtractionService
	manager    *algorithms.Manager
	exporter   *pipeline.Exporter
	imageRepo  *models.ImageRepository
	logger     logger.Logger
	ctx        context.Context

	mu          sync.RWMutex
	algorithm   algorithms.Algorithm
	axes        *models.XYAxes
	maskOptions imaging.Options
	dataset     *models.Dataset
	result      *services.ExtractionResult
}

func NewController(
	ctx context.Context,
	loader *imaging.Loader,
	extraction *services.ExtractionService,
	manager *algorithms.Manager,
	exporter *pipeline.Exporter,
	imageRepo *models.ImageRepository,
	log logger.Logger,
) (*Controller, error) {
	algo, err := extraction.NewAlgorithm()
	if err != nil {
		return nil, err
	}
	return &Controller{
		loader:      loader,
		extraction:  extraction,
		manager:     manager,
		exporter:    exporter,
		imageRepo:   imageRepo,
		logger:      log,
		ctx:         ctx,
		algorithm:   algo,
		maskOptions: imaging.DefaultOptions(),
		dataset:     models.NewDataset("Trace 1"),
	}, nil
}

func (c *Controller) SetView(view *View) {
	c.view = view
	c.refreshParameters()
}

// Image operations
func (c *Controller) LoadImage() {
	c.view.ShowFileDialog([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}, func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.handleError("File selection error", err)
			return
		}
		if reader == nil {
			return
		}

		c.updateStatus("Loading image...")
		opts := c.getMaskOptions()

		go func() {
			defer reader.Close()

			imageData, loadErr := c.loader.Load(c.ctx, reader, reader.URI().Path(), opts)
			if loadErr != nil {
				c.handleError("Image load error", loadErr)
				fyne.Do(func() { c.updateStatus("Ready") })
				return
			}
			c.imageRepo.SetImage(imageData)

			fyne.Do(func() {
				c.view.SetChartImage(imageData.Image)
				c.view.SetMaskImage(imaging.MaskImage(imageData.Mask))
				c.updateRunEnabled()
				c.updateStatus(fmt.Sprintf("Loaded %s (%dx%d)", filepath.Base(imageData.Path), imageData.Width, imageData.Height))
			})
		}()
	})
}

// LoadJob reads calibration, mask options and parameter overrides from a
// TOML job file. The image it names is loaded as well when present.
func (c *Controller) LoadJob() {
	c.view.ShowFileDialog([]string{".toml"}, func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.handleError("File selection error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		cfg, err := config.Load(path)
		if err != nil {
			c.handleError("Job load error", err)
			return
		}

		c.mu.Lock()
		c.maskOptions = imaging.OptionsFromConfig(cfg.Image)
		c.mu.Unlock()

		if cfg.Extraction.Algorithm != "" {
			if err := c.selectAlgorithm(cfg.Extraction.Algorithm); err != nil {
				c.handleError("Job load error", err)
				return
			}
		}

		c.view.SetCalibrationForm(cfg.Calibration)
		c.ApplyCalibration(cfg.Calibration, nil)

		c.mu.RLock()
		algo, axes := c.algorithm, c.axes
		c.mu.RUnlock()
		params, err := services.ApplyOverrides(algo, axes, cfg.Extraction.Parameters)
		if err != nil {
			c.handleError("Job parameters", err)
			return
		}
		c.view.UpdateParameterPanel(params)

		if cfg.Image.Path != "" {
			go c.loadImagePath(cfg.Image.Path)
		} else if img := c.imageRepo.GetImage(); img != nil {
			c.rebuildMask(img)
		}
	})
}

func (c *Controller) loadImagePath(path string) {
	imageData, err := c.loader.LoadFile(c.ctx, path, c.getMaskOptions())
	if err != nil {
		c.handleError("Image load error", err)
		return
	}
	c.imageRepo.SetImage(imageData)

	fyne.Do(func() {
		c.view.SetChartImage(imageData.Image)
		c.view.SetMaskImage(imaging.MaskImage(imageData.Mask))
		c.updateRunEnabled()
		c.updateStatus("Job loaded")
	})
}

// OpenProject restores calibration, points and algorithm state of the first
// dataset of a saved project.
func (c *Controller) OpenProject() {
	c.view.ShowFileDialog([]string{".json"}, func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.handleError("File selection error", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		project, err := pipeline.ReadProject(reader)
		if err != nil {
			c.handleError("Project load error", err)
			return
		}
		axes, err := project.Axes()
		if err != nil {
			c.handleError("Project calibration", err)
			return
		}
		if len(project.Datasets) == 0 {
			c.handleError("Project load error", errors.New("project holds no datasets"))
			return
		}
		dataset, algo, err := project.Restore(c.manager, 0)
		if err != nil {
			c.handleError("Project load error", err)
			return
		}

		c.mu.Lock()
		c.axes = axes
		c.dataset = dataset
		c.result = nil
		if algo != nil {
			c.algorithm = algo
		}
		c.mu.Unlock()

		pts := axes.Points()
		logX, logY := axes.LogScales()
		c.view.SetCalibrationForm(config.CalibrationConfig{X1: pts[0], X2: pts[1], Y3: pts[2], Y4: pts[3], LogX: logX, LogY: logY})
		c.view.SetPoints(dataset.Pixels(), dataset.DataPoints(axes))
		c.refreshParameters()
		c.updateRunEnabled()
		c.updateStatus(fmt.Sprintf("Project %s opened", project.ID))

		if project.Image.Path != "" {
			go c.loadImagePath(project.Image.Path)
		}
	})
}

// Calibration and parameter management
func (c *Controller) ApplyCalibration(cal config.CalibrationConfig, parseErr error) {
	if parseErr != nil {
		c.handleError("Calibration error", parseErr)
		return
	}
	axes, err := cal.Axes()
	if err != nil {
		c.handleError("Calibration error", err)
		return
	}

	c.mu.Lock()
	c.axes = axes
	c.mu.Unlock()

	c.refreshParameters()
	c.updateRunEnabled()
	c.logger.Debug("Controller", "calibration applied", map[string]interface{}{
		"bounds": axes.Bounds(),
		"log_x":  cal.LogX,
		"log_y":  cal.LogY,
	})
}

func (c *Controller) ChangeAlgorithm(name string) {
	tag, err := c.manager.TagForName(name)
	if err != nil {
		c.handleError("Algorithm change error", err)
		return
	}
	if err := c.selectAlgorithm(tag); err != nil {
		c.handleError("Algorithm change error", err)
		return
	}
	c.refreshParameters()

	c.logger.Debug("Controller", "algorithm changed", map[string]interface{}{
		"algorithm": name,
	})
}

func (c *Controller) selectAlgorithm(tag string) error {
	if err := c.manager.SetCurrentAlgorithm(tag); err != nil {
		return err
	}
	algo, err := c.extraction.NewAlgorithm()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.algorithm = algo
	c.mu.Unlock()
	return nil
}

// UpdateParameter applies an edit from the parameter panel.
func (c *Controller) UpdateParameter(index int, value float64) error {
	c.mu.RLock()
	algo := c.algorithm
	c.mu.RUnlock()

	if err := algo.SetParameter(index, value); err != nil {
		return err
	}

	c.logger.Debug("Controller", "parameter updated", map[string]interface{}{
		"algorithm": algo.GetName(),
		"index":     index,
		"value":     value,
	})
	return nil
}

func (c *Controller) ChangeMaskMode(mode string) {
	c.mu.Lock()
	c.maskOptions.Mode = mode
	c.mu.Unlock()

	if img := c.imageRepo.GetImage(); img != nil {
		c.rebuildMask(img)
	}
}

func (c *Controller) rebuildMask(img *models.ImageData) {
	opts := c.getMaskOptions()
	go func() {
		mask, err := c.loader.Rebinarize(img, opts)
		if err != nil {
			c.handleError("Mask error", err)
			return
		}
		c.imageRepo.SetMask(mask)
		fyne.Do(func() {
			c.view.SetMaskImage(imaging.MaskImage(mask))
		})
	}()
}

// Extraction
func (c *Controller) RunExtraction() {
	img := c.imageRepo.GetImage()
	c.mu.RLock()
	algo, axes, dataset := c.algorithm, c.axes, c.dataset
	c.mu.RUnlock()

	if img == nil || img.Mask == nil {
		c.handleError("Extraction error", errors.New("no image loaded"))
		return
	}
	if axes == nil {
		c.handleError("Extraction error", errors.New("axes are not calibrated"))
		return
	}

	c.view.SetRunning(true)
	c.view.SetExportEnabled(false)
	c.updateStatus("Tracing...")

	done := make(chan struct{})
	go c.pollProgress(done)

	go func() {
		defer close(done)

		result, err := c.extraction.Extract(c.ctx, services.ExtractionRequest{
			Algorithm: algo,
			Mask:      img.Mask,
			Axes:      axes,
			Dataset:   dataset,
		})

		fyne.Do(func() {
			c.view.SetRunning(false)
			c.view.SetProgress(0)

			switch {
			case errors.Is(err, context.Canceled):
				c.updateStatus("Extraction cancelled")
				return
			case err != nil:
				c.view.ShowError("Extraction error", err)
				c.updateStatus("Extraction failed")
				return
			}

			c.mu.Lock()
			c.result = result
			c.mu.Unlock()

			c.view.SetPoints(result.Pixels, result.Data)
			c.view.SetExportEnabled(true)
			c.refreshParameters()
			c.updateStatus(fmt.Sprintf("%d points in %s", len(result.Pixels), result.ProcessTime.Round(time.Millisecond)))
		})
	}()
}

func (c *Controller) pollProgress(done <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			state := c.extraction.GetProcessingState()
			fyne.Do(func() {
				c.view.SetProgress(state.Progress)
			})
		}
	}
}

func (c *Controller) CancelExtraction() {
	c.extraction.CancelExtraction()
}

// Export writes the last result in the requested form.
func (c *Controller) Export(kind string) {
	c.mu.RLock()
	result, axes, dataset, algo := c.result, c.axes, c.dataset, c.algorithm
	c.mu.RUnlock()

	if result == nil {
		c.handleError("Export error", errors.New("nothing extracted yet"))
		return
	}

	var fileName string
	var write func(io.Writer, string) error

	switch kind {
	case widgets.ExportCSV:
		fileName = "trace.csv"
		write = func(w io.Writer, _ string) error {
			return c.exporter.WriteCSV(w, result.Pixels, result.Data)
		}
	case widgets.ExportProject:
		fileName = "trace.json"
		write = func(w io.Writer, _ string) error {
			project := pipeline.NewProject(c.imageRepo.GetImage(), axes)
			project.AddDataset(dataset, algo, axes)
			return pipeline.WriteProject(w, project)
		}
	case widgets.ExportPlot:
		fileName = "trace.png"
		write = func(w io.Writer, path string) error {
			format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			if format == "" {
				format = "png"
			}
			logX, logY := axes.LogScales()
			opts := pipeline.DefaultPlotOptions()
			opts.LogX, opts.LogY = logX, logY
			return c.exporter.WritePlot(w, format, dataset.Name(), result.Data, opts)
		}
	default:
		c.handleError("Export error", fmt.Errorf("unknown export kind %q", kind))
		return
	}

	c.view.ShowSaveDialog(fileName, func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			c.handleError("File save error", err)
			return
		}
		if writer == nil {
			return
		}

		c.updateStatus("Saving...")
		go func() {
			defer writer.Close()

			path := writer.URI().Path()
			saveErr := write(writer, path)

			fyne.Do(func() {
				if saveErr != nil {
					c.view.ShowError("Export error", saveErr)
					c.updateStatus("Export failed")
					return
				}
				c.updateStatus("Saved " + filepath.Base(path))
			})
			c.logger.Info("Controller", "export written", map[string]interface{}{
				"kind": kind,
				"path": path,
			})
		}()
	})
}

// Status updates
func (c *Controller) updateStatus(status string) {
	c.view.SetStatus(status)
}

func (c *Controller) updateRunEnabled() {
	c.mu.RLock()
	ready := c.axes != nil
	c.mu.RUnlock()
	c.view.SetRunEnabled(ready && c.imageRepo.GetImage() != nil && !c.extraction.IsProcessing())
}

func (c *Controller) refreshParameters() {
	c.mu.RLock()
	algo, axes := c.algorithm, c.axes
	c.mu.RUnlock()

	var cal models.AxisCalibration
	if axes != nil {
		cal = axes
	}
	c.view.UpdateParameterPanel(algo.ListParameters(cal))
}

func (c *Controller) handleError(title string, err error) {
	c.logger.Error("Controller", err, map[string]interface{}{
		"title": title,
	})

	fyne.Do(func() {
		c.view.ShowError(title, err)
	})
}

func (c *Controller) getMaskOptions() imaging.Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maskOptions
}

// Shutdown cancels a running extraction.
func (c *Controller) Shutdown() {
	c.CancelExtraction()
	c.logger.Info("Controller", "shutdown completed", nil)
}
