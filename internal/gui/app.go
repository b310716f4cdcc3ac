// Package gui is the desktop front end: a chart and mask view, the axis
// calibration form, the parameter panel generated from the selected
// algorithm, and a table of extracted points.
package gui

import (
	"context"
	"fmt"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/imaging"
	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"
	"curve-digitizer/internal/pipeline"
	"curve-digitizer/internal/services"

	"fyne.io/fyne/v2"
)

const (
	AppName = "Curve Digitizer"
	AppID   = "io.github.curve-digitizer"
)

// Application wires the window, view and controller together.
type Application struct {
	window     fyne.Window
	view       *View
	controller *Controller
	logger     logger.Logger
}

// NewApplication builds the main window inside fyneApp.
func NewApplication(ctx context.Context, fyneApp fyne.App, manager *algorithms.Manager, log logger.Logger) (*Application, error) {
	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(1280, 820))
	window.CenterOnScreen()

	stateRepo := models.NewProcessingStateRepository()
	extraction := services.NewExtractionService(manager, stateRepo, log)

	controller, err := NewController(
		ctx,
		imaging.NewLoader(log),
		extraction,
		manager,
		pipeline.NewExporter(log),
		models.NewImageRepository(),
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	view := NewView(window, manager.GetAvailableAlgorithms())
	view.SetController(controller)
	controller.SetView(view)

	application := &Application{
		window:     window,
		view:       view,
		controller: controller,
		logger:     log,
	}
	application.setupWindowEvents()

	log.Info("Application", "initialized", map[string]interface{}{
		"algorithms": manager.GetAvailableAlgorithms(),
	})
	return application, nil
}

func (a *Application) setupWindowEvents() {
	a.window.SetCloseIntercept(func() {
		if !a.controller.extraction.IsProcessing() {
			a.window.Close()
			return
		}
		a.view.ShowConfirm("Exit", "An extraction is running. Stop it and exit?", func(confirmed bool) {
			if confirmed {
				a.controller.Shutdown()
				a.window.Close()
			}
		})
	})
}

// Show displays the main window.
func (a *Application) Show() {
	a.view.Show()
}

// Shutdown stops background work.
func (a *Application) Shutdown() {
	a.controller.Shutdown()
}
