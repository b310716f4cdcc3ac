package gui

import (
	"image"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/config"
	"curve-digitizer/internal/gui/widgets"
	"curve-digitizer/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// View handles all UI components and their layout
type View struct {
	window     fyne.Window
	controller *Controller

	toolbar         *widgets.Toolbar
	imageDisplay    *widgets.ImageDisplay
	parameterPanel  *widgets.ParameterPanel
	calibrationForm *widgets.CalibrationForm
	pointsTable     *widgets.PointsTable
	mainContainer   *fyne.Container
}

func NewView(window fyne.Window, algorithmNames []string) *View {
	view := &View{
		window:          window,
		toolbar:         widgets.NewToolbar(algorithmNames),
		imageDisplay:    widgets.NewImageDisplay(),
		parameterPanel:  widgets.NewParameterPanel(),
		calibrationForm: widgets.NewCalibrationForm(),
		pointsTable:     widgets.NewPointsTable(),
	}
	view.setupLayout()
	return view
}

func (v *View) SetController(controller *Controller) {
	v.controller = controller
	v.setupEventHandlers()
}

func (v *View) setupLayout() {
	side := container.NewAppTabs(
		container.NewTabItem("Setup", container.NewVScroll(container.NewVBox(
			v.calibrationForm.GetContainer(),
			v.parameterPanel.GetContainer(),
		))),
		container.NewTabItem("Points", v.pointsTable.GetContainer()),
	)

	split := container.NewHSplit(v.imageDisplay.GetContainer(), side)
	split.SetOffset(0.65)

	v.mainContainer = container.NewBorder(v.toolbar.GetContainer(), nil, nil, nil, split)
}

func (v *View) setupEventHandlers() {
	if v.controller == nil {
		return
	}

	v.toolbar.SetLoadHandler(v.controller.LoadImage)
	v.toolbar.SetJobHandler(v.controller.LoadJob)
	v.toolbar.SetOpenHandler(v.controller.OpenProject)
	v.toolbar.SetRunHandler(v.controller.RunExtraction)
	v.toolbar.SetCancelHandler(v.controller.CancelExtraction)
	v.toolbar.SetExportHandler(v.controller.Export)
	v.toolbar.SetAlgorithmChangeHandler(v.controller.ChangeAlgorithm)
	v.toolbar.SetMaskModeChangeHandler(v.controller.ChangeMaskMode)

	v.calibrationForm.SetApplyHandler(v.controller.ApplyCalibration)
	v.parameterPanel.SetParameterChangeHandler(v.controller.UpdateParameter)
}

func (v *View) GetMainContainer() *fyne.Container {
	return v.mainContainer
}

func (v *View) SetChartImage(img image.Image) { v.imageDisplay.SetChartImage(img) }
func (v *View) SetMaskImage(img image.Image) { v.imageDisplay.SetMaskImage(img) }

func (v *View) UpdateParameterPanel(params []algorithms.Parameter) {
	v.parameterPanel.UpdateParameters(params)
}

func (v *View) SetCalibrationForm(c config.CalibrationConfig) {
	v.calibrationForm.SetCalibration(c)
}

func (v *View) SetPoints(pixels, data []models.Point) {
	v.pointsTable.SetPoints(pixels, data)
}

func (v *View) SetStatus(status string) { v.toolbar.SetStatus(status) }

func (v *View) SetProgress(progress float64) { v.toolbar.SetProgress(progress) }

func (v *View) SetRunning(running bool) { v.toolbar.SetRunning(running) }

func (v *View) SetRunEnabled(enabled bool) { v.toolbar.SetRunEnabled(enabled) }

func (v *View) SetExportEnabled(enabled bool) { v.toolbar.SetExportEnabled(enabled) }

func (v *View) ShowError(title string, err error) {
	dialog.ShowError(err, v.window)
}

func (v *View) ShowFileDialog(extensions []string, callback func(fyne.URIReadCloser, error)) {
	d := dialog.NewFileOpen(callback, v.window)
	if len(extensions) > 0 {
		d.SetFilter(storage.NewExtensionFileFilter(extensions))
	}
	d.Show()
}

func (v *View) ShowSaveDialog(fileName string, callback func(fyne.URIWriteCloser, error)) {
	d := dialog.NewFileSave(callback, v.window)
	d.SetFileName(fileName)
	d.Show()
}

func (v *View) ShowConfirm(title, message string, callback func(bool)) {
	dialog.ShowConfirm(title, message, callback, v.window)
}

func (v *View) GetWindow() fyne.Window {
	return v.window
}

func (v *View) Show() {
	v.window.SetContent(v.mainContainer)
	v.window.Show()
}
