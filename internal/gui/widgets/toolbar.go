package widgets

import (
	"curve-digitizer/internal/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type Toolbar struct {
	container       *fyne.Container
	loadButton      *widget.Button
	jobButton       *widget.Button
	openButton      *widget.Button
	algorithmSelect *widget.Select
	maskModeSelect  *widget.Select
	runButton       *widget.Button
	cancelButton    *widget.Button
	csvButton       *widget.Button
	projectButton   *widget.Button
	plotButton      *widget.Button
	statusLabel     *widget.Label
	progressBar     *widget.ProgressBar

	loadHandler            func()
	jobHandler             func()
	openHandler            func()
	runHandler             func()
	cancelHandler          func()
	exportHandler          func(kind string)
	algorithmChangeHandler func(string)
	maskModeChangeHandler  func(string)
}

// Export kinds passed to the export handler.
const (
	ExportCSV     = "csv"
	ExportProject = "project"
	ExportPlot    = "plot"
)

func NewToolbar(algorithmNames []string) *Toolbar {
	t := &Toolbar{}
	t.createComponents(algorithmNames)
	t.buildLayout()
	return t
}

func (t *Toolbar) createComponents(algorithmNames []string) {
	t.loadButton = widget.NewButton("Load Image", func() { call(t.loadHandler) })
	t.loadButton.Importance = widget.HighImportance
	t.jobButton = widget.NewButton("Load Job", func() { call(t.jobHandler) })
	t.openButton = widget.NewButton("Open Project", func() { call(t.openHandler) })

	t.runButton = widget.NewButton("Run", func() { call(t.runHandler) })
	t.runButton.Importance = widget.HighImportance
	t.runButton.Disable()

	t.cancelButton = widget.NewButton("Cancel", func() { call(t.cancelHandler) })
	t.cancelButton.Disable()

	t.csvButton = widget.NewButton("CSV", func() { t.export(ExportCSV) })
	t.projectButton = widget.NewButton("Project", func() { t.export(ExportProject) })
	t.plotButton = widget.NewButton("Plot", func() { t.export(ExportPlot) })
	t.SetExportEnabled(false)

	t.algorithmSelect = widget.NewSelect(algorithmNames, func(name string) {
		if t.algorithmChangeHandler != nil {
			t.algorithmChangeHandler(name)
		}
	})
	if len(algorithmNames) > 0 {
		t.algorithmSelect.Selected = algorithmNames[0]
	}

	t.maskModeSelect = widget.NewSelect([]string{config.ModeOtsu, config.ModeFixed}, func(mode string) {
		if t.maskModeChangeHandler != nil {
			t.maskModeChangeHandler(mode)
		}
	})
	t.maskModeSelect.Selected = config.ModeOtsu

	t.statusLabel = widget.NewLabel("Ready")
	t.progressBar = widget.NewProgressBar()
}

func (t *Toolbar) buildLayout() {
	t.container = container.NewVBox(
		container.NewHBox(
			t.loadButton, t.jobButton, t.openButton,
			widget.NewSeparator(),
			widget.NewLabel("Mask"), t.maskModeSelect,
			widget.NewLabel("Algorithm"), t.algorithmSelect,
			widget.NewSeparator(),
			t.runButton, t.cancelButton,
			widget.NewSeparator(),
			widget.NewLabel("Export"), t.csvButton, t.projectButton, t.plotButton,
		),
		container.NewBorder(nil, nil, t.statusLabel, nil, t.progressBar),
	)
}

func call(handler func()) {
	if handler != nil {
		handler()
	}
}

func (t *Toolbar) export(kind string) {
	if t.exportHandler != nil {
		t.exportHandler(kind)
	}
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}

func (t *Toolbar) SetLoadHandler(handler func()) { t.loadHandler = handler }
func (t *Toolbar) SetJobHandler(handler func()) { t.jobHandler = handler }
func (t *Toolbar) SetOpenHandler(handler func()) { t.openHandler = handler }
func (t *Toolbar) SetRunHandler(handler func()) { t.runHandler = handler }
func (t *Toolbar) SetCancelHandler(handler func()) { t.cancelHandler = handler }
func (t *Toolbar) SetExportHandler(handler func(string)) {
	t.exportHandler = handler
}

func (t *Toolbar) SetAlgorithmChangeHandler(handler func(string)) {
	t.algorithmChangeHandler = handler
}

func (t *Toolbar) SetMaskModeChangeHandler(handler func(string)) {
	t.maskModeChangeHandler = handler
}

func (t *Toolbar) SetStatus(status string) {
	t.statusLabel.SetText(status)
}

func (t *Toolbar) SetProgress(progress float64) {
	t.progressBar.SetValue(progress)
}

// SetRunning switches between the idle and the running button states.
func (t *Toolbar) SetRunning(running bool) {
	if running {
		t.runButton.Disable()
		t.cancelButton.Enable()
		return
	}
	t.runButton.Enable()
	t.cancelButton.Disable()
}

func (t *Toolbar) SetRunEnabled(enabled bool) {
	if enabled {
		t.runButton.Enable()
	} else {
		t.runButton.Disable()
	}
}

func (t *Toolbar) SetExportEnabled(enabled bool) {
	for _, b := range []*widget.Button{t.csvButton, t.projectButton, t.plotButton} {
		if enabled {
			b.Enable()
		} else {
			b.Disable()
		}
	}
}
