package widgets

import (
	"fmt"
	"strconv"
	"strings"

	"curve-digitizer/internal/algorithms"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ParameterPanel lists an algorithm's parameters as editable number fields.
// The rows come from the algorithm's own listing, so every variant gets a
// panel without custom layout code.
type ParameterPanel struct {
	container         *fyne.Container
	parametersContent *fyne.Container
	errorLabel        *widget.Label
	entries           []*widget.Entry
	updating          bool

	parameterChangeHandler func(index int, value float64) error
}

func NewParameterPanel() *ParameterPanel {
	panel := &ParameterPanel{}
	panel.setupPanel()
	return panel
}

func (pp *ParameterPanel) setupPanel() {
	pp.parametersContent = container.NewGridWithColumns(2)
	pp.errorLabel = widget.NewLabel("")
	pp.errorLabel.Wrapping = fyne.TextWrapWord
	pp.container = container.NewVBox(
		widget.NewLabel("Parameters:"),
		pp.parametersContent,
		pp.errorLabel,
	)
}

func (pp *ParameterPanel) GetContainer() *fyne.Container {
	return pp.container
}

// SetParameterChangeHandler registers the callback for edits. A returned
// error is shown under the fields and the value is not considered applied.
func (pp *ParameterPanel) SetParameterChangeHandler(handler func(index int, value float64) error) {
	pp.parameterChangeHandler = handler
}

// UpdateParameters rebuilds the rows for params without firing the handler.
func (pp *ParameterPanel) UpdateParameters(params []algorithms.Parameter) {
	pp.updating = true
	defer func() { pp.updating = false }()

	pp.parametersContent.RemoveAll()
	pp.entries = pp.entries[:0]
	pp.errorLabel.SetText("")

	for i, p := range params {
		label := p.Name
		if p.Unit != "" {
			label = fmt.Sprintf("%s (%s)", p.Name, p.Unit)
		}

		entry := widget.NewEntry()
		entry.SetText(strconv.FormatFloat(p.Value, 'g', -1, 64))
		index, name := i, p.Name
		entry.OnChanged = func(text string) {
			pp.onEdited(index, name, text)
		}

		pp.entries = append(pp.entries, entry)
		pp.parametersContent.Add(widget.NewLabel(label))
		pp.parametersContent.Add(entry)
	}

	pp.container.Refresh()
}

// ErrorText returns the message currently shown under the fields.
func (pp *ParameterPanel) ErrorText() string {
	return pp.errorLabel.Text
}

func (pp *ParameterPanel) onEdited(index int, name, text string) {
	if pp.updating || pp.parameterChangeHandler == nil {
		return
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		pp.errorLabel.SetText(fmt.Sprintf("%s: %q is not a number", name, text))
		return
	}

	if err := pp.parameterChangeHandler(index, value); err != nil {
		pp.errorLabel.SetText(err.Error())
		return
	}
	pp.errorLabel.SetText("")
}
