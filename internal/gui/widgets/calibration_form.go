package widgets

import (
	"fmt"
	"strconv"
	"strings"

	"curve-digitizer/internal/config"
	"curve-digitizer/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var calibrationRows = [4]string{"X1", "X2", "Y3", "Y4"}

// CalibrationForm edits the four axis points as pixel position plus value.
type CalibrationForm struct {
	container   *fyne.Container
	fields      [4][3]*widget.Entry
	logX, logY  *widget.Check
	applyButton *widget.Button

	applyHandler func(config.CalibrationConfig, error)
}

func NewCalibrationForm() *CalibrationForm {
	form := &CalibrationForm{}

	grid := container.NewGridWithColumns(4,
		widget.NewLabel(""), widget.NewLabel("Pixel X"), widget.NewLabel("Pixel Y"), widget.NewLabel("Value"),
	)
	for row, name := range calibrationRows {
		grid.Add(widget.NewLabel(name))
		for col := range form.fields[row] {
			entry := widget.NewEntry()
			entry.SetPlaceHolder("0")
			form.fields[row][col] = entry
			grid.Add(entry)
		}
	}

	form.logX = widget.NewCheck("Log X", nil)
	form.logY = widget.NewCheck("Log Y", nil)
	form.applyButton = widget.NewButton("Apply Calibration", form.onApply)

	form.container = container.NewVBox(
		widget.NewLabel("Axes:"),
		grid,
		container.NewHBox(form.logX, form.logY, form.applyButton),
	)
	return form
}

func (cf *CalibrationForm) GetContainer() *fyne.Container {
	return cf.container
}

// SetApplyHandler receives the parsed form, or the parse error.
func (cf *CalibrationForm) SetApplyHandler(handler func(config.CalibrationConfig, error)) {
	cf.applyHandler = handler
}

// SetCalibration fills the form.
func (cf *CalibrationForm) SetCalibration(c config.CalibrationConfig) {
	for row, p := range []models.CalibrationPoint{c.X1, c.X2, c.Y3, c.Y4} {
		cf.fields[row][0].SetText(formatNumber(p.Px))
		cf.fields[row][1].SetText(formatNumber(p.Py))
		cf.fields[row][2].SetText(formatNumber(p.Value))
	}
	cf.logX.SetChecked(c.LogX)
	cf.logY.SetChecked(c.LogY)
}

// Calibration parses the form. Empty fields read as zero.
func (cf *CalibrationForm) Calibration() (config.CalibrationConfig, error) {
	var pts [4]models.CalibrationPoint
	for row := range cf.fields {
		var vals [3]float64
		for col, entry := range cf.fields[row] {
			text := strings.TrimSpace(entry.Text)
			if text == "" {
				continue
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return config.CalibrationConfig{}, fmt.Errorf("%s: %q is not a number", calibrationRows[row], text)
			}
			vals[col] = v
		}
		pts[row] = models.CalibrationPoint{Px: vals[0], Py: vals[1], Value: vals[2]}
	}

	return config.CalibrationConfig{
		X1: pts[0], X2: pts[1], Y3: pts[2], Y4: pts[3],
		LogX: cf.logX.Checked,
		LogY: cf.logY.Checked,
	}, nil
}

func (cf *CalibrationForm) onApply() {
	if cf.applyHandler == nil {
		return
	}
	cf.applyHandler(cf.Calibration())
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
