package widgets

import (
	"errors"
	"testing"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/config"
	"curve-digitizer/internal/models"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleParameters() []algorithms.Parameter {
	return []algorithms.Parameter{
		{Key: "xmin", Name: "X_min", Unit: "Units", Value: 0},
		{Key: "delx", Name: "ΔX Step", Unit: "Units", Value: 0.1},
	}
}

func TestParameterPanelEdits(t *testing.T) {
	test.NewTempApp(t)

	pp := NewParameterPanel()
	type change struct {
		index int
		value float64
	}
	var changes []change
	pp.SetParameterChangeHandler(func(index int, value float64) error {
		changes = append(changes, change{index, value})
		if value <= 0 && index == 1 {
			return errors.New("step must be greater than zero")
		}
		return nil
	})

	pp.UpdateParameters(sampleParameters())
	require.Len(t, pp.entries, 2)
	assert.Empty(t, changes, "rebuilding the panel must not report edits")
	assert.Equal(t, "0.1", pp.entries[1].Text)

	pp.entries[0].SetText("12.5")
	assert.Equal(t, []change{{0, 12.5}}, changes)
	assert.Empty(t, pp.ErrorText())

	pp.entries[1].SetText("0")
	assert.Equal(t, "step must be greater than zero", pp.ErrorText())

	pp.entries[1].SetText("abc")
	assert.Contains(t, pp.ErrorText(), "not a number")
	assert.Len(t, changes, 2)
}

func TestCalibrationFormRoundTrip(t *testing.T) {
	test.NewTempApp(t)

	form := NewCalibrationForm()
	want := config.CalibrationConfig{
		X1:   models.CalibrationPoint{Px: 10, Py: 200, Value: 0},
		X2:   models.CalibrationPoint{Px: 310, Py: 200, Value: 30},
		Y3:   models.CalibrationPoint{Px: 10, Py: 200, Value: 1},
		Y4:   models.CalibrationPoint{Px: 10, Py: 20, Value: 1000},
		LogY: true,
	}
	form.SetCalibration(want)

	got, err := form.Calibration()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var applied []error
	form.SetApplyHandler(func(_ config.CalibrationConfig, err error) { applied = append(applied, err) })
	form.fields[1][2].SetText("thirty")
	test.Tap(form.applyButton)
	require.Len(t, applied, 1)
	assert.Error(t, applied[0])
}

func TestPointsTableCells(t *testing.T) {
	test.NewTempApp(t)

	pt := NewPointsTable()
	pt.SetPoints([]models.Point{{X: 1, Y: 2.346}}, nil)

	assert.Equal(t, "Pixel Y", pt.cellText(0, 2))
	assert.Equal(t, "1", pt.cellText(1, 0))
	assert.Equal(t, "2.35", pt.cellText(1, 2))
	assert.Equal(t, "--", pt.cellText(1, 3))
	assert.Equal(t, "", pt.cellText(2, 1))

	pt.SetPoints([]models.Point{{X: 1, Y: 2}}, []models.Point{{X: 0.5, Y: 1e6}})
	assert.Equal(t, "0.5", pt.cellText(1, 3))
	assert.Equal(t, "1e+06", pt.cellText(1, 4))
}

func TestToolbarStates(t *testing.T) {
	test.NewTempApp(t)

	tb := NewToolbar([]string{"Averaging Window with Step Size"})
	assert.True(t, tb.runButton.Disabled())

	var exported []string
	tb.SetExportHandler(func(kind string) { exported = append(exported, kind) })
	tb.SetExportEnabled(true)
	test.Tap(tb.csvButton)
	test.Tap(tb.plotButton)
	assert.Equal(t, []string{ExportCSV, ExportPlot}, exported)

	tb.SetRunning(true)
	assert.True(t, tb.runButton.Disabled())
	assert.False(t, tb.cancelButton.Disabled())
	tb.SetRunning(false)
	assert.False(t, tb.runButton.Disabled())
}
