package config

import (
	"os"
	"path/filepath"
	"testing"

	"curve-digitizer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJob = `
[image]
path = "chart.png"
mode = "color"
color = [200, 30, 30]
tolerance = 25
open_kernel = 3

[calibration]
x1 = { px = 50, py = 400, value = 0 }
x2 = { px = 450, py = 400, value = 100 }
y3 = { px = 50, py = 400, value = 0 }
y4 = { px = 50, py = 0, value = 10 }

[extraction]
dataset = "Red trace"

[extraction.parameters]
delx = 0.5
lineWidth = 12

[output]
csv = "out.csv"
log_level = "debug"
`

func TestParseValidJob(t *testing.T) {
	cfg, err := Parse(validJob)
	require.NoError(t, err)

	assert.Equal(t, ModeColor, cfg.Image.Mode)
	assert.Equal(t, []int{200, 30, 30}, cfg.Image.Color)
	assert.Equal(t, ForegroundDark, cfg.Image.Foreground)
	assert.Equal(t, 3, cfg.Image.OpenKernel)
	assert.Equal(t, models.CalibrationPoint{Px: 450, Py: 400, Value: 100}, cfg.Calibration.X2)
	assert.Equal(t, "Red trace", cfg.Extraction.Dataset)
	assert.Equal(t, map[string]float64{"delx": 0.5, "lineWidth": 12}, cfg.Extraction.Parameters)
	assert.Equal(t, "debug", cfg.Output.LogLevel)

	axes, err := cfg.Calibration.Axes()
	require.NoError(t, err)
	assert.Equal(t, models.Bounds{X1: 0, X2: 100, Y3: 0, Y4: 10}, axes.Bounds())
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse(`
[calibration]
x1 = { px = 0, py = 10, value = 0 }
x2 = { px = 10, py = 10, value = 1 }
y3 = { px = 0, py = 10, value = 0 }
y4 = { px = 0, py = 0, value = 1 }
`)
	require.NoError(t, err)

	assert.Equal(t, ModeOtsu, cfg.Image.Mode)
	assert.Equal(t, 128.0, cfg.Image.Threshold)
	assert.Equal(t, "Trace 1", cfg.Extraction.Dataset)
	assert.NotNil(t, cfg.Extraction.Parameters)
	assert.Equal(t, "info", cfg.Output.LogLevel)
}

func TestParseRejects(t *testing.T) {
	calibration := `
[calibration]
x1 = { px = 0, py = 10, value = 0 }
x2 = { px = 10, py = 10, value = 1 }
y3 = { px = 0, py = 10, value = 0 }
y4 = { px = 0, py = 0, value = 1 }
`
	cases := map[string]string{
		"missing calibration": `[image]
mode = "otsu"`,
		"unknown key":     calibration + "\n[output]\ncolour = 1\n",
		"bad mode":        "[image]\nmode = \"magic\"\n" + calibration,
		"bad threshold":   "[image]\nmode = \"fixed\"\nthreshold = 300\n" + calibration,
		"short color":     "[image]\nmode = \"color\"\ncolor = [1, 2]\n" + calibration,
		"bad foreground":  "[image]\nforeground = \"grey\"\n" + calibration,
		"bad log level":   calibration + "\n[output]\nlog_level = \"loud\"\n",
		"not toml at all": "this is = = not toml",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestLoadResolvesImagePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.toml")
	require.NoError(t, os.WriteFile(path, []byte(validJob), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chart.png"), cfg.Image.Path)
}

func TestLoadRejectsWrongExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.json")
	require.NoError(t, os.WriteFile(path, []byte(validJob), 0644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
