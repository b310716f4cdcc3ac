package pipeline

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	e := NewExporter(logger.Nop())
	pixels := []models.Point{{X: 1, Y: 2.5}, {X: 3, Y: 4}}
	data := []models.Point{{X: 0.1, Y: -2}, {X: 1e-7, Y: 100}}

	t.Run("with data columns", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, e.WriteCSV(&buf, pixels, data))
		assert.Equal(t, "pixel_x,pixel_y,x,y\n1,2.5,0.1,-2\n3,4,1e-07,100\n", buf.String())
	})

	t.Run("pixels only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, e.WriteCSV(&buf, pixels, nil))
		assert.Equal(t, "pixel_x,pixel_y\n1,2.5\n3,4\n", buf.String())
	})

	t.Run("length mismatch", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, e.WriteCSV(&buf, pixels, data[:1]))
	})
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	require.NoError(t, NewExporter(nil).SaveCSV(path, []models.Point{{X: 1, Y: 2}}, nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pixel_x,pixel_y\n1,2\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestSaveCSVMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "trace.csv")
	assert.Error(t, NewExporter(nil).SaveCSV(path, nil, nil))
}

func TestSaveMask(t *testing.T) {
	dir := t.TempDir()
	mask := image.NewGray(image.Rect(0, 0, 4, 3))

	path := filepath.Join(dir, "mask.bmp")
	require.NoError(t, NewExporter(nil).SaveMask(path, mask))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := png.Decode(f)
	require.NoError(t, err, "unsupported extensions fall back to PNG")
	assert.Equal(t, mask.Bounds(), decoded.Bounds())

	assert.Error(t, NewExporter(nil).SaveMask(filepath.Join(dir, "none.png"), nil))
}

func TestSavePlot(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(nil)
	data := []models.Point{{X: 1, Y: 10}, {X: 2, Y: 100}, {X: 3, Y: 1000}}

	for _, name := range []string{"preview.png", "preview.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, e.SavePlot(path, "trace", data, DefaultPlotOptions()))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	logOpts := PlotOptions{LogY: true}
	require.NoError(t, e.SavePlot(filepath.Join(dir, "log.png"), "trace", data, logOpts))
}

func TestNewPlotSkipsValuesOutsideLogDomain(t *testing.T) {
	p, err := NewPlot("trace", []models.Point{{X: 0, Y: 1}}, PlotOptions{LogX: true})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestWritePlot(t *testing.T) {
	var buf bytes.Buffer
	data := []models.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	require.NoError(t, NewExporter(nil).WritePlot(&buf, "svg", "trace", data, PlotOptions{}))
	assert.Contains(t, buf.String(), "<svg")

	assert.Error(t, NewExporter(nil).WritePlot(&buf, "doc", "trace", data, PlotOptions{}))
}
