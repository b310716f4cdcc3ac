package pipeline

import (
	"fmt"
	"image/color"
	"io"

	"curve-digitizer/internal/models"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotOptions controls the preview rendering.
type PlotOptions struct {
	Title      string
	LogX, LogY bool
	Width      vg.Length
	Height     vg.Length
}

// DefaultPlotOptions returns a 8x5 inch linear preview.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

// NewPlot draws the data points of one trace as a line with point markers.
func NewPlot(name string, data []models.Point, opts PlotOptions) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(data))
	for _, d := range data {
		// Log axes cannot show non-positive values.
		if (opts.LogX && d.X <= 0) || (opts.LogY && d.Y <= 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: d.X, Y: d.Y})
	}

	if len(pts) == 0 {
		return p, nil
	}

	if opts.LogX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	if opts.LogY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace line: %w", err)
	}
	line.Color = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	line.Width = vg.Points(1)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace markers: %w", err)
	}
	scatter.Color = line.Color
	scatter.Radius = vg.Points(1.5)

	p.Add(line, scatter)
	p.Legend.Add(name, line)
	p.Legend.Top = true
	return p, nil
}

// SavePlot renders the preview to path. The image format follows the file
// extension (png, svg, pdf, ...).
func (e *Exporter) SavePlot(path, name string, data []models.Point, opts PlotOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultPlotOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}

	p, err := NewPlot(name, data, opts)
	if err != nil {
		return err
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		e.logger.Error("Exporter", err, map[string]interface{}{"path": path})
		return fmt.Errorf("save plot: %w", err)
	}

	e.logger.Info("Exporter", "plot written", map[string]interface{}{
		"path":   path,
		"points": len(data),
	})
	return nil
}

// WritePlot renders the preview to w in the given format (png, svg, pdf, ...).
func (e *Exporter) WritePlot(w io.Writer, format, name string, data []models.Point, opts PlotOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultPlotOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}

	p, err := NewPlot(name, data, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("plot format %q: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}
