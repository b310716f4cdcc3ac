package stepwindow

import (
	"fmt"
	"math"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/models"
)

// sweepTolerance absorbs floating point error in (xMax-xMin)/xStep so that a
// range that is a whole number of steps includes xMax.
const sweepTolerance = 1e-9

type sweepConfig struct {
	xMin, xStep, xMax float64
	yMin, yMax        float64
	strokeWidth       float64
}

func newSweepConfig(values [paramCount]float64) sweepConfig {
	return sweepConfig{
		xMin:        values[ParamXMin],
		xStep:       values[ParamXStep],
		xMax:        values[ParamXMax],
		yMin:        values[ParamYMin],
		yMax:        values[ParamYMax],
		strokeWidth: values[ParamStrokeWidth],
	}
}

func (c sweepConfig) values() [paramCount]float64 {
	var v [paramCount]float64
	v[ParamXMin], v[ParamXStep], v[ParamXMax] = c.xMin, c.xStep, c.xMax
	v[ParamYMin], v[ParamYMax], v[ParamStrokeWidth] = c.yMin, c.yMax, c.strokeWidth
	return v
}

// positions returns how many sweep positions the run visits. Positions are
// derived from their index rather than by repeated addition.
func (c sweepConfig) positions() (int, error) {
	if err := checkValue(ParamXStep, c.xStep); err != nil {
		return 0, err
	}
	for _, id := range []ParamID{ParamXMin, ParamXMax} {
		v := c.values()[id]
		if msg := finite(v); msg != "" {
			return 0, algorithms.NewParameterError(descriptors[id].name, v, msg)
		}
	}

	if c.xMax < c.xMin {
		return 0, nil
	}

	steps := math.Floor((c.xMax-c.xMin)/c.xStep + sweepTolerance)
	if steps+1 > MaxSweepPositions {
		return 0, algorithms.NewParameterError(descriptors[ParamXStep].name, c.xStep,
			fmt.Sprintf("range needs %.0f sweep positions, limit is %d", steps+1, MaxSweepPositions))
	}
	return int(steps) + 1, nil
}

func (c sweepConfig) sweepAt(k int) float64 {
	x := c.xMin + float64(k)*c.xStep
	if x > c.xMax {
		x = c.xMax
	}
	return x
}

// blob tracks one run of foreground samples along a sweep. exit is a
// candidate end: the first background sample after the run, which a later
// foreground sample can still move forward.
type blob struct {
	active     bool
	entry      int
	exit       int
	exitLocked bool
}

func (b *blob) foreground(i int) {
	if !b.active {
		b.active = true
		b.entry = i
		b.exit = i
		b.exitLocked = false
	}
	if b.exitLocked {
		b.exit = i
		b.exitLocked = false
	}
}

func (b *blob) background(i int) {
	if !b.exitLocked {
		b.exit = i
		b.exitLocked = true
	}
}

// mean closes the blob at sample i and returns its centre index.
func (b *blob) mean(i int) float64 {
	b.active = false
	// exit == entry means no background sample followed the entry, so the
	// run is cut at i rather than collapsed to its first sample.
	if b.exit <= b.entry {
		b.exit = i
	}
	return float64(b.entry+b.exit) / 2
}

// traceSweep scans the secondary axis at sweep value x, from yMax towards
// yMin one pixel at a time, and returns the midpoint of the first closed blob.
func traceSweep(mask models.BinaryMask, axes models.AxisCalibration, x float64, cfg sweepConfig) (models.Point, bool) {
	loX, loY := axes.DataToPixel(x, cfg.yMin)
	hiX, hiY := axes.DataToPixel(x, cfg.yMax)

	dpix := math.Hypot(hiX-loX, hiY-loY)
	if dpix == 0 || math.IsNaN(dpix) || math.IsInf(dpix, 0) {
		return models.Point{}, false
	}

	unitsPerPixel := (cfg.yMax - cfg.yMin) / dpix
	last := int(math.Floor(dpix))
	width, height := mask.Width(), mask.Height()
	fw, fh := float64(width), float64(height)

	var b blob

	for i := 0; i <= last; i++ {
		px, py := axes.DataToPixel(x, cfg.yMax-float64(i)*unitsPerPixel)
		if !(px >= 0 && px < fw && py >= 0 && py < fh) {
			continue
		}

		if mask.IsForeground(int(py)*width + int(px)) {
			b.foreground(i)
		} else {
			b.background(i)
		}

		if b.active && (float64(i) > float64(b.entry)+cfg.strokeWidth || i >= last-1) {
			return project(axes, x, cfg.yMax-b.mean(i)*unitsPerPixel), true
		}
	}

	// A blob still open here never reached a closing sample.
	return models.Point{}, false
}

func project(axes models.AxisCalibration, x, y float64) models.Point {
	px, py := axes.DataToPixel(x, y)
	return models.Point{X: px, Y: py}
}
