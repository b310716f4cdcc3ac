package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateCalibration is returned when calibration points do not span
// a usable coordinate system.
var ErrDegenerateCalibration = errors.New("degenerate axis calibration")

// Bounds holds the data-space extents captured by a calibration. X1/X2 are the
// sweep axis minimum and maximum, Y3/Y4 the secondary axis minimum and maximum.
type Bounds struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
	Y3 float64 `json:"y3"`
	Y4 float64 `json:"y4"`
}

// AxisCalibration maps data coordinates onto image pixels.
type AxisCalibration interface {
	DataToPixel(x, y float64) (float64, float64)
	Bounds() Bounds
}

// PixelMapper maps image pixels back to data coordinates.
type PixelMapper interface {
	PixelToData(px, py float64) (float64, float64)
}

// CalibrationPoint is a picked pixel location together with the known data
// value of the axis it was picked on.
type CalibrationPoint struct {
	Px    float64 `json:"px" toml:"px"`
	Py    float64 `json:"py" toml:"py"`
	Value float64 `json:"value" toml:"value"`
}

// XYAxes is a four point cartesian calibration. X1 and X2 lie on the X axis,
// Y3 and Y4 on the Y axis. Axes need not be orthogonal or aligned with the
// image; either axis may be logarithmic.
type XYAxes struct {
	points [4]CalibrationPoint
	logX   bool
	logY   bool

	// data -> pixel: p = origin + basis * (d - d0)
	ox, oy         float64
	x0, y0         float64
	a, b, c, d     float64
	ia, ib, ic, id float64
}

// NewXYAxes builds a calibration from the two X axis points and the two Y axis
// points. Log scales require strictly positive calibration values.
func NewXYAxes(x1, x2, y3, y4 CalibrationPoint, logX, logY bool) (*XYAxes, error) {
	ax := &XYAxes{points: [4]CalibrationPoint{x1, x2, y3, y4}, logX: logX, logY: logY}

	xv1, xv2 := ax.scaleX(x1.Value), ax.scaleX(x2.Value)
	yv3, yv4 := ax.scaleY(y3.Value), ax.scaleY(y4.Value)
	for _, v := range []float64{xv1, xv2, yv3, yv4} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: calibration value not representable on axis scale", ErrDegenerateCalibration)
		}
	}
	if xv1 == xv2 || yv3 == yv4 {
		return nil, fmt.Errorf("%w: axis points share the same value", ErrDegenerateCalibration)
	}

	xdx, xdy := x2.Px-x1.Px, x2.Py-x1.Py
	ydx, ydy := y4.Px-y3.Px, y4.Py-y3.Py
	if (xdx == 0 && xdy == 0) || (ydx == 0 && ydy == 0) {
		return nil, fmt.Errorf("%w: axis points share the same pixel", ErrDegenerateCalibration)
	}

	// Intersect the two axis lines: x1 + s*(x2-x1) = y3 + u*(y4-y3).
	lines := mat.NewDense(2, 2, []float64{
		xdx, -ydx,
		xdy, -ydy,
	})
	rhs := mat.NewVecDense(2, []float64{y3.Px - x1.Px, y3.Py - x1.Py})
	var su mat.VecDense
	if err := su.SolveVec(lines, rhs); err != nil {
		return nil, fmt.Errorf("%w: axes are parallel: %v", ErrDegenerateCalibration, err)
	}
	s, u := su.AtVec(0), su.AtVec(1)

	ax.ox = x1.Px + s*xdx
	ax.oy = x1.Py + s*xdy
	ax.x0 = xv1 + s*(xv2-xv1)
	ax.y0 = yv3 + u*(yv4-yv3)

	basis := mat.NewDense(2, 2, []float64{
		xdx / (xv2 - xv1), ydx / (yv4 - yv3),
		xdy / (xv2 - xv1), ydy / (yv4 - yv3),
	})
	var inverse mat.Dense
	if err := inverse.Inverse(basis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateCalibration, err)
	}

	ax.a, ax.b, ax.c, ax.d = basis.At(0, 0), basis.At(0, 1), basis.At(1, 0), basis.At(1, 1)
	ax.ia, ax.ib, ax.ic, ax.id = inverse.At(0, 0), inverse.At(0, 1), inverse.At(1, 0), inverse.At(1, 1)

	return ax, nil
}

// DataToPixel maps a data point to pixel coordinates. Values outside a log
// axis domain map to NaN.
func (ax *XYAxes) DataToPixel(x, y float64) (float64, float64) {
	dx := ax.scaleX(x) - ax.x0
	dy := ax.scaleY(y) - ax.y0
	return ax.ox + ax.a*dx + ax.b*dy, ax.oy + ax.c*dx + ax.d*dy
}

// PixelToData is the inverse of DataToPixel.
func (ax *XYAxes) PixelToData(px, py float64) (float64, float64) {
	dx := px - ax.ox
	dy := py - ax.oy
	x := ax.ia*dx + ax.ib*dy + ax.x0
	y := ax.ic*dx + ax.id*dy + ax.y0
	return ax.unscaleX(x), ax.unscaleY(y)
}

// Bounds returns the calibration values of the four points.
func (ax *XYAxes) Bounds() Bounds {
	return Bounds{
		X1: ax.points[0].Value,
		X2: ax.points[1].Value,
		Y3: ax.points[2].Value,
		Y4: ax.points[3].Value,
	}
}

// Points returns the calibration points in X1, X2, Y3, Y4 order.
func (ax *XYAxes) Points() [4]CalibrationPoint { return ax.points }

// LogScales reports which axes are logarithmic.
func (ax *XYAxes) LogScales() (logX, logY bool) { return ax.logX, ax.logY }

func (ax *XYAxes) scaleX(v float64) float64 {
	if ax.logX {
		return math.Log10(v)
	}
	return v
}

func (ax *XYAxes) scaleY(v float64) float64 {
	if ax.logY {
		return math.Log10(v)
	}
	return v
}

func (ax *XYAxes) unscaleX(v float64) float64 {
	if ax.logX {
		return math.Pow(10, v)
	}
	return v
}

func (ax *XYAxes) unscaleY(v float64) float64 {
	if ax.logY {
		return math.Pow(10, v)
	}
	return v
}
