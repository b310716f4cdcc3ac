package stepwindow

import (
	"math"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/models"
)

// ParamID identifies a parameter. Its integer value is the parameter's index
// in listings and in GetParameter/SetParameter.
type ParamID int

const (
	ParamXMin ParamID = iota
	ParamXStep
	ParamXMax
	ParamYMin
	ParamYMax
	ParamStrokeWidth

	paramCount
)

type descriptor struct {
	key      string
	name     string
	unit     string
	initial  float64
	validate func(v float64) string
}

var descriptors = [paramCount]descriptor{
	ParamXMin:        {key: "xmin", name: "X_min", unit: "Units", initial: 0},
	ParamXStep:       {key: "delx", name: "ΔX Step", unit: "Units", initial: DefaultXStep, validate: positive},
	ParamXMax:        {key: "xmax", name: "X_max", unit: "Units", initial: 0},
	ParamYMin:        {key: "ymin", name: "Y_min", unit: "Units", initial: 0},
	ParamYMax:        {key: "ymax", name: "Y_max", unit: "Units", initial: 0},
	ParamStrokeWidth: {key: "lineWidth", name: "Line width", unit: "Px", initial: DefaultStrokeWidth},
}

func finite(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "value must be finite"
	}
	return ""
}

func positive(v float64) string {
	if msg := finite(v); msg != "" {
		return msg
	}
	if v <= 0 {
		return "step must be greater than zero"
	}
	return ""
}

// Key returns the persisted key of the parameter.
func (id ParamID) Key() string {
	if !id.valid() {
		return ""
	}
	return descriptors[id].key
}

// String returns the display name of the parameter.
func (id ParamID) String() string {
	if !id.valid() {
		return "unknown"
	}
	return descriptors[id].name
}

func (id ParamID) valid() bool {
	return id >= 0 && id < paramCount
}

// checkValue applies the descriptor's validator. Only the step has one; the
// other values are stored as given.
func checkValue(id ParamID, v float64) error {
	validate := descriptors[id].validate
	if validate == nil {
		return nil
	}
	if msg := validate(v); msg != "" {
		return algorithms.NewParameterError(descriptors[id].name, v, msg)
	}
	return nil
}

// ListParameters returns the six parameters in index order. Until the first
// run a non-nil calibration seeds the sweep and secondary bounds.
func (p *Processor) ListParameters(axes models.AxisCalibration) []algorithms.Parameter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasRun && axes != nil {
		b := axes.Bounds()
		p.values[ParamXMin] = b.X1
		p.values[ParamXMax] = b.X2
		p.values[ParamYMin] = b.Y3
		p.values[ParamYMax] = b.Y4
	}

	params := make([]algorithms.Parameter, paramCount)
	for i, d := range descriptors {
		params[i] = algorithms.Parameter{
			Key:   d.key,
			Name:  d.name,
			Unit:  d.unit,
			Value: p.values[i],
		}
	}
	return params
}

// GetParameter returns the value at index, or false outside 0-5.
func (p *Processor) GetParameter(index int) (float64, bool) {
	id := ParamID(index)
	if !id.valid() {
		return 0, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[id], true
}

// SetParameter stores value at index. Indices outside 0-5 are ignored.
func (p *Processor) SetParameter(index int, value float64) error {
	id := ParamID(index)
	if !id.valid() {
		return nil
	}
	return p.Set(id, value)
}

// Get returns the value of id.
func (p *Processor) Get(id ParamID) float64 {
	v, _ := p.GetParameter(int(id))
	return v
}

// Set stores the value of id. A step that is not a positive finite number is
// rejected.
func (p *Processor) Set(id ParamID, value float64) error {
	if !id.valid() {
		return algorithms.NewParameterError("unknown", value, "no such parameter")
	}
	if err := checkValue(id, value); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[id] = value
	return nil
}
