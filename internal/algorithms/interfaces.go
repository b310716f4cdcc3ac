package algorithms

import (
	"context"
	"errors"
	"fmt"

	"curve-digitizer/internal/models"
)

var (
	// ErrInvalidParameter reports a parameter value the algorithm cannot run with.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMalformedState reports a persisted record that cannot be restored.
	ErrMalformedState = errors.New("malformed algorithm state")
	// ErrUnknownAlgorithm reports a tag or name no registered algorithm owns.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// Parameter is one entry of an algorithm's editable parameter listing.
type Parameter struct {
	Key   string
	Name  string
	Unit  string
	Value float64
}

// Input bundles what an extraction run reads. Progress, when set, receives the
// completed fraction in [0, 1].
type Input struct {
	Mask     models.BinaryMask
	Axes     models.AxisCalibration
	Progress func(done float64)
}

// Algorithm is the contract shared by all trace extraction variants.
type Algorithm interface {
	GetName() string
	GetTag() string

	// ListParameters returns the parameters in index order. Before the first
	// run a non-nil calibration may seed range parameters from its bounds.
	ListParameters(axes models.AxisCalibration) []Parameter
	// GetParameter returns false for indices the algorithm does not define.
	GetParameter(index int) (float64, bool)
	// SetParameter ignores undefined indices.
	SetParameter(index int, value float64) error

	// Serialize returns false until the algorithm has run.
	Serialize() (*Record, bool)
	Deserialize(record *Record) error

	// Run extracts pixel points from the mask. Each call returns a freshly
	// allocated slice.
	Run(ctx context.Context, in Input) ([]models.Point, error)
}

// ParameterError describes a rejected parameter value.
type ParameterError struct {
	Parameter string
	Value     float64
	Message   string
}

// NewParameterError creates a new parameter error
func NewParameterError(parameter string, value float64, message string) *ParameterError {
	return &ParameterError{
		Parameter: parameter,
		Value:     value,
		Message:   message,
	}
}

// Error returns the error message
func (pe *ParameterError) Error() string {
	return fmt.Sprintf("validation failed for parameter '%s' with value '%v': %s",
		pe.Parameter, pe.Value, pe.Message)
}

// Unwrap lets callers match ErrInvalidParameter with errors.Is.
func (pe *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}
