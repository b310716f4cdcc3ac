package stepwindow

import (
	"fmt"
	"math"

	"curve-digitizer/internal/algorithms"
)

// Serialize snapshots the parameters once the algorithm has run.
func (p *Processor) Serialize() (*algorithms.Record, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasRun {
		return nil, false
	}

	record := algorithms.NewRecord(Tag)
	for i, d := range descriptors {
		record.Values[d.key] = p.values[i]
	}
	return record, true
}

// Deserialize loads all six values from record. The state is left unchanged
// when any value is missing or unusable. It does not mark the algorithm as run.
func (p *Processor) Deserialize(record *algorithms.Record) error {
	if record == nil {
		return fmt.Errorf("%w: nil record", algorithms.ErrMalformedState)
	}
	if record.Tag != Tag {
		return fmt.Errorf("%w: record tagged %q, want %q", algorithms.ErrMalformedState, record.Tag, Tag)
	}

	var loaded [paramCount]float64
	for i, d := range descriptors {
		v, ok := record.Float(d.key)
		if !ok {
			return fmt.Errorf("%w: missing %q", algorithms.ErrMalformedState, d.key)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %q is not finite", algorithms.ErrMalformedState, d.key)
		}
		if err := checkValue(ParamID(i), v); err != nil {
			return err
		}
		loaded[i] = v
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = loaded
	return nil
}
