// Package stepwindow implements the averaging window extractor with a fixed
// step along the sweep axis. For every sweep position it scans the secondary
// axis, tracks the first run of foreground pixels no thicker than the expected
// stroke width and emits the run's midpoint.
package stepwindow

import (
	"context"
	"fmt"
	"sync"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/models"
)

const (
	Name = "Averaging Window with Step Size"
	Tag  = "AveragingWindowWithStepSizeAlgo"

	DefaultXStep       = 0.1
	DefaultStrokeWidth = 30

	// MaxSweepPositions bounds the number of sweep positions a single run may
	// visit.
	MaxSweepPositions = 1 << 20
)

// Processor holds the parameters and run state of one extractor instance.
type Processor struct {
	mu     sync.Mutex
	values [paramCount]float64
	hasRun bool
}

var _ algorithms.Algorithm = (*Processor)(nil)

func NewProcessor() *Processor {
	p := &Processor{}
	for i, d := range descriptors {
		p.values[i] = d.initial
	}
	return p
}

// Factory is the algorithms.Factory for this variant.
func Factory() algorithms.Algorithm {
	return NewProcessor()
}

func (p *Processor) GetName() string { return Name }
func (p *Processor) GetTag() string  { return Tag }

// HasRun reports whether Run has been invoked on this instance.
func (p *Processor) HasRun() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasRun
}

// Run sweeps from X_min to X_max and returns at most one pixel point per
// sweep position. The run flag is set even when the run fails.
func (p *Processor) Run(ctx context.Context, in algorithms.Input) ([]models.Point, error) {
	p.mu.Lock()
	p.hasRun = true
	cfg := newSweepConfig(p.values)
	p.mu.Unlock()

	if in.Mask == nil || in.Axes == nil {
		return nil, fmt.Errorf("%s: mask and axis calibration are required", Name)
	}

	positions, err := cfg.positions()
	if err != nil {
		return nil, err
	}

	points := make([]models.Point, 0, min(positions, 4096))
	for k := 0; k < positions; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if pt, ok := traceSweep(in.Mask, in.Axes, cfg.sweepAt(k), cfg); ok {
			points = append(points, pt)
		}

		if in.Progress != nil {
			in.Progress(float64(k+1) / float64(positions))
		}
	}

	if positions == 0 && in.Progress != nil {
		in.Progress(1)
	}

	return points, nil
}
