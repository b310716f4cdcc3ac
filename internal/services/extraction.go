package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"
)

// ErrExtractionActive is returned when a run is requested while another one
// has not finished.
var ErrExtractionActive = errors.New("extraction already in progress")

// ExtractionRequest describes one run of a configured algorithm.
type ExtractionRequest struct {
	Algorithm algorithms.Algorithm
	Mask      models.BinaryMask
	Axes      models.AxisCalibration
	// Dataset, when set, receives the pixel points once the run succeeds.
	Dataset *models.Dataset
}

// ExtractionResult is the outcome of a successful run.
type ExtractionResult struct {
	Algorithm   string
	Pixels      []models.Point
	Data        []models.Point
	Record      *algorithms.Record
	ProcessTime time.Duration
}

// ExtractionService runs extraction algorithms one at a time and reports
// their progress through the processing state repository.
type ExtractionService struct {
	algorithmManager *algorithms.Manager
	stateRepo        *models.ProcessingStateRepository
	logger           logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewExtractionService creates a new extraction service
func NewExtractionService(
	manager *algorithms.Manager,
	stateRepo *models.ProcessingStateRepository,
	log logger.Logger,
) *ExtractionService {
	if log == nil {
		log = logger.Nop()
	}
	return &ExtractionService{
		algorithmManager: manager,
		stateRepo:        stateRepo,
		logger:           log,
	}
}

// NewAlgorithm constructs the currently selected algorithm.
func (es *ExtractionService) NewAlgorithm() (algorithms.Algorithm, error) {
	return es.algorithmManager.New(es.algorithmManager.GetCurrentAlgorithm())
}

// Extract runs req.Algorithm to completion, cancellation or failure.
func (es *ExtractionService) Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error) {
	if req.Algorithm == nil {
		return nil, fmt.Errorf("no algorithm selected")
	}
	if req.Mask == nil {
		return nil, fmt.Errorf("no image mask loaded")
	}
	if req.Axes == nil {
		return nil, fmt.Errorf("axes are not calibrated")
	}

	name := req.Algorithm.GetName()
	if !es.stateRepo.TryStartProcessing(name) {
		return nil, ErrExtractionActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	es.mu.Lock()
	es.cancel = cancel
	es.mu.Unlock()
	defer func() {
		es.mu.Lock()
		es.cancel = nil
		es.mu.Unlock()
		cancel()
	}()

	startTime := time.Now()
	es.logger.Info("ExtractionService", "extraction started", map[string]interface{}{
		"algorithm":   name,
		"mask_width":  req.Mask.Width(),
		"mask_height": req.Mask.Height(),
	})

	es.stateRepo.UpdateProgress("Tracing", 0)
	pixels, err := req.Algorithm.Run(runCtx, algorithms.Input{
		Mask: req.Mask,
		Axes: req.Axes,
		Progress: func(done float64) {
			es.stateRepo.UpdateProgress("Tracing", done)
		},
	})
	if err != nil {
		stage := "Failed"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			stage = "Cancelled"
		}
		es.stateRepo.FailProcessing(stage, err)
		es.logger.Error("ExtractionService", err, map[string]interface{}{
			"algorithm": name,
			"stage":     stage,
		})
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	if req.Dataset != nil {
		req.Dataset.ReplacePixels(pixels)
	}

	result := &ExtractionResult{
		Algorithm:   req.Algorithm.GetTag(),
		Pixels:      pixels,
		ProcessTime: time.Since(startTime),
	}
	if mapper, ok := req.Axes.(models.PixelMapper); ok {
		result.Data = make([]models.Point, len(pixels))
		for i, p := range pixels {
			x, y := mapper.PixelToData(p.X, p.Y)
			result.Data[i] = models.Point{X: x, Y: y}
		}
	}
	if record, ok := req.Algorithm.Serialize(); ok {
		result.Record = record
	}

	es.stateRepo.CompleteProcessing(len(pixels))
	es.logger.Info("ExtractionService", "extraction complete", map[string]interface{}{
		"algorithm":   name,
		"points":      len(pixels),
		"duration_ms": result.ProcessTime.Milliseconds(),
	})

	return result, nil
}

// CancelExtraction stops the active run, if any.
func (es *ExtractionService) CancelExtraction() {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.cancel != nil {
		es.cancel()
	}
}

// GetProcessingState returns the current processing state
func (es *ExtractionService) GetProcessingState() models.ProcessingState {
	return es.stateRepo.GetState()
}

// IsProcessing returns true if an extraction is currently active
func (es *ExtractionService) IsProcessing() bool {
	return es.stateRepo.IsProcessing()
}

// GetAvailableAlgorithms returns list of available algorithms
func (es *ExtractionService) GetAvailableAlgorithms() []string {
	return es.algorithmManager.GetAvailableAlgorithms()
}
