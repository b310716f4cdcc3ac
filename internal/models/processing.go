package models

import (
	"sync"
	"time"
)

// ProcessingState represents the current state of a trace extraction
type ProcessingState struct {
	IsActive          bool
	Algorithm         string
	CurrentStage      string
	Progress          float64
	StartTime         time.Time
	EstimatedDuration time.Duration
	PointsFound       int
	LastError         error
}

// ProcessingStateRepository manages processing state
type ProcessingStateRepository struct {
	mu    sync.RWMutex
	state ProcessingState
}

// NewProcessingStateRepository creates a new processing state repository
func NewProcessingStateRepository() *ProcessingStateRepository {
	return &ProcessingStateRepository{
		state: ProcessingState{CurrentStage: "Idle"},
	}
}

// GetState returns the current processing state
func (psr *ProcessingStateRepository) GetState() ProcessingState {
	psr.mu.RLock()
	defer psr.mu.RUnlock()
	return psr.state
}

// TryStartProcessing marks processing as active unless another run already is.
func (psr *ProcessingStateRepository) TryStartProcessing(algorithm string) bool {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if psr.state.IsActive {
		return false
	}

	psr.state = ProcessingState{
		IsActive:     true,
		Algorithm:    algorithm,
		CurrentStage: "Initializing",
		StartTime:    time.Now(),
	}
	return true
}

// UpdateProgress updates processing progress and stage
func (psr *ProcessingStateRepository) UpdateProgress(stage string, progress float64) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if !psr.state.IsActive {
		return
	}

	psr.state.CurrentStage = stage
	psr.state.Progress = progress

	// Estimate total time based on progress
	if progress > 0 {
		elapsed := time.Since(psr.state.StartTime)
		psr.state.EstimatedDuration = time.Duration(float64(elapsed) / progress)
	}
}

// CompleteProcessing marks processing as complete
func (psr *ProcessingStateRepository) CompleteProcessing(points int) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	psr.state.IsActive = false
	psr.state.CurrentStage = "Complete"
	psr.state.Progress = 1.0
	psr.state.PointsFound = points
	psr.state.LastError = nil
}

// FailProcessing marks processing as stopped by err. Cancellation ends up here
// as well, with the context error.
func (psr *ProcessingStateRepository) FailProcessing(stage string, err error) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	psr.state.IsActive = false
	psr.state.CurrentStage = stage
	psr.state.LastError = err
}

// IsProcessing returns true if processing is currently active
func (psr *ProcessingStateRepository) IsProcessing() bool {
	psr.mu.RLock()
	defer psr.mu.RUnlock()
	return psr.state.IsActive
}
