package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessingStateLifecycle(t *testing.T) {
	repo := NewProcessingStateRepository()
	assert.False(t, repo.IsProcessing())
	assert.Equal(t, "Idle", repo.GetState().CurrentStage)

	assert.True(t, repo.TryStartProcessing("demo"))
	assert.False(t, repo.TryStartProcessing("demo"))
	assert.True(t, repo.IsProcessing())

	repo.UpdateProgress("Sweeping", 0.5)
	state := repo.GetState()
	assert.Equal(t, "Sweeping", state.CurrentStage)
	assert.Equal(t, 0.5, state.Progress)

	repo.CompleteProcessing(12)
	state = repo.GetState()
	assert.False(t, state.IsActive)
	assert.Equal(t, 12, state.PointsFound)
	assert.Equal(t, 1.0, state.Progress)

	// Progress after completion is ignored.
	repo.UpdateProgress("late", 0.1)
	assert.Equal(t, "Complete", repo.GetState().CurrentStage)
}

func TestProcessingStateFailure(t *testing.T) {
	repo := NewProcessingStateRepository()
	repo.TryStartProcessing("demo")

	repo.FailProcessing("Cancelled", context.Canceled)

	state := repo.GetState()
	assert.False(t, state.IsActive)
	assert.Equal(t, "Cancelled", state.CurrentStage)
	assert.ErrorIs(t, state.LastError, context.Canceled)
	assert.True(t, repo.TryStartProcessing("demo"))
}
