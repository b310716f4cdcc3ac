package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/algorithms/catalog"
	"curve-digitizer/internal/algorithms/stepwindow"
	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAxes maps data (x, y) to pixel (x, 9-y) on a 10x10 image.
func testAxes(t *testing.T) *models.XYAxes {
	t.Helper()
	axes, err := models.NewXYAxes(
		models.CalibrationPoint{Px: 0, Py: 9, Value: 0},
		models.CalibrationPoint{Px: 9, Py: 9, Value: 9},
		models.CalibrationPoint{Px: 0, Py: 9, Value: 0},
		models.CalibrationPoint{Px: 0, Py: 0, Value: 9},
		false, false,
	)
	require.NoError(t, err)
	return axes
}

// diagonalMask sets (col, row) = (c, c) for every column.
func diagonalMask() *models.Mask {
	m := models.NewMask(10, 10)
	for c := 0; c < 10; c++ {
		m.Set(c, c)
	}
	return m
}

func newService() *ExtractionService {
	return NewExtractionService(catalog.NewManager(), models.NewProcessingStateRepository(), logger.Nop())
}

func TestExtractStepWindow(t *testing.T) {
	svc := newService()
	axes := testAxes(t)

	algo, err := svc.NewAlgorithm()
	require.NoError(t, err)
	_, err = ApplyOverrides(algo, axes, map[string]float64{"delx": 1, "lineWidth": 3})
	require.NoError(t, err)

	dataset := models.NewDataset("trace")
	dataset.AddPixel(-1, -1)

	result, err := svc.Extract(context.Background(), ExtractionRequest{
		Algorithm: algo,
		Mask:      diagonalMask(),
		Axes:      axes,
		Dataset:   dataset,
	})
	require.NoError(t, err)

	// Each run is one pixel thick, so its midpoint sits half a pixel past the
	// row, except at the end of the sweep where the run closes on itself.
	wantY := []float64{0.5, 1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5, 8, 9}
	require.Len(t, result.Pixels, len(wantY))
	assert.Equal(t, result.Pixels, dataset.Pixels())
	for i, p := range result.Pixels {
		assert.InDelta(t, float64(i), p.X, 1e-9)
		assert.InDelta(t, wantY[i], p.Y, 1e-9)
	}
	require.Len(t, result.Data, len(wantY))
	assert.InDelta(t, 8.5, result.Data[0].Y, 1e-9)
	assert.Equal(t, stepwindow.Tag, result.Algorithm)
	require.NotNil(t, result.Record)
	lineWidth, ok := result.Record.Float("lineWidth")
	require.True(t, ok)
	assert.Equal(t, 3.0, lineWidth)

	state := svc.GetProcessingState()
	assert.False(t, state.IsActive)
	assert.Equal(t, "Complete", state.CurrentStage)
	assert.Equal(t, 10, state.PointsFound)
}

func TestExtractRejectsMissingInputs(t *testing.T) {
	svc := newService()
	algo, err := svc.NewAlgorithm()
	require.NoError(t, err)

	_, err = svc.Extract(context.Background(), ExtractionRequest{Mask: diagonalMask(), Axes: testAxes(t)})
	assert.Error(t, err)
	_, err = svc.Extract(context.Background(), ExtractionRequest{Algorithm: algo, Axes: testAxes(t)})
	assert.Error(t, err)
	_, err = svc.Extract(context.Background(), ExtractionRequest{Algorithm: algo, Mask: diagonalMask()})
	assert.Error(t, err)
	assert.False(t, svc.IsProcessing())
}

// blockingAlgorithm runs until its context is cancelled.
type blockingAlgorithm struct {
	started chan struct{}
}

func (b *blockingAlgorithm) GetName() string { return "Blocking" }
func (b *blockingAlgorithm) GetTag() string { return "BlockingAlgo" }
func (b *blockingAlgorithm) ListParameters(models.AxisCalibration) []algorithms.Parameter { return nil }
func (b *blockingAlgorithm) GetParameter(int) (float64, bool) { return 0, false }
func (b *blockingAlgorithm) SetParameter(int, float64) error { return nil }
func (b *blockingAlgorithm) Serialize() (*algorithms.Record, bool) { return nil, false }
func (b *blockingAlgorithm) Deserialize(*algorithms.Record) error { return nil }

func (b *blockingAlgorithm) Run(ctx context.Context, in algorithms.Input) ([]models.Point, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExtractSingleActiveRunAndCancel(t *testing.T) {
	svc := newService()
	axes := testAxes(t)
	blocking := &blockingAlgorithm{started: make(chan struct{})}

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = svc.Extract(context.Background(), ExtractionRequest{
			Algorithm: blocking,
			Mask:      diagonalMask(),
			Axes:      axes,
		})
	}()

	select {
	case <-blocking.started:
	case <-time.After(5 * time.Second):
		t.Fatal("extraction did not start")
	}
	assert.True(t, svc.IsProcessing())

	second, err := svc.NewAlgorithm()
	require.NoError(t, err)
	_, err = svc.Extract(context.Background(), ExtractionRequest{Algorithm: second, Mask: diagonalMask(), Axes: axes})
	assert.ErrorIs(t, err, ErrExtractionActive)

	svc.CancelExtraction()
	wg.Wait()

	assert.ErrorIs(t, firstErr, context.Canceled)
	state := svc.GetProcessingState()
	assert.False(t, state.IsActive)
	assert.Equal(t, "Cancelled", state.CurrentStage)
	assert.True(t, errors.Is(state.LastError, context.Canceled))
}

func TestExtractFailureKeepsDataset(t *testing.T) {
	svc := newService()
	algo, err := svc.NewAlgorithm()
	require.NoError(t, err)

	require.NoError(t, algo.SetParameter(int(stepwindow.ParamXMax), 1e9))
	require.NoError(t, algo.SetParameter(int(stepwindow.ParamXStep), 1e-3))

	dataset := models.NewDataset("trace")
	dataset.AddPixel(1, 2)

	_, err = svc.Extract(context.Background(), ExtractionRequest{
		Algorithm: algo,
		Mask:      diagonalMask(),
		Axes:      testAxes(t),
		Dataset:   dataset,
	})
	assert.ErrorIs(t, err, algorithms.ErrInvalidParameter)
	assert.Equal(t, []models.Point{{X: 1, Y: 2}}, dataset.Pixels())
	assert.Equal(t, "Failed", svc.GetProcessingState().CurrentStage)
}

func TestApplyOverrides(t *testing.T) {
	algo := stepwindow.NewProcessor()
	axes := testAxes(t)

	params, err := ApplyOverrides(algo, axes, map[string]float64{"xmax": 5, "lineWidth": 4})
	require.NoError(t, err)

	values := map[string]float64{}
	for _, p := range params {
		values[p.Key] = p.Value
	}
	assert.Equal(t, 0.0, values["xmin"])
	assert.Equal(t, 5.0, values["xmax"])
	assert.Equal(t, 9.0, values["ymax"])
	assert.Equal(t, 4.0, values["lineWidth"])
	assert.Equal(t, stepwindow.DefaultXStep, values["delx"])

	_, err = ApplyOverrides(stepwindow.NewProcessor(), axes, map[string]float64{"bogus": 1})
	assert.ErrorIs(t, err, algorithms.ErrInvalidParameter)

	_, err = ApplyOverrides(stepwindow.NewProcessor(), axes, map[string]float64{"delx": 0})
	assert.ErrorIs(t, err, algorithms.ErrInvalidParameter)
}
