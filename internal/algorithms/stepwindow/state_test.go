package stepwindow

import (
	"context"
	"encoding/json"
	"testing"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranProcessor(t *testing.T) *Processor {
	t.Helper()
	p := NewProcessor()
	for i, v := range []float64{1, 0.5, 8, -4, 16, 12} {
		require.NoError(t, p.SetParameter(i, v))
	}
	_, err := p.Run(context.Background(), algorithms.Input{Mask: models.NewMask(4, 4), Axes: boundsOnly{}})
	require.NoError(t, err)
	return p
}

func TestSerializeBeforeRun(t *testing.T) {
	rec, ok := NewProcessor().Serialize()
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestSerializeAfterRun(t *testing.T) {
	p := ranProcessor(t)

	rec, ok := p.Serialize()
	require.True(t, ok)
	assert.Equal(t, Tag, rec.Tag)
	assert.Equal(t, map[string]float64{
		"xmin": 1, "delx": 0.5, "xmax": 8, "ymin": -4, "ymax": 16, "lineWidth": 12,
	}, rec.Values)
}

func TestSerializedJSONShape(t *testing.T) {
	rec, ok := ranProcessor(t).Serialize()
	require.True(t, ok)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"algoType":"AveragingWindowWithStepSizeAlgo","xmin":1,"delx":0.5,"xmax":8,"ymin":-4,"ymax":16,"lineWidth":12}`, string(data))
}

func TestDeserializeRoundTrip(t *testing.T) {
	src := ranProcessor(t)
	rec, ok := src.Serialize()
	require.True(t, ok)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded algorithms.Record
	require.NoError(t, json.Unmarshal(data, &decoded))

	dst := NewProcessor()
	require.NoError(t, dst.Deserialize(&decoded))

	assert.Equal(t, src.ListParameters(nil), dst.ListParameters(nil))
	assert.False(t, dst.HasRun())
}

func TestDeserializeRejectsMalformedRecords(t *testing.T) {
	complete := func() *algorithms.Record {
		rec, _ := ranProcessor(t).Serialize()
		return rec
	}

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, NewProcessor().Deserialize(nil), algorithms.ErrMalformedState)
	})

	t.Run("foreign tag", func(t *testing.T) {
		rec := complete()
		rec.Tag = "XStepWithInterpolationAlgo"
		assert.ErrorIs(t, NewProcessor().Deserialize(rec), algorithms.ErrMalformedState)
	})

	t.Run("missing field leaves state untouched", func(t *testing.T) {
		rec := complete()
		delete(rec.Values, "ymax")

		p := NewProcessor()
		require.NoError(t, p.Set(ParamXMin, 42))
		assert.ErrorIs(t, p.Deserialize(rec), algorithms.ErrMalformedState)
		assert.Equal(t, 42.0, p.Get(ParamXMin))
	})

	t.Run("null field in JSON", func(t *testing.T) {
		var rec algorithms.Record
		require.NoError(t, json.Unmarshal([]byte(`{"algoType":"AveragingWindowWithStepSizeAlgo","xmin":0,"delx":null,"xmax":1,"ymin":0,"ymax":1,"lineWidth":3}`), &rec))
		assert.ErrorIs(t, NewProcessor().Deserialize(&rec), algorithms.ErrMalformedState)
	})

	t.Run("zero step", func(t *testing.T) {
		rec := complete()
		rec.Values["delx"] = 0
		assert.ErrorIs(t, NewProcessor().Deserialize(rec), algorithms.ErrInvalidParameter)
	})
}
