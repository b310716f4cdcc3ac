package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"curve-digitizer/internal/config"
	"curve-digitizer/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chartImage draws a dark horizontal stroke on row 5 of a white 20x10 image.
func chartImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if y == 5 {
				c = color.RGBA{R: 10, G: 10, B: 10, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestMaskFromImageOtsu(t *testing.T) {
	mask, err := MaskFromImage(chartImage(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 20, mask.Width())
	assert.Equal(t, 10, mask.Height())
	assert.Equal(t, 20, mask.Count())
	for x := 0; x < 20; x++ {
		assert.True(t, mask.IsForeground(5*20+x))
		assert.False(t, mask.IsForeground(4*20+x))
	}
}

func TestMaskFromImageLightForeground(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = config.ModeFixed
	opts.DarkForeground = false

	mask, err := MaskFromImage(chartImage(), opts)
	require.NoError(t, err)
	assert.Equal(t, 20*9, mask.Count())
}

func TestMaskFromImageOpenRemovesThinStroke(t *testing.T) {
	opts := DefaultOptions()
	opts.OpenKernel = 3

	mask, err := MaskFromImage(chartImage(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, mask.Count())
}

func TestMaskFromImageRejects(t *testing.T) {
	_, err := MaskFromImage(nil, DefaultOptions())
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.Mode = "sepia"
	_, err = MaskFromImage(chartImage(), opts)
	assert.Error(t, err)
}

func TestColorBoundsClamp(t *testing.T) {
	lower, upper := colorBounds(color.RGBA{R: 250, G: 10, B: 128}, 20)
	assert.Equal(t, []float64{108, 0, 230}, []float64{lower.Val1, lower.Val2, lower.Val3})
	assert.Equal(t, []float64{148, 30, 255}, []float64{upper.Val1, upper.Val2, upper.Val3})
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.ImageConfig{
		Mode:       config.ModeColor,
		Foreground: config.ForegroundLight,
		Color:      []int{1, 2, 3},
		Tolerance:  5,
		OpenKernel: 2,
	})
	assert.Equal(t, config.ModeColor, opts.Mode)
	assert.False(t, opts.DarkForeground)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, opts.Color)
	assert.Equal(t, 2, opts.OpenKernel)
}

func TestLoaderLoad(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, chartImage()))

	loader := NewLoader(logger.Nop())
	data, err := loader.Load(context.Background(), &buf, "chart.png", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "png", data.Format)
	assert.Equal(t, 20, data.Width)
	assert.Equal(t, 10, data.Height)
	assert.Equal(t, 20, data.Mask.Count())

	mask, err := loader.Rebinarize(data, Options{Mode: config.ModeFixed, Threshold: 128})
	require.NoError(t, err)
	assert.Equal(t, 20*9, mask.Count())
}

func TestLoaderLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(nil).Load(ctx, bytes.NewReader(nil), "x", DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaskImage(t *testing.T) {
	mask, err := MaskFromImage(chartImage(), DefaultOptions())
	require.NoError(t, err)

	img := MaskImage(mask)
	assert.Equal(t, uint8(0), img.GrayAt(3, 5).Y)
	assert.Equal(t, uint8(255), img.GrayAt(3, 4).Y)
}
