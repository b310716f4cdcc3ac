package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageBytes bounds the size of an image file accepted by the loader.
const MaxImageBytes = 64 * 1024 * 1024

// Loader decodes chart images and derives their masks.
type Loader struct {
	logger logger.Logger
}

func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{logger: log}
}

// LoadFile reads an image from disk.
func (l *Loader) LoadFile(ctx context.Context, path string, opts Options) (*models.ImageData, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return l.Load(ctx, f, path, opts)
}

// Load decodes an image from r. name is only recorded for display.
func (l *Loader) Load(ctx context.Context, r io.Reader, name string, opts Options) (*models.ImageData, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	start := time.Now()

	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image too large: more than %d bytes", MaxImageBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	mask, err := MaskFromImage(img, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build mask: %w", err)
	}

	bounds := img.Bounds()
	imageData := &models.ImageData{
		Path:     name,
		Format:   format,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		FileSize: int64(len(data)),
		LoadTime: time.Now(),
		Image:    img,
		Mask:     mask,
	}

	l.logger.Info("ImageLoader", "image loaded", map[string]interface{}{
		"path":        name,
		"format":      format,
		"width":       imageData.Width,
		"height":      imageData.Height,
		"mode":        opts.Mode,
		"foreground":  mask.Count(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return imageData, nil
}

// Rebinarize rebuilds the mask of an already decoded image.
func (l *Loader) Rebinarize(img *models.ImageData, opts Options) (*models.Mask, error) {
	if img == nil || img.Image == nil {
		return nil, fmt.Errorf("no image loaded")
	}
	mask, err := MaskFromImage(img.Image, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build mask: %w", err)
	}

	l.logger.Debug("ImageLoader", "mask rebuilt", map[string]interface{}{
		"mode":       opts.Mode,
		"foreground": mask.Count(),
	})
	return mask, nil
}
