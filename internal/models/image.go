package models

import (
	"image"
	"sync"
	"time"
)

// ImageData is a decoded chart image together with the mask derived from it.
type ImageData struct {
	Path     string
	Format   string
	Width    int
	Height   int
	FileSize int64
	LoadTime time.Time
	Image    image.Image
	Mask     *Mask
}

// ImageRepository holds the image currently being digitized.
type ImageRepository struct {
	mu      sync.RWMutex
	current *ImageData
}

func NewImageRepository() *ImageRepository {
	return &ImageRepository{}
}

// SetImage replaces the current image.
func (r *ImageRepository) SetImage(img *ImageData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = img
}

// GetImage returns the current image, or nil when none is loaded.
func (r *ImageRepository) GetImage() *ImageData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// SetMask swaps the mask of the current image, for example after the
// binarization options changed. It reports false when no image is loaded.
func (r *ImageRepository) SetMask(mask *Mask) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return false
	}
	updated := *r.current
	updated.Mask = mask
	r.current = &updated
	return true
}

func (r *ImageRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
}
