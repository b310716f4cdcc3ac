package models

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// BinaryMask exposes the foreground pixels of a binarized image. Pixels are
// addressed by their linear index row*width + column.
type BinaryMask interface {
	Width() int
	Height() int
	IsForeground(index int) bool
}

// Mask is a dense bitmap implementation of BinaryMask.
type Mask struct {
	width  int
	height int
	bits   *bitset.BitSet
}

// NewMask returns an empty mask. Negative dimensions are treated as zero.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		width:  width,
		height: height,
		bits:   bitset.New(uint(width * height)),
	}
}

// MaskFromIndices builds a mask with the given linear indices set.
// Indices outside the image are ignored.
func MaskFromIndices(width, height int, indices ...int) *Mask {
	m := NewMask(width, height)
	for _, idx := range indices {
		m.setIndex(idx)
	}
	return m
}

// MaskFromBytes interprets data as a row-major 8-bit single channel image
// where any non-zero byte is foreground.
func MaskFromBytes(width, height int, data []byte) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid mask dimensions %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("mask data has %d bytes, want %d for %dx%d", len(data), width*height, width, height)
	}

	m := NewMask(width, height)
	for i, v := range data {
		if v != 0 {
			m.bits.Set(uint(i))
		}
	}
	return m, nil
}

func (m *Mask) Width() int  { return m.width }
func (m *Mask) Height() int { return m.height }

// IsForeground reports whether the pixel at index is set. Out of range
// indices are background.
func (m *Mask) IsForeground(index int) bool {
	if !m.inside(index) {
		return false
	}
	return m.bits.Test(uint(index))
}

// Set marks the pixel at (col, row) as foreground and reports whether it was
// inside the image.
func (m *Mask) Set(col, row int) bool {
	if col < 0 || col >= m.width || row < 0 || row >= m.height {
		return false
	}
	m.setIndex(row*m.width + col)
	return true
}

// Clear marks the pixel at (col, row) as background.
func (m *Mask) Clear(col, row int) {
	if col < 0 || col >= m.width || row < 0 || row >= m.height {
		return
	}
	m.bits.Clear(uint(row*m.width + col))
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	return int(m.bits.Count())
}

func (m *Mask) inside(idx int) bool {
	return idx >= 0 && idx < m.width*m.height
}

func (m *Mask) setIndex(idx int) {
	if !m.inside(idx) {
		return
	}
	m.bits.Set(uint(idx))
}
