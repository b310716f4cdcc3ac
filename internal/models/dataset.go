package models

import "sync"

// Point is a 2D coordinate, in pixel or data space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dataset is an ordered collection of extracted pixel points. It is safe for
// concurrent use; readers never observe a half-replaced sequence.
type Dataset struct {
	mu     sync.RWMutex
	name   string
	pixels []Point
}

// NewDataset creates an empty dataset with the given display name.
func NewDataset(name string) *Dataset {
	return &Dataset{name: name}
}

// Name returns the dataset display name.
func (ds *Dataset) Name() string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.name
}

// Clear removes all points.
func (ds *Dataset) Clear() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.pixels = nil
}

// AddPixel appends a single pixel point.
func (ds *Dataset) AddPixel(x, y float64) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.pixels = append(ds.pixels, Point{X: x, Y: y})
}

// ReplacePixels clears the dataset and appends points in one step.
func (ds *Dataset) ReplacePixels(points []Point) {
	replacement := make([]Point, len(points))
	copy(replacement, points)

	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.pixels = replacement
}

// Pixels returns a copy of the stored pixel points.
func (ds *Dataset) Pixels() []Point {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	result := make([]Point, len(ds.pixels))
	copy(result, ds.pixels)
	return result
}

// Len returns the number of stored points.
func (ds *Dataset) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.pixels)
}

// DataPoints converts the stored pixels to data coordinates.
func (ds *Dataset) DataPoints(mapper PixelMapper) []Point {
	pixels := ds.Pixels()
	result := make([]Point, len(pixels))
	for i, p := range pixels {
		x, y := mapper.PixelToData(p.X, p.Y)
		result[i] = Point{X: x, Y: y}
	}
	return result
}
