// Package pipeline writes extraction results: CSV tables, project documents,
// plot previews and mask images.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"
)

// Exporter writes results to files and writers.
type Exporter struct {
	logger logger.Logger
}

func NewExporter(log logger.Logger) *Exporter {
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{logger: log}
}

// WriteCSV writes one row per pixel point. When data is non-nil it must have
// the same length as pixels and adds the calibrated columns.
func (e *Exporter) WriteCSV(w io.Writer, pixels, data []models.Point) error {
	if data != nil && len(data) != len(pixels) {
		return fmt.Errorf("data has %d points, pixels have %d", len(data), len(pixels))
	}

	cw := csv.NewWriter(w)
	header := []string{"pixel_x", "pixel_y"}
	if data != nil {
		header = append(header, "x", "y")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(header))
	for i, p := range pixels {
		row[0] = formatFloat(p.X)
		row[1] = formatFloat(p.Y)
		if data != nil {
			row[2] = formatFloat(data[i].X)
			row[3] = formatFloat(data[i].Y)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the CSV table to path.
func (e *Exporter) SaveCSV(path string, pixels, data []models.Point) error {
	err := writeFileAtomic(path, func(w io.Writer) error {
		return e.WriteCSV(w, pixels, data)
	})
	if err != nil {
		e.logger.Error("Exporter", err, map[string]interface{}{"path": path})
		return err
	}

	e.logger.Info("Exporter", "CSV written", map[string]interface{}{
		"path":   path,
		"points": len(pixels),
	})
	return nil
}

// SaveMask writes the mask as a black-on-white image. The format follows the
// file extension; anything other than .jpg or .jpeg is written as PNG.
func (e *Exporter) SaveMask(path string, mask image.Image) error {
	if mask == nil {
		return fmt.Errorf("no mask to save")
	}

	format := "png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".png", "":
	default:
		e.logger.Warning("Exporter", "format not supported, using PNG", map[string]interface{}{
			"requested_format": strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), ".")),
		})
	}

	err := writeFileAtomic(path, func(w io.Writer) error {
		if format == "jpeg" {
			return jpeg.Encode(w, mask, &jpeg.Options{Quality: 95})
		}
		return png.Encode(w, mask)
	})
	if err != nil {
		e.logger.Error("Exporter", err, map[string]interface{}{"path": path, "format": format})
		return err
	}

	e.logger.Debug("Exporter", "mask written", map[string]interface{}{
		"path":   path,
		"format": format,
	})
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeFileAtomic writes through a temporary file in the target directory and
// renames it into place, so readers never see a partial file.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
