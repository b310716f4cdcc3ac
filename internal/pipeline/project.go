package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/models"

	"github.com/google/uuid"
)

// ProjectVersion is the document format written by SaveProject.
const ProjectVersion = 1

const maxProjectSize = 64 * 1024 * 1024

// Project is the persisted state of a digitizing session.
type Project struct {
	ID          uuid.UUID          `json:"id"`
	Version     int                `json:"version"`
	Created     time.Time          `json:"created"`
	Image       ProjectImage       `json:"image"`
	Calibration ProjectCalibration `json:"calibration"`
	Datasets    []ProjectDataset   `json:"datasets"`
}

type ProjectImage struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ProjectCalibration struct {
	X1   models.CalibrationPoint `json:"x1"`
	X2   models.CalibrationPoint `json:"x2"`
	Y3   models.CalibrationPoint `json:"y3"`
	Y4   models.CalibrationPoint `json:"y4"`
	LogX bool                    `json:"logX"`
	LogY bool                    `json:"logY"`
}

// ProjectDataset is one extracted trace. Algorithm is absent when the
// algorithm never ran.
type ProjectDataset struct {
	Name      string             `json:"name"`
	Algorithm *algorithms.Record `json:"algorithm,omitempty"`
	Pixels    []models.Point     `json:"pixels"`
	Data      []models.Point     `json:"data,omitempty"`
}

// NewProject starts a document for img calibrated by axes.
func NewProject(img *models.ImageData, axes *models.XYAxes) *Project {
	p := &Project{
		ID:      uuid.New(),
		Version: ProjectVersion,
		Created: time.Now().UTC(),
	}
	if img != nil {
		p.Image = ProjectImage{Path: img.Path, Width: img.Width, Height: img.Height}
	}
	if axes != nil {
		pts := axes.Points()
		logX, logY := axes.LogScales()
		p.Calibration = ProjectCalibration{X1: pts[0], X2: pts[1], Y3: pts[2], Y4: pts[3], LogX: logX, LogY: logY}
	}
	return p
}

// AddDataset appends the current contents of ds. algo may be nil.
func (p *Project) AddDataset(ds *models.Dataset, algo algorithms.Algorithm, mapper models.PixelMapper) {
	entry := ProjectDataset{
		Name:   ds.Name(),
		Pixels: ds.Pixels(),
	}
	if algo != nil {
		if record, ok := algo.Serialize(); ok {
			entry.Algorithm = record
		}
	}
	if mapper != nil {
		entry.Data = ds.DataPoints(mapper)
	}
	p.Datasets = append(p.Datasets, entry)
}

// Axes rebuilds the calibration stored in the document.
func (p *Project) Axes() (*models.XYAxes, error) {
	c := p.Calibration
	return models.NewXYAxes(c.X1, c.X2, c.Y3, c.Y4, c.LogX, c.LogY)
}

// Restore rebuilds dataset i and, when it was saved with one, its algorithm.
func (p *Project) Restore(manager *algorithms.Manager, i int) (*models.Dataset, algorithms.Algorithm, error) {
	if i < 0 || i >= len(p.Datasets) {
		return nil, nil, fmt.Errorf("dataset index %d out of range", i)
	}
	entry := p.Datasets[i]

	ds := models.NewDataset(entry.Name)
	ds.ReplacePixels(entry.Pixels)

	if entry.Algorithm == nil {
		return ds, nil, nil
	}
	algo, err := manager.Restore(entry.Algorithm)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset %q: %w", entry.Name, err)
	}
	return ds, algo, nil
}

// WriteProject encodes p as indented JSON.
func WriteProject(w io.Writer, p *Project) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	return nil
}

// ReadProject decodes a project document.
func ReadProject(r io.Reader) (*Project, error) {
	var p Project
	if err := json.NewDecoder(io.LimitReader(r, maxProjectSize)).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	if p.Version < 1 || p.Version > ProjectVersion {
		return nil, fmt.Errorf("unsupported project version %d", p.Version)
	}
	return &p, nil
}

// SaveProject writes p to path.
func (e *Exporter) SaveProject(path string, p *Project) error {
	if err := writeFileAtomic(path, func(w io.Writer) error { return WriteProject(w, p) }); err != nil {
		e.logger.Error("Exporter", err, map[string]interface{}{"path": path})
		return err
	}

	e.logger.Info("Exporter", "project written", map[string]interface{}{
		"path":     path,
		"id":       p.ID.String(),
		"datasets": len(p.Datasets),
	})
	return nil
}

// LoadProject reads a project document from path.
func LoadProject(path string) (*Project, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}
	defer f.Close()

	return ReadProject(f)
}
