// Package storage persists finished runs: a directory per run holding
// metadata.json plus the two output rasters in ESRI ASCII form.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lmonroe/landevo/internal/grid"
	"github.com/lmonroe/landevo/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Spacing   float64   `json:"spacing"`
	Steps     int       `json:"steps"`
	Dt        float64   `json:"dt"`
	Window    int       `json:"window_steps"`

	Diffusivity float64 `json:"diffusivity"`
	Ksp         float64 `json:"k_sp"`
	M           float64 `json:"m_sp"`
	N           float64 `json:"n_sp"`
	Threshold   float64 `json:"threshold"`
	UpliftRate  float64 `json:"uplift_rate"`

	ElapsedSec float64 `json:"elapsed_sec"`
}

const (
	elevFile = "elevation.asc"
	rateFile = "erosion_rate.asc"
	metaFile = "metadata.json"
)

// Save writes one run directory and returns its id.
func (s *Store) Save(g *grid.Raster, p sim.Params, result *sim.Result, elapsed time.Duration) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   time.Now(),
		Rows:        result.Rows,
		Cols:        result.Cols,
		Spacing:     g.Spacing(),
		Steps:       result.Steps,
		Dt:          result.Dt,
		Window:      p.Window,
		Diffusivity: p.Diffusivity,
		Ksp:         p.Ksp,
		M:           p.M,
		N:           p.N,
		Threshold:   p.Threshold,
		UpliftRate:  p.UpliftRate,
		ElapsedSec:  elapsed.Seconds(),
	}

	metaPath := filepath.Join(runDir, metaFile)
	f, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := grid.SaveESRI(filepath.Join(runDir, elevFile), g, result.Elev); err != nil {
		return "", err
	}
	if err := grid.SaveESRI(filepath.Join(runDir, rateFile), g, result.ErosionRate); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns metadata for every run directory, skipping anything
// unreadable.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), metaFile))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metaFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadElevation reads a run's final elevation raster.
func (s *Store) LoadElevation(runID string) (*grid.Raster, error) {
	return grid.LoadESRI(filepath.Join(s.baseDir, runID, elevFile))
}

// LoadErosionRate reads a run's trailing-window erosion rate raster.
func (s *Store) LoadErosionRate(runID string) (*grid.Raster, error) {
	return grid.LoadESRI(filepath.Join(s.baseDir, runID, rateFile))
}
