package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lmonroe/landevo/internal/grid"
	"github.com/lmonroe/landevo/internal/lem"
	"github.com/lmonroe/landevo/internal/sim"
	"github.com/lmonroe/landevo/internal/solve"
)

// Notebook-era defaults: a 10-year step over 10,000 years with the
// erosion ledger covering the last tenth of the run.
const (
	DefaultDt         = 10.0
	DefaultTotalTime  = 10000.0
	DefaultD          = 1.0
	DefaultKsp        = 0.0
	DefaultM          = 0.5
	DefaultN          = 1.0
	DefaultUpliftRate = 0.0012
	DefaultSpacing    = 3.0
)

type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Process ProcessConfig `yaml:"process"`
	Run     RunConfig     `yaml:"run"`
}

// GridConfig describes where the initial surface comes from: a DEM
// file, or a generated surface for experiments.
type GridConfig struct {
	DEM     string  `yaml:"dem"`     // ESRI ASCII path; empty means synthetic
	Surface string  `yaml:"surface"` // "ridge" or "flat" when no DEM
	Rows    int     `yaml:"rows"`
	Cols    int     `yaml:"cols"`
	Spacing float64 `yaml:"spacing"`
	Base    float64 `yaml:"base"`
	Relief  float64 `yaml:"relief"`
	Seed    int64   `yaml:"seed"`

	Boundaries BoundaryConfig `yaml:"boundaries"`
}

// BoundaryConfig assigns a status to each raster edge: "fixed",
// "closed", or "core".
type BoundaryConfig struct {
	North string `yaml:"north"`
	South string `yaml:"south"`
	East  string `yaml:"east"`
	West  string `yaml:"west"`
}

type ProcessConfig struct {
	Diffusivity   float64 `yaml:"diffusivity"`
	Ksp           float64 `yaml:"k_sp"`
	M             float64 `yaml:"m_sp"`
	N             float64 `yaml:"n_sp"`
	Threshold     float64 `yaml:"threshold"`
	UpliftRate    float64 `yaml:"uplift_rate"`
	DiffusionAxis string  `yaml:"diffusion_axis"` // rows, cols, both
}

type RunConfig struct {
	Dt          float64 `yaml:"dt"`
	TotalTime   float64 `yaml:"total_time"` // ignored when steps is set
	Steps       int     `yaml:"steps"`
	WindowSteps int     `yaml:"window_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Surface: "ridge",
			Rows:    64,
			Cols:    64,
			Spacing: DefaultSpacing,
			Base:    200,
			Relief:  60,
			Seed:    1,
			Boundaries: BoundaryConfig{
				North: "fixed",
				South: "fixed",
				East:  "closed",
				West:  "closed",
			},
		},
		Process: ProcessConfig{
			Diffusivity:   DefaultD,
			Ksp:           DefaultKsp,
			M:             DefaultM,
			N:             DefaultN,
			UpliftRate:    DefaultUpliftRate,
			DiffusionAxis: "rows",
		},
		Run: RunConfig{
			Dt:        DefaultDt,
			TotalTime: DefaultTotalTime,
		},
	}
}

// Load reads a YAML config over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StepCount resolves the run length: explicit steps win, otherwise
// total_time/dt.
func (c *Config) StepCount() int {
	if c.Run.Steps > 0 {
		return c.Run.Steps
	}
	if c.Run.Dt > 0 {
		return int(c.Run.TotalTime / c.Run.Dt)
	}
	return 0
}

// Window resolves the ledger window: explicit window_steps, otherwise
// the trailing tenth of the run.
func (c *Config) Window() int {
	if c.Run.WindowSteps > 0 {
		return c.Run.WindowSteps
	}
	return c.StepCount() / 10
}

// Params assembles the driver parameters. Domain validation happens in
// sim.New, not here.
func (c *Config) Params() (sim.Params, error) {
	axis, err := solve.ParseAxis(c.Process.DiffusionAxis)
	if err != nil {
		return sim.Params{}, err
	}
	return sim.Params{
		Diffusivity: c.Process.Diffusivity,
		Ksp:         c.Process.Ksp,
		M:           c.Process.M,
		N:           c.Process.N,
		Threshold:   c.Process.Threshold,
		UpliftRate:  c.Process.UpliftRate,
		Dt:          c.Run.Dt,
		Steps:       c.StepCount(),
		Window:      c.Window(),
		Axis:        axis,
	}, nil
}

// BuildGrid loads or generates the initial surface and classifies the
// edges.
func (c *Config) BuildGrid() (*grid.Raster, error) {
	var (
		g   *grid.Raster
		err error
	)
	switch {
	case c.Grid.DEM != "":
		g, err = grid.LoadESRI(c.Grid.DEM)
	case c.Grid.Surface == "flat":
		g, err = grid.Flat(c.Grid.Rows, c.Grid.Cols, c.Grid.Spacing, c.Grid.Base)
	case c.Grid.Surface == "" || c.Grid.Surface == "ridge":
		g, err = grid.Ridge(c.Grid.Rows, c.Grid.Cols, c.Grid.Spacing, c.Grid.Base, c.Grid.Relief, c.Grid.Seed)
	default:
		return nil, fmt.Errorf("%w: surface %q", lem.ErrConfiguration, c.Grid.Surface)
	}
	if err != nil {
		return nil, err
	}

	edges := []struct {
		e grid.Edge
		s string
	}{
		{grid.North, c.Grid.Boundaries.North},
		{grid.South, c.Grid.Boundaries.South},
		{grid.East, c.Grid.Boundaries.East},
		{grid.West, c.Grid.Boundaries.West},
	}
	for _, es := range edges {
		st, err := parseStatus(es.s)
		if err != nil {
			return nil, err
		}
		g.SetEdge(es.e, st)
	}
	return g, nil
}

func parseStatus(s string) (grid.Status, error) {
	switch s {
	case "", "core":
		return grid.Core, nil
	case "fixed":
		return grid.FixedValue, nil
	case "closed":
		return grid.Closed, nil
	}
	return 0, fmt.Errorf("%w: boundary status %q", lem.ErrConfiguration, s)
}
