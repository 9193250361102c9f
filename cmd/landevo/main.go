package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmonroe/landevo/internal/config"
	"github.com/lmonroe/landevo/internal/grid"
	"github.com/lmonroe/landevo/internal/sim"
	"github.com/lmonroe/landevo/internal/storage"
	"github.com/lmonroe/landevo/internal/tui"
	"github.com/lmonroe/landevo/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	demFile string
	surface string
	rows    int
	cols    int
	spacing float64
	seed    int64

	diffusivity float64
	ksp         float64
	mExp        float64
	nExp        float64
	threshold   float64
	upliftRate  float64
	axis        string

	dt          float64
	totalTime   float64
	steps       int
	windowSteps int

	showProfile bool
	profileCol  int
	showRate    bool
	frameRate   int
	outFile     string
	mapWidth    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "landevo",
		Short: "landscape evolution simulation engine",
		Long: "landevo integrates hillslope diffusion, stream-power erosion and\n" +
			"tectonic uplift forward in time on a raster elevation grid.",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".landevo", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		RunE:  runSimulation,
	}
	addModelFlags(runCmd)
	runCmd.Flags().BoolVar(&showProfile, "profile", false, "plot the final N-S cross section")
	runCmd.Flags().IntVar(&profileCol, "column", -1, "profile column (default middle)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live terminal view",
		RunE:  runLive,
	}
	addModelFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 15, "frames per second")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's cross section",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&profileCol, "column", -1, "profile column (default middle)")
	plotCmd.Flags().BoolVar(&showRate, "rate", false, "plot the erosion rate raster instead of elevation")

	mapCmd := &cobra.Command{
		Use:   "map [run_id]",
		Short: "render a stored run's raster as a heatmap",
		Args:  cobra.ExactArgs(1),
		RunE:  mapRun,
	}
	mapCmd.Flags().BoolVar(&showRate, "rate", false, "render the erosion rate raster instead of elevation")
	mapCmd.Flags().IntVar(&mapWidth, "width", 60, "maximum heatmap width in cells")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outFile, "out", "", "output path (default stdout)")

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "landevo.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list named parameter presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, n := range config.ListPresets() {
				fmt.Println(n)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, plotCmd, mapCmd, listCmd, exportCmd, initCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a named preset")

	cmd.Flags().StringVar(&demFile, "dem", "", "ESRI ASCII DEM path")
	cmd.Flags().StringVar(&surface, "surface", "ridge", "synthetic surface (ridge, flat)")
	cmd.Flags().IntVar(&rows, "rows", 64, "synthetic grid rows")
	cmd.Flags().IntVar(&cols, "cols", 64, "synthetic grid cols")
	cmd.Flags().Float64Var(&spacing, "spacing", config.DefaultSpacing, "node spacing")
	cmd.Flags().Int64Var(&seed, "seed", 1, "synthetic surface seed")

	cmd.Flags().Float64Var(&diffusivity, "diffusivity", config.DefaultD, "hillslope diffusivity D")
	cmd.Flags().Float64Var(&ksp, "ksp", config.DefaultKsp, "stream-power coefficient K_sp")
	cmd.Flags().Float64Var(&mExp, "m", config.DefaultM, "area exponent m")
	cmd.Flags().Float64Var(&nExp, "n", config.DefaultN, "slope exponent n")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "stream-power incision threshold")
	cmd.Flags().Float64Var(&upliftRate, "uplift", config.DefaultUpliftRate, "uplift rate")
	cmd.Flags().StringVar(&axis, "axis", "rows", "diffusion sweep axis (rows, cols, both)")

	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep duration")
	cmd.Flags().Float64Var(&totalTime, "time", config.DefaultTotalTime, "total simulated duration")
	cmd.Flags().IntVar(&steps, "steps", 0, "step count (overrides --time)")
	cmd.Flags().IntVar(&windowSteps, "window", 0, "ledger window steps (default last tenth)")
}

// buildConfig resolves preset, config file and flag overrides, in that
// order of increasing precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (see 'landevo presets')", preset)
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := func(name string, fn func()) {
		if cmd.Flags().Changed(name) {
			fn()
		}
	}
	set("dem", func() { cfg.Grid.DEM = demFile })
	set("surface", func() { cfg.Grid.Surface = surface })
	set("rows", func() { cfg.Grid.Rows = rows })
	set("cols", func() { cfg.Grid.Cols = cols })
	set("spacing", func() { cfg.Grid.Spacing = spacing })
	set("seed", func() { cfg.Grid.Seed = seed })
	set("diffusivity", func() { cfg.Process.Diffusivity = diffusivity })
	set("ksp", func() { cfg.Process.Ksp = ksp })
	set("m", func() { cfg.Process.M = mExp })
	set("n", func() { cfg.Process.N = nExp })
	set("threshold", func() { cfg.Process.Threshold = threshold })
	set("uplift", func() { cfg.Process.UpliftRate = upliftRate })
	set("axis", func() { cfg.Process.DiffusionAxis = axis })
	set("dt", func() { cfg.Run.Dt = dt })
	set("time", func() { cfg.Run.TotalTime = totalTime })
	set("steps", func() { cfg.Run.Steps = steps })
	set("window", func() { cfg.Run.WindowSteps = windowSteps })
	return cfg, nil
}

// progress prints a line every tenth of the run, the way the notebook
// counted its loops.
type progress struct {
	total int
}

func (p *progress) OnStep(step int, elapsed float64, elev []float64) {
	tick := p.total / 10
	if tick == 0 {
		tick = 1
	}
	if (step+1)%tick == 0 || step == p.total-1 {
		fmt.Printf("step %d/%d  t=%.0f\n", step+1, p.total, elapsed)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	g, err := cfg.BuildGrid()
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	driver, err := sim.New(g, params)
	if err != nil {
		return err
	}
	driver.AddObserver(&progress{total: params.Steps})

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %d steps of dt=%g...\n", params.Steps, params.Dt)
	start := time.Now()
	result, err := driver.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(g, params, result, elapsed)
	if err != nil {
		return err
	}

	printSummary(runID, params, result, elapsed)

	if showProfile {
		fmt.Println()
		fmt.Println(viz.PlotProfile(g, result.Elev, profileCol, 80, 12))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	g, err := cfg.BuildGrid()
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	driver, err := sim.New(g, params)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := tui.Run(context.Background(), driver, g, params.Steps, params.Dt, frameRate)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(g, params, result, elapsed)
	if err != nil {
		return err
	}
	printSummary(runID, params, result, elapsed)
	return nil
}

func printSummary(runID string, params sim.Params, result *sim.Result, elapsed time.Duration) {
	var b strings.Builder
	b.WriteString(viz.Title.Render("run complete") + "\n\n")
	b.WriteString(fmt.Sprintf("run id    %s\n", viz.Value.Render(runID)))
	b.WriteString(fmt.Sprintf("grid      %dx%d\n", result.Rows, result.Cols))
	b.WriteString(fmt.Sprintf("steps     %d (dt=%g, %.0f simulated)\n", result.Steps, result.Dt, float64(result.Steps)*result.Dt))
	b.WriteString(fmt.Sprintf("window    last %d steps\n", params.Window))
	b.WriteString(fmt.Sprintf("elapsed   %v\n", elapsed.Round(time.Millisecond)))

	var maxEro, maxDep float64
	for _, r := range result.ErosionRate {
		if r > maxEro {
			maxEro = r
		}
		if r < maxDep {
			maxDep = r
		}
	}
	b.WriteString(fmt.Sprintf("peak rate %s / %s\n",
		viz.Erosion.Render(fmt.Sprintf("%.3g erosion", maxEro)),
		viz.Deposition.Render(fmt.Sprintf("%.3g deposition", -maxDep))))

	fmt.Println(viz.Panel.Render(b.String()))
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	g, err := loadRaster(st, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s  grid: %dx%d\n\n", meta.ID, meta.Rows, meta.Cols)
	fmt.Println(viz.PlotProfile(g, g.Elev(), profileCol, 80, 15))
	return nil
}

func mapRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	g, err := loadRaster(st, args[0])
	if err != nil {
		return err
	}
	if showRate {
		fmt.Print(viz.RateMap(g, g.Elev(), mapWidth))
	} else {
		fmt.Print(viz.Heatmap(g, g.Elev(), mapWidth))
	}
	return nil
}

func loadRaster(st *storage.Store, runID string) (*grid.Raster, error) {
	if showRate {
		return st.LoadErosionRate(runID)
	}
	return st.LoadElevation(runID)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tGRID\tSTEPS\tDT\tD\tKSP\tUPLIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%g\t%g\t%g\t%g\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Rows, run.Cols,
			run.Steps,
			run.Dt,
			run.Diffusivity,
			run.Ksp,
			run.UpliftRate,
		)
	}
	return w.Flush()
}

type exportData struct {
	Meta        storage.RunMetadata `json:"meta"`
	Elevation   []float64           `json:"elevation"`
	ErosionRate []float64           `json:"erosion_rate"`
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	elev, err := st.LoadElevation(args[0])
	if err != nil {
		return err
	}
	rate, err := st.LoadErosionRate(args[0])
	if err != nil {
		return err
	}

	data := exportData{
		Meta:        *meta,
		Elevation:   elev.Elev(),
		ErosionRate: rate.Elev(),
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
