package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/exchange"
	"github.com/san-kum/orbitsim/internal/export"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir string
	// Simulation settings; each overrides the config file only when set.
	configFile   string
	preset       string
	seed         uint64
	bodies       int
	distribution string
	maxRate      float64
	limiterKind  string
	logLevel     string
	logFile      string
	metricsAddr  string
	// run
	ticks       uint64
	record      bool
	recordEvery uint64
	// watch
	theme       string
	startPaused bool
	// sweep
	numRuns int
	// plot / export
	bodyIndex int
	outPath   string
	svgSize   int
	// analyze
	analyzeTicks uint64
	renormEvery  uint64
	perturbation float64
	sampleEvery  uint64
)

// main registers the orbitsim commands. With no subcommand it opens the
// terminal viewer.
func main() {
	rootCmd := &cobra.Command{
		Use:          "orbitsim",
		Short:        "softened n-body gravity in the terminal",
		RunE:         watch,
		SilenceUsage: true,
	}

	themeHelp := fmt.Sprintf("color theme (%s)", strings.Join(viz.ThemeNames(), ", "))

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbitsim", "data directory")
	addSimFlags(rootCmd)
	rootCmd.Flags().StringVar(&theme, "theme", "night", themeHelp)
	rootCmd.Flags().BoolVar(&startPaused, "paused", false, "start with the integrator paused")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run the integrator and show it live",
		RunE:  watch,
	}
	addSimFlags(watchCmd)
	watchCmd.Flags().StringVar(&theme, "theme", "night", themeHelp)
	watchCmd.Flags().BoolVar(&startPaused, "paused", false, "start with the integrator paused")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless for a number of ticks",
		RunE:  runHeadless,
	}
	addSimFlags(runCmd)
	runCmd.Flags().Uint64Var(&ticks, "ticks", 100000, "ticks to run (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&record, "record", false, "save sampled frames under --data")
	runCmd.Flags().Uint64Var(&recordEvery, "record-every", config.DefaultRecordEvery, "ticks between recorded frames")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run consecutive seeds in parallel and compare drift",
		RunE:  sweepSeeds,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&numRuns, "runs", 8, "number of seeds")
	sweepCmd.Flags().Uint64Var(&ticks, "ticks", 100000, "ticks per seed")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body coordinates and energy of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bodyIndex, "body", -1, "body to plot (-1 plots all)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the frames of a recorded run as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the orbits of a recorded run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "estimate the Lyapunov exponent and orbital periods of a seed",
		RunE:  analyzeSeed,
	}
	addSimFlags(analyzeCmd)
	lyap := analysis.DefaultLyapunovConfig()
	analyzeCmd.Flags().Uint64Var(&analyzeTicks, "ticks", lyap.Ticks, "ticks to integrate")
	analyzeCmd.Flags().Uint64Var(&renormEvery, "renorm", lyap.RenormEvery, "ticks between separation renormalizations")
	analyzeCmd.Flags().Float64Var(&perturbation, "perturbation", lyap.Perturbation, "initial separation of the shadow run")
	analyzeCmd.Flags().Uint64Var(&sampleEvery, "sample-every", 100, "ticks between samples for the spectrum")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}
	presetsCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the preset to a config file instead of stdout")

	rootCmd.AddCommand(watchCmd, runCmd, sweepCmd, analyzeCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "initial seed")
	cmd.Flags().IntVar(&bodies, "bodies", physics.DefaultBodyCount, "number of bodies")
	cmd.Flags().StringVar(&distribution, "distribution", string(physics.DistDisc), "initial distribution (disc, ring, square)")
	cmd.Flags().Float64Var(&maxRate, "max-rate", config.DefaultMaxRate, "tick rate cap per second (0 disables)")
	cmd.Flags().StringVar(&limiterKind, "limiter", config.DefaultLimiter, "loop limiter (spin, sleep, none)")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func watch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext()
	defer cancel()

	ex := exchange.New()
	ex.SetPaused(startPaused)
	runner, err := newRunner(ctx, cfg, ex, log)
	if err != nil {
		return err
	}

	return runAlongside(ctx,
		func(ctx context.Context) error {
			_, err := runner.Run(ctx)
			return err
		},
		func(ctx context.Context) error {
			return viz.Run(ctx, ex, viz.Options{Seed: cfg.Seed, Theme: theme})
		},
	)
}

// runAlongside runs the integrator in the background and the viewer in the
// foreground. Whichever returns first cancels the other. An integrator error
// is reported ahead of a viewer error; cancellation is not an error.
func runAlongside(ctx context.Context, run, view func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		err := run(ctx)
		cancel()
		errc <- err
	}()

	viewErr := view(ctx)
	cancel()
	runErr := <-errc

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if viewErr != nil && !errors.Is(viewErr, context.Canceled) {
		return viewErr
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ticks") || cfg.Loop.MaxTicks == 0 {
		cfg.Loop.MaxTicks = ticks
	}
	if cmd.Flags().Changed("record-every") {
		cfg.Record.Every = recordEvery
	}

	log, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	st := storage.New(dataDir)
	if record {
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner, err := newRunner(ctx, cfg, exchange.New(), log)
	if err != nil {
		return err
	}
	for _, m := range defaultMetrics() {
		runner.AddMetric(m)
	}

	var rec *sim.Recorder
	if record {
		rec = sim.NewRecorder(cfg.Record.Every, cfg.Record.MaxFrames)
		runner.AddObserver(rec)
	}

	fmt.Printf("running %d bodies from seed %d...\n", cfg.Physics.BodyCount, cfg.Seed)
	start := time.Now()

	result, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		fmt.Println("interrupted")
	}

	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("ticks: %d (%.0f/s)\n", result.Ticks, float64(result.Ticks)/elapsed.Seconds())
	printMetrics(result.Metrics)

	if rec != nil {
		meta, err := runMetadata(cfg, result, elapsed)
		if err != nil {
			return err
		}
		runID, err := st.Save(meta, rec.Frames())
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s (%d frames", runID, len(rec.Frames()))
		if rec.Dropped() > 0 {
			fmt.Printf(", %d dropped", rec.Dropped())
		}
		fmt.Println(")")
	}

	return nil
}

func sweepSeeds(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	simCfg, err := simConfig(cfg)
	if err != nil {
		return err
	}
	simCfg.MaxTicks = ticks

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %d seeds from %d, %d ticks each...\n", numRuns, cfg.Seed, ticks)
	start := time.Now()

	results, err := sim.NewSweep(simCfg, numRuns, cfg.Seed, defaultMetrics).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tTICKS\tENERGY DRIFT\tMOMENTUM DRIFT\tBARYCENTER DRIFT\tSTABILITY")
	for _, res := range results {
		fmt.Fprintf(w, "%d\t%d\t%.3e\t%.3e\t%.3e\t%.3f\n",
			res.Seed,
			res.Ticks,
			res.Metrics["energy_drift"],
			res.Metrics["momentum_drift"],
			res.Metrics["barycenter_drift"],
			res.Metrics["stability"],
		)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tTIME\tSEED\tBODIES\tDIST\tTICKS\tFRAMES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Params.BodyCount,
			run.Params.Distribution,
			run.Ticks,
			run.Frames,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("seed: %d, bodies: %d\n", meta.Seed, meta.Params.BodyCount)
	fmt.Printf("samples: %d\n\n", len(frames))

	n := len(frames[0].Bodies)
	first, last := 0, n-1
	if bodyIndex >= 0 {
		if bodyIndex >= n {
			return fmt.Errorf("body %d out of range (run has %d bodies)", bodyIndex, n)
		}
		first, last = bodyIndex, bodyIndex
	}

	const maxPlots = 6
	for i := first; i <= last && i-first < maxPlots; i++ {
		xs := make([]float64, len(frames))
		ys := make([]float64, len(frames))
		for k, f := range frames {
			if i < len(f.Bodies) {
				xs[k] = f.Bodies[i].Pos.X
				ys[k] = f.Bodies[i].Pos.Y
			}
		}

		graph := asciigraph.PlotMany([][]float64{xs, ys},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
			asciigraph.Caption(fmt.Sprintf("body %d: x (cyan), y (magenta)", i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	energy := make([]float64, len(frames))
	for k, f := range frames {
		energy[k] = physics.Energy(f.Bodies)
	}
	fmt.Println(asciigraph.Plot(energy,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("total energy"),
	))

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := storage.ExportJSON(outPath, *meta, frames); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", runID, outPath)
		return nil
	}
	return storage.WriteJSON(os.Stdout, *meta, frames)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}

	return storage.WriteFramesCSV(os.Stdout, frames)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	svg := export.OrbitsToSVG(frames, svgSize)
	if svg == "" {
		return fmt.Errorf("no data to export")
	}

	if outPath == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, outPath)
	return nil
}

func analyzeSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	simCfg, err := simConfig(cfg)
	if err != nil {
		return err
	}
	simCfg.MaxTicks = analyzeTicks
	if sampleEvery == 0 {
		sampleEvery = 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("analyzing seed %d (%d bodies, %d ticks)...\n", cfg.Seed, cfg.Physics.BodyCount, analyzeTicks)
	start := time.Now()

	lambda := analysis.LyapunovExponent(physics.NewWithParams(cfg.Seed, simCfg.Params), analysis.LyapunovConfig{
		Ticks:        analyzeTicks,
		RenormEvery:  renormEvery,
		Perturbation: perturbation,
	})

	rec := sim.NewRecorder(sampleEvery, 0)
	runner := sim.New(simCfg, exchange.New(), nil, nil)
	runner.AddObserver(rec)
	if _, err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Printf("lyapunov exponent: %.4f per time unit\n", lambda)
	if lambda > 0 {
		fmt.Printf("e-folding time:    %.4f time units\n", 1/lambda)
	}

	frames := rec.Frames()
	interval := float64(sampleEvery) * simCfg.Params.Timestep

	fmt.Println("\ndominant periods (x coordinate):")
	for i := 0; i < cfg.Physics.BodyCount; i++ {
		xs := make([]float64, len(frames))
		for k, f := range frames {
			xs[k] = f.Bodies[i].Pos.X
		}
		if period, ok := analysis.DominantPeriod(xs, interval); ok {
			fmt.Printf("  body %d: %.6f\n", i, period)
		} else {
			fmt.Printf("  body %d: -\n", i)
		}
	}

	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("available presets:")
		for _, name := range config.ListPresets() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if outPath != "" {
		if err := config.Save(outPath, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote preset %s to %s\n", args[0], outPath)
		return nil
	}
	return yaml.NewEncoder(os.Stdout).Encode(cfg)
}

func printMetrics(metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6e\n", name, metrics[name])
	}
}

// logFields is shared by the startup log lines of watch and run.
func logFields(cfg *config.Config) []logging.Field {
	return []logging.Field{
		logging.Uint64("seed", cfg.Seed),
		logging.Int("bodies", cfg.Physics.BodyCount),
		logging.String("limiter", cfg.Loop.Limiter),
		logging.Float("max_rate", cfg.Loop.MaxRate),
	}
}
