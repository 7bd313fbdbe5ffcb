package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/experiment"
	"github.com/nijigenerate/nicxlive-sub001/internal/puppet"
	"github.com/nijigenerate/nicxlive-sub001/internal/tui"
)

var (
	dataDir  string
	logLevel string
	duration float64
	fps      int
	noSave   bool
	// Snapshot
	frame  int
	out    string
	width  int
	height int
	// Sweep
	field  string
	values []float64
	// Monte Carlo
	perturb float64
	trials  int
	seed    int64
	// Plot / analyze
	column string
	xCol   string
	yCol   string
)

var registry = experiment.NewRegistry()

func main() {
	rootCmd := &cobra.Command{
		Use:   "puppetsim",
		Short: "rigged puppet physics lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(registry)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".puppetsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [rig.yaml|preset]",
		Short: "run a rig and save the trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runRig,
	}
	timingFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot driver values of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "plot a single trace column")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "", "trace column (default: first driver value_x)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two trace columns",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xCol, "x", "", "x column (default: first driver bob_x)")
	phaseCmd.Flags().StringVar(&yCol, "y", "", "y column (default: first driver bob_y)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and trace to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trace to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available rigs",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range registry.ListRigs() {
				cfg, _ := registry.GetRig(name)
				fmt.Printf("  %-10s %d nodes, %d params, %d drivers\n", name, len(cfg.Nodes), len(cfg.Params), len(cfg.Drivers))
			}
			return nil
		},
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [rig.yaml|preset]",
		Short: "render a rig frame to png or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRig,
	}
	timingFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&frame, "frame", 60, "frame to render")
	snapshotCmd.Flags().StringVar(&out, "out", "snapshot.png", "output file (.png or .svg)")
	snapshotCmd.Flags().IntVar(&width, "width", 640, "image width")
	snapshotCmd.Flags().IntVar(&height, "height", 480, "image height")

	liveCmd := &cobra.Command{
		Use:   "live [rig.yaml|preset]",
		Short: "run a rig with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return tui.Run(registry)
			}
			cfg, err := loadConfig(cmd, args[0])
			if err != nil {
				return err
			}
			return tui.RunRig(registry, args[0], cfg)
		},
	}
	timingFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [rig.yaml|preset]",
		Short: "run a rig once per value of a driver constant",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepRig,
	}
	timingFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&field, "field", "angle_damping", "driver constant ("+strings.Join(experiment.SweepFields, ", ")+")")
	sweepCmd.Flags().Float64SliceVar(&values, "values", []float64{0.1, 0.5, 1, 2}, "values to sweep")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [scenario.yaml]",
		Short: "run and save every step of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [rig.yaml|preset]",
		Short: "perturb a driver constant and count stable runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().StringVar(&field, "field", "length", "driver constant ("+strings.Join(experiment.SweepFields, ", ")+")")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.2, "relative perturbation")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, exportCmd, exportJSONCmd, exportCSVCmd, presetsCmd, snapshotCmd, liveCmd, sweepCmd, scenarioCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func timingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frames per second")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	diag.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig resolves src and applies the timing flags the user set.
func loadConfig(cmd *cobra.Command, src string) (*config.Config, error) {
	cfg, err := registry.Load(src)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("time") {
		cfg.Engine.Duration = duration
	}
	if cmd.Flags().Changed("fps") {
		cfg.Engine.FPS = fps
	}
	return cfg, cfg.Validate()
}

// build assembles a rig that logs its diagnostics.
func build(cfg *config.Config) (*config.Rig, error) {
	rig, err := config.Build(cfg, puppet.WithAtlasTrace(diag.Logger()))
	if err != nil {
		return nil, err
	}
	rig.Puppet.Subscribe(diag.RateLimit(diag.LogSink{}, time.Second, diag.KindLargeDeformation, diag.KindInvalidPhysics, diag.KindUnstableStep))
	return rig, nil
}
