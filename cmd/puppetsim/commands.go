package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gogpu/gg"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/nijigenerate/nicxlive-sub001/internal/analysis"
	"github.com/nijigenerate/nicxlive-sub001/internal/automation"
	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/experiment"
	"github.com/nijigenerate/nicxlive-sub001/internal/export"
	"github.com/nijigenerate/nicxlive-sub001/internal/storage"
)

var (
	label = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	value = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	warn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

func runRig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	rig, err := build(cfg)
	if err != nil {
		return err
	}

	exp := experiment.New(rig)
	for _, m := range registry.DefaultMetrics(cfg) {
		exp.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s for %.1fs at %d fps...\n", cfg.Name, cfg.Engine.Duration, cfg.Engine.FPS)
	start := time.Now()

	result, err := exp.Run(ctx, cfg.Frames(), cfg.Dt())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		fmt.Println(warn.Render(fmt.Sprintf("interrupted after %d frames", result.StepsTaken)))
	}

	elapsed := time.Since(start)
	fmt.Printf("%s %v\n", label.Render("completed in"), elapsed)
	fmt.Printf("%s %d\n", label.Render("frames:"), result.StepsTaken)
	if n := len(result.Diagnostics); n > 0 {
		fmt.Println(warn.Render(fmt.Sprintf("diagnostics: %d", n)))
	}
	printMetrics(result.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(result)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", label.Render("run id:"), runID)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s %s\n", label.Render(fmt.Sprintf("%-18s", name)), value.Render(fmt.Sprintf("%.6f", m[name])))
	}
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
	fmt.Fprintln(w, "ID\tRIG\tTIME\tFRAMES\tDT\tDRIVERS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%s\n",
			run.ID,
			run.Rig,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Dt,
			strings.Join(run.Drivers, ","),
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Trace, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(trace.Rows) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, trace, nil
}

// firstDriver names a column of the first driver, or "" if the run had none.
func firstDriver(meta *storage.RunMetadata, col string) string {
	if len(meta.Drivers) == 0 {
		return ""
	}
	return meta.Drivers[0] + "." + col
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("rig: %s\n", meta.Rig)
	fmt.Printf("samples: %d\n\n", len(trace.Rows))

	cols := []string{column}
	if column == "" {
		cols = []string{"max_deformation"}
		for _, d := range meta.Drivers {
			cols = append(cols, d+".value_x", d+".value_y", d+".angle")
		}
	}

	for _, c := range cols {
		data := trace.Column(c)
		if data == nil {
			return fmt.Errorf("unknown column: %s", c)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(c),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	col := column
	if col == "" {
		col = firstDriver(meta, "value_x")
	}
	data := trace.Column(col)
	if data == nil {
		return fmt.Errorf("unknown column: %q", col)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("column: %s\n\n", col)

	ps := analysis.PowerSpectrum(data)
	if len(ps) < 2 {
		return fmt.Errorf("too few samples: %d", len(data))
	}
	plotData := ps[:max(2, len(ps)/4)]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+col+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, meta.Dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	if p := analysis.MeanPeriod(analysis.Crossings(data, mean, meta.Dt)); p > 0 {
		fmt.Printf("mean crossing period: %.3f s\n", p)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	xc, yc := xCol, yCol
	if xc == "" {
		xc = firstDriver(meta, "bob_x")
	}
	if yc == "" {
		yc = firstDriver(meta, "bob_y")
	}
	xs, ys := trace.Column(xc), trace.Column(yc)
	if xs == nil || ys == nil {
		return fmt.Errorf("unknown columns: %q %q", xc, yc)
	}

	fmt.Printf("phase portrait: %s\n", meta.ID)
	fmt.Printf("x: %s, y: %s\n\n", xc, yc)
	fmt.Println(analysis.PortraitToASCII(analysis.NewPortrait(xs, ys), 70, 20))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(trace.Columns); err != nil {
		return err
	}
	for _, row := range trace.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func snapshotRig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	rig, err := build(cfg)
	if err != nil {
		return err
	}
	for i := 0; i < frame; i++ {
		rig.Puppet.Update(cfg.Dt())
	}

	scene, err := export.Capture(rig)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(out), ".svg") {
		svg, err := scene.SVG(width, height)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
			return err
		}
	} else if err := scene.SavePNG(out, width, height); err != nil {
		return err
	}

	fmt.Printf("frame %d of %s written to %s\n", frame, cfg.Name, out)
	for _, pd := range scene.Pendulums {
		fmt.Printf("  %s %s\n", label.Render(pd.Name), value.Render(point(pd.Bob)))
	}
	return nil
}

func point(p gg.Point) string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

func sweepRig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	apply, err := experiment.DriverField(field)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no values to sweep")
	}

	sweep := &experiment.Sweep{
		Build: func() (*config.Config, error) {
			return loadConfig(cmd, args[0])
		},
		Apply:  apply,
		Values: values,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %s over %s (%d runs)...\n\n", field, cfg.Name, len(values))
	results, err := sweep.Run(ctx)
	if err != nil {
		return err
	}

	var names []string
	for name := range results[0].Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(field), strings.ToUpper(strings.Join(names, "\t")))
	for i, r := range results {
		row := []string{strconv.FormatFloat(values[i], 'g', 4, 64)}
		for _, name := range names {
			row = append(row, fmt.Sprintf("%.4f", r.Metrics[name]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, runErr := automation.RunScenario(ctx, sc, registry)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	for _, r := range results {
		runID, err := st.Save(r)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s\n", label.Render(r.Name), runID)
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mc := &automation.MonteCarloConfig{
		Rig:          args[0],
		Field:        field,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
	}
	fmt.Printf("monte carlo: %d trials of %s ±%.0f%%\n\n", trials, field, perturb*100)
	results, err := automation.RunMonteCarlo(ctx, mc, registry)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TRIAL\t%s\tAMPLITUDE\tSTABLE\n", strings.ToUpper(field))
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%v\n", r.TrialID, r.Value, r.Amplitude, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\n%s %d  %s %d\n", label.Render("stable:"), stable, warn.Render("unstable:"), unstable)
	return nil
}
