package main

import (
	"context"
	"fmt"
	"math/cmplx"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/export"
	"github.com/san-kum/pidsim/internal/logging"
	"github.com/san-kum/pidsim/internal/sim"
	"github.com/san-kum/pidsim/internal/storage"
	"github.com/san-kum/pidsim/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string
	dt         float64
	duration   float64
	controller string
	precision  string
	kp         float64
	ki         float64
	kd         float64
	outMin     float64
	outMax     float64
	manualU    float64
	datPath    string
	pngPath    string
	svgPath    string
	frameRate  int

	log zerolog.Logger
)

func main() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:           "pidsim",
		Short:         "discrete-time PID loop simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			log, err = logging.Setup(config.LoggingConfig{Level: logLevel, Format: logFormat}, os.Stderr)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text|json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed-loop simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addLoopFlags(runCmd)
	runCmd.Flags().StringVar(&datPath, "dat", "", "also write a tab-separated .dat file")
	runCmd.Flags().StringVar(&pngPath, "png", "", "also write a PNG plot")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "also write an SVG plot")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and series as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportDATCmd := &cobra.Command{
		Use:   "export-dat [run_id]",
		Short: "export run series as tab-separated text",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDAT,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCTRL\tKP\tKI\tKD\tPLANT")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%v / %v\n",
					name, cfg.Controller, cfg.PID.Kp, cfg.PID.Ki, cfg.PID.Kd,
					cfg.Plant.Numerator, cfg.Plant.Denominator)
			}
			return w.Flush()
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [preset] ...",
		Short: "run several presets concurrently and compare metrics",
		Args:  cobra.MinimumNArgs(1),
		RunE:  comparePresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the loop with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addLoopFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 10, "steps per second")

	polesCmd := &cobra.Command{
		Use:   "poles",
		Short: "print poles, DC gain and stability of the configured plant",
		Args:  cobra.NoArgs,
		RunE:  printPoles,
	}
	polesCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	polesCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportDATCmd, presetsCmd, compareCmd, liveCmd, polesCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sample period")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&controller, "controller", "pid", "controller (pid|manual)")
	cmd.Flags().StringVar(&precision, "precision", "float64", "numeric precision (float32|float64)")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	cmd.Flags().Float64Var(&outMin, "min", -config.DefaultLimit, "lower output limit")
	cmd.Flags().Float64Var(&outMax, "max", config.DefaultLimit, "upper output limit")
	cmd.Flags().Float64Var(&manualU, "u", 0, "fixed actuation of the manual controller")
}

// resolveConfig layers preset, config file and explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("precision") {
		cfg.Precision = precision
	}
	if flags.Changed("kp") {
		cfg.PID.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.PID.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.PID.Kd = kd
	}
	if flags.Changed("min") {
		cfg.PID.Min = outMin
	}
	if flags.Changed("max") {
		cfg.PID.Max = outMax
	}
	if flags.Changed("u") {
		cfg.PID.U = manualU
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	log.Info().
		Str("name", cfg.Name).
		Str("controller", cfg.Controller).
		Str("precision", cfg.Precision).
		Float64("dt", cfg.Dt).
		Float64("duration", cfg.Duration).
		Msg("running simulation")
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	log.Info().
		Str("run", runID).
		Int("steps", result.StepsTaken).
		Dur("elapsed", time.Since(start)).
		Msg("completed")
	if sat := result.Metrics["saturation"]; sat > 0 {
		log.Warn().Float64("fraction", sat).Msg("controller output saturated")
	}

	fmt.Printf("run id: %s\n", runID)
	printMetrics(result.Metrics)

	if datPath != "" {
		if err := writeFile(datPath, func(f *os.File) error { return export.WriteDAT(f, result) }); err != nil {
			return err
		}
		log.Info().Str("path", datPath).Msg("wrote dat")
	}
	if pngPath != "" {
		if err := writeFile(pngPath, func(f *os.File) error { return export.WritePNG(f, result, cfg.Name) }); err != nil {
			return err
		}
		log.Info().Str("path", pngPath).Msg("wrote png")
	}
	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.SeriesSVG(result, 800, 400)), 0644); err != nil {
			return err
		}
		log.Info().Str("path", svgPath).Msg("wrote svg")
	}

	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printMetrics(m map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for _, name := range sortedKeys(m) {
		fmt.Fprintf(w, "%s\t%.6f\n", name, m[name])
	}
	w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tCTRL\tPREC\tIAE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.4f\t%s\t%s\t%.4f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Controller,
			run.Precision,
			run.Metrics["iae"],
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

	result, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(result.Samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("controller: %s  kp=%g ki=%g kd=%g\n", meta.Controller, meta.PID.Kp, meta.PID.Ki, meta.PID.Kd)
	fmt.Printf("samples: %d\n\n", len(result.Samples))

	fmt.Println(asciigraph.PlotMany(
		[][]float64{result.References(), result.Outputs()},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Green),
		asciigraph.Caption("reference / output"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(result.Controls(),
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("control signal"),
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
	result, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	return export.WriteJSON(os.Stdout, meta, result)
}

func exportDAT(cmd *cobra.Command, args []string) error {
	result, err := storage.New(dataDir).LoadSeries(args[0])
	if err != nil {
		return err
	}
	return export.WriteDAT(os.Stdout, result)
}

func comparePresets(cmd *cobra.Command, args []string) error {
	jobs := make([]sim.Job, 0, len(args))
	for _, name := range args {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		exp, err := experiment.New(cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		jobs = append(jobs, exp.Job())
	}

	log.Debug().Strs("presets", args).Msg("comparing")
	results, err := sim.RunAll(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	names := sortedKeys(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PRESET\t"+strings.ToUpper(strings.Join(names, "\t"))+"\t")
	for i, r := range results {
		row := make([]string, len(names))
		for j, n := range names {
			row[j] = fmt.Sprintf("%.4f", r.Metrics[n])
		}
		fmt.Fprintf(w, "%s\t%s\t\n", args[i], strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	log.Debug().Str("name", cfg.Name).Int("fps", frameRate).Msg("starting live view")
	p := tea.NewProgram(tui.NewModel(exp, frameRate), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func printPoles(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	plant := exp.Plant()

	fmt.Printf("plant: %v / %v (order %d)\n", cfg.Plant.Numerator, cfg.Plant.Denominator, plant.Order())
	for i, p := range plant.Poles() {
		fmt.Printf("  p%d = %.6f %+.6fi  |p| = %.6f\n", i, real(p), imag(p), cmplx.Abs(p))
	}

	if g, err := plant.DCGain(); err == nil {
		fmt.Printf("dc gain: %.6f\n", g)
	} else {
		fmt.Printf("dc gain: %v\n", err)
	}

	if plant.IsStable() {
		fmt.Println("stable: yes")
	} else {
		fmt.Println("stable: no")
	}
	return nil
}
