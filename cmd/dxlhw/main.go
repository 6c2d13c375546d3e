package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/config"
	"github.com/san-kum/dxlhw/internal/dxl"
	"github.com/san-kum/dxlhw/internal/hardware"
	"github.com/san-kum/dxlhw/internal/hwif"
	"github.com/san-kum/dxlhw/internal/loop"
	"github.com/san-kum/dxlhw/internal/manager"
	"github.com/san-kum/dxlhw/internal/metrics"
	"github.com/san-kum/dxlhw/internal/trace"
	"github.com/san-kum/dxlhw/internal/tui"
	"github.com/san-kum/dxlhw/internal/viz"
)

const defaultPreset = "single_xm"

var (
	configFile string
	preset     string
	logLevel   string
	dataDir    string

	period      float64
	duration    float64
	realtime    bool
	sampleEvery int
	runName     string

	presetOut string
)

// main registers the dxlhw commands and runs the root command, exiting with
// status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "dxlhw",
		Short:        "dynamixel actuator hardware adapter",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the control loop against the simulated bus",
		Args:  cobra.NoArgs,
		RunE:  runLoop,
	}
	runCmd.Flags().Float64Var(&period, "period", config.DefaultPeriod, "control period in seconds")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	runCmd.Flags().BoolVar(&realtime, "realtime", false, "pace ticks with the wall clock")
	runCmd.Flags().IntVar(&sampleEvery, "every", 1, "record every n-th tick")
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to preset or config file name)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the control loop with a live monitor",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&period, "period", config.DefaultPeriod, "control period in seconds")
	liveCmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds (0 runs until quit)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [actuator...]",
		Short: "plot run traces",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	modesCmd := &cobra.Command{
		Use:   "modes",
		Short: "list operating mode types",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range actuator.ModeTypes() {
				fmt.Printf("  %s\n", m)
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}
	presetsCmd.Flags().StringVar(&presetOut, "out", "", "write the preset to this file")

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "validate a config file",
		Args:  cobra.ExactArgs(1),
		RunE:  validateConfig,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, modesCmd, presetsCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the configuration: config file, else preset, else the
// default preset; then environment, then flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	default:
		name := preset
		if name == "" {
			name = defaultPreset
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("period") {
		cfg.Period = period
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("realtime") {
		cfg.Realtime = realtime
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config:\n%w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	lvl, err := cfg.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// session is one wired stack: simulated bus, hardware, controllers and loop.
type session struct {
	cfg    *config.Config
	bus    *dxl.SimBus
	hw     *hardware.Hardware
	mgr    *manager.Manager
	loop   *loop.Loop
	logger *slog.Logger
}

func newSession(cfg *config.Config, logger *slog.Logger) (*session, error) {
	bus, err := hardware.NewSimBus(cfg)
	if err != nil {
		return nil, err
	}
	robot := hwif.NewRobotHW()
	hw, err := hardware.New(bus, robot, hardware.ActuatorConfigs(cfg), logger)
	if err != nil {
		return nil, err
	}
	mgr, err := manager.New(hw, robot, cfg.Controllers, nil, logger)
	if err != nil {
		hw.Close()
		return nil, err
	}

	l := loop.New(hw, mgr, logger)
	l.SetPlant(bus)
	for _, m := range metrics.Default() {
		l.AddMetric(m)
	}
	return &session{cfg: cfg, bus: bus, hw: hw, mgr: mgr, loop: l, logger: logger}, nil
}

func (s *session) loopConfig() loop.Config {
	lc := loop.Config{
		Period:   seconds(s.cfg.Period),
		Duration: seconds(s.cfg.Duration),
		Realtime: s.cfg.Realtime,
		Epoch:    time.Now(),
		Start:    s.cfg.Start,
	}
	for _, sw := range s.cfg.Schedule {
		lc.Schedule = append(lc.Schedule, loop.Switch{At: seconds(sw.At), Start: sw.Start, Stop: sw.Stop})
	}
	return lc
}

// close stops every controller, then every actuator mode.
func (s *session) close(t float64) {
	if err := s.mgr.StopAll(t); err != nil {
		s.logger.Error("failed to stop controllers", "error", err)
	}
	s.hw.Close()
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st := trace.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	rec := trace.NewRecorder(sampleEvery)
	s.loop.AddObserver(rec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d actuator(s), %d controller(s)...\n", len(cfg.Actuators), len(cfg.Controllers))
	start := time.Now()

	result, err := s.loop.Run(ctx, s.loopConfig())
	if result == nil {
		s.close(0)
		return err
	}
	var lastT float64
	if n := len(result.Times); n > 0 {
		lastT = result.Times[n-1]
	}
	s.close(lastT)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	name := runName
	if name == "" {
		name = runNameFor()
	}
	meta := trace.RunMetadata{
		Name:        name,
		Timestamp:   start,
		Period:      cfg.Period,
		Duration:    cfg.Duration,
		Realtime:    cfg.Realtime,
		Actuators:   cfg.ActuatorNames(),
		Controllers: cfg.ControllerNames(),
		Ticks:       result.Ticks,
		Overruns:    result.Overruns,
		Metrics:     result.Metrics,
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	runID, err := st.Save(meta, rec.Samples())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.Ticks)
	fmt.Println()
	fmt.Print(viz.StatusTable(s.hw.Snapshots()))
	fmt.Println("\nmetrics:")
	for _, k := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", k, result.Metrics[k])
	}
	if len(result.Errors) > 0 {
		fmt.Println("\nswitch errors:")
		for _, e := range result.Errors {
			fmt.Printf("  %v\n", e)
		}
	}
	return nil
}

func runNameFor() string {
	if configFile != "" {
		base := configFile[strings.LastIndex(configFile, "/")+1:]
		return strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")
	}
	if preset != "" {
		return preset
	}
	return defaultPreset
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Realtime = true
	if !cmd.Flags().Changed("time") {
		cfg.Duration = 0
	}

	// Logs would tear the terminal UI; only errors go to the log file.
	logFile, err := os.CreateTemp("", "dxlhw-live-*.log")
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	feed := tui.NewFeed(64)
	s.loop.AddObserver(feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		result *loop.Result
		err    error
	}
	finished := make(chan outcome, 1)
	go func() {
		res, err := s.loop.Run(ctx, s.loopConfig())
		feed.Close()
		finished <- outcome{res, err}
	}()

	joints := make(map[string][]string, len(cfg.Controllers))
	for name, c := range cfg.Controllers {
		joints[name] = c.Joints
	}
	p := tea.NewProgram(tui.New(feed, s.mgr, joints, cfg.Duration, cancel), tea.WithAltScreen())
	_, uiErr := p.Run()

	cancel()
	out := <-finished
	var lastT float64
	if out.result != nil && len(out.result.Times) > 0 {
		lastT = out.result.Times[len(out.result.Times)-1]
	}
	s.close(lastT)

	if uiErr != nil {
		return uiErr
	}
	if out.err != nil && !errors.Is(out.err, context.Canceled) {
		return out.err
	}
	if out.result != nil && len(out.result.Errors) > 0 {
		fmt.Printf("switch errors (log: %s):\n", logFile.Name())
		for _, e := range out.result.Errors {
			fmt.Printf("  %v\n", e)
		}
	}
	return nil
}

func openStore() *trace.Store {
	dir := dataDir
	if dir == "" {
		dir = config.DefaultDataDir
		if v := os.Getenv(config.EnvPrefix + "DATA_DIR"); v != "" {
			dir = v
		}
	}
	return trace.New(dir)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := openStore().List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tPERIOD\tTICKS\tOVERRUNS\tACTUATORS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Period,
			run.Ticks,
			run.Overruns,
			strings.Join(run.Actuators, ","),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := openStore()
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	names := args[1:]
	if len(names) == 0 {
		names = trace.Actuators(samples)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, name := range names {
		graph, err := viz.PlotTrace(samples, name)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := openStore().Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	samples, err := openStore().LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return trace.ErrNoSamples
	}
	return trace.WriteCSV(os.Stdout, samples)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := openStore()
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	return trace.ExportJSON(os.Stdout, *meta, samples)
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("presets:")
		for _, p := range config.ListPresets() {
			fmt.Printf("  %s\n", p)
		}
		return nil
	}

	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if presetOut != "" {
		if err := config.Save(presetOut, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", presetOut)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTUATOR\tID\tMODEL\tCONTROLLER\tMODE")
	for _, name := range cfg.ActuatorNames() {
		a := cfg.Actuators[name]
		for _, ctrl := range sortedKeys(a.OperatingModeMap) {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", name, *a.ID, a.Model, ctrl, a.OperatingModeMap[ctrl])
		}
	}
	return w.Flush()
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		var pe *actuator.ParamError
		for _, e := range unwrapAll(err) {
			if errors.As(e, &pe) {
				fmt.Printf("  %s: %s\n", pe.Key, pe.Reason)
			} else {
				fmt.Printf("  %v\n", e)
			}
		}
		return fmt.Errorf("%s: invalid", args[0])
	}

	// Build the stack once against the simulated bus to catch errors that
	// only show up at Init, such as bad item maps.
	s, err := newSession(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	s.close(0)
	fmt.Printf("%s: ok (%d actuators, %d controllers)\n", args[0], len(cfg.Actuators), len(cfg.Controllers))
	return nil
}

func unwrapAll(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
