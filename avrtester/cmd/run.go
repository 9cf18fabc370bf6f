package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/config"
	"github.com/sarchlab/avrtester/hooking"
	"github.com/sarchlab/avrtester/scenarios"
	"github.com/sarchlab/avrtester/simulation"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

type runOptions struct {
	envFiles []string

	steps  uint64
	millis uint64

	clock      uint32
	timeoutMs  uint64
	allowSleep bool

	record      string
	recordSteps bool
	pureGo      bool

	monitor     bool
	monitorPort int
	openBrowser bool
	hold        bool

	verbose    bool
	traceSteps bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario and check its outcome.",
		Long: "`run <scenario>` runs a bundled scenario for its default " +
			"length, or for --steps instructions or --millis milliseconds, " +
			"and checks what its components observed. Settings not given " +
			"as flags are read from AVRTESTER_* environment variables and " +
			".env files.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, args[0], opts)
		},
	}

	f := runCmd.Flags()
	f.StringSliceVar(&opts.envFiles, "env", nil,
		"Read settings from these .env files (default .env if present)")
	f.Uint64Var(&opts.steps, "steps", 0, "Run this many instructions")
	f.Uint64Var(&opts.millis, "millis", 0,
		"Run this many milliseconds of simulated time")
	f.Uint32Var(&opts.clock, "clock", 0,
		"Clock frequency in Hz (default: the scenario's)")
	f.Uint64Var(&opts.timeoutMs, "timeout-ms", 0,
		"Fail once this many milliseconds of simulated time have passed")
	f.BoolVar(&opts.allowSleep, "allow-sleep", false,
		"Accept a sleeping MCU")
	f.StringVar(&opts.record, "record", "",
		"Record tasks into PATH.sqlite3")
	f.BoolVar(&opts.recordSteps, "record-steps", false,
		"Also record every instruction")
	f.BoolVar(&opts.pureGo, "pure-go", false,
		"Record with the SQLite driver that does not need cgo")
	f.BoolVar(&opts.monitor, "monitor", false,
		"Serve a monitoring page while the scenario runs")
	f.IntVar(&opts.monitorPort, "monitor-port", 0,
		"Port of the monitoring page (default: random)")
	f.BoolVar(&opts.openBrowser, "open-browser", false,
		"Open the monitoring page in a browser")
	f.BoolVar(&opts.hold, "hold", false,
		"Keep the monitoring page up until interrupted")
	f.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Log task events to stderr")
	f.BoolVar(&opts.traceSteps, "trace-steps", false,
		"With -v, also log every instruction")

	runCmd.MarkFlagsMutuallyExclusive("steps", "millis")

	return runCmd
}

func loadConfig(cmd *cobra.Command, opts *runOptions) (config.Config, error) {
	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()

	if flags.Changed("clock") {
		cfg.Clock = timing.Freq(opts.clock)
		if err := cfg.Clock.Validate(); err != nil {
			return config.Config{}, err
		}
	}

	if flags.Changed("timeout-ms") {
		cfg.TimeoutMillis = opts.timeoutMs
	}

	if flags.Changed("allow-sleep") {
		cfg.AllowSleep = opts.allowSleep
	}

	if flags.Changed("record") {
		cfg.RecordPath = opts.record
	}

	if flags.Changed("monitor-port") {
		cfg.MonitorPort = opts.monitorPort
	}

	return cfg, nil
}

func buildSimulation(
	cmd *cobra.Command,
	opts *runOptions,
	cfg config.Config,
	s scenarios.Scenario,
) (*simulation.Simulation, error) {
	b := simulation.MakeBuilder().
		WithTesterBuilder(cfg.Apply(tester.MakeBuilder()))

	if cfg.RecordPath != "" {
		b = b.WithRecording(cfg.RecordPath)

		if opts.recordSteps {
			b = b.WithStepRecording()
		}

		if opts.pureGo {
			b = b.WithPureGoRecorder()
		}
	}

	if opts.monitor {
		b = b.WithMonitoring().WithMonitorPort(cfg.MonitorPort)
	}

	if opts.verbose {
		b = b.WithLogger(log.New(cmd.ErrOrStderr(), "", 0), opts.traceSteps)
	}

	return b.Build(s.Machine(cfg.Clock))
}

func runScenario(cmd *cobra.Command, name string, opts *runOptions) error {
	s, err := scenarios.Find(name)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	sim, err := buildSimulation(cmd, opts, cfg, s)
	if err != nil {
		return err
	}

	sim.RecordProperty("Scenario", s.Name)

	if sim.GetMonitor() != nil {
		trackProgress(sim, opts, s)

		if opts.openBrowser {
			if err := browser.OpenURL("http://" + sim.MonitorAddr()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Cannot open browser: %s\n", err)
			}
		}
	}

	var checkErr error

	runErr := tester.Catch(func() {
		check := s.Setup(sim.Tester())
		drive(sim.Tester(), opts, s)
		checkErr = check()
	})

	result := errors.Join(runErr, checkErr)
	report(cmd.OutOrStdout(), sim, s, result)

	if opts.hold && sim.GetMonitor() != nil {
		waitForInterrupt(cmd, sim.MonitorAddr())
	}

	if err := sim.Terminate(); err != nil {
		return errors.Join(result, err)
	}

	if result != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, result)
	}

	return nil
}

func drive(t *tester.Tester, opts *runOptions, s scenarios.Scenario) {
	switch {
	case opts.steps > 0:
		for i := uint64(0); i < opts.steps; i++ {
			t.Run()
		}
	case opts.millis > 0:
		t.RunForMillis(opts.millis)
	default:
		t.RunForCycles(s.Cycles)
	}
}

// trackProgress shows how far the run is on the monitoring page, in
// instructions with --steps and in cycles otherwise.
func trackProgress(
	sim *simulation.Simulation,
	opts *runOptions,
	s scenarios.Scenario,
) {
	t := sim.Tester()

	var total uint64

	switch {
	case opts.steps > 0:
		total = opts.steps
	case opts.millis > 0:
		total = timing.Millis(t.Freq(), opts.millis).AsCycles()
	default:
		total = s.Cycles
	}

	bar := sim.GetMonitor().CreateProgressBar(s.Name, total)

	t.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
		if ctx.Pos != tester.HookPosAfterStep {
			return
		}

		if opts.steps > 0 {
			bar.IncrementFinished(1)
			return
		}

		event := ctx.Item.(tester.StepEvent)
		bar.IncrementFinished(event.Outcome.Elapsed.AsCycles())
	}))
}

func report(
	w io.Writer,
	sim *simulation.Simulation,
	s scenarios.Scenario,
	result error,
) {
	t := sim.Tester()
	counter := sim.StepCounter()

	if result == nil {
		fmt.Fprintf(w, "scenario %s: ok\n", s.Name)
	} else {
		fmt.Fprintf(w, "scenario %s: FAILED\n  %s\n", s.Name, result)
	}

	fmt.Fprintf(w, "steps: %d, cycles: %d (%.3f µs at %s)\n",
		t.Steps(), t.Now().AsCycles(), t.Now().AsMicrosFloat(), t.Freq())
	fmt.Fprintf(w, "tasks: %d added, %d completed, %d removed, %d left\n",
		counter.TasksStarted(),
		counter.TasksEnded(components.EvictionCompleted),
		counter.TasksEnded(components.EvictionRemoved),
		t.Components().Len())

	if path := sim.RecordPath(); path != "" {
		fmt.Fprintf(w, "recorded to %s\n", path)
	}
}

func waitForInterrupt(cmd *cobra.Command, addr string) {
	fmt.Fprintf(cmd.ErrOrStderr(),
		"Monitoring page is up at http://%s, press Ctrl-C to exit\n", addr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	<-ctx.Done()
}
