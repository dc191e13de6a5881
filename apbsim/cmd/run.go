package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sarchlab/apbverif/datarecording"
	"github.com/sarchlab/apbverif/monitoring"
	"github.com/sarchlab/apbverif/report"
	"github.com/sarchlab/apbverif/stimulus"
	"github.com/sarchlab/apbverif/timing"
	"github.com/sarchlab/apbverif/tracing"
	"github.com/sarchlab/apbverif/verif"
)

var errVerificationFailed = errors.New("verification failed")

type runOptions struct {
	count       int
	seed        int64
	addrRange   uint32
	freq        string
	resetCycles int
	maxCycles   uint64

	script      string
	record      string
	monitor     bool
	monitorPort int
	openBrowser bool
	statsView   bool
	verbose     bool
	quiet       bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one verification and report the mismatch count.",
	Long: `Run resets the slave, issues the stimulus one transaction at a ` +
		`time and checks every observed transfer. The command exits with a ` +
		`non-zero status if any read mismatched or the run was aborted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runVerification(cmd, runOpts)
	},
}

func init() {
	defaults := verif.DefaultConfig()
	f := runCmd.Flags()

	f.IntVarP(&runOpts.count, "count", "n", defaults.NumTransactions,
		"number of transactions to issue; passed to generate(n) of a script")
	f.Int64Var(&runOpts.seed, "seed", defaults.Seed,
		"seed of the random stimulus")
	f.Uint32Var(&runOpts.addrRange, "addr-range", defaults.AddrRange,
		"random addresses are drawn from [0, addr-range)")
	f.StringVar(&runOpts.freq, "freq", defaults.Freq.String(),
		"clock frequency, for example 100MHz")
	f.IntVar(&runOpts.resetCycles, "reset-cycles", defaults.ResetCycles,
		"cycles to hold reset before the first transfer")
	f.Uint64Var(&runOpts.maxCycles, "max-cycles", 0,
		"abort the run after this many cycles; 0 derives a limit")
	f.StringVar(&runOpts.script, "script", "",
		"Starlark file providing directed stimulus")
	f.StringVar(&runOpts.record, "record", "",
		"record transfers and verdicts into <record>.sqlite3")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"serve the monitoring web page while running")
	f.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"port of the monitoring server; 0 picks a free port")
	f.BoolVar(&runOpts.openBrowser, "open-browser", false,
		"open the monitoring page in a browser")
	f.BoolVar(&runOpts.statsView, "statsview", false,
		"serve Go runtime statistics at "+statsViewAddress+statsViewPath)
	f.BoolVarP(&runOpts.verbose, "verbose", "v", false,
		"also log generator, driver and slave activity")
	f.BoolVarP(&runOpts.quiet, "quiet", "q", false,
		"do not print the transaction log")

	rootCmd.AddCommand(runCmd)
}

func runVerification(cmd *cobra.Command, opts runOptions) error {
	freq, err := timing.ParseFreq(opts.freq)
	if err != nil {
		return err
	}

	cfg := verif.Config{
		NumTransactions: opts.count,
		Freq:            freq,
		AddrRange:       opts.addrRange,
		Seed:            opts.seed,
		ResetCycles:     opts.resetCycles,
		MaxCycles:       timing.VTimeInCycle(opts.maxCycles),
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	builder := verif.MakeBuilder().WithConfig(cfg)

	if !opts.quiet {
		builder = builder.WithLogger(log.New(out, "", 0))
	}

	if opts.verbose {
		builder = builder.WithVerboseLog()
	}

	total := cfg.NumTransactions

	if opts.script != "" {
		script, err := stimulus.LoadFile(opts.script, opts.count)
		if err != nil {
			return err
		}

		builder = builder.WithStimulus(script)
		total = script.Len()
	}

	if opts.record != "" {
		recorder := datarecording.New(opts.record)
		defer recorder.Close()

		builder = builder.WithHook(tracing.NewRecordingHook(recorder, freq))
	}

	var monitor *monitoring.Monitor

	if opts.monitor {
		monitor = monitoring.NewMonitor().WithPortNumber(opts.monitorPort)
		bar := monitor.CreateProgressBar("Transactions", uint64(total))
		builder = builder.WithHook(monitoring.ProgressHook{Bar: bar})
	}

	if opts.statsView {
		launchStatsView(cmd.ErrOrStderr())
	}

	env := builder.Build("Env")

	if monitor != nil {
		if err := startMonitor(monitor, env, opts.openBrowser); err != nil {
			return err
		}
		defer monitor.StopServer()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, runErr := env.Run(ctx)

	err = report.NewFromLocale().Write(out, env.Name(), total, result, runErr)
	if err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}

	if !result.Passed() {
		return fmt.Errorf("%w: %d mismatches",
			errVerificationFailed, result.Mismatches)
	}

	return nil
}

func startMonitor(
	monitor *monitoring.Monitor,
	env *verif.Env,
	openBrowser bool,
) error {
	monitor.RegisterKernel(env.Kernel())

	for _, c := range env.Components() {
		monitor.RegisterComponent(c)
	}

	url, err := monitor.StartServer()
	if err != nil {
		return err
	}

	if openBrowser {
		monitoring.OpenInBrowser(url)
	}

	return nil
}
