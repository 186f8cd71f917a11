package clicommand

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/buildkite/shellwords"
	"github.com/testgate/testgate/internal/gate"
	"github.com/testgate/testgate/internal/manifest"
	"github.com/testgate/testgate/internal/self"
	"github.com/testgate/testgate/process"
	"github.com/urfave/cli"
)

const runHelpDescription = `Usage:

    testgate run [options...] [--] [args...]

Description:

Verifies the project's file manifest, then runs the project's test suite.

The check command runs first, with no arguments. If it exits non-zero, the
run stops there and testgate exits with the check's exit code. The test
command runs next, with every argument given to ′testgate run′ appended
verbatim, and testgate exits with the test command's exit code.

Any reference to an unset environment variable in a configured command,
hook path, lock path, or --env value is a fatal configuration error,
detected before anything is executed. Use ${VAR-default} to allow a
variable to be unset.

Lifecycle hooks (pre-check, post-check, pre-test, post-test, pre-exit)
found in the hooks path run around the steps. Their exit codes cannot
change the run's exit code, except under the strict-hook-exit-codes
experiment, which promotes pre-check and pre-test hook failures to run
failures.

Example:

    $ testgate run -- ./... -count=1
    $ testgate run --test-command "npm test" --lock-file /tmp/ci.lock`

type RunConfig struct {
	CheckCommand             string   `cli:"check-command"`
	TestCommand              string   `cli:"test-command" validate:"required"`
	Args                     []string `cli:"arg:*"`
	ManifestPath             string   `cli:"manifest-path" normalize:"filepath"`
	HooksPath                string   `cli:"hooks-path" normalize:"filepath"`
	Env                      []string `cli:"env" normalize:"list"`
	Chdir                    string   `cli:"chdir" normalize:"filepath"`
	LockFile                 string   `cli:"lock-file"`
	LockTimeout              string   `cli:"lock-timeout"`
	PTY                      bool     `cli:"pty"`
	SummaryFile              string   `cli:"summary-file" normalize:"filepath"`
	Phases                   []string `cli:"phase" normalize:"list"`
	CancelSignal             string   `cli:"cancel-signal"`
	CancelGracePeriod        int      `cli:"cancel-grace-period"`
	SignalGracePeriodSeconds int      `cli:"signal-grace-period-seconds"`

	// Deprecated: renamed to manifest-path
	Manifest string `cli:"manifest" deprecated-and-renamed-to:"ManifestPath"`

	GlobalConfig
}

var RunCommand = cli.Command{
	Name:        "run",
	Usage:       "Run the manifest check, then the test suite",
	Description: runHelpDescription,
	Flags: flatten([]cli.Flag{
		cli.StringFlag{
			Name:   "check-command",
			Usage:  "The manifest check command. Defaults to running the built-in checker with ′testgate check′",
			EnvVar: "TESTGATE_CHECK_COMMAND",
		},
		cli.StringFlag{
			Name:   "test-command",
			Usage:  "The test command. Arguments to ′testgate run′ are appended to it verbatim",
			EnvVar: "TESTGATE_TEST_COMMAND",
		},
		cli.StringFlag{
			Name:   "manifest-path",
			Usage:  "Path to the manifest file",
			Value:  manifest.DefaultPath,
			EnvVar: "TESTGATE_MANIFEST_PATH",
		},
		cli.StringFlag{
			Name:   "manifest",
			Hidden: true,
			EnvVar: "TESTGATE_MANIFEST",
		},
		cli.StringFlag{
			Name:   "hooks-path",
			Usage:  "Directory containing lifecycle hook scripts",
			EnvVar: "TESTGATE_HOOKS_PATH",
		},
		cli.StringSliceFlag{
			Name:   "env",
			Value:  &cli.StringSlice{},
			Usage:  "Extra KEY=VALUE environment entries for the steps and hooks",
			EnvVar: "TESTGATE_ENV",
		},
		cli.StringFlag{
			Name:   "chdir",
			Usage:  "Change to this directory before running anything",
			EnvVar: "TESTGATE_CHDIR",
		},
		cli.StringFlag{
			Name:   "lock-file",
			Usage:  "Acquire this cross-process file lock before running, and hold it for the whole run",
			EnvVar: "TESTGATE_LOCK_FILE",
		},
		cli.StringFlag{
			Name:   "lock-timeout",
			Usage:  "How long to wait for the lock file before giving up, e.g. 30s or 5m. Empty waits forever",
			EnvVar: "TESTGATE_LOCK_TIMEOUT",
		},
		cli.BoolFlag{
			Name:   "pty",
			Usage:  "Run the test command within a pseudo terminal",
			EnvVar: "TESTGATE_PTY",
		},
		cli.StringFlag{
			Name:   "summary-file",
			Usage:  "Write a JSON summary of the run to this path",
			EnvVar: "TESTGATE_SUMMARY_FILE",
		},
		cli.StringSliceFlag{
			Name:   "phase",
			Usage:  "The specific phases to execute, either check or test. Defaults to both",
			EnvVar: "TESTGATE_PHASES",
		},
		cli.StringFlag{
			Name:   "cancel-signal",
			Usage:  "The signal to send the running step when the run is canceled",
			Value:  "SIGTERM",
			EnvVar: "TESTGATE_CANCEL_SIGNAL",
		},
		cli.IntFlag{
			Name:   "cancel-grace-period",
			Value:  defaultCancelGracePeriod,
			Usage:  "The number of seconds a canceled run is given to finish up before being killed outright",
			EnvVar: "TESTGATE_CANCEL_GRACE_PERIOD",
		},
		cli.IntFlag{
			Name: "signal-grace-period-seconds",
			Usage: "The number of seconds given to a step to handle being sent ′cancel-signal′. " +
				"After this period has elapsed, SIGKILL will be sent. " +
				"Negative values are taken relative to ′cancel-grace-period′. " +
				"The default is ′cancel-grace-period′ - 1.",
			Value:  -1,
			EnvVar: "TESTGATE_SIGNAL_GRACE_PERIOD_SECONDS",
		},
	}, globalFlags),
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		ctx, cfg, l, _, done := setupLoggerAndConfig[RunConfig](ctx, c)
		defer done()

		// Substituting the testgate binary, for tests.
		if p := os.Getenv("TESTGATE_OVERRIDE_SELF"); p != "" {
			ctx = self.OverridePath(ctx, p)
		}

		// The built-in checker is the default check command.
		if cfg.CheckCommand == "" {
			cfg.CheckCommand = shellwords.Quote(self.Path(ctx)) + " check"
		}

		for _, phase := range cfg.Phases {
			switch phase {
			case gate.PhaseCheck, gate.PhaseTest:
				// Valid phase
			default:
				l.Fatal("Invalid phase %q", phase)
			}
		}

		cancelSig, err := process.ParseSignal(cfg.CancelSignal)
		if err != nil {
			l.Fatal("Failed to parse cancel-signal: %v", err)
		}

		signalGrace, err := signalGracePeriod(cfg.CancelGracePeriod, cfg.SignalGracePeriodSeconds)
		if err != nil {
			l.Fatal("%v", err)
		}

		var lockTimeout time.Duration
		if cfg.LockTimeout != "" {
			lockTimeout, err = time.ParseDuration(cfg.LockTimeout)
			if err != nil {
				l.Fatal("Failed to parse lock-timeout: %v", err)
			}
		}

		// PTYs aren't supported on Windows.
		runInPTY := cfg.PTY
		if runtime.GOOS == "windows" {
			runInPTY = false
		}

		g, err := gate.New(gate.Config{
			CheckCommand:      cfg.CheckCommand,
			TestCommand:       cfg.TestCommand,
			Args:              cfg.Args,
			ManifestPath:      cfg.ManifestPath,
			HooksPath:         cfg.HooksPath,
			Env:               cfg.Env,
			Chdir:             cfg.Chdir,
			LockFile:          cfg.LockFile,
			LockTimeout:       lockTimeout,
			Phases:            cfg.Phases,
			PTY:               runInPTY,
			SummaryFile:       cfg.SummaryFile,
			CancelSignal:      cancelSig,
			SignalGracePeriod: signalGrace,
			Debug:             cfg.Debug,
		})
		if err != nil {
			return NewExitError(1, err)
		}

		// A signal cancels the run context; the gate interrupts whatever
		// step is running with the cancel signal.
		ctx, stop := signal.NotifyContext(ctx,
			os.Interrupt,
			syscall.SIGHUP,
			syscall.SIGTERM,
			syscall.SIGQUIT,
		)
		defer stop()

		exitCode := g.Run(ctx)
		if exitCode != 0 {
			return NewSilentExitError(exitCode)
		}
		return nil
	},
}
