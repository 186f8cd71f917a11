// Package gate implements the testgate run executor: manifest check, then
// test run, with strict variable resolution, lifecycle hooks, and faithful
// exit code propagation.
//
// It is intended for internal use by testgate only.
package gate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/buildkite/shellwords"
	"github.com/google/uuid"
	"github.com/testgate/testgate/env"
	"github.com/testgate/testgate/internal/hook"
	"github.com/testgate/testgate/internal/shell"
	"github.com/testgate/testgate/process"
	"github.com/testgate/testgate/version"
)

// Phase names accepted by Config.Phases.
const (
	PhaseCheck = "check"
	PhaseTest  = "test"
)

// How many lines of a failed step's output end up in the summary.
const outputTailLines = 20

// Config is the configuration for the gate executor. It mirrors the run
// command's flags, already parsed into plain values.
type Config struct {
	// CheckCommand is the manifest check command line. Run without any
	// caller arguments.
	CheckCommand string

	// TestCommand is the test command line. Caller arguments are appended
	// to it verbatim.
	TestCommand string

	// Args are the caller's arguments for the test command.
	Args []string

	// ManifestPath is exported to steps and hooks as TESTGATE_MANIFEST_PATH.
	ManifestPath string

	// HooksPath is the directory searched for lifecycle hooks. Empty
	// disables hooks.
	HooksPath string

	// Env holds extra KEY=VALUE entries for the gate environment. Values
	// are variable-expanded against the environment built so far.
	Env []string

	// Chdir, if set, is the working directory for all steps and hooks.
	Chdir string

	// LockFile, if set, is a lock acquired before the first step and held
	// for the whole run.
	LockFile string

	// LockTimeout bounds how long to wait for LockFile. Zero waits forever.
	LockTimeout time.Duration

	// Phases restricts which steps run. Empty means both.
	Phases []string

	// PTY runs the test step in a pseudo-terminal.
	PTY bool

	// SummaryFile, if set, receives a JSON summary of the run.
	SummaryFile string

	// CancelSignal is sent to the running step when the run is canceled.
	CancelSignal process.Signal

	// SignalGracePeriod is how long a step has between CancelSignal and
	// SIGKILL.
	SignalGracePeriod time.Duration

	// Debug enables command echo and timing in the shell.
	Debug bool
}

// Gate runs the check and test steps for one invocation of testgate run.
type Gate struct {
	conf  Config
	shell *shell.Shell

	// The gate environment, exported to every step and hook.
	environ *env.Environment

	// Resolved command argv vectors. Set during the resolve phase.
	checkCmd []string
	testCmd  []string

	// Whether the resolve phase completed. Until it has, no external
	// command may be spawned, hooks included.
	resolved bool

	summary *Summary
}

type Option = func(*Gate)

// WithShell substitutes the shell used to run steps and hooks. Tests use
// this with a dry-run shell and a command log.
func WithShell(sh *shell.Shell) Option {
	return func(g *Gate) { g.shell = sh }
}

// New returns a gate ready to Run.
func New(conf Config, opts ...Option) (*Gate, error) {
	g := &Gate{
		conf:    conf,
		environ: env.FromSlice(os.Environ()),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.shell == nil {
		sh, err := shell.New(
			shell.WithDebug(conf.Debug),
			shell.WithPTY(conf.PTY),
			shell.WithInterruptSignal(conf.CancelSignal),
			shell.WithSignalGracePeriod(conf.SignalGracePeriod),
		)
		if err != nil {
			return nil, fmt.Errorf("creating shell: %w", err)
		}
		g.shell = sh
	}

	return g, nil
}

// Run executes the gate and returns the exit code the process should exit
// with. The first failing step ends the run with that step's code; nothing
// that runs afterwards (hooks, summary, lock release) can change it.
func (g *Gate) Run(ctx context.Context) (exitCode int) {
	g.summary = newSummary()
	defer func() {
		// Teardown only logs problems. The captured code stands.
		g.teardown(ctx, exitCode)
	}()

	if err := g.setup(); err != nil {
		g.shell.Errorf("Setup failed: %v", err)
		return 1
	}

	// Strict variable mode: every configured string resolves before any
	// external command is spawned, hooks included.
	if err := g.resolve(); err != nil {
		g.shell.Errorf("%v", err)
		return 1
	}

	if g.conf.LockFile != "" {
		unlock, err := g.acquireLock(ctx)
		if err != nil {
			g.shell.Errorf("Could not acquire lock on %q: %v", g.conf.LockFile, err)
			return 1
		}
		defer func() {
			if err := unlock.Unlock(); err != nil {
				g.shell.Warningf("Failed to release lock: %v", err)
			}
		}()
	}

	if g.phaseEnabled(PhaseCheck) {
		if code := g.checkPhase(ctx); code != 0 {
			return code
		}
	}

	if g.phaseEnabled(PhaseTest) {
		return g.testPhase(ctx)
	}

	return 0
}

// setup builds the gate environment: the process environment, the --env
// entries, and the gate's own TESTGATE_* exports.
func (g *Gate) setup() error {
	if g.conf.Chdir != "" {
		if err := g.shell.Chdir(g.conf.Chdir); err != nil {
			return err
		}
	}

	g.environ.Set("TESTGATE_RUN_ID", uuid.NewString())
	g.environ.Set("TESTGATE_VERSION", version.Version())
	if g.conf.ManifestPath != "" {
		g.environ.Set("TESTGATE_MANIFEST_PATH", g.conf.ManifestPath)
	}

	return nil
}

// resolve expands variable references in every configured string, rejecting
// references to unset variables, and splits the command strings into argv
// vectors. Runs strictly before anything is spawned.
func (g *Gate) resolve() error {
	// --env entries first, in order, so later strings can reference them.
	for _, e := range g.conf.Env {
		name, value, ok := env.Split(e)
		if !ok {
			return fmt.Errorf("environment entry %q is not in KEY=VALUE form", e)
		}
		expanded, err := env.Interpolate(g.environ, value)
		if err != nil {
			return err
		}
		g.environ.Set(name, expanded)
	}

	checkStr, err := env.Interpolate(g.environ, g.conf.CheckCommand)
	if err != nil {
		return err
	}
	testStr, err := env.Interpolate(g.environ, g.conf.TestCommand)
	if err != nil {
		return err
	}
	if g.conf.HooksPath != "" {
		g.conf.HooksPath, err = env.Interpolate(g.environ, g.conf.HooksPath)
		if err != nil {
			return err
		}
	}
	if g.conf.LockFile != "" {
		g.conf.LockFile, err = env.Interpolate(g.environ, g.conf.LockFile)
		if err != nil {
			return err
		}
	}

	if g.checkCmd, err = shellwords.Split(checkStr); err != nil {
		return fmt.Errorf("splitting check command %q: %w", checkStr, err)
	}
	if g.testCmd, err = shellwords.Split(testStr); err != nil {
		return fmt.Errorf("splitting test command %q: %w", testStr, err)
	}

	if g.phaseEnabled(PhaseCheck) && len(g.checkCmd) == 0 {
		return fmt.Errorf("check command is empty")
	}
	if g.phaseEnabled(PhaseTest) && len(g.testCmd) == 0 {
		return fmt.Errorf("test command is empty")
	}

	g.shell.Env = g.environ
	g.resolved = true
	return nil
}

func (g *Gate) acquireLock(ctx context.Context) (shell.Unlocker, error) {
	if g.conf.LockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.conf.LockTimeout)
		defer cancel()
	}
	return g.shell.LockFile(ctx, g.conf.LockFile)
}

func (g *Gate) phaseEnabled(name string) bool {
	if len(g.conf.Phases) == 0 {
		return true
	}
	for _, p := range g.conf.Phases {
		if p == name {
			return true
		}
	}
	return false
}

// checkPhase runs the pre-check hook, the check command (never with caller
// arguments), and the post-check hook. A non-zero check exit short-circuits
// the run with the check's own exit code.
func (g *Gate) checkPhase(ctx context.Context) int {
	if code := g.runAdvisoryHook(ctx, hook.PreCheck); code != 0 {
		return code
	}

	g.shell.Headerf("Running manifest check")

	code := g.runStep(ctx, PhaseCheck, g.checkCmd, false)
	g.environ.Set("TESTGATE_CHECK_EXIT_STATUS", strconv.Itoa(code))

	if code != 0 {
		g.shell.Errorf("Manifest check failed with exit status %d", code)
		return code
	}

	if err := g.runHook(ctx, hook.PostCheck, nil); err != nil {
		g.shell.Warningf("%s hook failed: %v", hook.PostCheck, err)
	}
	return 0
}

// testPhase runs the pre-test hook, the test command with the caller's
// arguments appended verbatim, and the post-test hook. The test command's
// exit code is captured the moment it exits and is returned unchanged no
// matter what the later hooks do.
func (g *Gate) testPhase(ctx context.Context) int {
	if code := g.runAdvisoryHook(ctx, hook.PreTest); code != 0 {
		return code
	}

	g.shell.Headerf("Running tests")

	argv := append(append([]string{}, g.testCmd...), g.conf.Args...)
	code := g.runStep(ctx, PhaseTest, argv, g.conf.PTY)

	// Captured immediately. Everything below is advisory.
	g.environ.Set("TESTGATE_TEST_EXIT_STATUS", strconv.Itoa(code))

	if err := g.runHook(ctx, hook.PostTest, nil); err != nil {
		g.shell.Warningf("%s hook failed: %v", hook.PostTest, err)
	}

	return code
}

// runStep runs one command, teeing its output for the summary tail, and
// returns its exit code. A step killed by the cancel signal reports
// 128+signal, the way a shell reports it.
func (g *Gate) runStep(ctx context.Context, name string, argv []string, pty bool) int {
	var tail process.Buffer
	sh := g.shell.Clone(
		shell.WithStdout(io.MultiWriter(g.shell.Writer, &tail)),
		shell.WithPTY(pty),
	)

	start := time.Now()
	err := sh.Run(ctx, argv[0], argv[1:]...)
	duration := time.Since(start)

	code := shell.ExitCode(err)
	if shell.IsExitSignaled(err) {
		if ws, wsErr := sh.WaitStatus(); wsErr == nil && ws.Signaled() {
			code = 128 + int(ws.Signal())
		}
	}

	g.summary.addStep(name, argv, code, duration, &tail)
	return code
}
