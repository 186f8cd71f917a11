// Package shell provides a cross-platform virtual shell abstraction for
// executing commands.
//
// It is intended for internal use by testgate only.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/buildkite/roko"
	"github.com/buildkite/shellwords"
	"github.com/gofrs/flock"
	"github.com/testgate/testgate/env"
	"github.com/testgate/testgate/logger"
	"github.com/testgate/testgate/process"
)

const lockRetryDuration = time.Second

// ErrShellNotStarted is returned when the shell has not started a process.
var ErrShellNotStarted = errors.New("shell not started")

// errLockHeld is the retryable "someone else has the lock" condition.
var errLockHeld = errors.New("lock is held by another process")

// Shell represents a virtual shell: it handles logging, executing commands,
// and provides hooks for capturing output and exit conditions.
//
// It provides a lowest-common-denominator abstraction over macOS, Linux and
// Windows.
type Shell struct {
	Logger

	// The running environment for the shell.
	Env *env.Environment

	// Where stdout (and usually stderr) of executed commands is written,
	// like a real shell that displays both in the same stream.
	// Defaults to [os.Stdout].
	Writer io.Writer

	// If set, the command arg vectors are appended to the slice as they are
	// executed (or would be executed, as in dry-run mode).
	commandLog *[][]string

	// Whether to log debug detail about command execution.
	debug bool

	// Whether to actually execute commands.
	dryRun bool

	// The signal used to interrupt running processes.
	interruptSignal process.Signal

	// Amount of time to wait between sending the interrupt signal and SIGKILL.
	signalGracePeriod time.Duration

	// Whether commands run in a PTY.
	pty bool

	// The currently-running or last-run process.
	proc atomic.Pointer[process.Process]

	// Current working directory that shell commands get executed in.
	wd string
}

type NewShellOpt = func(*Shell)

func WithCommandLog(log *[][]string) NewShellOpt { return func(s *Shell) { s.commandLog = log } }
func WithDebug(d bool) NewShellOpt               { return func(s *Shell) { s.debug = d } }
func WithDryRun(d bool) NewShellOpt              { return func(s *Shell) { s.dryRun = d } }
func WithEnv(e *env.Environment) NewShellOpt     { return func(s *Shell) { s.Env = e } }
func WithLogger(l Logger) NewShellOpt            { return func(s *Shell) { s.Logger = l } }
func WithPTY(pty bool) NewShellOpt               { return func(s *Shell) { s.pty = pty } }
func WithStdout(w io.Writer) NewShellOpt         { return func(s *Shell) { s.Writer = w } }
func WithWD(wd string) NewShellOpt               { return func(s *Shell) { s.wd = wd } }

func WithInterruptSignal(sig process.Signal) NewShellOpt {
	return func(s *Shell) { s.interruptSignal = sig }
}

func WithSignalGracePeriod(d time.Duration) NewShellOpt {
	return func(s *Shell) { s.signalGracePeriod = d }
}

// New returns a new Shell. The default stdout is [os.Stdout], the default
// logger writes to [os.Stderr], the initial working directory is the result
// of calling [os.Getwd], and the default environment variable set is read
// from [os.Environ].
func New(opts ...NewShellOpt) (*Shell, error) {
	shell := &Shell{}

	for _, opt := range opts {
		opt(shell)
	}

	if shell.Logger == nil {
		shell.Logger = &WriterLogger{Writer: os.Stderr, Ansi: true}
	}
	if shell.Env == nil {
		shell.Env = env.FromSlice(os.Environ())
	}
	if shell.Writer == nil {
		shell.Writer = os.Stdout
	}
	if shell.wd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("finding current working directory: %w", err)
		}
		shell.wd = wd
	}

	return shell, nil
}

// Clone returns a copy of the Shell with options applied. The copy shares
// the original's environment object and working directory, and is intended
// for running a command or two that needs different output handling
// (prefixing hook output, teeing a step for tail capture, a PTY).
func (s *Shell) Clone(opts ...NewShellOpt) *Shell {
	// Can't copy the struct like `clone := *s` because atomics can't be
	// copied.
	clone := &Shell{
		Logger:            s.Logger,
		Env:               s.Env,
		Writer:            s.Writer,
		commandLog:        s.commandLog,
		debug:             s.debug,
		dryRun:            s.dryRun,
		interruptSignal:   s.interruptSignal,
		signalGracePeriod: s.signalGracePeriod,
		pty:               s.pty,
		wd:                s.wd,
	}
	for _, opt := range opts {
		opt(clone)
	}
	return clone
}

// CloneWithWriter returns a copy of the Shell with a different stdout writer.
func (s *Shell) CloneWithWriter(w io.Writer) *Shell {
	return s.Clone(WithStdout(w))
}

// Getwd returns the current working directory of the shell.
func (s *Shell) Getwd() string {
	return s.wd
}

// Chdir changes the working directory of the shell.
func (s *Shell) Chdir(path string) error {
	// If the path isn't absolute, prefix it with the current working directory.
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.wd, path)
	}

	s.Promptf("cd %s", shellwords.Quote(path))

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to change working directory: %q does not exist", path)
	}

	s.wd = path
	return nil
}

// AbsolutePath returns the absolute path to an executable based on the PATH
// and PATHEXT of the Shell.
func (s *Shell) AbsolutePath(executable string) (string, error) {
	// Is the path already absolute?
	if path.IsAbs(executable) {
		return executable, nil
	}

	envPath, _ := s.Env.Get("PATH")
	fileExtensions, _ := s.Env.Get("PATHEXT") // For searching .exe, .bat, etc on Windows

	// Use our custom lookPath that takes a specific path
	absolutePath, err := LookPath(executable, envPath, fileExtensions)
	if err != nil {
		return "", err
	}

	// Since the path returned by LookPath is relative to the current working
	// directory, we need to get the absolute version of that.
	return filepath.Abs(absolutePath)
}

// Interrupt interrupts the running process, if there is one.
func (s *Shell) Interrupt() { s.proc.Load().Interrupt() } //nolint:errcheck // interrupting a proc that's already gone is fine

// Terminate terminates the running process, if there is one.
func (s *Shell) Terminate() { s.proc.Load().Terminate() } //nolint:errcheck // terminating a proc that's already gone is fine

// WaitStatus returns the WaitStatus of the shell's last process.
//
// The shell must have started at least one process.
func (s *Shell) WaitStatus() (process.WaitStatus, error) {
	p := s.proc.Load()
	if p == nil {
		return nil, ErrShellNotStarted
	}
	return p.WaitStatus(), nil
}

// Unlocker implementations are things that can be unlocked, such as a
// cross-process lock. This interface exists for implementation-hiding.
type Unlocker interface {
	Unlock() error
}

// LockFile creates a cross-process file-based lock, retrying once a second
// until it is acquired. To set a timeout on attempts to acquire the lock,
// pass a context with a timeout.
func (s *Shell) LockFile(ctx context.Context, path string) (Unlocker, error) {
	absolutePathToLock, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find absolute path to lock %q: %w", path, err)
	}

	lock := flock.New(absolutePathToLock)

	r := roko.NewRetrier(
		roko.TryForever(),
		roko.WithStrategy(roko.Constant(lockRetryDuration)),
	)
	if err := r.DoWithContext(ctx, func(rt *roko.Retrier) error {
		gotLock, err := lock.TryLock()
		switch {
		case err != nil:
			s.Commentf("Could not acquire lock on %q (%v)", absolutePathToLock, err)
			rt.Break()
			return err

		case !gotLock:
			s.Commentf("Could not acquire lock on %q (locked by another process), trying again in %v...", absolutePathToLock, lockRetryDuration)
			return errLockHeld

		default:
			return nil
		}
	}); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}

	return lock, nil
}

// Run runs a command, writes stdout and stderr to the shell's writer, and
// returns an error if it fails.
func (s *Shell) Run(ctx context.Context, command string, arg ...string) error {
	s.Promptf("%s", process.FormatCommand(command, arg))

	return s.RunWithoutPrompt(ctx, command, arg...)
}

// RunWithoutPrompt runs a command and writes stdout and stderr to the shell's
// writer. It doesn't show a "prompt".
func (s *Shell) RunWithoutPrompt(ctx context.Context, command string, arg ...string) error {
	cmd, err := s.buildCommand(command, arg...)
	if err != nil {
		s.Errorf("Error building command: %v", err)
		return err
	}

	return s.executeCommand(ctx, cmd, s.Writer, s.Writer, s.pty)
}

// RunWithEnv runs a command with additional environment variables set,
// writing both stdout and stderr to the shell's writer.
func (s *Shell) RunWithEnv(ctx context.Context, environ *env.Environment, command string, arg ...string) error {
	s.Promptf("%s", process.FormatCommand(command, arg))

	cmdCfg, err := s.buildCommand(command, arg...)
	if err != nil {
		s.Errorf("Error building command: %v", err)
		return err
	}

	cmdCfg.Env = append(cmdCfg.Env, environ.ToSlice()...)

	return s.executeCommand(ctx, cmdCfg, s.Writer, s.Writer, s.pty)
}

// RunAndCapture runs a command and captures stdout to a string. Stdout is
// captured, but stderr isn't. If the shell is in debug mode then the command
// will be echoed and both stderr and stdout will be written to the logger. A
// PTY is never used for RunAndCapture.
func (s *Shell) RunAndCapture(ctx context.Context, command string, arg ...string) (string, error) {
	if s.debug {
		s.Promptf("%s", process.FormatCommand(command, arg))
	}

	cmd, err := s.buildCommand(command, arg...)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	if err := s.executeCommand(ctx, cmd, &sb, nil, false); err != nil {
		return "", err
	}

	return strings.TrimSpace(sb.String()), nil
}

// buildCommand returns a command that can later be executed.
func (s *Shell) buildCommand(name string, arg ...string) (process.Config, error) {
	// Always use the absolute path, as Windows has a hard time finding
	// executables in its path.
	absPath, err := s.AbsolutePath(name)
	if err != nil {
		return process.Config{}, err
	}

	return process.Config{
		Path:              absPath,
		Args:              arg,
		Env:               append(s.Env.ToSlice(), "PWD="+s.wd),
		Dir:               s.wd,
		InterruptSignal:   s.interruptSignal,
		SignalGracePeriod: s.signalGracePeriod,
	}, nil
}

// executeCommand executes a command.
//
// To ignore an output stream, you can use either nil or io.Discard:
//
//	s.executeCommand(ctx, cmd, nil, nil, pty)       // ignore both
//	s.executeCommand(ctx, cmd, writer, nil, pty)    // ignore stderr
//	s.executeCommand(ctx, cmd, writer, writer, pty) // send both to same writer
//
// Note that if pty = true, only the stdout writer will be used.
func (s *Shell) executeCommand(ctx context.Context, cmdCfg process.Config, stdout, stderr io.Writer, pty bool) error {
	cmdStr := process.FormatCommand(cmdCfg.Path, cmdCfg.Args)

	if s.debug {
		t := time.Now()
		defer func() {
			s.Commentf("↳ Command completed in %v", round(time.Since(t)))
		}()
	}

	cmdCfg.PTY = pty
	cmdCfg.Stdout = stdout
	cmdCfg.Stderr = stderr

	if cmdCfg.Stdout == nil {
		cmdCfg.Stdout = io.Discard
	}
	if cmdCfg.Stderr == nil {
		cmdCfg.Stderr = io.Discard
	}

	if s.commandLog != nil {
		*s.commandLog = append(*s.commandLog,
			append([]string{cmdCfg.Path}, cmdCfg.Args...),
		)
	}

	if s.dryRun {
		return nil
	}

	p := process.New(logger.Discard, cmdCfg)
	s.proc.Store(p)

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("error running %q: %w", cmdStr, err)
	}

	return p.WaitResult()
}

// ExitCode extracts an exit code from an error where the platform supports
// it, otherwise returns 0 for no error and 1 for an error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if cause := new(ExitError); errors.As(err, &cause) {
		return cause.Code
	}

	if cause := new(exec.ExitError); errors.As(err, &cause) {
		return cause.ExitCode()
	}
	return 1
}

// IsExitSignaled reports whether the error is an exec.ExitError caused by
// receiving a signal.
func IsExitSignaled(err error) bool {
	if err == nil {
		return false
	}
	if exitErr := new(exec.ExitError); errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.Signaled()
		}
	}
	return false
}

// IsExitError reports whether err is an [ExitError] or [exec.ExitError].
func IsExitError(err error) bool {
	if cause := new(ExitError); errors.As(err, &cause) {
		return true
	}
	if cause := new(exec.ExitError); errors.As(err, &cause) {
		return true
	}
	return false
}

// ExitError is an error that carries a shell exit code.
type ExitError struct {
	Code int
	Err  error
}

func (ee *ExitError) Error() string { return ee.Err.Error() }

func (ee *ExitError) Unwrap() error { return ee.Err }

func round(d time.Duration) time.Duration {
	// Show roughly 5 significant digits worth of time. If the tests take 2
	// hours, nobody cares about the microseconds.
	switch {
	case d < 100*time.Microsecond:
		return d
	case d < time.Millisecond:
		return d.Round(10 * time.Nanosecond)
	case d < 10*time.Millisecond:
		return d.Round(100 * time.Nanosecond)
	case d < 100*time.Millisecond:
		return d.Round(time.Microsecond)
	case d < time.Second:
		return d.Round(10 * time.Microsecond)
	case d < 10*time.Second:
		return d.Round(100 * time.Microsecond)
	case d < time.Minute:
		return d.Round(time.Millisecond)
	case d < 10*time.Minute:
		return d.Round(10 * time.Millisecond)
	case d < time.Hour:
		return d.Round(100 * time.Millisecond)
	default:
		return d.Round(10 * time.Second)
	}
}
