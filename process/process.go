// Package process provides a helper for running and managing a subprocess.
//
// It is intended for internal use by testgate only.
package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/testgate/testgate/logger"
)

const defaultSignalGracePeriod = 9 * time.Second

// Config defines how a Process should be started and run.
type Config struct {
	Path              string
	Args              []string
	Env               []string
	Dir               string
	Stdin             io.Reader
	Stdout            io.Writer
	Stderr            io.Writer
	PTY               bool
	InterruptSignal   Signal
	SignalGracePeriod time.Duration
}

// Process is a manager for a subprocess: it starts it, waits for it, and can
// signal it on cancellation.
type Process struct {
	logger logger.Logger
	conf   Config

	command *exec.Cmd

	mu         sync.Mutex
	pid        int
	started    chan struct{}
	done       chan struct{}
	status     WaitStatus
	waitResult error
}

// WaitStatus is the status of a process after it has exited. It is
// platform-neutral; syscall.WaitStatus satisfies it on all supported
// platforms.
type WaitStatus interface {
	ExitStatus() int
	Signaled() bool
	Signal() syscall.Signal
}

// New returns a new Process for the given config. Unset output streams
// default to io.Discard, the interrupt signal defaults to SIGTERM, and the
// signal grace period defaults to 9 seconds.
func New(l logger.Logger, c Config) *Process {
	if c.Stdout == nil {
		c.Stdout = io.Discard
	}
	if c.Stderr == nil {
		c.Stderr = io.Discard
	}
	if c.InterruptSignal == 0 {
		c.InterruptSignal = SIGTERM
	}
	if c.SignalGracePeriod <= 0 {
		c.SignalGracePeriod = defaultSignalGracePeriod
	}

	return &Process{
		logger:  l,
		conf:    c,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run the command and block until it exits. If the context is cancelled while
// the process is running, the process is sent the interrupt signal, and then
// terminated after the signal grace period.
//
// Run returns an error only if the process could not be started; the result
// of waiting for the process is available from WaitResult once Done is
// closed.
func (p *Process) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.command != nil {
		p.mu.Unlock()
		return errors.New("process is already running")
	}
	p.command = exec.Command(p.conf.Path, p.conf.Args...)
	p.command.Env = p.conf.Env
	p.command.Dir = p.conf.Dir
	p.mu.Unlock()

	var copyWG sync.WaitGroup

	if p.conf.PTY {
		f, err := startPTY(p.command)
		if err != nil {
			close(p.started)
			close(p.done)
			return err
		}

		copyWG.Add(1)
		go func() {
			defer copyWG.Done()
			_, err := io.Copy(p.conf.Stdout, f)
			if pe := new(os.PathError); errors.As(err, &pe) && pe.Err == syscall.EIO {
				// The PTY closed; not an error worth reporting.
				err = nil
			}
			if err != nil {
				p.logger.Error("[Process] PTY output copy failed: %v", err)
			}
		}()
	} else {
		p.command.Stdout = p.conf.Stdout
		p.command.Stderr = p.conf.Stderr
		p.command.Stdin = p.conf.Stdin
		setupProcessGroup(p.command)

		if err := p.command.Start(); err != nil {
			close(p.started)
			close(p.done)
			return err
		}
	}

	p.mu.Lock()
	p.pid = p.command.Process.Pid
	p.mu.Unlock()
	close(p.started)

	p.logger.Debug("[Process] %s is running with PID %d", p.conf.Path, p.pid)

	// Watch the context, and signal the process if it is cancelled before the
	// process exits.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-watchDone:
			return
		case <-ctx.Done():
		}

		p.logger.Debug("[Process] Context cancelled, interrupting PID %d", p.pid)
		if err := p.Interrupt(); err != nil {
			p.logger.Error("[Process] Error interrupting PID %d: %v", p.pid, err)
		}

		select {
		case <-watchDone:
		case <-time.After(p.conf.SignalGracePeriod):
			p.logger.Debug("[Process] Grace period expired, terminating PID %d", p.pid)
			if err := p.Terminate(); err != nil {
				p.logger.Error("[Process] Error terminating PID %d: %v", p.pid, err)
			}
		}
	}()

	err := p.command.Wait()
	close(watchDone)
	copyWG.Wait()

	p.mu.Lock()
	p.waitResult = err
	if state := p.command.ProcessState; state != nil {
		if ws, ok := state.Sys().(syscall.WaitStatus); ok {
			p.status = ws
		}
	}
	p.mu.Unlock()
	close(p.done)

	return nil
}

// Started returns a channel that is closed once the process has started.
func (p *Process) Started() <-chan struct{} {
	return p.started
}

// Done returns a channel that is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Pid returns the process ID. Only valid after Started is closed.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// WaitResult returns the result of waiting for the process (as returned by
// exec.Cmd.Wait). Only valid once Done is closed.
func (p *Process) WaitResult() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitResult
}

// WaitStatus returns the exit status of the process. Only valid once Done is
// closed; nil if the process never ran.
func (p *Process) WaitStatus() WaitStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Interrupt sends the configured interrupt signal to the process group.
// It is safe to call on a nil Process.
func (p *Process) Interrupt() error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return nil
	}
	return p.signalGroup(p.conf.InterruptSignal)
}

// Terminate forcibly kills the process group. It is safe to call on a nil
// Process.
func (p *Process) Terminate() error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return nil
	}
	return p.terminateGroup()
}
