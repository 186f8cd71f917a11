package process_test

import (
	"context"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/testgate/testgate/logger"
	"github.com/testgate/testgate/process"
)

func TestProcessCapturesOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr process.Buffer
	p := process.New(logger.Discard, process.Config{
		Path:   os.Args[0],
		Env:    []string{"TEST_MAIN=output"},
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("p.Run() error = %v", err)
	}
	<-p.Done()

	if err := p.WaitResult(); err != nil {
		t.Errorf("p.WaitResult() = %v, want nil", err)
	}
	if got, want := stdout.String(), "llamas1\nllamas2\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if got, want := stderr.String(), "alpacas1\nalpacas2\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
	if ws := p.WaitStatus(); ws == nil || ws.ExitStatus() != 0 {
		t.Errorf("p.WaitStatus() = %v, want exit status 0", ws)
	}
}

func TestProcessReportsExitStatus(t *testing.T) {
	t.Parallel()

	p := process.New(logger.Discard, process.Config{
		Path: os.Args[0],
		Env:  []string{"TEST_MAIN=exiter", "TEST_MAIN_EXIT=24"},
	})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("p.Run() error = %v", err)
	}

	if err := p.WaitResult(); err == nil {
		t.Errorf("p.WaitResult() = nil, want an exit error")
	}
	if got, want := p.WaitStatus().ExitStatus(), 24; got != want {
		t.Errorf("p.WaitStatus().ExitStatus() = %d, want %d", got, want)
	}
}

func TestProcessRunFailsForMissingExecutable(t *testing.T) {
	t.Parallel()

	p := process.New(logger.Discard, process.Config{
		Path: "/definitely/not/a/real/binary",
	})

	if err := p.Run(context.Background()); err == nil {
		t.Errorf("p.Run() = nil, want an error for a missing executable")
	}

	// The channels must still close so waiters don't hang.
	<-p.Started()
	<-p.Done()
}

func TestProcessInterruptedOnCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal delivery is not supported on windows")
	}
	t.Parallel()

	var stdout process.Buffer
	p := process.New(logger.Discard, process.Config{
		Path:            os.Args[0],
		Env:             []string{"TEST_MAIN=sleeper"},
		Stdout:          &stdout,
		InterruptSignal: process.SIGTERM,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-p.Started()
		// Give the helper a moment to print and block in its sleep.
		for range 100 {
			if strings.Contains(stdout.String(), "Ready") {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		cancel()
	}()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("p.Run() error = %v", err)
	}

	ws := p.WaitStatus()
	if ws == nil {
		t.Fatalf("p.WaitStatus() = nil, want a wait status")
	}
	if !ws.Signaled() {
		t.Errorf("ws.Signaled() = false, want true")
	}
}

func TestInterruptAndTerminateAreNilSafe(t *testing.T) {
	t.Parallel()

	var p *process.Process
	if err := p.Interrupt(); err != nil {
		t.Errorf("(nil).Interrupt() = %v, want nil", err)
	}
	if err := p.Terminate(); err != nil {
		t.Errorf("(nil).Terminate() = %v, want nil", err)
	}
}
