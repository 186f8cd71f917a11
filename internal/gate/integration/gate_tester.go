package integration

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/buildkite/bintest/v3"
	"github.com/testgate/testgate/internal/experiments"
	"github.com/testgate/testgate/internal/shell"
	"gotest.tools/v3/assert"
)

// This context needs to be stored here in order to pass experiments to tests,
// because testing.M can only Run (without passing arguments or context).
// In ordinary code, pass contexts as arguments!
var mainCtx = context.Background()

// GateTester invokes `testgate run` (by re-executing the test binary) with a
// temporary environment and bintest mocks for the check and test commands.
type GateTester struct {
	Name     string
	Args     []string
	Env      []string
	PathDir  string
	WorkDir  string
	HooksDir string
	Output   string

	cmd      *exec.Cmd
	cmdLock  sync.Mutex
	hookMock *bintest.Mock
	mocks    []*bintest.Mock
}

func NewGateTester(t *testing.T) *GateTester {
	t.Helper()

	pathDir, err := os.MkdirTemp("", "gate-path")
	if err != nil {
		t.Fatalf("making gate-path directory: %v", err)
	}
	workDir, err := os.MkdirTemp("", "gate-work")
	if err != nil {
		t.Fatalf("making gate-work directory: %v", err)
	}
	hooksDir, err := os.MkdirTemp("", "gate-hooks")
	if err != nil {
		t.Fatalf("making gate-hooks directory: %v", err)
	}

	gt := &GateTester{
		Name: os.Args[0],
		Args: []string{"run"},
		Env: []string{
			"TESTGATE_CHDIR=" + workDir,
			"TESTGATE_HOOKS_PATH=" + hooksDir,
			// The test binary doubles as the testgate CLI, so default
			// self-execution (e.g. the built-in checker) works. Individual
			// tests override this with a mock when they want assertions.
			"TESTGATE_OVERRIDE_SELF=" + os.Args[0],
		},
		PathDir:  pathDir,
		WorkDir:  workDir,
		HooksDir: hooksDir,
	}

	if runtime.GOOS == "windows" {
		gt.Env = append(gt.Env,
			"PATH="+pathDir+";"+os.Getenv("PATH"),
			"SystemRoot="+os.Getenv("SystemRoot"),
			"WINDIR="+os.Getenv("WINDIR"),
			"COMSPEC="+os.Getenv("COMSPEC"),
			"PATHEXT="+os.Getenv("PATHEXT"),
			"TMP="+os.Getenv("TMP"),
			"TEMP="+os.Getenv("TEMP"),
		)
	} else {
		gt.Env = append(gt.Env,
			"PATH="+pathDir+":"+os.Getenv("PATH"),
			"HOME="+os.Getenv("HOME"),
		)
	}

	// Support testing experiments
	if exps := experiments.Enabled(mainCtx); len(exps) > 0 {
		gt.Env = append(gt.Env, "TESTGATE_EXPERIMENT="+strings.Join(exps, ","))
	}

	// A shared mock that hook scripts proxy to, for ordering assertions.
	gt.hookMock = gt.MustMock(t, "testgate-hooks")

	t.Cleanup(func() {
		if err := gt.Close(); err != nil {
			t.Errorf("GateTester.Close() error = %v", err)
		}
	})

	return gt
}

// MustMock creates a mock binary on the tester's PATH.
func (gt *GateTester) MustMock(t *testing.T, name string) *bintest.Mock {
	t.Helper()
	mock, err := bintest.NewMock(filepath.Join(gt.PathDir, name))
	if err != nil {
		t.Fatalf("bintest.NewMock(%q) error = %v", name, err)
	}
	gt.mocks = append(gt.mocks, mock)
	return mock
}

// ExpectHook writes a hook script that proxies to the shared hook mock, and
// returns the expectation for it being called.
func (gt *GateTester) ExpectHook(t *testing.T, name string) *bintest.Expectation {
	t.Helper()

	hookScript := filepath.Join(gt.HooksDir, name)
	var body string
	if runtime.GOOS == "windows" {
		body = fmt.Sprintf("@\"%s\" %s", gt.hookMock.Path, name)
		hookScript += ".bat"
	} else {
		body = "#!/bin/sh\n" + gt.hookMock.Path + " " + name
	}

	if err := os.WriteFile(hookScript, []byte(body), 0o755); err != nil {
		t.Fatalf("writing hook script %q: %v", hookScript, err)
	}

	return gt.hookMock.Expect(name)
}

// Run invokes `testgate run` with the tester's environment plus env, and
// returns the process error (nil for exit 0).
func (gt *GateTester) Run(t *testing.T, env ...string) error {
	t.Helper()

	gt.cmdLock.Lock()
	gt.cmd = exec.Command(gt.Name, gt.Args...)

	buf := &outputBuffer{}
	if os.Getenv("DEBUG_GATE") == "1" {
		w := newTestLogWriter(t)
		gt.cmd.Stdout = io.MultiWriter(buf, w)
		gt.cmd.Stderr = io.MultiWriter(buf, w)
	} else {
		gt.cmd.Stdout = buf
		gt.cmd.Stderr = buf
	}

	gt.cmd.Env = append(append([]string{}, gt.Env...), env...)

	if err := gt.cmd.Start(); err != nil {
		gt.cmdLock.Unlock()
		return err
	}
	gt.cmdLock.Unlock()

	err := gt.cmd.Wait()
	gt.Output = buf.String()
	return err
}

// RunAndCheck runs the gate, requires exit 0, and checks all mocks.
func (gt *GateTester) RunAndCheck(t *testing.T, env ...string) {
	t.Helper()

	if err := gt.Run(t, env...); shell.ExitCode(err) != 0 {
		assert.NilError(t, err, "testgate output:\n%s", gt.Output)
	}

	gt.CheckMocks(t)
}

func (gt *GateTester) CheckMocks(t *testing.T) {
	t.Helper()
	for _, mock := range gt.mocks {
		mock.Check(t)
	}
}

func (gt *GateTester) Close() error {
	for _, mock := range gt.mocks {
		if err := mock.Close(); err != nil {
			return err
		}
	}
	for _, dir := range []string{gt.PathDir, gt.WorkDir, gt.HooksDir} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}

// outputBuffer is an io.Writer safe for concurrent use by subprocess pipes.
type outputBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *outputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

type testLogWriter struct {
	t *testing.T
}

func newTestLogWriter(t *testing.T) *testLogWriter {
	return &testLogWriter{t: t}
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
