package integration

import (
	"runtime"
	"testing"

	"github.com/buildkite/bintest/v3"
	"github.com/testgate/testgate/internal/shell"
)

func TestRunPassesArgsToTestCommandOnly(t *testing.T) {
	gt := NewGateTester(t)
	gt.Args = append(gt.Args,
		"--check-command", "gate-checker",
		"--test-command", "gate-tester",
		"--", "-v", "./...", "-count=1",
	)

	gt.MustMock(t, "gate-checker").Expect().AndExitWith(0)
	gt.MustMock(t, "gate-tester").Expect("-v", "./...", "-count=1").AndExitWith(0)

	gt.RunAndCheck(t)
}

func TestRunPropagatesTestExitCode(t *testing.T) {
	gt := NewGateTester(t)
	gt.Args = append(gt.Args,
		"--check-command", "gate-checker",
		"--test-command", "gate-tester",
	)

	gt.MustMock(t, "gate-checker").Expect().AndExitWith(0)
	gt.MustMock(t, "gate-tester").Expect().AndExitWith(7)

	err := gt.Run(t)
	if got, want := shell.ExitCode(err), 7; got != want {
		t.Errorf("testgate run exit code = %d, want %d\noutput:\n%s", got, want, gt.Output)
	}
	gt.CheckMocks(t)
}

func TestFailingCheckPreventsTestCommand(t *testing.T) {
	gt := NewGateTester(t)
	gt.Args = append(gt.Args,
		"--check-command", "gate-checker",
		"--test-command", "gate-tester",
	)

	gt.MustMock(t, "gate-checker").Expect().AndExitWith(3)
	gt.MustMock(t, "gate-tester").Expect().NotCalled()

	err := gt.Run(t)
	if got, want := shell.ExitCode(err), 3; got != want {
		t.Errorf("testgate run exit code = %d, want %d\noutput:\n%s", got, want, gt.Output)
	}
	gt.CheckMocks(t)
}

func TestUnsetVariableIsFatalBeforeAnythingRuns(t *testing.T) {
	gt := NewGateTester(t)
	gt.Args = append(gt.Args,
		"--check-command", "gate-checker",
		"--test-command", "gate-tester $GATE_UNDEFINED_VARIABLE",
	)

	gt.MustMock(t, "gate-checker").Expect().NotCalled()
	gt.MustMock(t, "gate-tester").Expect().NotCalled()

	err := gt.Run(t)
	if got, want := shell.ExitCode(err), 1; got != want {
		t.Errorf("testgate run exit code = %d, want %d\noutput:\n%s", got, want, gt.Output)
	}
	gt.CheckMocks(t)
}

func TestHooksRunAroundSteps(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook scripts use /bin/sh")
	}

	gt := NewGateTester(t)
	gt.Args = append(gt.Args,
		"--check-command", "gate-checker",
		"--test-command", "gate-tester",
	)

	gt.MustMock(t, "gate-checker").Expect().AndExitWith(0)
	gt.MustMock(t, "gate-tester").Expect().AndExitWith(0)

	gt.ExpectHook(t, "pre-check").Once().AndExitWith(0)
	gt.ExpectHook(t, "post-check").Once().AndExitWith(0)
	gt.ExpectHook(t, "pre-test").Once().AndExitWith(0)
	gt.ExpectHook(t, "post-test").Once().AndExitWith(0)
	gt.ExpectHook(t, "pre-exit").Once().AndExitWith(0)

	gt.RunAndCheck(t)
}

func TestHookSeesExitStatusEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook scripts use /bin/sh")
	}

	gt := NewGateTester(t)
	gt.Args = append(gt.Args,
		"--check-command", "gate-checker",
		"--test-command", "gate-tester",
	)

	gt.MustMock(t, "gate-checker").Expect().AndExitWith(0)
	gt.MustMock(t, "gate-tester").Expect().AndExitWith(6)

	gt.ExpectHook(t, "pre-exit").Once().AndCallFunc(func(c *bintest.Call) {
		if got, want := c.GetEnv("TESTGATE_CHECK_EXIT_STATUS"), "0"; got != want {
			t.Errorf("TESTGATE_CHECK_EXIT_STATUS = %q, want %q", got, want)
		}
		if got, want := c.GetEnv("TESTGATE_TEST_EXIT_STATUS"), "6"; got != want {
			t.Errorf("TESTGATE_TEST_EXIT_STATUS = %q, want %q", got, want)
		}
		if c.GetEnv("TESTGATE_RUN_ID") == "" {
			t.Errorf("TESTGATE_RUN_ID is empty, want a run ID")
		}
		c.Exit(0)
	})

	err := gt.Run(t)
	if got, want := shell.ExitCode(err), 6; got != want {
		t.Errorf("testgate run exit code = %d, want %d\noutput:\n%s", got, want, gt.Output)
	}
	gt.CheckMocks(t)
}

func TestDefaultCheckCommandSelfExecutes(t *testing.T) {
	gt := NewGateTester(t)
	gt.Args = append(gt.Args, "--test-command", "gate-tester")

	// Substitute a mock for the testgate binary so the default check
	// command (`<self> check`) is observable.
	self := gt.MustMock(t, "testgate")
	self.Expect("check").AndExitWith(0)

	gt.MustMock(t, "gate-tester").Expect().AndExitWith(0)

	gt.RunAndCheck(t, "TESTGATE_OVERRIDE_SELF="+self.Path)
}
