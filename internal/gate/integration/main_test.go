package integration

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/buildkite/bintest/v3"
	"github.com/testgate/testgate/clicommand"
	"github.com/testgate/testgate/internal/experiments"
	"github.com/testgate/testgate/version"
	"github.com/urfave/cli"
)

// TestMain is a dual-mode binary: run normally it runs the test suite, but
// run with arguments it behaves as the testgate CLI, so the tests can invoke
// the real command surface by re-executing themselves.
func TestMain(m *testing.M) {
	if len(os.Args) <= 1 || strings.HasPrefix(os.Args[1], "-test.") {
		if os.Getenv("BINTEST_DEBUG") == "1" {
			bintest.Debug = true
		}

		// Support running the test suite against a given experiment
		if exp := os.Getenv("TEST_EXPERIMENT"); exp != "" {
			mainCtx, _ = experiments.Enable(mainCtx, exp)
			fmt.Fprintf(os.Stderr, "!!! Enabling experiment %q for test suite\n", exp)
		}

		// Start a server to share between the bintest mocks
		if _, err := bintest.StartServer(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting server: %v", err)
			os.Exit(1)
		}

		os.Exit(m.Run())
	}

	app := cli.NewApp()
	app.Name = "testgate"
	app.Version = version.Version()
	app.Commands = []cli.Command{
		clicommand.RunCommand,
		clicommand.CheckCommand,
		clicommand.EnvCommand,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(clicommand.PrintMessageAndReturnExitCode(err))
	}
}
