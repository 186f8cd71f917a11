package cliconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testgate/testgate/cliconfig"
	"github.com/urfave/cli"
)

type testConfig struct {
	Command  string   `cli:"command"`
	Suites   []string `cli:"suite" normalize:"list"`
	Parallel bool     `cli:"parallel"`
	Args     []string `cli:"arg:*"`

	// Deprecated: renamed to command
	OldCommand string `cli:"old-command" deprecated-and-renamed-to:"Command"`
}

var testFlags = []cli.Flag{
	cli.StringFlag{Name: "config"},
	cli.StringFlag{Name: "command", EnvVar: "TEST_LOADER_COMMAND"},
	cli.StringSliceFlag{Name: "suite", Value: &cli.StringSlice{}},
	cli.BoolFlag{Name: "parallel"},
	cli.StringFlag{Name: "old-command", Hidden: true},
}

// load runs a one-command app so the loader gets a real cli.Context.
func load(t *testing.T, cfg *testConfig, args ...string) []string {
	t.Helper()

	var warnings []string
	app := cli.NewApp()
	app.Name = "loader-test"
	app.Commands = []cli.Command{{
		Name:  "go",
		Flags: testFlags,
		Action: func(c *cli.Context) error {
			loader := cliconfig.Loader{CLI: c, Config: cfg}
			w, err := loader.Load()
			require.NoError(t, err)
			warnings = w
			return nil
		},
	}}

	require.NoError(t, app.Run(append([]string{"loader-test", "go"}, args...)))
	return warnings
}

func TestLoadFromFlagsAndArgs(t *testing.T) {
	var cfg testConfig
	load(t, &cfg, "--command", "go test", "--suite", "unit,integration", "--parallel", "--", "-count=1", "./...")

	assert.Equal(t, "go test", cfg.Command)
	assert.Equal(t, []string{"unit", "integration"}, cfg.Suites)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, []string{"-count=1", "./..."}, cfg.Args)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TEST_LOADER_COMMAND", "npm test")

	var cfg testConfig
	load(t, &cfg)

	assert.Equal(t, "npm test", cfg.Command)
}

func TestLoadFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loader-test.cfg")
	require.NoError(t, os.WriteFile(path, []byte("command=\"make check\"\nparallel=true\n"), 0o644))

	var cfg testConfig
	load(t, &cfg, "--config", path)

	assert.Equal(t, "make check", cfg.Command)
	assert.True(t, cfg.Parallel)
}

func TestFlagOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loader-test.cfg")
	require.NoError(t, os.WriteFile(path, []byte("command=from-file\n"), 0o644))

	var cfg testConfig
	load(t, &cfg, "--config", path, "--command", "from-flag")

	assert.Equal(t, "from-flag", cfg.Command)
}

func TestDeprecatedRenameCopiesValueAndWarns(t *testing.T) {
	var cfg testConfig
	warnings := load(t, &cfg, "--old-command", "legacy test")

	assert.Equal(t, "legacy test", cfg.Command)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "renamed")
}

func TestMissingConfigFileIsAnError(t *testing.T) {
	app := cli.NewApp()
	app.Name = "loader-test"
	app.Commands = []cli.Command{{
		Name:  "go",
		Flags: testFlags,
		Action: func(c *cli.Context) error {
			loader := cliconfig.Loader{CLI: c, Config: &testConfig{}}
			_, err := loader.Load()
			assert.Error(t, err)
			return nil
		},
	}}
	require.NoError(t, app.Run([]string{"loader-test", "go", "--config", filepath.Join(t.TempDir(), "nope.cfg")}))
}
