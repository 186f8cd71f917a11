// Package clicommand implements the testgate subcommands.
package clicommand

import (
	"path/filepath"

	"github.com/testgate/testgate/internal/osutil"
	"github.com/urfave/cli"
)

var ConfigFlag = cli.StringFlag{
	Name:   "config",
	Usage:  "Path to a configuration file",
	EnvVar: "TESTGATE_CONFIG",
}

var DebugFlag = cli.BoolFlag{
	Name:   "debug",
	Usage:  "Enable debug mode. Synonym for `--log-level debug`. Takes precedence over `--log-level`",
	EnvVar: "TESTGATE_DEBUG",
}

var LogLevelFlag = cli.StringFlag{
	Name:   "log-level",
	Value:  "notice",
	Usage:  "Set the log level, either debug, info, error, warn, fatal",
	EnvVar: "TESTGATE_LOG_LEVEL",
}

var LogFormatFlag = cli.StringFlag{
	Name:   "log-format",
	Value:  "text",
	Usage:  "The format to use for the logger output, either text or json",
	EnvVar: "TESTGATE_LOG_FORMAT",
}

var NoColorFlag = cli.BoolFlag{
	Name:   "no-color",
	Usage:  "Don't show colors in logging",
	EnvVar: "TESTGATE_NO_COLOR",
}

var ExperimentsFlag = cli.StringSliceFlag{
	Name:   "experiment",
	Value:  &cli.StringSlice{},
	Usage:  "Enable experimental features",
	EnvVar: "TESTGATE_EXPERIMENT",
}

var ProfileFlag = cli.StringFlag{
	Name:   "profile",
	Usage:  "Enable a profiling mode, either cpu, memory, mutex or block",
	EnvVar: "TESTGATE_PROFILE",
}

// GlobalConfig is embedded in every command's config struct, binding the
// global flags.
type GlobalConfig struct {
	Debug       bool     `cli:"debug"`
	LogLevel    string   `cli:"log-level"`
	LogFormat   string   `cli:"log-format"`
	NoColor     bool     `cli:"no-color"`
	Experiments []string `cli:"experiment" normalize:"list"`
	Profile     string   `cli:"profile"`
}

var globalFlags = []cli.Flag{
	ConfigFlag,
	NoColorFlag,
	DebugFlag,
	LogLevelFlag,
	LogFormatFlag,
	ExperimentsFlag,
	ProfileFlag,
}

// DefaultConfigFilePaths returns the paths searched for a config file when
// --config isn't given: testgate.cfg next to the current directory, then in
// the user's home.
func DefaultConfigFilePaths() (paths []string) {
	paths = []string{
		"testgate.cfg",
	}
	if home, err := osutil.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".testgate", "testgate.cfg"))
	}
	return paths
}

func flatten(flagSets ...[]cli.Flag) []cli.Flag {
	length := 0
	for _, flagSet := range flagSets {
		length += len(flagSet)
	}

	flat := make([]cli.Flag, 0, length)
	for _, flagSet := range flagSets {
		flat = append(flat, flagSet...)
	}

	return flat
}
