package clicommand

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/testgate/testgate/env"
	"github.com/urfave/cli"
)

const envDumpHelpDescription = `Usage:

    testgate env dump [options]

Description:

Prints out the environment of the current process as a JSON object, easily
parsable by other programs. Useful inside lifecycle hooks to see exactly
what the gate exported.

Example:

    $ testgate env dump --format json-pretty`

type EnvDumpConfig struct {
	Format string `cli:"format"`

	GlobalConfig
}

var EnvDumpCommand = cli.Command{
	Name:        "dump",
	Usage:       "Print the environment of the current process as a JSON object",
	Description: envDumpHelpDescription,
	Flags: flatten([]cli.Flag{
		cli.StringFlag{
			Name:   "format",
			Usage:  "Output format; json or json-pretty",
			EnvVar: "TESTGATE_ENV_DUMP_FORMAT",
			Value:  "json",
		},
	}, globalFlags),
	Action: func(c *cli.Context) error {
		_, cfg, _, _, done := setupLoggerAndConfig[EnvDumpConfig](context.Background(), c)
		defer done()

		environ := os.Environ()
		envMap := make(map[string]string, len(environ))

		for _, e := range environ {
			if k, v, ok := env.Split(e); ok {
				envMap[k] = v
			}
		}

		enc := json.NewEncoder(c.App.Writer)
		if cfg.Format == "json-pretty" {
			enc.SetIndent("", "  ")
		}

		if err := enc.Encode(envMap); err != nil {
			return fmt.Errorf("error marshalling JSON: %w", err)
		}

		return nil
	},
}

var EnvCommand = cli.Command{
	Name:  "env",
	Usage: "Utilities for inspecting the environment",
	Subcommands: []cli.Command{
		EnvDumpCommand,
	},
}
