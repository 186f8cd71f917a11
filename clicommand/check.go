package clicommand

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/testgate/testgate/internal/manifest"
	"github.com/testgate/testgate/internal/shell"
	"github.com/urfave/cli"
)

const checkHelpDescription = `Usage:

    testgate check [options...]

Description:

Checks the project's files against its manifest. Every ′require′ pattern
must match at least one file, and every file must match a ′require′ or
′allow′ pattern. Subtrees matching ′prune′ patterns are not scanned.

Exits 0 when the project matches the manifest, 1 when it doesn't, and 2
when the manifest itself (or the configuration) is unusable.

This is the default check command for ′testgate run′.

Example:

    $ testgate check
    $ testgate check --manifest-path ci/manifest.yml --source git`

type CheckConfig struct {
	ManifestPath string `cli:"manifest-path" normalize:"filepath"`
	Chdir        string `cli:"chdir" normalize:"filepath"`
	Source       string `cli:"source"`

	// Deprecated: renamed to manifest-path
	Manifest string `cli:"manifest" deprecated-and-renamed-to:"ManifestPath"`

	GlobalConfig
}

var CheckCommand = cli.Command{
	Name:        "check",
	Usage:       "Check the project's files against its manifest",
	Description: checkHelpDescription,
	Flags: flatten([]cli.Flag{
		cli.StringFlag{
			Name:   "manifest-path",
			Usage:  "Path to the manifest file",
			Value:  manifest.DefaultPath,
			EnvVar: "TESTGATE_MANIFEST_PATH",
		},
		cli.StringFlag{
			Name:   "manifest",
			Hidden: true,
			EnvVar: "TESTGATE_MANIFEST",
		},
		cli.StringFlag{
			Name:   "chdir",
			Usage:  "The project directory to check. Defaults to the current directory",
			Value:  ".",
			EnvVar: "TESTGATE_CHDIR",
		},
		cli.StringFlag{
			Name:   "source",
			Usage:  "Where to list files from, either worktree or git",
			Value:  "worktree",
			EnvVar: "TESTGATE_CHECK_SOURCE",
		},
	}, globalFlags),
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		ctx, cfg, l, _, done := setupLoggerAndConfig[CheckConfig](ctx, c)
		defer done()

		m, err := manifest.Load(cfg.ManifestPath)
		if err != nil {
			return NewExitError(2, err)
		}

		source, err := manifest.ParseSource(cfg.Source)
		if err != nil {
			return NewExitError(2, err)
		}

		checker := &manifest.Checker{
			Manifest: m,
			Root:     cfg.Chdir,
			Source:   source,
		}
		if source == manifest.SourceGit {
			sh, err := shell.New(
				shell.WithLogger(shell.DiscardLogger),
				shell.WithWD(cfg.Chdir),
				shell.WithDebug(cfg.Debug),
			)
			if err != nil {
				return NewExitError(2, err)
			}
			checker.Shell = sh
		}

		report, err := checker.Check(ctx)
		if err != nil {
			return NewExitError(2, err)
		}

		if report.Clean() {
			l.Info("Checked %s files against %s, all good", humanize.Comma(int64(report.Checked)), cfg.ManifestPath)
			return nil
		}

		for _, pattern := range report.Missing {
			fmt.Printf("missing: no file matches required pattern %q\n", pattern)
		}
		for _, file := range report.Unexpected {
			fmt.Printf("unexpected: %s\n", file)
		}
		l.Error("Checked %s files against %s: %s missing patterns, %s unexpected files",
			humanize.Comma(int64(report.Checked)), cfg.ManifestPath,
			humanize.Comma(int64(len(report.Missing))), humanize.Comma(int64(len(report.Unexpected))))

		return NewSilentExitError(1)
	},
}
