package main

import (
	"os"

	"github.com/testgate/testgate/clicommand"
	"github.com/testgate/testgate/version"
	"github.com/urfave/cli"
)

var appHelpTemplate = `testgate verifies a project's file manifest, then runs its test suite.

Usage:

  {{.Name}} <command> [options...] [arguments...]

Available commands are:

  {{range .Commands}}{{.Name}}{{with .ShortName}}, {{.}}{{end}}{{ "\t" }}{{.Usage}}
  {{end}}
Use "{{.Name}} <command> --help" for more information about a command.

`

var subcommandHelpTemplate = `Usage:

  {{.Name}} {{if .Subcommands}}<command>{{end}} [options...]

Available commands are:

   {{range .Subcommands}}{{.Name}}{{with .ShortName}}, {{.}}{{end}}{{ "\t" }}{{.Usage}}
   {{end}}
Use "testgate {{.Name}} <command> --help" for more information about a command.

`

var commandHelpTemplate = `{{.Description}}

Options:

   {{range .Flags}}{{.}}
   {{end}}
`

func printVersion(c *cli.Context) {
	println(version.FullVersion())
}

func main() {
	cli.AppHelpTemplate = appHelpTemplate
	cli.CommandHelpTemplate = commandHelpTemplate
	cli.SubcommandHelpTemplate = subcommandHelpTemplate
	cli.VersionPrinter = printVersion

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
