package clicommand

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/oleiade/reflections"
	"github.com/testgate/testgate/cliconfig"
	"github.com/testgate/testgate/internal/experiments"
	"github.com/testgate/testgate/logger"
	"github.com/urfave/cli"
)

// setupLoggerAndConfig loads the config struct for a command, creates its
// logger, replays any config-loading warnings through it, enables
// experiments into the returned context, and starts the profiler if
// requested. The returned func stops the profiler, and must be deferred.
func setupLoggerAndConfig[T any](ctx context.Context, c *cli.Context) (
	newctx context.Context,
	cfg T,
	l logger.Logger,
	f *cliconfig.File,
	done func(),
) {
	loader := cliconfig.Loader{
		CLI:                    c,
		Config:                 &cfg,
		DefaultConfigFilePaths: DefaultConfigFilePaths(),
	}
	warnings, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	l = CreateLogger(&cfg)

	// Now that we have a logger, log out the warnings that loading config generated.
	for _, warning := range warnings {
		l.Warn("%s", warning)
	}

	// Enable experiments
	if exps, err := reflections.GetField(&cfg, "Experiments"); err == nil {
		if expsSlice, ok := exps.([]string); ok {
			for _, name := range expsSlice {
				ctx, _ = experiments.EnableWithWarnings(ctx, l, name)
			}
		}
	}

	done = HandleProfileFlag(l, &cfg)

	return ctx, cfg, l, loader.File, done
}

// CreateLogger creates a logger based on the Debug, LogLevel, LogFormat and
// NoColor fields of the config struct.
func CreateLogger(cfg any) logger.Logger {
	var printer logger.Printer

	logFormat := "text"
	if format, err := reflections.GetField(cfg, "LogFormat"); err == nil {
		if formatStr, ok := format.(string); ok && formatStr != "" {
			logFormat = formatStr
		}
	}

	switch logFormat {
	case "text", "":
		textPrinter := logger.NewTextPrinter(os.Stderr)

		// Turn off color if a NoColor option is present
		if noColor, err := reflections.GetField(cfg, "NoColor"); err == nil && noColor == true {
			textPrinter.Colors = false
		} else {
			textPrinter.Colors = logger.ColorsSupported()
		}

		printer = textPrinter
	case "json":
		printer = logger.NewJSONPrinter(os.Stderr)
	default:
		fmt.Fprintf(os.Stderr, "The log format %q is invalid. Only text or json are allowed.\n", logFormat)
		os.Exit(1)
	}

	l := logger.NewConsoleLogger(printer, os.Exit)

	// --log-level, overridden by --debug.
	if levelStr, err := reflections.GetField(cfg, "LogLevel"); err == nil {
		if levelStrStr, ok := levelStr.(string); ok && levelStrStr != "" {
			level, err := logger.LevelFromString(levelStrStr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				os.Exit(1)
			}
			l.SetLevel(level)
		}
	}
	if debug, err := reflections.GetField(cfg, "Debug"); err == nil && debug == true {
		l.SetLevel(logger.DEBUG)
	}

	return l
}

// HandleProfileFlag starts a profiler based on the Profile field of the
// config struct. The returned func stops the profiler and writes out the
// profile, and must be called before the process exits.
func HandleProfileFlag(l logger.Logger, cfg any) func() {
	mode, err := reflections.GetField(cfg, "Profile")
	if err != nil {
		return func() {}
	}
	modeStr, ok := mode.(string)
	if !ok || modeStr == "" {
		return func() {}
	}

	writeProfile := func(name, path string) {
		f, err := os.Create(path)
		if err != nil {
			l.Error("Could not create %s profile %q: %v", name, path, err)
			return
		}
		defer f.Close() //nolint:errcheck // best-effort profile write
		if err := pprof.Lookup(name).WriteTo(f, 0); err != nil {
			l.Error("Could not write %s profile: %v", name, err)
		}
		l.Info("Wrote %s profile to %q", name, path)
	}

	switch modeStr {
	case "cpu":
		f, err := os.Create("cpu.pprof")
		if err != nil {
			l.Fatal("Could not create CPU profile: %v", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			l.Fatal("Could not start CPU profile: %v", err)
		}
		return func() {
			pprof.StopCPUProfile()
			f.Close() //nolint:errcheck // best-effort profile write
			l.Info("Wrote cpu profile to %q", "cpu.pprof")
		}

	case "memory", "heap":
		return func() { writeProfile("heap", "heap.pprof") }

	case "mutex":
		runtime.SetMutexProfileFraction(1)
		return func() { writeProfile("mutex", "mutex.pprof") }

	case "block":
		runtime.SetBlockProfileRate(1)
		return func() { writeProfile("block", "block.pprof") }

	default:
		l.Fatal("Unknown profile mode %q. Only cpu, memory, mutex or block are allowed.", modeStr)
		return func() {}
	}
}
