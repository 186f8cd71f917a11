package gate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/testgate/testgate/env"
	"github.com/testgate/testgate/internal/experiments"
	"github.com/testgate/testgate/internal/hook"
	"github.com/testgate/testgate/process"
)

// runHook finds and runs one lifecycle hook. A missing hook is not an
// error. The hook runs with the gate environment plus extra, and its output
// is prefixed with the hook's name.
func (g *Gate) runHook(ctx context.Context, name string, extra *env.Environment) error {
	if g.conf.HooksPath == "" {
		return nil
	}

	path, err := hook.Find(g.conf.HooksPath, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding %s hook: %w", name, err)
	}

	g.shell.Headerf("Running %s hook", name)

	var out = g.shell.Writer
	if experiments.IsEnabled(ctx, experiments.ANSITimestamps) {
		out = process.NewTimestamper(out)
	}
	prefixed := process.NewPrefixer(out, func() string {
		return fmt.Sprintf("[%s] ", name)
	})

	sh := g.shell.CloneWithWriter(prefixed)
	if extra == nil {
		extra = env.New()
	}
	return sh.RunWithEnv(ctx, extra, path)
}

// runAdvisoryHook runs a hook whose failure is normally just a warning.
// With the strict-hook-exit-codes experiment enabled, a failure ends the
// run with exit code 1.
func (g *Gate) runAdvisoryHook(ctx context.Context, name string) int {
	err := g.runHook(ctx, name, nil)
	if err == nil {
		return 0
	}
	if experiments.IsEnabled(ctx, experiments.StrictHookExitCodes) {
		g.shell.Errorf("%s hook failed: %v", name, err)
		return 1
	}
	g.shell.Warningf("%s hook failed: %v", name, err)
	return 0
}
