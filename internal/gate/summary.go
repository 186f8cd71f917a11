package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/testgate/testgate/internal/hook"
	"github.com/testgate/testgate/logger"
	"github.com/testgate/testgate/process"
	"github.com/testgate/testgate/version"
)

// teardownTimeout bounds the pre-exit hook and summary write once the run
// itself is over, even when the run context has been canceled.
const teardownTimeout = 30 * time.Second

// StepSummary records how one step went.
type StepSummary struct {
	Name       string   `json:"name"`
	Command    string   `json:"command"`
	ExitStatus int      `json:"exit_status"`
	DurationMS int64    `json:"duration_ms"`
	OutputTail []string `json:"output_tail,omitempty"`
}

// Summary is the JSON document written to --summary-file.
type Summary struct {
	RunID      string        `json:"run_id"`
	Version    string        `json:"version"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	ExitStatus int           `json:"exit_status"`
	Steps      []StepSummary `json:"steps"`
}

func newSummary() *Summary {
	return &Summary{
		Version:   version.Version(),
		StartedAt: time.Now().UTC(),
	}
}

// addStep records a completed step. Output is only kept for failed steps,
// and only the last few lines of it.
func (s *Summary) addStep(name string, argv []string, code int, d time.Duration, tail *process.Buffer) {
	step := StepSummary{
		Name:       name,
		Command:    process.FormatCommand(argv[0], argv[1:]),
		ExitStatus: code,
		DurationMS: d.Milliseconds(),
	}
	if code != 0 {
		step.OutputTail = lastLines(tail.String(), outputTailLines)
	}
	s.Steps = append(s.Steps, step)
}

// lastLines returns up to n trailing lines of out.
func lastLines(out string, n int) []string {
	var lines []string
	scanner := process.NewScanner(logger.Discard)
	// Reading from a string can't fail.
	_ = scanner.ScanLines(strings.NewReader(out), func(line string) {
		lines = append(lines, line)
	})
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func (s *Summary) write(path string) error {
	s.FinishedAt = time.Now().UTC()

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	b = append(b, '\n')

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing summary to %q: %w", path, err)
	}
	return nil
}

// teardown runs the pre-exit hook and writes the summary file. Nothing here
// may change the run's exit code, so every failure is only a warning. It
// runs even when the run context has been canceled.
func (g *Gate) teardown(ctx context.Context, exitCode int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	// If resolution never completed, the hooks path may contain unresolved
	// variable references, and nothing external may be spawned anyway.
	if g.resolved {
		if err := g.runHook(ctx, hook.PreExit, nil); err != nil {
			g.shell.Warningf("%s hook failed: %v", hook.PreExit, err)
		}
	}

	if g.conf.SummaryFile != "" {
		g.summary.RunID, _ = g.environ.Get("TESTGATE_RUN_ID")
		g.summary.ExitStatus = exitCode
		if err := g.summary.write(g.conf.SummaryFile); err != nil {
			g.shell.Warningf("Failed to write run summary: %v", err)
		}
	}
}
