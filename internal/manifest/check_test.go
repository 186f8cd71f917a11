package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeTree creates the named empty files (slash-separated, relative) under
// a fresh temp dir and returns its path.
func writeTree(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("os.MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("os.WriteFile() error = %v", err)
		}
	}
	return root
}

func TestCheckCleanWorktree(t *testing.T) {
	t.Parallel()

	root := writeTree(t, "go.mod", "main.go", "internal/gate/gate.go", "README.md")

	c := &Checker{
		Manifest: &Manifest{
			Require: []string{"go.mod", "**.go"},
			Allow:   []string{"README.md"},
		},
		Root:   root,
		Source: SourceWorktree,
	}

	report, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("c.Check() error = %v", err)
	}
	if !report.Clean() {
		t.Errorf("report.Clean() = false, want true (report = %+v)", report)
	}
	if got, want := report.Checked, 4; got != want {
		t.Errorf("report.Checked = %d, want %d", got, want)
	}
}

func TestCheckReportsMissingAndUnexpected(t *testing.T) {
	t.Parallel()

	root := writeTree(t, "main.go", "scratch.txt")

	c := &Checker{
		Manifest: &Manifest{
			Require: []string{"go.mod", "**.go"},
		},
		Root:   root,
		Source: SourceWorktree,
	}

	report, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("c.Check() error = %v", err)
	}

	if diff := cmp.Diff([]string{"go.mod"}, report.Missing); diff != "" {
		t.Errorf("report.Missing diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"scratch.txt"}, report.Unexpected); diff != "" {
		t.Errorf("report.Unexpected diff (-want +got):\n%s", diff)
	}
}

func TestCheckPrunesSubtrees(t *testing.T) {
	t.Parallel()

	root := writeTree(t, "go.mod", "vendor/dep/dep.go", "vendor/modules.txt")

	c := &Checker{
		Manifest: &Manifest{
			Require: []string{"go.mod"},
			Prune:   []string{"vendor"},
		},
		Root:   root,
		Source: SourceWorktree,
	}

	report, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("c.Check() error = %v", err)
	}
	if !report.Clean() {
		t.Errorf("report.Clean() = false, want true (report = %+v)", report)
	}
	if got, want := report.Checked, 1; got != want {
		t.Errorf("report.Checked = %d, want %d", got, want)
	}
}

func TestCheckRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	c := &Checker{
		Manifest: &Manifest{Require: []string{"{unclosed"}},
		Root:     t.TempDir(),
		Source:   SourceWorktree,
	}

	if _, err := c.Check(context.Background()); err == nil {
		t.Errorf("c.Check() = nil, want an error for an invalid pattern")
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{in: "", want: SourceWorktree},
		{in: "worktree", want: SourceWorktree},
		{in: "git", want: SourceGit},
		{in: "svn", wantErr: true},
	}

	for _, test := range tests {
		got, err := ParseSource(test.in)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseSource(%q) error = nil, want an error", test.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSource(%q) error = %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseSource(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestPrunedMatchesAncestors(t *testing.T) {
	t.Parallel()

	prune, err := compilePatterns([]string{"node_modules"})
	if err != nil {
		t.Fatalf("compilePatterns() error = %v", err)
	}

	if !pruned(prune, "node_modules/left-pad/index.js") {
		t.Errorf("pruned(node_modules/left-pad/index.js) = false, want true")
	}
	if pruned(prune, "src/index.js") {
		t.Errorf("pruned(src/index.js) = true, want false")
	}
}
