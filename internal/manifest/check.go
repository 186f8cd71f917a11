package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/testgate/testgate/internal/shell"
)

// Source selects where the checker finds the files to check.
type Source string

const (
	// SourceWorktree scans the filesystem under the project root.
	SourceWorktree Source = "worktree"

	// SourceGit asks git for tracked and untracked-but-not-ignored files.
	SourceGit Source = "git"
)

// ParseSource validates a source name from configuration.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceWorktree, SourceGit:
		return Source(s), nil
	case "":
		return SourceWorktree, nil
	default:
		return "", fmt.Errorf("unknown manifest source %q (want %q or %q)", s, SourceWorktree, SourceGit)
	}
}

// Report is the outcome of checking a file listing against a manifest.
type Report struct {
	// Checked is how many files were examined.
	Checked int

	// Missing holds require patterns that matched no file.
	Missing []string

	// Unexpected holds files matched by no require or allow pattern.
	Unexpected []string
}

// Clean reports whether the check found no problems.
func (r *Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0
}

// Checker runs a manifest against a project tree.
type Checker struct {
	Manifest *Manifest

	// Root is the project directory the manifest applies to.
	Root string

	// Source selects where file listings come from.
	Source Source

	// Shell runs git for SourceGit. Unused for SourceWorktree.
	Shell *shell.Shell
}

// Check lists the project's files and matches them against the manifest.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	require, err := compilePatterns(c.Manifest.Require)
	if err != nil {
		return nil, err
	}
	allow, err := compilePatterns(c.Manifest.Allow)
	if err != nil {
		return nil, err
	}
	prune, err := compilePatterns(c.Manifest.Prune)
	if err != nil {
		return nil, err
	}

	var files []string
	switch c.Source {
	case SourceGit:
		files, err = c.gitFiles(ctx)
	default:
		files, err = c.worktreeFiles(prune)
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	report := &Report{Checked: len(files)}
	matched := make([]bool, len(require))

	for _, file := range files {
		hit := false
		for i, p := range require {
			if p.pattern.Match(file) {
				matched[i] = true
				hit = true
			}
		}
		if hit {
			continue
		}
		for _, p := range allow {
			if p.pattern.Match(file) {
				hit = true
				break
			}
		}
		if !hit {
			report.Unexpected = append(report.Unexpected, file)
		}
	}

	for i, p := range require {
		if !matched[i] {
			report.Missing = append(report.Missing, p.source)
		}
	}
	sort.Strings(report.Missing)

	return report, nil
}

// worktreeFiles walks the project root, skipping pruned subtrees. Paths are
// returned slash-separated and relative to the root.
func (c *Checker) worktreeFiles(prune []compiled) ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(c.Root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, p := range prune {
			if p.pattern.Match(rel) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning worktree %q: %w", c.Root, err)
	}
	return files, nil
}

// gitFiles asks git for the files it would consider part of the project:
// everything tracked, plus untracked files that aren't ignored. Pruned
// paths are still filtered, since git has no notion of them.
func (c *Checker) gitFiles(ctx context.Context) ([]string, error) {
	if c.Shell == nil {
		return nil, fmt.Errorf("git source requires a shell")
	}
	out, err := c.Shell.RunAndCapture(ctx, "git", "-C", c.Root,
		"ls-files", "--cached", "--others", "--exclude-standard",
	)
	if err != nil {
		return nil, fmt.Errorf("listing files with git: %w", err)
	}

	prune, err := compilePatterns(c.Manifest.Prune)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range strings.Split(out, "\n") {
		f = strings.TrimSpace(f)
		if f == "" || pruned(prune, f) {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// pruned reports whether a slash-separated relative path, or any of its
// ancestor directories, matches a prune pattern. git lists files only, so
// a pruned directory has to be matched through its children.
func pruned(prune []compiled, file string) bool {
	for p := file; p != "." && p != "/"; p = path.Dir(p) {
		for _, c := range prune {
			if c.pattern.Match(p) {
				return true
			}
		}
	}
	return false
}
