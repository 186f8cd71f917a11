package hook

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFindReturnsHookPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name := "pre-test"
	if runtime.GOOS == "windows" {
		name += ".BAT"
	}
	hookPath := filepath.Join(dir, name)
	if err := os.WriteFile(hookPath, []byte("#!/bin/sh\ntrue\n"), 0o755); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	got, err := Find(dir, "pre-test")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != hookPath {
		t.Errorf("Find() = %q, want %q", got, hookPath)
	}
}

func TestFindMissingHook(t *testing.T) {
	t.Parallel()

	_, err := Find(t.TempDir(), "post-test")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Find() error = %v, want os.ErrNotExist", err)
	}
}
