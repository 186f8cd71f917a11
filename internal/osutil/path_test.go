package osutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeFilePathExpandsHome(t *testing.T) {
	home, err := UserHomeDir()
	if err != nil {
		t.Skipf("no home directory available: %v", err)
	}

	got, err := NormalizeFilePath(filepath.Join("~", ".testgate"))
	if err != nil {
		t.Fatalf("NormalizeFilePath(~/.testgate) error = %v", err)
	}
	if want := filepath.Join(home, ".testgate"); got != want {
		t.Errorf("NormalizeFilePath(~/.testgate) = %q, want %q", got, want)
	}
}

func TestNormalizeFilePathResolvesRelative(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd() error = %v", err)
	}

	got, err := NormalizeFilePath("manifests")
	if err != nil {
		t.Fatalf("NormalizeFilePath(manifests) error = %v", err)
	}
	if want := filepath.Join(wd, "manifests"); got != want {
		t.Errorf("NormalizeFilePath(manifests) = %q, want %q", got, want)
	}
}

func TestNormalizeFilePathEmpty(t *testing.T) {
	got, err := NormalizeFilePath("")
	if err != nil {
		t.Fatalf("NormalizeFilePath(\"\") error = %v", err)
	}
	if got != "" {
		t.Errorf("NormalizeFilePath(\"\") = %q, want \"\"", got)
	}
}

func TestNormalizeCommandLeavesPathLookupsAlone(t *testing.T) {
	got, err := NormalizeCommand("pytest -x tests")
	if err != nil {
		t.Fatalf("NormalizeCommand() error = %v", err)
	}
	if want := "pytest -x tests"; got != want {
		t.Errorf("NormalizeCommand() = %q, want %q", got, want)
	}
}

func TestNormalizeCommandExpandsHome(t *testing.T) {
	home, err := UserHomeDir()
	if err != nil {
		t.Skipf("no home directory available: %v", err)
	}

	got, err := NormalizeCommand("~/bin/run-tests --fast")
	if err != nil {
		t.Fatalf("NormalizeCommand() error = %v", err)
	}
	if !strings.HasPrefix(got, home) {
		t.Errorf("NormalizeCommand() = %q, want prefix %q", got, home)
	}
	if !strings.HasSuffix(got, " --fast") {
		t.Errorf("NormalizeCommand() = %q, want suffix %q", got, " --fast")
	}
}
