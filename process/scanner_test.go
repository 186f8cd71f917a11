package process_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/testgate/testgate/logger"
	"github.com/testgate/testgate/process"
)

func TestScannerScansLines(t *testing.T) {
	t.Parallel()

	input := "tests passed\ntests failed\nno trailing newline"
	var lines []string

	s := process.NewScanner(logger.Discard)
	err := s.ScanLines(strings.NewReader(input), func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("s.ScanLines() error = %v", err)
	}

	want := []string{"tests passed", "tests failed", "no trailing newline"}
	if diff := cmp.Diff(lines, want); diff != "" {
		t.Errorf("scanned lines diff (-got +want):\n%s", diff)
	}
}

func TestScannerHandlesVeryLongLines(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 1024*1024)
	var lines []string

	s := process.NewScanner(logger.Discard)
	err := s.ScanLines(strings.NewReader(long+"\nshort\n"), func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("s.ScanLines() error = %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("scanned %d lines, want 2", len(lines))
	}
	if lines[0] != long {
		t.Errorf("lines[0] has length %d, want %d", len(lines[0]), len(long))
	}
	if lines[1] != "short" {
		t.Errorf("lines[1] = %q, want %q", lines[1], "short")
	}
}
