package process_test

import (
	"testing"

	"github.com/testgate/testgate/process"
)

func TestFormatCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command string
		args    []string
		want    string
	}{
		{command: "pytest", args: nil, want: "pytest"},
		{command: "pytest", args: []string{"-x", "tests"}, want: "pytest -x tests"},
		{command: "pytest", args: []string{"-k", "parent and not child"}, want: `pytest -k "parent and not child"`},
		{command: "echo", args: []string{""}, want: `echo ""`},
	}

	for _, test := range tests {
		if got := process.FormatCommand(test.command, test.args); got != test.want {
			t.Errorf("FormatCommand(%q, %q) = %q, want %q", test.command, test.args, got, test.want)
		}
	}
}
