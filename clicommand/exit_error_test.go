package clicommand

import (
	"errors"
	"fmt"
	"testing"
)

func TestPrintMessageAndReturnExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain error", err: errors.New("nope"), want: 1},
		{name: "exit error", err: NewExitError(2, errors.New("usage")), want: 2},
		{name: "wrapped exit error", err: fmt.Errorf("outer: %w", NewExitError(3, errors.New("inner"))), want: 3},
		{name: "silent exit error", err: NewSilentExitError(7), want: 7},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := PrintMessageAndReturnExitCode(test.err); got != test.want {
				t.Errorf("PrintMessageAndReturnExitCode(%v) = %d, want %d", test.err, got, test.want)
			}
		})
	}
}

func TestExitErrorIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", NewExitError(4, errors.New("inner")))

	if !errors.Is(err, NewExitError(4, errors.New("other"))) {
		t.Errorf("errors.Is() = false, want true for matching code")
	}
	if errors.Is(err, NewExitError(5, errors.New("other"))) {
		t.Errorf("errors.Is() = true, want false for different code")
	}
}
