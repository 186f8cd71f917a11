package process_test

import (
	"testing"

	"github.com/testgate/testgate/process"
)

func TestParseSignal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    process.Signal
		wantErr bool
	}{
		{in: "SIGTERM", want: process.SIGTERM},
		{in: "sigint", want: process.SIGINT},
		{in: "SigHup", want: process.SIGHUP},
		{in: "SIGSAUSAGE", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, test := range tests {
		got, err := process.ParseSignal(test.in)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseSignal(%q) expected an error", test.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSignal(%q) error = %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseSignal(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestSignalString(t *testing.T) {
	t.Parallel()

	if got, want := process.SIGTERM.String(), "SIGTERM"; got != want {
		t.Errorf("SIGTERM.String() = %q, want %q", got, want)
	}
}
