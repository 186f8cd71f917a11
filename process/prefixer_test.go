package process_test

import (
	"bytes"
	"testing"

	"github.com/testgate/testgate/process"
)

func TestPrefixerPrefixesEachLine(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := process.NewPrefixer(&out, func() string { return "pre-test | " })

	for _, chunk := range []string{"llamas\nalpa", "cas\nvicu", "ñas\n"} {
		if _, err := p.Write([]byte(chunk)); err != nil {
			t.Fatalf("p.Write(%q) error = %v", chunk, err)
		}
	}

	want := "pre-test | llamas\npre-test | alpacas\npre-test | vicuñas\n"
	if got := out.String(); got != want {
		t.Errorf("out.String() = %q, want %q", got, want)
	}
}

func TestPrefixerDoesNotPrefixMidLine(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := process.NewPrefixer(&out, func() string { return "> " })

	p.Write([]byte("partial"))      //nolint:errcheck // writing to a bytes.Buffer
	p.Write([]byte(" line\nnext.")) //nolint:errcheck // writing to a bytes.Buffer

	want := "> partial line\n> next."
	if got := out.String(); got != want {
		t.Errorf("out.String() = %q, want %q", got, want)
	}
}
