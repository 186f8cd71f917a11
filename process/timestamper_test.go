package process_test

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/testgate/testgate/process"
)

func TestTimestamperStampsEachLine(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	ts := process.NewTimestamper(&out)

	ts.Write([]byte("first\nsecond\n")) //nolint:errcheck // writing to a bytes.Buffer

	stamped := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\] first\n\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\] second\n$`)
	if got := out.String(); !stamped.MatchString(got) {
		t.Errorf("out.String() = %q, want timestamped lines", got)
	}
}
