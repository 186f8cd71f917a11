package process

import (
	"io"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Timestamper is an io.Writer that prepends the current time to each line
// written through it.
type Timestamper struct {
	prefixer *Prefixer
	now      func() time.Time
}

func NewTimestamper(out io.Writer) *Timestamper {
	t := &Timestamper{now: time.Now}
	t.prefixer = NewPrefixer(out, func() string {
		return "[" + t.now().Format(timestampFormat) + "] "
	})
	return t
}

func (t *Timestamper) Write(b []byte) (int, error) {
	return t.prefixer.Write(b)
}
