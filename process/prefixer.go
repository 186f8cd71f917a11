package process

import (
	"bytes"
	"io"
)

// Prefixer is an io.Writer that inserts a prefix at the start of every line
// written through it. The prefix is computed per-line, so callers can embed
// counters or timestamps.
type Prefixer struct {
	out     io.Writer
	prefix  func() string
	midLine bool
}

func NewPrefixer(out io.Writer, prefix func() string) *Prefixer {
	return &Prefixer{
		out:    out,
		prefix: prefix,
	}
}

// Write writes p, inserting the prefix after every newline. Writes to the
// underlying writer are buffered per input chunk, so a partial line receives
// its prefix exactly once.
func (p *Prefixer) Write(b []byte) (int, error) {
	var buf bytes.Buffer

	for _, c := range b {
		if !p.midLine {
			buf.WriteString(p.prefix())
			p.midLine = true
		}
		buf.WriteByte(c)
		if c == '\n' {
			p.midLine = false
		}
	}

	if _, err := p.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(b), nil
}
