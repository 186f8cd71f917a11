package process

import (
	"bufio"
	"io"

	"github.com/testgate/testgate/logger"
)

// Scanner reads lines from a reader and passes them to a callback. Unlike
// bufio.Scanner it tolerates lines of any length, truncating the callback
// argument rather than failing.
type Scanner struct {
	logger logger.Logger
}

func NewScanner(l logger.Logger) *Scanner {
	return &Scanner{logger: l}
}

func (s *Scanner) ScanLines(r io.Reader, f func(line string)) error {
	reader := bufio.NewReader(r)
	var appending []byte

	s.logger.Debug("[LineScanner] Starting to read lines")

	for {
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			s.logger.Debug("[LineScanner] Encountered read error: %v", err)
			return err
		}

		// ReadLine reuses its buffer, and may return partial lines, so we
		// accumulate our own copy.
		if isPrefix && appending == nil {
			appending = make([]byte, len(line), len(line)*2)
			copy(appending, line)
			continue
		}

		if appending != nil {
			appending = append(appending, line...)
			if isPrefix {
				continue
			}
			line = appending
			appending = nil
		}

		f(string(line))
	}

	s.logger.Debug("[LineScanner] Finished")
	return nil
}
