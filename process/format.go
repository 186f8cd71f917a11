package process

import (
	"strings"

	"github.com/buildkite/shellwords"
)

// FormatCommand formats a command and arguments for human reading, quoting
// any argument a shell would need quoted.
func FormatCommand(command string, args []string) string {
	s := make([]string, 0, len(args)+1)
	s = append(s, command)

	for _, a := range args {
		switch {
		case a == "":
			s = append(s, `""`)
		case strings.ContainsAny(a, " \t\n\"'$"):
			s = append(s, shellwords.Quote(a))
		default:
			s = append(s, a)
		}
	}

	return strings.Join(s, " ")
}
