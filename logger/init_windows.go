package logger

import (
	"os"

	"golang.org/x/sys/windows"
)

// Windows 10 and above support ANSI escape sequences on the console, but only
// once virtual terminal processing is switched on.
func init() {
	stderr := windows.Handle(os.Stderr.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(stderr, &mode); err != nil {
		return
	}

	mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	if err := windows.SetConsoleMode(stderr, mode); err != nil {
		return
	}

	windowsColors = true
}
