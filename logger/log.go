// Package logger provides a leveled console logger used by the testgate CLI.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	nocolor   = "0"
	red       = "31"
	green     = "38;5;48"
	yellow    = "33"
	gray      = "38;5;251"
	lightgray = "38;5;243"
	cyan      = "1;36"
)

const DateFormat = "2006-01-02 15:04:05"

var (
	printerMu     sync.Mutex
	windowsColors bool
)

// Logger is a logger which outputs levelled messages, with optional fields
// attached.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Notice(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
	Fatal(format string, v ...any)

	WithFields(fields ...Field) Logger
	SetLevel(level Level)
	Level() Level
}

// ConsoleLogger is a Logger that writes formatted lines via a Printer.
type ConsoleLogger struct {
	level   Level
	printer Printer
	fields  Fields
	exitFn  func(int)
}

// NewConsoleLogger returns a ConsoleLogger at NOTICE level. exitFn is called
// (with code 1) after a Fatal message is printed.
func NewConsoleLogger(printer Printer, exitFn func(int)) Logger {
	return &ConsoleLogger{
		level:   NOTICE,
		printer: printer,
		exitFn:  exitFn,
	}
}

// WithFields returns a copy of the logger with the provided fields attached.
func (l *ConsoleLogger) WithFields(fields ...Field) Logger {
	clone := *l
	clone.fields = append(clone.fields[:len(clone.fields):len(clone.fields)], fields...)
	return &clone
}

// SetLevel sets the level in the logger.
func (l *ConsoleLogger) SetLevel(level Level) {
	l.level = level
}

func (l *ConsoleLogger) Level() Level {
	return l.level
}

func (l *ConsoleLogger) Debug(format string, v ...any) {
	if l.level > DEBUG {
		return
	}
	l.printer.Print(DEBUG, fmt.Sprintf(format, v...), l.fields)
}

func (l *ConsoleLogger) Info(format string, v ...any) {
	if l.level > INFO {
		return
	}
	l.printer.Print(INFO, fmt.Sprintf(format, v...), l.fields)
}

func (l *ConsoleLogger) Notice(format string, v ...any) {
	if l.level > NOTICE {
		return
	}
	l.printer.Print(NOTICE, fmt.Sprintf(format, v...), l.fields)
}

func (l *ConsoleLogger) Warn(format string, v ...any) {
	if l.level > WARN {
		return
	}
	l.printer.Print(WARN, fmt.Sprintf(format, v...), l.fields)
}

func (l *ConsoleLogger) Error(format string, v ...any) {
	l.printer.Print(ERROR, fmt.Sprintf(format, v...), l.fields)
}

func (l *ConsoleLogger) Fatal(format string, v ...any) {
	l.printer.Print(FATAL, fmt.Sprintf(format, v...), l.fields)
	l.exitFn(1)
}

// Printer formats a message and set of fields for a level and writes it
// somewhere.
type Printer interface {
	Print(level Level, msg string, fields Fields)
}

// TextPrinter prints log lines in a human-readable format, with optional ANSI
// colors.
type TextPrinter struct {
	Colors bool
	Writer io.Writer
}

func NewTextPrinter(w io.Writer) *TextPrinter {
	return &TextPrinter{
		Writer: w,
		Colors: ColorsSupported(),
	}
}

// ColorsSupported reports whether terminal colors can be shown.
func ColorsSupported() bool {
	// Color support for Windows is set in init on platforms that have it.
	if runtime.GOOS == "windows" && !windowsColors {
		return false
	}

	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (p *TextPrinter) Print(level Level, msg string, fields Fields) {
	now := time.Now().Format(DateFormat)
	line := ""

	fieldStr := ""
	for _, f := range fields {
		fieldStr += " " + f.Key() + "=" + f.String()
	}

	if p.Colors {
		levelColor := green
		messageColor := nocolor

		switch level {
		case DEBUG:
			levelColor, messageColor = gray, gray
		case NOTICE:
			levelColor = cyan
		case WARN:
			levelColor = yellow
		case ERROR, FATAL:
			levelColor = red
		}

		line = fmt.Sprintf("\x1b[%sm%s %-6s\x1b[0m \x1b[%sm%s\x1b[0m\x1b[%sm%s\x1b[0m\n",
			levelColor, now, level, messageColor, msg, lightgray, fieldStr)
	} else {
		line = fmt.Sprintf("%s %-6s %s%s\n", now, level, msg, fieldStr)
	}

	// Make sure we're only outputting one line at a time.
	printerMu.Lock()
	defer printerMu.Unlock()
	fmt.Fprint(p.Writer, line) //nolint:errcheck // logger output; nowhere to report failure
}

// JSONPrinter prints each log line as a JSON object with ts, level and msg
// keys, plus a key per field.
type JSONPrinter struct {
	Writer io.Writer
}

func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{Writer: w}
}

func (p *JSONPrinter) Print(level Level, msg string, fields Fields) {
	entry := map[string]string{
		"ts":    time.Now().Format(time.RFC3339Nano),
		"level": level.String(),
		"msg":   msg,
	}
	for _, f := range fields {
		entry[f.Key()] = f.String()
	}

	b, err := json.Marshal(entry)
	if err != nil {
		// A map of strings should always marshal.
		panic(err)
	}

	printerMu.Lock()
	defer printerMu.Unlock()
	fmt.Fprintln(p.Writer, string(b)) //nolint:errcheck // logger output; nowhere to report failure
}

// Discard is a Logger that does nothing.
var Discard = &discarder{}

type discarder struct{}

func (*discarder) Debug(string, ...any)         {}
func (*discarder) Info(string, ...any)          {}
func (*discarder) Notice(string, ...any)        {}
func (*discarder) Warn(string, ...any)          {}
func (*discarder) Error(string, ...any)         {}
func (*discarder) Fatal(string, ...any)         {}
func (d *discarder) WithFields(...Field) Logger { return d }
func (*discarder) SetLevel(Level)               {}
func (*discarder) Level() Level                 { return FATAL }
