package logger

import "fmt"

type Level int

const (
	DEBUG Level = iota
	INFO
	NOTICE
	WARN
	ERROR
	FATAL
)

var levelNames = []string{
	"DEBUG",
	"INFO",
	"NOTICE",
	"WARN",
	"ERROR",
	"FATAL",
}

// String returns the string representation of a logging level.
func (l Level) String() string {
	if l < DEBUG || l > FATAL {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// LevelFromString converts a level name into a Level.
func LevelFromString(str string) (Level, error) {
	switch str {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "notice":
		return NOTICE, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	default:
		return DEBUG, fmt.Errorf("unknown log level %q, valid levels are: debug, info, notice, warn, error, fatal", str)
	}
}
