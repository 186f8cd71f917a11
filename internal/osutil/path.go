package osutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" in path with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(os.PathSeparator)) && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return home + path[1:], nil
}

// NormalizeFilePath returns a clean, absolute version of path. It expands
// environment variables, converts a leading "~" into the user's home
// directory, and resolves relative paths against the working directory.
func NormalizeFilePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	expanded, err := ExpandHome(os.ExpandEnv(path))
	if err != nil {
		return "", err
	}

	return filepath.Abs(expanded)
}

// NormalizeCommand normalizes a command string. The first word is treated as
// a path and home-expanded if it starts with "~"; otherwise the command is
// left alone, on the assumption that it will be resolved via PATH.
func NormalizeCommand(command string) (string, error) {
	if !strings.HasPrefix(command, "~") {
		return command, nil
	}

	name, rest, found := strings.Cut(command, " ")
	expanded, err := ExpandHome(name)
	if err != nil {
		return "", err
	}

	if found {
		return expanded + " " + rest, nil
	}
	return expanded, nil
}
