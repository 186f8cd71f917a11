// Package version provides the testgate version strings.
package version

import (
	_ "embed"
	"runtime"
	"strings"
)

// buildNumber can be overridden at compile time by using:
//
//	go build -ldflags "-X github.com/testgate/testgate/version.buildNumber=123" .
//
// On CI, release binaries are always built with buildNumber set.

//go:embed VERSION
var baseVersion string
var buildNumber string

func Version() string {
	return strings.TrimSpace(baseVersion)
}

func BuildNumber() string {
	if buildNumber == "" {
		return "x"
	}
	return buildNumber
}

func FullVersion() string {
	return Version() + "." + BuildNumber()
}

func UserAgent() string {
	return "testgate/" + FullVersion() + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
}
