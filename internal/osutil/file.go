// Package osutil provides operating system level utilities.
package osutil

import "os"

// FileExists reports whether a file exists on the filesystem. Any error from
// os.Stat is taken to mean the file isn't there (or isn't available), which
// is all callers care about.
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
