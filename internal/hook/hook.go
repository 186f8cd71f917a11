// Package hook provides discovery of gate lifecycle hook scripts.
//
// It is intended for internal use by testgate only.
package hook

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/testgate/testgate/internal/osutil"
	"github.com/testgate/testgate/internal/shell"
)

// Lifecycle hook names, in the order the gate runs them.
const (
	PreCheck  = "pre-check"
	PostCheck = "post-check"
	PreTest   = "pre-test"
	PostTest  = "post-test"
	PreExit   = "pre-exit"
)

// Find returns the absolute path to the best matching hook file in a path,
// or os.ErrNotExist if none is found.
func Find(hookDir string, name string) (string, error) {
	if runtime.GOOS == "windows" {
		// check for windows types first
		if p, err := shell.LookPath(name, hookDir, ".BAT;.CMD;.PS1;.EXE"); err == nil {
			return p, nil
		}
	}
	// otherwise check for the default shell script
	if p := filepath.Join(hookDir, name); osutil.FileExists(p) {
		return p, nil
	}
	// Don't wrap os.ErrNotExist without checking callers handle it.
	// For example, os.IsNotExist(err) does not handle wrapped errors.
	return "", os.ErrNotExist
}
