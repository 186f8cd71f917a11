// Package self implements helpers for self-invocation.
package self

import (
	"context"
	"os"
)

// Overwritten by init.
var pathToSelf = "testgate"

func init() {
	p, err := os.Executable()
	if err != nil {
		return
	}
	pathToSelf = p
}

type ctxKey struct{}

// Path returns an absolute file path to the running testgate binary. If an
// absolute path cannot be found, it defaults to "testgate" on the assumption
// it is in $PATH. Self-executing with this path can still fail if someone is
// playing games (e.g. unlinking the binary after starting it).
func Path(ctx context.Context) string {
	if val := ctx.Value(ctxKey{}); val != nil {
		return val.(string)
	}
	return pathToSelf
}

// OverridePath changes the self-path used within a context. This is usually
// only used for testing purposes (substituting a mock of testgate).
func OverridePath(parent context.Context, path string) context.Context {
	return context.WithValue(parent, ctxKey{}, path)
}
