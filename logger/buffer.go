package logger

import (
	"fmt"
	"sync"
)

// Buffer is a Logger implementation intended for testing; messages are stored
// internally.
type Buffer struct {
	mu       sync.Mutex
	Messages []string
}

// NewBuffer creates a new Buffer with the Messages slice initialized. This
// makes it simpler to assert an empty []string when no log messages have been
// sent; otherwise Messages would be nil.
func NewBuffer() *Buffer {
	return &Buffer{
		Messages: make([]string, 0),
	}
}

func (b *Buffer) log(prefix, format string, v ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Messages = append(b.Messages, prefix+fmt.Sprintf(format, v...))
}

func (b *Buffer) Debug(format string, v ...any)  { b.log("[debug] ", format, v...) }
func (b *Buffer) Info(format string, v ...any)   { b.log("[info] ", format, v...) }
func (b *Buffer) Notice(format string, v ...any) { b.log("[notice] ", format, v...) }
func (b *Buffer) Warn(format string, v ...any)   { b.log("[warn] ", format, v...) }
func (b *Buffer) Error(format string, v ...any)  { b.log("[error] ", format, v...) }
func (b *Buffer) Fatal(format string, v ...any)  { b.log("[fatal] ", format, v...) }

func (b *Buffer) WithFields(fields ...Field) Logger { return b }
func (b *Buffer) SetLevel(level Level)              {}
func (b *Buffer) Level() Level                      { return DEBUG }
