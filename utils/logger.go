package utils

import (
	"fmt"
	"io"
)

// Logger is a nil-safe per-parse debug log sink. Importers write
// degraded-resource warnings and parse traces here when the caller
// supplies a writer.
type Logger struct {
	W io.Writer
}

func (l *Logger) Printf(format string, a ...interface{}) {
	if l == nil || l.W == nil {
		return
	}
	fmt.Fprintf(l.W, format+"\n", a...)
}
