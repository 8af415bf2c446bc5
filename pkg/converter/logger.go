package converter

import (
	"io"
	"log"
)

var logger = log.New(io.Discard, "", 0)

// SetLogger sets the logger used for conversion diagnostics. Passing nil
// silences them again.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	logger = l
}

// Logf writes a conversion diagnostic
func Logf(format string, args ...any) {
	logger.Printf(format, args...)
}
