package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// NewLogger returns a console logger writing to w at the given level.
func NewLogger(level log.Level, w io.Writer) *log.Logger {
	return &log.Logger{
		Level:  level,
		Caller: 0,
		Writer: &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    false,
			EndWithMessage: true,
		},
	}
}

// NewDefaultLogger is used by stores, pools and heap files when no logger is configured.
func NewDefaultLogger() *log.Logger {
	return NewLogger(log.InfoLevel, os.Stderr)
}

func NewDebugLogger() *log.Logger {
	return NewLogger(log.DebugLevel, os.Stderr)
}

// Discard returns a logger that drops everything. Tests use it to keep output clean.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: log.IOWriter{Writer: io.Discard},
	}
}
