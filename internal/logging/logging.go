// Package logging builds the leveled logfmt logger used across the server.
package logging

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a logfmt logger writing to w, filtered to the named level.
// Unknown level names fall back to info. The writer is wrapped so concurrent
// connection goroutines can log safely.
func New(w io.Writer, logLevel string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	switch logLevel {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return logger
}

// Nop returns a logger that discards everything, for tests and as the
// default when no logger is configured.
func Nop() log.Logger {
	return log.NewNopLogger()
}
