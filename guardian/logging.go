package guardian

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger instance, defaulting to a no-op
// logger until SetLogger is called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger overrides the package's logger. Call before Transform if the
// host wants rewrite diagnostics: each successful Transform logs one
// debug entry with its flags and the number of function bodies.
func SetLogger(l *zap.Logger) {
	logger = l
}
