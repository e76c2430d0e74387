package erased

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/typebridge/index"
	"github.com/wippyai/typebridge/internal/layout"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the erased package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the erased package's logger.
// This must be called before any registration.
func SetLogger(l *zap.Logger) {
	logger = l
}

func zapIndex(i index.Index) zap.Field {
	return zap.String("type", i.Name())
}

func zapKind(k layout.Kind) zap.Field {
	return zap.Stringer("kind", k)
}

func zapStat(s Stat) zap.Field {
	return zap.Stringer("stat", s)
}
