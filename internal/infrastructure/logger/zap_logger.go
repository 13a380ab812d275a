package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. An unparsable level falls back to
// info. When file is non-empty, output goes to the file in addition to
// stderr.
func NewLogger(level, file string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	l, err := zapcore.ParseLevel(level)
	if err != nil {
		l = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(l)

	if file != "" {
		config.OutputPaths = append(config.OutputPaths, file)
	}

	return config.Build()
}
