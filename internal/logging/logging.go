// Package logging builds the client logger. The TUI owns the terminal, so
// logs go to a file under the state directory.
package logging

import (
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	OutputPaths []string
}

// New creates a new logger with the provided configuration.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "json",
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  cfg.OutputPaths,
		DisableCaller:     true,
		DisableStacktrace: true,
	}

	return zapCfg.Build()
}

// NewFileLogger creates a logger writing to docchat.log in stateDir.
// On failure it falls back to a no-op logger so logging never blocks the UI.
func NewFileLogger(stateDir, level string) *zap.Logger {
	logger, err := New(Config{
		Level:       level,
		OutputPaths: []string{filepath.Join(stateDir, "docchat.log")},
	})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
