package log

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // package level logger.
var global atomic.Pointer[Logger]

//nolint:gochecknoinits // install a usable logger before configuration runs.
func init() {
	logger, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}

	global.Store(logger)
}

// SetGlobalConfig rebuilds the global logger from the config.
// Hooks registered on the previous global logger are carried over.
func SetGlobalConfig(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}

	prev := global.Load()
	if prev != nil {
		prev.mu.RLock()
		logger.hooks = append(logger.hooks, prev.hooks...)
		prev.mu.RUnlock()
	}

	global.Store(logger)

	return nil
}

// SetGlobalLogger replaces the global logger.
func SetGlobalLogger(logger *Logger) {
	global.Store(logger)
}

// GetGlobalLogger returns the global logger.
func GetGlobalLogger() *Logger {
	return global.Load()
}

// DebugEnabled reports whether the global logger writes debug entries.
func DebugEnabled(ctx context.Context) bool {
	return global.Load().DebugEnabled(ctx)
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	global.Load().log(ctx, zapcore.DebugLevel, msg, fields)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	global.Load().log(ctx, zapcore.InfoLevel, msg, fields)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	global.Load().log(ctx, zapcore.WarnLevel, msg, fields)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	global.Load().log(ctx, zapcore.ErrorLevel, msg, fields)
}

func Fatal(ctx context.Context, msg string, fields ...Field) {
	global.Load().log(ctx, zapcore.FatalLevel, msg, fields)
}
