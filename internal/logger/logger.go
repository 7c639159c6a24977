package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// current is read from every request goroutine, so all access goes through
// the atomic pointer.
var current atomic.Pointer[zap.Logger]

// Init initializes zap logger depending on the environment.
func Init(env string) {
	current.Store(build(env))
}

func build(env string) *zap.Logger {
	var cfg zap.Config

	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.LevelKey = "level"
		cfg.EncoderConfig.CallerKey = "caller"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Build logger
	l, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return l
}

// L returns the global logger, building one from APP_ENV on first use.
// Concurrent first callers agree on a single instance.
func L() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	l := build(os.Getenv("APP_ENV"))
	if current.CompareAndSwap(nil, l) {
		return l
	}
	return current.Load()
}

// Sync flushes logs.
func Sync() {
	if l := current.Load(); l != nil {
		_ = l.Sync()
	}
}

// Replace swaps the global logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}
