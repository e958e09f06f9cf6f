package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-wide logger. It starts as a no-op logger so packages can
// log before main calls Init.
var L = zap.NewNop()

// New builds a zap logger. env "development" selects the console encoder;
// anything else gets the JSON production config.
// logLevel is one of "debug", "info", "warn", "error".
func New(logLevel, env string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.ToLower(env) == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return logger, nil
}

// Init builds the logger, stores it in L and replaces zap's globals.
func Init(logLevel, env string) (*zap.Logger, error) {
	logger, err := New(logLevel, env)
	if err != nil {
		return nil, err
	}
	L = logger
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Sync flushes buffered entries. Call it deferred from main.
func Sync() {
	if L != nil {
		_ = L.Sync()
	}
}
