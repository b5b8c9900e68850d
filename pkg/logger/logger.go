package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is a no-op until Init runs, so
// library code may log unconditionally.
var Log = zap.NewNop()

// Init sets up the global logger. Call once in main().
// LOG_LEVEL selects the minimum level; LOG_FORMAT=console switches
// from the default JSON encoder to a human-readable one.
func Init() error {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "msg"
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level.SetLevel(parseLevel(level))
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	var err error
	Log, err = cfg.Build()
	return err
}

// Sync flushes buffered log entries. Safe to defer even if Init failed.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// parseLevel maps level strings to zapcore.Level, defaulting to info.
func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
