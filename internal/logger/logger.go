// Package logger wraps zap with a process-wide logger configured from the
// environment.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

func init() {
	log = New("dev")
}

// New builds a zap logger for the given environment. Production uses the
// JSON encoder with ISO8601 timestamps; anything else gets the colored
// development console. LOG_LEVEL overrides the default level.
func New(env string) *zap.Logger {
	var cfg zap.Config
	if env == "prod" || env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(lvl)); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(level)
		}
	}
	l, _ := cfg.Build()
	return l
}

// Get returns the process-wide logger.
func Get() *zap.Logger { return log }

// Set replaces the process-wide logger. main calls this once at startup.
func Set(l *zap.Logger) { log = l }

func Info(msg string, fields ...zap.Field)  { log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { log.Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { log.Debug(msg, fields...) }

// Sync flushes buffered log entries.
func Sync() error { return log.Sync() }
