package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Development gets the human-readable console
// encoder; everything else logs structured JSON with RFC3339 timestamps.
func New(env string) *zap.Logger {
	if env == "development" {
		l, _ := zap.NewDevelopment()
		return l
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	l, _ := cfg.Build()
	return l
}
