package logger

import (
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger: JSON encoding, ISO8601 "ts", level from
// config (debug|info|warn|error). Unknown levels fall back to info.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel
	return cfg.Build()
}

// MaskID hides all but the last four digits of a user id.
func MaskID(id int64) string {
	s := strconv.FormatInt(id, 10)
	if len(s) <= 4 {
		return "***" + s
	}
	return "***" + s[len(s)-4:]
}

// UserID is a zap field carrying a masked user id.
func UserID(key string, id int64) zap.Field {
	return zap.String(key, MaskID(id))
}
