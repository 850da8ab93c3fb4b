package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: production JSON output with ISO8601
// timestamps, a service field stamped on every line, and level taken from
// the LOG_LEVEL environment variable (info when unset or unrecognized).
func NewLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = levelFromEnv(os.Getenv("LOG_LEVEL"))
	config.InitialFields = map[string]interface{}{
		"service": "daily-dashboard-service",
	}

	return config.Build()
}

func levelFromEnv(s string) zap.AtomicLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
