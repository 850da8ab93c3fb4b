package observability

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestLevelFromEnv verifies LOG_LEVEL parsing is case-insensitive, tolerates
// whitespace, and falls back to info.
func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		env    string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"info", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"warn", zap.WarnLevel},
		{"Error", zap.ErrorLevel},
		{"  warn  ", zap.WarnLevel},
		{"verbose", zap.InfoLevel},
	}
	for _, tt := range tests {
		level := levelFromEnv(tt.env)
		if got := level.Level(); got != tt.expect {
			t.Errorf("levelFromEnv(%q) = %v, want %v", tt.env, got, tt.expect)
		}
	}
}

// TestNewLogger verifies the logger builds and can emit a line.
func TestNewLogger(t *testing.T) {
	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewLogger() returned nil logger")
	}

	logger.Info("logger ready")
	_ = logger.Sync() // best-effort; can fail on /dev/stderr in test env
}
