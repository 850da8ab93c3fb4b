package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestFlushTelemetry(t *testing.T) {
	if err := FlushTelemetry(context.Background(), zap.NewNop()); err != nil {
		t.Fatalf("FlushTelemetry: %v", err)
	}
	if err := FlushTelemetry(context.Background(), nil); err != nil {
		t.Fatalf("FlushTelemetry with nil logger: %v", err)
	}
}

func TestFlushTelemetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := FlushTelemetry(ctx, zap.NewNop()); err == nil {
		t.Fatal("FlushTelemetry with canceled context returned nil error")
	}
}
