package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry drains buffered telemetry at the end of shutdown, after
// in-flight requests have completed. Metrics are pull-based so there is
// nothing to push; the work is syncing the zap buffers so the final
// shutdown lines are not lost.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if logger == nil {
		return nil
	}
	if err := logger.Sync(); err != nil {
		return fmt.Errorf("sync logger: %w", err)
	}
	return nil
}
