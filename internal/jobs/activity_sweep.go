package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"studentms/internal/docstore"
)

// StartActivitySweep trims the activity log on a ticker until the context is
// cancelled. Retention <= 0 disables the job.
func StartActivitySweep(ctx context.Context, docs *docstore.Store, retention, interval time.Duration, logger *zap.Logger) {
	if retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-retention)
				sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				removed, err := docs.DeleteActivityBefore(sweepCtx, cutoff)
				cancel()
				if err != nil {
					logger.Warn("activity sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					logger.Info("activity sweep removed entries", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
