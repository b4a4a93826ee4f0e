package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"newsrelay/pkg/dedup"
	"newsrelay/pkg/logger"
)

// Start launches the dedup TTL sweep scheduler. Expired fingerprints
// are already invisible to InsertIfNew; the sweep just reclaims disk on
// the configured cron so the store stays self-bounded. Returns a cancel
// func for shutdown.
func Start(ctx context.Context, store *dedup.Store, cronExpr string) (context.CancelFunc, error) {
	if cronExpr == "" {
		cronExpr = "0 */6 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid sweep cron expression: %s", cronExpr)
	}

	ctx2, cancel := context.WithCancel(ctx)
	go run(ctx2, store, cronExpr)
	logger.Info("dedup_sweeper_started", "cron", cronExpr)
	return cancel, nil
}

func run(ctx context.Context, store *dedup.Store, cronExpr string) {
	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweep_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-time.After(time.Until(next)):
			n, err := store.Sweep()
			if err != nil {
				logger.Error("sweep_failed", "error", err)
				continue
			}
			logger.Info("sweep_complete", "removed", n)
		case <-ctx.Done():
			logger.Info("dedup_sweeper_stopping")
			return
		}
	}
}
