package executors

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/controller"
)

type passRunner interface {
	RunPass(ctx context.Context) (controller.PassSummary, error)
}

// StartSyncLoop runs a reconciliation pass every period until ctx is done.
// A failed pass is logged and the loop keeps going.
func StartSyncLoop(ctx context.Context, runner passRunner, period time.Duration) error {
	if period <= 0 {
		return errors.New("sync loop period must be positive")
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	log := logger.WithFields(map[string]interface{}{
		"component": "SyncLoop",
		"period":    period.String(),
	})
	log.Info("sync loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("sync loop stopped")
			return nil

		case <-ticker.C:
			summary, err := runner.RunPass(ctx)
			if err != nil {
				log.WithError(err).Error("reconciliation pass failed")
				continue
			}
			if summary.Candidates > 0 {
				log.WithFields(map[string]interface{}{
					"candidates": summary.Candidates,
					"changed":    summary.Changed,
					"failed":     summary.Failed,
					"gave_up":    summary.GaveUp,
				}).Debug("loop tick")
			}
		}
	}
}
