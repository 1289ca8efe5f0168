// Фоновый проход: перевод просроченных допусков в expired и досинхронизация платформы.
package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dlnn-tech/taxi-driver-app/internal/permits"
)

const runTimeout = 5 * time.Minute

// Start запускает горутину прохода: первый прогон сразу, далее по тикеру.
// Останавливается по отмене ctx.
func Start(ctx context.Context, svc *permits.Service, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			expired, err := svc.ExpireOverdue(runCtx)
			if err != nil {
				log.Error("permit sweep failed", zap.Error(err))
			} else if expired > 0 {
				log.Info("permit sweep done", zap.Int("expired", expired))
			}

			synced, err := svc.ReconcileRouting(runCtx)
			if err != nil {
				log.Error("routing reconcile failed", zap.Error(err))
			} else if synced > 0 {
				log.Info("routing reconcile done", zap.Int("synced", synced))
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
