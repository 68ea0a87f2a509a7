package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartExpirySweeper schedules the hourly sweep that fails orders abandoned
// in created state. The returned scheduler must be shut down by the caller.
func StartExpirySweeper(svc CheckoutService, logger *slog.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := svc.ExpireAbandonedOrders(ctx); err != nil {
				logger.Error("order expiry sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}
