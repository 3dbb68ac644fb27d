package workers

import (
	"context"
	"time"

	"tradehub_backend/internal/logger"
	"tradehub_backend/internal/repositories"
	"tradehub_backend/internal/services"
)

// BillingWorker runs the two scheduled billing passes: the subscription
// expiration sweep and the monthly usage reset. Neither pass is ever
// triggered by a billing operation itself.
type BillingWorker struct {
	billingService services.BillingService
	leadRepo       repositories.LeadRepository
	sweepInterval  time.Duration
}

func NewBillingWorker(
	billingService services.BillingService,
	leadRepo repositories.LeadRepository,
	sweepInterval time.Duration,
) *BillingWorker {
	return &BillingWorker{
		billingService: billingService,
		leadRepo:       leadRepo,
		sweepInterval:  sweepInterval,
	}
}

func (w *BillingWorker) Start(ctx context.Context) {
	go w.runExpirationSweep(ctx)
	go w.runUsageReset(ctx)
}

func (w *BillingWorker) runExpirationSweep(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog("billing", "expiration sweep stopped", nil)
			return
		case <-ticker.C:
			if _, err := w.billingService.ProcessExpiredSubscriptions(time.Now()); err != nil {
				logger.WithError(err).Error("expiration sweep pass failed")
			}
		}
	}
}

// runUsageReset wakes at midnight and starts a fresh quota period for
// every account whose period began more than a month ago.
func (w *BillingWorker) runUsageReset(ctx context.Context) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.WorkerLog("billing", "usage reset stopped", nil)
			return
		case <-timer.C:
		}

		w.resetLapsedPeriods(time.Now())
	}
}

// resetLapsedPeriods rolls over every counter whose period is at least a
// month old, across all tiers: the free quota resets monthly too.
func (w *BillingWorker) resetLapsedPeriods(now time.Time) {
	lapsed, err := w.leadRepo.FindLapsedUsage(now.AddDate(0, -1, 0))
	if err != nil {
		logger.WithError(err).Error("usage reset pass failed to list counters")
		return
	}

	reset := 0
	for i := range lapsed {
		if err := w.billingService.ResetMonthlyUsage(lapsed[i].TraderID, now); err != nil {
			logger.WithError(err).Error("usage reset failed", "account_id", lapsed[i].TraderID)
			continue
		}
		reset++
	}

	if reset > 0 {
		logger.Info("usage reset pass finished", "worker", "billing", "reset", reset)
	}
}
