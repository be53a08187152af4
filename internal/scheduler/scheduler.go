// Package scheduler drives the time-based work of the lottery engine: the
// deadline scan, reminder retries and the retention sweep. It holds no
// business state; a missed tick is healed by the next one.
package scheduler

import (
	"context"
	"time"

	"github.com/commboard/lottery-engine/internal/config"
	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/services"
	"golang.org/x/exp/slog"
)

// endingSoonWindow is how far ahead of a deadline entrants are warned.
const endingSoonWindow = 24 * time.Hour

// Scheduler fires the state machine's end-transition for overdue lotteries
// and runs the periodic maintenance work
type Scheduler struct {
	lotteryService      services.LotteryService
	notificationService services.NotificationService
	retentionService    services.RetentionService
	cfg                 config.SchedulerConfig
}

// New creates a new Scheduler
func New(
	lotteryService services.LotteryService,
	notificationService services.NotificationService,
	retentionService services.RetentionService,
	cfg config.SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		lotteryService:      lotteryService,
		notificationService: notificationService,
		retentionService:    retentionService,
		cfg:                 cfg,
	}
}

// Run blocks until the context is cancelled, driving all three cadences.
func (s *Scheduler) Run(ctx context.Context) {
	drawTicker := time.NewTicker(s.cfg.TickInterval)
	sweepTicker := time.NewTicker(s.cfg.SweepInterval)
	reminderTicker := time.NewTicker(s.cfg.ReminderInterval)
	defer drawTicker.Stop()
	defer sweepTicker.Stop()
	defer reminderTicker.Stop()

	slog.Info("Scheduler started",
		"tickInterval", s.cfg.TickInterval,
		"sweepInterval", s.cfg.SweepInterval,
		"reminderInterval", s.cfg.ReminderInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-drawTicker.C:
			s.Tick(ctx, time.Now())
		case <-sweepTicker.C:
			if _, err := s.retentionService.Sweep(ctx, time.Now()); err != nil {
				slog.Error("Retention sweep failed", "error", err)
			}
		case <-reminderTicker.C:
			if _, err := s.notificationService.RetryFailedReminders(ctx); err != nil {
				slog.Error("Reminder retry pass failed", "error", err)
			}
			if _, err := s.notificationService.NotifyEndingSoon(ctx, time.Now(), endingSoonWindow); err != nil {
				slog.Error("Ending-soon pass failed", "error", err)
			}
		}
	}
}

// Tick ends every overdue lottery. Each lottery is isolated: one failing
// draw is logged and retried next tick without stopping the scan. The
// end-transition's own compare-and-set absorbs overlapping ticks and manual
// early-ends racing this scan.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	overdue, err := s.lotteryService.ListOverdue(ctx, now)
	if err != nil {
		slog.Error("Overdue scan failed", "error", err)
		return
	}
	for _, lottery := range overdue {
		// Manual-mode lotteries wait for an explicit early-end action.
		if lottery.DrawingMode == models.DrawingModeManual {
			continue
		}
		result, err := s.lotteryService.EndLottery(ctx, lottery.ID)
		if err != nil {
			slog.Error("Failed to end overdue lottery, will retry next tick", "error", err, "lotteryId", lottery.ID)
			continue
		}
		if result.Outcome == services.EndOutcomeDrawn {
			slog.Info("Overdue lottery drawn", "lotteryId", lottery.ID, "assignments", len(result.Assignments))
		}
	}
}
