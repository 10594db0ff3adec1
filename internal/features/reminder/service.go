package reminder

import (
	"context"
	"time"

	"go-approval/internal/features/approval"
	"go-approval/internal/features/notification"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// The sweep runs outside the state machine: it only reads pending
// requests and fires notifications, never mutates a transition.
const (
	sweepSchedule  = "0 9 * * *"
	staleThreshold = 3 * 24 * time.Hour
	sweepBatch     = 200
)

// PendingLister is the slice of the request store the sweep needs.
type PendingLister interface {
	ListStalePending(ctx context.Context, before time.Time, limit int64) ([]approval.Request, error)
}

type ReminderService struct {
	requests      PendingLister
	notifications notification.NotificationService
	logger        *zap.Logger
	scheduler     *cron.Cron
}

func NewReminderService(
	lc fx.Lifecycle,
	requests PendingLister,
	notifications notification.NotificationService,
	logger *zap.Logger,
) *ReminderService {
	s := &ReminderService{
		requests:      requests,
		notifications: notifications,
		logger:        logger,
		scheduler:     cron.New(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := s.scheduler.AddFunc(sweepSchedule, s.runSweep); err != nil {
				return err
			}
			s.scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := s.scheduler.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})

	return s
}

func (s *ReminderService) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("reminder sweep failed", zap.Error(err))
	}
}

// Sweep notifies the holder of every request that has sat untouched
// past the staleness threshold.
func (s *ReminderService) Sweep(ctx context.Context) error {
	before := time.Now().Add(-staleThreshold)
	stale, err := s.requests.ListStalePending(ctx, before, sweepBatch)
	if err != nil {
		return err
	}

	for _, req := range stale {
		if req.CurrentApproverID == "" {
			continue
		}
		s.notifications.Notify(ctx, req.CurrentApproverID,
			"Approval reminder",
			"Request "+req.DocumentNumber+" is still waiting for your decision",
			notification.NotificationTypeInfo, "/approvals/"+req.ID.Hex())
	}

	if len(stale) > 0 {
		s.logger.Info("reminder sweep completed", zap.Int("reminded", len(stale)))
	}
	return nil
}
