package scheduler

import (
	"context"
	"fmt"
	"time"

	"expiry_notification_agent/internal/app" // For NotificationService interface
	"expiry_notification_agent/internal/domain/expiry"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// pollSpec is the cadence at which remaining days are re-evaluated. Combined
// with exact-equality checkpoint matching and no sent-state, a checkpoint
// notification re-fires on every poll for the ~24 polls the integer holds.
const pollSpec = "@every 1h0m0s"

// ExpiryScheduler is the single long-lived actor of the process. It owns the
// expiry instant and the checkpoint set, sends one status notification on
// startup, then polls hourly for checkpoint crossings. Days-remaining is
// recomputed from the wall clock on every poll; nothing is cached between
// polls.
type ExpiryScheduler struct {
	cronEngine   *cron.Cron
	notifService app.NotificationService // Using the interface
	expiryAt     time.Time
	checkpoints  expiry.Checkpoints
	token        string
	logger       *logrus.Logger
}

func NewExpiryScheduler(
	notifService app.NotificationService,
	expiryAt time.Time,
	checkpoints expiry.Checkpoints,
	token string,
	logger *logrus.Logger,
) *ExpiryScheduler {
	return &ExpiryScheduler{
		cronEngine:   cron.New(cron.WithLocation(time.UTC)),
		notifService: notifService,
		expiryAt:     expiryAt,
		checkpoints:  checkpoints,
		token:        token,
		logger:       logger,
	}
}

// Start sends the startup status notification and begins hourly polling.
// A missing bearer token disables scheduling entirely: nothing is sent, the
// cron engine never starts, and the process keeps running for the operator
// to inspect the logs.
func (s *ExpiryScheduler) Start() error {
	if s.token == "" {
		s.logger.Error("Cannot schedule notifications: missing gateway bearer token.")
		return app.ErrMissingCredential
	}

	s.logger.Info("Starting expiry notification scheduler...")

	// Status ping fires once, unconditionally, independent of the checkpoint set.
	days := expiry.DaysRemaining(time.Now().UTC(), s.expiryAt)
	if err := s.notifService.SendStatus(context.Background(), days); err != nil {
		s.logger.Errorf("Startup status notification failed: %v", err)
	}

	_, err := s.cronEngine.AddFunc(pollSpec, func() {
		s.checkAt(time.Now().UTC())
	})
	if err != nil {
		return fmt.Errorf("could not add expiry poll job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Infof("Expiry notification scheduler started (%s, checkpoints %v).", pollSpec, s.checkpoints)
	return nil
}

// checkAt evaluates one poll at the given instant.
func (s *ExpiryScheduler) checkAt(now time.Time) {
	days := expiry.DaysRemaining(now, s.expiryAt)
	s.logger.Debugf("Poll: %d days remaining until %s.", days, s.expiryAt.Format(time.RFC3339))

	for _, daysBefore := range s.checkpoints {
		if days != daysBefore {
			continue
		}
		if err := s.notifService.SendCheckpoint(context.Background(), daysBefore); err != nil {
			s.logger.Errorf("Checkpoint notification for %d days failed: %v", daysBefore, err)
		}
	}
}

func (s *ExpiryScheduler) Stop() {
	s.logger.Info("Stopping expiry notification scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Expiry notification scheduler gracefully stopped.")
}
