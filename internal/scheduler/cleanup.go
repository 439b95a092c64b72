// Package scheduler runs the nightly audit retention cleanup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"fleet-backoffice/internal/services"
)

// CleanupScheduler deletes audit entries past their retention window on a
// nightly cron.
type CleanupScheduler struct {
	cron          *cron.Cron
	audit         *services.AuditService
	retentionDays int
	hourOfDay     int
	logger        *logrus.Logger
}

// NewCleanupScheduler creates the scheduler; Start arms it.
func NewCleanupScheduler(audit *services.AuditService, retentionDays, hourOfDay int, logger *logrus.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		cron:          cron.New(),
		audit:         audit,
		retentionDays: retentionDays,
		hourOfDay:     hourOfDay,
		logger:        logger,
	}
}

// Start registers the nightly job and starts the cron loop.
func (s *CleanupScheduler) Start() error {
	spec := fmt.Sprintf("0 %d * * *", s.hourOfDay)
	_, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("schedule", spec).Info("audit cleanup scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *CleanupScheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("audit cleanup did not finish before shutdown")
	}
}

func (s *CleanupScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	deleted, err := s.audit.CleanupExpired(ctx, s.retentionDays)
	if err != nil {
		s.logger.WithError(err).Error("audit cleanup run failed")
		return
	}
	s.logger.WithField("deleted", deleted).Info("audit cleanup run complete")
}
