package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/repository"
)

// EventPublisher pushes new audit entries onto the event stream. Publishing
// is best-effort; a nil publisher disables it.
type EventPublisher interface {
	PublishAuditEntry(entry *models.AuditLog) error
}

// AuditService records and queries the append-only audit trail.
type AuditService struct {
	repo      *repository.AuditRepository
	publisher EventPublisher
	logger    *logrus.Logger
}

// NewAuditService creates the audit service.
func NewAuditService(repo *repository.AuditRepository, publisher EventPublisher, logger *logrus.Logger) *AuditService {
	return &AuditService{repo: repo, publisher: publisher, logger: logger}
}

// Record writes one audit entry. When tx carries the business mutation's
// transaction the entry commits or rolls back with it. Detail serialization
// failures are logged and the entry written with null details; the mutation
// itself is never blocked by a bad payload.
func (s *AuditService) Record(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, actorID *uuid.UUID, action models.AuditAction, table, recordID string, details interface{}) error {
	entry := &models.AuditLog{
		TenantID:    tenantID,
		ActorID:     actorID,
		Action:      action,
		EntityTable: table,
		RecordID:    recordID,
		Timestamp:   time.Now(),
	}

	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"table":  table,
				"action": action,
			}).Warn("audit details not serializable, recording without")
		} else {
			entry.Details = payload
		}
	}

	if err := s.repo.Create(ctx, tx, entry); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAuditEntry(entry); err != nil {
			s.logger.WithError(err).Debug("audit event publish failed")
		}
	}
	return nil
}

// List returns audit entries matching the filter, newest first, with the
// total match count for pagination.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, filter)
}

var csvHeader = []string{"timestamp", "actor_id", "action", "table_name", "record_id", "details"}

// ExportCSV writes matching entries to w as CSV, oldest first, capped at
// maxRows.
func (s *AuditService) ExportCSV(ctx context.Context, w io.Writer, filter models.AuditFilter, maxRows int) error {
	logs, err := s.repo.Export(ctx, filter, maxRows)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range logs {
		entry := &logs[i]
		actor := ""
		if entry.ActorID != nil {
			actor = entry.ActorID.String()
		}
		record := []string{
			entry.Timestamp.Format(time.RFC3339Nano),
			actor,
			string(entry.Action),
			entry.EntityTable,
			entry.RecordID,
			string(entry.Details),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CleanupExpired deletes entries older than each tenant's retention window.
// Called by the scheduler; returns total rows removed.
func (s *AuditService) CleanupExpired(ctx context.Context, defaultRetentionDays int) (int64, error) {
	tenantIDs, err := s.repo.ListTenantIDs(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, tenantID := range tenantIDs {
		retentionDays := defaultRetentionDays
		settings, err := s.repo.GetRetentionSettings(ctx, tenantID)
		if err != nil {
			s.logger.WithError(err).WithField("tenant_id", tenantID).Error("audit cleanup failed for tenant")
			continue
		}
		if settings != nil && settings.RetentionDays > 0 {
			retentionDays = settings.RetentionDays
		}

		now := time.Now()
		cutoff := now.AddDate(0, 0, -retentionDays)
		deleted, err := s.repo.DeleteOldLogs(ctx, tenantID, cutoff)
		if err != nil {
			s.logger.WithError(err).WithField("tenant_id", tenantID).Error("audit cleanup failed for tenant")
			continue
		}
		if err := s.repo.StampCleanup(ctx, tenantID, now); err != nil {
			s.logger.WithError(err).WithField("tenant_id", tenantID).Warn("retention cleanup stamp failed")
		}
		if deleted > 0 {
			s.logger.WithFields(logrus.Fields{
				"tenant_id":      tenantID,
				"retention_days": retentionDays,
				"deleted":        deleted,
			}).Info("audit retention cleanup")
		}
		total += deleted
	}
	return total, nil
}
