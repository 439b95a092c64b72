package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-backoffice/internal/models"
)

// AuditRepository persists and queries the append-only audit trail.
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit entry on the given handle. Callers pass their
// open transaction so the entry commits or rolls back with the mutation
// it describes.
func (r *AuditRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List returns audit entries matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int64, error) {
	query := r.buildQuery(ctx, filter)

	var total int64
	if err := query.Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	if err := query.
		Order("timestamp DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// Export streams entries for CSV export, oldest first, capped at maxRows.
func (r *AuditRepository) Export(ctx context.Context, filter models.AuditFilter, maxRows int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := r.buildQuery(ctx, filter).
		Order("timestamp ASC").
		Limit(maxRows).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to export audit logs: %w", err)
	}
	return logs, nil
}

// DeleteOldLogs removes entries older than the retention cutoff for one
// tenant. Returns the number of rows deleted.
func (r *AuditRepository) DeleteOldLogs(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND timestamp < ?", tenantID, cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetRetentionSettings returns the tenant's retention settings, or nil when
// the tenant has none and the default window applies.
func (r *AuditRepository) GetRetentionSettings(ctx context.Context, tenantID uuid.UUID) (*models.RetentionSettings, error) {
	var settings models.RetentionSettings
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get retention settings: %w", err)
	}
	return &settings, nil
}

// StampCleanup records when retention cleanup last ran for a tenant. A
// tenant without a settings row is left alone.
func (r *AuditRepository) StampCleanup(ctx context.Context, tenantID uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.RetentionSettings{}).
		Where("tenant_id = ?", tenantID).
		Update("last_cleanup_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to stamp retention cleanup: %w", err)
	}
	return nil
}

// ListTenantIDs returns the distinct tenants that have audit entries.
func (r *AuditRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit tenants: %w", err)
	}
	return ids, nil
}

func (r *AuditRepository) buildQuery(ctx context.Context, filter models.AuditFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("tenant_id = ?", filter.TenantID)
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TableName != "" {
		query = query.Where("table_name = ?", filter.TableName)
	}
	if filter.FromDate != nil {
		query = query.Where("timestamp >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("timestamp <= ?", *filter.ToDate)
	}
	return query
}
