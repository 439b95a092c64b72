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

// FleetRepository provides tenant-scoped persistence for every business
// entity. Each query filters on tenant_id explicitly; a row outside the
// session tenant behaves exactly like a row that does not exist.
type FleetRepository struct {
	db *gorm.DB
}

// NewFleetRepository creates a new fleet repository.
func NewFleetRepository(db *gorm.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

// DB exposes the underlying handle for transaction composition.
func (r *FleetRepository) DB() *gorm.DB {
	return r.db
}

// Get loads one record by id within the tenant scope into dest.
func (r *FleetRepository) Get(ctx context.Context, tenantID, id uuid.UUID, dest models.TenantScoped) error {
	err := r.db.WithContext(ctx).
		Table(dest.TableName()).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gorm.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", dest.TableName(), err)
	}
	return nil
}

// List loads all tenant records into dest, which must be a pointer to a
// slice of the entity type.
func (r *FleetRepository) List(ctx context.Context, tenantID uuid.UUID, table string, dest interface{}) error {
	if err := r.db.WithContext(ctx).
		Table(table).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(dest).Error; err != nil {
		return fmt.Errorf("failed to list %s: %w", table, err)
	}
	return nil
}

// Insert creates the record on the given transaction handle.
func (r *FleetRepository) Insert(ctx context.Context, tx *gorm.DB, record models.TenantScoped) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert %s: %w", record.TableName(), err)
	}
	return nil
}

// Update saves the full record on the given transaction handle. Selecting
// every column makes the update a whole-record save, so a field submitted
// as empty actually clears the stored value. The WHERE clause repeats the
// tenant filter so a stale or forged id cannot touch another tenant's row.
func (r *FleetRepository) Update(ctx context.Context, tx *gorm.DB, record models.TenantScoped) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Table(record.TableName()).
		Where("tenant_id = ? AND id = ?", record.GetTenantID(), record.GetID()).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(record)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update %s: %w", record.TableName(), result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes one tenant-scoped row. Returns rows affected so the
// service can map zero to not-found.
func (r *FleetRepository) Delete(ctx context.Context, tx *gorm.DB, table string, tenantID, id uuid.UUID) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", table), tenantID, id)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, result.Error)
	}
	return result.RowsAffected, nil
}

// ScheduleRow is one cell source for the driver/day pivot: a shipment's
// driver and load date.
type ScheduleRow struct {
	DriverID    uuid.UUID  `json:"driver_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	ShipmentID  uuid.UUID  `json:"shipment_id"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	LoadDate    *time.Time `json:"load_date"`
	Status      string     `json:"status"`
}

// ScheduleRows returns driver-assigned shipments loading inside the
// half-open window [from, to), joined with driver names, for the schedule
// pivot. The exclusive upper bound keeps a shipment loading exactly at a
// week boundary out of the preceding week.
func (r *FleetRepository) ScheduleRows(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]ScheduleRow, error) {
	var rows []ScheduleRow
	if err := r.db.WithContext(ctx).
		Table("shipments").
		Select(`shipments.driver_id, drivers.first_name, drivers.last_name,
			shipments.id AS shipment_id, shipments.origin, shipments.destination,
			shipments.load_date, shipments.status`).
		Joins("JOIN drivers ON drivers.id = shipments.driver_id AND drivers.tenant_id = shipments.tenant_id").
		Where("shipments.tenant_id = ?", tenantID).
		Where("shipments.driver_id IS NOT NULL").
		Where("shipments.load_date >= ?", from).
		Where("shipments.load_date < ?", to).
		Order("drivers.last_name ASC, shipments.load_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query schedule rows: %w", err)
	}
	return rows, nil
}
