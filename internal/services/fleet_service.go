package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/repository"
)

// ValidationError carries per-field failures for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// FleetService runs the tenant-scoped CRUD for every business entity.
// Mutations and their audit entries commit in one transaction; a record
// belonging to another tenant is indistinguishable from a missing one.
type FleetService struct {
	db     *gorm.DB
	repo   *repository.FleetRepository
	audit  *AuditService
	logger *logrus.Logger
}

// NewFleetService creates the fleet service.
func NewFleetService(db *gorm.DB, repo *repository.FleetRepository, audit *AuditService, logger *logrus.Logger) *FleetService {
	return &FleetService{db: db, repo: repo, audit: audit, logger: logger}
}

// Get loads one record within the tenant scope.
func (s *FleetService) Get(ctx context.Context, tenantID, id uuid.UUID, dest models.TenantScoped) error {
	err := s.repo.Get(ctx, tenantID, id, dest)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// List loads all tenant records into dest.
func (s *FleetService) List(ctx context.Context, tenantID uuid.UUID, table string, dest interface{}) error {
	return s.repo.List(ctx, tenantID, table, dest)
}

// Save inserts the record when its id is absent and updates it otherwise.
// The tenant column always comes from the session, never the payload, and
// the matching audit entry commits in the same transaction.
func (s *FleetService) Save(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, record models.TenantScoped) error {
	if errs := record.Validate(); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}

	record.SetTenantID(tenantID)

	isInsert := record.GetID() == uuid.Nil
	action := models.ActionUpdate
	if isInsert {
		record.SetID(uuid.New())
		action = models.ActionInsert
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if isInsert {
			if err := s.repo.Insert(ctx, tx, record); err != nil {
				return err
			}
		} else {
			affected, err := s.repo.Update(ctx, tx, record)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrNotFound
			}
		}
		return s.audit.Record(ctx, tx, tenantID, actorID, action, record.TableName(), record.GetID().String(), record)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"table":     record.TableName(),
		"record_id": record.GetID(),
		"tenant_id": tenantID,
		"action":    action,
	}).Debug("record saved")
	return nil
}

// Delete removes one tenant-scoped record, auditing the removal in the same
// transaction. A foreign-tenant id reports ErrNotFound.
func (s *FleetService) Delete(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, table string, id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.repo.Delete(ctx, tx, table, tenantID, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return s.audit.Record(ctx, tx, tenantID, actorID, models.ActionDelete, table, id.String(), nil)
	})
}

// ScheduleDay is one driver's shipments on one day of the pivot.
type ScheduleDay struct {
	Date      string                   `json:"date"`
	Shipments []repository.ScheduleRow `json:"shipments"`
}

// DriverSchedule is the pivot row for one driver over the window.
type DriverSchedule struct {
	DriverID  uuid.UUID     `json:"driver_id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Days      []ScheduleDay `json:"days"`
}

// Schedule builds the shipments-per-driver-per-day pivot over the window.
// Read-only; it makes no routing or capacity guarantees.
func (s *FleetService) Schedule(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]DriverSchedule, error) {
	rows, err := s.repo.ScheduleRows(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	var result []DriverSchedule
	index := map[uuid.UUID]int{}
	for _, row := range rows {
		i, ok := index[row.DriverID]
		if !ok {
			i = len(result)
			index[row.DriverID] = i
			result = append(result, DriverSchedule{
				DriverID:  row.DriverID,
				FirstName: row.FirstName,
				LastName:  row.LastName,
			})
		}

		day := ""
		if row.LoadDate != nil {
			day = row.LoadDate.Format("2006-01-02")
		}
		driver := &result[i]
		if n := len(driver.Days); n > 0 && driver.Days[n-1].Date == day {
			driver.Days[n-1].Shipments = append(driver.Days[n-1].Shipments, row)
		} else {
			driver.Days = append(driver.Days, ScheduleDay{Date: day, Shipments: []repository.ScheduleRow{row}})
		}
	}
	return result, nil
}
