package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"fleet-backoffice/internal/models"
)

func TestFleetRepository_ListFiltersByTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFleetRepository(db)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 ORDER BY created_at DESC`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).
			AddRow(uuid.New(), tenantID, "Acme Logistics"))

	var clients []models.Client
	err := repo.List(context.Background(), tenantID, "clients", &clients)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Logistics", clients[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetRepository_GetScopesByTenantAndID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFleetRepository(db)
	tenantID := uuid.New()
	truckID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "trucks" WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(tenantID, truckID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "plate_number"}).
			AddRow(truckID, tenantID, "ABC-123"))

	var truck models.Truck
	err := repo.Get(context.Background(), tenantID, truckID, &truck)
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", truck.PlateNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetRepository_GetForeignTenantReadsAsMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFleetRepository(db)

	// The row exists under another tenant; the scoped query simply finds
	// nothing.
	mock.ExpectQuery(`SELECT \* FROM "trucks" WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var truck models.Truck
	err := repo.Get(context.Background(), uuid.New(), uuid.New(), &truck)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFleetRepository_DeleteReturnsAffectedRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFleetRepository(db)
	tenantID := uuid.New()
	id := uuid.New()

	t.Run("own tenant row removed", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM drivers WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		affected, err := repo.Delete(context.Background(), nil, "drivers", tenantID, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
	})

	t.Run("foreign tenant row untouched", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM drivers WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := repo.Delete(context.Background(), nil, "drivers", tenantID, id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestFleetRepository_UpdateRepeatsTenantFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFleetRepository(db)
	tenantID := uuid.New()
	client := &models.Client{ID: uuid.New(), TenantID: tenantID, Name: "Renamed"}

	mock.ExpectExec(`UPDATE "clients" SET .* WHERE tenant_id = \$\d+ AND id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Update(context.Background(), nil, client)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetRepository_UpdateClearsEmptiedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFleetRepository(db)
	client := &models.Client{ID: uuid.New(), TenantID: uuid.New(), Name: "Acme"}

	// A full-record save writes every column, so a field submitted as
	// empty overwrites the stored value instead of being skipped.
	mock.ExpectExec(`UPDATE "clients" SET .*"contact_email"=\$\d+.* WHERE tenant_id = \$\d+ AND id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Update(context.Background(), nil, client)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetRepository_ScheduleRowsJoinStaysInTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFleetRepository(db)
	tenantID := uuid.New()
	driverID := uuid.New()
	load := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM "shipments" JOIN drivers ON drivers\.id = shipments\.driver_id AND drivers\.tenant_id = shipments\.tenant_id WHERE shipments\.tenant_id = \$1 AND shipments\.driver_id IS NOT NULL AND shipments\.load_date >= \$2 AND shipments\.load_date < \$3`).
		WithArgs(tenantID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"driver_id", "first_name", "last_name", "shipment_id", "origin", "destination", "load_date", "status"}).
			AddRow(driverID, "Jonas", "Petrauskas", uuid.New(), "Vilnius", "Berlin", load, "planned"))

	rows, err := repo.ScheduleRows(context.Background(), tenantID, load.AddDate(0, 0, -1), load.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jonas", rows[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetRepository_ScheduleRowsExcludeWindowEnd(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFleetRepository(db)
	tenantID := uuid.New()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	// A shipment loading exactly at the next week's start belongs to the
	// next window only.
	mock.ExpectQuery(`shipments\.load_date >= \$2 AND shipments\.load_date < \$3`).
		WithArgs(tenantID, from, to).
		WillReturnRows(sqlmock.NewRows([]string{"driver_id"}))

	rows, err := repo.ScheduleRows(context.Background(), tenantID, from, to)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
