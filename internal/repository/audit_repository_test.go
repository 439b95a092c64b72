package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-backoffice/internal/models"
)

func TestAuditRepository_ListScopesAndOrders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE tenant_id = \$1`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE tenant_id = \$1 ORDER BY timestamp DESC`).
		WithArgs(tenantID, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "action", "table_name"}).
			AddRow(uuid.New(), tenantID, "UPDATE", "trucks").
			AddRow(uuid.New(), tenantID, "INSERT", "trucks"))

	logs, total, err := repo.List(context.Background(), models.AuditFilter{TenantID: tenantID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_ListAppliesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	tenantID := uuid.New()
	actorID := uuid.New()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE tenant_id = \$1 AND actor_id = \$2 AND action = \$3 AND table_name = \$4 AND timestamp >= \$5`).
		WithArgs(tenantID, actorID, "DELETE", "shipments", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE tenant_id = \$1 AND actor_id = \$2 AND action = \$3 AND table_name = \$4 AND timestamp >= \$5 ORDER BY timestamp DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, total, err := repo.List(context.Background(), models.AuditFilter{
		TenantID:  tenantID,
		ActorID:   &actorID,
		Action:    models.ActionDelete,
		TableName: "shipments",
		FromDate:  &from,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestAuditRepository_DeleteOldLogs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	tenantID := uuid.New()
	cutoff := time.Now().AddDate(0, 0, -365)

	mock.ExpectExec(`DELETE FROM "audit_logs" WHERE tenant_id = \$1 AND timestamp < \$2`).
		WithArgs(tenantID, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := repo.DeleteOldLogs(context.Background(), tenantID, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
}

func TestAuditRepository_CreateStampsTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	tenantID := uuid.New()

	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

	entry := &models.AuditLog{
		TenantID:    tenantID,
		Action:      models.ActionInsert,
		EntityTable: "clients",
		RecordID:    uuid.New().String(),
	}
	err := repo.Create(context.Background(), nil, entry)
	require.NoError(t, err)
	assert.False(t, entry.Timestamp.IsZero(), "entries get a server-side timestamp")
}
