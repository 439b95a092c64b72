package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/repository"
)

func newFleetFixture(t *testing.T) (*FleetService, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	auditSvc := NewAuditService(repository.NewAuditRepository(db), nil, quietLogger())
	svc := NewFleetService(db, repository.NewFleetRepository(db), auditSvc, quietLogger())
	return svc, mock
}

func TestFleetService_SaveInsertWritesExactlyOneAuditRow(t *testing.T) {
	svc, mock := newFleetFixture(t)
	tenantID := uuid.New()
	actor := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	client := &models.Client{Name: "Acme Logistics"}
	err := svc.Save(context.Background(), tenantID, &actor, client)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, client.ID)
	assert.Equal(t, tenantID, client.TenantID, "tenant comes from the session, not the payload")
	assert.NoError(t, mock.ExpectationsWereMet(), "the mutation and its single audit row share one transaction")
}

func TestFleetService_SaveOverridesPayloadTenant(t *testing.T) {
	svc, mock := newFleetFixture(t)
	sessionTenant := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	client := &models.Client{Name: "Smuggler Inc", TenantID: uuid.New()}
	err := svc.Save(context.Background(), sessionTenant, nil, client)
	require.NoError(t, err)
	assert.Equal(t, sessionTenant, client.TenantID)
}

func TestFleetService_SaveValidationFailsBeforeAnySQL(t *testing.T) {
	svc, mock := newFleetFixture(t)

	err := svc.Save(context.Background(), uuid.New(), nil, &models.Client{})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "name")
	assert.NoError(t, mock.ExpectationsWereMet(), "invalid payloads never reach the database")
}

func TestFleetService_UpdateForeignTenantRollsBack(t *testing.T) {
	svc, mock := newFleetFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "clients" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	client := &models.Client{ID: uuid.New(), Name: "Foreign"}
	err := svc.Save(context.Background(), uuid.New(), nil, client)
	assert.ErrorIs(t, err, ErrNotFound, "a foreign-tenant id reads as missing, never as forbidden")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetService_DeleteForeignTenantRollsBack(t *testing.T) {
	svc, mock := newFleetFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM drivers WHERE tenant_id = \$1 AND id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), uuid.New(), nil, "drivers", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetService_DeleteAuditsInSameTransaction(t *testing.T) {
	svc, mock := newFleetFixture(t)
	tenantID := uuid.New()
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM drivers`).
		WithArgs(tenantID, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), tenantID, nil, "drivers", id)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetService_AuditFailureAbortsMutation(t *testing.T) {
	svc, mock := newFleetFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnError(gorm.ErrInvalidDB)
	mock.ExpectRollback()

	err := svc.Save(context.Background(), uuid.New(), nil, &models.Client{Name: "Acme"})
	assert.Error(t, err, "a failed audit write rolls the mutation back with it")
	assert.NoError(t, mock.ExpectationsWereMet())
}
