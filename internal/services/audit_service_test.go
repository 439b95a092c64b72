package services

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/csv"
	"testing"
	"time"

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

func newAuditFixture(t *testing.T) (*AuditService, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewAuditService(repository.NewAuditRepository(db), nil, quietLogger()), mock
}

func TestAuditService_RecordUnserializableDetailsDegradesGracefully(t *testing.T) {
	svc, mock := newAuditFixture(t)
	tenantID := uuid.New()

	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

	// A channel cannot be marshalled; the entry is still written, with
	// null details.
	err := svc.Record(context.Background(), nil, tenantID, nil, models.ActionUpdate, "trucks", "t-1", make(chan int))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_ExportCSV(t *testing.T) {
	svc, mock := newAuditFixture(t)
	tenantID := uuid.New()
	actor := uuid.New()
	ts := time.Date(2025, 6, 1, 9, 30, 0, 123456789, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE tenant_id = \$1 ORDER BY timestamp ASC`).
		WithArgs(tenantID, 10000).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "actor_id", "action", "table_name", "record_id", "details", "timestamp"}).
			AddRow(uuid.New(), tenantID, actor, "INSERT", "clients", "c-1", []byte(`{"name":"Acme"}`), ts))

	var buf bytes.Buffer
	err := svc.ExportCSV(context.Background(), &buf, models.AuditFilter{TenantID: tenantID}, 10000)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "header plus one entry")
	assert.Equal(t, []string{"timestamp", "actor_id", "action", "table_name", "record_id", "details"}, records[0])
	assert.Equal(t, ts.Format(time.RFC3339Nano), records[1][0], "timestamps keep full precision")
	assert.Equal(t, actor.String(), records[1][1])
	assert.Equal(t, `{"name":"Acme"}`, records[1][5])
}

// cutoffNear matches a timestamp within a minute of now minus the given
// number of days.
type cutoffNear int

func (d cutoffNear) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	if !ok {
		return false
	}
	want := time.Now().AddDate(0, 0, -int(d))
	diff := ts.Sub(want)
	return diff > -time.Minute && diff < time.Minute
}

func TestAuditService_CleanupExpired(t *testing.T) {
	svc, mock := newAuditFixture(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	mock.ExpectQuery(`SELECT DISTINCT "tenant_id" FROM "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(tenantA).AddRow(tenantB))

	// tenantA has no settings row and falls back to the default window.
	mock.ExpectQuery(`SELECT \* FROM "audit_retention_settings" WHERE tenant_id = \$1`).
		WithArgs(tenantA, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`DELETE FROM "audit_logs" WHERE tenant_id = \$1 AND timestamp < \$2`).
		WithArgs(tenantA, cutoffNear(365)).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec(`UPDATE "audit_retention_settings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// tenantB keeps only 30 days.
	mock.ExpectQuery(`SELECT \* FROM "audit_retention_settings" WHERE tenant_id = \$1`).
		WithArgs(tenantB, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "retention_days"}).
			AddRow(uuid.New(), tenantB, 30))
	mock.ExpectExec(`DELETE FROM "audit_logs" WHERE tenant_id = \$1 AND timestamp < \$2`).
		WithArgs(tenantB, cutoffNear(30)).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`UPDATE "audit_retention_settings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := svc.CleanupExpired(context.Background(), 365)
	require.NoError(t, err)
	assert.Equal(t, int64(15), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
