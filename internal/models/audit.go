package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction is the verb of a recorded mutation.
type AuditAction string

const (
	ActionInsert  AuditAction = "INSERT"
	ActionUpdate  AuditAction = "UPDATE"
	ActionDelete  AuditAction = "DELETE"
	ActionApprove AuditAction = "APPROVE"
	ActionLogin   AuditAction = "LOGIN"
)

// AuditLog is an append-only record of a state-changing operation. Rows are
// never updated or deleted by normal operation; the actor reference does not
// cascade, so entries may outlive their user.
type AuditLog struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	ActorID     *uuid.UUID     `json:"actor_id" gorm:"type:uuid;index"`
	Action      AuditAction    `json:"action" gorm:"type:varchar(20);not null;index"`
	EntityTable string         `json:"table_name" gorm:"column:table_name;type:varchar(100);not null;index"`
	RecordID    string         `json:"record_id" gorm:"type:varchar(255);index"`
	Details     datatypes.JSON `json:"details" gorm:"type:jsonb"`
	Timestamp   time.Time      `json:"timestamp" gorm:"index;not null"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate stamps the entry with full timestamp precision.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return nil
}

// AuditFilter is the read-side filter criteria. Results are always ordered
// newest-first.
type AuditFilter struct {
	TenantID  uuid.UUID
	ActorID   *uuid.UUID
	Action    AuditAction
	TableName string
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}

// RetentionSettings holds the per-tenant audit retention window consumed by
// the cleanup scheduler.
type RetentionSettings struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      uuid.UUID  `json:"tenant_id" gorm:"type:uuid;uniqueIndex;not null"`
	RetentionDays int        `json:"retention_days" gorm:"not null;default:365"`
	LastCleanupAt *time.Time `json:"last_cleanup_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (RetentionSettings) TableName() string {
	return "audit_retention_settings"
}
