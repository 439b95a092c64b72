package models

import (
	"time"

	"github.com/google/uuid"
)

// Role names. Roles are stable strings stored on the membership row.
const (
	RoleSuperAdmin   = "super_admin"
	RoleCompanyAdmin = "company_admin"
	RoleUser         = "user"
)

// Tenant is the root of row isolation. Deletion is unsupported; only the
// name may change after creation.
type Tenant struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Status    string    `json:"status" gorm:"type:varchar(20);default:'active'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// User is tenant-independent; tenant association happens through memberships.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	DisplayName  string    `json:"display_name" gorm:"type:varchar(255)"`
	JobTitle     string    `json:"job_title" gorm:"type:varchar(255)"`
	IsActive     bool      `json:"is_active" gorm:"default:false"`

	// Durable mirror of the lockout store, kept for admin visibility.
	FailedAttempts int        `json:"failed_attempts" gorm:"default:0"`
	LockedUntil    *time.Time `json:"locked_until"`
	LastLoginAt    *time.Time `json:"last_login_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Membership ties exactly one role to a (user, tenant) pair.
type Membership struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_tenant"`
	TenantID uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_tenant"`
	Role     string    `json:"role" gorm:"type:varchar(50);not null"`

	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Membership) TableName() string {
	return "memberships"
}

// TenantCollaboration pairs two tenants for mutual read access to shared
// documents. The relation is symmetric; (a,b) and (b,a) are equivalent.
type TenantCollaboration struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantA   uuid.UUID `json:"tenant_a" gorm:"type:uuid;not null;uniqueIndex:idx_collab_pair"`
	TenantB   uuid.UUID `json:"tenant_b" gorm:"type:uuid;not null;uniqueIndex:idx_collab_pair"`
	CreatedAt time.Time `json:"created_at"`
}

func (TenantCollaboration) TableName() string {
	return "tenant_collaborations"
}

// Document is a tenant-owned resource served by the shared-data read path,
// the single deliberate break in per-tenant isolation.
type Document struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Kind      string    `json:"kind" gorm:"type:varchar(50)"`
	Reference string    `json:"reference" gorm:"type:varchar(500)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}
