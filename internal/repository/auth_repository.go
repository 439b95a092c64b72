package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleet-backoffice/internal/models"
)

// AuthRepository handles users, tenants, memberships and collaborations.
type AuthRepository struct {
	db *gorm.DB
}

// NewAuthRepository creates a new auth repository.
func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// DB exposes the underlying handle for transaction composition.
func (r *AuthRepository) DB() *gorm.DB {
	return r.db
}

// ============================================================================
// Users
// ============================================================================

// CreateUser inserts a new user. A duplicate email surfaces as a wrapped
// gorm.ErrDuplicatedKey.
func (r *AuthRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("user already exists: %w", gorm.ErrDuplicatedKey)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email. Missing users return (nil, nil).
func (r *AuthRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by id.
func (r *AuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUser persists user changes.
func (r *AuthRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// StampLogin records a successful login and clears the durable lockout
// mirror on the user row.
func (r *AuthRepository) StampLogin(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login_at":   now,
			"failed_attempts": 0,
			"locked_until":    nil,
			"updated_at":      now,
		}).Error; err != nil {
		return fmt.Errorf("failed to stamp login: %w", err)
	}
	return nil
}

// MirrorLockout updates the admin-visible lockout columns on the user row.
// Best-effort; the lockout store is authoritative.
func (r *AuthRepository) MirrorLockout(ctx context.Context, email string, attempts int, lockedUntil *time.Time) {
	r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(email)).
		Updates(map[string]interface{}{
			"failed_attempts": attempts,
			"locked_until":    lockedUntil,
			"updated_at":      time.Now(),
		})
}

// ListPendingUsers returns inactive users awaiting approval. Tenant admins
// see only their tenant's pending memberships; super-admins pass uuid.Nil
// to see all.
func (r *AuthRepository) ListPendingUsers(ctx context.Context, tenantID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	query := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tenant").
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("users.is_active = ?", false)
	if tenantID != uuid.Nil {
		query = query.Where("memberships.tenant_id = ?", tenantID)
	}
	if err := query.Order("memberships.created_at ASC").Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}
	return memberships, nil
}

// ============================================================================
// Tenants
// ============================================================================

// CreateTenant inserts a new tenant.
func (r *AuthRepository) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("tenant already exists: %w", gorm.ErrDuplicatedKey)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetTenantByID retrieves a tenant by id.
func (r *AuthRepository) GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

// ListTenants returns all tenants, newest first.
func (r *AuthRepository) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

// RenameTenant updates the tenant name, the only mutable field.
func (r *AuthRepository) RenameTenant(ctx context.Context, id uuid.UUID, name string) error {
	result := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to rename tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ============================================================================
// Memberships
// ============================================================================

// UpsertMembership grants a role to a (user, tenant) pair. Granting twice
// updates the role in place; the pair never maps to more than one row.
func (r *AuthRepository) UpsertMembership(ctx context.Context, membership *models.Membership) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(membership).Error; err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// GetMembership retrieves the membership for a (user, tenant) pair.
// Missing memberships return (nil, nil); the caller decides how much of
// that to reveal.
func (r *AuthRepository) GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &membership, nil
}

// GetUserMemberships retrieves all memberships for a user.
func (r *AuthRepository) GetUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.WithContext(ctx).
		Preload("Tenant").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to get user memberships: %w", err)
	}
	return memberships, nil
}

// ============================================================================
// Collaborations
// ============================================================================

// GetCollaboration looks up a collaboration pairing two tenants in either
// column order. The relation is symmetric.
func (r *AuthRepository) GetCollaboration(ctx context.Context, a, b uuid.UUID) (*models.TenantCollaboration, error) {
	var collab models.TenantCollaboration
	if err := r.db.WithContext(ctx).
		Where("(tenant_a = ? AND tenant_b = ?) OR (tenant_a = ? AND tenant_b = ?)", a, b, b, a).
		First(&collab).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collaboration: %w", err)
	}
	return &collab, nil
}

// CreateCollaboration pairs two tenants for shared-document access.
func (r *AuthRepository) CreateCollaboration(ctx context.Context, collab *models.TenantCollaboration) error {
	if err := r.db.WithContext(ctx).Create(collab).Error; err != nil {
		return fmt.Errorf("failed to create collaboration: %w", err)
	}
	return nil
}

// ListDocumentsForTenants returns documents owned by any of the given
// tenants, newest first. Used by the shared-data read path only.
func (r *AuthRepository) ListDocumentsForTenants(ctx context.Context, tenantIDs []uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	if err := r.db.WithContext(ctx).
		Where("tenant_id IN ?", tenantIDs).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}
