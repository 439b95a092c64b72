package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/repository"
)

// AdminService covers the super-admin and tenant-admin surface: tenant
// provisioning, admin grants and the registration approval flow.
type AdminService struct {
	db     *gorm.DB
	repo   *repository.AuthRepository
	audit  *AuditService
	logger *logrus.Logger
}

// NewAdminService creates the admin service.
func NewAdminService(db *gorm.DB, repo *repository.AuthRepository, audit *AuditService, logger *logrus.Logger) *AdminService {
	return &AdminService{db: db, repo: repo, audit: audit, logger: logger}
}

// CreateTenant provisions a new tenant. Duplicate names return ErrDuplicate.
func (s *AdminService) CreateTenant(ctx context.Context, name string, actorID *uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{Name: name, Status: "active"}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(tenant).Error; err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, tenant.ID, actorID, models.ActionInsert, "tenants", tenant.ID.String(), tenant)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return tenant, nil
}

// ListTenants returns all tenants.
func (s *AdminService) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

// RenameTenant updates a tenant name, the only mutable tenant field.
func (s *AdminService) RenameTenant(ctx context.Context, id uuid.UUID, name string, actorID *uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&models.Tenant{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"name": name, "updated_at": time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.audit.Record(ctx, tx, id, actorID, models.ActionUpdate, "tenants", id.String(), map[string]string{"name": name})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to rename tenant: %w", err)
	}
	return nil
}

// GrantAdmin gives a user the company_admin role in a tenant. The grant is
// idempotent; repeating it leaves a single membership row.
func (s *AdminService) GrantAdmin(ctx context.Context, tenantID, userID uuid.UUID, actorID *uuid.UUID) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("grant failed: %w", err)
	}
	if user == nil {
		return ErrNotFound
	}
	tenant, err := s.repo.GetTenantByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("grant failed: %w", err)
	}
	if tenant == nil {
		return ErrNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		membership := &models.Membership{
			UserID:   userID,
			TenantID: tenantID,
			Role:     models.RoleCompanyAdmin,
		}
		txRepo := repository.NewAuthRepository(tx)
		if err := txRepo.UpsertMembership(ctx, membership); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, tenantID, actorID, models.ActionUpdate, "memberships", userID.String(),
			map[string]string{"role": models.RoleCompanyAdmin})
	})
}

// ListPendingUsers returns inactive registrations awaiting approval,
// restricted to one tenant unless called tenant-less by a super-admin.
func (s *AdminService) ListPendingUsers(ctx context.Context, tenantID uuid.UUID) ([]models.Membership, error) {
	return s.repo.ListPendingUsers(ctx, tenantID)
}

// ApproveUser activates a pending registration. It flips the active flag,
// sets the membership role, creates the operational employee row and writes
// the audit entry, all in one transaction. asAdmin selects company_admin
// instead of user.
func (s *AdminService) ApproveUser(ctx context.Context, tenantID, userID uuid.UUID, asAdmin bool, actorID *uuid.UUID) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("approve failed: %w", err)
	}
	if user == nil {
		return ErrNotFound
	}

	membership, err := s.repo.GetMembership(ctx, userID, tenantID)
	if err != nil {
		return fmt.Errorf("approve failed: %w", err)
	}
	if membership == nil {
		return ErrNotFound
	}

	role := models.RoleUser
	if asAdmin {
		role = models.RoleCompanyAdmin
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{"is_active": true, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to activate user: %w", err)
		}

		if err := tx.WithContext(ctx).Model(&models.Membership{}).
			Where("user_id = ? AND tenant_id = ?", userID, tenantID).
			Updates(map[string]interface{}{"role": role, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to set membership role: %w", err)
		}

		employee := &models.Employee{
			TenantID:  tenantID,
			UserID:    &userID,
			FirstName: user.DisplayName,
			Email:     user.Email,
			JobTitle:  user.JobTitle,
		}
		if employee.FirstName == "" {
			employee.FirstName = user.Email
		}
		if err := tx.WithContext(ctx).Create(employee).Error; err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}

		return s.audit.Record(ctx, tx, tenantID, actorID, models.ActionApprove, "users", userID.String(),
			map[string]interface{}{"role": role, "employee_id": employee.ID})
	})
}

func isDuplicateKey(err error) bool {
	return err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key"))
}
