package migration

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/repository"
	"fleet-backoffice/internal/services"
)

// RunMigrations brings the schema up to date.
func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Membership{},
		&models.TenantCollaboration{},
		&models.Document{},
		&models.AuditLog{},
		&models.RetentionSettings{},
		&models.Client{},
		&models.Truck{},
		&models.TrailerType{},
		&models.Trailer{},
		&models.Driver{},
		&models.Employee{},
		&models.Shipment{},
		&models.Group{},
		&models.GroupRegion{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

// SeedSuperAdmin bootstraps the first super-admin from SUPERADMIN_EMAIL /
// SUPERADMIN_PASSWORD. A no-op when the variables are unset or the user
// already exists.
func SeedSuperAdmin(db *gorm.DB, logger *logrus.Logger) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("SUPERADMIN_EMAIL")))
	password := os.Getenv("SUPERADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	ctx := context.Background()
	repo := repository.NewAuthRepository(db)

	existing, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("super admin lookup failed: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := services.NewPasswordService().HashPassword(password)
	if err != nil {
		return fmt.Errorf("super admin password rejected: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		tenant := &models.Tenant{Name: "platform", Status: "active"}
		if err := tx.Where("name = ?", tenant.Name).FirstOrCreate(tenant).Error; err != nil {
			return fmt.Errorf("failed to ensure platform tenant: %w", err)
		}

		user := &models.User{
			Email:        email,
			PasswordHash: hash,
			DisplayName:  "Platform Admin",
			IsActive:     true,
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create super admin: %w", err)
		}

		membership := &models.Membership{
			UserID:   user.ID,
			TenantID: tenant.ID,
			Role:     models.RoleSuperAdmin,
		}
		if err := tx.Create(membership).Error; err != nil {
			return fmt.Errorf("failed to create super admin membership: %w", err)
		}

		logger.WithField("email", email).Info("super admin seeded")
		return nil
	})
}
