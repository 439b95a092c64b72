package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fleet-backoffice/internal/models"
)

// CollaborationStore is the slice of the auth repository the shared-data
// service needs.
type CollaborationStore interface {
	GetCollaboration(ctx context.Context, a, b uuid.UUID) (*models.TenantCollaboration, error)
	CreateCollaboration(ctx context.Context, collab *models.TenantCollaboration) error
	ListDocumentsForTenants(ctx context.Context, tenantIDs []uuid.UUID) ([]models.Document, error)
}

// SharedDataService serves the collaboration read path, the one deliberate
// break in per-tenant isolation.
type SharedDataService struct {
	repo CollaborationStore
}

// NewSharedDataService creates the shared-data service.
func NewSharedDataService(repo CollaborationStore) *SharedDataService {
	return &SharedDataService{repo: repo}
}

// SharedDocuments returns documents visible from callerTenant when asking
// for requestedTenant. Asking for one's own tenant returns its documents;
// asking for another requires a collaboration in either column order and
// yields the union of both tenants' documents. No collaboration means
// ErrForbidden.
func (s *SharedDataService) SharedDocuments(ctx context.Context, callerTenant, requestedTenant uuid.UUID) ([]models.Document, error) {
	if callerTenant == requestedTenant {
		return s.repo.ListDocumentsForTenants(ctx, []uuid.UUID{callerTenant})
	}

	collab, err := s.repo.GetCollaboration(ctx, callerTenant, requestedTenant)
	if err != nil {
		return nil, fmt.Errorf("collaboration lookup failed: %w", err)
	}
	if collab == nil {
		return nil, ErrForbidden
	}

	return s.repo.ListDocumentsForTenants(ctx, []uuid.UUID{callerTenant, requestedTenant})
}

// Collaborate pairs two tenants for mutual document access. Pairing twice
// in either order is a no-op.
func (s *SharedDataService) Collaborate(ctx context.Context, a, b uuid.UUID) (*models.TenantCollaboration, error) {
	if a == b {
		return nil, ErrForbidden
	}
	existing, err := s.repo.GetCollaboration(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("collaboration lookup failed: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	collab := &models.TenantCollaboration{TenantA: a, TenantB: b}
	if err := s.repo.CreateCollaboration(ctx, collab); err != nil {
		return nil, err
	}
	return collab, nil
}
