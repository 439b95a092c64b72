package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-backoffice/internal/models"
)

// fakeCollabStore keeps collaborations and documents in memory and mimics
// the repository's either-column-order lookup.
type fakeCollabStore struct {
	collabs []models.TenantCollaboration
	docs    map[uuid.UUID][]models.Document
}

func (f *fakeCollabStore) GetCollaboration(ctx context.Context, a, b uuid.UUID) (*models.TenantCollaboration, error) {
	for i := range f.collabs {
		c := f.collabs[i]
		if (c.TenantA == a && c.TenantB == b) || (c.TenantA == b && c.TenantB == a) {
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCollabStore) CreateCollaboration(ctx context.Context, collab *models.TenantCollaboration) error {
	collab.ID = uuid.New()
	f.collabs = append(f.collabs, *collab)
	return nil
}

func (f *fakeCollabStore) ListDocumentsForTenants(ctx context.Context, tenantIDs []uuid.UUID) ([]models.Document, error) {
	var out []models.Document
	for _, id := range tenantIDs {
		out = append(out, f.docs[id]...)
	}
	return out, nil
}

func TestSharedDocuments_OwnTenant(t *testing.T) {
	tenantA := uuid.New()
	store := &fakeCollabStore{docs: map[uuid.UUID][]models.Document{
		tenantA: {{Name: "cmr-001"}, {Name: "cmr-002"}},
	}}
	svc := NewSharedDataService(store)

	docs, err := svc.SharedDocuments(context.Background(), tenantA, tenantA)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSharedDocuments_NoCollaborationIsForbidden(t *testing.T) {
	svc := NewSharedDataService(&fakeCollabStore{docs: map[uuid.UUID][]models.Document{}})

	_, err := svc.SharedDocuments(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSharedDocuments_CollaborationIsSymmetric(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	store := &fakeCollabStore{
		collabs: []models.TenantCollaboration{{TenantA: tenantA, TenantB: tenantB}},
		docs: map[uuid.UUID][]models.Document{
			tenantA: {{Name: "invoice-a"}},
			tenantB: {{Name: "invoice-b"}, {Name: "pod-b"}},
		},
	}
	svc := NewSharedDataService(store)

	// The single (A, B) row grants the read in both directions and yields
	// the union of both tenants' documents.
	fromA, err := svc.SharedDocuments(context.Background(), tenantA, tenantB)
	require.NoError(t, err)
	assert.Len(t, fromA, 3)

	fromB, err := svc.SharedDocuments(context.Background(), tenantB, tenantA)
	require.NoError(t, err)
	assert.Len(t, fromB, 3)
}

func TestCollaborate_IdempotentEitherOrder(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	store := &fakeCollabStore{docs: map[uuid.UUID][]models.Document{}}
	svc := NewSharedDataService(store)

	first, err := svc.Collaborate(context.Background(), tenantA, tenantB)
	require.NoError(t, err)

	second, err := svc.Collaborate(context.Background(), tenantB, tenantA)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "pairing again in reverse order reuses the row")
	assert.Len(t, store.collabs, 1)
}

func TestCollaborate_SelfPairRejected(t *testing.T) {
	svc := NewSharedDataService(&fakeCollabStore{})
	id := uuid.New()
	_, err := svc.Collaborate(context.Background(), id, id)
	assert.ErrorIs(t, err, ErrForbidden)
}
