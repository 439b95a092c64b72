package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-backoffice/internal/middleware"
	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/services"
)

// AdminHandler serves the superadmin surface: tenant provisioning, admin
// grants, registration approvals and collaboration pairing.
type AdminHandler struct {
	adminService  *services.AdminService
	sharedService *services.SharedDataService
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(adminService *services.AdminService, sharedService *services.SharedDataService) *AdminHandler {
	return &AdminHandler{adminService: adminService, sharedService: sharedService}
}

// ListTenants returns all tenants.
// GET /api/v1/superadmin/tenants
func (h *AdminHandler) ListTenants(c *gin.Context) {
	tenants, err := h.adminService.ListTenants(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Tenants retrieved", tenants)
}

type createTenantRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateTenant provisions a new tenant.
// POST /api/v1/superadmin/tenants
func (h *AdminHandler) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	tenant, err := h.adminService.CreateTenant(c.Request.Context(), req.Name, actorID(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Tenant created", tenant)
}

// RenameTenant updates a tenant name.
// PUT /api/v1/superadmin/tenants/:id
func (h *AdminHandler) RenameTenant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid tenant id", err)
		return
	}

	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	if err := h.adminService.RenameTenant(c.Request.Context(), id, req.Name, actorID(c)); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Tenant renamed", nil)
}

type grantAdminRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// GrantAdmin gives a user the company_admin role in a tenant.
// POST /api/v1/superadmin/tenants/:id/admins
func (h *AdminHandler) GrantAdmin(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid tenant id", err)
		return
	}

	var req grantAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}
	userID, _ := uuid.Parse(req.UserID)

	if err := h.adminService.GrantAdmin(c.Request.Context(), tenantID, userID, actorID(c)); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Admin role granted", nil)
}

// ListPendingUsers returns registrations awaiting approval. super_admin
// sees every tenant; a company_admin only their own.
// GET /api/v1/superadmin/pending-users
func (h *AdminHandler) ListPendingUsers(c *gin.Context) {
	scope := uuid.Nil
	if !isSuperAdmin(c) {
		tenantID, err := uuid.Parse(c.GetString(middleware.ContextTenantID))
		if err != nil {
			ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
			return
		}
		scope = tenantID
	}

	pending, err := h.adminService.ListPendingUsers(c.Request.Context(), scope)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Pending users retrieved", pending)
}

type approveRequest struct {
	TenantID string `json:"tenant_id" binding:"required,uuid"`
	AsAdmin  bool   `json:"as_admin"`
}

// ApproveUser activates a pending registration, optionally with the
// company_admin role. A company_admin may only approve into their own
// tenant.
// POST /api/v1/superadmin/pending-users/:id/approve
func (h *AdminHandler) ApproveUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}
	tenantID, _ := uuid.Parse(req.TenantID)

	if !isSuperAdmin(c) && c.GetString(middleware.ContextTenantID) != tenantID.String() {
		ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
		return
	}

	if err := h.adminService.ApproveUser(c.Request.Context(), tenantID, userID, req.AsAdmin, actorID(c)); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "User approved", nil)
}

type collaborationRequest struct {
	TenantA string `json:"tenant_a" binding:"required,uuid"`
	TenantB string `json:"tenant_b" binding:"required,uuid"`
}

// CreateCollaboration pairs two tenants for mutual shared-document access.
// Pairing the same two tenants again, in either order, reuses the row.
// POST /api/v1/superadmin/collaborations
func (h *AdminHandler) CreateCollaboration(c *gin.Context) {
	var req collaborationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}
	a, _ := uuid.Parse(req.TenantA)
	b, _ := uuid.Parse(req.TenantB)

	collab, err := h.sharedService.Collaborate(c.Request.Context(), a, b)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Collaboration created", collab)
}

// actorID pulls the acting user id from the request context.
func actorID(c *gin.Context) *uuid.UUID {
	value, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return nil
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

func isSuperAdmin(c *gin.Context) bool {
	value, exists := c.Get(middleware.ContextRoles)
	if !exists {
		return false
	}
	roles, ok := value.([]string)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == models.RoleSuperAdmin {
			return true
		}
	}
	return false
}
