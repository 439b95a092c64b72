package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-backoffice/internal/middleware"
	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/services"
)

// AuditHandler serves the audit trail read side.
type AuditHandler struct {
	auditService *services.AuditService
	exportLimit  int
}

// NewAuditHandler creates the audit handler.
func NewAuditHandler(auditService *services.AuditService, exportLimit int) *AuditHandler {
	return &AuditHandler{auditService: auditService, exportLimit: exportLimit}
}

// List returns audit entries for the session tenant, newest first.
// GET /api/v1/audit?actor_id=&action=&table=&from=&to=&limit=&offset=
func (h *AuditHandler) List(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	logs, total, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Audit logs retrieved", gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// ExportCSV streams matching audit entries as a CSV download.
// GET /api/v1/audit.csv
func (h *AuditHandler) ExportCSV(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("audit-%s.csv", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := h.auditService.ExportCSV(c.Request.Context(), c.Writer, filter, h.exportLimit); err != nil {
		ServiceErrorResponse(c, err)
	}
}

func (h *AuditHandler) bindFilter(c *gin.Context) (models.AuditFilter, bool) {
	var filter models.AuditFilter

	// Non-super-admin sessions are pinned to their token tenant; a
	// super-admin may select any tenant through the query.
	tenantParam := c.Query("tenant_id")
	if isSuperAdmin(c) && tenantParam != "" {
		tenantID, err := uuid.Parse(tenantParam)
		if err != nil {
			ValidationErrorResponse(c, map[string]string{"tenant_id": "must be a uuid"})
			return filter, false
		}
		filter.TenantID = tenantID
	} else {
		tenantID, err := uuid.Parse(c.GetString(middleware.ContextTenantID))
		if err != nil {
			ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
			return filter, false
		}
		filter.TenantID = tenantID
	}

	if raw := c.Query("actor_id"); raw != "" {
		actor, err := uuid.Parse(raw)
		if err != nil {
			ValidationErrorResponse(c, map[string]string{"actor_id": "must be a uuid"})
			return filter, false
		}
		filter.ActorID = &actor
	}
	filter.Action = models.AuditAction(c.Query("action"))
	filter.TableName = c.Query("table")

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			ValidationErrorResponse(c, map[string]string{"from": "must be YYYY-MM-DD"})
			return filter, false
		}
		filter.FromDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			ValidationErrorResponse(c, map[string]string{"to": "must be YYYY-MM-DD"})
			return filter, false
		}
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.ToDate = &end
	}

	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return filter, true
}
