package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-backoffice/internal/middleware"
	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/services"
)

// entityDef binds a URL resource segment to its entity type.
type entityDef struct {
	// newRecord returns an empty entity for binding one record.
	newRecord func() models.TenantScoped
	// newList returns a pointer to an empty slice of the entity type.
	newList func() interface{}
	table   string
}

// entityRegistry drives the CRUD routes for every fleet resource. Adding a
// resource means one entry here plus its model.
var entityRegistry = map[string]entityDef{
	"clients": {
		newRecord: func() models.TenantScoped { return &models.Client{} },
		newList:   func() interface{} { return &[]models.Client{} },
		table:     "clients",
	},
	"trucks": {
		newRecord: func() models.TenantScoped { return &models.Truck{} },
		newList:   func() interface{} { return &[]models.Truck{} },
		table:     "trucks",
	},
	"trailer-types": {
		newRecord: func() models.TenantScoped { return &models.TrailerType{} },
		newList:   func() interface{} { return &[]models.TrailerType{} },
		table:     "trailer_types",
	},
	"trailers": {
		newRecord: func() models.TenantScoped { return &models.Trailer{} },
		newList:   func() interface{} { return &[]models.Trailer{} },
		table:     "trailers",
	},
	"drivers": {
		newRecord: func() models.TenantScoped { return &models.Driver{} },
		newList:   func() interface{} { return &[]models.Driver{} },
		table:     "drivers",
	},
	"employees": {
		newRecord: func() models.TenantScoped { return &models.Employee{} },
		newList:   func() interface{} { return &[]models.Employee{} },
		table:     "employees",
	},
	"shipments": {
		newRecord: func() models.TenantScoped { return &models.Shipment{} },
		newList:   func() interface{} { return &[]models.Shipment{} },
		table:     "shipments",
	},
	"groups": {
		newRecord: func() models.TenantScoped { return &models.Group{} },
		newList:   func() interface{} { return &[]models.Group{} },
		table:     "groups",
	},
	"group-regions": {
		newRecord: func() models.TenantScoped { return &models.GroupRegion{} },
		newList:   func() interface{} { return &[]models.GroupRegion{} },
		table:     "group_regions",
	},
}

// FleetHandler serves the tenant-scoped CRUD resources, the shared-data
// read path and the schedule report.
type FleetHandler struct {
	fleetService  *services.FleetService
	sharedService *services.SharedDataService
}

// NewFleetHandler creates the fleet handler.
func NewFleetHandler(fleetService *services.FleetService, sharedService *services.SharedDataService) *FleetHandler {
	return &FleetHandler{fleetService: fleetService, sharedService: sharedService}
}

// Resources lists the registered resource segments for route mounting.
func Resources() []string {
	names := make([]string, 0, len(entityRegistry))
	for name := range entityRegistry {
		names = append(names, name)
	}
	return names
}

// sessionTenant resolves the effective tenant for a request. Regular
// sessions use their token claim; super_admin sessions act on the path
// tenant.
func sessionTenant(c *gin.Context) (uuid.UUID, bool) {
	claim := c.GetString(middleware.ContextTenantID)
	if claim == "" && isSuperAdmin(c) {
		claim = c.Param("tenant")
	}
	id, err := uuid.Parse(claim)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// List returns all tenant records of one resource.
// GET /api/v1/:tenant/:resource
func (h *FleetHandler) List(resource string) gin.HandlerFunc {
	def := entityRegistry[resource]
	return func(c *gin.Context) {
		tenantID, ok := sessionTenant(c)
		if !ok {
			ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
			return
		}

		list := def.newList()
		if err := h.fleetService.List(c.Request.Context(), tenantID, def.table, list); err != nil {
			ServiceErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "Records retrieved", list)
	}
}

// Get returns one tenant record.
// GET /api/v1/:tenant/:resource/:id
func (h *FleetHandler) Get(resource string) gin.HandlerFunc {
	def := entityRegistry[resource]
	return func(c *gin.Context) {
		tenantID, ok := sessionTenant(c)
		if !ok {
			ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid record id", err)
			return
		}

		record := def.newRecord()
		if err := h.fleetService.Get(c.Request.Context(), tenantID, id, record); err != nil {
			ServiceErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "Record retrieved", record)
	}
}

// Create inserts a new tenant record.
// POST /api/v1/:tenant/:resource
func (h *FleetHandler) Create(resource string) gin.HandlerFunc {
	def := entityRegistry[resource]
	return func(c *gin.Context) {
		tenantID, ok := sessionTenant(c)
		if !ok {
			ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
			return
		}

		record := def.newRecord()
		if err := c.ShouldBindJSON(record); err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}
		record.SetID(uuid.Nil)

		if err := h.fleetService.Save(c.Request.Context(), tenantID, actorID(c), record); err != nil {
			ServiceErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusCreated, "Record created", record)
	}
}

// Update saves an existing tenant record.
// PUT /api/v1/:tenant/:resource/:id
func (h *FleetHandler) Update(resource string) gin.HandlerFunc {
	def := entityRegistry[resource]
	return func(c *gin.Context) {
		tenantID, ok := sessionTenant(c)
		if !ok {
			ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid record id", err)
			return
		}

		record := def.newRecord()
		if err := c.ShouldBindJSON(record); err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}
		record.SetID(id)

		if err := h.fleetService.Save(c.Request.Context(), tenantID, actorID(c), record); err != nil {
			ServiceErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "Record updated", record)
	}
}

// Delete removes one tenant record.
// DELETE /api/v1/:tenant/:resource/:id
func (h *FleetHandler) Delete(resource string) gin.HandlerFunc {
	def := entityRegistry[resource]
	return func(c *gin.Context) {
		tenantID, ok := sessionTenant(c)
		if !ok {
			ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid record id", err)
			return
		}

		if err := h.fleetService.Delete(c.Request.Context(), tenantID, actorID(c), def.table, id); err != nil {
			ServiceErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "Record deleted", nil)
	}
}

// SharedData serves the collaboration read path. The route is mounted
// without the tenant guard; the collaboration check replaces it.
// GET /api/v1/:tenant/shared-data
func (h *FleetHandler) SharedData(c *gin.Context) {
	requested, err := uuid.Parse(c.Param("tenant"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid tenant id", err)
		return
	}

	caller, err := uuid.Parse(c.GetString(middleware.ContextTenantID))
	if err != nil {
		if isSuperAdmin(c) {
			caller = requested
		} else {
			ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
			return
		}
	}

	docs, err := h.sharedService.SharedDocuments(c.Request.Context(), caller, requested)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Shared documents retrieved", docs)
}

// Schedule returns the shipments-per-driver-per-day pivot over a date
// window. Defaults to the current week.
// GET /api/v1/:tenant/schedule?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *FleetHandler) Schedule(c *gin.Context) {
	tenantID, ok := sessionTenant(c)
	if !ok {
		ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -int(now.Weekday()))
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			ValidationErrorResponse(c, map[string]string{"from": "must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			ValidationErrorResponse(c, map[string]string{"to": "must be YYYY-MM-DD"})
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	schedule, err := h.fleetService.Schedule(c.Request.Context(), tenantID, from, to)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Schedule retrieved", schedule)
}
