package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet-backoffice/internal/middleware"
	"fleet-backoffice/internal/models"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	Auth      *AuthHandler
	Admin     *AdminHandler
	Fleet     *FleetHandler
	Audit     *AuditHandler
	AuthGuard *middleware.AuthMiddleware
}

// SetupRouter mounts the full HTTP surface.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.SetupCORS())

	health := NewHealthHandler(deps.DB)
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/login", deps.Auth.Login)
		v1.POST("/register", deps.Auth.Register)
		v1.POST("/auth/refresh", deps.Auth.Refresh)

		superadmin := v1.Group("/superadmin")
		superadmin.Use(deps.AuthGuard.AuthRequired())
		{
			superadmin.GET("/tenants", deps.AuthGuard.RequireRole(models.RoleSuperAdmin), deps.Admin.ListTenants)
			superadmin.POST("/tenants", deps.AuthGuard.RequireRole(models.RoleSuperAdmin), deps.Admin.CreateTenant)
			superadmin.PUT("/tenants/:id", deps.AuthGuard.RequireRole(models.RoleSuperAdmin), deps.Admin.RenameTenant)
			superadmin.POST("/tenants/:id/admins", deps.AuthGuard.RequireRole(models.RoleSuperAdmin), deps.Admin.GrantAdmin)
			superadmin.POST("/collaborations", deps.AuthGuard.RequireRole(models.RoleSuperAdmin), deps.Admin.CreateCollaboration)
			superadmin.GET("/pending-users", deps.AuthGuard.RequireAnyRole(models.RoleCompanyAdmin), deps.Admin.ListPendingUsers)
			superadmin.POST("/pending-users/:id/approve", deps.AuthGuard.RequireAnyRole(models.RoleCompanyAdmin), deps.Admin.ApproveUser)
		}

		audit := v1.Group("/audit")
		audit.Use(deps.AuthGuard.AuthRequired(), deps.AuthGuard.RequireAnyRole(models.RoleCompanyAdmin))
		{
			audit.GET("", deps.Audit.List)
		}
		v1.GET("/audit.csv", deps.AuthGuard.AuthRequired(), deps.AuthGuard.RequireAnyRole(models.RoleCompanyAdmin), deps.Audit.ExportCSV)

		tenant := v1.Group("/:tenant")
		tenant.Use(deps.AuthGuard.AuthRequired())
		{
			// The collaboration check inside the handler replaces the
			// tenant guard on this one route.
			tenant.GET("/shared-data", deps.Fleet.SharedData)

			guarded := tenant.Group("")
			guarded.Use(deps.AuthGuard.TenantGuard())
			{
				guarded.GET("/schedule", deps.Fleet.Schedule)

				for _, resource := range Resources() {
					group := guarded.Group("/" + resource)
					group.GET("", deps.Fleet.List(resource))
					group.GET("/:id", deps.Fleet.Get(resource))
					group.POST("", deps.AuthGuard.RequireAnyRole(models.RoleCompanyAdmin, models.RoleUser), deps.Fleet.Create(resource))
					group.PUT("/:id", deps.AuthGuard.RequireAnyRole(models.RoleCompanyAdmin, models.RoleUser), deps.Fleet.Update(resource))
					group.DELETE("/:id", deps.AuthGuard.RequireAnyRole(models.RoleCompanyAdmin, models.RoleUser), deps.Fleet.Delete(resource))
				}
			}
		}
	}

	return router
}
