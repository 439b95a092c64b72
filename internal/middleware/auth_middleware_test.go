package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/services"
)

func setupRouter(t *testing.T) (*gin.Engine, *services.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtService := services.NewJWTService("test-secret", 30, 24)
	authMW := NewAuthMiddleware(jwtService)

	router := gin.New()
	tenant := router.Group("/:tenant")
	tenant.Use(authMW.AuthRequired(), authMW.TenantGuard())
	{
		tenant.GET("/clients", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"tenant": c.GetString(ContextTenantID)})
		})
		tenant.POST("/clients",
			authMW.RequireAnyRole(models.RoleCompanyAdmin, models.RoleUser),
			func(c *gin.Context) { c.Status(http.StatusCreated) })
	}
	admin := router.Group("/admin")
	admin.Use(authMW.AuthRequired(), authMW.RequireRole(models.RoleSuperAdmin))
	{
		admin.GET("/tenants", func(c *gin.Context) { c.Status(http.StatusOK) })
	}
	return router, jwtService
}

func doRequest(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_MissingToken(t *testing.T) {
	router, _ := setupRouter(t)
	w := doRequest(router, http.MethodGet, "/"+uuid.New().String()+"/clients", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_GarbageToken(t *testing.T) {
	router, _ := setupRouter(t)
	w := doRequest(router, http.MethodGet, "/"+uuid.New().String()+"/clients", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_RefreshTokenRejectedOnAPI(t *testing.T) {
	router, jwtService := setupRouter(t)
	tenantID := uuid.New().String()
	_, refresh, err := jwtService.GenerateTokens(uuid.New(), "a@b.test", tenantID, []string{models.RoleUser})
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/"+tenantID+"/clients", refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantGuard_MatchingTenantPasses(t *testing.T) {
	router, jwtService := setupRouter(t)
	tenantID := uuid.New().String()
	access, _, err := jwtService.GenerateTokens(uuid.New(), "a@b.test", tenantID, []string{models.RoleUser})
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/"+tenantID+"/clients", access)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTenantGuard_ForeignTenantForbidden(t *testing.T) {
	router, jwtService := setupRouter(t)
	access, _, err := jwtService.GenerateTokens(uuid.New(), "a@b.test", uuid.New().String(), []string{models.RoleCompanyAdmin})
	require.NoError(t, err)

	// A valid session posting into another tenant's path is 403, before
	// any handler runs.
	w := doRequest(router, http.MethodPost, "/"+uuid.New().String()+"/clients", access)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTenantGuard_SuperAdminCrossesTenants(t *testing.T) {
	router, jwtService := setupRouter(t)
	access, _, err := jwtService.GenerateTokens(uuid.New(), "root@b.test", "", []string{models.RoleSuperAdmin})
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/"+uuid.New().String()+"/clients", access)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_InsufficientRole(t *testing.T) {
	router, jwtService := setupRouter(t)
	tenantID := uuid.New().String()
	access, _, err := jwtService.GenerateTokens(uuid.New(), "a@b.test", tenantID, []string{models.RoleUser})
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/admin/tenants", access)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_SuperAdminBypassesEveryCheck(t *testing.T) {
	router, jwtService := setupRouter(t)
	access, _, err := jwtService.GenerateTokens(uuid.New(), "root@b.test", "", []string{models.RoleSuperAdmin})
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/admin/tenants", access)
	assert.Equal(t, http.StatusOK, w.Code)
}
