package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleet-backoffice/internal/models"
	"fleet-backoffice/internal/services"
)

// Context keys set by AuthRequired and read by handlers.
const (
	ContextUserID   = "user_id"
	ContextEmail    = "user_email"
	ContextTenantID = "tenant_id"
	ContextRoles    = "user_roles"
)

type AuthMiddleware struct {
	jwtService *services.JWTService
}

func NewAuthMiddleware(jwtService *services.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// AuthRequired middleware that requires a valid access token. Claims go
// into the request context; the token tenant claim is the only source of
// the session tenant.
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token required",
				"code":  "MISSING_TOKEN",
			})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  "INVALID_TOKEN",
			})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextTenantID, claims.TenantID)
		c.Set(ContextRoles, claims.Roles)

		c.Next()
	}
}

// RequireRole middleware that requires one specific role. super_admin
// passes every role check.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return m.RequireAnyRole(role)
}

// RequireAnyRole middleware that requires any of the specified roles.
func (m *AuthMiddleware) RequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles := rolesFromContext(c)
		if hasRole(userRoles, models.RoleSuperAdmin) {
			c.Next()
			return
		}
		for _, required := range roles {
			if hasRole(userRoles, required) {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
			"code":  "INSUFFICIENT_ROLE",
		})
		c.Abort()
	}
}

// TenantGuard compares the :tenant path parameter against the session
// tenant claim. A mismatch is 403. super_admin sessions pass; the
// shared-data read path performs its own collaboration check and is
// mounted without this guard.
func (m *AuthMiddleware) TenantGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasRole(rolesFromContext(c), models.RoleSuperAdmin) {
			c.Next()
			return
		}

		pathTenant := c.Param("tenant")
		sessionTenant := c.GetString(ContextTenantID)
		if pathTenant == "" || pathTenant != sessionTenant {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Tenant mismatch",
				"code":  "TENANT_FORBIDDEN",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func rolesFromContext(c *gin.Context) []string {
	value, exists := c.Get(ContextRoles)
	if !exists {
		return nil
	}
	roles, ok := value.([]string)
	if !ok {
		return nil
	}
	return roles
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
