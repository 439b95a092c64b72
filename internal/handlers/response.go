package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet-backoffice/internal/services"
)

// ErrorResponse sends a standardized error response
// Internal errors are logged but not exposed to clients
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	requestID := getRequestID(c)

	if err != nil {
		log.Printf("[ERROR] [%s] %s: %v", requestID, message, err)
	}

	response := gin.H{
		"success":    false,
		"message":    message,
		"request_id": requestID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	if gin.Mode() == gin.DebugMode && err != nil {
		response["error_details"] = err.Error()
	}

	c.JSON(statusCode, response)
}

// SuccessResponse sends a standardized success response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := gin.H{
		"success":    true,
		"message":    message,
		"request_id": getRequestID(c),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	if data != nil {
		response["data"] = data
	}

	c.JSON(statusCode, response)
}

// ValidationErrorResponse sends a validation error response with per-field
// detail
func ValidationErrorResponse(c *gin.Context, fieldErrors map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success":    false,
		"message":    "Validation failed",
		"errors":     fieldErrors,
		"request_id": getRequestID(c),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// ServiceErrorResponse maps service sentinel errors onto the HTTP error
// taxonomy. Unrecognized errors become generic 500s.
func ServiceErrorResponse(c *gin.Context, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		ValidationErrorResponse(c, validation.Fields)
	case errors.Is(err, services.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, "Incorrect credentials", nil)
	case errors.Is(err, services.ErrAccountLocked):
		c.Header("Retry-After", "900")
		ErrorResponse(c, http.StatusTooManyRequests, "Too many failed attempts, try again later", nil)
	case errors.Is(err, services.ErrInvalidToken):
		ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token", nil)
	case errors.Is(err, services.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, "Forbidden", nil)
	case errors.Is(err, services.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, "Record not found", nil)
	case errors.Is(err, services.ErrDuplicate):
		ErrorResponse(c, http.StatusConflict, "Record already exists", nil)
	default:
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// getRequestID retrieves the request ID set by middleware
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return c.GetHeader("X-Request-ID")
}
