// File: internal/common/context_helpers.go
package common

import (
	"strings"

	"github.com/gin-gonic/gin"

	"crm_dashboard_backend/internal/domain"
)

// GetTokenFromContext retrieves the bearer token string from the Authorization header.
// Returns an empty string if not found.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return parts[1]
}

// SetViewer stores the authenticated viewer on the Gin context.
func SetViewer(c *gin.Context, viewer domain.Viewer) {
	c.Set(ViewerKey, viewer)
}

// GetViewerFromContext retrieves the authenticated viewer.
// The second return value is false when no viewer has been set.
func GetViewerFromContext(c *gin.Context) (domain.Viewer, bool) {
	val, exists := c.Get(ViewerKey)
	if !exists {
		return domain.Viewer{}, false
	}
	viewer, ok := val.(domain.Viewer)
	if !ok || viewer.UserID == "" {
		return domain.Viewer{}, false
	}
	return viewer, true
}

// GetRequestIDFromContext returns the correlation id assigned by the request logger.
func GetRequestIDFromContext(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
