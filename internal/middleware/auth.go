// File: internal/middleware/auth.go
package middleware

import (
	"errors"

	"crm_dashboard_backend/internal/auth"
	"crm_dashboard_backend/internal/common"
	"crm_dashboard_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the bearer token and stores the resulting
// domain.Viewer in the context for downstream handlers.
func AuthMiddleware(verifier auth.IdentityVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(common.AuthorizationHeader) == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Authorization header format invalid")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		viewer, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Warn("Token validation failed", zap.Error(err))
			details := "Invalid or expired token."
			if errors.Is(err, auth.ErrTokenRevoked) {
				details = "Token has been revoked."
			}
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails(details))
			return
		}
		if viewer == nil || viewer.UserID == "" {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Token does not identify a user."))
			return
		}

		common.SetViewer(c, *viewer)
		logger.Debug("User authenticated successfully",
			zap.String("userID", viewer.UserID),
			zap.String("role", viewer.Role),
		)
		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware to check if the authenticated user has one of the required roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := common.GetViewerFromContext(c)
		if !ok || viewer.Role == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		role := domain.NormalizeRole(viewer.Role)
		for _, allowed := range allowedRoles {
			if role == domain.NormalizeRole(allowed) {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
