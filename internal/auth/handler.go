// File: internal/auth/handler.go
package auth

import (
	"crm_dashboard_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionEnder drops server-side state held for a user.
type SessionEnder interface {
	EndSession(userID string)
}

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	verifier IdentityVerifier
	sessions SessionEnder
	logger   *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(verifier IdentityVerifier, sessions SessionEnder, logger *zap.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		sessions: sessions,
		logger:   logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the routes for authentication operations.
// The group must already be behind AuthMiddleware.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/me", h.me)
		authGroup.POST("/logout", h.logout)
	}
}

func (h *Handler) me(c *gin.Context) {
	viewer, ok := common.GetViewerFromContext(c)
	if !ok {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}
	common.RespondOK(c, "Authenticated viewer retrieved.", gin.H{
		"user_id":    viewer.UserID,
		"role":       viewer.Role,
		"visibility": viewer.Visibility().String(),
	})
}

// logout revokes the caller's credentials and forgets their notification session.
func (h *Handler) logout(c *gin.Context) {
	viewer, ok := common.GetViewerFromContext(c)
	if !ok {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	if err := h.verifier.Revoke(c.Request.Context(), common.GetTokenFromContext(c), viewer); err != nil {
		h.logger.Error("Failed to revoke credentials", zap.String("userID", viewer.UserID), zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not sign out."))
		return
	}
	h.sessions.EndSession(viewer.UserID)
	common.RespondNoContent(c)
}
