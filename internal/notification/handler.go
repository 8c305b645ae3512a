package notification

import (
	"errors"
	"net/http"
	"strings"

	"crm_dashboard_backend/internal/common"
	"crm_dashboard_backend/internal/deeplink"
	"crm_dashboard_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ListResponse is the payload of the notification list endpoint.
type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// MarkReadResponse reports the effect of a mark-read call.
type MarkReadResponse struct {
	Changed     bool `json:"changed"`
	Updated     int  `json:"updated,omitempty"`
	UnreadCount int  `json:"unread_count"`
}

// TargetResponse carries a decoded navigation target.
type TargetResponse struct {
	NotificationID string          `json:"notification_id,omitempty"`
	ActionURL      string          `json:"action_url,omitempty"`
	Target         deeplink.Target `json:"target"`
	Navigable      bool            `json:"navigable"`
}

// Handler struct holds dependencies for notification and deep-link handlers.
type Handler struct {
	service   Service
	evaluator *Evaluator
	logger    *zap.Logger
}

// NewHandler creates a new notification handler. Encoded deep links use the
// same dashboard path as the evaluator's notifications.
func NewHandler(service Service, evaluator *Evaluator, logger *zap.Logger) *Handler {
	return &Handler{
		service:   service,
		evaluator: evaluator,
		logger:    logger.Named("NotificationHandler"),
	}
}

// RegisterRoutes sets up the routes for notification operations.
// All routes in this group should be authenticated.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("", h.getNotifications)
	router.GET("/unread-count", h.getUnreadCount)
	router.POST("/refresh", h.refreshNotifications)
	router.POST("/mark-all-read", h.markAllNotificationsAsRead)
	router.POST("/:notification_id/mark-read", h.markNotificationAsRead)
	router.GET("/:notification_id/target", h.getNotificationTarget)
}

// RegisterAdminRoutes sets up operator routes. The group must restrict access to admins.
func (h *Handler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.POST("/refresh-all", h.refreshAllSessions)
}

// RegisterDeepLinkRoutes exposes the action URL codec.
func (h *Handler) RegisterDeepLinkRoutes(router *gin.RouterGroup) {
	router.POST("/encode", h.encodeDeepLink)
	router.GET("/decode", h.decodeDeepLink)
}

func (h *Handler) viewer(c *gin.Context) (domain.Viewer, bool) {
	viewer, ok := common.GetViewerFromContext(c)
	if !ok {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return domain.Viewer{}, false
	}
	return viewer, true
}

func (h *Handler) getNotifications(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	page, pageSize := common.GetPaginationParams(c)

	notifications, pagination, err := h.service.List(c.Request.Context(), viewer, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	unread, err := h.service.UnreadCount(c.Request.Context(), viewer)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Notifications retrieved successfully.", ListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, pagination)
}

func (h *Handler) getUnreadCount(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	unread, err := h.service.UnreadCount(c.Request.Context(), viewer)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Unread count retrieved successfully.", gin.H{"unread_count": unread})
}

func (h *Handler) refreshNotifications(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	sess, err := h.service.Refresh(c.Request.Context(), viewer)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notifications refreshed.", gin.H{
		"total":        sess.Store.Len(),
		"unread_count": sess.Store.UnreadCount(),
	})
}

func (h *Handler) refreshAllSessions(c *gin.Context) {
	count, err := h.service.RefreshAll(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.logger.Info("Operator refreshed all notification sessions", zap.Int("sessions", count))
	common.RespondOK(c, "All notification sessions refreshed.", gin.H{"sessions": count})
}

// markNotificationAsRead answers 200 for unknown ids too; "changed" tells the
// caller whether anything happened.
func (h *Handler) markNotificationAsRead(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	notificationID := strings.TrimSpace(c.Param("notification_id"))
	if notificationID == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Notification ID is required."))
		return
	}

	changed, err := h.service.MarkRead(c.Request.Context(), viewer, notificationID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	unread, err := h.service.UnreadCount(c.Request.Context(), viewer)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read successfully.", MarkReadResponse{Changed: changed, UnreadCount: unread})
}

func (h *Handler) markAllNotificationsAsRead(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	count, err := h.service.MarkAllRead(c.Request.Context(), viewer)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "All notifications marked as read successfully.", MarkReadResponse{
		Changed: count > 0,
		Updated: count,
	})
}

func (h *Handler) getNotificationTarget(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	n, target, err := h.service.ResolveTarget(c.Request.Context(), viewer, c.Param("notification_id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification target resolved.", TargetResponse{
		NotificationID: n.ID,
		ActionURL:      n.ActionURL,
		Target:         target,
		Navigable:      target.Navigable(),
	})
}

func (h *Handler) encodeDeepLink(c *gin.Context) {
	var req deeplink.Target
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(verrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Request body must be a JSON navigation target."))
		return
	}

	actionURL := h.evaluator.ActionURL(req)
	common.RespondSuccess(c, http.StatusOK, "Deep link encoded.", TargetResponse{
		ActionURL: actionURL,
		Target:    req,
		Navigable: req.Navigable(),
	})
}

// decodeDeepLink never fails on a malformed URL; it returns the zero target.
func (h *Handler) decodeDeepLink(c *gin.Context) {
	actionURL, present := c.GetQuery("url")
	if !present {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Query parameter 'url' is required."))
		return
	}

	target := deeplink.Decode(actionURL)
	if !target.Navigable() {
		h.logger.Debug("Decoded a non-navigable deep link", zap.String("url", actionURL))
	}
	common.RespondOK(c, "Deep link decoded.", TargetResponse{
		ActionURL: actionURL,
		Target:    target,
		Navigable: target.Navigable(),
	})
}
