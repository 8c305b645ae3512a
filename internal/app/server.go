// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"crm_dashboard_backend/internal/auth"
	"crm_dashboard_backend/internal/common"
	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/domain"
	"crm_dashboard_backend/internal/jobs"
	"crm_dashboard_backend/internal/middleware"
	"crm_dashboard_backend/internal/notification"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Jobs
	refreshJob  *jobs.NotificationRefreshJob
	realtimeJob *jobs.RealtimeRefreshJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	verifier auth.IdentityVerifier,
	authHandler *auth.Handler,
	notificationHandler *notification.Handler,
	refreshJob *jobs.NotificationRefreshJob,
	realtimeJob *jobs.RealtimeRefreshJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := NewRouter(cfg, logger, verifier, authHandler, notificationHandler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:  httpServer,
		router:      router,
		cfg:         cfg,
		logger:      logger,
		refreshJob:  refreshJob,
		realtimeJob: realtimeJob,
	}, nil
}

// NewRouter builds the gin engine with global middleware and every route group.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	verifier auth.IdentityVerifier,
	authHandler *auth.Handler,
	notificationHandler *notification.Handler,
) *gin.Engine {
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", common.AuthorizationHeader, common.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", common.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(verifier, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(domain.RoleAdmin)

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "CRM dashboard notification API is healthy!"})
	})

	v1 := router.Group("/api/v1")

	// /api/v1/auth/me and /api/v1/auth/logout
	authHandler.RegisterRoutes(v1.Group("", authMW))

	notificationHandler.RegisterRoutes(v1.Group("/notifications", authMW))
	notificationHandler.RegisterDeepLinkRoutes(v1.Group("/deeplinks", authMW))
	notificationHandler.RegisterAdminRoutes(v1.Group("/admin/notifications", authMW, adminRoleMW))

	return router
}

// Router exposes the engine for in-process tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	if s.refreshJob != nil {
		if err := s.refreshJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start notification refresh job", zap.Error(err))
		}
	} else {
		s.logger.Info("Notification refresh job is not configured, skipping start.")
	}
	if s.realtimeJob != nil {
		s.realtimeJob.Start()
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.refreshJob != nil {
		s.refreshJob.Stop()
	}
	if s.realtimeJob != nil {
		s.realtimeJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
