// File: cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_dashboard_backend/internal/auth"
	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/domain"
	"crm_dashboard_backend/internal/notification"
	"crm_dashboard_backend/internal/platform/database"
	"crm_dashboard_backend/internal/platform/logger"
	"crm_dashboard_backend/internal/snapshot"

	"go.uber.org/zap"
)

func main() {
	previewCmd := flag.NewFlagSet("preview-notifications", flag.ExitOnError)
	previewUser := previewCmd.String("user", "", "User id to evaluate notifications for")
	previewRole := previewCmd.String("role", "", "Role of the user (admin, manager, sales, ...)")

	issueTokenCmd := flag.NewFlagSet("issue-token", flag.ExitOnError)
	tokenUser := issueTokenCmd.String("user", "", "User id (token subject)")
	tokenRole := issueTokenCmd.String("role", "", "Role claim")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "preview-notifications":
			_ = previewCmd.Parse(os.Args[2:])
			runPreview(domain.Viewer{UserID: *previewUser, Role: *previewRole})
			return
		case "issue-token":
			_ = issueTokenCmd.Parse(os.Args[2:])
			runIssueToken(domain.Viewer{UserID: *tokenUser, Role: *tokenRole})
			return
		}
	}

	// Default: Start server
	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}

// runPreview evaluates the rules once for a viewer and prints the result as JSON.
func runPreview(viewer domain.Viewer) {
	if viewer.UserID == "" {
		log.Fatal("FATAL: -user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for preview: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for preview: %v", err)
	}
	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for preview", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	evaluator, err := notification.ProvideEvaluator(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Invalid notification policy", zap.Error(err))
	}
	service := notification.NewService(snapshot.NewGORMRepository(db), evaluator, cfg, appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	notifications, err := service.Evaluate(ctx, viewer)
	if err != nil {
		appLogger.Fatal("FATAL: Notification preview failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(notifications); err != nil {
		appLogger.Fatal("FATAL: Failed to encode preview", zap.Error(err))
	}
	appLogger.Info("Notification preview completed",
		zap.String("userID", viewer.UserID),
		zap.String("visibility", viewer.Visibility().String()),
		zap.Int("count", len(notifications)),
	)
}

// runIssueToken mints a local access token when AUTH_PROVIDER=jwt.
func runIssueToken(viewer domain.Viewer) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if cfg.AuthProvider != config.AuthProviderJWT {
		log.Fatalf("FATAL: issue-token requires AUTH_PROVIDER=%s", config.AuthProviderJWT)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}

	jwtService := auth.NewJWTService(cfg, auth.NewInMemoryBlocklistService(time.Minute), appLogger)
	token, expiresAt, err := jwtService.GenerateAccessToken(viewer)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to issue token", zap.Error(err))
	}
	fmt.Println(token)
	appLogger.Info("Issued access token", zap.String("userID", viewer.UserID), zap.Time("expiresAt", expiresAt))
}
