// File: cmd/server/providers.go
package main

import (
	"log"

	"crm_dashboard_backend/internal/auth"
	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/jobs"
	"crm_dashboard_backend/internal/notification"
	"crm_dashboard_backend/internal/platform/database"
	"crm_dashboard_backend/internal/platform/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	appLogger, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := appLogger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}
	return appLogger, cleanup, nil
}

func provideDatabase(cfg *config.Config, appLogger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		appLogger.Info("Closing database connection...")
		database.CloseGORMDB(db)
	}
	return db, cleanup, nil
}

func provideSessionEnder(service notification.Service) auth.SessionEnder {
	return service
}

func provideSessionRefresher(service notification.Service) jobs.SessionRefresher {
	return service
}
