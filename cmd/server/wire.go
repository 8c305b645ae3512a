// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"crm_dashboard_backend/internal/app"
	"crm_dashboard_backend/internal/auth"
	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/jobs"
	"crm_dashboard_backend/internal/notification"
	"crm_dashboard_backend/internal/platform/realtime"
	"crm_dashboard_backend/internal/snapshot"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		provideLogger,
		provideDatabase,
		realtime.NewListener,

		// Identity
		auth.NewIdentityVerifier,
		provideSessionEnder,
		auth.NewHandler,

		// Notifications
		snapshot.NewGORMRepository,
		notification.ProvideEvaluator,
		notification.NewService,
		notification.NewHandler,

		// Jobs
		provideSessionRefresher,
		jobs.NewNotificationRefreshJob,
		jobs.NewRealtimeRefreshJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
