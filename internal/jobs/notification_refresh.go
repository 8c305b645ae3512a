// File: internal/jobs/notification_refresh.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"crm_dashboard_backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runTimeout bounds a single refresh of all sessions.
const runTimeout = 2 * time.Minute

// SessionRefresher recomputes every live notification session.
type SessionRefresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// NotificationRefreshJob re-evaluates the notification rules on a clock so
// that time-based rules (a due date passing midnight) fire without a data change.
type NotificationRefreshJob struct {
	refresher     SessionRefresher
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewNotificationRefreshJob creates a new NotificationRefreshJob.
func NewNotificationRefreshJob(
	refresher SessionRefresher,
	logger *zap.Logger,
	cfg *config.Config,
) *NotificationRefreshJob {
	cronLog := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &NotificationRefreshJob{
		refresher:     refresher,
		logger:        logger.Named("NotificationRefreshJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *NotificationRefreshJob) SetupAndStart() error {
	jobSpec := j.cfg.NotificationRefreshSchedule
	if jobSpec == "" {
		j.logger.Warn("Notification refresh schedule not defined (NOTIFICATION_REFRESH_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule notification refresh job", zap.String("schedule", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Notification refresh job scheduled", zap.String("schedule", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *NotificationRefreshJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	j.Run(ctx)
}

// Run refreshes all sessions once.
func (j *NotificationRefreshJob) Run(ctx context.Context) {
	j.logger.Debug("Starting notification refresh run...")
	refreshed, err := j.refresher.RefreshAll(ctx)
	if err != nil {
		j.logger.Error("Notification refresh run failed", zap.Error(err), zap.Int("sessions_refreshed", refreshed))
		return
	}
	j.logger.Info("Notification refresh run completed", zap.Int("sessions_refreshed", refreshed))
}

// Stop gracefully stops the cron scheduler.
func (j *NotificationRefreshJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping notification refresh job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Notification refresh job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Notification refresh job scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron. They are frequent, so they go to debug.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Debug(msg, parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, "MISSING_VALUE"))
		}
	}
	return fields
}
