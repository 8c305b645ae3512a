// File: internal/jobs/realtime_refresh.go
package jobs

import (
	"context"
	"sync"

	"crm_dashboard_backend/internal/platform/realtime"

	"go.uber.org/zap"
)

// RealtimeRefreshJob recomputes all sessions whenever the database announces a
// change on the realtime channel.
type RealtimeRefreshJob struct {
	listener  *realtime.Listener
	refresher SessionRefresher
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRealtimeRefreshJob creates a new RealtimeRefreshJob.
func NewRealtimeRefreshJob(listener *realtime.Listener, refresher SessionRefresher, logger *zap.Logger) *RealtimeRefreshJob {
	return &RealtimeRefreshJob{
		listener:  listener,
		refresher: refresher,
		logger:    logger.Named("RealtimeRefreshJob"),
	}
}

// Start runs the listener in the background until Stop is called.
func (j *RealtimeRefreshJob) Start() {
	if !j.listener.Enabled() {
		j.logger.Info("Realtime change feed disabled; relying on scheduled refreshes.")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		if err := j.listener.Run(ctx, j.refresh); err != nil {
			j.logger.Error("Realtime listener exited", zap.Error(err))
		}
	}()
}

func (j *RealtimeRefreshJob) refresh(ctx context.Context) {
	refreshed, err := j.refresher.RefreshAll(ctx)
	if err != nil {
		j.logger.Warn("Refresh after change notification failed", zap.Error(err))
		return
	}
	j.logger.Debug("Refreshed sessions after change notification", zap.Int("sessions_refreshed", refreshed))
}

// Stop cancels the listener and waits for it to exit.
func (j *RealtimeRefreshJob) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	j.wg.Wait()
}
