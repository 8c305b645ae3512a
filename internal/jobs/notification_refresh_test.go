package jobs

import (
	"context"
	"errors"
	"testing"

	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/platform/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockSessionRefresher struct {
	mock.Mock
}

func (m *MockSessionRefresher) RefreshAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestNotificationRefreshJob_Run(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	refresher := new(MockSessionRefresher)
	refresher.On("RefreshAll", mock.Anything).Return(3, nil).Once()

	job := NewNotificationRefreshJob(refresher, zap.New(core), &config.Config{})
	job.Run(context.Background())

	refresher.AssertExpectations(t)
	completed := logs.FilterMessage("Notification refresh run completed").All()
	require.Len(t, completed, 1)
	assert.EqualValues(t, 3, completed[0].ContextMap()["sessions_refreshed"])
}

func TestNotificationRefreshJob_RunLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	refresher := new(MockSessionRefresher)
	refresher.On("RefreshAll", mock.Anything).Return(1, errors.New("db down")).Once()

	job := NewNotificationRefreshJob(refresher, zap.New(core), &config.Config{})
	job.Run(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("Notification refresh run failed").Len())
}

func TestNotificationRefreshJob_SetupAndStart(t *testing.T) {
	refresher := new(MockSessionRefresher)

	t.Run("no schedule", func(t *testing.T) {
		job := NewNotificationRefreshJob(refresher, zap.NewNop(), &config.Config{})
		assert.NoError(t, job.SetupAndStart())
		assert.Empty(t, job.cronScheduler.Entries())
		job.Stop()
	})

	t.Run("invalid schedule", func(t *testing.T) {
		job := NewNotificationRefreshJob(refresher, zap.NewNop(), &config.Config{NotificationRefreshSchedule: "every now and then"})
		assert.Error(t, job.SetupAndStart())
	})

	t.Run("valid schedule", func(t *testing.T) {
		job := NewNotificationRefreshJob(refresher, zap.NewNop(), &config.Config{NotificationRefreshSchedule: "@every 1h"})
		require.NoError(t, job.SetupAndStart())
		assert.Len(t, job.cronScheduler.Entries(), 1)
		job.Stop()
	})

	refresher.AssertNotCalled(t, "RefreshAll", mock.Anything)
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewCronLogger(zap.New(core))

	cl.Info("schedule", "entry", 1, "dangling")
	cl.Error(errors.New("boom"), "job panicked", "entry", 2)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "MISSING_VALUE", entries[0].ContextMap()["dangling"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestRealtimeRefreshJob_DisabledListener(t *testing.T) {
	refresher := new(MockSessionRefresher)
	listener := realtime.NewListener(&config.Config{DBDriver: config.DBDriverSQLite}, zap.NewNop())

	job := NewRealtimeRefreshJob(listener, refresher, zap.NewNop())
	job.Start()
	job.Stop()

	assert.Nil(t, job.cancel)
	refresher.AssertNotCalled(t, "RefreshAll", mock.Anything)
}

func TestRealtimeRefreshJob_RefreshCallback(t *testing.T) {
	refresher := new(MockSessionRefresher)
	refresher.On("RefreshAll", mock.Anything).Return(0, errors.New("db down")).Once()
	refresher.On("RefreshAll", mock.Anything).Return(2, nil).Once()

	job := NewRealtimeRefreshJob(nil, refresher, zap.NewNop())
	job.refresh(context.Background())
	job.refresh(context.Background())

	refresher.AssertNumberOfCalls(t, "RefreshAll", 2)
}
