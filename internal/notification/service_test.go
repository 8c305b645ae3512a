package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_dashboard_backend/internal/common"
	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/deeplink"
	"crm_dashboard_backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSnapshotRepository is a mock type for snapshot.Repository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

// Test Suite Setup
type NotificationServiceTestSuite struct {
	service   *ServiceImplementation
	mockRepo  *MockSnapshotRepository
	logger    *zap.Logger
	clockTime time.Time
}

func setupNotificationServiceTestSuite(t *testing.T) *NotificationServiceTestSuite {
	ts := &NotificationServiceTestSuite{}
	ts.mockRepo = new(MockSnapshotRepository)
	ts.logger = zap.NewNop()
	ts.clockTime = evalNow

	cfg := &config.Config{SessionIdleTTL: time.Hour}
	svc := NewService(ts.mockRepo, NewEvaluator(DefaultPolicy(), ""), cfg, ts.logger)
	ts.service = svc.(*ServiceImplementation)
	ts.service.now = func() time.Time { return ts.clockTime }
	return ts
}

func sellerSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Tasks: []domain.Task{
			{ID: "t1", Title: "Follow up", AssigneeID: "u-1", DueDate: daysFromNow(-3), Status: domain.TaskStatusTodo},
			{ID: "t2", Title: "Other rep", AssigneeID: "u-2", DueDate: daysFromNow(-3), Status: domain.TaskStatusTodo},
		},
		Renewals: []domain.Renewal{
			{ID: "r1", CustomerID: "c1", ExpiryDate: daysFromNow(2), Status: domain.RenewalStatusPending},
		},
		Customers: []domain.Customer{
			{ID: "c1", Name: "Acme", Status: domain.CustomerStatusActive, OwnerID: "u-1"},
		},
	}
}

// --- Test Cases ---

func TestNotificationService_Session_LoadsOnce(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Once()

	sess, err := ts.service.Session(ctx, seller)
	require.NoError(t, err)
	assert.True(t, sess.Loaded())
	assert.Equal(t, 2, sess.Store.Len())

	again, err := ts.service.Session(ctx, seller)
	require.NoError(t, err)
	assert.Same(t, sess, again)
	ts.mockRepo.AssertExpectations(t)
}

func TestNotificationService_Session_RequiresUser(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)

	_, err := ts.service.Session(context.Background(), domain.Viewer{Role: domain.RoleAdmin})

	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrUnauthorized.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "LoadSnapshot", mock.Anything)
}

func TestNotificationService_Session_LoadError(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(nil, errors.New("connection refused")).Once()
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Once()

	_, err := ts.service.Session(ctx, seller)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrServiceUnavailable.Code, apiErr.Code)

	// The failed session is retried on the next request.
	sess, err := ts.service.Session(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Store.Len())
	ts.mockRepo.AssertExpectations(t)
}

func TestNotificationService_RoleChangeRebuildsSession(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil)

	first, err := ts.service.Session(ctx, seller)
	require.NoError(t, err)
	require.True(t, first.Store.MarkRead("task:t1:overdue"))

	promoted := domain.Viewer{UserID: seller.UserID, Role: domain.RoleManager}
	second, err := ts.service.Session(ctx, promoted)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, promoted, second.Viewer)
	// The manager also sees the other rep's task; read state starts over.
	_, ok := second.Store.Get("task:t2:overdue")
	assert.True(t, ok)
	assert.Equal(t, second.Store.Len(), second.Store.UnreadCount())
}

func TestNotificationService_RefreshKeepsReadState(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	snap := sellerSnapshot()
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(snap, nil).Once()

	changed, err := ts.service.MarkRead(ctx, seller, "task:t1:overdue")
	require.NoError(t, err)
	assert.True(t, changed)

	resolved := sellerSnapshot()
	resolved.Renewals[0].Status = domain.RenewalStatusRenewed
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(resolved, nil).Once()

	sess, err := ts.service.Refresh(ctx, seller)
	require.NoError(t, err)

	list := sess.Store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "task:t1:overdue", list[0].ID)
	assert.True(t, list[0].Read)
	ts.mockRepo.AssertExpectations(t)
}

func TestNotificationService_RefreshAll(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	count, err := ts.service.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	ts.mockRepo.AssertNotCalled(t, "LoadSnapshot", mock.Anything)

	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Times(3)
	_, err = ts.service.Session(ctx, seller)
	require.NoError(t, err)
	_, err = ts.service.Session(ctx, admin)
	require.NoError(t, err)

	// Time moves on: the seller's task becomes urgent after five days overdue.
	ts.clockTime = evalNow.AddDate(0, 0, 2)
	count, err = ts.service.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	n, ok := mustSession(t, ts, seller).Store.Get("task:t1:overdue")
	require.True(t, ok)
	assert.Equal(t, PriorityUrgent, n.Priority)
	ts.mockRepo.AssertExpectations(t)
}

func TestNotificationService_RefreshAll_LoadError(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Once()
	_, err := ts.service.Session(ctx, seller)
	require.NoError(t, err)

	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(nil, errors.New("timeout")).Once()
	count, err := ts.service.RefreshAll(ctx)
	assert.Error(t, err)
	assert.Equal(t, 0, count)

	// The previous set is kept when a refresh fails.
	assert.Equal(t, 2, mustSession(t, ts, seller).Store.Len())
}

func TestNotificationService_EndSession(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Twice()

	_, err := ts.service.MarkAllRead(ctx, seller)
	require.NoError(t, err)

	ts.service.EndSession(seller.UserID)
	assert.Equal(t, 0, ts.service.sessions.ItemCount())

	unread, err := ts.service.UnreadCount(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
	ts.mockRepo.AssertExpectations(t)
}

func TestNotificationService_ListPaginates(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Once()

	items, pagination, err := ts.service.List(context.Background(), seller, 1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), pagination.TotalItems)
	assert.Equal(t, 2, pagination.TotalPages)
	assert.True(t, pagination.HasNext)
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Once()

	unread, err := ts.service.UnreadCount(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	count, err := ts.service.MarkAllRead(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	unread, err = ts.service.UnreadCount(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestNotificationService_MarkRead_UnknownID(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Once()

	changed, err := ts.service.MarkRead(context.Background(), seller, "task:missing:overdue")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestNotificationService_ResolveTarget(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Once()

	n, target, err := ts.service.ResolveTarget(ctx, seller, "renewal:r1:expiring")
	require.NoError(t, err)
	assert.Equal(t, "renewal:r1:expiring", n.ID)
	assert.Equal(t, deeplink.Target{Tab: deeplink.TabRenewals, RenewalID: "r1", CustomerID: "c1"}, target)

	_, _, err = ts.service.ResolveTarget(ctx, seller, "renewal:nope:expiring")
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
}

func TestNotificationService_Evaluate(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ts.mockRepo.On("LoadSnapshot", mock.Anything).Return(sellerSnapshot(), nil).Once()

	got, err := ts.service.Evaluate(context.Background(), admin)
	require.NoError(t, err)
	// Three rule hits plus the daily digest.
	assert.Len(t, got, 4)
	assert.Equal(t, 0, ts.service.sessions.ItemCount())
}

func TestProvideEvaluator(t *testing.T) {
	cfg := &config.Config{
		DashboardBasePath:               "/crm",
		NotifyTaskLeadDays:              DefaultTaskLeadDays,
		NotifyTaskHighOverdueDays:       DefaultTaskHighOverdueDays,
		NotifyTaskUrgentOverdueDays:     DefaultTaskUrgentOverdueDays,
		NotifyTaskEscalationOverdueDays: DefaultTaskEscalationOverdueDays,
		NotifyRenewalLeadDays:           DefaultRenewalLeadDays,
		NotifyRenewalMediumDays:         DefaultRenewalMediumDays,
		NotifyRenewalHighDays:           DefaultRenewalHighDays,
		NotifyRenewalUrgentDays:         DefaultRenewalUrgentDays,
		NotifyRenewalEscalationDays:     DefaultRenewalEscalationDays,
		NotifyPartnerStallDays:          DefaultPartnerStallDays,
		NotifyCustomerChurnWindowDays:   DefaultCustomerChurnWindowDays,
		NotifyDigestMinItems:            DefaultDigestMinItems,
	}
	e, err := ProvideEvaluator(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), e.Policy())
	assert.Equal(t, "/crm", e.linkPath)

	cfg.NotifyRenewalHighDays = 40
	_, err = ProvideEvaluator(cfg)
	assert.Error(t, err)
}

func mustSession(t *testing.T, ts *NotificationServiceTestSuite, viewer domain.Viewer) *Session {
	t.Helper()
	cached, found := ts.service.sessions.Get(viewer.UserID)
	require.True(t, found)
	return cached.(*Session)
}
