// File: internal/notification/service.go
package notification

import (
	"context"
	"sync"
	"time"

	"crm_dashboard_backend/internal/common"
	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/deeplink"
	"crm_dashboard_backend/internal/domain"
	"crm_dashboard_backend/internal/snapshot"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Service defines the interface for the per-user notification sessions.
type Service interface {
	// Session returns the live session for viewer, creating and filling it on first use.
	Session(ctx context.Context, viewer domain.Viewer) (*Session, error)
	// Refresh reloads the snapshot and recomputes viewer's session.
	Refresh(ctx context.Context, viewer domain.Viewer) (*Session, error)
	// RefreshAll recomputes every live session from one snapshot load and
	// returns how many sessions were recomputed.
	RefreshAll(ctx context.Context) (int, error)
	// EndSession forgets userID's session and its read state.
	EndSession(userID string)

	List(ctx context.Context, viewer domain.Viewer, page, pageSize int) ([]Notification, *common.Pagination, error)
	UnreadCount(ctx context.Context, viewer domain.Viewer) (int, error)
	MarkRead(ctx context.Context, viewer domain.Viewer, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, viewer domain.Viewer) (int, error)
	ResolveTarget(ctx context.Context, viewer domain.Viewer, notificationID string) (*Notification, deeplink.Target, error)

	// Evaluate runs the rules for viewer against a fresh snapshot without
	// touching any session.
	Evaluate(ctx context.Context, viewer domain.Viewer) ([]Notification, error)
}

// Session is one user's in-memory notification state. It lives until it has
// been idle for the configured TTL and is never persisted.
type Session struct {
	Viewer    domain.Viewer
	Store     *Store
	StartedAt time.Time

	mu     sync.Mutex
	loaded bool
}

// Loaded reports whether the session has been computed at least once.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// ServiceImplementation implements Service on top of a snapshot repository.
type ServiceImplementation struct {
	snapshots snapshot.Repository
	evaluator *Evaluator
	sessions  *cache.Cache
	mu        sync.Mutex // guards session creation
	now       func() time.Time
	logger    *zap.Logger
}

// ProvideEvaluator builds the rule evaluator from the configured thresholds.
func ProvideEvaluator(cfg *config.Config) (*Evaluator, error) {
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	return NewEvaluator(policy, cfg.DashboardBasePath), nil
}

// NewService creates a new notification service.
func NewService(snapshots snapshot.Repository, evaluator *Evaluator, cfg *config.Config, logger *zap.Logger) Service {
	ttl := cfg.SessionIdleTTL
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &ServiceImplementation{
		snapshots: snapshots,
		evaluator: evaluator,
		sessions:  cache.New(ttl, cleanup),
		now:       time.Now,
		logger:    logger.Named("NotificationService"),
	}
}

// Session returns the live session for viewer.
func (s *ServiceImplementation) Session(ctx context.Context, viewer domain.Viewer) (*Session, error) {
	sess, err := s.lookup(viewer)
	if err != nil {
		return nil, err
	}
	if sess.Loaded() {
		return sess, nil
	}
	if err := s.recompute(ctx, sess, nil); err != nil {
		return nil, err
	}
	return sess, nil
}

// Refresh reloads the snapshot and recomputes viewer's session.
func (s *ServiceImplementation) Refresh(ctx context.Context, viewer domain.Viewer) (*Session, error) {
	sess, err := s.lookup(viewer)
	if err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, sess, nil); err != nil {
		return nil, err
	}
	return sess, nil
}

// RefreshAll recomputes every live session. The snapshot is loaded once and
// shared; nothing is loaded when no session is live.
func (s *ServiceImplementation) RefreshAll(ctx context.Context) (int, error) {
	items := s.sessions.Items()
	if len(items) == 0 {
		return 0, nil
	}

	snap, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, item := range items {
		sess, ok := item.Object.(*Session)
		if !ok {
			continue
		}
		if err := s.recompute(ctx, sess, snap); err != nil {
			return refreshed, err
		}
		refreshed++
	}
	s.logger.Debug("Refreshed notification sessions", zap.Int("sessions", refreshed))
	return refreshed, nil
}

// EndSession drops userID's session. The next request starts a fresh one.
func (s *ServiceImplementation) EndSession(userID string) {
	s.sessions.Delete(userID)
}

// List returns one page of viewer's notifications in display order.
func (s *ServiceImplementation) List(ctx context.Context, viewer domain.Viewer, page, pageSize int) ([]Notification, *common.Pagination, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}
	items, pagination := common.PageSlice(sess.Store.List(), page, pageSize)
	return items, pagination, nil
}

// UnreadCount returns how many of viewer's notifications are unread.
func (s *ServiceImplementation) UnreadCount(ctx context.Context, viewer domain.Viewer) (int, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return 0, err
	}
	return sess.Store.UnreadCount(), nil
}

// MarkRead marks one notification as read. An unknown id is not an error; the
// boolean reports whether anything changed.
func (s *ServiceImplementation) MarkRead(ctx context.Context, viewer domain.Viewer, notificationID string) (bool, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return false, err
	}
	changed := sess.Store.MarkRead(notificationID)
	if !changed {
		s.logger.Debug("Mark read was a no-op", zap.String("userID", viewer.UserID), zap.String("notificationID", notificationID))
	}
	return changed, nil
}

// MarkAllRead marks all of viewer's notifications as read.
func (s *ServiceImplementation) MarkAllRead(ctx context.Context, viewer domain.Viewer) (int, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return 0, err
	}
	return sess.Store.MarkAllRead(), nil
}

// ResolveTarget looks up a notification and decodes its action URL. A
// notification whose URL cannot be decoded resolves to the zero target.
func (s *ServiceImplementation) ResolveTarget(ctx context.Context, viewer domain.Viewer, notificationID string) (*Notification, deeplink.Target, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return nil, deeplink.Target{}, err
	}
	n, ok := sess.Store.Get(notificationID)
	if !ok {
		return nil, deeplink.Target{}, common.ErrNotFound.WithDetails("Notification not found.")
	}
	return &n, deeplink.Decode(n.ActionURL), nil
}

// Evaluate runs the rules for viewer against a freshly loaded snapshot.
func (s *ServiceImplementation) Evaluate(ctx context.Context, viewer domain.Viewer) ([]Notification, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.evaluator.Generate(*snap, viewer, s.now()), nil
}

// lookup returns viewer's cached session, creating an empty one when there is
// none or when the viewer's role changed. Every lookup restarts the idle TTL.
func (s *ServiceImplementation) lookup(viewer domain.Viewer) (*Session, error) {
	if viewer.UserID == "" {
		return nil, common.ErrUnauthorized.WithDetails("User ID not found in token.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, found := s.sessions.Get(viewer.UserID); found {
		if sess, ok := cached.(*Session); ok && sess.Viewer == viewer {
			s.sessions.Set(viewer.UserID, sess, cache.DefaultExpiration)
			return sess, nil
		}
		s.logger.Info("Viewer changed, rebuilding notification session",
			zap.String("userID", viewer.UserID), zap.String("role", viewer.Role))
	}

	sess := &Session{Viewer: viewer, Store: NewStore(), StartedAt: s.now()}
	userID := viewer.UserID
	sess.Store.Subscribe(func(c Change) {
		s.logger.Debug("Notification store changed",
			zap.String("userID", userID),
			zap.String("kind", string(c.Kind)),
			zap.Int("unread", c.UnreadCount),
		)
	})
	s.sessions.Set(viewer.UserID, sess, cache.DefaultExpiration)
	return sess, nil
}

// recompute evaluates snap for sess and replaces its store contents. A nil
// snap is loaded first.
func (s *ServiceImplementation) recompute(ctx context.Context, sess *Session, snap *domain.Snapshot) error {
	if snap == nil {
		loaded, err := s.load(ctx)
		if err != nil {
			return err
		}
		snap = loaded
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	candidates := s.evaluator.Generate(*snap, sess.Viewer, s.now())
	sess.Store.Recompute(candidates)
	sess.loaded = true
	return nil
}

func (s *ServiceImplementation) load(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		s.logger.Error("Failed to load dashboard snapshot", zap.Error(err))
		return nil, common.ErrServiceUnavailable.WithDetails("Dashboard data could not be loaded.")
	}
	if snap == nil {
		snap = &domain.Snapshot{}
	}
	return snap, nil
}
