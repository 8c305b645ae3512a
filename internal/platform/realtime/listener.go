// Package realtime turns Postgres NOTIFY events on the dashboard's change
// channel into refresh callbacks.
package realtime

import (
	"context"
	"fmt"
	"time"

	"crm_dashboard_backend/internal/config"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	minReconnectInterval = 5 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// Listener subscribes to a Postgres channel with LISTEN.
type Listener struct {
	dsn     string
	channel string
	enabled bool
	logger  *zap.Logger
}

// NewListener creates a listener for cfg.RealtimeChannel. It is disabled when
// the database is not Postgres or no channel is configured.
func NewListener(cfg *config.Config, logger *zap.Logger) *Listener {
	return &Listener{
		dsn:     cfg.DBSource,
		channel: cfg.RealtimeChannel,
		enabled: cfg.RealtimeEnabled(),
		logger:  logger.Named("RealtimeListener"),
	}
}

// Enabled reports whether Run will connect.
func (l *Listener) Enabled() bool {
	return l != nil && l.enabled
}

// Run blocks until ctx is done, calling onChange after every notification on
// the channel and after every reconnect (events may have been missed while
// disconnected). Bursts of notifications that arrive while onChange is
// running collapse into a single follow-up call.
func (l *Listener) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	if !l.Enabled() {
		l.logger.Info("Realtime change feed disabled, skipping LISTEN.")
		return nil
	}

	pl := pq.NewListener(l.dsn, minReconnectInterval, maxReconnectInterval, l.reportEvent)
	defer pl.Close()

	if err := pl.Listen(l.channel); err != nil {
		return fmt.Errorf("failed to LISTEN on channel %q: %w", l.channel, err)
	}
	l.logger.Info("Listening for dashboard changes", zap.String("channel", l.channel))

	c := newCoalescer(onChange)
	go c.run(ctx)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Realtime listener stopping")
			return nil
		case n := <-pl.Notify:
			if n == nil {
				l.logger.Info("Realtime connection re-established, scheduling refresh")
			} else {
				l.logger.Debug("Change notification received",
					zap.String("channel", n.Channel),
					zap.String("payload", n.Extra),
				)
			}
			c.trigger()
		case <-ticker.C:
			go func() {
				if err := pl.Ping(); err != nil {
					l.logger.Warn("Realtime listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func (l *Listener) reportEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		l.logger.Info("Realtime listener connected")
	case pq.ListenerEventDisconnected:
		l.logger.Warn("Realtime listener disconnected", zap.Error(err))
	case pq.ListenerEventReconnected:
		l.logger.Info("Realtime listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.Warn("Realtime listener connection attempt failed", zap.Error(err))
	}
}

// coalescer runs fn once per trigger, merging triggers that arrive while fn
// is already running into one follow-up call.
type coalescer struct {
	fn      func(ctx context.Context)
	pending chan struct{}
}

func newCoalescer(fn func(ctx context.Context)) *coalescer {
	return &coalescer{fn: fn, pending: make(chan struct{}, 1)}
}

func (c *coalescer) trigger() {
	select {
	case c.pending <- struct{}{}:
	default:
	}
}

func (c *coalescer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.pending:
			c.fn(ctx)
		}
	}
}
