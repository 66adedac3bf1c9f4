// internal/realtime/listener.go
package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/tallerpiolin/inventory-backend/internal/metrics"
)

const pingInterval = 90 * time.Second

// Listener turns Postgres NOTIFY messages on one channel into hub changes.
type Listener struct {
	dsn          string
	channel      string
	minReconnect time.Duration
	maxReconnect time.Duration
	hub          *Hub
}

func NewListener(dsn, channel string, minReconnect, maxReconnect time.Duration, hub *Hub) *Listener {
	return &Listener{
		dsn:          dsn,
		channel:      channel,
		minReconnect: minReconnect,
		maxReconnect: maxReconnect,
		hub:          hub,
	}
}

func (l *Listener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, l.logEvent)
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("failed to listen on channel %s: %w", l.channel, err)
	}
	logrus.WithField("channel", l.channel).Info("Realtime listener started")

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n := <-listener.Notify:
			if n == nil {
				// pq delivers nil after a reconnect
				if err := l.hub.Publish(ctx, Change{Kind: Resync, ReceivedAt: time.Now()}); err != nil {
					return nil
				}
				continue
			}

			change, err := ParseChange([]byte(n.Extra))
			if err != nil {
				logrus.WithError(err).WithField("channel", n.Channel).Warn("Dropping malformed change payload")
				continue
			}
			metrics.RealtimeEvent(change.Table, string(change.Kind))
			if err := l.hub.Publish(ctx, change); err != nil {
				return nil
			}

		case <-ping.C:
			if err := listener.Ping(); err != nil {
				logrus.WithError(err).Warn("Realtime listener ping failed")
			}
		}
	}
}

func (l *Listener) logEvent(ev pq.ListenerEventType, err error) {
	entry := logrus.WithField("channel", l.channel)
	if err != nil {
		entry = entry.WithError(err)
	}

	switch ev {
	case pq.ListenerEventConnected:
		entry.Info("Realtime listener connected")
	case pq.ListenerEventDisconnected:
		entry.Warn("Realtime listener disconnected")
	case pq.ListenerEventReconnected:
		entry.Info("Realtime listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		entry.Error("Realtime listener connection attempt failed")
	}
}
