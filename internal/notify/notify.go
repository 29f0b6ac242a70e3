// Package notify delivers graph events (contradiction detected,
// assumption invalidated, stale decision surfaced, dormant alternative
// found) to users: a durable table write plus best-effort websocket
// fan-out (spec.md section 4.9).
package notify

import (
	"context"

	"github.com/continuum-dev/continuum/internal/model"
)

// Store is the durable notification table this package writes through
// and replays from; internal/store/postgres.Client satisfies it.
type Store interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	RecentUnread(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// ReplayLimit is the default N of spec.md section 4.9: "replays up to N
// (default 20) unread notifications oldest-first" on connect.
const ReplayLimit = 20
