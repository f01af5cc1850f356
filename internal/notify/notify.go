// Package notify serves a user's notification inbox.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lantern/internal/apperr"
	"lantern/internal/metrics"
	"lantern/internal/models"
	"lantern/internal/store"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Dispatcher struct {
	store store.Notifications
	log   *zap.Logger
	now   func() time.Time
}

func NewDispatcher(st store.Notifications, log *zap.Logger) *Dispatcher {
	return &Dispatcher{store: st, log: log, now: time.Now}
}

// UnreadCount reflects every notification committed before the call.
func (d *Dispatcher) UnreadCount(ctx context.Context, recipient string) (int, error) {
	n, err := d.store.CountUnread(ctx, recipient)
	if err != nil {
		return 0, apperr.FromStore(err, "notification")
	}
	return n, nil
}

// List returns the recipient's notifications, most recent first. A limit <= 0
// uses DefaultLimit; larger values are capped at MaxLimit.
func (d *Dispatcher) List(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	out, err := d.store.ListNotifications(ctx, recipient, limit)
	if err != nil {
		return nil, apperr.FromStore(err, "notification")
	}
	if out == nil {
		out = []models.Notification{}
	}
	return out, nil
}

// MarkRead marks one of the recipient's notifications read. Notifications of
// other users are reported as not found.
func (d *Dispatcher) MarkRead(ctx context.Context, recipient string, id int64) error {
	n, err := d.store.GetNotification(ctx, id)
	if err != nil {
		return apperr.FromStore(err, "notification")
	}
	if n.RecipientEmail != recipient {
		return apperr.NotFound("notification not found")
	}
	if n.IsRead {
		return nil
	}
	if err := d.store.MarkRead(ctx, id); err != nil {
		return apperr.FromStore(err, "notification")
	}
	metrics.RecordMarkedRead(1)
	return nil
}

// MarkAllRead marks read everything unread at call time. Notifications created
// after the call started stay unread.
func (d *Dispatcher) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	asOf := d.now()
	n, err := d.store.MarkAllRead(ctx, recipient, asOf)
	if err != nil {
		return 0, apperr.FromStore(err, "notification")
	}
	metrics.RecordMarkedRead(n)
	d.log.Debug("notifications marked read", zap.String("recipient", recipient), zap.Int64("count", n))
	return n, nil
}
