package notifications

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/delarsify/sanjeevani/internal/session"
)

// Dispatcher persists toasts and pushes them to the user's live sinks.
type Dispatcher struct {
	store *Store
	hub   *Hub
	log   *logrus.Entry
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(store *Store, hub *Hub) *Dispatcher {
	return &Dispatcher{
		store: store,
		hub:   hub,
		log:   logrus.WithField("component", "notifications"),
	}
}

// Dispatch persists t and delivers it live. A toast that reaches at least one
// sink is marked delivered; otherwise it stays pending.
func (d *Dispatcher) Dispatch(ctx context.Context, t Toast) (Toast, error) {
	t.Delivered = false
	saved, err := d.store.Create(ctx, t)
	if err != nil {
		return Toast{}, fmt.Errorf("creating notification: %w", err)
	}

	if saved.UserID == "" || d.hub.Deliver(saved) == 0 {
		return saved, nil
	}
	if err := d.store.MarkDelivered(ctx, saved.ID, ""); err != nil {
		return saved, err
	}
	saved.Delivered = true
	return saved, nil
}

// Notify implements session.Notifier. Failures are logged, never returned.
func (d *Dispatcher) Notify(ctx context.Context, t session.Toast) {
	saved, err := d.Dispatch(ctx, FromSession(t))
	if err != nil {
		d.log.WithError(err).WithField("user_id", t.UserID).Error("dispatching toast failed")
		return
	}
	d.log.WithFields(logrus.Fields{
		"user_id":   saved.UserID,
		"severity":  saved.Severity,
		"delivered": saved.Delivered,
	}).Debug("toast dispatched")
}
