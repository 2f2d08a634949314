// Package notify surfaces a user's notification log inserts as local alerts,
// optionally mirrored to the platform alert surface.
package notify

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/domain/event"
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Surfacer renders one notification locally (toast, badge, list refresh).
// A failed surface attempt is dropped, never queued.
type Surfacer func(notification domain.Notification) error

// Dispatcher observes inserts into the notification log owned by the current
// identity. Platform alert permission is requested at most once per
// undetermined-permission state, not once per event; granted alerts are
// keyed by the notification id so a duplicate delivery replaces rather than
// stacks.
type Dispatcher struct {
	log       *slog.Logger
	transport contract.Transport
	alerter   contract.Alerter
	surface   Surfacer
	component string

	mu        sync.Mutex
	epoch     uint64
	userID    string
	sub       contract.Subscription
	requested bool
}

func NewDispatcher(log *slog.Logger, transport contract.Transport,
	alerter contract.Alerter, surface Surfacer) *Dispatcher {
	return &Dispatcher{
		log:       log,
		transport: transport,
		alerter:   alerter,
		surface:   surface,
		component: "notify/" + uuid.NewString(),
	}
}

// Attach observes the notification channel of one identity.
func (d *Dispatcher) Attach(userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.detachLocked()
	if userID == "" {
		return nil
	}

	epoch := d.epoch
	sub, err := d.transport.Subscribe(domain.NotificationChannel(userID), d.component,
		&notificationSink{dispatcher: d, epoch: epoch})
	if err != nil {
		return err
	}

	d.userID = userID
	d.sub = sub
	return nil
}

func (d *Dispatcher) Detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detachLocked()
}

func (d *Dispatcher) detachLocked() {
	d.epoch++
	if d.sub != nil {
		d.sub.Close()
		d.sub = nil
	}
	d.userID = ""
}

func (d *Dispatcher) handle(epoch uint64, e event.ChannelEvent) {
	inserted, ok := e.(event.NotificationInserted)
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if epoch != d.epoch || inserted.Notification.UserID != d.userID {
		return
	}
	notification := inserted.Notification

	if d.surface != nil {
		if err := d.surface(notification); err != nil {
			// Dropped, not queued
			d.log.Warn("Local notification surface failed", "id", notification.ID, "error", err)
		}
	}

	permission := d.alerter.Permission()
	if permission == contract.PermissionDefault {
		if d.requested {
			return
		}
		d.requested = true
		permission = d.alerter.RequestPermission()
	} else {
		// Permission settled; a future undetermined state is a fresh one
		d.requested = false
	}

	if permission != contract.PermissionGranted {
		return
	}
	if err := d.alerter.Alert(notification.ID.String(), notification.Title, notification.Message); err != nil {
		d.log.Warn("Platform alert failed", "id", notification.ID, "error", err)
	}
}

type notificationSink struct {
	dispatcher *Dispatcher
	epoch      uint64
}

func (s *notificationSink) Consume(_ context.Context, e event.ChannelEvent) error {
	s.dispatcher.handle(s.epoch, e)
	return nil
}
