//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"betstream/domain"
	"betstream/domain/event"
	"context"
	"reflect"
)

// EventSink consumes channel events delivered by the transport.
// Sinks are invoked sequentially per channel; a sink must not block.
type EventSink interface {
	Consume(ctx context.Context, e event.ChannelEvent) error
}

// Subscription is one live attachment of a component to a channel.
type Subscription interface {
	// Track announces a presence entry on the subscribed channel.
	// A rejoin for the same user overwrites the previous entry.
	Track(ctx context.Context, entry domain.PresenceEntry) error
	// Close releases the subscription. Closing a tracking subscription
	// produces the leave event other observers see.
	Close()
}

// Transport is the generic bidirectional publish/subscribe primitive.
// Delivery is at-least-once while connected, ordered per channel,
// with no persistence of its own.
type Transport interface {
	// Subscribe attaches a named component to a channel. The transport
	// guarantees at most one live subscription per (channel, component)
	// pair; a duplicate attempt fails with ErrAlreadySubscribed.
	Subscribe(channel domain.ChannelID, component string, sink EventSink) (Subscription, error)
	// Publish fans an event out to every sink attached to its channel.
	Publish(ctx context.Context, e event.ChannelEvent) error
}

// Permission is the platform alert authorization state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Alerter is the platform-level alert surface. Raising an alert with a key
// already on screen replaces it rather than stacking a duplicate.
type Alerter interface {
	Permission() Permission
	RequestPermission() Permission
	Alert(key, title, message string) error
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
