// Package transport provides the channel transport: a generic bidirectional
// publish/subscribe primitive with a presence extension. Delivery is
// at-least-once while attached and ordered per channel; the transport
// persists nothing.
package transport

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/domain/event"
	"betstream/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Hub is the in-memory transport. Each channel owns a single dispatch
// goroutine, which is what preserves per-channel event order. Channels are
// created implicitly on first subscribe and destroyed on last unsubscribe.
type Hub struct {
	log        *slog.Logger
	registry   *Registry
	bufferSize int

	mu       sync.Mutex
	channels map[domain.ChannelID]*hubChannel
}

// delivery pairs an event with an optional exclusive target.
// A nil only means fan out to every sink on the channel; the presence sync
// snapshot is the one delivery addressed to a single subscriber.
type delivery struct {
	evt  event.ChannelEvent
	only contract.EventSink
}

type hubChannel struct {
	deliveries chan delivery
	presence   map[string]domain.PresenceEntry
}

func NewHub(log *slog.Logger, bufferSize int) *Hub {
	return &Hub{
		log:        log,
		registry:   NewRegistry(),
		bufferSize: bufferSize,
		channels:   make(map[domain.ChannelID]*hubChannel),
	}
}

// Subscribe attaches a component to a channel and immediately schedules a
// presence sync snapshot addressed to the new sink. The snapshot is what
// moves a presence observer from Joining to Synced, even when nobody is
// tracked yet.
func (h *Hub) Subscribe(channel domain.ChannelID, component string, sink contract.EventSink) (contract.Subscription, error) {
	if channel == "" {
		return nil, fmt.Errorf("%w: empty channel", errors.ErrSubscription)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.registry.Register(channel, component, sink); err != nil {
		return nil, err
	}

	ch, ok := h.channels[channel]
	if !ok {
		ch = &hubChannel{
			deliveries: make(chan delivery, h.bufferSize),
			presence:   make(map[string]domain.PresenceEntry),
		}
		h.channels[channel] = ch
		go h.dispatch(channel, ch.deliveries)
	}

	h.enqueue(channel, ch, delivery{
		evt:  event.PresenceSync{ChannelID: channel, Keys: lo.Keys(ch.presence)},
		only: sink,
	})

	return &hubSubscription{hub: h, channel: channel, component: component, sink: sink}, nil
}

// Publish fans an event out to every sink attached to its channel.
// Publishing to a channel nobody observes is a silent no-op.
func (h *Hub) Publish(_ context.Context, e event.ChannelEvent) error {
	if err := validateEvent(e); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[e.Channel()]
	if !ok {
		return nil
	}
	h.enqueue(e.Channel(), ch, delivery{evt: e})
	return nil
}

// enqueue hands a delivery to the channel's dispatcher without blocking.
// Callers hold h.mu, which is also what makes the close in unsubscribe safe.
func (h *Hub) enqueue(channel domain.ChannelID, ch *hubChannel, d delivery) {
	select {
	case ch.deliveries <- d:
	default:
		h.log.Warn("Channel delivery buffer full, dropping event",
			"channel", channel, "event", fmt.Sprintf("%T", d.evt))
	}
}

// dispatch is the single consumer of a channel's delivery queue.
// Sequential consumption is the per-channel ordering guarantee.
func (h *Hub) dispatch(channel domain.ChannelID, deliveries chan delivery) {
	ctx := context.Background()
	for d := range deliveries {
		sinks := []contract.EventSink{d.only}
		if d.only == nil {
			sinks = h.registry.SinksFor(channel)
		}
		for _, sink := range sinks {
			if err := sink.Consume(ctx, d.evt); err != nil {
				h.log.Warn("Sink failed to consume event",
					"channel", channel, "event", fmt.Sprintf("%T", d.evt), "error", err)
			}
		}
	}
}

func (h *Hub) track(s *hubSubscription, entry domain.PresenceEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: subscription closed", errors.ErrWrite)
	}
	ch, ok := h.channels[s.channel]
	if !ok {
		return fmt.Errorf("%w: channel gone", errors.ErrWrite)
	}

	// Rejoin overwrites, never duplicates
	ch.presence[entry.UserID] = entry
	s.tracked = entry.UserID

	h.enqueue(s.channel, ch, delivery{evt: event.PresenceJoin{ChannelID: s.channel, Entry: entry}})
	return nil
}

// unsubscribe releases one attachment. A tracking subscriber produces the
// leave event observers see; the last attachment tears the channel down.
func (h *Hub) unsubscribe(s *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	h.registry.Unregister(s.channel, s.component)

	ch, ok := h.channels[s.channel]
	if !ok {
		return
	}

	if s.tracked != "" {
		delete(ch.presence, s.tracked)
		h.enqueue(s.channel, ch, delivery{evt: event.PresenceLeave{ChannelID: s.channel, UserID: s.tracked}})
	}

	if h.registry.Empty(s.channel) {
		delete(h.channels, s.channel)
		close(ch.deliveries)
	}
}

type hubSubscription struct {
	hub       *Hub
	channel   domain.ChannelID
	component string
	sink      contract.EventSink
	tracked   string
	closed    bool
}

func (s *hubSubscription) Track(_ context.Context, entry domain.PresenceEntry) error {
	if entry.OnlineAt.IsZero() {
		entry.OnlineAt = time.Now().UTC()
	}
	return s.hub.track(s, entry)
}

func (s *hubSubscription) Close() {
	s.hub.unsubscribe(s)
}
