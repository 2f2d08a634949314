// Package presence maintains the live set of participants attached to a
// conversation channel, driven by the transport's sync/join/leave events.
package presence

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/domain/event"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// State is the tracker's position in its attachment lifecycle.
type State int

const (
	Detached State = iota
	Joining
	Synced
)

// Tracker observes who is online on one channel at a time.
//
// Lifecycle per attachment: Detached -> Joining on Attach, Joining -> Synced
// on the transport's full-state snapshot. Only after Synced do incremental
// join/leave events mutate the set, both idempotent. Entering Synced also
// announces the tracker's own presence, which is what produces the join
// event other observers see.
type Tracker struct {
	log       *slog.Logger
	transport contract.Transport
	component string
	now       func() time.Time

	mu      sync.Mutex
	epoch   uint64
	state   State
	channel domain.ChannelID
	selfID  string
	sub     contract.Subscription
	online  map[string]struct{}
}

func NewTracker(log *slog.Logger, transport contract.Transport) *Tracker {
	return &Tracker{
		log:       log,
		transport: transport,
		component: "presence/" + uuid.NewString(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Attach joins a channel under the given identity key. A previous attachment
// is released first; an empty channel id only detaches.
func (t *Tracker) Attach(channel domain.ChannelID, selfID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.detachLocked()
	if channel == "" {
		return nil
	}

	epoch := t.epoch
	sub, err := t.transport.Subscribe(channel, t.component, &presenceSink{tracker: t, epoch: epoch})
	if err != nil {
		// Permanently detached for this attempt; the caller may re-Attach
		return err
	}

	t.state = Joining
	t.channel = channel
	t.selfID = selfID
	t.sub = sub
	return nil
}

// Detach releases the subscription unconditionally. No leave announcement is
// made here: the transport-level disconnect produces the leave event
// observers see.
func (t *Tracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detachLocked()
}

func (t *Tracker) detachLocked() {
	t.epoch++
	if t.sub != nil {
		t.sub.Close()
		t.sub = nil
	}
	t.state = Detached
	t.channel = ""
	t.selfID = ""
	t.online = nil
}

func (t *Tracker) handle(epoch uint64, e event.ChannelEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if epoch != t.epoch {
		// Event from a released attachment
		return
	}

	switch evt := e.(type) {
	case event.PresenceSync:
		// Wholesale replacement by the snapshot's key set
		t.online = make(map[string]struct{}, len(evt.Keys))
		for _, key := range evt.Keys {
			t.online[key] = struct{}{}
		}
		t.state = Synced
		if err := t.sub.Track(context.Background(), domain.PresenceEntry{
			UserID:   t.selfID,
			OnlineAt: t.now(),
		}); err != nil {
			t.log.Warn("Failed to announce presence", "channel", t.channel, "error", err)
		}
	case event.PresenceJoin:
		if t.state == Synced {
			t.online[evt.Entry.UserID] = struct{}{}
		}
	case event.PresenceLeave:
		if t.state == Synced {
			delete(t.online, evt.UserID)
		}
	}
}

// Online returns the currently observed key set. Empty whenever the tracker
// is detached: no stale entries survive a detach/reattach cycle.
func (t *Tracker) Online() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lo.Keys(t.online)
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

type presenceSink struct {
	tracker *Tracker
	epoch   uint64
}

func (s *presenceSink) Consume(_ context.Context, e event.ChannelEvent) error {
	s.tracker.handle(s.epoch, e)
	return nil
}
